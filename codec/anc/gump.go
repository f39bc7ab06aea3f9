/*
NAME
  gump.go

DESCRIPTION
  gump.go provides encoding and decoding of ancillary packets to and from the
  GUMP byte stream format produced and consumed by SDI anc extractor and
  inserter hardware.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package anc

import "github.com/pkg/errors"

/*
A GUMP packet is laid out as below. The checksum is informational; inserter
hardware recalculates it.

============================================================================
| octet no | bit 7 | bit 6 | bit 5 | bit 4 | bit 3 | bit 2 | bit 1 | bit 0 |
============================================================================
| octet 0  | sentinel (0xff)                                               |
----------------------------------------------------------------------------
| octet 1  | LOC   | RAW   | Y     | HANC  | line number b10-b7            |
----------------------------------------------------------------------------
| octet 2  | 0     | line number b6-b0                                     |
----------------------------------------------------------------------------
| octet 3  | DID                                                           |
----------------------------------------------------------------------------
| octet 4  | SID                                                           |
----------------------------------------------------------------------------
| octet 5  | DC                                                            |
----------------------------------------------------------------------------
| -        | payload (DC octets)                                           |
----------------------------------------------------------------------------
| last     | checksum                                                      |
----------------------------------------------------------------------------
*/
const (
	gumpSentinel   = 0xff
	gumpHeaderSize = 6 // Sentinel, two header bytes, DID, SID and DC.
	gumpOverhead   = gumpHeaderSize + 1

	gumpHdrIdx1 = 1
	gumpHdrIdx2 = 2
	gumpDIDIdx  = 3
	gumpSIDIdx  = 4
	gumpDCIdx   = 5

	gumpLocFlag     = 0x80
	gumpRawFlag     = 0x40
	gumpLumaFlag    = 0x20
	gumpHANCFlag    = 0x10
	gumpLineHiMask  = 0x0f
	gumpLineLoMask  = 0x7f
	gumpLineHiShift = 7
)

// DecodeGUMP initialises p from the GUMP packet at the start of buf, returning
// the number of bytes consumed so that the caller can advance to the next
// packet. If buf does not start with a GUMP sentinel no packet is present;
// p is left cleared and 0 is returned without error so that the caller may
// resynchronise.
//
// def is used as the packet location, with the coding, channel, space and
// line number replaced by those carried in the packet when its location flag
// is set.
func (p *Packet) DecodeGUMP(buf []byte, def Location) (int, error) {
	p.Clear()
	if buf == nil {
		return 0, errors.Wrap(ErrNullInput, "cannot decode GUMP")
	}
	if len(buf) < gumpOverhead {
		return 0, errors.Wrapf(ErrBufferTooSmall, "%d bytes available, GUMP packets are at least %d", len(buf), gumpOverhead)
	}
	if buf[0] != gumpSentinel {
		return 0, nil
	}

	dc := int(buf[gumpDCIdx])
	n := dc + gumpOverhead
	if n > len(buf) {
		return 0, errors.Wrapf(ErrRange, "GUMP packet size %d exceeds %d available bytes", n, len(buf))
	}

	p.did = buf[gumpDIDIdx]
	p.sid = buf[gumpSIDIdx]
	p.checksum = buf[n-1]
	p.bufferFormat = BufferFormatSDI
	loc := def
	if h := buf[gumpHdrIdx1]; h&gumpLocFlag != 0 {
		if h&gumpRawFlag != 0 {
			p.coding = CodingRaw
		}
		loc.channel = ChannelC
		if h&gumpLumaFlag != 0 {
			loc.channel = ChannelY
		}
		loc.space = SpaceVANC
		if h&gumpHANCFlag != 0 {
			loc.space = SpaceHANC
		}
		loc.line = uint16(h&gumpLineHiMask)<<gumpLineHiShift | uint16(buf[gumpHdrIdx2]&gumpLineLoMask)
	}
	err := p.SetLocation(loc)
	if err != nil {
		return 0, err
	}

	if dc != 0 {
		err = p.SetPayloadData(buf[gumpHeaderSize : gumpHeaderSize+dc])
		if err != nil {
			return 0, err
		}
	}
	return n, nil
}

// GUMPSize returns the number of bytes EncodeGUMP will write for p. Digital
// payloads longer than MaxDC are truncated; raw payloads are split over as
// many packets as needed.
func (p *Packet) GUMPSize() int {
	switch p.coding {
	case CodingDigital:
		return min(len(p.payload), MaxDC) + gumpOverhead
	case CodingRaw:
		if len(p.payload) == 0 {
			return gumpOverhead
		}
		n := (len(p.payload) + MaxDC - 1) / MaxDC
		return len(p.payload) + n*gumpOverhead
	default:
		return 0
	}
}

// EncodeGUMP writes p into dst in GUMP format, returning the number of bytes
// written.
//
// A digital packet with more than MaxDC payload bytes is truncated to MaxDC
// bytes and a warning is logged. A raw packet is written as a run of packets
// each carrying at most MaxDC bytes of the payload, with the same header and
// checksum, as inserter hardware recalculates checksums for analog data.
func (p *Packet) EncodeGUMP(dst []byte) (int, error) {
	if !p.IsDigital() && !p.IsRaw() {
		return 0, errors.Wrapf(ErrInvalidCoding, "cannot GUMP encode %s coding", p.coding)
	}
	size := p.GUMPSize()
	if len(dst) < size {
		return 0, errors.Wrapf(ErrBufferTooSmall, "GUMP encoding needs %d bytes, have %d", size, len(dst))
	}

	if p.IsDigital() {
		pl := p.payload
		if len(pl) > MaxDC {
			Log.Warning("truncating GUMP payload", "did", p.did, "sid", p.sid, "dc", len(pl), "max", MaxDC)
			pl = pl[:MaxDC]
		}
		return p.putGUMP(dst, pl), nil
	}

	pl := p.payload
	var n int
	for {
		l := min(len(pl), MaxDC)
		n += p.putGUMP(dst[n:], pl[:l])
		pl = pl[l:]
		if len(pl) == 0 {
			break
		}
	}
	return n, nil
}

// MarshalGUMP returns p encoded in GUMP format.
func (p *Packet) MarshalGUMP() ([]byte, error) {
	buf := make([]byte, p.GUMPSize())
	n, err := p.EncodeGUMP(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// putGUMP writes a single GUMP packet carrying pl to dst, returning its size.
func (p *Packet) putGUMP(dst, pl []byte) int {
	dst[0] = gumpSentinel
	dst[gumpHdrIdx1], dst[gumpHdrIdx2] = p.gumpHeader()
	dst[gumpDIDIdx] = p.did
	dst[gumpSIDIdx] = p.sid
	dst[gumpDCIdx] = byte(len(pl))
	copy(dst[gumpHeaderSize:], pl)
	dst[gumpHeaderSize+len(pl)] = p.checksum
	return len(pl) + gumpOverhead
}

// gumpHeader returns the two GUMP header bytes describing p's location.
func (p *Packet) gumpHeader() (byte, byte) {
	h := byte(gumpLocFlag)
	if p.IsRaw() {
		h |= gumpRawFlag
	}
	if p.location.channel == ChannelY {
		h |= gumpLumaFlag
	}
	if p.location.space == SpaceHANC {
		h |= gumpHANCFlag
	}
	line := p.location.line
	h |= byte(line>>gumpLineHiShift) & gumpLineHiMask
	return h, byte(line) & gumpLineLoMask
}

// ParseGUMP decodes every GUMP packet in buf. Positions that do not hold a
// packet are skipped a byte at a time until the next sentinel. A packet that
// fails to decode is logged and skipped in the same way, so one bad packet
// does not lose the rest of the buffer.
//
// A raw packet following raw packets with the same DID, SID and location
// that fill whole MaxDC byte chunks is joined to them, undoing the splitting
// done by EncodeGUMP.
func ParseGUMP(buf []byte, def Location) ([]*Packet, error) {
	if buf == nil {
		return nil, errors.Wrap(ErrNullInput, "cannot parse GUMP")
	}

	var pkts []*Packet
	for off := 0; len(buf)-off >= gumpOverhead; {
		p := &Packet{}
		n, err := p.DecodeGUMP(buf[off:], def)
		if err != nil {
			Log.Warning("skipping bad GUMP packet", "offset", off, "error", err.Error())
			off++
			continue
		}
		if n == 0 {
			off++
			continue
		}
		off += n

		if len(pkts) != 0 {
			last := pkts[len(pkts)-1]
			if p.IsRaw() && last.IsRaw() && len(last.payload)%MaxDC == 0 && last.did == p.did && last.sid == p.sid && last.location == p.location {
				err = last.AppendPayload(p)
				if err != nil {
					return pkts, err
				}
				continue
			}
		}
		pkts = append(pkts, p)
	}
	return pkts, nil
}

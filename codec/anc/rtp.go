/*
NAME
  rtp.go

DESCRIPTION
  rtp.go provides packing and unpacking of ancillary packets to and from the
  32-bit word stream carried in SMPTE ST 2110-40 (RFC 8331) RTP payloads.

  See https://tools.ietf.org/html/rfc8331.

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
RTPPacketHeader is the 32-bit word preceding each ANC packet in an RFC 8331
payload.

 0                   1                   2                   3
 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|C|   Line_Number       |   Horizontal_Offset   |S|  StreamNum  |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

The C bit is set for ChannelC, whose enumerated value is zero, and clear for
everything else, so the bit reads as the inverse of the Channel value.
ChannelBoth and ChannelUnknown therefore encode as clear and decode as
ChannelY. Existing senders and receivers depend on this mapping.
*/
type RTPPacketHeader struct {
	CChannel   bool
	Line       uint16 // 11 bits.
	HOffset    uint16 // 12 bits.
	StreamFlag bool   // Set if StreamNum is meaningful.
	StreamNum  uint8  // 7 bits.
}

// Bit fields of the RTP ANC packet header.
const (
	hdrCBit       = 0x80000000
	hdrLineShift  = 20
	hdrLineMask   = 0x7ff
	hdrHOffShift  = 8
	hdrHOffMask   = 0xfff
	hdrSBit       = 0x80
	hdrStreamMask = 0x7f
)

// Word returns h as a 32-bit word.
func (h RTPPacketHeader) Word() uint32 {
	w := uint32(h.Line&hdrLineMask)<<hdrLineShift | uint32(h.HOffset&hdrHOffMask)<<hdrHOffShift | uint32(h.StreamNum&hdrStreamMask)
	if h.CChannel {
		w |= hdrCBit
	}
	if h.StreamFlag {
		w |= hdrSBit
	}
	return w
}

// SetFromWord sets the fields of h from the 32-bit word w.
func (h *RTPPacketHeader) SetFromWord(w uint32) {
	h.CChannel = w&hdrCBit != 0
	h.Line = uint16(w>>hdrLineShift) & hdrLineMask
	h.HOffset = uint16(w>>hdrHOffShift) & hdrHOffMask
	h.StreamFlag = w&hdrSBit != 0
	h.StreamNum = uint8(w) & hdrStreamMask
}

// HeaderFromLocation returns the RTP packet header describing l. Line numbers
// and offsets too large for the header fields are given as LineOverflow and
// HOffsetOverflow.
func HeaderFromLocation(l Location) RTPPacketHeader {
	h := RTPPacketHeader{
		CChannel: l.channel == ChannelC,
		Line:     l.line,
		HOffset:  l.hOffset,
	}
	if h.Line > hdrLineMask {
		h.Line = LineOverflow
	}
	if h.HOffset > hdrHOffMask {
		h.HOffset = HOffsetOverflow
	}
	if l.stream < DSUnknown {
		h.StreamFlag = true
		h.StreamNum = uint8(l.stream)
	}
	return h
}

// Location returns the location described by h. The link is not carried and
// is given as LinkA. The space is HANC only when the horizontal offset is
// HOffsetAnyHANC.
func (h RTPPacketHeader) Location() (Location, error) {
	loc := DefaultLocation()
	ch := ChannelY
	if h.CChannel {
		ch = ChannelC
	}
	err := loc.SetChannel(ch)
	if err != nil {
		return loc, err
	}
	ds := DSUnknown
	if h.StreamFlag {
		ds = DataStream(h.StreamNum)
	}
	err = loc.SetDataStream(ds)
	if err != nil {
		return loc, err
	}
	sp := SpaceVANC
	if h.HOffset == HOffsetAnyHANC {
		sp = SpaceHANC
	}
	err = loc.SetSpace(sp)
	if err != nil {
		return loc, err
	}
	loc.SetLineNumber(h.Line)
	loc.SetHorizontalOffset(h.HOffset)
	return loc, nil
}

// cadenceStep is one step of the 10-bit to 32-bit packing cadence. Packing
// masks a 10-bit word and shifts it into place in the current 32-bit word;
// steps with right set place the high bits of a word split across two 32-bit
// words, the low bits following in the next step.
type cadenceStep struct {
	shift uint
	mask  uint16
	right bool
}

// cadence packs 16 10-bit words into 5 32-bit words, four steps per 32-bit
// word.
var cadence = [20]cadenceStep{
	{22, 0x3ff, false}, {12, 0x3ff, false}, {2, 0x3ff, false}, {8, 0x300, true},
	{24, 0x0ff, false}, {14, 0x3ff, false}, {4, 0x3ff, false}, {6, 0x3c0, true},
	{26, 0x03f, false}, {16, 0x3ff, false}, {6, 0x3ff, false}, {4, 0x3f0, true},
	{28, 0x00f, false}, {18, 0x3ff, false}, {8, 0x3ff, false}, {2, 0x3fc, true},
	{30, 0x003, false}, {20, 0x3ff, false}, {10, 0x3ff, false}, {0, 0x3ff, false},
}

const stepsPerWord = 4

// packedLen returns the number of 32-bit words needed to hold n 10-bit words.
func packedLen(n int) int { return (n*10 + 31) / 32 }

// pack appends the 10-bit words in src to dst packed MSB first into 32-bit
// words. The last word is padded with zero bits.
func pack(dst []uint32, src []uint16) []uint32 {
	n := packedLen(len(src))
	var (
		acc uint32
		i   int
	)
	for n > 0 {
		for s, st := range cadence {
			var w uint16
			if i < len(src) {
				w = src[i]
			}
			v := uint32(w & st.mask)
			if st.right {
				v >>= st.shift
			} else {
				v <<= st.shift
				i++
			}
			acc |= v
			if s%stepsPerWord != stepsPerWord-1 {
				continue
			}
			dst = append(dst, acc)
			acc = 0
			n--
			if n == 0 {
				break
			}
		}
	}
	return dst
}

// unpack unpacks 10-bit words from src until done returns true for the
// words unpacked so far or src is exhausted. It returns the 10-bit words and
// the number of 32-bit words read, including a final partially used word.
func unpack(src []uint32, done func([]uint16) bool) ([]uint16, int) {
	var (
		words []uint16
		cur   uint16
		w     uint32
		j     int
	)
	for {
		for s, st := range cadence {
			if s%stepsPerWord == 0 {
				if j >= len(src) {
					return words, j
				}
				w = src[j]
				j++
			}
			if st.right {
				cur |= uint16(w<<st.shift) & st.mask
				continue
			}
			cur |= uint16(w>>st.shift) & st.mask
			words = append(words, cur)
			cur = 0
			if done(words) {
				return words, j
			}
		}
	}
}

// RTPSize returns the number of 32-bit words AppendRTP appends for p,
// including the packet header word.
func (p *Packet) RTPSize() int { return 1 + packedLen(len(p.payload)+4) }

// AppendRTP appends p to dst as an RTP ANC packet header word followed by
// the packed DID, SID, DC, user data and checksum words. The checksum is
// calculated. Only digital packets with at most MaxDC payload bytes can be
// carried; otherwise dst is returned unchanged with an error.
func (p *Packet) AppendRTP(dst []uint32) ([]uint32, error) {
	if !p.IsDigital() {
		return dst, errors.Wrapf(ErrInvalidCoding, "cannot carry %s coding in RTP", p.coding)
	}
	if len(p.payload) > MaxDC {
		return dst, errors.Wrapf(ErrRange, "DC %d exceeds %d", len(p.payload), MaxDC)
	}

	words := make([]uint16, 0, len(p.payload)+4)
	words = append(words, AddEvenParity(p.did), AddEvenParity(p.sid), AddEvenParity(byte(len(p.payload))))
	for _, b := range p.payload {
		words = append(words, AddEvenParity(b))
	}
	words = append(words, Checksum9(p.did, p.sid, p.payload))

	dst = append(dst, HeaderFromLocation(p.location).Word())
	return pack(dst, words), nil
}

// Offsets into the unpacked 10-bit word sequence.
const (
	rtpDIDIdx  = 0
	rtpSIDIdx  = 1
	rtpDCIdx   = 2
	rtpUDWIdx  = 3
	rtpMinSize = 4 // DID, SID, DC and checksum.
)

// DecodeRTP initialises p from the RTP ANC packet starting at words[cursor],
// returning the cursor of the following packet. Packets start on a 32-bit
// word boundary, so a partially used final word is skipped.
//
// A checksum mismatch is an error unless lenient is true, in which case it is
// logged and the packet is kept as decoded. The returned cursor is usable for
// decoding the next packet after any error other than ErrNullInput and
// ErrRange.
func (p *Packet) DecodeRTP(words []uint32, cursor int, lenient bool) (int, error) {
	p.Clear()
	if words == nil {
		return cursor, errors.Wrap(ErrNullInput, "cannot decode RTP")
	}
	if cursor < 0 || cursor >= len(words) {
		return cursor, errors.Wrapf(ErrRange, "cursor %d, %d words", cursor, len(words))
	}

	var h RTPPacketHeader
	h.SetFromWord(words[cursor])
	cursor++
	loc, err := h.Location()
	if err != nil {
		return cursor, errors.Wrap(err, "bad RTP packet header")
	}
	err = p.SetLocation(loc)
	if err != nil {
		return cursor, err
	}
	p.bufferFormat = BufferFormatRTP

	udw, n := unpack(words[cursor:], func(w []uint16) bool {
		return len(w) > rtpDCIdx && len(w) == int(byte(w[rtpDCIdx]))+rtpMinSize
	})
	cursor += n
	if len(udw) < rtpMinSize {
		return cursor, errors.Wrapf(ErrIncompletePacket, "only %d words unpacked", len(udw))
	}
	dc := int(byte(udw[rtpDCIdx]))
	if dc+rtpMinSize > len(udw) {
		return cursor, errors.Wrapf(ErrIncompletePacket, "DC %d needs %d words, only %d unpacked", dc, dc+rtpMinSize, len(udw))
	}

	p.did = byte(udw[rtpDIDIdx])
	p.sid = byte(udw[rtpSIDIdx])
	if dc != 0 {
		pl, err := allocPayload(dc)
		if err != nil {
			return cursor, err
		}
		for i := range pl {
			pl[i] = byte(udw[rtpUDWIdx+i])
		}
		p.payload = pl
	}

	err = p.SetChecksum(byte(udw[rtpUDWIdx+dc]), true)
	if err != nil {
		if !lenient {
			return cursor, err
		}
		Log.Warning("keeping RTP ANC packet with bad checksum", "did", p.did, "sid", p.sid, "error", err.Error())
	}
	return cursor, nil
}

// DecodeRTPPackets decodes count packets from words, as found in an RFC 8331
// payload following the payload header. Packets decoded before an error are
// returned along with it.
func DecodeRTPPackets(words []uint32, count int, lenient bool) ([]*Packet, error) {
	pkts := make([]*Packet, 0, count)
	var cursor int
	for i := 0; i < count; i++ {
		p := &Packet{}
		var err error
		cursor, err = p.DecodeRTP(words, cursor, lenient)
		if err != nil {
			return pkts, errors.Wrapf(err, "could not decode ANC packet %d of %d", i+1, count)
		}
		pkts = append(pkts, p)
	}
	return pkts, nil
}

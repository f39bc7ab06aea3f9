/*
NAME
  smpte2038.go

DESCRIPTION
  smpte2038.go provides encoding and decoding of ancillary packets to and from
  the SMPTE ST 2038 PES payload format used to carry ancillary data in MPEG-TS.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package smpte2038 provides the SMPTE ST 2038 carriage of ancillary data
// packets in MPEG-TS, with a Writer muxing them into a transport stream and
// a Reader demuxing them from one.
package smpte2038

import (
	"bytes"
	"io"

	"github.com/Eyevinn/mp4ff/bits"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/anc/codec/anc"
)

// Log is used for diagnostics that do not affect results. By default nothing
// is logged.
var Log logging.Logger = logging.New(logging.Warning, io.Discard, true)

/*
Each ancillary packet in a PES payload is laid out as below, followed by
'1' bits up to the next byte boundary. A byte of 0xff where a packet would
start ends the list.

	reserved           6  '000000'
	c_not_y_channel    1
	line_number       11
	horizontal_offset 12
	DID               10
	SDID              10
	data_count        10
	user_data_words   10 * data_count
	checksum_word     10
*/
const (
	reservedBits = 6
	flagBits     = 1
	lineBits     = 11
	hOffsetBits  = 12
	wordBits     = 10
	headerBits   = reservedBits + flagBits + lineBits + hOffsetBits
	fixedBits    = headerBits + 4*wordBits // DID, SDID, DC and checksum.

	stuffingByte = 0xff
	wordDataMask = 0xff
)

// packetBytes returns the byte aligned size of a packet carrying dc user
// data words.
func packetBytes(dc int) int { return (fixedBits + dc*wordBits + 7) / 8 }

// Encode returns pkts encoded as the payload of an ST 2038 PES packet. Only
// digital packets with at most anc.MaxDC payload bytes can be carried.
func Encode(pkts []*anc.Packet) ([]byte, error) {
	var (
		buf bytes.Buffer
		w   = bits.NewWriter(&buf)
	)
	for i, p := range pkts {
		if p == nil {
			return nil, errors.Wrapf(anc.ErrNullInput, "packet %d", i)
		}
		if !p.IsDigital() {
			return nil, errors.Wrapf(anc.ErrInvalidCoding, "cannot carry %s coding in ST 2038", p.Coding())
		}
		pl := p.Payload()
		if len(pl) > anc.MaxDC {
			return nil, errors.Wrapf(anc.ErrRange, "packet %d DC %d exceeds %d", i, len(pl), anc.MaxDC)
		}

		h := anc.HeaderFromLocation(p.Location())
		w.Write(0, reservedBits)
		w.Write(asUint(h.CChannel), flagBits)
		w.Write(uint(h.Line), lineBits)
		w.Write(uint(h.HOffset), hOffsetBits)
		w.Write(uint(anc.AddEvenParity(p.DID())), wordBits)
		w.Write(uint(anc.AddEvenParity(p.SID())), wordBits)
		w.Write(uint(anc.AddEvenParity(byte(len(pl)))), wordBits)
		for _, b := range pl {
			w.Write(uint(anc.AddEvenParity(b)), wordBits)
		}
		w.Write(uint(anc.Checksum9(p.DID(), p.SID(), pl)), wordBits)

		if n := (fixedBits + len(pl)*wordBits) % 8; n != 0 {
			w.Write(1<<(8-n)-1, 8-n)
		}
	}
	w.Flush()
	if err := w.AccError(); err != nil {
		return nil, errors.Wrap(err, "could not write ST 2038 data")
	}
	return buf.Bytes(), nil
}

// Decode returns the ancillary packets in the ST 2038 PES payload data.
// Decoding stops at trailing stuffing or the end of data. Packets decoded
// before an error are returned along with it.
//
// A checksum mismatch is an error unless lenient is true, in which case it is
// logged and the packet is kept as decoded. Parity bits are not checked.
func Decode(data []byte, lenient bool) ([]*anc.Packet, error) {
	if data == nil {
		return nil, errors.Wrap(anc.ErrNullInput, "cannot decode ST 2038")
	}
	var pkts []*anc.Packet
	for off := 0; off < len(data) && data[off] != stuffingByte; {
		p, n, err := decodePacket(data[off:], lenient)
		if err != nil {
			return pkts, errors.Wrapf(err, "bad ST 2038 packet at offset %d", off)
		}
		pkts = append(pkts, p)
		off += n
	}
	return pkts, nil
}

// decodePacket decodes the packet at the start of data, returning it with
// its byte aligned size.
func decodePacket(data []byte, lenient bool) (*anc.Packet, int, error) {
	r := bits.NewReader(bytes.NewReader(data))
	reserved := r.Read(reservedBits)
	var h anc.RTPPacketHeader
	h.CChannel = r.Read(flagBits) == 1
	h.Line = uint16(r.Read(lineBits))
	h.HOffset = uint16(r.Read(hOffsetBits))
	did := byte(r.Read(wordBits) & wordDataMask)
	sid := byte(r.Read(wordBits) & wordDataMask)
	dc := int(r.Read(wordBits) & wordDataMask)
	if r.AccError() != nil {
		return nil, 0, errors.Wrapf(anc.ErrIncompletePacket, "%d bytes too short for packet header", len(data))
	}
	if reserved != 0 {
		return nil, 0, errors.Wrapf(anc.ErrRange, "reserved bits %#x not zero", reserved)
	}
	n := packetBytes(dc)
	if n > len(data) {
		return nil, 0, errors.Wrapf(anc.ErrIncompletePacket, "DC %d needs %d bytes, have %d", dc, n, len(data))
	}

	var pl []byte
	if dc != 0 {
		pl = make([]byte, dc)
		for i := range pl {
			pl[i] = byte(r.Read(wordBits) & wordDataMask)
		}
	}
	cs := uint16(r.Read(wordBits))
	if r.AccError() != nil {
		return nil, 0, errors.Wrap(r.AccError(), "could not read packet")
	}

	p, err := anc.NewPacketWith(did, sid, pl)
	if err != nil {
		return nil, 0, err
	}
	loc, err := h.Location()
	if err != nil {
		return nil, 0, err
	}
	err = p.SetLocation(loc)
	if err != nil {
		return nil, 0, err
	}
	if want := anc.Checksum9(did, sid, pl); cs != want {
		err = errors.Wrapf(anc.ErrChecksumMismatch, "got %#03x, calculated %#03x", cs, want)
		if !lenient {
			return nil, 0, err
		}
		Log.Warning("keeping ST 2038 packet with bad checksum", "did", did, "sid", sid, "error", err.Error())
	}
	p.SetChecksum(byte(cs), false)
	return p, n, nil
}

func asUint(b bool) uint {
	if b {
		return 1
	}
	return 0
}

/*
NAME
  header.go

DESCRIPTION
  header.go provides the RFC 8331 ANC RTP payload header.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rtp

import (
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
)

// Field identifies the video field an ANC payload belongs to.
type Field uint8

const (
	FieldProgressive Field = iota // Progressive or unspecified.
	FieldInvalid
	FieldOne
	FieldTwo
)

func (f Field) String() string {
	switch f {
	case FieldProgressive:
		return "progressive"
	case FieldInvalid:
		return "invalid"
	case FieldOne:
		return "field 1"
	case FieldTwo:
		return "field 2"
	default:
		return fmt.Sprintf("Field(%d)", uint8(f))
	}
}

/*
PayloadHeader holds the RTP fixed header and ANC specific header words that
start each RFC 8331 payload, five 32-bit words in all.

 0                   1                   2                   3
 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|V=2|P|X| CC    |M|    PT       |   sequence number             |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|                           timestamp                           |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
|           synchronization source (SSRC) identifier            |
+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
|   Extended Sequence Number    |           Length              |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
| ANC_Count     | F |                reserved                   |
+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+

The sequence number is 32 bits, its low 16 bits in the RTP header and its
high 16 bits in the extended sequence number. Length is the number of octets
of ANC data following the header.
*/
type PayloadHeader struct {
	Version     uint8
	Padding     bool
	Extension   bool
	CSRCCount   uint8
	Marker      bool
	PayloadType uint8
	Sequence    uint32
	Timestamp   uint32
	SSRC        uint32
	Length      uint16
	ANCCount    uint8
	Field       Field
}

// PayloadHeaderSize is the size of a PayloadHeader in bytes.
const PayloadHeaderSize = 5 * 4

// Words returns h as five 32-bit words.
func (h PayloadHeader) Words() [5]uint32 {
	var w [5]uint32
	w[0] = uint32(h.Version&0x3)<<30 |
		uint32(asByte(h.Padding))<<29 |
		uint32(asByte(h.Extension))<<28 |
		uint32(h.CSRCCount&0xf)<<24 |
		uint32(asByte(h.Marker))<<23 |
		uint32(h.PayloadType&0x7f)<<16 |
		h.Sequence&0xffff
	w[1] = h.Timestamp
	w[2] = h.SSRC
	w[3] = h.Sequence&0xffff0000 | uint32(h.Length)
	w[4] = uint32(h.ANCCount)<<24 | uint32(h.Field&0x3)<<22
	return w
}

// SetFromWords sets h from the first five words of w. Only RTP version 2 is
// accepted.
func (h *PayloadHeader) SetFromWords(w []uint32) error {
	if len(w) < 5 {
		return errors.Wrapf(ErrShortPacket, "payload header needs 5 words, have %d", len(w))
	}
	v := uint8(w[0] >> 30)
	if v != rtpVer {
		return errors.Wrapf(ErrVersion, "version %d", v)
	}
	*h = PayloadHeader{
		Version:     v,
		Padding:     w[0]&(1<<29) != 0,
		Extension:   w[0]&(1<<28) != 0,
		CSRCCount:   uint8(w[0]>>24) & 0xf,
		Marker:      w[0]&(1<<23) != 0,
		PayloadType: uint8(w[0]>>16) & 0x7f,
		Sequence:    w[3]&0xffff0000 | w[0]&0xffff,
		Timestamp:   w[1],
		SSRC:        w[2],
		Length:      uint16(w[3]),
		ANCCount:    uint8(w[4] >> 24),
		Field:       Field(w[4]>>22) & 0x3,
	}
	return nil
}

// AppendBytes appends the big endian encoding of h to b.
func (h PayloadHeader) AppendBytes(b []byte) []byte {
	for _, w := range h.Words() {
		b = binary.BigEndian.AppendUint32(b, w)
	}
	return b
}

// ParsePayloadHeader parses the payload header at the start of the RTP packet
// b. CSRCs and header extensions are skipped.
func ParsePayloadHeader(b []byte) (PayloadHeader, error) {
	h, _, err := parsePayload(b)
	return h, err
}

// parsePayload parses the payload header of the RTP packet b, returning the
// ANC data following it.
func parsePayload(b []byte) (PayloadHeader, []byte, error) {
	var h PayloadHeader
	pl, err := Payload(b)
	if err != nil {
		return h, nil, err
	}
	if len(pl) < 8 {
		return h, nil, errors.Wrapf(ErrShortPacket, "%d byte payload cannot hold ANC header", len(pl))
	}
	w := []uint32{
		binary.BigEndian.Uint32(b[0:]),
		binary.BigEndian.Uint32(b[4:]),
		binary.BigEndian.Uint32(b[8:]),
		binary.BigEndian.Uint32(pl[0:]),
		binary.BigEndian.Uint32(pl[4:]),
	}
	err = h.SetFromWords(w)
	if err != nil {
		return h, nil, err
	}
	return h, pl[8:], nil
}

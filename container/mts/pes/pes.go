/*
NAME
  pes.go

DESCRIPTION
  pes.go provides encoding of MPEG-2 packetized elementary stream packets.

AUTHOR
  Saxon A. Nelson-Milton <saxon.milton@gmail.com>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pes provides encoding of MPEG-2 packetized elementary stream
// packets.
package pes

import "github.com/Comcast/gots/v2"

// MaxPesSize is the largest PES packet a Packet will encode into a reused
// buffer.
const MaxPesSize = 64 * 1 << 10

// Stream IDs as per ITU-T Rec. H.222.0 / ISO/IEC 13818-1, table 2-22.
const (
	PrivateStream1SID = 0xbd // Carries SMPTE ST 2038 ancillary data.
)

// PTS DTS indicator values.
const (
	NoPTS  = 0x0
	HasPTS = 0x2
)

// Length of the PES header fields following the packet length.
const optHeaderLen = 3

// TODO: add DSMTM, ACI, CRC, Ext fields
type Packet struct {
	StreamID     byte   // Type of stream
	Length       uint16 // Pes packet length in bytes after this field
	SC           byte   // Scrambling control
	Priority     bool   // Priority Indicator
	DAI          bool   // Data alginment indicator
	Copyright    bool   // Copyright indicator
	Original     bool   // Original data indicator
	PDI          byte   // PTS DTS indicator
	ESCRF        bool   // Elementary stream clock reference flag
	ESRF         bool   // Elementary stream rate reference flag
	DSMTMF       bool   // Dsm trick mode flag
	ACIF         bool   // Additional copy info flag
	CRCF         bool   // CRC flag
	EF           bool   // Extension flag
	HeaderLength byte   // Pes header length
	PTS          uint64 // Presentation time stamp
	Stuff        []byte // Stuffing bytes
	Data         []byte // Pes packet data
}

// SetLength sets the packet length from the header and data sizes. A packet
// too large for the length field is left with length zero, meaning
// unbounded.
func (p *Packet) SetLength() {
	n := optHeaderLen + int(p.HeaderLength) + len(p.Data)
	if n > 0xffff {
		n = 0
	}
	p.Length = uint16(n)
}

// Bytes returns the encoded packet, using buf as backing storage if it has
// capacity MaxPesSize.
func (p *Packet) Bytes(buf []byte) []byte {
	if buf == nil || cap(buf) != MaxPesSize {
		buf = make([]byte, 0, MaxPesSize)
	}
	buf = buf[:0]
	buf = append(buf, []byte{
		0x00, 0x00, 0x01,
		p.StreamID,
		byte((p.Length & 0xFF00) >> 8),
		byte(p.Length & 0x00FF),
		(0x2<<6 | p.SC<<4 | boolByte(p.Priority)<<3 | boolByte(p.DAI)<<2 |
			boolByte(p.Copyright)<<1 | boolByte(p.Original)),
		(p.PDI<<6 | boolByte(p.ESCRF)<<5 | boolByte(p.ESRF)<<4 | boolByte(p.DSMTMF)<<3 |
			boolByte(p.ACIF)<<2 | boolByte(p.CRCF)<<1 | boolByte(p.EF)),
		p.HeaderLength,
	}...)

	if p.PDI == HasPTS {
		ptsIdx := len(buf)
		buf = buf[:ptsIdx+5]
		gots.InsertPTS(buf[ptsIdx:], p.PTS)
	}
	buf = append(buf, p.Stuff...)
	buf = append(buf, p.Data...)
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

/*
NAME
  rtp.go

DESCRIPTION
  rtp.go provides the RTP packet type and its serialisation.

  See https://tools.ietf.org/html/rfc3550 for RTP and
  https://tools.ietf.org/html/rfc8331 for the carriage of SMPTE ST 291-1
  ancillary data.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package rtp provides RTP packets and the sending and receiving of SMPTE ST
// 2110-40 ancillary data streams over RTP as described by RFC 8331.
package rtp

import (
	"encoding/binary"
)

const (
	rtpVer           = 2                                // Version of RTP that this package is compatible with.
	defaultHeadSize  = 12                               // Header size of an RTP packet without CSRCs or extension.
	defPayloadSize   = maxPayloadSize                   // Default payload size for an RTP packet.
	defPktSize       = defaultHeadSize + defPayloadSize // Default packet size is header size + payload size.
	optionalFieldIdx = 12                               // Index of the CSRCs and extension header.
)

// Packet provides fields consistent with the RFC 3550 definition of an RTP
// packet. The padding flag is not needed if Padding is set.
type Packet struct {
	Version     uint8           // Version (currently 2).
	PaddingFlag bool            // Padding indicator.
	ExtHeadFlag bool            // Extension header indicator.
	CSRCCount   uint8           // CSRC count.
	Marker      bool            // Marker bit.
	PacketType  uint8           // Payload type.
	Sync        uint16          // Sequence number.
	Timestamp   uint32          // Timestamp.
	SSRC        uint32          // Synchronisation source identifier.
	CSRC        [][4]byte       // Contributing source identifiers.
	Extension   ExtensionHeader // Header extension.
	Payload     []byte          // Payload data.
	Padding     []byte          // Padding, the last byte holding its length.
}

// ExtensionHeader provides fields for an RTP packet extension header.
type ExtensionHeader struct {
	ID     uint16
	Header [][4]byte
}

// Bytes returns p serialised into buf, which is grown if needed. CSRCs beyond
// CSRCCount are not written.
func (p *Packet) Bytes(buf []byte) []byte {
	extLen := 0
	if p.ExtHeadFlag {
		extLen = 4 + 4*len(p.Extension.Header)
	}
	csrcs := min(int(p.CSRCCount), len(p.CSRC))
	n := defaultHeadSize + 4*csrcs + extLen + len(p.Payload) + len(p.Padding)
	if n > cap(buf) {
		buf = make([]byte, n, max(n, defPktSize))
	}
	buf = buf[:n]

	buf[0] = p.Version<<6 | asByte(p.PaddingFlag || len(p.Padding) != 0)<<5 | asByte(p.ExtHeadFlag)<<4 | byte(csrcs)
	buf[1] = asByte(p.Marker)<<7 | p.PacketType&0x7f
	binary.BigEndian.PutUint16(buf[2:4], p.Sync)
	binary.BigEndian.PutUint32(buf[4:8], p.Timestamp)
	binary.BigEndian.PutUint32(buf[8:12], p.SSRC)

	idx := optionalFieldIdx
	for _, c := range p.CSRC[:csrcs] {
		idx += copy(buf[idx:], c[:])
	}

	if p.ExtHeadFlag {
		binary.BigEndian.PutUint16(buf[idx:], p.Extension.ID)
		binary.BigEndian.PutUint16(buf[idx+2:], uint16(len(p.Extension.Header)))
		idx += 4
		for _, h := range p.Extension.Header {
			idx += copy(buf[idx:], h[:])
		}
	}

	idx += copy(buf[idx:], p.Payload)
	copy(buf[idx:], p.Padding)
	return buf
}

func asByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}

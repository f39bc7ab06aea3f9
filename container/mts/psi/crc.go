/*
NAME
  crc.go

DESCRIPTION
  crc.go provides the MPEG-2 CRC32 used to protect PSI sections.

AUTHOR
	Dan Kortschak <dan@ausocean.org>
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package psi

import (
	"encoding/binary"
	"hash/crc32"
	"math/bits"
)

// crcTable is the MSB first table for the IEEE polynomial, as used by
// MPEG-2 sections. hash/crc32 only provides the reflected form.
var crcTable = makeTable(bits.Reverse32(crc32.IEEE))

// AddCRC returns a copy of the PSI table out with its CRC appended. The
// pointer field is not covered.
func AddCRC(out []byte) []byte {
	t := make([]byte, len(out)+crcSize)
	copy(t, out)
	UpdateCrc(t[1:])
	return t
}

// UpdateCrc writes the CRC of b, excluding its last four bytes, into those
// bytes.
func UpdateCrc(b []byte) {
	binary.BigEndian.PutUint32(b[len(b)-crcSize:], checksum(b[:len(b)-crcSize]))
}

func checksum(p []byte) uint32 {
	crc := uint32(0xffffffff)
	for _, v := range p {
		crc = crcTable[byte(crc>>24)^v] ^ (crc << 8)
	}
	return crc
}

func makeTable(poly uint32) *crc32.Table {
	var t crc32.Table
	for i := range t {
		crc := uint32(i) << 24
		for j := 0; j < 8; j++ {
			if crc&0x80000000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

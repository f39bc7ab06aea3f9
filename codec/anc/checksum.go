/*
NAME
  checksum.go

DESCRIPTION
  checksum.go provides SMPTE-291 even parity extension of 8-bit words and the
  ancillary packet checksum calculations.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package anc

import "math/bits"

// Bits of a 10-bit ancillary word.
const (
	parityBit    = 0x100 // b8, even parity of b0-b7.
	notParityBit = 0x200 // b9, complement of b8.
	wordMask     = 0x3ff
	sumMask      = 0x1ff // Checksum is a 9-bit sum.
)

// parityTable holds the parity extended 10-bit value of every 8-bit word.
var parityTable = func() (t [256]uint16) {
	for i := range t {
		if bits.OnesCount8(uint8(i))%2 == 1 {
			t[i] = uint16(i) | parityBit
		} else {
			t[i] = uint16(i) | notParityBit
		}
	}
	return t
}()

// AddEvenParity returns b as a 10-bit word with b8 set to the even parity of
// b0-b7 and b9 set to the complement of b8.
func AddEvenParity(b byte) uint16 { return parityTable[b] }

// Checksum8 returns the legacy 8-bit checksum of a packet, which is the sum of
// DID, SID, DC and every payload byte. It is the low 8 bits of Checksum9.
func Checksum8(did, sid byte, payload []byte) byte {
	sum := did + sid + byte(len(payload))
	for _, b := range payload {
		sum += b
	}
	return sum
}

// Checksum9 returns the SMPTE-291 checksum word of a packet. It is the 9-bit
// sum of the parity extended DID, SID, DC and user data words, with b9 set to
// the complement of b8.
func Checksum9(did, sid byte, payload []byte) uint16 {
	sum := AddEvenParity(did)&sumMask + AddEvenParity(sid)&sumMask + AddEvenParity(byte(len(payload)))&sumMask
	for _, b := range payload {
		sum += AddEvenParity(b) & sumMask
	}
	return checksumWord(sum)
}

// checksumWord turns a running sum into a checksum word.
func checksumWord(sum uint16) uint16 {
	sum &= sumMask
	if sum&parityBit == 0 {
		sum |= notParityBit
	}
	return sum
}

// ValidParity returns true if the 10-bit word w carries correct even parity
// in b8 and b9.
func ValidParity(w uint16) bool {
	return w&wordMask == AddEvenParity(byte(w))
}

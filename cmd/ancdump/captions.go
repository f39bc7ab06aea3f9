/*
NAME
  captions.go

DESCRIPTION
  captions.go provides decoding of CEA-608 caption text from CEA-608 and
  CEA-708 ancillary packets.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/zsiec/ccx"

	"github.com/ausocean/anc/codec/anc"
)

// CEA-608 ancillary packet layout.
const (
	cea608Size      = 3
	cea608FieldFlag = 0x80 // Set for field 1.
)

// CEA-708 caption distribution packet layout.
const (
	cdpID1         = 0x96
	cdpID2         = 0x69
	cdpHeaderSize  = 7
	cdpFlagsIdx    = 4
	cdpTimeCode    = 0x80
	cdpCCData      = 0x40
	cdpTimeCodeID  = 0x71
	cdpTimeCodeLen = 5
	cdpCCDataID    = 0x72
	cdpCountMask   = 0x1f
	ccValid        = 0x04
	ccTypeMask     = 0x03
	ccField2       = 1
	tripletSize    = 3
	parityMask     = 0x7f
)

// ccPair is a CEA-608 byte pair with parity removed.
type ccPair struct {
	field int // 0 for field 1, 1 for field 2.
	data  [2]byte
}

// pairs returns the CEA-608 byte pairs carried by p. Packets of other types
// carry none.
func pairs(p *anc.Packet) ([]ccPair, error) {
	pl := p.Payload()
	switch p.Type() {
	case anc.TypeCEA608:
		if len(pl) < cea608Size {
			return nil, errors.Wrapf(anc.ErrIncompletePacket, "CEA-608 packet DC %d", len(pl))
		}
		f := 1
		if pl[0]&cea608FieldFlag != 0 {
			f = 0
		}
		return []ccPair{{field: f, data: [2]byte{pl[1] & parityMask, pl[2] & parityMask}}}, nil
	case anc.TypeCEA708:
		return cdpPairs(pl)
	default:
		return nil, nil
	}
}

// cdpPairs returns the CEA-608 byte pairs in the cc_data section of a
// caption distribution packet.
func cdpPairs(cdp []byte) ([]ccPair, error) {
	if len(cdp) < cdpHeaderSize || cdp[0] != cdpID1 || cdp[1] != cdpID2 {
		return nil, errors.New("not a caption distribution packet")
	}
	flags := cdp[cdpFlagsIdx]
	off := cdpHeaderSize
	if flags&cdpTimeCode != 0 {
		if off >= len(cdp) || cdp[off] != cdpTimeCodeID {
			return nil, errors.Wrap(anc.ErrIncompletePacket, "missing CDP time code section")
		}
		off += cdpTimeCodeLen
	}
	if flags&cdpCCData == 0 {
		return nil, nil
	}
	if off+1 >= len(cdp) || cdp[off] != cdpCCDataID {
		return nil, errors.Wrap(anc.ErrIncompletePacket, "missing CDP cc_data section")
	}
	n := int(cdp[off+1] & cdpCountMask)
	off += 2
	if off+n*tripletSize > len(cdp) {
		return nil, errors.Wrapf(anc.ErrIncompletePacket, "%d cc_data triplets need %d bytes, have %d", n, n*tripletSize, len(cdp)-off)
	}

	var pp []ccPair
	for i := 0; i < n; i++ {
		t := cdp[off+i*tripletSize:]
		typ := int(t[0] & ccTypeMask)
		if t[0]&ccValid == 0 || typ > ccField2 {
			continue
		}
		pp = append(pp, ccPair{field: typ, data: [2]byte{t[1] & parityMask, t[2] & parityMask}})
	}
	return pp, nil
}

// captions decodes CEA-608 caption text with a decoder per field. The data
// channels sharing a field are not separated, so text from field 1 is given
// as CC1 and from field 2 as CC3.
type captions struct {
	decs [2]*ccx.CEA608Decoder
}

func newCaptions() *captions {
	return &captions{decs: [2]*ccx.CEA608Decoder{ccx.NewCEA608Decoder(), ccx.NewCEA608Decoder()}}
}

// decode feeds the caption data of p to the decoders, returning any text
// lines completed.
func (c *captions) decode(p *anc.Packet) ([]string, error) {
	pp, err := pairs(p)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, cp := range pp {
		if cp.data == [2]byte{} {
			continue
		}
		text := c.decs[cp.field].Decode(cp.data[0], cp.data[1])
		if text != "" {
			lines = append(lines, fmt.Sprintf("CC%d\t%q", 2*cp.field+1, text))
		}
	}
	return lines, nil
}

/*
NAME
  decode.go

DESCRIPTION
  decode.go provides decoding of ancillary data packets from RFC 8331 RTP
  packets.

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

	"github.com/ausocean/anc/codec/anc"
	"github.com/pkg/errors"
)

// DecodeANC decodes the RFC 8331 RTP packet b, returning its payload header
// and the ancillary data packets it carries. If lenient is true, packets with
// checksum errors are kept.
//
// The packets decoded before an error are returned with it.
func DecodeANC(b []byte, lenient bool) (PayloadHeader, []*anc.Packet, error) {
	h, data, err := parsePayload(b)
	if err != nil {
		return h, nil, err
	}
	if int(h.Length) > len(data) {
		return h, nil, errors.Wrapf(ErrShortPacket, "header gives %d bytes of ANC data, have %d", h.Length, len(data))
	}
	if h.ANCCount == 0 {
		return h, nil, nil
	}

	words := make([]uint32, min((int(h.Length)+3)/4, len(data)/4))
	for i := range words {
		words[i] = binary.BigEndian.Uint32(data[4*i:])
	}
	pkts, err := anc.DecodeRTPPackets(words, int(h.ANCCount), lenient)
	if err != nil {
		return h, pkts, errors.Wrapf(err, "RTP packet %d", h.Sequence)
	}
	return h, pkts, nil
}

/*
NAME
  encoder.go

DESCRIPTION
  encoder.go provides an encoder that wraps ancillary data packets into RFC
  8331 RTP packets.

AUTHOR
  Saxon Nelson-Milton (saxon@ausocean.org)

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
	"io"
	"math/rand"
	"time"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

const (
	DefaultPayloadType = 100   // Dynamic payload type used for ANC.
	timestampFreq      = 90000 // Hz
	maxPayloadSize     = 1400  // Keeps RTP packets within an Ethernet MTU.
	maxANCCount        = 255
)

// ANCEncoder wraps ancillary data packets into RTP packets, writing each to
// dst. The packets of one field or frame share a timestamp, and the clock
// advances one frame interval after each marked RTP packet.
type ANCEncoder struct {
	dst           io.Writer
	log           logging.Logger
	ssrc          uint32
	seqNo         uint32
	payloadType   uint8
	clock         time.Duration
	frameInterval time.Duration
	words         []uint32
	scratch       []uint32
	pktSpace      [defPktSize]byte
}

// NewANCEncoder returns a new ANCEncoder writing to dst, with frames or fields
// sent at the given rate per second.
func NewANCEncoder(dst io.Writer, rate float64, log logging.Logger) *ANCEncoder {
	return &ANCEncoder{
		dst:           dst,
		log:           log,
		ssrc:          rand.Uint32(),
		payloadType:   DefaultPayloadType,
		frameInterval: time.Duration(float64(time.Second) / rate),
	}
}

// SSRC returns the synchronisation source identifier used by e.
func (e *ANCEncoder) SSRC() uint32 { return e.ssrc }

// Write implements io.Writer. Data is taken to be the GUMP encoded ancillary
// packets of one frame, and is sent as a single marked frame.
func (e *ANCEncoder) Write(data []byte) (int, error) {
	pkts, err := anc.ParseGUMP(data, anc.DefaultLocation())
	if err != nil {
		return 0, errors.Wrap(err, "could not parse GUMP data")
	}
	err = e.Encode(pkts, FieldProgressive, true)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Encode sends pkts as the ANC data of the given field, in as many RTP packets
// as are needed to keep within the maximum payload size. If marker is true
// the last RTP packet is marked, ending the field or frame, and the clock is
// advanced. An empty pkts with marker true sends a packet with no ANC data.
//
// Only digital packets can be carried; others are logged and skipped.
func (e *ANCEncoder) Encode(pkts []*anc.Packet, field Field, marker bool) error {
	e.words = e.words[:0]
	var count int
	for _, p := range pkts {
		if !p.IsDigital() {
			e.log.Info("skipping non-digital ANC packet", "packet", p.String())
			continue
		}
		var err error
		e.scratch, err = p.AppendRTP(e.scratch[:0])
		if err != nil {
			e.log.Warning("skipping ANC packet", "packet", p.String(), "error", err.Error())
			continue
		}
		if count == maxANCCount || 4*(len(e.words)+len(e.scratch)) > maxPayloadSize-8 {
			err = e.send(count, field, false)
			if err != nil {
				return err
			}
			count = 0
		}
		e.words = append(e.words, e.scratch...)
		count++
	}
	if count == 0 && !marker {
		return nil
	}
	err := e.send(count, field, marker)
	if err != nil {
		return err
	}
	if marker {
		e.tick()
	}
	return nil
}

// send writes an RTP packet holding the count ANC packets in e.words.
func (e *ANCEncoder) send(count int, field Field, marker bool) error {
	seq := e.nxtSeqNo()
	h := PayloadHeader{
		Version:     rtpVer,
		Marker:      marker,
		PayloadType: e.payloadType,
		Sequence:    seq,
		Timestamp:   e.nxtTimestamp(),
		SSRC:        e.ssrc,
		Length:      uint16(4 * len(e.words)),
		ANCCount:    uint8(count),
		Field:       field,
	}
	hw := h.Words()

	payload := make([]byte, 0, 8+4*len(e.words))
	payload = binary.BigEndian.AppendUint32(payload, hw[3])
	payload = binary.BigEndian.AppendUint32(payload, hw[4])
	for _, w := range e.words {
		payload = binary.BigEndian.AppendUint32(payload, w)
	}
	pkt := Packet{
		Version:    rtpVer,
		Marker:     marker,
		PacketType: e.payloadType,
		Sync:       uint16(seq),
		Timestamp:  h.Timestamp,
		SSRC:       e.ssrc,
		Payload:    payload,
	}
	e.words = e.words[:0]

	_, err := e.dst.Write(pkt.Bytes(e.pktSpace[:]))
	if err != nil {
		return errors.Wrapf(err, "could not write RTP packet %d", seq)
	}
	e.log.Debug("sent ANC RTP packet", "seq", seq, "count", count, "field", field.String(), "marker", marker)
	return nil
}

// tick advances the clock one frame interval.
func (e *ANCEncoder) tick() {
	e.clock += e.frameInterval
}

// nxtTimestamp gets the next timestamp.
func (e *ANCEncoder) nxtTimestamp() uint32 {
	return uint32(e.clock.Seconds() * timestampFreq)
}

// nxtSeqNo gets the next extended sequence number.
func (e *ANCEncoder) nxtSeqNo() uint32 {
	e.seqNo++
	return e.seqNo - 1
}

/*
NAME
  writer.go

DESCRIPTION
  writer.go provides a Writer that muxes frames of ancillary packets into an
  MPEG-TS stream as SMPTE ST 2038 PES packets.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package smpte2038

import (
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/anc/container/mts"
)

// Writer writes frames of ancillary packets to an MPEG-TS stream, one PES
// packet per frame.
type Writer struct {
	enc *mts.Encoder
	log logging.Logger
}

// NewWriter returns a Writer writing MPEG-TS to dst. The options configure
// the underlying MPEG-TS encoder, e.g. mts.Rate for the frame rate.
func NewWriter(dst io.WriteCloser, log logging.Logger, options ...func(*mts.Encoder) error) (*Writer, error) {
	enc, err := mts.NewEncoder(dst, log, options...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create MPEG-TS encoder")
	}
	return &Writer{enc: enc, log: log}, nil
}

// WriteFrame writes the packets of one frame. Packets ST 2038 cannot carry
// are logged and skipped. A frame left with no packets is still written, so
// that timestamps advance.
func (w *Writer) WriteFrame(pkts []*anc.Packet) error {
	keep := make([]*anc.Packet, 0, len(pkts))
	for _, p := range pkts {
		if p == nil {
			continue
		}
		if !p.IsDigital() || p.DC() > anc.MaxDC {
			w.log.Info("skipping packet not carried by ST 2038", "did", p.DID(), "sid", p.SID(), "coding", p.Coding().String(), "dc", p.DC())
			continue
		}
		keep = append(keep, p)
	}
	data, err := Encode(keep)
	if err != nil {
		return err
	}
	_, err = w.enc.Write(data)
	if err != nil {
		return errors.Wrap(err, "could not write frame")
	}
	w.log.Debug("wrote ST 2038 frame", "packets", len(keep), "bytes", len(data))
	return nil
}

// Close closes the Writer's destination.
func (w *Writer) Close() error { return w.enc.Close() }

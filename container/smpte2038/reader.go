/*
NAME
  reader.go

DESCRIPTION
  reader.go provides a Reader that demuxes frames of ancillary packets from
  SMPTE ST 2038 streams in MPEG-TS.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package smpte2038

import (
	"bufio"
	"context"
	"io"

	"github.com/Comcast/gots/v2/packet"
	"github.com/asticode/go-astits"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/anc/container/mts"
	"github.com/ausocean/anc/container/mts/pes"
)

// AnyPID selects every ST 2038 stream announced in the PMT.
const AnyPID = -1

// vancFormat is mts.FormatVANC as a registration format identifier.
const vancFormat = uint32('V')<<24 | uint32('A')<<16 | uint32('N')<<8 | uint32('C')

// Frame holds the ancillary packets of one PES packet.
type Frame struct {
	PID     uint16
	PTS     int64 // 90 kHz; -1 if absent.
	Packets []*anc.Packet
}

// Reader reads frames of ancillary packets from an MPEG-TS stream.
type Reader struct {
	dmx     *astits.Demuxer
	pid     int
	lenient bool
	pids    map[uint16]bool
	log     logging.Logger
}

// NewReader returns a Reader of the MPEG-TS in r. Leading bytes before the
// first sync byte are skipped. If pid is AnyPID, streams are selected by
// their PMT entry, a private data stream registered as "VANC"; otherwise only
// PES packets on pid are read. lenient is passed to Decode.
func NewReader(ctx context.Context, r io.Reader, pid int, lenient bool, log logging.Logger) (*Reader, error) {
	br := bufio.NewReaderSize(r, 1000*mts.PacketSize)
	n, err := packet.Sync(br)
	if err != nil {
		return nil, errors.Wrap(err, "could not sync with MPEG-TS")
	}
	if n != 0 {
		log.Warning("skipped bytes before first MPEG-TS packet", "bytes", n)
	}
	return &Reader{
		dmx:     astits.NewDemuxer(ctx, br),
		pid:     pid,
		lenient: lenient,
		pids:    make(map[uint16]bool),
		log:     log,
	}, nil
}

// Next returns the next frame, or io.EOF at the end of the stream. A frame
// that fails to decode is returned with the packets decoded before the error
// and the error; reading may continue.
func (r *Reader) Next() (*Frame, error) {
	for {
		d, err := r.dmx.NextData()
		if errors.Is(err, astits.ErrNoMorePackets) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.Wrap(err, "could not demux MPEG-TS")
		}

		if d.PMT != nil && r.pid == AnyPID {
			r.selectStreams(d.PMT)
			continue
		}
		if d.PES == nil || !r.wanted(d.PID) {
			continue
		}
		if d.PES.Header.StreamID != pes.PrivateStream1SID {
			r.log.Warning("skipping PES packet with unexpected stream ID", "PID", d.PID, "stream ID", d.PES.Header.StreamID)
			continue
		}

		f := &Frame{PID: d.PID, PTS: -1}
		if oh := d.PES.Header.OptionalHeader; oh != nil && oh.PTS != nil {
			f.PTS = oh.PTS.Base
		}
		f.Packets, err = Decode(d.PES.Data, r.lenient)
		if err != nil {
			return f, errors.Wrapf(err, "could not decode frame on PID %d", d.PID)
		}
		return f, nil
	}
}

// selectStreams records the ST 2038 streams described by pmt.
func (r *Reader) selectStreams(pmt *astits.PMTData) {
	for _, es := range pmt.ElementaryStreams {
		if uint8(es.StreamType) != mts.StreamTypePrivate || r.pids[es.ElementaryPID] {
			continue
		}
		for _, dsc := range es.ElementaryStreamDescriptors {
			if dsc.Registration != nil && dsc.Registration.FormatIdentifier == vancFormat {
				r.log.Info("found ST 2038 stream", "PID", es.ElementaryPID)
				r.pids[es.ElementaryPID] = true
				break
			}
		}
	}
}

func (r *Reader) wanted(pid uint16) bool {
	if r.pid == AnyPID {
		return r.pids[pid]
	}
	return int(pid) == r.pid
}

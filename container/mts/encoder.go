/*
NAME
  encoder.go

DESCRIPTION
  encoder.go provides an MPEG-TS encoder carrying SMPTE ST 2038 ancillary
  data in private stream 1 PES packets.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"io"
	"time"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/anc/container/mts/pes"
	"github.com/ausocean/anc/container/mts/psi"
)

// These constants are used to select between the methods of when the PSI is
// sent.
const (
	psiMethodPacket = iota // PSI is inserted after a certain number of packets.
	psiMethodTime          // PSI is inserted after a certain amount of stream time.
)

// StreamTypePrivate is the PMT stream type of PES private data, used for
// SMPTE ST 2038.
const StreamTypePrivate = 0x06

// FormatVANC is the registration descriptor format identifier marking a
// private data stream as SMPTE ST 2038.
const FormatVANC = "VANC"

// The elementary stream PID range and default.
const (
	minMediaPID     = 0x0020
	maxMediaPID     = 0x1ffe
	DefaultMediaPID = 256
)

// Time-related constants.
const (
	// ptsOffset is the offset added to the clock to determine
	// the current presentation timestamp.
	ptsOffset = 700 * time.Millisecond

	// PCRFrequency is the base Program Clock Reference frequency in Hz.
	PCRFrequency = 90000

	// PTSFrequency is the presentation timestamp frequency in Hz.
	PTSFrequency = 90000

	// MaxPTS is the largest PTS value (i.e., for a 33-bit unsigned integer).
	MaxPTS = (1 << 33) - 1
)

// Unless configured otherwise, PSI is sent every 7 packets.
const psiSendCount = 7

// PES header data length: a PTS only.
const pesHeaderLength = 5

// Default encoder configuration parameters.
const (
	defaultRate      = 25 // FPS
	defaultPSIMethod = psiMethodPacket
)

// Encoder encapsulates properties of an MPEG-TS generator.
type Encoder struct {
	dst io.WriteCloser

	clock       time.Duration
	writePeriod time.Duration
	ptsOffset   time.Duration
	tsSpace     [PacketSize]byte
	pesSpace    [pes.MaxPesSize]byte

	continuity map[uint16]byte

	psiMethod    int
	pktCount     int
	psiSendCount int
	psiTime      time.Duration
	psiSetTime   time.Duration
	mediaPID     uint16

	patBytes, pmtBytes []byte

	// log is a function that will be used through the encoder code for logging.
	log logging.Logger
}

// NewEncoder returns an Encoder writing to dst. Each call to Write is one
// access unit, so if Write is called for every video frame the rate is the
// frame rate of the video.
func NewEncoder(dst io.WriteCloser, log logging.Logger, options ...func(*Encoder) error) (*Encoder, error) {
	e := &Encoder{
		dst:          dst,
		writePeriod:  time.Duration(float64(time.Second) / defaultRate),
		ptsOffset:    ptsOffset,
		psiMethod:    defaultPSIMethod,
		psiSendCount: psiSendCount,
		pktCount:     psiSendCount,
		mediaPID:     DefaultMediaPID,
		continuity:   map[uint16]byte{PatPid: 0, PmtPid: 0, DefaultMediaPID: 0},
		log:          log,
		patBytes:     psi.NewPATPSI(PmtPid).Bytes(),
	}

	for _, option := range options {
		err := option(e)
		if err != nil {
			return nil, errors.Wrap(err, "option failed")
		}
	}
	log.Debug("encoder options applied")

	e.pmtBytes = psi.NewPMTPSI(e.mediaPID, StreamTypePrivate, psi.NewRegistration(FormatVANC)).Bytes()
	return e, nil
}

// Write implements io.Writer. Write takes the ST 2038 data of one access unit,
// wraps it in a PES packet and writes it as MPEG-TS to the encoder's
// destination.
func (e *Encoder) Write(data []byte) (int, error) {
	e.log.Debug("writing data", "len(data)", len(data))
	if len(data) > pes.MaxPesSize-pesHeaderLength-9 {
		return 0, errors.Errorf("access unit of %d bytes too large for PES", len(data))
	}

	switch e.psiMethod {
	case psiMethodPacket:
		e.log.Debug("checking packet no. conditions for PSI write", "count", e.pktCount, "PSI count", e.psiSendCount)
		if e.pktCount >= e.psiSendCount {
			e.pktCount = 0
			err := e.writePSI()
			if err != nil {
				return 0, errors.Wrap(err, "could not write psi (psiMethodPacket)")
			}
		}
	case psiMethodTime:
		e.log.Debug("checking time conditions for PSI write", "clock", e.clock, "next", e.psiTime)
		if e.clock >= e.psiTime {
			e.psiTime = e.clock + e.psiSetTime
			err := e.writePSI()
			if err != nil {
				return 0, errors.Wrap(err, "could not write psi (psiMethodTime)")
			}
		}
	default:
		panic("undefined PSI method")
	}

	// Prepare PES data.
	pts := e.pts()
	pesPkt := pes.Packet{
		StreamID:     pes.PrivateStream1SID,
		DAI:          true,
		PDI:          pes.HasPTS,
		PTS:          pts,
		Data:         data,
		HeaderLength: pesHeaderLength,
	}
	pesPkt.SetLength()

	buf := pesPkt.Bytes(e.pesSpace[:pes.MaxPesSize])

	pusi := true
	for len(buf) != 0 {
		pkt := Packet{
			PUSI: pusi,
			PID:  e.mediaPID,
			RAI:  pusi,
			CC:   e.ccFor(e.mediaPID),
			AFC:  HasAdaptationField | HasPayload,
			PCRF: pusi,
		}
		n := pkt.FillPayload(buf)
		buf = buf[n:]

		if pusi {
			// If the packet has a Payload Unit Start Indicator
			// flag set then we need to write a PCR.
			pcr := e.pcr()
			e.log.Debug("new access unit", "PCR", pcr, "PTS", pts)
			pkt.PCR = pcr
			pusi = false
		}

		b := pkt.Bytes(e.tsSpace[:PacketSize])
		e.log.Debug("writing MTS packet to destination", "size", len(b), "PID", pkt.PID, "CC", pkt.CC)
		_, err := e.dst.Write(b)
		if err != nil {
			return len(data), errors.Wrap(err, "could not write MTS packet to destination")
		}
		e.pktCount++
	}

	e.tick()

	return len(data), nil
}

// writePSI writes the PAT and PMT to the destination.
func (e *Encoder) writePSI() error {
	// Write PAT.
	patPkt := Packet{
		PUSI:    true,
		PID:     PatPid,
		CC:      e.ccFor(PatPid),
		AFC:     HasPayload,
		Payload: psi.AddPadding(e.patBytes),
	}
	_, err := e.dst.Write(patPkt.Bytes(e.tsSpace[:PacketSize]))
	if err != nil {
		return errors.Wrap(err, "could not write pat packet")
	}
	e.pktCount++

	// Create mts packet from pmt table.
	pmtPkt := Packet{
		PUSI:    true,
		PID:     PmtPid,
		CC:      e.ccFor(PmtPid),
		AFC:     HasPayload,
		Payload: psi.AddPadding(e.pmtBytes),
	}
	_, err = e.dst.Write(pmtPkt.Bytes(e.tsSpace[:PacketSize]))
	if err != nil {
		return errors.Wrap(err, "could not write pmt packet")
	}
	e.pktCount++

	e.log.Debug("PSI written", "PAT CC", patPkt.CC, "PMT CC", pmtPkt.CC)
	return nil
}

// tick advances the clock one frame interval.
func (e *Encoder) tick() {
	e.clock += e.writePeriod
}

// pts retuns the current presentation timestamp.
func (e *Encoder) pts() uint64 {
	return ticks(e.clock+e.ptsOffset, PTSFrequency) & MaxPTS
}

// pcr returns the current program clock reference.
func (e *Encoder) pcr() uint64 {
	return ticks(e.clock, PCRFrequency)
}

// ticks returns d in units of a clock of frequency f Hz, rounded down.
func ticks(d time.Duration, f uint64) uint64 {
	s := uint64(d / time.Second)
	ns := uint64(d % time.Second)
	return s*f + ns*f/uint64(time.Second)
}

// ccFor returns the next continuity counter for pid.
func (e *Encoder) ccFor(pid uint16) byte {
	cc := e.continuity[pid]
	const continuityCounterMask = 0xf
	e.continuity[pid] = (cc + 1) & continuityCounterMask
	return cc
}

// Close closes the encoder's destination.
func (e *Encoder) Close() error {
	e.log.Debug("closing encoder")
	return e.dst.Close()
}

/*
NAME
  options.go

DESCRIPTION
  options.go provides the options that may be passed to NewEncoder.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidRate = errors.New("invalid access unit rate")
	ErrInvalidPID  = errors.New("invalid elementary stream PID")
)

// PacketBasedPSI is an option that can be passed to NewEncoder to select
// packet based PSI writing, i.e. PSI are written to the destination every
// sendCount packets.
func PacketBasedPSI(sendCount int) func(*Encoder) error {
	return func(e *Encoder) error {
		e.psiMethod = psiMethodPacket
		e.psiSendCount = sendCount
		e.pktCount = e.psiSendCount
		e.log.Debug("configured for packet based PSI insertion", "count", sendCount)
		return nil
	}
}

// TimeBasedPSI is another option that can be passed to NewEncoder to select
// time based PSI writing, i.e. PSI are written to the destination every dur
// (duration) of stream time.
func TimeBasedPSI(dur time.Duration) func(*Encoder) error {
	return func(e *Encoder) error {
		e.psiMethod = psiMethodTime
		e.psiSetTime = dur
		e.psiTime = 0
		e.log.Debug("configured for time based PSI insertion", "period", dur)
		return nil
	}
}

// Rate is an option that can be passed to NewEncoder. It is used to specifiy
// the rate at which the access units should be played in playback. This will
// be used to create timestamps and counts such as PTS and PCR.
func Rate(r float64) func(*Encoder) error {
	return func(e *Encoder) error {
		if r < 1 || r > 60 {
			return ErrInvalidRate
		}
		e.writePeriod = time.Duration(float64(time.Second) / r)
		return nil
	}
}

// MediaPID is an option that can be passed to NewEncoder to set the PID of
// the elementary stream, which also carries the PCR.
func MediaPID(pid uint16) func(*Encoder) error {
	return func(e *Encoder) error {
		if pid < minMediaPID || pid > maxMediaPID || pid == PmtPid {
			return errors.Wrapf(ErrInvalidPID, "PID %d", pid)
		}
		e.mediaPID = pid
		e.continuity = map[uint16]byte{PatPid: 0, PmtPid: 0, pid: 0}
		e.log.Debug("configured elementary stream PID", "PID", pid)
		return nil
	}
}

/*
NAME
  encoder_test.go

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mts

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/Comcast/gots/v2/packet"
	"github.com/Comcast/gots/v2/pes"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

type destination struct {
	packets [][]byte
}

func (d *destination) Write(p []byte) (int, error) {
	tmp := make([]byte, PacketSize)
	copy(tmp, p)
	d.packets = append(d.packets, tmp)
	return len(p), nil
}

// pids returns the PID of each packet written to d.
func (d *destination) pids() []int {
	var pids []int
	for _, p := range d.packets {
		var pkt packet.Packet
		copy(pkt[:], p)
		pids = append(pids, packet.Pid(&pkt))
	}
	return pids
}

// TestEncode checks that we can correctly encode some dummy data into a
// valid MPEG-TS stream. This checks for correct MPEG-TS headers and also that the
// original data is stored correctly and is retreivable.
func TestEncode(t *testing.T) {
	const dataLength = 440

	// Generate test data.
	data := make([]byte, 0, dataLength)
	for i := 0; i < dataLength; i++ {
		data = append(data, byte(i))
	}

	// Expect headers for PID 256.
	// NB: timing fields like PCR are neglected.
	expectedHeaders := [][]byte{
		{
			0x47, // Sync byte.
			0x41, // TEI=0, PUSI=1, TP=0, PID=00001 (256).
			0x00, // PID(Cont)=00000000.
			0x30, // TSC=00, AFC=11(adaptation followed by payload), CC=0000(0).
			0x07, // AFL= 7.
			0x50, // DI=0,RAI=1,ESPI=0,PCRF=1,OPCRF=0,SPF=0,TPDF=0, AFEF=0.
		},
		{
			0x47, // Sync byte.
			0x01, // TEI=0, PUSI=0, TP=0, PID=00001 (256).
			0x00, // PID(Cont)=00000000.
			0x31, // TSC=00, AFC=11(adaptation followed by payload), CC=0001(1).
			0x01, // AFL= 1.
			0x00, // DI=0,RAI=0,ESPI=0,PCRF=0,OPCRF=0,SPF=0,TPDF=0, AFEF=0.
		},
		{
			0x47, // Sync byte.
			0x01, // TEI=0, PUSI=0, TP=0, PID=00001 (256).
			0x00, // PID(Cont)=00000000.
			0x32, // TSC=00, AFC=11(adaptation followed by payload), CC=0010(2).
			0x57, // AFL= 1+stuffingLen.
			0x00, // DI=0,RAI=0,ESPI=0,PCRF=0,OPCRF=0,SPF=0,TPDF=0, AFEF=0.
		},
	}

	// Create the dst and write the test data to encoder.
	dst := &destination{}
	e, err := NewEncoder(nopCloser{dst}, (*logging.TestLogger)(t), PacketBasedPSI(psiSendCount), Rate(25))
	if err != nil {
		t.Fatalf("could not create MTS encoder, failed with error: %v", err)
	}

	_, err = e.Write(data)
	if err != nil {
		t.Fatalf("could not write data to encoder, failed with error: %v\n", err)
	}

	want := []int{PatPid, PmtPid, DefaultMediaPID, DefaultMediaPID, DefaultMediaPID}
	got := dst.pids()
	if len(got) != len(want) {
		t.Fatalf("unexpected packet PIDs: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected packet PIDs: got %v want %v", got, want)
		}
	}

	// Check headers and gather payload data from packets to form the total PES packet.
	var (
		expectedIdx int
		pesData     []byte
	)
	for _, p := range dst.packets {
		var pkt packet.Packet
		copy(pkt[:], p)
		if packet.Pid(&pkt) != DefaultMediaPID {
			continue
		}
		// Get mts header, excluding PCR.
		gotHeader := p[0:6]
		wantHeader := expectedHeaders[expectedIdx]
		if !bytes.Equal(gotHeader, wantHeader) {
			t.Errorf("did not get expected header for idx: %v.\n Got: %v\n Want: %v\n", expectedIdx, gotHeader, wantHeader)
		}
		expectedIdx++

		payload, err := packet.Payload(&pkt)
		if err != nil {
			t.Fatalf("could not get payload from mts packet, failed with err: %v\n", err)
		}
		pesData = append(pesData, payload...)
	}

	// Get data from the PES packet and compare with the original data.
	hdr, err := pes.NewPESHeader(pesData)
	if err != nil {
		t.Fatalf("got error from pes creation: %v\n", err)
	}
	if hdr.StreamId() != 0xbd {
		t.Errorf("unexpected stream ID: got %#x want 0xbd", hdr.StreamId())
	}
	const wantPTS = 63000 // 700ms.
	if hdr.PTS() != wantPTS {
		t.Errorf("unexpected PTS: got %d want %d", hdr.PTS(), wantPTS)
	}
	if !bytes.Equal(data, hdr.Data()) {
		t.Errorf("did not get expected result.\n Got: %v\n Want: %v\n", hdr.Data(), data)
	}
}

// TestPMT checks that the PMT describes an ST 2038 stream on the configured
// PID.
func TestPMT(t *testing.T) {
	const pid = 0x1e0

	var buf bytes.Buffer
	e, err := NewEncoder(nopCloser{&buf}, (*logging.TestLogger)(t), MediaPID(pid))
	if err != nil {
		t.Fatalf("could not create MTS encoder: %v", err)
	}
	_, err = e.Write([]byte{0xde, 0xad})
	if err != nil {
		t.Fatalf("could not write data: %v", err)
	}

	pmt, i, err := FindPid(buf.Bytes(), PmtPid)
	if err != nil {
		t.Fatalf("could not find PMT: %v", err)
	}
	if i != PacketSize {
		t.Errorf("PMT does not follow PAT: found at %d", i)
	}
	es := []byte{
		StreamTypePrivate,
		0xe0 | pid>>8, pid & 0xff,
		0xf0, 0x06,
		0x05, 0x04, 'V', 'A', 'N', 'C',
	}
	if !bytes.Contains(pmt, es) {
		t.Errorf("PMT does not carry ST 2038 stream: %#v", pmt)
	}

	_, _, err = FindPid(buf.Bytes(), pid)
	if err != nil {
		t.Errorf("could not find media packet: %v", err)
	}
}

// TestPSIInterval checks PSI insertion by packet count and by stream time.
func TestPSIInterval(t *testing.T) {
	tests := []struct {
		name   string
		option func(*Encoder) error
		writes int
		want   int
	}{
		{name: "packet", option: PacketBasedPSI(4), writes: 12, want: 6},
		{name: "time", option: TimeBasedPSI(200 * time.Millisecond), writes: 12, want: 3},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dst := &destination{}
			e, err := NewEncoder(nopCloser{dst}, (*logging.TestLogger)(t), Rate(25), test.option)
			if err != nil {
				t.Fatalf("could not create MTS encoder: %v", err)
			}
			for i := 0; i < test.writes; i++ {
				_, err = e.Write([]byte{byte(i)})
				if err != nil {
					t.Fatalf("could not write data: %v", err)
				}
			}
			var got int
			for _, pid := range dst.pids() {
				if pid == PatPid {
					got++
				}
			}
			if got != test.want {
				t.Errorf("unexpected number of PATs: got %d want %d", got, test.want)
			}
		})
	}
}

// TestContinuity checks that the continuity counter of each PID increments
// modulo 16.
func TestContinuity(t *testing.T) {
	dst := &destination{}
	e, err := NewEncoder(nopCloser{dst}, (*logging.TestLogger)(t))
	if err != nil {
		t.Fatalf("could not create MTS encoder: %v", err)
	}
	for i := 0; i < 40; i++ {
		_, err = e.Write(make([]byte, 200))
		if err != nil {
			t.Fatalf("could not write data: %v", err)
		}
	}

	next := make(map[int]uint8)
	for i, p := range dst.packets {
		var pkt packet.Packet
		copy(pkt[:], p)
		pid := packet.Pid(&pkt)
		cc := packet.ContinuityCounter(&pkt)
		if cc != next[pid] {
			t.Fatalf("unexpected CC for packet %d on PID %d: got %d want %d", i, pid, cc, next[pid])
		}
		next[pid] = (cc + 1) & 0xf
	}
}

func TestEncoderOptions(t *testing.T) {
	tests := []struct {
		option func(*Encoder) error
		want   error
	}{
		{option: Rate(0), want: ErrInvalidRate},
		{option: Rate(61), want: ErrInvalidRate},
		{option: MediaPID(0x10), want: ErrInvalidPID},
		{option: MediaPID(PmtPid), want: ErrInvalidPID},
		{option: MediaPID(0x1fff), want: ErrInvalidPID},
		{option: MediaPID(0x20), want: nil},
	}
	for i, test := range tests {
		_, err := NewEncoder(nopCloser{io.Discard}, (*logging.TestLogger)(t), test.option)
		if !errors.Is(err, test.want) {
			t.Errorf("unexpected error for test %d: got %v want %v", i, err, test.want)
		}
	}
}

func TestTicks(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want uint64
	}{
		{d: 0, want: 0},
		{d: 740 * time.Millisecond, want: 66600},
		{d: time.Second / 3, want: 29999},
		{d: 30 * time.Hour, want: 30 * 3600 * 90000},
	}
	for _, test := range tests {
		got := ticks(test.d, PTSFrequency)
		if got != test.want {
			t.Errorf("unexpected ticks for %v: got %d want %d", test.d, got, test.want)
		}
	}
}

/*
NAME
  scan_test.go

DESCRIPTION
  scan_test.go provides testing for the VANC line scanner.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vanc

import (
	"errors"
	"testing"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/utils/logging"
	"github.com/google/go-cmp/cmp"
)

// Blanking levels for 10-bit chroma and luma samples.
const (
	blankC = 0x200
	blankY = 0x040
)

const hdPixels = 1920

// blankLine returns a line of pixels blanking samples.
func blankLine(pixels int) []uint16 {
	l := make([]uint16, 2*pixels)
	for i := range l {
		if i%2 == 0 {
			l[i] = blankC
		} else {
			l[i] = blankY
		}
	}
	return l
}

// place writes words into line from sample first at the given stride.
func place(line, words []uint16, first, step int) {
	for i, w := range words {
		line[first+i*step] = w
	}
}

func mustEncode(t *testing.T, did, sid byte, payload []byte) (*anc.Packet, []uint16) {
	t.Helper()
	p, err := anc.NewPacketWith(did, sid, payload)
	if err != nil {
		t.Fatalf("could not create packet: %v", err)
	}
	w, err := Encode(p)
	if err != nil {
		t.Fatalf("could not encode packet: %v", err)
	}
	return p, w
}

var afd = []byte{0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}

// TestFindPacketsAFD checks that a single AFD packet in the luma channel of a
// blanked HD line is found only when searching luma.
func TestFindPacketsAFD(t *testing.T) {
	defer func(l logging.Logger) { Log = l }(Log)
	Log = (*logging.TestLogger)(t)

	_, words := mustEncode(t, 0x41, 0x05, afd)
	line := blankLine(hdPixels)
	place(line, words, 1+2*10, 2)

	got, err := FindPackets(line, anc.ChannelY)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("unexpected number of packets: got:%d want:1", len(got))
	}
	if got[0].DID() != 0x41 || got[0].SID() != 0x05 {
		t.Errorf("unexpected identifiers: got:%02x/%02x want:41/05", got[0].DID(), got[0].SID())
	}
	if got[0].Offset != 21 {
		t.Errorf("unexpected offset: got:%d want:21", got[0].Offset)
	}
	if !cmp.Equal(got[0].Words, words) {
		t.Errorf("unexpected packet words:\n%s", cmp.Diff(words, got[0].Words))
	}

	for _, ch := range []anc.Channel{anc.ChannelC, anc.ChannelBoth} {
		got, err = FindPackets(line, ch)
		if err != nil || len(got) != 0 {
			t.Errorf("unexpected result searching %v: got:%v err:%v", ch, got, err)
		}
	}
}

func TestFindPacketsSD(t *testing.T) {
	_, w1 := mustEncode(t, 0x41, 0x05, afd)
	_, w2 := mustEncode(t, 0x61, 0x01, []byte{0x96, 0x69, 0x10})
	line := blankLine(720)
	place(line, w1, 0, 1)
	place(line, w2, len(w1), 1)

	got, err := FindPackets(line, anc.ChannelBoth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Found{{Words: w1, Offset: 0}, {Words: w2, Offset: len(w1)}}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected packets:\n%s", cmp.Diff(want, got))
	}
}

// TestFindPacketsBad checks that scanning stops at a bad packet, keeping the
// packets found before it.
func TestFindPacketsBad(t *testing.T) {
	defer func(l logging.Logger) { Log = l }(Log)
	Log = (*logging.TestLogger)(t)

	tests := []struct {
		name    string
		corrupt func(w1, w2 []uint16)
		want    int
		err     error
	}{
		{
			name:    "first checksum",
			corrupt: func(w1, w2 []uint16) { w1[len(w1)-1] ^= 0x001 },
			want:    0,
			err:     anc.ErrChecksumMismatch,
		},
		{
			name:    "checksum parity",
			corrupt: func(w1, w2 []uint16) { w1[len(w1)-1] ^= 0x200 },
			want:    0,
			err:     anc.ErrChecksumMismatch,
		},
		{
			name:    "second user data parity",
			corrupt: func(w1, w2 []uint16) { w2[udwIdx] ^= 0x100 },
			want:    1,
			err:     anc.ErrChecksumMismatch,
		},
		{
			name:    "second DID parity",
			corrupt: func(w1, w2 []uint16) { w2[didIdx] ^= 0x300 },
			want:    1,
			err:     anc.ErrChecksumMismatch,
		},
	}

	for _, test := range tests {
		_, w1 := mustEncode(t, 0x41, 0x05, afd)
		_, w2 := mustEncode(t, 0x61, 0x01, []byte{0x96, 0x69, 0x10})
		_, w3 := mustEncode(t, 0x43, 0x02, []byte{0x01})
		test.corrupt(w1, w2)

		line := blankLine(hdPixels)
		place(line, w1, 1, 2)
		place(line, w2, 1+2*len(w1), 2)
		place(line, w3, 1+2*(len(w1)+len(w2)), 2)

		got, err := FindPackets(line, anc.ChannelY)
		if !errors.Is(err, test.err) {
			t.Errorf("unexpected error for %q: got:%v want:%v", test.name, err, test.err)
		}
		if len(got) != test.want {
			t.Errorf("unexpected number of packets for %q: got:%d want:%d", test.name, len(got), test.want)
		}
	}
}

func TestFindPacketsIncomplete(t *testing.T) {
	line := blankLine(hdPixels)
	start := len(line) - 2*10
	place(line, []uint16{0x000, 0x3ff, 0x3ff, anc.AddEvenParity(0x41), anc.AddEvenParity(0x05), anc.AddEvenParity(200)}, start, 2)
	_, err := FindPackets(line, anc.ChannelC)
	if !errors.Is(err, anc.ErrIncompletePacket) {
		t.Errorf("unexpected error for oversized DC: got:%v want:%v", err, anc.ErrIncompletePacket)
	}

	line = blankLine(hdPixels)
	place(line, []uint16{0x000, 0x3ff, 0x3ff, anc.AddEvenParity(0x41)}, len(line)-2*4, 2)
	_, err = FindPackets(line, anc.ChannelC)
	if !errors.Is(err, anc.ErrIncompletePacket) {
		t.Errorf("unexpected error for truncated header: got:%v want:%v", err, anc.ErrIncompletePacket)
	}
}

func TestScanner(t *testing.T) {
	_, words := mustEncode(t, 0x41, 0x05, afd)
	line := blankLine(hdPixels)
	place(line, words, 0, 2)

	s := NewScanner(line, anc.ChannelC)
	if !s.Next() {
		t.Fatalf("expected packet, err: %v", s.Err())
	}
	if s.Offset() != 0 || !cmp.Equal(s.Words(), words) {
		t.Errorf("unexpected packet at %d: %v", s.Offset(), s.Words())
	}
	for i := 0; i < 2; i++ {
		if s.Next() {
			t.Errorf("unexpected packet after end: %v", s.Words())
		}
		if s.Words() != nil || s.Err() != nil {
			t.Errorf("unexpected state after end: words:%v err:%v", s.Words(), s.Err())
		}
	}

	s = NewScanner(line, anc.ChannelUnknown)
	if s.Next() {
		t.Error("unexpected packet for unknown channel")
	}
	if !errors.Is(s.Err(), anc.ErrRange) {
		t.Errorf("unexpected error for unknown channel: got:%v want:%v", s.Err(), anc.ErrRange)
	}
}

func TestDecode(t *testing.T) {
	p1, w1 := mustEncode(t, 0x41, 0x05, afd)
	p2, w2 := mustEncode(t, 0x60, 0x60, nil)
	line := blankLine(hdPixels)
	place(line, w1, 1+2*4, 2)
	place(line, w2, 1+2*(4+len(w1)), 2)

	def := anc.DefaultLocation()
	def.SetLineNumber(13)
	got, err := Decode(line, anc.ChannelY, def)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected number of packets: got:%d want:2", len(got))
	}

	for i, test := range []struct {
		want *anc.Packet
		hOff uint16
	}{
		{want: p1, hOff: 4},
		{want: p2, hOff: uint16(4 + len(w1))},
	} {
		err = test.want.Compare(got[i], true, false)
		if err != nil {
			t.Errorf("packet %d mismatch: %v", i, err)
		}
		loc := got[i].Location()
		if loc.Channel() != anc.ChannelY || loc.LineNumber() != 13 || loc.HorizontalOffset() != test.hOff {
			t.Errorf("unexpected location for packet %d: %v", i, loc)
		}
		if got[i].BufferFormat() != anc.BufferFormatFBVANC {
			t.Errorf("unexpected buffer format for packet %d: %v", i, got[i].BufferFormat())
		}
	}
}

func TestEncode(t *testing.T) {
	_, got := mustEncode(t, 0x41, 0x05, []byte{0x01})
	want := []uint16{0x000, 0x3ff, 0x3ff, 0x241, 0x205, 0x101, 0x101, 0x248}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected words:\n%s", cmp.Diff(want, got))
	}

	_, err := Encode(nil)
	if !errors.Is(err, anc.ErrNullInput) {
		t.Errorf("unexpected error for nil packet: got:%v want:%v", err, anc.ErrNullInput)
	}

	p, err := anc.NewPacketWith(0x61, 0x02, []byte{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = p.SetCoding(anc.CodingRaw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Encode(p)
	if !errors.Is(err, anc.ErrInvalidCoding) {
		t.Errorf("unexpected error for raw packet: got:%v want:%v", err, anc.ErrInvalidCoding)
	}

	p, err = anc.NewPacketWith(0x41, 0x07, make([]byte, anc.MaxDC+1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = Encode(p)
	if !errors.Is(err, anc.ErrRange) {
		t.Errorf("unexpected error for oversized packet: got:%v want:%v", err, anc.ErrRange)
	}
}

/*
NAME
  packet_test.go

DESCRIPTION
  packet_test.go provides testing for the Packet type and its payload
  operations.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package anc

import (
	"bytes"
	"errors"
	"testing"
)

func TestNewPacket(t *testing.T) {
	p := NewPacket()
	if !p.IsDigital() || p.DC() != 0 || p.Payload() != nil {
		t.Errorf("unexpected new packet: %v", p)
	}
	if p.Location() != DefaultLocation() {
		t.Errorf("unexpected location: got:%v want:%v", p.Location(), DefaultLocation())
	}
	if p.ReceivedDataValid() {
		t.Error("new packet claims valid received data")
	}
}

func TestSetPayloadData(t *testing.T) {
	p := NewPacket()
	err := p.SetPayloadData(nil)
	if !errors.Is(err, ErrNullInput) {
		t.Errorf("unexpected error for nil payload: got:%v want:%v", err, ErrNullInput)
	}
	err = p.SetPayloadData([]byte{})
	if !errors.Is(err, ErrRange) {
		t.Errorf("unexpected error for empty payload: got:%v want:%v", err, ErrRange)
	}

	src := []byte{1, 2, 3}
	err = p.SetPayloadData(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	src[0] = 0xff
	if got := p.Payload(); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("payload not copied: got:%v", got)
	}
	p.Payload()[1] = 0xff
	if p.PayloadByteAt(1) != 2 {
		t.Error("Payload exposed internal buffer")
	}
}

// TestPayloadAllocation checks that payloads larger than MaxPayloadSize are
// reported and leave the payload empty or unchanged.
func TestPayloadAllocation(t *testing.T) {
	defer func(n int) { MaxPayloadSize = n }(MaxPayloadSize)
	MaxPayloadSize = 4

	p := NewPacket()
	err := p.SetPayloadData([]byte{1, 2, 3, 4, 5})
	if !errors.Is(err, ErrAllocation) {
		t.Errorf("unexpected error: got:%v want:%v", err, ErrAllocation)
	}
	if p.DC() != 0 {
		t.Errorf("payload not empty after failed set: %v", p.Payload())
	}

	err = p.SetPayloadData([]byte{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = p.AppendPayloadData([]byte{4, 5})
	if !errors.Is(err, ErrAllocation) {
		t.Errorf("unexpected error: got:%v want:%v", err, ErrAllocation)
	}
	if got := p.Payload(); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("payload changed by failed append: %v", got)
	}
	err = p.AppendPayloadData([]byte{4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Payload(); !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Errorf("unexpected payload after append: %v", got)
	}
}

func TestAppendPayload(t *testing.T) {
	a, err := NewPacketWith(0x61, 0x02, []byte{1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := NewPacketWith(0x61, 0x02, []byte{3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = a.AppendPayload(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := a.Payload(); !bytes.Equal(got, []byte{1, 2, 3}) {
		t.Errorf("unexpected payload: %v", got)
	}
	err = a.AppendPayload(nil)
	if !errors.Is(err, ErrNullInput) {
		t.Errorf("unexpected error: got:%v want:%v", err, ErrNullInput)
	}
	err = a.AppendPayload(NewPacket())
	if err != nil || a.DC() != 3 {
		t.Errorf("appending empty packet changed payload or failed: %v, %v", a.Payload(), err)
	}
}

// TestPayloadByteAt checks the permissive read and strict write of single
// payload bytes.
func TestPayloadByteAt(t *testing.T) {
	p, err := NewPacketWith(0x41, 0x05, []byte{0xa, 0xb})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []byte{0xa, 0xb, 0, 0} {
		if got := p.PayloadByteAt(i); got != want {
			t.Errorf("unexpected byte at %d: got:%d want:%d", i, got, want)
		}
	}
	if got := p.PayloadByteAt(-1); got != 0 {
		t.Errorf("unexpected byte at -1: %d", got)
	}

	err = p.SetPayloadByteAt(0xc, 1)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if p.PayloadByteAt(1) != 0xc {
		t.Error("byte not set")
	}
	err = p.SetPayloadByteAt(0xc, 2)
	if !errors.Is(err, ErrRange) {
		t.Errorf("unexpected error: got:%v want:%v", err, ErrRange)
	}
}

func TestSetChecksum(t *testing.T) {
	p, err := NewPacketWith(0x61, 0x01, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Checksum() != 0x62 {
		t.Errorf("unexpected calculated checksum: 0x%02x", p.Checksum())
	}
	err = p.SetChecksum(0x62, true)
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	err = p.SetChecksum(0x63, true)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("unexpected error: got:%v want:%v", err, ErrChecksumMismatch)
	}
	if p.Checksum() != 0x63 {
		t.Error("mismatched checksum not kept")
	}
	err = p.SetChecksum(0x64, false)
	if err != nil {
		t.Errorf("unexpected error without validation: %v", err)
	}
}

func TestCompareAndClone(t *testing.T) {
	p, err := NewPacketWith(0x41, 0x05, []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := p.Clone()
	err = p.Compare(c, false, false)
	if err != nil {
		t.Fatalf("clone does not match: %v", err)
	}

	err = c.SetPayloadByteAt(9, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PayloadByteAt(0) != 1 {
		t.Fatal("clone shares payload with original")
	}

	tests := []struct {
		name           string
		modify         func(*Packet)
		ignoreLocation bool
		ignoreChecksum bool
		match          bool
	}{
		{name: "same", modify: func(*Packet) {}, match: true},
		{name: "DID", modify: func(p *Packet) { p.SetDID(0x42) }},
		{name: "SID", modify: func(p *Packet) { p.SetSID(0x06) }},
		{name: "DC", modify: func(p *Packet) { p.AppendPayloadData([]byte{4}) }},
		{name: "payload", modify: func(p *Packet) { p.SetPayloadByteAt(0, 2) }},
		{name: "coding", modify: func(p *Packet) { p.SetCoding(CodingRaw) }},
		{name: "checksum", modify: func(p *Packet) { p.SetChecksum(0, false) }},
		{name: "checksum ignored", modify: func(p *Packet) { p.SetChecksum(0, false) }, ignoreChecksum: true, match: true},
		{
			name: "location",
			modify: func(p *Packet) {
				l := p.Location()
				l.SetLineNumber(9)
				p.SetLocation(l)
			},
		},
		{
			name: "location ignored",
			modify: func(p *Packet) {
				l := p.Location()
				l.SetLineNumber(9)
				p.SetLocation(l)
			},
			ignoreLocation: true,
			match:          true,
		},
	}

	for _, test := range tests {
		o := p.Clone()
		test.modify(o)
		err := p.Compare(o, test.ignoreLocation, test.ignoreChecksum)
		if test.match && err != nil {
			t.Errorf("unexpected mismatch for %q: %v", test.name, err)
		}
		if !test.match && !errors.Is(err, ErrMismatch) {
			t.Errorf("expected mismatch for %q, got: %v", test.name, err)
		}
		if p.Equal(o, test.ignoreLocation, test.ignoreChecksum) != test.match {
			t.Errorf("Equal disagrees with Compare for %q", test.name)
		}
	}
}

func TestSetCoding(t *testing.T) {
	p := NewPacket()
	err := p.SetCoding(CodingUnknown + 1)
	if !errors.Is(err, ErrInvalidCoding) {
		t.Errorf("unexpected error: got:%v want:%v", err, ErrInvalidCoding)
	}
	if !p.IsDigital() {
		t.Error("coding changed by failed set")
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		did, sid byte
		want     Type
	}{
		{0x41, 0x05, TypeAFD},
		{0x61, 0x01, TypeCEA708},
		{0x60, 0x60, TypeTimecode},
		{0x00, 0x00, TypeUnknown},
	}
	for _, test := range tests {
		if got := TypeOf(test.did, test.sid); got != test.want {
			t.Errorf("unexpected type for %02X/%02X: got:%v want:%v", test.did, test.sid, got, test.want)
		}
	}
	if got := Describe(0x41, 0x05); got != "AFD and bar data" {
		t.Errorf("unexpected description: %q", got)
	}
}

/*
NAME
  location_test.go

DESCRIPTION
  location_test.go provides testing for the Location type.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package anc

import (
	"errors"
	"testing"
)

// TestLocationSetters checks that setters reject values outside their
// enumerations and leave the location unchanged when they do.
func TestLocationSetters(t *testing.T) {
	tests := []struct {
		name string
		set  func(*Location) error
		ok   bool
	}{
		{"link B", func(l *Location) error { return l.SetLink(LinkB) }, true},
		{"link unknown", func(l *Location) error { return l.SetLink(LinkUnknown) }, true},
		{"bad link", func(l *Location) error { return l.SetLink(LinkUnknown + 1) }, false},
		{"stream 4", func(l *Location) error { return l.SetDataStream(DS4) }, true},
		{"bad stream", func(l *Location) error { return l.SetDataStream(DSUnknown + 1) }, false},
		{"channel both", func(l *Location) error { return l.SetChannel(ChannelBoth) }, true},
		{"bad channel", func(l *Location) error { return l.SetChannel(ChannelUnknown + 1) }, false},
		{"HANC", func(l *Location) error { return l.SetSpace(SpaceHANC) }, true},
		{"bad space", func(l *Location) error { return l.SetSpace(SpaceUnknown + 1) }, false},
	}

	for _, test := range tests {
		l := DefaultLocation()
		err := test.set(&l)
		if test.ok {
			if err != nil {
				t.Errorf("unexpected error for %q: %v", test.name, err)
			}
			continue
		}
		if !errors.Is(err, ErrRange) {
			t.Errorf("unexpected error for %q: got:%v want:%v", test.name, err, ErrRange)
		}
		if l != DefaultLocation() {
			t.Errorf("location changed by failed setter %q: got:%v", test.name, l)
		}
	}
}

func TestNewLocation(t *testing.T) {
	l, err := NewLocation(LinkB, DS2, ChannelC, SpaceHANC, 10, HOffsetAnyHANC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Link() != LinkB || l.DataStream() != DS2 || l.Channel() != ChannelC || l.Space() != SpaceHANC {
		t.Errorf("unexpected enumerated fields: %v", l)
	}
	if l.LineNumber() != 10 || l.HorizontalOffset() != HOffsetAnyHANC {
		t.Errorf("unexpected line or offset: %v", l)
	}
	if !l.IsHANC() || l.IsVANC() || l.IsLuma() {
		t.Errorf("unexpected predicates for %v", l)
	}
	const want = "B|DS2|C|HANC|L10|HHANC"
	if got := l.String(); got != want {
		t.Errorf("unexpected string: got:%q want:%q", got, want)
	}

	_, err = NewLocation(LinkA, DS1, Channel(9), SpaceVANC, 0, 0)
	if !errors.Is(err, ErrRange) {
		t.Errorf("expected range error for bad channel, got: %v", err)
	}
}

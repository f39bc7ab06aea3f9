/*
NAME
  location.go

DESCRIPTION
  location.go provides the Location type, describing where in an SDI signal an
  ancillary packet was found or should be inserted.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package anc

import (
	"fmt"

	"github.com/pkg/errors"
)

// Link identifies the physical SDI link.
type Link uint8

const (
	LinkA Link = iota
	LinkB
	LinkUnknown
)

// IsValid returns true if l is a known link value, including LinkUnknown.
func (l Link) IsValid() bool { return l <= LinkUnknown }

func (l Link) String() string {
	switch l {
	case LinkA:
		return "A"
	case LinkB:
		return "B"
	case LinkUnknown:
		return "?"
	default:
		return fmt.Sprintf("Link(%d)", uint8(l))
	}
}

// DataStream is the SMPTE ST 425 data stream number.
type DataStream uint8

const (
	DS1 DataStream = iota
	DS2
	DS3
	DS4
	DSUnknown
)

// IsValid returns true if s is a known data stream value, including DSUnknown.
func (s DataStream) IsValid() bool { return s <= DSUnknown }

func (s DataStream) String() string {
	switch {
	case s < DSUnknown:
		return fmt.Sprintf("DS%d", uint8(s)+1)
	case s == DSUnknown:
		return "DS?"
	default:
		return fmt.Sprintf("DataStream(%d)", uint8(s))
	}
}

// Channel identifies the luma or chroma channel carrying a packet. ChannelBoth
// is used for SD signals where packets occupy both.
type Channel uint8

const (
	ChannelC Channel = iota
	ChannelY
	ChannelBoth
	ChannelUnknown
)

// IsValid returns true if c is a known channel value, including ChannelUnknown.
func (c Channel) IsValid() bool { return c <= ChannelUnknown }

func (c Channel) String() string {
	switch c {
	case ChannelC:
		return "C"
	case ChannelY:
		return "Y"
	case ChannelBoth:
		return "Y+C"
	case ChannelUnknown:
		return "?"
	default:
		return fmt.Sprintf("Channel(%d)", uint8(c))
	}
}

// Space is the ancillary data space, vertical or horizontal blanking.
type Space uint8

const (
	SpaceVANC Space = iota
	SpaceHANC
	SpaceUnknown
)

// IsValid returns true if s is a known space value, including SpaceUnknown.
func (s Space) IsValid() bool { return s <= SpaceUnknown }

func (s Space) String() string {
	switch s {
	case SpaceVANC:
		return "VANC"
	case SpaceHANC:
		return "HANC"
	case SpaceUnknown:
		return "?"
	default:
		return fmt.Sprintf("Space(%d)", uint8(s))
	}
}

// Line number values with special meaning. The non-zero values are those of
// the 11-bit line number field of RFC 8331.
const (
	LineUnknown  uint16 = 0x000
	LineOverflow uint16 = 0x7fd // Line number larger than 0x7fc.
	LineAnyVANC  uint16 = 0x7fe // Any legal VANC line.
	LineAnywhere uint16 = 0x7ff // No specific line.
)

// Horizontal offset values with special meaning. The non-zero values are
// those of the 12-bit horizontal offset field of RFC 8331.
const (
	HOffsetUnknown  uint16 = 0x000
	HOffsetOverflow uint16 = 0xffc // Offset larger than 0xffb.
	HOffsetAnyVANC  uint16 = 0xffd // Anywhere in the active part of the line.
	HOffsetAnyHANC  uint16 = 0xffe // Anywhere in horizontal blanking.
	HOffsetAnywhere uint16 = 0xfff // No specific location.
)

// Location describes where an ancillary packet sits in the video signal. The
// zero value is link A, data stream 1, chroma channel, VANC, with unknown line
// number and horizontal offset; DefaultLocation is more commonly wanted.
//
// The line number and horizontal offset are not range checked as frame
// geometry is not known here.
type Location struct {
	link    Link
	stream  DataStream
	channel Channel
	space   Space
	line    uint16
	hOffset uint16
}

// DefaultLocation returns the location assigned to new packets: link A, data
// stream 1, luma channel, VANC, unknown line and offset.
func DefaultLocation() Location {
	return Location{
		link:    LinkA,
		stream:  DS1,
		channel: ChannelY,
		space:   SpaceVANC,
		line:    LineUnknown,
		hOffset: HOffsetUnknown,
	}
}

// NewLocation returns a Location with the given fields, or an error if any of
// the enumerated fields is out of range.
func NewLocation(l Link, s DataStream, c Channel, sp Space, line, hOffset uint16) (Location, error) {
	loc := Location{line: line, hOffset: hOffset}
	for _, set := range []func() error{
		func() error { return loc.SetLink(l) },
		func() error { return loc.SetDataStream(s) },
		func() error { return loc.SetChannel(c) },
		func() error { return loc.SetSpace(sp) },
	} {
		err := set()
		if err != nil {
			return Location{}, err
		}
	}
	return loc, nil
}

func (l Location) Link() Link                    { return l.link }
func (l Location) DataStream() DataStream        { return l.stream }
func (l Location) Channel() Channel              { return l.channel }
func (l Location) Space() Space                  { return l.space }
func (l Location) LineNumber() uint16            { return l.line }
func (l Location) HorizontalOffset() uint16      { return l.hOffset }
func (l Location) IsHANC() bool                  { return l.space == SpaceHANC }
func (l Location) IsVANC() bool                  { return l.space == SpaceVANC }
func (l Location) IsLuma() bool                  { return l.channel == ChannelY }
func (l *Location) SetLineNumber(n uint16)       { l.line = n }
func (l *Location) SetHorizontalOffset(o uint16) { l.hOffset = o }

// SetLink sets the link, returning an error and leaving the location unchanged
// if v is not a Link value.
func (l *Location) SetLink(v Link) error {
	if !v.IsValid() {
		return errors.Wrapf(ErrRange, "invalid link %d", uint8(v))
	}
	l.link = v
	return nil
}

// SetDataStream sets the data stream, returning an error and leaving the
// location unchanged if v is not a DataStream value.
func (l *Location) SetDataStream(v DataStream) error {
	if !v.IsValid() {
		return errors.Wrapf(ErrRange, "invalid data stream %d", uint8(v))
	}
	l.stream = v
	return nil
}

// SetChannel sets the channel, returning an error and leaving the location
// unchanged if v is not a Channel value.
func (l *Location) SetChannel(v Channel) error {
	if !v.IsValid() {
		return errors.Wrapf(ErrRange, "invalid channel %d", uint8(v))
	}
	l.channel = v
	return nil
}

// SetSpace sets the ancillary data space, returning an error and leaving the
// location unchanged if v is not a Space value.
func (l *Location) SetSpace(v Space) error {
	if !v.IsValid() {
		return errors.Wrapf(ErrRange, "invalid space %d", uint8(v))
	}
	l.space = v
	return nil
}

// IsValid returns true if all enumerated fields of l are in range.
func (l Location) IsValid() bool {
	return l.link.IsValid() && l.stream.IsValid() && l.channel.IsValid() && l.space.IsValid()
}

func (l Location) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|L%s|H%s", l.link, l.stream, l.channel, l.space, lineString(l.line), hOffsetString(l.hOffset))
}

func lineString(n uint16) string {
	switch n {
	case LineUnknown:
		return "?"
	case LineOverflow:
		return ">2044"
	case LineAnyVANC:
		return "VANC"
	case LineAnywhere:
		return "*"
	default:
		return fmt.Sprint(n)
	}
}

func hOffsetString(o uint16) string {
	switch o {
	case HOffsetUnknown:
		return "?"
	case HOffsetOverflow:
		return ">4091"
	case HOffsetAnyVANC:
		return "VANC"
	case HOffsetAnyHANC:
		return "HANC"
	case HOffsetAnywhere:
		return "*"
	default:
		return fmt.Sprint(o)
	}
}

/*
NAME
  packet.go

DESCRIPTION
  packet.go provides the Packet type, an SMPTE-291 ancillary data packet,
  along with operations for manipulating its payload.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package anc provides an SMPTE-291 ancillary data packet type and codecs for
// the GUMP byte stream and SMPTE ST 2110-40 (RFC 8331) word stream formats.
//
// A Packet must not be mutated concurrently; distinct packets are independent.
package anc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// Log is used by the codecs for diagnostics that do not affect results, such
// as payload truncation. By default nothing is logged.
var Log logging.Logger = logging.New(logging.Warning, io.Discard, true)

// MaxDC is the largest data count an SMPTE-291 packet may carry.
const MaxDC = 255

// MaxPayloadSize bounds the payload of a single Packet. Raw (analog) packets
// may exceed MaxDC; attempts to grow a payload past this are reported as
// ErrAllocation.
var MaxPayloadSize = 1 << 20

// Coding describes how a packet's payload was produced.
type Coding uint8

const (
	CodingDigital Coding = iota // SMPTE-291 digital data.
	CodingRaw                   // Digitised analog waveform, e.g. line 21 captions.
	CodingUnknown
)

// IsValid returns true if c is a known coding value, including CodingUnknown.
func (c Coding) IsValid() bool { return c <= CodingUnknown }

func (c Coding) String() string {
	switch c {
	case CodingDigital:
		return "Digital"
	case CodingRaw:
		return "Raw"
	case CodingUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("Coding(%d)", uint8(c))
	}
}

// BufferFormat records which buffer format a packet was decoded from. It is
// informational only.
type BufferFormat uint8

const (
	BufferFormatUnknown BufferFormat = iota
	BufferFormatFBVANC               // VANC lines in a frame buffer.
	BufferFormatSDI                  // GUMP data from an SDI anc extractor.
	BufferFormatRTP                  // SMPTE ST 2110-40.
)

func (f BufferFormat) String() string {
	switch f {
	case BufferFormatUnknown:
		return "Unknown"
	case BufferFormatFBVANC:
		return "FBVANC"
	case BufferFormatSDI:
		return "SDI"
	case BufferFormatRTP:
		return "RTP"
	default:
		return fmt.Sprintf("BufferFormat(%d)", uint8(f))
	}
}

// Packet is an SMPTE-291 ancillary data packet. Its payload is owned by the
// packet and is never shared with callers.
type Packet struct {
	did          byte
	sid          byte
	checksum     byte
	payload      []byte
	coding       Coding
	bufferFormat BufferFormat
	location     Location
	frameID      uint32
	userData     uint32
	rxValid      bool
}

// NewPacket returns an empty digital packet with the default location.
func NewPacket() *Packet {
	p := &Packet{}
	p.Clear()
	return p
}

// NewPacketWith returns a digital packet with the given identifiers and a copy
// of payload. The checksum is calculated.
func NewPacketWith(did, sid byte, payload []byte) (*Packet, error) {
	p := NewPacket()
	p.did, p.sid = did, sid
	if len(payload) != 0 {
		err := p.SetPayloadData(payload)
		if err != nil {
			return nil, err
		}
	}
	p.checksum = p.CalcChecksum()
	return p, nil
}

// Clear returns p to the state of a new packet, releasing its payload.
func (p *Packet) Clear() {
	*p = Packet{
		coding:   CodingDigital,
		location: DefaultLocation(),
	}
}

// Clone returns a deep copy of p.
func (p *Packet) Clone() *Packet {
	c := *p
	if p.payload != nil {
		c.payload = append([]byte(nil), p.payload...)
	}
	return &c
}

func (p *Packet) DID() byte                  { return p.did }
func (p *Packet) SetDID(did byte)            { p.did = did }
func (p *Packet) SID() byte                  { return p.sid }
func (p *Packet) SetSID(sid byte)            { p.sid = sid }
func (p *Packet) Checksum() byte             { return p.checksum }
func (p *Packet) Coding() Coding             { return p.coding }
func (p *Packet) IsDigital() bool            { return p.coding == CodingDigital }
func (p *Packet) IsRaw() bool                { return p.coding == CodingRaw }
func (p *Packet) BufferFormat() BufferFormat { return p.bufferFormat }
func (p *Packet) Location() Location         { return p.location }
func (p *Packet) FrameID() uint32            { return p.frameID }
func (p *Packet) SetFrameID(id uint32)       { p.frameID = id }
func (p *Packet) UserData() uint32           { return p.userData }
func (p *Packet) SetUserData(d uint32)       { p.userData = d }

// ReceivedDataValid reports whether the payload of a received packet has been
// interpreted successfully. The codecs here always leave it false.
func (p *Packet) ReceivedDataValid() bool { return p.rxValid }

// DC returns the data count, the payload length in bytes.
func (p *Packet) DC() int { return len(p.payload) }

// SetCoding sets the data coding of p.
func (p *Packet) SetCoding(c Coding) error {
	if !c.IsValid() {
		return errors.Wrapf(ErrInvalidCoding, "coding %d", uint8(c))
	}
	p.coding = c
	return nil
}

// SetBufferFormat sets the buffer format p is tagged with.
func (p *Packet) SetBufferFormat(f BufferFormat) error {
	if f > BufferFormatRTP {
		return errors.Wrapf(ErrRange, "buffer format %d", uint8(f))
	}
	p.bufferFormat = f
	return nil
}

// SetLocation sets the location of p.
func (p *Packet) SetLocation(l Location) error {
	if !l.IsValid() {
		return errors.Wrapf(ErrRange, "invalid location %v", l)
	}
	p.location = l
	return nil
}

// CalcChecksum returns the 8-bit checksum of p's current contents.
func (p *Packet) CalcChecksum() byte { return Checksum8(p.did, p.sid, p.payload) }

// SetChecksum stores v as the packet checksum. If validate is true and v does
// not match the checksum calculated from p's contents, ErrChecksumMismatch is
// returned; v is stored either way.
func (p *Packet) SetChecksum(v byte, validate bool) error {
	p.checksum = v
	if !validate {
		return nil
	}
	want := p.CalcChecksum()
	if v != want {
		return errors.Wrapf(ErrChecksumMismatch, "got 0x%02x, calculated 0x%02x", v, want)
	}
	return nil
}

// Payload returns a copy of the payload of p.
func (p *Packet) Payload() []byte {
	if p.payload == nil {
		return nil
	}
	return append([]byte(nil), p.payload...)
}

// SetPayloadData replaces the payload of p with a copy of b. On failure the
// payload is left empty.
func (p *Packet) SetPayloadData(b []byte) error {
	p.payload = nil
	if b == nil {
		return errors.Wrap(ErrNullInput, "cannot set payload")
	}
	if len(b) == 0 {
		return errors.Wrap(ErrRange, "cannot set empty payload")
	}
	buf, err := allocPayload(len(b))
	if err != nil {
		return err
	}
	copy(buf, b)
	p.payload = buf
	return nil
}

// AppendPayloadData appends a copy of b to the payload of p. On failure the
// payload is unchanged.
func (p *Packet) AppendPayloadData(b []byte) error {
	if b == nil {
		return errors.Wrap(ErrNullInput, "cannot append payload")
	}
	if len(b) == 0 {
		return nil
	}
	buf, err := allocPayload(len(p.payload) + len(b))
	if err != nil {
		return err
	}
	n := copy(buf, p.payload)
	copy(buf[n:], b)
	p.payload = buf
	return nil
}

// AppendPayload appends the payload of o to the payload of p.
func (p *Packet) AppendPayload(o *Packet) error {
	if o == nil {
		return errors.Wrap(ErrNullInput, "cannot append nil packet")
	}
	if len(o.payload) == 0 {
		return nil
	}
	return p.AppendPayloadData(o.payload)
}

// allocPayload returns a new buffer of n bytes, or ErrAllocation if n exceeds
// MaxPayloadSize.
func allocPayload(n int) ([]byte, error) {
	if n > MaxPayloadSize {
		return nil, errors.Wrapf(ErrAllocation, "%d byte payload exceeds limit of %d", n, MaxPayloadSize)
	}
	return make([]byte, n), nil
}

// PayloadByteAt returns the payload byte at index i, or 0 if i is out of range.
func (p *Packet) PayloadByteAt(i int) byte {
	if i < 0 || i >= len(p.payload) {
		return 0
	}
	return p.payload[i]
}

// SetPayloadByteAt sets the payload byte at index i to b. Unlike PayloadByteAt,
// an out of range index is an error.
func (p *Packet) SetPayloadByteAt(b byte, i int) error {
	if i < 0 || i >= len(p.payload) {
		return errors.Wrapf(ErrRange, "index %d, DC %d", i, len(p.payload))
	}
	p.payload[i] = b
	return nil
}

// Compare compares p with o, returning nil if they match or an ErrMismatch
// describing the first difference otherwise. Location and checksum may be
// excluded from the comparison.
func (p *Packet) Compare(o *Packet, ignoreLocation, ignoreChecksum bool) error {
	if o == nil {
		return errors.Wrap(ErrNullInput, "cannot compare with nil packet")
	}
	mismatch := func(field string, a, b interface{}) error {
		return errors.Wrapf(ErrMismatch, "%s: %v != %v", field, a, b)
	}
	switch {
	case p.did != o.did:
		return mismatch("DID", p.did, o.did)
	case p.sid != o.sid:
		return mismatch("SID", p.sid, o.sid)
	case len(p.payload) != len(o.payload):
		return mismatch("DC", len(p.payload), len(o.payload))
	case !ignoreChecksum && p.checksum != o.checksum:
		return mismatch("checksum", p.checksum, o.checksum)
	case !ignoreLocation && p.location != o.location:
		return mismatch("location", p.location, o.location)
	case p.coding != o.coding:
		return mismatch("coding", p.coding, o.coding)
	case !bytes.Equal(p.payload, o.payload):
		return errors.Wrap(ErrMismatch, "payload data differs")
	}
	return nil
}

// Equal returns true if p and o match according to Compare.
func (p *Packet) Equal(o *Packet, ignoreLocation, ignoreChecksum bool) bool {
	return p.Compare(o, ignoreLocation, ignoreChecksum) == nil
}

// String returns a one line description of p.
func (p *Packet) String() string {
	return fmt.Sprintf("%02X/%02X %s DC=%d CS=%02X %s %s [%s]",
		p.did, p.sid, p.coding, len(p.payload), p.checksum, p.location, p.bufferFormat, Describe(p.did, p.sid))
}

/*
NAME
  psi.go

DESCRIPTION
  psi.go provides encoding of the MPEG-TS program association and program map
  tables describing a single program with one elementary stream.

AUTHOR
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package psi provides encoding of MPEG-TS program specific information.
package psi

// PacketSize of psi (without MPEG-TS header)
const PacketSize = 184

// Lengths of section definitions.
const (
	ESSDataLen = 5
	DescDefLen = 2
	PMTDefLen  = 4
	PATLen     = 4
	TSSDefLen  = 5
)

// Table Type IDs.
const (
	patID = 0x00
	pmtID = 0x02
)

// CRC hash size.
const crcSize = 4

// Default program values.
const (
	DefaultProgram = 0x01
	DefaultPmtPID  = 0x1000
)

// Descriptor tags.
const (
	RegistrationTag = 0x05 // ISO/IEC 13818-1 registration_descriptor.
)

// NewPATPSI returns a PAT describing a single program whose PMT is carried on
// pmtPID.
func NewPATPSI(pmtPID uint16) *PSI {
	p := &PSI{
		TableID:         patID,
		SyntaxIndicator: true,
		SyntaxSection: &SyntaxSection{
			TableIDExt:  DefaultProgram,
			CurrentNext: true,
			SpecificData: &PAT{
				Program:       DefaultProgram,
				ProgramMapPID: pmtPID,
			},
		},
	}
	p.SetSectionLen()
	return p
}

// NewPMTPSI returns a PMT describing a single elementary stream of the given
// type on pid, which also carries the program clock reference. The
// descriptors are attached to the elementary stream.
func NewPMTPSI(pid uint16, streamType byte, descs ...Descriptor) *PSI {
	ess := &StreamSpecificData{
		StreamType:  streamType,
		PID:         pid,
		Descriptors: descs,
	}
	for _, d := range descs {
		ess.StreamInfoLen += uint16(d.size())
	}
	p := &PSI{
		TableID:         pmtID,
		SyntaxIndicator: true,
		SyntaxSection: &SyntaxSection{
			TableIDExt:  DefaultProgram,
			CurrentNext: true,
			SpecificData: &PMT{
				ProgramClockPID:    pid,
				StreamSpecificData: ess,
			},
		},
	}
	p.SetSectionLen()
	return p
}

// NewRegistration returns a registration descriptor carrying the four
// character format identifier id.
func NewRegistration(id string) Descriptor {
	return Descriptor{Tag: RegistrationTag, Len: byte(len(id)), Data: []byte(id)}
}

// Program specific information
type PSI struct {
	PointerField    byte           // Point field
	TableID         byte           // Table ID
	SyntaxIndicator bool           // Section syntax indicator (1 for PAT, PMT, CAT)
	PrivateBit      bool           // Private bit (0 for PAT, PMT, CAT)
	SectionLen      uint16         // Section length
	SyntaxSection   *SyntaxSection // Table syntax section (length defined by SectionLen) if length 0 then nil
}

// Table syntax section
type SyntaxSection struct {
	TableIDExt   uint16       // Table ID extension
	Version      byte         // Version number
	CurrentNext  bool         // Current/next indicator
	Section      byte         // Section number
	LastSection  byte         // Last section number
	SpecificData SpecificData // Specific data PAT/PMT
}

// Specific Data, (could be PAT or PMT)
type SpecificData interface {
	Bytes() []byte
}

// Program association table, implements SpecificData
type PAT struct {
	Program       uint16 // Program Number
	ProgramMapPID uint16 // Program map PID
}

// Program mapping table, implements SpecificData
type PMT struct {
	ProgramClockPID    uint16              // Program clock reference PID.
	ProgramInfoLen     uint16              // Program info length.
	Descriptors        []Descriptor        // Program descriptors.
	StreamSpecificData *StreamSpecificData // Elementary stream specific data.
}

// Elementary stream specific data
type StreamSpecificData struct {
	StreamType    byte         // Stream type.
	PID           uint16       // Elementary PID.
	StreamInfoLen uint16       // Elementary stream info length.
	Descriptors   []Descriptor // Elementary stream desriptors
}

// Descriptor
type Descriptor struct {
	Tag  byte   // Descriptor tag
	Len  byte   // Descriptor length
	Data []byte // Descriptor data
}

// SetSectionLen sets the section length of p from the size of its syntax
// section and CRC.
func (p *PSI) SetSectionLen() {
	p.SectionLen = uint16(len(p.SyntaxSection.Bytes()) + crcSize)
}

// Bytes outputs a byte slice representation of the PSI
func (p *PSI) Bytes() []byte {
	out := make([]byte, 4)
	out[0] = p.PointerField
	out[1] = p.TableID
	out[2] = asByte(p.SyntaxIndicator)<<7 | asByte(p.PrivateBit)<<6 | 0x30 | (0x03 & byte(p.SectionLen>>8))
	out[3] = byte(p.SectionLen)
	out = append(out, p.SyntaxSection.Bytes()...)
	out = AddCRC(out)
	return out
}

// Bytes outputs a byte slice representation of the SyntaxSection
func (t *SyntaxSection) Bytes() []byte {
	out := make([]byte, TSSDefLen)
	out[0] = byte(t.TableIDExt >> 8)
	out[1] = byte(t.TableIDExt)
	out[2] = 0xc0 | (0x3e & (t.Version << 1)) | (0x01 & asByte(t.CurrentNext))
	out[3] = t.Section
	out[4] = t.LastSection
	out = append(out, t.SpecificData.Bytes()...)
	return out
}

// Bytes outputs a byte slice representation of the PAT
func (p *PAT) Bytes() []byte {
	out := make([]byte, PATLen)
	out[0] = byte(p.Program >> 8)
	out[1] = byte(p.Program)
	out[2] = 0xe0 | (0x1f & byte(p.ProgramMapPID>>8))
	out[3] = byte(p.ProgramMapPID)
	return out
}

// Bytes outputs a byte slice representation of the PMT
func (p *PMT) Bytes() []byte {
	out := make([]byte, PMTDefLen)
	out[0] = 0xe0 | (0x1f & byte(p.ProgramClockPID>>8))
	out[1] = byte(p.ProgramClockPID)
	out[2] = 0xf0 | (0x03 & byte(p.ProgramInfoLen>>8))
	out[3] = byte(p.ProgramInfoLen)
	for _, d := range p.Descriptors {
		out = append(out, d.Bytes()...)
	}
	out = append(out, p.StreamSpecificData.Bytes()...)
	return out
}

// Bytes outputs a byte slice representation of the Desc
func (d *Descriptor) Bytes() []byte {
	out := make([]byte, DescDefLen, d.size())
	out[0] = d.Tag
	out[1] = d.Len
	out = append(out, d.Data...)
	return out
}

func (d *Descriptor) size() int { return DescDefLen + len(d.Data) }

// Bytes outputs a byte slice representation of the StreamSpecificData
func (e *StreamSpecificData) Bytes() []byte {
	out := make([]byte, ESSDataLen)
	out[0] = e.StreamType
	out[1] = 0xe0 | (0x1f & byte(e.PID>>8))
	out[2] = byte(e.PID)
	out[3] = 0xf0 | (0x03 & byte(e.StreamInfoLen>>8))
	out[4] = byte(e.StreamInfoLen)
	for _, d := range e.Descriptors {
		out = append(out, d.Bytes()...)
	}
	return out
}

// AddPadding pads a PAT or PMT with 0xff to fill an MPEG-TS packet payload.
func AddPadding(d []byte) []byte {
	t := make([]byte, PacketSize)
	copy(t, d)
	padding := t[len(d):]
	for i := range padding {
		padding[i] = 0xff
	}
	return t
}

func asByte(b bool) byte {
	if b {
		return 0x01
	}
	return 0x00
}

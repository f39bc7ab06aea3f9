/*
NAME
  types.go

DESCRIPTION
  types.go provides identification of well known ancillary packet types from
  their DID and SID.

  See https://smpte-ra.org/smpte-ancillary-data-smpte-st-291.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package anc

// Type is a well known ancillary packet type.
type Type int

const (
	TypeUnknown Type = iota
	TypeSMPTE352     // Video payload ID.
	TypeAFD          // Active format description and bar data.
	TypeSCTE104      // Splice messages.
	TypeVBI          // DVB/SCTE VBI data.
	TypeHDR          // ST 2108-1 HDR/WCG metadata.
	TypeTimecode     // ST 12-2 ancillary timecode.
	TypeCEA708       // CEA-708 caption distribution packet.
	TypeCEA608       // CEA-608 captions.
	TypeOP47SDP      // OP-47 subtitling distribution packet.
	TypeOP47Multi    // OP-47 multipacket.
	TypeCEA608Raw    // Analog line 21 captions.
)

type identifier struct{ did, sid byte }

var types = map[identifier]Type{
	{0x41, 0x01}: TypeSMPTE352,
	{0x41, 0x05}: TypeAFD,
	{0x41, 0x07}: TypeSCTE104,
	{0x41, 0x08}: TypeVBI,
	{0x41, 0x0c}: TypeHDR,
	{0x60, 0x60}: TypeTimecode,
	{0x61, 0x01}: TypeCEA708,
	{0x61, 0x02}: TypeCEA608,
	{0x43, 0x02}: TypeOP47SDP,
	{0x43, 0x03}: TypeOP47Multi,
}

var typeNames = [...]string{
	TypeUnknown:   "unknown DID/SID",
	TypeSMPTE352:  "SMPTE 352 video payload ID",
	TypeAFD:       "AFD and bar data",
	TypeSCTE104:   "ANSI/SCTE 104 messages",
	TypeVBI:       "DVB/SCTE VBI data",
	TypeHDR:       "SMPTE 2108-1 HDR/WCG metadata",
	TypeTimecode:  "SMPTE 12-2 timecode",
	TypeCEA708:    "CEA-708 captions",
	TypeCEA608:    "CEA-608 captions",
	TypeOP47SDP:   "OP-47 subtitling distribution packet",
	TypeOP47Multi: "OP-47 multipacket",
	TypeCEA608Raw: "analog line 21 captions",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return typeNames[TypeUnknown]
	}
	return typeNames[t]
}

// TypeOf returns the type of a packet with the given DID and SID.
func TypeOf(did, sid byte) Type { return types[identifier{did, sid}] }

// Describe returns a description of the packet type with the given DID and
// SID.
func Describe(did, sid byte) string { return TypeOf(did, sid).String() }

// Type returns the type of p. Raw packets on line 21 are taken to be analog
// captions.
func (p *Packet) Type() Type {
	if p.IsRaw() && p.location.line == 21 {
		return TypeCEA608Raw
	}
	return TypeOf(p.did, p.sid)
}

/*
NAME
  scan.go

DESCRIPTION
  scan.go provides a scanner for ancillary data packets embedded in a line of
  10-bit VANC samples, and conversion between scan results and anc.Packets.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vanc provides location of SMPTE-291 ancillary packets in frame
// buffer VANC lines and conversion of such lines between 8 and 10 bit
// samples.
//
// Lines are given as one uint16 per sample, with chroma samples at even
// indices and luma samples at odd indices.
package vanc

import (
	"io"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// Log is used for diagnostics. By default nothing is logged.
var Log logging.Logger = logging.New(logging.Warning, io.Discard, true)

// Word positions within a packet, counted in strided samples from the start
// of the ancillary data flag.
const (
	adfLen    = 3
	didIdx    = 3
	sidIdx    = 4
	dcIdx     = 5
	udwIdx    = 6
	hdrLen    = udwIdx
	adfWord0  = 0x000
	adfWord1  = 0x3ff
	dataMask  = 0xff
	checkMask = 0x1ff
)

// stride returns the sample stride and first sample index for a search of
// channel ch.
func stride(ch anc.Channel) (step, first int, err error) {
	switch ch {
	case anc.ChannelBoth:
		return 1, 0, nil
	case anc.ChannelC:
		return 2, 0, nil
	case anc.ChannelY:
		return 2, 1, nil
	default:
		return 0, 0, errors.Wrapf(anc.ErrRange, "cannot search channel %v", ch)
	}
}

// Scanner finds ancillary packets in a line of 10-bit samples. Successive
// calls to Next step through the packets in the line; a Scanner cannot be
// restarted.
//
// Scanning stops at the first packet with a parity or checksum error, as the
// rest of the line is then not trusted, and at a packet whose data count runs
// past the end of the line. Err reports why.
type Scanner struct {
	words []uint16
	step  int
	pos   int

	cur []uint16
	off int
	err error
}

// NewScanner returns a Scanner searching words for packets in channel ch.
// ChannelBoth searches every sample, as used by SD signals; ChannelC and
// ChannelY search alternate samples.
func NewScanner(words []uint16, ch anc.Channel) *Scanner {
	step, first, err := stride(ch)
	return &Scanner{words: words, step: step, pos: first, err: err}
}

// Next advances to the next packet, returning false when no more packets are
// found or an error has occurred.
func (s *Scanner) Next() bool {
	s.cur = nil
	if s.err != nil {
		return false
	}
	for ; s.pos+(adfLen-1)*s.step < len(s.words); s.pos += s.step {
		if !s.isADF(s.pos) {
			continue
		}

		if s.pos+dcIdx*s.step >= len(s.words) {
			s.err = errors.Wrapf(anc.ErrIncompletePacket, "no room for packet header at sample %d", s.pos)
			return false
		}
		dc := int(s.words[s.pos+dcIdx*s.step] & dataMask)
		n := hdrLen + dc + 1
		last := s.pos + (n-1)*s.step
		if last >= len(s.words) {
			s.err = errors.Wrapf(anc.ErrIncompletePacket, "DC %d at sample %d runs past end of line", dc, s.pos)
			return false
		}

		pkt := make([]uint16, n)
		for i := range pkt {
			pkt[i] = s.words[s.pos+i*s.step]
		}
		err := check(pkt)
		if err != nil {
			s.err = errors.Wrapf(err, "bad packet at sample %d", s.pos)
			Log.Debug("abandoning VANC line", "error", s.err.Error())
			return false
		}
		s.cur, s.off = pkt, s.pos
		s.pos = last + s.step
		return true
	}
	return false
}

// Words returns the current packet's words from the ancillary data flag to the
// checksum, with the channel stride removed. The returned slice is owned by the
// caller.
func (s *Scanner) Words() []uint16 { return s.cur }

// Offset returns the sample index of the current packet's ancillary data flag.
func (s *Scanner) Offset() int { return s.off }

// Err returns the error that stopped the scan, or nil if the line was scanned
// to the end.
func (s *Scanner) Err() error { return s.err }

func (s *Scanner) isADF(i int) bool {
	return s.words[i]&0x3ff == adfWord0 &&
		s.words[i+s.step]&0x3ff == adfWord1 &&
		s.words[i+2*s.step]&0x3ff == adfWord1
}

// check checks the parity of the DID, SDID, DC and user data words of pkt and
// its checksum.
func check(pkt []uint16) error {
	cs := len(pkt) - 1
	var sum uint16
	for i := didIdx; i < cs; i++ {
		if !anc.ValidParity(pkt[i]) {
			return errors.Wrapf(anc.ErrChecksumMismatch, "bad parity 0x%03x at word %d", pkt[i], i)
		}
		sum += pkt[i] & checkMask
	}
	sum &= checkMask
	got := pkt[cs] & 0x3ff
	if got&checkMask != sum || (got>>8)&1 == got>>9 {
		return errors.Wrapf(anc.ErrChecksumMismatch, "got 0x%03x, calculated 0x%03x", got, sum)
	}
	return nil
}

// Found is a packet located in a VANC line.
type Found struct {
	Words  []uint16 // Ancillary data flag to checksum inclusive.
	Offset int      // Sample index of the ancillary data flag.
}

// DID returns the data identifier of f.
func (f Found) DID() byte { return byte(f.Words[didIdx]) }

// SID returns the secondary data identifier of f.
func (f Found) SID() byte { return byte(f.Words[sidIdx]) }

// FindPackets returns the packets found in words for channel ch. Packets found
// before an error are returned with it.
func FindPackets(words []uint16, ch anc.Channel) ([]Found, error) {
	var found []Found
	s := NewScanner(words, ch)
	for s.Next() {
		found = append(found, Found{Words: s.Words(), Offset: s.Offset()})
	}
	return found, s.Err()
}

// Decode returns the packets found in words for channel ch as anc.Packets. The
// packets take their location from def, with the channel set to ch and the
// horizontal offset set to the sample offset of each packet within its
// channel.
func Decode(words []uint16, ch anc.Channel, def anc.Location) ([]*anc.Packet, error) {
	found, scanErr := FindPackets(words, ch)
	step, _, _ := stride(ch)

	pkts := make([]*anc.Packet, 0, len(found))
	for _, f := range found {
		p := anc.NewPacket()
		p.SetDID(f.DID())
		p.SetSID(f.SID())
		if dc := len(f.Words) - hdrLen - 1; dc != 0 {
			pl := make([]byte, dc)
			for i := range pl {
				pl[i] = byte(f.Words[udwIdx+i])
			}
			err := p.SetPayloadData(pl)
			if err != nil {
				return pkts, err
			}
		}
		// The checksum has already been checked.
		_ = p.SetChecksum(byte(f.Words[len(f.Words)-1]), false)

		loc := def
		err := loc.SetChannel(ch)
		if err != nil {
			return pkts, err
		}
		loc.SetHorizontalOffset(uint16(f.Offset / step))
		err = p.SetLocation(loc)
		if err != nil {
			return pkts, err
		}
		err = p.SetBufferFormat(anc.BufferFormatFBVANC)
		if err != nil {
			return pkts, err
		}
		pkts = append(pkts, p)
	}
	return pkts, scanErr
}

// Encode returns the 10-bit words of p as they appear in a VANC line, from the
// ancillary data flag to the checksum. Only digital packets of at most
// anc.MaxDC payload bytes can be encoded.
func Encode(p *anc.Packet) ([]uint16, error) {
	if p == nil {
		return nil, errors.Wrap(anc.ErrNullInput, "cannot encode VANC")
	}
	if !p.IsDigital() {
		return nil, errors.Wrapf(anc.ErrInvalidCoding, "cannot encode %s coding in VANC", p.Coding())
	}
	if p.DC() > anc.MaxDC {
		return nil, errors.Wrapf(anc.ErrRange, "DC %d exceeds %d", p.DC(), anc.MaxDC)
	}

	pl := p.Payload()
	w := make([]uint16, 0, hdrLen+len(pl)+1)
	w = append(w, adfWord0, adfWord1, adfWord1,
		anc.AddEvenParity(p.DID()), anc.AddEvenParity(p.SID()), anc.AddEvenParity(byte(len(pl))))
	for _, b := range pl {
		w = append(w, anc.AddEvenParity(b))
	}
	return append(w, anc.Checksum9(p.DID(), p.SID(), pl)), nil
}

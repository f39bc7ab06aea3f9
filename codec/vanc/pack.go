/*
NAME
  pack.go

DESCRIPTION
  pack.go provides conversion of VANC lines between 10-bit samples and the
  8-bit samples produced by 8-bit frame buffer capture.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vanc

import (
	"github.com/ausocean/anc/codec/anc"
	"github.com/pkg/errors"
)

// minPixels is the shortest line that can be converted.
const minPixels = 12

// chanStride is the sample stride within one channel of a line.
const chanStride = 2

// checkLine checks the arguments common to the line conversions.
func checkLine(dstLen, srcLen, pixels int, srcNil bool) error {
	switch {
	case srcNil:
		return errors.Wrap(anc.ErrNullInput, "no source line")
	case pixels < minPixels || pixels%4 != 0:
		return errors.Wrapf(anc.ErrRange, "pixel count %d must be a multiple of 4 and at least %d", pixels, minPixels)
	case srcLen < 2*pixels:
		return errors.Wrapf(anc.ErrBufferTooSmall, "source holds %d samples, need %d", srcLen, 2*pixels)
	case dstLen < 2*pixels:
		return errors.Wrapf(anc.ErrBufferTooSmall, "destination holds %d samples, need %d", dstLen, 2*pixels)
	}
	return nil
}

// Pack8BitLineTo10Bit converts a line of pixels 8-bit samples in src to
// 10-bit samples in dst.
//
// Each channel is handled separately. Video samples are shifted up by two
// bits. Ancillary packets, identified by a 00 FF FF start code, are restored
// to 10-bit words with parity, and their checksums are recalculated since the
// 8-bit capture loses them. Once a channel has held a packet, the first
// sample that does not start another packet ends the ancillary data in that
// channel and the remainder of its line is treated as video.
//
// The pixel count must be a multiple of 4 and at least 12. On error dst may
// be partly written.
func Pack8BitLineTo10Bit(dst []uint16, src []byte, pixels int) error {
	err := checkLine(len(dst), len(src), pixels, src == nil)
	if err != nil {
		return err
	}
	n := 2 * pixels
	for first := 0; first < chanStride; first++ {
		pack8Channel(dst[:n], src[:n], first)
	}
	return nil
}

func pack8Channel(dst []uint16, src []byte, i int) {
	const s = chanStride
	var seen bool
	for i < len(src) {
		if i+(adfLen-1)*s < len(src) && src[i] == 0x00 && src[i+s] == 0xff && src[i+2*s] == 0xff {
			if i+dcIdx*s >= len(src) {
				break
			}
			dc := int(src[i+dcIdx*s])
			last := i + (hdrLen+dc)*s
			if last >= len(src) {
				break
			}

			dst[i], dst[i+s], dst[i+2*s] = adfWord0, adfWord1, adfWord1
			pl := make([]byte, dc)
			for k := range pl {
				pl[k] = src[i+(udwIdx+k)*s]
			}
			did, sid := src[i+didIdx*s], src[i+sidIdx*s]
			dst[i+didIdx*s] = anc.AddEvenParity(did)
			dst[i+sidIdx*s] = anc.AddEvenParity(sid)
			dst[i+dcIdx*s] = anc.AddEvenParity(byte(dc))
			for k, b := range pl {
				dst[i+(udwIdx+k)*s] = anc.AddEvenParity(b)
			}
			dst[last] = anc.Checksum9(did, sid, pl)
			i = last + s
			seen = true
			continue
		}
		if seen {
			break
		}
		dst[i] = uint16(src[i]) << 2
		i += s
	}
	for ; i < len(src); i += s {
		dst[i] = uint16(src[i]) << 2
	}
}

// Unpack10BitLineTo8Bit converts a line of pixels 10-bit samples in src to
// 8-bit samples in dst, as done by 8-bit capture of VANC. Video samples lose
// their two least significant bits, while the words of ancillary packets keep
// their low eight bits so that packet data survives. Packets are recognised
// as by Pack8BitLineTo10Bit, so that the two conversions are inverses for
// lines holding valid packets and video samples with clear low bits.
func Unpack10BitLineTo8Bit(dst []byte, src []uint16, pixels int) error {
	err := checkLine(len(dst), len(src), pixels, src == nil)
	if err != nil {
		return err
	}
	n := 2 * pixels
	for first := 0; first < chanStride; first++ {
		unpack10Channel(dst[:n], src[:n], first)
	}
	return nil
}

func unpack10Channel(dst []byte, src []uint16, i int) {
	const s = chanStride
	var seen bool
	for i < len(src) {
		if i+(adfLen-1)*s < len(src) && src[i]&0x3ff == adfWord0 && src[i+s]&0x3ff == adfWord1 && src[i+2*s]&0x3ff == adfWord1 {
			if i+dcIdx*s >= len(src) {
				break
			}
			last := i + (hdrLen+int(src[i+dcIdx*s]&dataMask))*s
			if last >= len(src) {
				break
			}
			for ; i <= last; i += s {
				dst[i] = byte(src[i])
			}
			seen = true
			continue
		}
		if seen {
			break
		}
		dst[i] = byte(src[i] >> 2)
		i += s
	}
	for ; i < len(src); i += s {
		dst[i] = byte(src[i] >> 2)
	}
}

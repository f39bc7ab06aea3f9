/*
NAME
  errors.go

DESCRIPTION
  errors.go defines the error kinds returned by the ancillary data codecs.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package anc

import "github.com/pkg/errors"

// Error kinds. Operations wrap these with context, so callers should test
// using errors.Is.
var (
	ErrNullInput        = errors.New("nil input")
	ErrBufferTooSmall   = errors.New("buffer too small")
	ErrRange            = errors.New("value out of range")
	ErrInvalidCoding    = errors.New("invalid data coding")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrAllocation       = errors.New("payload allocation failed")
	ErrIncompletePacket = errors.New("incomplete packet")
	ErrMismatch         = errors.New("packets differ")
)

/*
NAME
  config.go

DESCRIPTION
  config.go provides the configuration of ancdump and its validation.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/anc/container/mts"
	"github.com/ausocean/anc/container/smpte2038"
)

// Input formats.
const (
	formatGUMP = "gump"
	formatTS   = "ts"
	formatRTP  = "rtp"
)

// Config defaults.
const (
	defaultInput = "-" // Standard input.
	defaultAddr  = "0.0.0.0:5004"
	defaultPID   = smpte2038.AnyPID
	defaultRate  = 25
	defaultLine  = anc.LineUnknown
	minPID       = 0x20
	maxPID       = 0x1ffe
	minRate      = 1
	maxRate      = 60
)

var errFormat = errors.New("unknown input format")

// Config holds the configuration of a dump.
type Config struct {
	Logger logging.Logger

	Format  string  // Input format, one of gump, ts or rtp.
	Input   string  // Input file for gump and ts, "-" for standard input.
	Addr    string  // Address to receive RTP at.
	PID     int     // MPEG-TS PID of the ST 2038 stream, or AnyPID.
	Lenient bool    // Keep packets with bad checksums.
	Caption bool    // Print CEA-608 caption text.
	Line    uint    // Line number given to GUMP packets without a location.
	Rate    float64 // Frame rate of the outputs.
	TSOut   string  // File to write ST 2038 MPEG-TS to, if any.
	RTPOut  string  // Address to send ST 2110-40 RTP to, if any.
}

// Validate checks the config, defaulting fields that are bad or unset. An
// unknown format cannot be defaulted and is returned as an error.
func (c *Config) Validate() error {
	switch c.Format {
	case formatGUMP, formatTS:
		if c.Input == "" {
			c.LogInvalidField("Input", defaultInput)
			c.Input = defaultInput
		}
	case formatRTP:
		if c.Addr == "" {
			c.LogInvalidField("Addr", defaultAddr)
			c.Addr = defaultAddr
		}
	default:
		return errors.Wrapf(errFormat, "%q", c.Format)
	}
	// The zero value is the PAT PID, so it is taken as unset.
	if c.PID != smpte2038.AnyPID && (c.PID < minPID || c.PID > maxPID || c.PID == mts.PmtPid) {
		c.LogInvalidField("PID", defaultPID)
		c.PID = defaultPID
	}
	if c.Rate < minRate || c.Rate > maxRate {
		c.LogInvalidField("Rate", defaultRate)
		c.Rate = defaultRate
	}
	if c.Line > uint(anc.LineAnywhere) {
		c.LogInvalidField("Line", defaultLine)
		c.Line = uint(defaultLine)
	}
	return nil
}

// LogInvalidField logs that the named field is being defaulted to def.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// location returns the default location of GUMP packets.
func (c *Config) location() anc.Location {
	loc := anc.DefaultLocation()
	loc.SetLineNumber(uint16(c.Line))
	return loc
}

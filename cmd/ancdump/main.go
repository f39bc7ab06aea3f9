/*
NAME
  main.go

DESCRIPTION
  ancdump prints the SMPTE-291 ancillary data packets found in a GUMP
  stream, the SMPTE ST 2038 streams of an MPEG-TS file or an SMPTE ST 2110-40
  RTP stream, one line per packet, optionally re-sending them as MPEG-TS or
  RTP.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ancdump prints ancillary data packets.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/anc/container/smpte2038"
	"github.com/ausocean/utils/logging"
)

// Logging configuration.
const (
	logMaxSize   = 500 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logSuppress  = true
)

// Log levels by name.
var logLevels = map[string]int8{
	"debug":   logging.Debug,
	"info":    logging.Info,
	"warning": logging.Warning,
	"error":   logging.Error,
}

func main() {
	var (
		c        Config
		logPath  = flag.String("log", "", "file to log to as well as standard error")
		logLevel = flag.String("loglevel", "warning", "log level: debug, info, warning or error")
	)
	flag.StringVar(&c.Format, "format", formatGUMP, "input format: gump, ts or rtp")
	flag.StringVar(&c.Input, "in", defaultInput, "input file for gump and ts, - for standard input")
	flag.StringVar(&c.Addr, "addr", defaultAddr, "address to receive RTP at")
	flag.IntVar(&c.PID, "pid", defaultPID, "PID of the ST 2038 stream, -1 for any announced in the PMT")
	flag.BoolVar(&c.Lenient, "lenient", false, "keep packets with bad checksums")
	flag.BoolVar(&c.Caption, "captions", false, "print CEA-608 caption text")
	flag.UintVar(&c.Line, "line", uint(defaultLine), "line number of GUMP packets without a location")
	flag.Float64Var(&c.Rate, "rate", defaultRate, "frame rate of outputs")
	flag.StringVar(&c.TSOut, "out", "", "file to write ST 2038 MPEG-TS to")
	flag.StringVar(&c.RTPOut, "send", "", "address to send ST 2110-40 RTP to")
	flag.Parse()

	lvl, ok := logLevels[*logLevel]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown log level %q\n", *logLevel)
		os.Exit(2)
	}

	var w io.Writer = os.Stderr
	if *logPath != "" {
		// Create lumberjack logger to handle logging to file.
		fileLog := &lumberjack.Logger{
			Filename:   *logPath,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		}
		defer fileLog.Close()
		w = io.MultiWriter(fileLog, os.Stderr)
	}
	log := logging.New(lvl, w, logSuppress)
	anc.Log = log
	smpte2038.Log = log

	c.Logger = log
	err := c.Validate()
	if err != nil {
		log.Fatal("bad config", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = run(ctx, &c, os.Stdout)
	if err != nil {
		log.Error("dump failed", "error", err.Error())
		stop()
		os.Exit(1)
	}
}

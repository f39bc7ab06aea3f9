/*
NAME
  dump.go

DESCRIPTION
  dump.go provides the reading of ancillary packets from each input format
  and their output.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/anc/container/mts"
	"github.com/ausocean/anc/container/smpte2038"
	"github.com/ausocean/anc/protocol/rtp"
)

// sink prints frames of packets, one line per packet, and writes them to the
// configured outputs.
type sink struct {
	w      io.Writer
	log    logging.Logger
	frames int
	cc     *captions

	ts   *smpte2038.Writer
	conn net.Conn
	rtp  *rtp.ANCEncoder
}

func newSink(c *Config, w io.Writer) (*sink, error) {
	s := &sink{w: w, log: c.Logger}
	if c.Caption {
		s.cc = newCaptions()
	}
	if c.TSOut != "" {
		f, err := os.Create(c.TSOut)
		if err != nil {
			return nil, errors.Wrap(err, "could not create MPEG-TS output")
		}
		s.ts, err = smpte2038.NewWriter(f, c.Logger, mts.Rate(c.Rate))
		if err != nil {
			f.Close()
			return nil, err
		}
	}
	if c.RTPOut != "" {
		conn, err := net.Dial("udp", c.RTPOut)
		if err != nil {
			s.close()
			return nil, errors.Wrap(err, "could not dial RTP output")
		}
		s.conn = conn
		s.rtp = rtp.NewANCEncoder(conn, c.Rate, c.Logger)
		c.Logger.Info("sending RTP", "addr", c.RTPOut, "ssrc", s.rtp.SSRC())
	}
	return s, nil
}

// frame outputs the packets of one frame.
func (s *sink) frame(pkts []*anc.Packet) error {
	for _, p := range pkts {
		_, err := fmt.Fprintf(s.w, "%d\t%s\t% x\n", s.frames, p, p.Payload())
		if err != nil {
			return err
		}
		if s.cc == nil {
			continue
		}
		lines, err := s.cc.decode(p)
		if err != nil {
			s.log.Warning("bad caption data", "did", p.DID(), "sid", p.SID(), "error", err.Error())
		}
		for _, l := range lines {
			_, err = fmt.Fprintf(s.w, "%d\t%s\n", s.frames, l)
			if err != nil {
				return err
			}
		}
	}
	s.frames++

	if s.ts != nil {
		err := s.ts.WriteFrame(pkts)
		if err != nil {
			return err
		}
	}
	if s.rtp != nil {
		err := s.rtp.Encode(pkts, rtp.FieldProgressive, true)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *sink) close() error {
	var err error
	if s.ts != nil {
		err = s.ts.Close()
	}
	if s.conn != nil {
		cerr := s.conn.Close()
		if err == nil {
			err = cerr
		}
	}
	return err
}

// open returns the named input file, or standard input for "-".
func open(name string) (io.ReadCloser, error) {
	if name == defaultInput {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

// run reads packets as configured and outputs them to out and the configured
// outputs until the input ends or ctx is done.
func run(ctx context.Context, c *Config, out io.Writer) error {
	s, err := newSink(c, out)
	if err != nil {
		return err
	}

	switch c.Format {
	case formatGUMP:
		err = dumpGUMP(c, s)
	case formatTS:
		err = dumpTS(ctx, c, s)
	case formatRTP:
		err = dumpRTP(ctx, c, s)
	default:
		err = errors.Wrapf(errFormat, "%q", c.Format)
	}

	cerr := s.close()
	if err == nil {
		err = cerr
	}
	c.Logger.Info("dump finished", "frames", s.frames)
	return err
}

// dumpGUMP outputs the packets of a GUMP stream as a single frame.
func dumpGUMP(c *Config, s *sink) error {
	in, err := open(c.Input)
	if err != nil {
		return errors.Wrap(err, "could not open input")
	}
	defer in.Close()

	buf, err := io.ReadAll(in)
	if err != nil {
		return errors.Wrap(err, "could not read input")
	}
	pkts, err := anc.ParseGUMP(buf, c.location())
	if err != nil {
		return err
	}
	c.Logger.Debug("parsed GUMP", "bytes", len(buf), "packets", len(pkts))
	return s.frame(pkts)
}

// dumpTS outputs the frames of the ST 2038 streams of an MPEG-TS stream.
func dumpTS(ctx context.Context, c *Config, s *sink) error {
	in, err := open(c.Input)
	if err != nil {
		return errors.Wrap(err, "could not open input")
	}
	defer in.Close()

	r, err := smpte2038.NewReader(ctx, in, c.PID, c.Lenient, c.Logger)
	if err != nil {
		return err
	}
	for {
		f, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if f == nil {
				return err
			}
			c.Logger.Warning("bad ST 2038 frame", "PID", f.PID, "PTS", f.PTS, "error", err.Error())
		}
		c.Logger.Debug("read ST 2038 frame", "PID", f.PID, "PTS", f.PTS, "packets", len(f.Packets))
		err = s.frame(f.Packets)
		if err != nil {
			return err
		}
	}
}

// dumpRTP outputs the frames received in an ST 2110-40 RTP stream. A frame
// ends with a datagram carrying the marker bit.
func dumpRTP(ctx context.Context, c *Config, s *sink) error {
	client, err := rtp.NewClient(c.Addr, c.Logger)
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return client.Close()
	})
	g.Go(func() error { return receiveRTP(ctx, c, s, client) })
	return g.Wait()
}

// receiveRTP outputs frames from client until ctx is done or a network error
// occurs.
func receiveRTP(ctx context.Context, c *Config, s *sink, client *rtp.Client) error {
	var frame []*anc.Packet
	for {
		hdr, pkts, err := client.ReadANC(c.Lenient)
		if ctx.Err() != nil {
			c.Logger.Info("RTP receive stopped", "sequence", client.Sequence(), "cycles", client.Cycles())
			return nil
		}
		var ne net.Error
		switch {
		case err == nil:
		case errors.As(err, &ne) && ne.Timeout():
			c.Logger.Debug("no RTP received", "addr", c.Addr)
			continue
		case errors.As(err, &ne):
			return err
		default:
			c.Logger.Warning("bad RTP ANC payload", "error", err.Error())
		}
		frame = append(frame, pkts...)
		if !hdr.Marker {
			continue
		}
		c.Logger.Debug("received RTP frame", "sequence", hdr.Sequence, "timestamp", hdr.Timestamp, "packets", len(frame))
		err = s.frame(frame)
		if err != nil {
			return err
		}
		frame = nil
	}
}

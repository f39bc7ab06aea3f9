/*
NAME
  client.go

DESCRIPTION
  client.go provides an RTP client for receiving ancillary data streams.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package rtp

import (
	"net"
	"sync"
	"time"

	"github.com/ausocean/anc/codec/anc"
	"github.com/ausocean/utils/logging"
	"github.com/pkg/errors"
)

// maxDatagram is the largest UDP datagram the client will receive.
const maxDatagram = 1 << 16

// Client describes an RTP client that can receive an RTP stream and implements
// io.Reader.
type Client struct {
	r        *PacketReader
	log      logging.Logger
	ssrc     uint32
	mu       sync.Mutex
	sequence uint16
	cycles   uint16
	buf      []byte
}

// NewClient returns a pointer to a new Client.
//
// addr is the address of form <ip>:<port> that we expect to receive
// RTP at.
func NewClient(addr string, log logging.Logger) (*Client, error) {
	c := &Client{r: &PacketReader{}, log: log}

	a, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "could not resolve %s", addr)
	}

	c.r.PacketConn, err = net.ListenUDP("udp", a)
	if err != nil {
		return nil, errors.Wrapf(err, "could not listen on %s", addr)
	}

	return c, nil
}

// SSRC returns the identifier of the source the received RTP packets come
// from.
func (c *Client) SSRC() uint32 {
	return c.ssrc
}

// Read implements io.Reader.
func (c *Client) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err != nil {
		return n, err
	}
	if c.ssrc == 0 {
		c.ssrc, _ = SSRC(p[:n])
	}
	s, _ := Sequence(p[:n])
	c.setSequence(s)
	return n, err
}

// ReadANC receives the next RTP packet and decodes the ancillary data packets
// it carries. If lenient is true, packets with checksum errors are kept.
// Packets from sources other than the first seen are dropped.
func (c *Client) ReadANC(lenient bool) (PayloadHeader, []*anc.Packet, error) {
	if c.buf == nil {
		c.buf = make([]byte, maxDatagram)
	}
	for {
		first := c.ssrc == 0
		n, err := c.Read(c.buf)
		if err != nil {
			return PayloadHeader{}, nil, err
		}
		d := c.buf[:n]
		if ssrc, _ := SSRC(d); !first && ssrc != c.ssrc {
			c.log.Debug("dropping RTP packet from unexpected source", "ssrc", ssrc, "want", c.ssrc)
			continue
		}
		return DecodeANC(d, lenient)
	}
}

// Close will close the RTP client's connection.
func (c *Client) Close() error {
	return c.r.PacketConn.Close()
}

// setSequence sets the most recently received sequence number, and updates the
// cycles count if the sequence number has rolled over.
func (c *Client) setSequence(s uint16) {
	c.mu.Lock()
	if s < c.sequence {
		c.cycles++
	}
	c.sequence = s
	c.mu.Unlock()
}

// Sequence returns the most recent RTP packet sequence number received.
func (c *Client) Sequence() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sequence
}

// Cycles returns the number of RTP sequence number cycles that have been received.
func (c *Client) Cycles() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycles
}

// PacketReader provides an io.Reader interface to an underlying UDP PacketConn.
type PacketReader struct {
	net.PacketConn
}

// Read implements io.Reader.
func (r PacketReader) Read(b []byte) (int, error) {
	const readTimeout = 5 * time.Second
	err := r.PacketConn.SetReadDeadline(time.Now().Add(readTimeout))
	if err != nil {
		return 0, errors.Wrap(err, "could not set read deadline for PacketConn")
	}
	n, _, err := r.PacketConn.ReadFrom(b)
	return n, err
}

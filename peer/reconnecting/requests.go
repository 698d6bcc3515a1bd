// Copyright (c) 2026 Netifi, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package reconnecting

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/netifi/netifi-go/api/transport"
)

// FireAndForget sends p on the bound connection.
func (m *Member) FireAndForget(ctx context.Context, p transport.Payload) error {
	conn, err := m.acquire(ctx)
	if err != nil {
		return err
	}
	start := m.start()
	err = conn.FireAndForget(ctx, p)
	m.finish(start, err)
	return err
}

// RequestResponse sends p and waits for the response.
func (m *Member) RequestResponse(ctx context.Context, p transport.Payload) (transport.Payload, error) {
	conn, err := m.acquire(ctx)
	if err != nil {
		return transport.Payload{}, err
	}
	start := m.start()
	res, err := conn.RequestResponse(ctx, p)
	m.finish(start, err)
	return res, err
}

// RequestStream sends p and returns the response stream. The request counts
// as pending until the stream ends.
func (m *Member) RequestStream(ctx context.Context, p transport.Payload) (transport.Stream, error) {
	conn, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	start := m.start()
	s, err := conn.RequestStream(ctx, p)
	if err != nil {
		m.finish(start, err)
		return nil, err
	}
	return &trackedStream{Stream: s, member: m, start: start}, nil
}

// RequestChannel opens a channel whose first message is p. The request
// counts as pending until the inbound half ends.
func (m *Member) RequestChannel(ctx context.Context, p transport.Payload) (transport.Channel, error) {
	conn, err := m.acquire(ctx)
	if err != nil {
		return nil, err
	}
	start := m.start()
	c, err := conn.RequestChannel(ctx, p)
	if err != nil {
		m.finish(start, err)
		return nil, err
	}
	return &trackedChannel{
		Channel: c,
		tracker: trackedStream{Stream: c, member: m, start: start},
	}, nil
}

// trackedStream reports the end of a stream to the member exactly once.
type trackedStream struct {
	transport.Stream

	member *Member
	start  time.Time
	once   sync.Once
}

func (s *trackedStream) end(err error) {
	s.once.Do(func() { s.member.finish(s.start, err) })
}

func (s *trackedStream) Recv(ctx context.Context) (transport.Payload, error) {
	p, err := s.Stream.Recv(ctx)
	switch {
	case errors.Is(err, io.EOF):
		s.end(nil)
	case err != nil:
		s.end(err)
	}
	return p, err
}

func (s *trackedStream) Close() error {
	s.end(errStreamCancelled)
	return s.Stream.Close()
}

var errStreamCancelled = errors.New("stream cancelled")

type trackedChannel struct {
	transport.Channel

	tracker trackedStream
}

func (c *trackedChannel) Recv(ctx context.Context) (transport.Payload, error) {
	return c.tracker.Recv(ctx)
}

func (c *trackedChannel) Close() error {
	return c.tracker.Close()
}

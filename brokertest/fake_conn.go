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

package brokertest

import (
	"context"
	"io"
	"sync"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"go.uber.org/atomic"
)

// FakeConn is an in-memory connection whose requests are served by a
// local handler.
type FakeConn struct {
	addr    string
	setup   transport.Payload
	handler transport.Handler

	availability atomic.Float64
	ignoreAcks   atomic.Bool
	keepAlives   atomic.Int32
	requests     atomic.Int32

	closeOnce sync.Once
	done      chan struct{}
}

var _ transport.Conn = (*FakeConn)(nil)

// NewFakeConn returns an open connection with availability 1.
func NewFakeConn(addr string, setup transport.Payload, h transport.Handler) *FakeConn {
	c := &FakeConn{
		addr:    addr,
		setup:   setup,
		handler: h,
		done:    make(chan struct{}),
	}
	c.availability.Store(1)
	return c
}

// Addr returns the dialed address.
func (c *FakeConn) Addr() string { return c.addr }

// Setup returns the setup payload sent when the connection was opened.
func (c *FakeConn) Setup() transport.Payload { return c.setup }

// Requests returns the number of requests sent on the connection.
func (c *FakeConn) Requests() int { return int(c.requests.Load()) }

// KeepAlives returns the number of keep-alives sent on the connection.
func (c *FakeConn) KeepAlives() int { return int(c.keepAlives.Load()) }

// SetAvailability changes the reported availability.
func (c *FakeConn) SetAvailability(a float64) { c.availability.Store(a) }

// IgnoreKeepAlives makes KeepAlive block until its context ends, as a peer
// that stopped responding would.
func (c *FakeConn) IgnoreKeepAlives(ignore bool) { c.ignoreAcks.Store(ignore) }

// IsClosed reports whether the connection was closed.
func (c *FakeConn) IsClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *FakeConn) begin() error {
	if c.IsClosed() {
		return brokererrors.UnavailableErrorf("connection to %q is closed", c.addr)
	}
	c.requests.Inc()
	return nil
}

// FireAndForget hands p to the handler.
func (c *FakeConn) FireAndForget(ctx context.Context, p transport.Payload) error {
	if err := c.begin(); err != nil {
		return err
	}
	c.handler.FireAndForget(ctx, p)
	return nil
}

// RequestResponse returns the handler's response.
func (c *FakeConn) RequestResponse(ctx context.Context, p transport.Payload) (transport.Payload, error) {
	if err := c.begin(); err != nil {
		return transport.Payload{}, err
	}
	return c.handler.RequestResponse(ctx, p)
}

// RequestStream runs the handler in the background and streams its output.
func (c *FakeConn) RequestStream(ctx context.Context, p transport.Payload) (transport.Stream, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	out := newPipe()
	go func() {
		out.closeWithError(c.handler.RequestStream(ctx, p, out))
	}()
	return out, nil
}

// RequestChannel runs the handler in the background, connected to the
// returned channel.
func (c *FakeConn) RequestChannel(ctx context.Context, p transport.Payload) (transport.Channel, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	in, out := newPipe(), newPipe()
	go func() {
		out.closeWithError(c.handler.RequestChannel(ctx, p, in, out))
	}()
	return &fakeChannel{in: in, out: out}, nil
}

// KeepAlive acknowledges immediately unless IgnoreKeepAlives was set.
func (c *FakeConn) KeepAlive(ctx context.Context) error {
	c.keepAlives.Inc()
	if !c.ignoreAcks.Load() {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return io.EOF
	}
}

// Availability returns the configured availability, or zero once closed.
func (c *FakeConn) Availability() float64 {
	if c.IsClosed() {
		return 0
	}
	return c.availability.Load()
}

// Done is closed by Close.
func (c *FakeConn) Done() <-chan struct{} { return c.done }

// Close closes the connection.
func (c *FakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

// fakeChannel sends on in and receives from out.
type fakeChannel struct {
	in  *pipe
	out *pipe
}

func (ch *fakeChannel) Send(ctx context.Context, p transport.Payload) error {
	return ch.in.Send(ctx, p)
}

func (ch *fakeChannel) CloseSend() error {
	ch.in.closeWithError(nil)
	return nil
}

func (ch *fakeChannel) Recv(ctx context.Context) (transport.Payload, error) {
	return ch.out.Recv(ctx)
}

func (ch *fakeChannel) Close() error {
	ch.in.closeWithError(nil)
	return ch.out.Close()
}

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

// Package brokertest provides in-memory fakes of the broker transport for
// tests of the pool, the discovery reconciler and the client.
package brokertest

import (
	"context"
	"sync"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
)

// FakeTransportOption is an option for NewFakeTransport.
type FakeTransportOption func(*FakeTransport)

// Handler sets the handler that serves requests sent on fake connections.
// Requests are echoed by default.
func Handler(h transport.Handler) FakeTransportOption {
	return func(t *FakeTransport) {
		t.handler = h
	}
}

// DialErrors makes Dial fail with err for the given addresses.
func DialErrors(err error, addrs ...string) FakeTransportOption {
	return func(t *FakeTransport) {
		for _, addr := range addrs {
			t.dialErrors[addr] = err
		}
	}
}

// NewFakeTransport returns a fake transport.
func NewFakeTransport(opts ...FakeTransportOption) *FakeTransport {
	t := &FakeTransport{
		handler:    EchoHandler{},
		dialErrors: make(map[string]error),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// FakeTransport dials FakeConns and remembers all of them.
type FakeTransport struct {
	handler transport.Handler

	mu         sync.Mutex
	dialErrors map[string]error
	conns      []*FakeConn
}

var _ transport.Transport = (*FakeTransport)(nil)

// Dial returns a new FakeConn to addr, or the error configured for addr.
func (t *FakeTransport) Dial(ctx context.Context, addr string, setup transport.Payload) (transport.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, brokererrors.CancelledErrorf("dial %q: %v", addr, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err, ok := t.dialErrors[addr]; ok {
		return nil, err
	}
	conn := NewFakeConn(addr, setup, t.handler)
	t.conns = append(t.conns, conn)
	return conn, nil
}

// SimulateDialError makes subsequent dials to addr fail with err. A nil err
// lets them succeed again.
func (t *FakeTransport) SimulateDialError(addr string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err == nil {
		delete(t.dialErrors, addr)
		return
	}
	t.dialErrors[addr] = err
}

// Conns returns every connection dialed so far.
func (t *FakeTransport) Conns() []*FakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*FakeConn(nil), t.conns...)
}

// ConnsTo returns the connections dialed to addr.
func (t *FakeTransport) ConnsTo(addr string) []*FakeConn {
	var out []*FakeConn
	for _, c := range t.Conns() {
		if c.Addr() == addr {
			out = append(out, c)
		}
	}
	return out
}

// OpenConns returns the number of connections not yet closed.
func (t *FakeTransport) OpenConns() int {
	n := 0
	for _, c := range t.Conns() {
		if !c.IsClosed() {
			n++
		}
	}
	return n
}

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

// Package reconnecting implements the pool member: a logical connection to
// the broker cluster that binds lazily to a physical connection and rebinds,
// on demand, after that connection closes.
package reconnecting

import (
	"context"
	"sync"
	"time"

	"github.com/netifi/netifi-go/api/peer"
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/internal/clock"
	"github.com/netifi/netifi-go/internal/stats"
	"github.com/netifi/netifi-go/peer/supplier"
	"go.uber.org/zap"
)

// TransportSelector picks the supplier a member binds through.
type TransportSelector interface {
	SelectTransport(ctx context.Context) (*supplier.Supplier, error)
}

// attempt is a connection attempt that concurrent callers share.
type attempt struct {
	done chan struct{}
	err  error
}

// Member is a reconnecting connection. It is safe for concurrent use.
//
// A member starts Unavailable. The first request asks the selector for a
// supplier and dials through it; requests arriving meanwhile wait for the
// same attempt. When the bound connection closes the member goes back to
// Unavailable and the next request reconnects. Close is terminal.
type Member struct {
	id        string
	selector  TransportSelector
	setup     transport.Payload
	clock     clock.Clock
	logger    *zap.Logger
	keepAlive KeepAliveConfig

	predictor     *stats.Predictor
	lower, higher stats.Quantile

	lock       sync.Mutex
	state      peer.ConnectionStatus
	conn       transport.Conn
	supplier   *supplier.Supplier
	connecting *attempt
	closed     chan struct{}
}

var _ peer.StatusPeer = (*Member)(nil)

// New returns an unbound member. setup is sent as the first frame of every
// connection the member opens.
func New(id string, selector TransportSelector, setup transport.Payload, opts ...Option) *Member {
	options := defaultOptions
	for _, o := range opts {
		o.apply(&options)
	}
	if options.clock == nil {
		options.clock = clock.NewReal()
	}
	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.lower == nil {
		options.lower = stats.NewFrugalQuantile(0.5)
	}
	if options.higher == nil {
		options.higher = stats.NewFrugalQuantile(0.8)
	}

	return &Member{
		id:        id,
		selector:  selector,
		setup:     setup,
		clock:     options.clock,
		logger:    logger.With(zap.String("member", id)),
		keepAlive: options.keepAlive,
		predictor: stats.NewPredictor(options.clock, options.inactivityFactor),
		lower:     options.lower,
		higher:    options.higher,
		state:     peer.Unavailable,
		closed:    make(chan struct{}),
	}
}

// Identifier returns the member id.
func (m *Member) Identifier() string { return m.id }

// State returns the connection state.
func (m *Member) State() peer.ConnectionStatus {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

// Status returns the pending request count and connection state.
func (m *Member) Status() peer.Status {
	return peer.Status{
		PendingRequestCount: m.Pending(),
		ConnectionStatus:    m.State(),
	}
}

// Pending returns the number of requests in flight.
func (m *Member) Pending() int {
	return m.predictor.Pending()
}

// PredictedLatency returns the expected latency of the next request, in
// microseconds.
func (m *Member) PredictedLatency() float64 {
	return m.predictor.Latency()
}

// Availability is zero unless the member is bound, and the availability of
// the bound connection otherwise.
func (m *Member) Availability() float64 {
	m.lock.Lock()
	conn := m.conn
	m.lock.Unlock()
	if conn == nil {
		return 0
	}
	return conn.Availability()
}

// Supplier returns the supplier of the bound connection, or nil.
func (m *Member) Supplier() *supplier.Supplier {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.supplier
}

// Connect binds the member if it is not bound yet. Requests call it
// implicitly.
func (m *Member) Connect(ctx context.Context) error {
	_, err := m.acquire(ctx)
	return err
}

// acquire returns the bound connection, connecting first if needed.
func (m *Member) acquire(ctx context.Context) (transport.Conn, error) {
	for {
		m.lock.Lock()
		switch m.state {
		case peer.Closed:
			m.lock.Unlock()
			return nil, brokererrors.DisposedErrorf("pool member %q", m.id)

		case peer.Available:
			conn := m.conn
			m.lock.Unlock()
			return conn, nil

		case peer.Connecting:
			a := m.connecting
			m.lock.Unlock()
			select {
			case <-a.done:
				if a.err != nil {
					return nil, a.err
				}
			case <-ctx.Done():
				return nil, brokererrors.CancelledErrorf("waiting for %q to connect: %v", m.id, ctx.Err())
			}

		default:
			a := &attempt{done: make(chan struct{})}
			m.state = peer.Connecting
			m.connecting = a
			m.lock.Unlock()

			m.bind(ctx, a)
			if a.err != nil {
				return nil, a.err
			}
		}
	}
}

// bind runs one connection attempt and publishes its result to a.
func (m *Member) bind(ctx context.Context, a *attempt) {
	defer close(a.done)

	s, err := m.selector.SelectTransport(ctx)
	var conn transport.Conn
	if err == nil {
		conn, err = s.Connect(ctx, m.setup)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.state == peer.Closed {
		if conn != nil {
			_ = conn.Close()
		}
		a.err = brokererrors.DisposedErrorf("pool member %q", m.id)
		return
	}
	if err != nil {
		m.state = peer.Unavailable
		a.err = err
		m.logger.Warn("failed to bind pool member", zap.Error(err))
		return
	}

	m.state = peer.Available
	m.conn = conn
	m.supplier = s
	m.predictor.Reset()
	m.logger.Info("bound pool member", zap.String("broker", s.Identity()), zap.String("address", s.Address()))

	go m.watch(conn)
	if m.keepAlive.Enabled {
		go m.runKeepAlive(conn)
	}
}

func (m *Member) watch(conn transport.Conn) {
	select {
	case <-conn.Done():
		m.unbind(conn)
	case <-m.closed:
	}
}

// unbind moves the member back to Unavailable if conn is still the bound
// connection.
func (m *Member) unbind(conn transport.Conn) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.conn != conn || m.state == peer.Closed {
		return
	}
	m.state = peer.Unavailable
	m.conn = nil
	m.supplier = nil
	m.logger.Info("pool member connection closed")
}

// Reset closes the bound connection, if any, so that the next request
// binds again, possibly to another broker.
func (m *Member) Reset() error {
	m.lock.Lock()
	if m.state != peer.Available {
		m.lock.Unlock()
		return nil
	}
	conn := m.conn
	m.state = peer.Unavailable
	m.conn = nil
	m.supplier = nil
	m.lock.Unlock()

	return conn.Close()
}

// Close closes the member for good, along with its connection.
func (m *Member) Close() error {
	m.lock.Lock()
	if m.state == peer.Closed {
		m.lock.Unlock()
		return nil
	}
	conn := m.conn
	m.state = peer.Closed
	m.conn = nil
	m.supplier = nil
	close(m.closed)
	m.lock.Unlock()

	if conn == nil {
		return nil
	}
	return conn.Close()
}

// start records the beginning of a request.
func (m *Member) start() time.Time {
	return m.predictor.Start()
}

// finish records the end of a request started at start. Only successful
// requests feed the latency estimators.
func (m *Member) finish(start time.Time, err error) {
	m.predictor.Stop(start)
	if err != nil {
		return
	}
	rtt := m.clock.Now().Sub(start)
	m.predictor.Observe(rtt)
	us := float64(rtt) / float64(time.Microsecond)
	m.lower.Insert(us)
	m.higher.Insert(us)
}

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

// Package supplier implements the per-broker connection factory the pool
// picks from when a member needs a new connection.
//
// A Supplier tracks how many connections it has handed out and a
// time-decayed success rate of its dial attempts. Its Weight is a cost:
// the pool prefers the supplier with the lower weight, which spreads
// members across brokers and steers them away from brokers that keep
// failing to accept connections.
package supplier

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/internal/clock"
	"github.com/netifi/netifi-go/internal/stats"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DefaultHalfLife is the default half-life of the dial success rate.
const DefaultHalfLife = 5 * time.Second

type options struct {
	clock    clock.Clock
	logger   *zap.Logger
	halfLife time.Duration
}

var defaultOptions = options{
	halfLife: DefaultHalfLife,
}

// Option customizes a Supplier.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// Clock sets the clock driving the success rate decay.
func Clock(c clock.Clock) Option {
	return optionFunc(func(o *options) {
		o.clock = c
	})
}

// Logger sets the logger.
func Logger(logger *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = logger
	})
}

// HalfLife sets the half-life of the dial success rate.
//
// Defaults to 5 seconds.
func HalfLife(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.halfLife = d
	})
}

// Supplier dials one broker.
type Supplier struct {
	broker    broker.Descriptor
	address   string
	transport transport.Transport
	logger    *zap.Logger

	successRate *stats.EWMA
	active      atomic.Int32

	disposeOnce sync.Once
	done        chan struct{}

	lock  sync.Mutex
	conns map[transport.Conn]struct{}
}

// New returns a Supplier dialing the address that selector picks from b.
func New(b broker.Descriptor, selector broker.AddressSelector, t transport.Transport, opts ...Option) *Supplier {
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

	address := selector(b).String()
	return &Supplier{
		broker:      b,
		address:     address,
		transport:   t,
		logger:      logger.With(zap.String("broker", b.Identity()), zap.String("address", address)),
		successRate: stats.NewEWMA(options.clock, options.halfLife, 1.0),
		done:        make(chan struct{}),
		conns:       make(map[transport.Conn]struct{}),
	}
}

// Broker returns the broker this supplier dials.
func (s *Supplier) Broker() broker.Descriptor { return s.broker }

// Identity returns the identity of the broker.
func (s *Supplier) Identity() string { return s.broker.Identity() }

// Address returns the dialed address.
func (s *Supplier) Address() string { return s.address }

// Select reserves a connection slot. The pool calls it when it hands the
// supplier to a member, and the slot is released when the connection that
// member opens is closed or fails to open.
func (s *Supplier) Select() {
	s.active.Inc()
}

// Active returns the number of reserved or open connections.
func (s *Supplier) Active() int {
	return int(s.active.Load())
}

// SuccessRate returns the decayed ratio of successful dials, starting at 1.
func (s *Supplier) SuccessRate() float64 {
	return s.successRate.Value()
}

// Weight returns the cost of opening one more connection through this
// supplier. Lower is better.
func (s *Supplier) Weight() float64 {
	e := s.SuccessRate()
	a := float64(s.Active())
	if e == 1 {
		return a
	}
	return math.Exp(1/(1-e)) * a
}

// Connect dials the broker and sends setup as the first frame.
func (s *Supplier) Connect(ctx context.Context, setup transport.Payload) (transport.Conn, error) {
	if s.IsDisposed() {
		return nil, brokererrors.DisposedErrorf("transport supplier for %q", s.address)
	}

	conn, err := s.transport.Dial(ctx, s.address, setup)
	if err != nil {
		s.successRate.Insert(0)
		s.release()
		s.logger.Warn("failed to connect to broker", zap.Error(err))
		return nil, brokererrors.Wrapf(brokererrors.CodeUnavailable, err, "dial %q", s.address)
	}
	s.successRate.Insert(1)

	s.lock.Lock()
	if s.IsDisposed() {
		s.lock.Unlock()
		s.release()
		_ = conn.Close()
		return nil, brokererrors.DisposedErrorf("transport supplier for %q", s.address)
	}
	s.conns[conn] = struct{}{}
	s.lock.Unlock()

	s.logger.Debug("opened connection to broker", zap.Int("active", s.Active()))
	go s.watch(conn)
	return conn, nil
}

func (s *Supplier) watch(conn transport.Conn) {
	select {
	case <-conn.Done():
	case <-s.done:
	}

	s.lock.Lock()
	delete(s.conns, conn)
	s.lock.Unlock()

	s.release()
	s.logger.Debug("closed connection to broker", zap.Int("active", s.Active()))
}

// release gives back a slot taken by Select without going below zero.
func (s *Supplier) release() {
	for {
		n := s.active.Load()
		if n <= 0 || s.active.CAS(n, n-1) {
			return
		}
	}
}

// Dispose closes every connection this supplier opened. Later calls to
// Connect fail. Dispose is idempotent.
func (s *Supplier) Dispose() error {
	var err error
	s.disposeOnce.Do(func() {
		s.lock.Lock()
		close(s.done)
		conns := s.conns
		s.conns = make(map[transport.Conn]struct{})
		s.lock.Unlock()

		s.logger.Info("disposing transport supplier", zap.Int("connections", len(conns)))
		for conn := range conns {
			err = multierr.Append(err, conn.Close())
		}
	})
	return err
}

// IsDisposed reports whether Dispose was called.
func (s *Supplier) IsDisposed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done is closed by Dispose.
func (s *Supplier) Done() <-chan struct{} {
	return s.done
}

func (s *Supplier) String() string {
	return fmt.Sprintf("Supplier{broker=%s, address=%s, active=%d, successRate=%.3f}",
		s.Identity(), s.address, s.Active(), s.SuccessRate())
}

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

// Package pool implements the connection pool: a bounded set of
// reconnecting members sharing a set of transport suppliers, one per known
// broker.
//
// Callers pick a member with SelectMember. Members pick the supplier they
// connect through with SelectTransport. Both selections sample two random
// candidates and keep the better one, and both are retried when the member
// or supplier set changed while they ran. Discovery keeps the supplier set
// up to date through Join, Leave, Update and Replace.
package pool

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/api/peer"
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/internal/clock"
	"github.com/netifi/netifi-go/internal/errorsync"
	"github.com/netifi/netifi-go/internal/stats"
	"github.com/netifi/netifi-go/peer/reconnecting"
	"github.com/netifi/netifi-go/peer/supplier"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

var (
	_ peer.List                      = (*Pool)(nil)
	_ reconnecting.TransportSelector = (*Pool)(nil)
)

// snapshot is an immutable view of the pool's sets. Mutations replace it.
type snapshot struct {
	suppliers []*supplier.Supplier
	members   []*reconnecting.Member
}

// Pool is a connection pool. It is safe for concurrent use.
type Pool struct {
	transport transport.Transport
	opts      options
	clock     clock.Clock
	logger    *zap.Logger

	lower, higher stats.Quantile

	randMu sync.Mutex
	rand   *rand.Rand

	// version changes on every mutation of the snapshot. Selection compares
	// it before and after sampling.
	version  atomic.Uint64
	state    atomic.Value
	lastGrow atomic.Int64

	lock  sync.Mutex
	seeds []broker.Descriptor

	done chan struct{}
	once sync.Once

	membersGauge   *metrics.Gauge
	suppliersGauge *metrics.Gauge
	retries        *metrics.Counter

	// afterSample runs between sampling and version validation in tests.
	afterSample func()
}

// New returns an empty pool dialing brokers through t.
func New(t transport.Transport, opts ...Option) *Pool {
	options := defaultOptions
	for _, o := range opts {
		o.apply(&options)
	}
	if options.size < 1 {
		options.size = DefaultSize()
	}
	if options.effort < 1 {
		options.effort = DefaultEffort
	}
	if options.clock == nil {
		options.clock = clock.NewReal()
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	if options.meter == nil {
		options.meter = metrics.New().Scope()
	}
	if options.source == nil {
		options.source = rand.NewSource(time.Now().UnixNano())
	}
	options.addressSelector = broker.OrAnyClientAddress(options.addressSelector)
	if options.setup == nil {
		options.setup = func(int) transport.Payload { return transport.Payload{} }
	}

	p := &Pool{
		transport: t,
		opts:      options,
		clock:     options.clock,
		logger:    options.logger,
		lower:     stats.NewFrugalQuantile(options.lowQuantile),
		higher:    stats.NewFrugalQuantile(options.highQuantile),
		rand:      rand.New(options.source),
		seeds:     options.seeds,
		done:      make(chan struct{}),
	}
	p.state.Store(&snapshot{})
	p.registerMetrics(options.meter)
	return p
}

func (p *Pool) registerMetrics(meter *metrics.Scope) {
	var err error
	p.membersGauge, err = meter.Gauge(metrics.Spec{
		Name: "broker_pool_members",
		Help: "Number of members in the broker connection pool.",
	})
	if err != nil {
		p.logger.DPanic("failed to create pool members gauge", zap.Error(err))
	}
	p.suppliersGauge, err = meter.Gauge(metrics.Spec{
		Name: "broker_pool_suppliers",
		Help: "Number of brokers the connection pool can dial.",
	})
	if err != nil {
		p.logger.DPanic("failed to create pool suppliers gauge", zap.Error(err))
	}
	p.retries, err = meter.Counter(metrics.Spec{
		Name: "broker_pool_selection_retries",
		Help: "Number of selections retried because the pool changed while they ran.",
	})
	if err != nil {
		p.logger.DPanic("failed to create pool selection retries counter", zap.Error(err))
	}
}

func (p *Pool) load() *snapshot {
	return p.state.Load().(*snapshot)
}

// Version returns the membership version.
func (p *Pool) Version() uint64 {
	return p.version.Load()
}

// Members returns the current members.
func (p *Pool) Members() []*reconnecting.Member {
	return append([]*reconnecting.Member(nil), p.load().members...)
}

// Suppliers returns the current suppliers.
func (p *Pool) Suppliers() []*supplier.Supplier {
	return append([]*supplier.Supplier(nil), p.load().suppliers...)
}

// Size returns the maximum number of members.
func (p *Pool) Size() int {
	return p.opts.size
}

// publish stores s and bumps the version. Callers hold p.lock.
func (p *Pool) publish(s *snapshot) {
	p.state.Store(s)
	p.version.Inc()
	if p.membersGauge != nil {
		p.membersGauge.Store(int64(len(s.members)))
	}
	if p.suppliersGauge != nil {
		p.suppliersGauge.Store(int64(len(s.suppliers)))
	}
}

// Join adds a supplier for b unless one with the same identity exists. A
// new supplier grows the pool by one member if it is below its size.
func (p *Pool) Join(b broker.Descriptor) error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.IsDisposed() {
		return brokererrors.DisposedErrorf("broker pool")
	}
	if p.joinLocked(b) {
		p.growLocked()
	}
	return nil
}

func (p *Pool) joinLocked(b broker.Descriptor) bool {
	cur := p.load()
	id := b.Identity()
	for _, s := range cur.suppliers {
		if s.Identity() == id {
			return false
		}
	}

	opts := append([]supplier.Option{
		supplier.Clock(p.clock),
		supplier.Logger(p.logger),
	}, p.opts.supplierOptions...)
	s := supplier.New(b, p.opts.addressSelector, p.transport, opts...)

	next := &snapshot{
		suppliers: append(append(make([]*supplier.Supplier, 0, len(cur.suppliers)+1), cur.suppliers...), s),
		members:   cur.members,
	}
	p.publish(next)
	p.logger.Info("adding transport supplier", zap.String("broker", id), zap.String("address", s.Address()))

	go func() {
		<-s.Done()
		p.removeSupplier(s)
	}()
	return true
}

// Leave disposes of the supplier for b, if any. Members connected through
// it lose their connection and reconnect through another supplier on
// their next request.
func (p *Pool) Leave(b broker.Descriptor) error {
	p.lock.Lock()
	if p.IsDisposed() {
		p.lock.Unlock()
		return brokererrors.DisposedErrorf("broker pool")
	}
	s := p.leaveLocked(b.Identity())
	p.lock.Unlock()

	if s == nil {
		p.logger.Debug("ignoring leave of unknown broker", zap.String("broker", b.Identity()))
		return nil
	}
	p.logger.Info("removing transport supplier", zap.String("broker", s.Identity()))
	return s.Dispose()
}

func (p *Pool) leaveLocked(id string) *supplier.Supplier {
	cur := p.load()
	for i, s := range cur.suppliers {
		if s.Identity() != id {
			continue
		}
		p.publish(&snapshot{
			suppliers: without(cur.suppliers, i),
			members:   cur.members,
		})
		return s
	}
	return nil
}

// removeSupplier drops a disposed supplier from the set.
func (p *Pool) removeSupplier(s *supplier.Supplier) {
	p.lock.Lock()
	defer p.lock.Unlock()

	cur := p.load()
	for i, c := range cur.suppliers {
		if c == s {
			p.publish(&snapshot{
				suppliers: without(cur.suppliers, i),
				members:   cur.members,
			})
			return
		}
	}
}

func without(ss []*supplier.Supplier, i int) []*supplier.Supplier {
	out := make([]*supplier.Supplier, 0, len(ss)-1)
	out = append(out, ss[:i]...)
	return append(out, ss[i+1:]...)
}

// Update applies additions and removals from discovery. Removals are
// applied first.
func (p *Pool) Update(updates peer.ListUpdates) error {
	if len(updates.Additions) == 0 && len(updates.Removals) == 0 {
		return nil
	}
	p.logger.Debug("broker pool update",
		zap.Int("additions", len(updates.Additions)),
		zap.Int("removals", len(updates.Removals)))

	var errs error
	for _, b := range updates.Removals {
		errs = multierr.Append(errs, p.Leave(b))
	}
	for _, b := range updates.Additions {
		errs = multierr.Append(errs, p.Join(b))
	}
	return errs
}

// Replace makes brokers the new seed list and the new supplier set:
// suppliers for brokers not in the list are disposed of and missing ones
// are added.
func (p *Pool) Replace(brokers []broker.Descriptor) error {
	p.lock.Lock()
	if p.IsDisposed() {
		p.lock.Unlock()
		return brokererrors.DisposedErrorf("broker pool")
	}
	p.seeds = append([]broker.Descriptor(nil), brokers...)

	keep := make(map[string]struct{}, len(brokers))
	for _, b := range brokers {
		keep[b.Identity()] = struct{}{}
	}
	var removed []*supplier.Supplier
	for _, s := range p.load().suppliers {
		if _, ok := keep[s.Identity()]; !ok {
			removed = append(removed, p.leaveLocked(s.Identity()))
		}
	}
	added := 0
	for _, b := range brokers {
		if p.joinLocked(b) {
			p.growLocked()
			added++
		}
	}
	p.lock.Unlock()

	p.logger.Debug("replaced broker set",
		zap.Int("brokers", len(brokers)),
		zap.Int("added", added),
		zap.Int("removed", len(removed)))

	var err error
	for _, s := range removed {
		err = multierr.Append(err, s.Dispose())
	}
	return err
}

// reseed adds a supplier for every seed broker. It fails when there are no
// seeds.
func (p *Pool) reseed() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.IsDisposed() {
		return brokererrors.DisposedErrorf("broker pool")
	}
	if len(p.load().suppliers) > 0 {
		return nil
	}
	if len(p.seeds) == 0 {
		return brokererrors.UnavailableErrorf("no brokers available to connect to")
	}
	p.logger.Info("seeding transport suppliers", zap.Int("seeds", len(p.seeds)))
	for _, b := range p.seeds {
		p.joinLocked(b)
	}
	return nil
}

// grow adds one member if the pool is below its size.
func (p *Pool) grow() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.IsDisposed() {
		return brokererrors.DisposedErrorf("broker pool")
	}
	p.growLocked()
	return nil
}

func (p *Pool) growLocked() {
	p.lastGrow.Store(p.clock.Now().UnixNano())

	cur := p.load()
	n := len(cur.members)
	if n >= p.opts.size {
		return
	}

	opts := append([]reconnecting.Option{
		reconnecting.Clock(p.clock),
		reconnecting.Logger(p.logger),
	}, p.opts.memberOptions...)
	opts = append(opts, reconnecting.Quantiles(p.lower, p.higher))

	m := reconnecting.New(fmt.Sprintf("member-%d", n), p, p.opts.setup(n), opts...)
	p.publish(&snapshot{
		suppliers: cur.suppliers,
		members:   append(append(make([]*reconnecting.Member, 0, n+1), cur.members...), m),
	})
	p.logger.Debug("added pool member", zap.String("member", m.Identifier()), zap.Int("members", n+1))
}

// Dispose closes every member and supplier. Selection fails afterwards.
// Dispose is idempotent.
func (p *Pool) Dispose() error {
	var err error
	p.once.Do(func() {
		p.lock.Lock()
		close(p.done)
		cur := p.load()
		p.publish(&snapshot{})
		p.lock.Unlock()

		p.logger.Info("disposing broker pool",
			zap.Int("members", len(cur.members)),
			zap.Int("suppliers", len(cur.suppliers)))
		var ew errorsync.ErrorWaiter
		for _, m := range cur.members {
			ew.Submit(m.Close)
		}
		for _, s := range cur.suppliers {
			ew.Submit(s.Dispose)
		}
		err = ew.Wait()
	})
	return err
}

// IsDisposed reports whether Dispose was called.
func (p *Pool) IsDisposed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Done is closed by Dispose.
func (p *Pool) Done() <-chan struct{} {
	return p.done
}

// SelectTransport implements reconnecting.TransportSelector.
func (p *Pool) SelectTransport(ctx context.Context) (*supplier.Supplier, error) {
	return p.selectSupplier(ctx)
}

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

// Package discovery keeps a broker list, usually the connection pool, in
// sync with a discovery source.
//
// A Reconciler runs two goroutines. The first follows the source and turns
// what it learns into updates. The second applies those updates to the
// list, one at a time. Source failures are logged and retried with backoff
// for as long as the reconciler runs; they never reach the list.
package discovery

import (
	"context"
	"sort"
	"sync"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/api/peer"
	"github.com/netifi/netifi-go/internal/backoff"
	"github.com/netifi/netifi-go/internal/clock"
	"github.com/netifi/netifi-go/pkg/lifecycle"
	"go.uber.org/zap"
)

// update is a change to apply to the list: either incremental updates or,
// when replace is set, a whole new broker set.
type update struct {
	replace bool
	brokers []broker.Descriptor
	changes peer.ListUpdates
}

// Reconciler applies the brokers found by a discovery source to a
// peer.List.
type Reconciler struct {
	list     peer.List
	produce  func(ctx context.Context, out chan<- update)
	clock    clock.Clock
	logger   *zap.Logger
	observer *discoveryObserver
	opts     options

	once   *lifecycle.Once
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newReconciler(list peer.List, source string, opts []Option) *Reconciler {
	options := defaultOptions
	for _, o := range opts {
		o.apply(&options)
	}
	if options.clock == nil {
		options.clock = clock.NewReal()
	}
	if options.logger == nil {
		options.logger = zap.NewNop()
	}
	return &Reconciler{
		list:     list,
		clock:    options.clock,
		logger:   options.logger.With(zap.String("discovery", source)),
		observer: newObserver(options.scope, source),
		opts:     options,
		once:     lifecycle.NewOnce(),
	}
}

// retryPolicy returns the configured backoff, or the windowed linear retry
// shared by every source when none is set.
func (r *Reconciler) retryPolicy() retryPolicy {
	if r.opts.backoff != nil {
		return &countingRetry{backoff: r.opts.backoff.Backoff()}
	}
	return windowRetry{
		window: backoff.NewWindow(r.clock, DefaultRetryWindow, DefaultRetrySteps),
		step:   backoff.DefaultLinear,
	}
}

// NewPush returns a reconciler following feed.
func NewPush(list peer.List, feed Feed, opts ...Option) *Reconciler {
	r := newReconciler(list, "push", opts)
	retry := r.retryPolicy()
	r.produce = func(ctx context.Context, out chan<- update) {
		r.runPush(ctx, feed, retry, out)
	}
	return r
}

// NewPull returns a reconciler polling strategy.
func NewPull(list peer.List, strategy Strategy, opts ...Option) *Reconciler {
	r := newReconciler(list, "pull", opts)
	retry := r.retryPolicy()
	r.produce = func(ctx context.Context, out chan<- update) {
		r.runPull(ctx, strategy, retry, out)
	}
	return r
}

// NewStatic returns a reconciler that replaces the contents of list with
// brokers once.
func NewStatic(list peer.List, brokers StaticList, opts ...Option) *Reconciler {
	r := newReconciler(list, "static", opts)
	r.produce = func(ctx context.Context, out chan<- update) {
		r.observer.joined(len(brokers))
		r.send(ctx, out, update{replace: true, brokers: brokers})
	}
	return r
}

// Start starts following the source.
func (r *Reconciler) Start() error {
	return r.once.Start(func() error {
		ctx, cancel := context.WithCancel(context.Background())
		r.cancel = cancel

		updates := make(chan update)
		r.wg.Add(2)
		go func() {
			defer r.wg.Done()
			defer close(updates)
			r.produce(ctx, updates)
		}()
		go func() {
			defer r.wg.Done()
			r.consume(updates)
		}()
		return nil
	})
}

// Stop stops following the source and waits for both goroutines to exit.
func (r *Reconciler) Stop() error {
	return r.once.Stop(func() error {
		r.cancel()
		r.wg.Wait()
		return nil
	})
}

// IsRunning reports whether the reconciler is running.
func (r *Reconciler) IsRunning() bool {
	return r.once.IsRunning()
}

// send hands u to the consumer. It reports false if ctx ended first.
func (r *Reconciler) send(ctx context.Context, out chan<- update, u update) bool {
	select {
	case out <- u:
		return true
	case <-ctx.Done():
		return false
	}
}

func (r *Reconciler) consume(updates <-chan update) {
	for u := range updates {
		var err error
		if u.replace {
			err = r.list.Replace(u.brokers)
		} else {
			err = r.list.Update(u.changes)
		}
		if err != nil {
			r.logger.Warn("failed to apply broker updates", zap.Error(err))
		}
	}
}

// diff returns the changes turning known into brokers, and updates known
// accordingly.
func diff(known map[string]broker.Descriptor, brokers []broker.Descriptor) peer.ListUpdates {
	var changes peer.ListUpdates

	seen := make(map[string]struct{}, len(brokers))
	for _, b := range brokers {
		id := b.Identity()
		seen[id] = struct{}{}
		if _, ok := known[id]; !ok {
			known[id] = b
			changes.Additions = append(changes.Additions, b)
		}
	}

	var gone []string
	for id := range known {
		if _, ok := seen[id]; !ok {
			gone = append(gone, id)
		}
	}
	sort.Strings(gone)
	for _, id := range gone {
		changes.Removals = append(changes.Removals, known[id])
		delete(known, id)
	}
	return changes
}

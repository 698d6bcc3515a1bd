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

package discovery

import (
	"context"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/api/peer"
	"github.com/netifi/netifi-go/brokererrors"
	"go.uber.org/zap"
)

func (r *Reconciler) runPush(ctx context.Context, feed Feed, retry retryPolicy, out chan<- update) {
	known := make(map[string]broker.Descriptor)
	for {
		err := r.follow(ctx, feed, known, retry, out)
		if ctx.Err() != nil {
			return
		}

		r.observer.failure()
		delay := retry.next()
		r.logger.Warn("broker event stream failed, retrying",
			zap.Error(err), zap.Duration("delay", delay))

		select {
		case <-r.clock.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

// follow applies a snapshot of feed and then its events until the stream
// fails.
func (r *Reconciler) follow(ctx context.Context, feed Feed, known map[string]broker.Descriptor, retry retryPolicy, out chan<- update) error {
	brokers, err := feed.Snapshot(ctx)
	if err != nil {
		return err
	}
	changes := diff(known, brokers)
	if len(changes.Additions) > 0 || len(changes.Removals) > 0 {
		r.logger.Info("applying broker snapshot",
			zap.Int("brokers", len(brokers)),
			zap.Int("additions", len(changes.Additions)),
			zap.Int("removals", len(changes.Removals)))
		if !r.send(ctx, out, update{changes: changes}) {
			return ctx.Err()
		}
		r.observer.joined(len(changes.Additions))
		r.observer.left(len(changes.Removals))
	}

	stream, err := feed.Watch(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := stream.Close(); err != nil {
			r.logger.Debug("failed to close broker event stream", zap.Error(err))
		}
	}()
	retry.reset()

	for {
		ev, err := stream.Next(ctx)
		if err != nil {
			return err
		}

		var u update
		id := ev.Broker.Identity()
		switch ev.Type {
		case broker.EventJoin:
			known[id] = ev.Broker
			u.changes = peer.ListUpdates{Additions: []broker.Descriptor{ev.Broker}}
		case broker.EventLeave:
			delete(known, id)
			u.changes = peer.ListUpdates{Removals: []broker.Descriptor{ev.Broker}}
		default:
			return brokererrors.InvalidArgumentErrorf("unknown broker event type %v for %q", ev.Type, id)
		}

		r.logger.Debug("broker event", zap.Stringer("type", ev.Type), zap.String("broker", id))
		if !r.send(ctx, out, u) {
			return ctx.Err()
		}
		if ev.Type == broker.EventJoin {
			r.observer.joined(1)
		} else {
			r.observer.left(1)
		}
	}
}

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
	"time"

	"github.com/netifi/netifi-go/api/broker"
	"go.uber.org/zap"
)

func (r *Reconciler) runPull(ctx context.Context, strategy Strategy, retry retryPolicy, out chan<- update) {
	known := make(map[string]broker.Descriptor)
	for {
		var wait time.Duration
		brokers, err := strategy.DiscoverNodes(ctx)
		r.observer.poll()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.observer.failure()
			wait = retry.next()
			r.logger.Warn("failed to discover brokers, retrying",
				zap.Error(err), zap.Duration("delay", wait))
		} else {
			retry.reset()
			changes := diff(known, brokers)
			if !r.send(ctx, out, update{replace: true, brokers: brokers}) {
				return
			}
			r.observer.joined(len(changes.Additions))
			r.observer.left(len(changes.Removals))
			wait = r.opts.pollInterval
		}

		select {
		case <-r.clock.After(wait):
		case <-ctx.Done():
			return
		}
	}
}

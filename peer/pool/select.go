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

package pool

import (
	"context"
	"time"

	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/peer/reconnecting"
	"github.com/netifi/netifi-go/peer/supplier"
	"go.uber.org/zap"
)

// SelectMember returns the member the next request should go to. It never
// blocks: when every member is unavailable it still returns one of them,
// and that member connects on first use.
func (p *Pool) SelectMember() (*reconnecting.Member, error) {
	for {
		if p.IsDisposed() {
			return nil, brokererrors.DisposedErrorf("broker pool")
		}

		version := p.version.Load()
		members := p.load().members
		if p.shouldGrow(len(members)) {
			if err := p.grow(); err != nil {
				return nil, err
			}
			continue
		}

		m := p.chooseMember(members)
		if p.afterSample != nil {
			p.afterSample()
		}
		if p.version.Load() == version {
			return m, nil
		}
		p.retry()
	}
}

func (p *Pool) shouldGrow(n int) bool {
	if n == 0 {
		return true
	}
	if n >= p.opts.size {
		return false
	}
	last := time.Unix(0, p.lastGrow.Load())
	return p.clock.Now().Sub(last) >= p.opts.refreshInterval
}

func (p *Pool) retry() {
	if p.retries != nil {
		p.retries.Inc()
	}
}

func (p *Pool) chooseMember(members []*reconnecting.Member) *reconnecting.Member {
	switch n := len(members); n {
	case 1:
		return members[0]
	case 2:
		return p.better(members[0], members[1])
	default:
		var a, b *reconnecting.Member
		for i := 0; i < p.opts.effort; i++ {
			i1, i2 := p.pair(n)
			a, b = members[i1], members[i2]
			if a.Availability() > 0 && b.Availability() > 0 {
				break
			}
		}
		return p.better(a, b)
	}
}

// better returns the member with the higher weight, a on ties.
func (p *Pool) better(a, b *reconnecting.Member) *reconnecting.Member {
	low, high := p.lower.Estimate(), p.higher.Estimate()
	if Weight(a, low, high) < Weight(b, low, high) {
		return b
	}
	return a
}

// pair returns two distinct uniformly random indices below n > 1.
func (p *Pool) pair(n int) (int, int) {
	p.randMu.Lock()
	defer p.randMu.Unlock()

	i := p.rand.Intn(n)
	j := i + 1 + p.rand.Intn(n-1)
	if j >= n {
		j -= n
	}
	return i, j
}

// selectSupplier returns the supplier the next connection should be opened
// through and reserves a slot on it. An empty supplier set is reseeded
// first.
func (p *Pool) selectSupplier(ctx context.Context) (*supplier.Supplier, error) {
	for {
		if p.IsDisposed() {
			return nil, brokererrors.DisposedErrorf("broker pool")
		}
		if err := ctx.Err(); err != nil {
			return nil, brokererrors.CancelledErrorf("selecting a broker: %v", err)
		}

		version := p.version.Load()
		suppliers := p.load().suppliers
		if len(suppliers) == 0 {
			if err := p.reseed(); err != nil {
				return nil, err
			}
			continue
		}

		s := p.chooseSupplier(suppliers)
		if p.afterSample != nil {
			p.afterSample()
		}

		p.lock.Lock()
		if p.version.Load() == version {
			s.Select()
			p.lock.Unlock()
			p.logger.Debug("selected transport supplier", zap.Stringer("supplier", s))
			return s, nil
		}
		p.lock.Unlock()
		p.retry()
	}
}

func (p *Pool) chooseSupplier(suppliers []*supplier.Supplier) *supplier.Supplier {
	if len(suppliers) == 1 {
		return suppliers[0]
	}
	i1, i2 := p.pair(len(suppliers))
	a, b := suppliers[i1], suppliers[i2]
	if b.Weight() < a.Weight() {
		return b
	}
	return a
}

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

package stats

import (
	"math"
	"sync"
	"time"

	"github.com/netifi/netifi-go/internal/clock"
)

// EWMA is an exponentially weighted moving average whose weights decay with
// wall time rather than with the number of samples. A sample inserted one
// half-life after the previous one carries half of the weight.
type EWMA struct {
	clock clock.Clock
	tau   float64 // nanoseconds

	mu    sync.Mutex
	stamp time.Time
	value float64
}

// NewEWMA returns an average seeded with initial.
func NewEWMA(clk clock.Clock, halfLife time.Duration, initial float64) *EWMA {
	return &EWMA{
		clock: clk,
		tau:   float64(halfLife) / math.Ln2,
		stamp: clk.Now(),
		value: initial,
	}
}

// Insert adds a sample.
func (e *EWMA) Insert(x float64) {
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()

	elapsed := float64(now.Sub(e.stamp))
	if elapsed < 0 {
		elapsed = 0
	}
	e.stamp = now
	w := math.Exp(-elapsed / e.tau)
	e.value = w*e.value + (1-w)*x
}

// Reset forgets every sample and starts again from v.
func (e *EWMA) Reset(v float64) {
	now := e.clock.Now()

	e.mu.Lock()
	e.stamp = now
	e.value = v
	e.mu.Unlock()
}

// Value returns the current average.
func (e *EWMA) Value() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

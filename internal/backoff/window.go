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

package backoff

import (
	"sync"
	"time"

	"github.com/netifi/netifi-go/internal/clock"
)

// Window counts consecutive failures, forgetting them once Period has
// passed since the last one.
type Window struct {
	clock  clock.Clock
	period time.Duration
	max    uint

	mu       sync.Mutex
	attempts uint
	last     time.Time
}

// NewWindow returns a Window counting at most max failures.
func NewWindow(clk clock.Clock, period time.Duration, max uint) *Window {
	return &Window{clock: clk, period: period, max: max, last: clk.Now()}
}

// Fail records a failure and returns the number of failures seen in the
// window before this one. The first failure after a quiet period returns
// zero, so its retry is immediate.
func (w *Window) Fail() uint {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.clock.Now()
	if now.Sub(w.last) > w.period {
		w.attempts = 0
	}
	prior := w.attempts
	if w.attempts < w.max {
		w.attempts++
	}
	w.last = now
	return prior
}

// Attempts returns the current failure count.
func (w *Window) Attempts() uint {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.attempts
}

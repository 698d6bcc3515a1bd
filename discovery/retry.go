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
	"time"

	"github.com/netifi/netifi-go/api/backoff"
	internalbackoff "github.com/netifi/netifi-go/internal/backoff"
)

// retryPolicy computes the delay before the next attempt after a failure.
type retryPolicy interface {
	next() time.Duration
	reset()
}

// windowRetry waits a step per failure seen in a rolling window.
type windowRetry struct {
	window *internalbackoff.Window
	step   backoff.Backoff
}

func (r windowRetry) next() time.Duration {
	return r.step.Duration(r.window.Fail())
}

// reset is a no-op: the window forgets failures on its own.
func (windowRetry) reset() {}

// countingRetry counts consecutive failures until reset.
type countingRetry struct {
	backoff  backoff.Backoff
	attempts uint
}

func (r *countingRetry) next() time.Duration {
	d := r.backoff.Duration(r.attempts)
	r.attempts++
	return d
}

func (r *countingRetry) reset() {
	r.attempts = 0
}

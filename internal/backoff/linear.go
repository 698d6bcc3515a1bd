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
	"time"

	"github.com/netifi/netifi-go/api/backoff"
)

// Linear waits Step for every prior attempt, up to MaxSteps steps.
type Linear struct {
	Step     time.Duration
	MaxSteps uint
}

var (
	_ backoff.Strategy = Linear{}
	_ backoff.Backoff  = Linear{}
)

// DefaultLinear is the broker event stream retry policy: half a second per
// failure, at most fifteen seconds.
var DefaultLinear = Linear{Step: 500 * time.Millisecond, MaxSteps: 30}

// Backoff returns l.
func (l Linear) Backoff() backoff.Backoff {
	return l
}

// Duration returns Step * min(attempts, MaxSteps).
func (l Linear) Duration(attempts uint) time.Duration {
	if attempts > l.MaxSteps {
		attempts = l.MaxSteps
	}
	return l.Step * time.Duration(attempts)
}

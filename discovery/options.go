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
	"github.com/netifi/netifi-go/internal/clock"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

const (
	// DefaultPollInterval is the period of pull discovery.
	DefaultPollInterval = 10 * time.Second

	// DefaultRetryWindow is how long a push feed must stay healthy before
	// its failure count resets.
	DefaultRetryWindow = 30 * time.Second

	// DefaultRetrySteps caps the failure count of a push feed.
	DefaultRetrySteps = 30
)

type options struct {
	clock        clock.Clock
	logger       *zap.Logger
	scope        tally.Scope
	pollInterval time.Duration
	backoff      backoff.Strategy
}

var defaultOptions = options{
	scope:        tally.NoopScope,
	pollInterval: DefaultPollInterval,
}

// Option customizes a Reconciler.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// Clock sets the clock driving polls and retries.
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

// Scope sets the tally scope discovery counters are reported to.
func Scope(scope tally.Scope) Option {
	return optionFunc(func(o *options) {
		o.scope = scope
	})
}

// PollInterval sets the period of pull discovery.
//
// Defaults to 10 seconds.
func PollInterval(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.pollInterval = d
	})
}

// Backoff sets the retry delays after consecutive failures of the source.
// The count of failures resets after the source recovers.
//
// Push feeds default to half a second per failure within a thirty second
// window, pull strategies to exponential backoff from one to thirty
// seconds.
func Backoff(s backoff.Strategy) Option {
	return optionFunc(func(o *options) {
		o.backoff = s
	})
}

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

package reconnecting

import (
	"time"

	"github.com/netifi/netifi-go/internal/clock"
	"github.com/netifi/netifi-go/internal/stats"
	"go.uber.org/zap"
)

// KeepAliveConfig configures connection health checking.
type KeepAliveConfig struct {
	Enabled    bool
	TickPeriod time.Duration
	AckTimeout time.Duration
	MissedAcks int
}

// DefaultKeepAlive is enabled with a one second tick, a thirty second ack
// timeout and three allowed misses.
var DefaultKeepAlive = KeepAliveConfig{
	Enabled:    true,
	TickPeriod: time.Second,
	AckTimeout: 30 * time.Second,
	MissedAcks: 3,
}

type options struct {
	clock            clock.Clock
	logger           *zap.Logger
	keepAlive        KeepAliveConfig
	lower, higher    stats.Quantile
	inactivityFactor float64
}

var defaultOptions = options{
	inactivityFactor: stats.DefaultInactivityFactor,
}

// Option customizes a Member.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// Clock sets the clock used for latency tracking and keep-alive ticks.
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

// KeepAlive enables keep-alive checking on every bound connection.
func KeepAlive(cfg KeepAliveConfig) Option {
	return optionFunc(func(o *options) {
		o.keepAlive = cfg
	})
}

// Quantiles sets the pool-wide latency quantile estimators that every
// completed request feeds.
func Quantiles(lower, higher stats.Quantile) Option {
	return optionFunc(func(o *options) {
		o.lower = lower
		o.higher = higher
	})
}

// InactivityFactor sets how many mean inter-arrival times a member may stay
// idle before its latency estimate starts decaying.
//
// Defaults to 500.
func InactivityFactor(f float64) Option {
	return optionFunc(func(o *options) {
		o.inactivityFactor = f
	})
}

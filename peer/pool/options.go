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
	"math/rand"
	"runtime"
	"time"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/internal/clock"
	"github.com/netifi/netifi-go/peer/reconnecting"
	"github.com/netifi/netifi-go/peer/supplier"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultEffort is the number of sampling rounds spent looking for two
	// available members.
	DefaultEffort = 5

	// DefaultRefreshInterval is how often selection grows a pool that is
	// below its size.
	DefaultRefreshInterval = 10 * time.Second
)

// DefaultSize is twice the number of CPUs.
func DefaultSize() int {
	return 2 * runtime.NumCPU()
}

// SetupFunc returns the setup payload of the member with the given index.
type SetupFunc func(index int) transport.Payload

type options struct {
	size            int
	effort          int
	refreshInterval time.Duration
	lowQuantile     float64
	highQuantile    float64
	addressSelector broker.AddressSelector
	setup           SetupFunc
	seeds           []broker.Descriptor
	clock           clock.Clock
	logger          *zap.Logger
	meter           *metrics.Scope
	source          rand.Source
	memberOptions   []reconnecting.Option
	supplierOptions []supplier.Option
}

var defaultOptions = options{
	effort:          DefaultEffort,
	refreshInterval: DefaultRefreshInterval,
	lowQuantile:     0.5,
	highQuantile:    0.8,
	addressSelector: broker.TCPAddress,
}

// Option customizes a Pool.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// Size sets the maximum number of members.
//
// Defaults to DefaultSize().
func Size(n int) Option {
	return optionFunc(func(o *options) {
		o.size = n
	})
}

// Effort sets the number of sampling rounds of member selection.
//
// Defaults to 5.
func Effort(n int) Option {
	return optionFunc(func(o *options) {
		o.effort = n
	})
}

// RefreshInterval sets how often selection adds a member to a pool below
// its size.
//
// Defaults to 10 seconds.
func RefreshInterval(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.refreshInterval = d
	})
}

// Quantiles sets the latency quantiles member weights are normalized
// against.
//
// Defaults to 0.5 and 0.8.
func Quantiles(low, high float64) Option {
	return optionFunc(func(o *options) {
		o.lowQuantile = low
		o.highQuantile = high
	})
}

// AddressSelector picks the broker address suppliers dial.
//
// Defaults to broker.TCPAddress.
func AddressSelector(s broker.AddressSelector) Option {
	return optionFunc(func(o *options) {
		o.addressSelector = s
	})
}

// Setup sets the function building the setup payload of each member.
func Setup(f SetupFunc) Option {
	return optionFunc(func(o *options) {
		o.setup = f
	})
}

// Seeds sets the brokers the pool falls back to when it has no suppliers.
func Seeds(seeds ...broker.Descriptor) Option {
	return optionFunc(func(o *options) {
		o.seeds = append([]broker.Descriptor(nil), seeds...)
	})
}

// Clock sets the clock of the pool, its members and its suppliers.
func Clock(c clock.Clock) Option {
	return optionFunc(func(o *options) {
		o.clock = c
	})
}

// Logger sets the logger of the pool, its members and its suppliers.
func Logger(logger *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = logger
	})
}

// Meter sets the metrics scope the pool reports to.
func Meter(meter *metrics.Scope) Option {
	return optionFunc(func(o *options) {
		o.meter = meter
	})
}

// MemberOptions are passed to every member the pool creates.
func MemberOptions(opts ...reconnecting.Option) Option {
	return optionFunc(func(o *options) {
		o.memberOptions = append(o.memberOptions, opts...)
	})
}

// SupplierOptions are passed to every supplier the pool creates.
func SupplierOptions(opts ...supplier.Option) Option {
	return optionFunc(func(o *options) {
		o.supplierOptions = append(o.supplierOptions, opts...)
	})
}

func randSource(s rand.Source) Option {
	return optionFunc(func(o *options) {
		o.source = s
	})
}

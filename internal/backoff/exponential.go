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

// Package backoff provides the retry delay strategies used by broker
// discovery.
package backoff

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/netifi/netifi-go/api/backoff"
	"go.uber.org/multierr"
)

// ExponentialOption customizes an Exponential strategy.
type ExponentialOption func(*exponentialOptions)

type exponentialOptions struct {
	base, min, max time.Duration
	rand           *rand.Rand
}

func (o exponentialOptions) validate() (err error) {
	if o.base <= 0 {
		err = multierr.Append(err, errors.New("invalid base for exponential backoff, need greater than zero"))
	}
	if o.min < 0 {
		err = multierr.Append(err, errors.New("invalid min for exponential backoff, need greater than or equal to zero"))
	}
	if o.max < 0 {
		err = multierr.Append(err, errors.New("invalid max for exponential backoff, need greater than or equal to zero"))
	}
	if o.max < o.min {
		err = multierr.Append(err, errors.New("exponential max value must be greater than min value"))
	}
	return err
}

// BaseJump sets the unit that is doubled on every attempt.
func BaseJump(t time.Duration) ExponentialOption {
	return func(o *exponentialOptions) { o.base = t }
}

// MinBackoff sets the smallest delay ever returned.
func MinBackoff(t time.Duration) ExponentialOption {
	return func(o *exponentialOptions) { o.min = t }
}

// MaxBackoff sets the largest delay ever returned.
func MaxBackoff(t time.Duration) ExponentialOption {
	return func(o *exponentialOptions) { o.max = t }
}

func randGenerator(r *rand.Rand) ExponentialOption {
	return func(o *exponentialOptions) { o.rand = r }
}

// Exponential is a "full jitter" exponential backoff bounded to the closed
// interval [min, max]. Discovery polling uses it with a one second base and
// a thirty second cap.
type Exponential struct {
	opts exponentialOptions
	diff int64

	mu sync.Mutex // guards opts.rand
}

var (
	_ backoff.Strategy = (*Exponential)(nil)
	_ backoff.Backoff  = (*Exponential)(nil)
)

// NewExponential builds an Exponential strategy. The defaults are a one
// second base, no minimum and a thirty second maximum.
func NewExponential(opts ...ExponentialOption) (*Exponential, error) {
	options := exponentialOptions{
		base: time.Second,
		max:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if err := options.validate(); err != nil {
		return nil, err
	}
	if options.rand == nil {
		options.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Exponential{
		opts: options,
		diff: options.max.Nanoseconds() - options.min.Nanoseconds(),
	}, nil
}

// DefaultExponential is NewExponential with the default options.
var DefaultExponential = mustExponential()

func mustExponential(opts ...ExponentialOption) *Exponential {
	e, err := NewExponential(opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Backoff returns the strategy itself. It carries no per-caller state.
func (e *Exponential) Backoff() backoff.Backoff {
	return e
}

// Duration returns a random delay in [min, min + base*2^attempts], capped
// at max.
func (e *Exponential) Duration(attempts uint) time.Duration {
	span := int64(1<<attempts) * e.opts.base.Nanoseconds()
	// The shift overflowed or we went past the max.
	if attempts >= 63 || span > e.diff || span <= 0 {
		span = e.diff
	}

	e.mu.Lock()
	jitter := e.opts.rand.Int63n(span + 1)
	e.mu.Unlock()
	return e.opts.min + time.Duration(jitter)
}

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
	"math/rand"
	"sync"
	"time"
)

// Quantile estimates a quantile of a stream of samples.
type Quantile interface {
	Insert(x float64)
	Estimate() float64
}

// FrugalQuantile is the "Frugal-2U" streaming quantile estimator. It keeps
// a single estimate that walks toward the target quantile with an adaptive
// step, so its memory use does not grow with the stream.
type FrugalQuantile struct {
	quantile  float64
	increment float64

	mu       sync.Mutex
	rand     *rand.Rand
	estimate float64
	step     float64
	sign     int
}

var _ Quantile = (*FrugalQuantile)(nil)

// NewFrugalQuantile returns an estimator for quantile q in [0, 1].
func NewFrugalQuantile(q float64) *FrugalQuantile {
	return newFrugalQuantile(q, rand.New(rand.NewSource(time.Now().UnixNano())))
}

func newFrugalQuantile(q float64, r *rand.Rand) *FrugalQuantile {
	return &FrugalQuantile{
		quantile:  q,
		increment: 1,
		rand:      r,
		step:      1,
	}
}

// Insert adds a sample.
func (f *FrugalQuantile) Insert(x float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sign == 0 {
		f.estimate = x
		f.sign = 1
		return
	}

	v := f.rand.Float64()
	switch {
	case x > f.estimate && v > 1-f.quantile:
		f.higher(x, f.increment)
	case x < f.estimate && v > f.quantile:
		f.lower(x, f.increment)
	}
}

// Estimate returns the current estimate, or zero before the first sample.
func (f *FrugalQuantile) Estimate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.estimate
}

func (f *FrugalQuantile) higher(x, inc float64) {
	f.step += float64(f.sign) * inc
	if f.step > 0 {
		f.estimate += f.step
	} else {
		f.estimate++
	}
	if f.estimate > x {
		f.step += x - f.estimate
		f.estimate = x
	}
	if f.sign < 0 {
		f.step = 1
	}
	f.sign = 1
}

func (f *FrugalQuantile) lower(x, inc float64) {
	f.step -= float64(f.sign) * inc
	if f.step > 0 {
		f.estimate -= f.step
	} else {
		f.estimate--
	}
	if f.estimate < x {
		f.step += f.estimate - x
		f.estimate = x
	}
	if f.sign > 0 {
		f.step = 1
	}
	f.sign = -1
}

// Median is a FrugalQuantile for the 0.5 quantile that moves on every
// sample instead of sampling coin flips.
type Median struct {
	f FrugalQuantile
}

var _ Quantile = (*Median)(nil)

// NewMedian returns an empty median estimator.
func NewMedian() *Median {
	return &Median{f: FrugalQuantile{quantile: 0.5, increment: 1, step: 1}}
}

// Insert adds a sample.
func (m *Median) Insert(x float64) {
	f := &m.f
	f.mu.Lock()
	defer f.mu.Unlock()

	switch {
	case f.sign == 0:
		f.estimate = x
		f.sign = 1
	case x > f.estimate:
		f.higher(x, 1)
	case x < f.estimate:
		f.lower(x, 1)
	}
}

// Estimate returns the current median, or zero before the first sample.
func (m *Median) Estimate() float64 {
	return m.f.Estimate()
}

// Reset forgets every sample.
func (m *Median) Reset() {
	f := &m.f
	f.mu.Lock()
	f.estimate, f.step, f.sign = 0, 1, 0
	f.mu.Unlock()
}

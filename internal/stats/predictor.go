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

const (
	// StartupPenalty is the latency reported for a connection that has
	// requests in flight but has never completed one.
	StartupPenalty = float64(math.MaxInt64 >> 12)

	// DefaultInactivityFactor is the number of mean inter-arrival times a
	// connection may stay idle before its median decays toward zero.
	DefaultInactivityFactor = 500

	interArrivalHalfLife = time.Minute
	// initialInterArrival is one second in microseconds.
	initialInterArrival = 1e6
)

// Predictor estimates the latency the next request on a connection will
// see, from the median of completed request latencies and the age of the
// requests still in flight.
type Predictor struct {
	clock            clock.Clock
	inactivityFactor float64
	median           *Median
	interArrival     *EWMA

	mu       sync.Mutex
	pending  int64
	duration float64 // accumulated in-flight microseconds
	stamp    time.Time
	stamp0   time.Time
}

// NewPredictor returns an idle predictor.
func NewPredictor(clk clock.Clock, inactivityFactor float64) *Predictor {
	now := clk.Now()
	return &Predictor{
		clock:            clk,
		inactivityFactor: inactivityFactor,
		median:           NewMedian(),
		interArrival:     NewEWMA(clk, interArrivalHalfLife, initialInterArrival),
		stamp:            now,
		stamp0:           now,
	}
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}

// Start records the beginning of a request and returns its start time,
// which must be handed back to Stop.
func (p *Predictor) Start() time.Time {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.interArrival.Insert(micros(now.Sub(p.stamp)))
	p.duration += float64(max64(p.pending, 0)) * micros(now.Sub(p.stamp0))
	p.pending++
	p.stamp = now
	p.stamp0 = now
	return now
}

// Stop records the end of a request started at start.
func (p *Predictor) Stop(start time.Time) {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.duration += float64(max64(p.pending, 0))*micros(now.Sub(p.stamp0)) - micros(now.Sub(start))
	p.pending--
	p.stamp0 = now
}

// Observe feeds a completed request latency into the median.
func (p *Predictor) Observe(rtt time.Duration) {
	p.median.Insert(micros(rtt))
}

// Pending returns the number of requests in flight.
func (p *Predictor) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return int(p.pending)
}

// Latency returns the predicted latency in microseconds.
func (p *Predictor) Latency() float64 {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := math.Max(micros(now.Sub(p.stamp)), 1)
	prediction := p.median.Estimate()

	switch {
	case prediction == 0:
		if p.pending == 0 {
			return 0
		}
		return StartupPenalty + float64(p.pending)
	case p.pending == 0 && elapsed > p.inactivityFactor*p.interArrival.Value():
		// Idle for a long time: decay toward zero so the connection gets
		// probed again.
		p.median.Insert(0)
		return p.median.Estimate()
	default:
		predicted := prediction * float64(p.pending)
		instant := p.duration + micros(now.Sub(p.stamp0))*float64(p.pending)
		if predicted < instant {
			return instant / float64(p.pending)
		}
		return prediction
	}
}

// Reset forgets all history. It is called when a connection is replaced.
func (p *Predictor) Reset() {
	now := p.clock.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.median.Reset()
	p.interArrival.Reset(initialInterArrival)
	p.duration = 0
	p.stamp = now
	p.stamp0 = now
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeCandidate struct {
	availability float64
	latency      float64
	pending      int
}

func (c fakeCandidate) Availability() float64     { return c.availability }
func (c fakeCandidate) PredictedLatency() float64 { return c.latency }
func (c fakeCandidate) Pending() int              { return c.pending }

var (
	testLatencies = []float64{0, 1, 50, 999, 1e6, math.MaxInt64 >> 12}
	testPending   = []int{0, 1, 2, 10, 1000}
	testBands     = [][2]float64{{0, 0}, {10, 20}, {1000, 1000}, {500, 100}}
)

func TestWeightIsZeroWhenUnavailable(t *testing.T) {
	for _, latency := range testLatencies {
		for _, pending := range testPending {
			for _, band := range testBands {
				c := fakeCandidate{availability: 0, latency: latency, pending: pending}
				assert.Equal(t, 0.0, Weight(c, band[0], band[1]),
					"latency=%v pending=%v band=%v", latency, pending, band)
			}
		}
	}
}

func TestWeightDoesNotIncreaseWithPending(t *testing.T) {
	for _, latency := range testLatencies {
		for _, band := range testBands {
			prev := math.Inf(1)
			for pending := 0; pending < 50; pending++ {
				c := fakeCandidate{availability: 0.8, latency: latency, pending: pending}
				w := Weight(c, band[0], band[1])
				assert.True(t, w <= prev, "latency=%v band=%v pending=%v: %v > %v", latency, band, pending, w, prev)
				prev = w
			}
		}
	}
}

func TestWeight(t *testing.T) {
	tests := []struct {
		msg       string
		candidate fakeCandidate
		low, high float64
		want      float64
	}{
		{
			msg:       "idle with no history",
			candidate: fakeCandidate{availability: 1},
			want:      1,
		},
		{
			msg:       "inside the band",
			candidate: fakeCandidate{availability: 1, latency: 300, pending: 1},
			low:       200,
			high:      400,
			want:      1 / (1 + 300*2.0),
		},
		{
			msg:       "faster than the band",
			candidate: fakeCandidate{availability: 1, latency: 100},
			low:       200,
			high:      400,
			want:      1 / (1 + 100/math.Pow(1.5, 4)),
		},
		{
			msg:       "slower than the band",
			candidate: fakeCandidate{availability: 0.5, latency: 600},
			low:       200,
			high:      400,
			want:      0.5 / (1 + 600*math.Pow(2, 4)),
		},
		{
			msg:       "high quantile below low",
			candidate: fakeCandidate{availability: 1, latency: 2000},
			low:       1000,
			high:      10,
			want:      1 / (1 + 2000*math.Pow(1+(2000-1001)/1.0, 4)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := Weight(tt.candidate, tt.low, tt.high)
			assert.InDelta(t, tt.want, got, tt.want*1e-9)
		})
	}
}

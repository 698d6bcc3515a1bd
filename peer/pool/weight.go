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

import "math"

// expFactor is the exponent of the latency normalization factor.
const expFactor = 4.0

// Candidate is what member selection knows about a member.
type Candidate interface {
	Availability() float64
	PredictedLatency() float64
	Pending() int
}

// Weight scores c for member selection. Higher is better. low and high are
// the current estimates of the lower and higher latency quantiles across
// the pool.
//
// Latencies outside [low, high] are pushed further out in proportion to
// their distance from the band, so a member that is fast or slow relative
// to the rest of the pool stands out even when every member slows down.
func Weight(c Candidate, low, high float64) float64 {
	availability := c.Availability()
	if availability == 0 {
		return 0
	}

	high = math.Max(high, low*1.001)
	bandwidth := math.Max(high-low, 1)

	latency := c.PredictedLatency()
	if latency < low {
		latency /= factor(low, latency, bandwidth)
	} else if latency > high {
		latency *= factor(latency, high, bandwidth)
	}

	return availability / (1 + latency*float64(c.Pending()+1))
}

func factor(u, l, bandwidth float64) float64 {
	return math.Pow(1+(u-l)/bandwidth, expFactor)
}

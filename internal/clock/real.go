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

package clock

import "time"

// RealClock implements Clock by wrapping the time package functions.
type RealClock struct{}

// NewReal returns a real clock.
func NewReal() RealClock {
	return RealClock{}
}

var _ Clock = RealClock{}

// After waits for the duration to elapse and then sends the current time on
// the returned channel.
func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// AfterFunc waits for the duration to elapse and then calls f in its own
// goroutine.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return &realTimer{t: time.AfterFunc(d, f)}
}

// Now returns the current local time.
func (RealClock) Now() time.Time { return time.Now() }

// Sleep pauses the current goroutine for at least the duration d.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }

// Timer returns a Timer that will send the current time on its channel after
// at least duration d.
func (RealClock) Timer(d time.Duration) Timer {
	return &realTimer{t: time.NewTimer(d)}
}

// Ticker returns a Ticker that sends the time on its channel every d.
func (RealClock) Ticker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

type realTimer struct {
	t *time.Timer
}

func (t *realTimer) Stop() bool                 { return t.t.Stop() }
func (t *realTimer) Reset(d time.Duration) bool { return t.t.Reset(d) }
func (t *realTimer) C() <-chan time.Time        { return t.t.C }

type realTicker struct {
	t *time.Ticker
}

func (t realTicker) Stop()               { t.t.Stop() }
func (t realTicker) C() <-chan time.Time { return t.t.C }

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

import (
	"container/heap"
	"runtime"
	"sync"
	"time"
)

// FakeClock is a Clock that only moves when told to. Timers and tickers fire
// synchronously, in deadline order, while the clock is advanced.
type FakeClock struct {
	mu      sync.Mutex
	changed *sync.Cond
	now     time.Time
	timers  timers
}

var _ Clock = (*FakeClock)(nil)

// NewFake returns a FakeClock set to the Unix epoch.
func NewFake() *FakeClock {
	fc := &FakeClock{now: time.Unix(0, 0)}
	fc.changed = sync.NewCond(&fc.mu)
	return fc
}

// Add advances the clock by d, firing every timer that falls due.
func (fc *FakeClock) Add(d time.Duration) {
	fc.mu.Lock()
	end := fc.now.Add(d)
	fc.mu.Unlock()
	fc.Set(end)
}

// Set advances the clock to end. Setting a time in the past fires nothing.
func (fc *FakeClock) Set(end time.Time) {
	fc.mu.Lock()
	for len(fc.timers) > 0 && !fc.timers[0].when.After(end) {
		t := fc.timers[0]
		at := t.when
		if t.period > 0 {
			t.when = t.when.Add(t.period)
			heap.Fix(&fc.timers, 0)
		} else {
			heap.Pop(&fc.timers)
		}
		if fc.now.Before(at) {
			fc.now = at
		}
		fc.mu.Unlock()
		t.fire(at)
		fc.mu.Lock()
	}
	if fc.now.Before(end) {
		fc.now = end
	}
	fc.mu.Unlock()
	nap()
}

// Now returns the fake current time.
func (fc *FakeClock) Now() time.Time {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.now
}

// Timers returns the number of timers and tickers waiting to fire.
func (fc *FakeClock) Timers() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return len(fc.timers)
}

// BlockUntil waits until at least n timers or tickers are waiting to fire.
// Tests use it to make sure a background goroutine is parked on the clock
// before advancing it.
func (fc *FakeClock) BlockUntil(n int) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	for len(fc.timers) < n {
		fc.changed.Wait()
	}
}

// FakeTimer returns a timer firing after d.
func (fc *FakeClock) FakeTimer(d time.Duration) *FakeTimer {
	t := &FakeTimer{clock: fc, c: make(chan time.Time, 1), index: -1}
	fc.schedule(t, d)
	return t
}

// Timer returns a timer firing after d.
func (fc *FakeClock) Timer(d time.Duration) Timer {
	return fc.FakeTimer(d)
}

// After returns a channel that receives the fake time once d has elapsed.
func (fc *FakeClock) After(d time.Duration) <-chan time.Time {
	return fc.Timer(d).C()
}

// AfterFunc calls f in its own goroutine once d has elapsed.
func (fc *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	t := &FakeTimer{clock: fc, c: make(chan time.Time, 1), fn: f, index: -1}
	fc.schedule(t, d)
	return t
}

// Ticker returns a ticker firing every d.
func (fc *FakeClock) Ticker(d time.Duration) Ticker {
	if d <= 0 {
		panic("non-positive interval for clock.Ticker")
	}
	t := &FakeTimer{clock: fc, c: make(chan time.Time, 1), period: d, index: -1}
	fc.schedule(t, d)
	return fakeTicker{t}
}

// Sleep blocks until the clock has been advanced by d.
func (fc *FakeClock) Sleep(d time.Duration) {
	<-fc.After(d)
}

func (fc *FakeClock) schedule(t *FakeTimer, d time.Duration) {
	fc.mu.Lock()
	t.when = fc.now.Add(d)
	due := d <= 0
	if !due {
		heap.Push(&fc.timers, t)
		fc.changed.Broadcast()
	}
	now := fc.now
	fc.mu.Unlock()

	if due {
		t.fire(now)
	}
}

// FakeTimer is a Timer driven by a FakeClock.
type FakeTimer struct {
	clock  *FakeClock
	c      chan time.Time
	fn     func()
	when   time.Time
	period time.Duration
	index  int
}

// C returns the channel on which the fake time is delivered.
func (t *FakeTimer) C() <-chan time.Time {
	return t.c
}

// Stop prevents the timer from firing. It returns false if the timer had
// already fired or been stopped.
func (t *FakeTimer) Stop() bool {
	fc := t.clock
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if t.index < 0 {
		return false
	}
	heap.Remove(&fc.timers, t.index)
	return true
}

// Reset changes the timer to fire after d. It returns true if the timer was
// still pending.
func (t *FakeTimer) Reset(d time.Duration) bool {
	fc := t.clock
	fc.mu.Lock()
	select {
	case <-t.c:
	default:
	}
	active := t.index >= 0
	if active {
		heap.Remove(&fc.timers, t.index)
	}
	fc.mu.Unlock()

	fc.schedule(t, d)
	return active
}

func (t *FakeTimer) fire(at time.Time) {
	if t.fn != nil {
		go t.fn()
		return
	}
	select {
	case t.c <- at:
	default:
	}
	nap()
}

type fakeTicker struct {
	t *FakeTimer
}

func (t fakeTicker) C() <-chan time.Time { return t.t.C() }
func (t fakeTicker) Stop()               { t.t.Stop() }

func nap() {
	runtime.Gosched()
}

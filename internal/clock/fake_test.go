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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClockAdd(t *testing.T) {
	clock := NewFake()
	start := clock.Now()
	clock.Add(time.Second)
	assert.Equal(t, time.Second, Since(clock, start))
}

func TestFakeClockSetBackwardsIsIgnored(t *testing.T) {
	clock := NewFake()
	clock.Set(time.Unix(100, 0))
	clock.Set(time.Unix(50, 0))
	assert.Equal(t, time.Unix(100, 0), clock.Now())
}

func TestFakeClockAfter(t *testing.T) {
	clock := NewFake()
	start := clock.Now()
	then := clock.After(time.Second)

	clock.Add(999 * time.Millisecond)
	select {
	case <-then:
		t.Fatal("fired early")
	default:
	}

	clock.Add(time.Millisecond)
	select {
	case got := <-then:
		assert.Equal(t, start.Add(time.Second), got)
	default:
		t.Fatal("did not fire")
	}
}

func TestFakeClockSleep(t *testing.T) {
	clock := NewFake()
	done := make(chan struct{})
	go func() {
		clock.Sleep(time.Second)
		close(done)
	}()

	clock.BlockUntil(1)
	clock.Add(time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		assert.Fail(t, "test timed out")
	}
}

func TestFakeAfterFunc(t *testing.T) {
	clock := NewFake()
	start := clock.Now()
	done := make(chan struct{})
	clock.AfterFunc(time.Second, func() {
		assert.False(t, clock.Now().Before(start.Add(time.Second)), "should be called after one second")
		close(done)
	})
	clock.Add(time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		assert.Fail(t, "test timed out")
	}
}

func TestFakeTimerStop(t *testing.T) {
	clock := NewFake()
	timer := clock.Timer(60 * time.Second)
	assert.Equal(t, 1, clock.Timers())
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	assert.Equal(t, 0, clock.Timers())
}

func TestFakeTimerReset(t *testing.T) {
	clock := NewFake()
	timer := clock.Timer(60 * time.Second)
	assert.True(t, timer.Reset(time.Second))
	assert.True(t, timer.Stop())
	assert.False(t, timer.Reset(time.Second))

	clock.Add(time.Second)
	select {
	case <-timer.C():
	default:
		t.Fatal("did not fire after reset")
	}
}

func TestFakeTimersFireInOrder(t *testing.T) {
	clock := NewFake()
	var fired []time.Duration
	late := clock.Timer(3 * time.Second)
	early := clock.Timer(time.Second)

	clock.Add(5 * time.Second)
	for _, tm := range []Timer{early, late} {
		select {
		case at := <-tm.C():
			fired = append(fired, at.Sub(time.Unix(0, 0)))
		default:
		}
	}
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, fired)
}

func TestFakeTicker(t *testing.T) {
	clock := NewFake()
	ticker := clock.Ticker(time.Second)
	defer ticker.Stop()

	for i := 1; i <= 3; i++ {
		clock.Add(time.Second)
		select {
		case at := <-ticker.C():
			assert.Equal(t, time.Unix(int64(i), 0), at)
		default:
			t.Fatalf("tick %d missing", i)
		}
	}

	ticker.Stop()
	clock.Add(time.Second)
	select {
	case <-ticker.C():
		t.Fatal("stopped ticker fired")
	default:
	}
	require.Equal(t, 0, clock.Timers())
}

func TestFakeTickerPanicsOnZeroInterval(t *testing.T) {
	assert.Panics(t, func() { NewFake().Ticker(0) })
}

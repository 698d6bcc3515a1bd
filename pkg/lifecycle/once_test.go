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

package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/netifi/netifi-go/brokererrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestStartRunsOnce(t *testing.T) {
	once := NewOnce()
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, once.Start(func() error {
				calls.Inc()
				return nil
			}))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, once.IsRunning())
	assert.Equal(t, "running", once.State().String())
}

func TestStartErrorIsTerminal(t *testing.T) {
	once := NewOnce()
	wantErr := errors.New("dial failed")

	assert.Equal(t, wantErr, once.Start(func() error { return wantErr }))
	assert.Equal(t, wantErr, once.Start(nil))
	assert.Equal(t, Errored, once.State())

	select {
	case <-once.Stopped():
	default:
		t.Fatal("stopped channel should be closed after a failed start")
	}
}

func TestStopBeforeStart(t *testing.T) {
	once := NewOnce()
	require.NoError(t, once.Stop(func() error {
		t.Fatal("stop function must not run when never started")
		return nil
	}))
	assert.NoError(t, once.Start(func() error {
		t.Fatal("start function must not run after stop")
		return nil
	}))
	assert.Equal(t, Stopped, once.State())
}

func TestStopRunsOnce(t *testing.T) {
	once := NewOnce()
	require.NoError(t, once.Start(nil))

	wantErr := errors.New("close failed")
	var calls atomic.Int32
	stop := func() error {
		calls.Inc()
		return wantErr
	}

	assert.Equal(t, wantErr, once.Stop(stop))
	assert.Equal(t, wantErr, once.Stop(stop))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, Errored, once.State())
}

func TestWaitUntilRunning(t *testing.T) {
	t.Run("already running", func(t *testing.T) {
		once := NewOnce()
		require.NoError(t, once.Start(nil))
		assert.NoError(t, once.WaitUntilRunning(context.Background()))
	})

	t.Run("eventually running", func(t *testing.T) {
		once := NewOnce()
		go func() { _ = once.Start(nil) }()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, once.WaitUntilRunning(ctx))
	})

	t.Run("stopped", func(t *testing.T) {
		once := NewOnce()
		require.NoError(t, once.Stop(nil))
		err := once.WaitUntilRunning(context.Background())
		assert.True(t, brokererrors.IsFailedPrecondition(err))
	})

	t.Run("context ends", func(t *testing.T) {
		once := NewOnce()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := once.WaitUntilRunning(ctx)
		assert.Equal(t, brokererrors.CodeCancelled, brokererrors.FromError(err).Code())
	})
}

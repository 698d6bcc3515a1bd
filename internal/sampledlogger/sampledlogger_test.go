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

package sampledlogger

import (
	"testing"
	"time"

	"github.com/netifi/netifi-go/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSampledLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := clock.NewFake()
	c.Add(time.Hour)
	sl := NewWithInterval(zap.New(core), time.Second, c)

	sl.Warn("bad frame", zap.Int("n", 1))
	sl.Warn("bad frame", zap.Int("n", 2))
	sl.Warn("bad frame", zap.Int("n", 3))
	require.Equal(t, 1, logs.Len())

	c.Add(time.Second)
	sl.Error("bad frame", zap.Int("n", 4))

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, int64(1), entries[0].ContextMap()["n"])
	_, ok := entries[0].ContextMap()["suppressed"]
	assert.False(t, ok)

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, int64(4), entries[1].ContextMap()["n"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["suppressed"])
}

func TestSampledLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c := clock.NewFake()
	c.Add(time.Hour)
	sl := NewWithInterval(zap.New(core), time.Millisecond, c)

	sl.Debug("hidden")
	c.Add(time.Second)
	sl.Info("shown")

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	assert.Equal(t, "shown", entries[0].Message)
}

func TestNewNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		NewWithInterval(nil, time.Second, clock.NewFake()).Warn("nothing")
	})
	assert.Equal(t, DefaultInterval, New(zap.NewNop()).interval)
}

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

// Package sampledlogger limits how often a noisy message is logged.
//
// Peers that send garbage or brokers that refuse connections in a loop can
// produce the same warning thousands of times a second. A SampledLogger logs
// the first occurrence and then at most one entry per interval, reporting
// how many entries were dropped in between.
package sampledlogger

import (
	"time"

	"github.com/netifi/netifi-go/internal/clock"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultInterval is the interval used by New.
const DefaultInterval = time.Minute

// SampledLogger logs at most one entry per interval.
type SampledLogger struct {
	logger   *zap.Logger
	interval time.Duration
	clock    clock.Clock

	last       atomic.Int64 // unix nanos of the last logged entry, 0 if none
	suppressed atomic.Int64
}

// New returns a SampledLogger that logs to logger at most once a minute.
func New(logger *zap.Logger) *SampledLogger {
	return NewWithInterval(logger, DefaultInterval, clock.NewReal())
}

// NewWithInterval returns a SampledLogger with the given interval and
// clock.
func NewWithInterval(logger *zap.Logger, interval time.Duration, c clock.Clock) *SampledLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SampledLogger{logger: logger, interval: interval, clock: c}
}

func (sl *SampledLogger) log(level zapcore.Level, msg string, fields []zap.Field) {
	now := sl.clock.Now().UnixNano()
	last := sl.last.Load()
	if last != 0 && time.Duration(now-last) < sl.interval {
		sl.suppressed.Inc()
		return
	}
	if !sl.last.CAS(last, now) {
		sl.suppressed.Inc()
		return
	}

	if n := sl.suppressed.Swap(0); n > 0 {
		fields = append(fields, zap.Int64("suppressed", n))
	}
	if ce := sl.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

// Debug logs a debug message unless one was logged within the interval.
func (sl *SampledLogger) Debug(msg string, fields ...zap.Field) {
	sl.log(zapcore.DebugLevel, msg, fields)
}

// Info logs an info message unless one was logged within the interval.
func (sl *SampledLogger) Info(msg string, fields ...zap.Field) {
	sl.log(zapcore.InfoLevel, msg, fields)
}

// Warn logs a warning unless one was logged within the interval.
func (sl *SampledLogger) Warn(msg string, fields ...zap.Field) {
	sl.log(zapcore.WarnLevel, msg, fields)
}

// Error logs an error unless one was logged within the interval.
func (sl *SampledLogger) Error(msg string, fields ...zap.Field) {
	sl.log(zapcore.ErrorLevel, msg, fields)
}

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

package tcp

import (
	"time"

	"github.com/netifi/netifi-go/api/transport"
	"go.uber.org/zap"
)

const (
	// DefaultKeepAlive is the TCP keep-alive period of dialed connections.
	DefaultKeepAlive = 30 * time.Second

	// DefaultMaxFrameSize bounds the size of a single frame.
	DefaultMaxFrameSize = 16 << 20
)

type options struct {
	keepAlive    time.Duration
	maxFrameSize int
	handler      transport.Handler
	logger       *zap.Logger
}

var defaultOptions = options{
	keepAlive:    DefaultKeepAlive,
	maxFrameSize: DefaultMaxFrameSize,
}

// Option customizes a Transport or an Inbound.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// KeepAlive sets the TCP keep-alive period. Negative values disable it.
//
// Defaults to 30 seconds.
func KeepAlive(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.keepAlive = d
	})
}

// MaxFrameSize sets the largest frame that will be read or written.
func MaxFrameSize(n int) Option {
	return optionFunc(func(o *options) {
		o.maxFrameSize = n
	})
}

// Handler serves requests that the broker opens on dialed connections, or
// that clients open on accepted connections.
func Handler(h transport.Handler) Option {
	return optionFunc(func(o *options) {
		o.handler = h
	})
}

// Logger sets the logger.
func Logger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

func newOptions(opts []Option) options {
	o := defaultOptions
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.handler == nil {
		o.handler = transport.UnimplementedHandler{}
	}
	return o
}

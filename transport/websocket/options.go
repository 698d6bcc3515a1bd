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

package websocket

import (
	"net/http"
	"time"

	"github.com/netifi/netifi-go/api/transport"
	"go.uber.org/zap"
)

// DefaultHandshakeTimeout bounds the websocket handshake of Dial.
const DefaultHandshakeTimeout = 10 * time.Second

type options struct {
	path             string
	header           http.Header
	handshakeTimeout time.Duration
	handler          transport.Handler
	logger           *zap.Logger
}

var defaultOptions = options{
	path:             "/",
	handshakeTimeout: DefaultHandshakeTimeout,
}

// Option customizes a Transport or an Inbound.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// Path sets the HTTP path dialed when the address has none.
//
// Defaults to "/".
func Path(p string) Option {
	return optionFunc(func(o *options) {
		o.path = p
	})
}

// Header adds HTTP headers to the websocket handshake.
func Header(h http.Header) Option {
	return optionFunc(func(o *options) {
		o.header = h
	})
}

// HandshakeTimeout bounds the websocket handshake.
func HandshakeTimeout(d time.Duration) Option {
	return optionFunc(func(o *options) {
		o.handshakeTimeout = d
	})
}

// Handler serves requests that the peer opens on the session.
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

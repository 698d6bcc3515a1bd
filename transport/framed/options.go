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

package framed

import (
	"github.com/netifi/netifi-go/api/transport"
	"go.uber.org/zap"
)

type options struct {
	handler transport.Handler
	logger  *zap.Logger
}

var defaultOptions = options{
	handler: transport.UnimplementedHandler{},
}

// Option customizes a Session.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// Handler serves requests that the peer opens on the session.
//
// Defaults to a handler that rejects every request as unimplemented.
func Handler(h transport.Handler) Option {
	return optionFunc(func(o *options) {
		o.handler = h
	})
}

// Logger sets the logger of the session.
func Logger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

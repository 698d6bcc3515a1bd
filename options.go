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

package netifi

import (
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/discovery"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

type options struct {
	logger    *zap.Logger
	tracer    opentracing.Tracer
	meter     *metrics.Scope
	scope     tally.Scope
	transport transport.Transport
	handler   transport.Handler
	feed      discovery.Feed
	strategy  discovery.Strategy
}

// Option customizes a Client.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// Logger sets the logger of the client and everything it creates.
func Logger(l *zap.Logger) Option {
	return optionFunc(func(o *options) {
		o.logger = l
	})
}

// Tracer sets the tracer of routed sockets.
//
// Defaults to opentracing.GlobalTracer().
func Tracer(t opentracing.Tracer) Option {
	return optionFunc(func(o *options) {
		o.tracer = t
	})
}

// Meter sets the metrics scope the connection pool reports to.
func Meter(m *metrics.Scope) Option {
	return optionFunc(func(o *options) {
		o.meter = m
	})
}

// Scope sets the tally scope discovery reports to.
func Scope(s tally.Scope) Option {
	return optionFunc(func(o *options) {
		o.scope = s
	})
}

// Transport replaces the transport selected by Config.Transport. Requests
// that brokers open on its connections are the transport's concern, so
// Handler has no effect on it.
func Transport(t transport.Transport) Option {
	return optionFunc(func(o *options) {
		o.transport = t
	})
}

// Handler serves requests that brokers route to this client. Routing
// frames are removed from their metadata first.
func Handler(h transport.Handler) Option {
	return optionFunc(func(o *options) {
		o.handler = h
	})
}

// Feed follows broker membership from a push feed instead of the
// configured discovery.
func Feed(f discovery.Feed) Option {
	return optionFunc(func(o *options) {
		o.feed = f
	})
}

// Strategy polls broker membership from a strategy instead of the
// configured discovery.
func Strategy(s discovery.Strategy) Option {
	return optionFunc(func(o *options) {
		o.strategy = s
	})
}

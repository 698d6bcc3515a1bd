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
	"context"
	"net"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/transport/framed"
	"go.uber.org/zap"
)

var _ transport.Transport = (*Transport)(nil)

// Transport dials brokers over TCP.
type Transport struct {
	opts   options
	dialer net.Dialer
}

// NewTransport returns a new TCP Transport.
func NewTransport(opts ...Option) *Transport {
	o := newOptions(opts)
	return &Transport{
		opts:   o,
		dialer: net.Dialer{KeepAlive: o.keepAlive},
	}
}

// Dial connects to addr and sends setup as the first frame.
func (t *Transport) Dial(ctx context.Context, addr string, setup transport.Payload) (transport.Conn, error) {
	c, err := t.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, brokererrors.CancelledErrorf("dial %q: %v", addr, ctx.Err())
		}
		return nil, brokererrors.Wrapf(brokererrors.CodeUnavailable, err, "dial %q", addr)
	}

	logger := t.opts.logger.With(zap.String("addr", addr))
	s, err := framed.Client(
		newFrameConn(c, t.opts.maxFrameSize),
		setup,
		framed.Handler(t.opts.handler),
		framed.Logger(logger),
	)
	if err != nil {
		return nil, err
	}
	logger.Debug("connected")
	return s, nil
}

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
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/transport/framed"
	"go.uber.org/zap"
)

var _ transport.Transport = (*Transport)(nil)

// Transport dials brokers over websockets.
type Transport struct {
	opts   options
	dialer *websocket.Dialer
}

// NewTransport returns a new websocket Transport.
func NewTransport(opts ...Option) *Transport {
	o := newOptions(opts)
	return &Transport{
		opts: o,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.handshakeTimeout,
		},
	}
}

// Dial opens a websocket to addr and sends setup as the first frame. addr
// is either host:port or a ws:// or wss:// URL.
func (t *Transport) Dial(ctx context.Context, addr string, setup transport.Payload) (transport.Conn, error) {
	u := t.url(addr)
	conn, _, err := t.dialer.DialContext(ctx, u, t.opts.header)
	if err != nil {
		if ctx.Err() != nil {
			return nil, brokererrors.CancelledErrorf("dial %q: %v", u, ctx.Err())
		}
		return nil, brokererrors.Wrapf(brokererrors.CodeUnavailable, err, "dial %q", u)
	}

	logger := t.opts.logger.With(zap.String("url", u))
	s, err := framed.Client(
		frameConn{conn: conn},
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

func (t *Transport) url(addr string) string {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return addr
	}
	path := t.opts.path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + addr + path
}

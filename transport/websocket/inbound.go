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
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/pkg/lifecycle"
	"github.com/netifi/netifi-go/transport/framed"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AcceptFunc is called with every session accepted by an Inbound and the
// setup payload the peer sent.
type AcceptFunc func(s *framed.Session, setup transport.Payload)

// Inbound serves framed sessions over websockets on a listener.
type Inbound struct {
	once     *lifecycle.Once
	opts     options
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader
	onAccept AcceptFunc

	lock     sync.Mutex
	sessions map[*framed.Session]struct{}
}

var _ http.Handler = (*Inbound)(nil)

// NewInbound returns an Inbound for listener. onAccept may be nil.
func NewInbound(listener net.Listener, onAccept AcceptFunc, opts ...Option) *Inbound {
	i := &Inbound{
		once:     lifecycle.NewOnce(),
		opts:     newOptions(opts),
		listener: listener,
		onAccept: onAccept,
		sessions: make(map[*framed.Session]struct{}),
	}
	i.server = &http.Server{Handler: i}
	return i
}

// Addr returns the address the inbound listens on.
func (i *Inbound) Addr() net.Addr {
	return i.listener.Addr()
}

// Start starts serving websocket upgrades.
func (i *Inbound) Start() error {
	return i.once.Start(func() error {
		go func() {
			if err := i.server.Serve(i.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				i.opts.logger.Error("websocket server stopped", zap.Error(err))
			}
		}()
		return nil
	})
}

// Stop stops the HTTP server and closes every accepted session.
func (i *Inbound) Stop() error {
	return i.once.Stop(func() error {
		err := i.server.Close()

		i.lock.Lock()
		sessions := i.sessions
		i.sessions = nil
		i.lock.Unlock()

		for s := range sessions {
			err = multierr.Append(err, s.Close())
		}
		return err
	})
}

// IsRunning returns whether the inbound is serving.
func (i *Inbound) IsRunning() bool {
	return i.once.IsRunning()
}

// ServeHTTP upgrades the request and serves a framed session on it.
func (i *Inbound) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := i.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		i.opts.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	logger := i.opts.logger.With(zap.String("remote", r.RemoteAddr))
	go func() {
		s, setup, err := framed.Server(
			frameConn{conn: conn},
			framed.Handler(i.opts.handler),
			framed.Logger(logger),
		)
		if err != nil {
			logger.Warn("rejected connection", zap.Error(err))
			return
		}

		i.lock.Lock()
		if i.sessions == nil {
			i.lock.Unlock()
			_ = s.Close()
			return
		}
		i.sessions[s] = struct{}{}
		i.lock.Unlock()

		if i.onAccept != nil {
			i.onAccept(s, setup)
		}
		<-s.Done()

		i.lock.Lock()
		if i.sessions != nil {
			delete(i.sessions, s)
		}
		i.lock.Unlock()
	}()
}

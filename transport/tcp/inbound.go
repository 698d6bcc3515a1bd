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
	"errors"
	"net"
	"sync"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/pkg/lifecycle"
	"github.com/netifi/netifi-go/transport/framed"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AcceptFunc is called with every session accepted by an Inbound and the
// setup payload the peer sent.
type AcceptFunc func(s *framed.Session, setup transport.Payload)

// Inbound accepts framed sessions on a listener. Requests opened by peers
// are served by the Handler option.
type Inbound struct {
	once     *lifecycle.Once
	opts     options
	listener net.Listener
	onAccept AcceptFunc

	lock  sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewInbound returns an Inbound for listener. onAccept may be nil.
func NewInbound(listener net.Listener, onAccept AcceptFunc, opts ...Option) *Inbound {
	return &Inbound{
		once:     lifecycle.NewOnce(),
		opts:     newOptions(opts),
		listener: listener,
		onAccept: onAccept,
		conns:    make(map[net.Conn]struct{}),
	}
}

// Addr returns the address the inbound listens on.
func (i *Inbound) Addr() net.Addr {
	return i.listener.Addr()
}

// Start starts accepting connections.
func (i *Inbound) Start() error {
	return i.once.Start(func() error {
		i.wg.Add(1)
		go i.serve()
		return nil
	})
}

// Stop closes the listener and every accepted connection.
func (i *Inbound) Stop() error {
	return i.once.Stop(func() error {
		err := i.listener.Close()

		i.lock.Lock()
		conns := i.conns
		i.conns = nil
		i.lock.Unlock()

		for c := range conns {
			if cerr := c.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = multierr.Append(err, cerr)
			}
		}
		i.wg.Wait()
		return err
	})
}

// IsRunning returns whether the inbound is accepting connections.
func (i *Inbound) IsRunning() bool {
	return i.once.IsRunning()
}

func (i *Inbound) serve() {
	defer i.wg.Done()
	for {
		c, err := i.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				i.opts.logger.Error("failed to accept connection", zap.Error(err))
			}
			return
		}
		i.lock.Lock()
		if i.conns == nil {
			i.lock.Unlock()
			_ = c.Close()
			return
		}
		i.conns[c] = struct{}{}
		i.lock.Unlock()

		i.wg.Add(1)
		go i.accept(c)
	}
}

func (i *Inbound) accept(c net.Conn) {
	defer i.wg.Done()

	logger := i.opts.logger.With(zap.Stringer("remote", c.RemoteAddr()))
	s, setup, err := framed.Server(
		newFrameConn(c, i.opts.maxFrameSize),
		framed.Handler(i.opts.handler),
		framed.Logger(logger),
	)
	if err != nil {
		logger.Warn("rejected connection", zap.Error(err))
		i.forget(c)
		return
	}

	if i.onAccept != nil {
		i.onAccept(s, setup)
	}
	<-s.Done()
	i.forget(c)
}

func (i *Inbound) forget(c net.Conn) {
	i.lock.Lock()
	defer i.lock.Unlock()
	if i.conns != nil {
		delete(i.conns, c)
	}
}

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

package brokertest

import (
	"context"
	"io"
	"sync"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
)

// pipe is an unbounded in-memory stream. Send never blocks.
type pipe struct {
	mu     sync.Mutex
	queue  []transport.Payload
	err    error
	closed bool
	notify chan struct{}
}

var (
	_ transport.Stream = (*pipe)(nil)
	_ transport.Sender = (*pipe)(nil)
)

func newPipe() *pipe {
	return &pipe{notify: make(chan struct{}, 1)}
}

func (p *pipe) signal() {
	select {
	case p.notify <- struct{}{}:
	default:
	}
}

func (p *pipe) Send(ctx context.Context, payload transport.Payload) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return brokererrors.CancelledErrorf("stream is closed")
	}
	p.queue = append(p.queue, payload)
	p.signal()
	return nil
}

// closeWithError ends the stream. A nil err completes it normally.
func (p *pipe) closeWithError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	if err == nil {
		err = io.EOF
	}
	p.err = err
	p.signal()
}

func (p *pipe) Recv(ctx context.Context) (transport.Payload, error) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			payload := p.queue[0]
			p.queue = p.queue[1:]
			p.mu.Unlock()
			return payload, nil
		}
		if p.closed {
			err := p.err
			p.mu.Unlock()
			return transport.Payload{}, err
		}
		p.mu.Unlock()

		select {
		case <-p.notify:
		case <-ctx.Done():
			return transport.Payload{}, ctx.Err()
		}
	}
}

// Close cancels the stream from the receiving side.
func (p *pipe) Close() error {
	p.closeWithError(brokererrors.CancelledErrorf("stream cancelled"))
	return nil
}

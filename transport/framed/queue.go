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
	"context"
	"io"
	"sync"

	"github.com/netifi/netifi-go/api/transport"
)

// queue buffers the payloads of one stream until they are received.
// push never blocks the read loop.
type queue struct {
	mu     sync.Mutex
	items  []transport.Payload
	err    error
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue) push(p transport.Payload) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return
	}
	q.items = append(q.items, p)
	q.signal()
}

// finish ends the queue after its buffered payloads. A nil err means the
// stream completed.
func (q *queue) finish(err error) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return false
	}
	if err == nil {
		err = io.EOF
	}
	q.err = err
	q.signal()
	return true
}

func (q *queue) finished() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.err != nil
}

// Recv returns the next payload, or the terminal error once the buffer is
// drained.
func (q *queue) Recv(ctx context.Context) (transport.Payload, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			p := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return p, nil
		}
		if err := q.err; err != nil {
			q.mu.Unlock()
			return transport.Payload{}, err
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return transport.Payload{}, ctx.Err()
		}
	}
}

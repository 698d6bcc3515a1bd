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

package transport

import "context"

//go:generate mockgen -destination=transporttest/mocks.go -package=transporttest github.com/netifi/netifi-go/api/transport Transport,Conn,Stream,Channel

// Transport opens connections to brokers.
type Transport interface {
	// Dial connects to addr and sends setup as the first frame on the new
	// connection. It blocks until the connection is established or ctx ends.
	Dial(ctx context.Context, addr string, setup Payload) (Conn, error)
}

// Conn is an established, multiplexed connection to a broker.
type Conn interface {
	// FireAndForget sends a request that has no response.
	FireAndForget(ctx context.Context, p Payload) error

	// RequestResponse sends a request and waits for its single response.
	RequestResponse(ctx context.Context, p Payload) (Payload, error)

	// RequestStream sends a request and returns the stream of responses.
	RequestStream(ctx context.Context, p Payload) (Stream, error)

	// RequestChannel opens a bidirectional stream whose first message is p.
	RequestChannel(ctx context.Context, p Payload) (Channel, error)

	// KeepAlive sends a keep-alive frame and waits for the peer to echo it.
	KeepAlive(ctx context.Context) error

	// Availability is between 0 and 1. Zero means the connection cannot take
	// requests.
	Availability() float64

	// Done is closed once the connection is closed, by either side.
	Done() <-chan struct{}

	// Close closes the connection. It is safe to call more than once.
	Close() error
}

// Stream is the receiving half of a streamed response.
type Stream interface {
	// Recv returns the next payload, or io.EOF once the peer completed the
	// stream.
	Recv(ctx context.Context) (Payload, error)

	// Close cancels the stream. It is safe to call after io.EOF.
	Close() error
}

// Sender is the sending half of a stream.
type Sender interface {
	Send(ctx context.Context, p Payload) error
}

// Channel is a bidirectional stream.
type Channel interface {
	Stream
	Sender

	// CloseSend tells the peer no more payloads will be sent.
	CloseSend() error
}

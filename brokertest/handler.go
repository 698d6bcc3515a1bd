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
	"errors"
	"io"

	"github.com/netifi/netifi-go/api/transport"
)

// EchoHandler answers every request with the request itself. Streams echo
// the request three times, channels echo every inbound payload.
type EchoHandler struct{}

var _ transport.Handler = EchoHandler{}

// FireAndForget does nothing.
func (EchoHandler) FireAndForget(context.Context, transport.Payload) {}

// RequestResponse returns p.
func (EchoHandler) RequestResponse(_ context.Context, p transport.Payload) (transport.Payload, error) {
	return p, nil
}

// RequestStream sends p three times.
func (EchoHandler) RequestStream(ctx context.Context, p transport.Payload, out transport.Sender) error {
	for i := 0; i < 3; i++ {
		if err := out.Send(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// RequestChannel sends back p and then every payload received on in.
func (EchoHandler) RequestChannel(ctx context.Context, p transport.Payload, in transport.Stream, out transport.Sender) error {
	if err := out.Send(ctx, p); err != nil {
		return err
	}
	for {
		next, err := in.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := out.Send(ctx, next); err != nil {
			return err
		}
	}
}

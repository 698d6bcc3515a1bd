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

import (
	"context"

	"github.com/netifi/netifi-go/brokererrors"
)

// Handler serves requests that a broker routes to this client.
type Handler interface {
	FireAndForget(ctx context.Context, p Payload)
	RequestResponse(ctx context.Context, p Payload) (Payload, error)

	// RequestStream sends responses on out and returns when the stream is
	// complete.
	RequestStream(ctx context.Context, p Payload, out Sender) error

	// RequestChannel reads from in and writes to out. The first payload of
	// the channel is p.
	RequestChannel(ctx context.Context, p Payload, in Stream, out Sender) error
}

// UnimplementedHandler rejects every request. Embed it to serve only some
// interaction models.
type UnimplementedHandler struct{}

var _ Handler = UnimplementedHandler{}

// FireAndForget drops the request.
func (UnimplementedHandler) FireAndForget(context.Context, Payload) {}

// RequestResponse fails with CodeUnimplemented.
func (UnimplementedHandler) RequestResponse(context.Context, Payload) (Payload, error) {
	return Payload{}, brokererrors.UnimplementedErrorf("request/response is not implemented")
}

// RequestStream fails with CodeUnimplemented.
func (UnimplementedHandler) RequestStream(context.Context, Payload, Sender) error {
	return brokererrors.UnimplementedErrorf("request/stream is not implemented")
}

// RequestChannel fails with CodeUnimplemented.
func (UnimplementedHandler) RequestChannel(context.Context, Payload, Stream, Sender) error {
	return brokererrors.UnimplementedErrorf("request/channel is not implemented")
}

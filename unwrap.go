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
	"context"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/frames"
	"go.uber.org/zap"
)

// unwrappingHandler strips routing frames from the metadata of requests
// brokers forward to this client before passing them to the application.
type unwrappingHandler struct {
	h      transport.Handler
	logger *zap.Logger
}

var _ transport.Handler = (*unwrappingHandler)(nil)

// NewUnwrappingHandler wraps h so that it sees the application metadata of
// every inbound payload, including the payloads of a channel's inbound
// stream, instead of the routing frame brokers deliver.
func NewUnwrappingHandler(h transport.Handler, logger *zap.Logger) transport.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &unwrappingHandler{h: h, logger: logger}
}

func unwrap(p transport.Payload) (transport.Payload, error) {
	if len(p.Metadata) == 0 {
		return p, nil
	}
	md, err := frames.Unwrap(p.Metadata)
	if err != nil {
		return transport.Payload{}, brokererrors.Wrapf(brokererrors.CodeInvalidArgument, err, "unwrap request metadata")
	}
	return transport.Payload{Metadata: md, Data: p.Data}, nil
}

func (u *unwrappingHandler) FireAndForget(ctx context.Context, p transport.Payload) {
	p, err := unwrap(p)
	if err != nil {
		u.logger.Warn("dropping fire and forget request", zap.Error(err))
		return
	}
	u.h.FireAndForget(ctx, p)
}

func (u *unwrappingHandler) RequestResponse(ctx context.Context, p transport.Payload) (transport.Payload, error) {
	p, err := unwrap(p)
	if err != nil {
		return transport.Payload{}, err
	}
	return u.h.RequestResponse(ctx, p)
}

func (u *unwrappingHandler) RequestStream(ctx context.Context, p transport.Payload, out transport.Sender) error {
	p, err := unwrap(p)
	if err != nil {
		return err
	}
	return u.h.RequestStream(ctx, p, out)
}

func (u *unwrappingHandler) RequestChannel(ctx context.Context, p transport.Payload, in transport.Stream, out transport.Sender) error {
	p, err := unwrap(p)
	if err != nil {
		return err
	}
	return u.h.RequestChannel(ctx, p, unwrappingStream{in}, out)
}

type unwrappingStream struct {
	transport.Stream
}

func (s unwrappingStream) Recv(ctx context.Context) (transport.Payload, error) {
	p, err := s.Stream.Recv(ctx)
	if err != nil {
		return p, err
	}
	return unwrap(p)
}

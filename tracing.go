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
	"errors"
	"io"
	"runtime"
	"sync"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
)

const (
	tracingComponentName = "netifi-go"

	routeTag       = "netifi.route"
	groupTag       = "netifi.group"
	statusCodeTag  = "rpc.netifi.status_code"
	interactionTag = "netifi.interaction"
)

var commonTracingTags = opentracing.Tags{
	"go.version": runtime.Version(),
	"component":  tracingComponentName,
}

func (s *Socket) startSpan(ctx context.Context, interaction string) (context.Context, opentracing.Span) {
	opts := []opentracing.StartSpanOption{
		ext.SpanKindRPCClient,
		commonTracingTags,
		opentracing.Tags{
			routeTag:       s.kind.String(),
			groupTag:       s.group,
			interactionTag: interaction,
		},
	}
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		opts = append(opts, opentracing.ChildOf(parent.Context()))
	}
	span := s.client.tracer.StartSpan(s.group+"::"+interaction, opts...)
	return opentracing.ContextWithSpan(ctx, span), span
}

// finishSpan records err on span and finishes it. It returns err.
func finishSpan(span opentracing.Span, err error) error {
	if err != nil && !errors.Is(err, io.EOF) {
		ext.Error.Set(span, true)
		span.SetTag(statusCodeTag, int(brokererrors.FromError(err).Code()))
	}
	span.Finish()
	return err
}

// tracedStream finishes its span when the stream ends.
type tracedStream struct {
	transport.Stream

	span opentracing.Span
	once sync.Once
}

func (t *tracedStream) finish(err error) {
	t.once.Do(func() { _ = finishSpan(t.span, err) })
}

func (t *tracedStream) Recv(ctx context.Context) (transport.Payload, error) {
	p, err := t.Stream.Recv(ctx)
	if err != nil && ctx.Err() == nil {
		t.finish(err)
	}
	return p, err
}

func (t *tracedStream) Close() error {
	err := t.Stream.Close()
	t.finish(nil)
	return err
}

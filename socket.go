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
	"github.com/netifi/netifi-go/frames"
	"github.com/netifi/netifi-go/tags"
)

// Socket sends requests to a group through the broker cluster. Every
// outbound payload has its metadata wrapped in a routing frame.
type Socket struct {
	client   *Client
	kind     frames.FrameType
	group    string
	shardKey []byte
	tags     tags.Tags
}

// GroupSocket routes requests to one member of group whose tags match ts.
func (c *Client) GroupSocket(group string, ts tags.Tags) *Socket {
	return &Socket{client: c, kind: frames.FrameTypeGroup, group: group, tags: ts}
}

// BroadcastSocket routes requests to every member of group whose tags
// match ts.
func (c *Client) BroadcastSocket(group string, ts tags.Tags) *Socket {
	return &Socket{client: c, kind: frames.FrameTypeBroadcast, group: group, tags: ts}
}

// ShardSocket routes requests to the member of group that owns shardKey.
func (c *Client) ShardSocket(group string, shardKey []byte, ts tags.Tags) *Socket {
	return &Socket{client: c, kind: frames.FrameTypeShard, group: group, shardKey: shardKey, tags: ts}
}

// DestinationSocket routes requests to the named destination of group.
func (c *Client) DestinationSocket(destination, group string) *Socket {
	return c.GroupSocket(group, tags.Of(DestinationTag, destination))
}

// route returns p with its metadata wrapped in the socket's routing frame.
func (s *Socket) route(p transport.Payload) transport.Payload {
	var md []byte
	switch s.kind {
	case frames.FrameTypeBroadcast:
		md = frames.EncodeBroadcast(frames.Broadcast{Name: s.group, Metadata: p.Metadata, Tags: s.tags})
	case frames.FrameTypeShard:
		md = frames.EncodeShard(frames.Shard{Name: s.group, Metadata: p.Metadata, ShardKey: s.shardKey, Tags: s.tags})
	default:
		md = frames.EncodeGroup(frames.Group{Name: s.group, Metadata: p.Metadata, Tags: s.tags})
	}
	return transport.Payload{Metadata: md, Data: p.Data}
}

// FireAndForget sends p without waiting for a response.
func (s *Socket) FireAndForget(ctx context.Context, p transport.Payload) error {
	ctx, span := s.startSpan(ctx, "fire_and_forget")
	m, err := s.client.pool.SelectMember()
	if err != nil {
		return finishSpan(span, err)
	}
	return finishSpan(span, m.FireAndForget(ctx, s.route(p)))
}

// RequestResponse sends p and waits for the response.
func (s *Socket) RequestResponse(ctx context.Context, p transport.Payload) (transport.Payload, error) {
	ctx, span := s.startSpan(ctx, "request_response")
	m, err := s.client.pool.SelectMember()
	if err != nil {
		return transport.Payload{}, finishSpan(span, err)
	}
	res, err := m.RequestResponse(ctx, s.route(p))
	return res, finishSpan(span, err)
}

// RequestStream sends p and returns the stream of responses.
func (s *Socket) RequestStream(ctx context.Context, p transport.Payload) (transport.Stream, error) {
	ctx, span := s.startSpan(ctx, "request_stream")
	m, err := s.client.pool.SelectMember()
	if err != nil {
		return nil, finishSpan(span, err)
	}
	stream, err := m.RequestStream(ctx, s.route(p))
	if err != nil {
		return nil, finishSpan(span, err)
	}
	return &tracedStream{Stream: stream, span: span}, nil
}

// RequestChannel opens a channel whose first payload is p. Payloads sent
// on the channel are routed like p.
func (s *Socket) RequestChannel(ctx context.Context, p transport.Payload) (transport.Channel, error) {
	ctx, span := s.startSpan(ctx, "request_channel")
	m, err := s.client.pool.SelectMember()
	if err != nil {
		return nil, finishSpan(span, err)
	}
	ch, err := m.RequestChannel(ctx, s.route(p))
	if err != nil {
		return nil, finishSpan(span, err)
	}
	return &routedChannel{
		tracedStream: tracedStream{Stream: ch, span: span},
		ch:           ch,
		socket:       s,
	}, nil
}

type routedChannel struct {
	tracedStream

	ch     transport.Channel
	socket *Socket
}

func (c *routedChannel) Send(ctx context.Context, p transport.Payload) error {
	return c.ch.Send(ctx, c.socket.route(p))
}

func (c *routedChannel) CloseSend() error {
	return c.ch.CloseSend()
}

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

package frames

import (
	"github.com/netifi/netifi-go/tags"
)

// Group routes a request to a single member of the named group.
type Group struct {
	Name     string
	Metadata []byte
	Tags     tags.Tags
}

// Broadcast routes a request to every member of the named group.
type Broadcast struct {
	Name     string
	Metadata []byte
	Tags     tags.Tags
}

// Shard routes a request to the member of the named group that owns
// ShardKey.
type Shard struct {
	Name     string
	Metadata []byte
	ShardKey []byte
	Tags     tags.Tags
}

// EncodeGroup encodes a GROUP frame.
func EncodeGroup(g Group) []byte {
	return encodeRoute(FrameTypeGroup, g.Name, g.Metadata, nil, g.Tags)
}

// DecodeGroup decodes a GROUP frame.
func DecodeGroup(frame []byte) (Group, error) {
	r, err := decodeRoute(frame, FrameTypeGroup)
	if err != nil {
		return Group{}, err
	}
	return Group{Name: r.name, Metadata: r.metadata, Tags: r.tags}, nil
}

// EncodeBroadcast encodes a BROADCAST frame.
func EncodeBroadcast(b Broadcast) []byte {
	return encodeRoute(FrameTypeBroadcast, b.Name, b.Metadata, nil, b.Tags)
}

// DecodeBroadcast decodes a BROADCAST frame.
func DecodeBroadcast(frame []byte) (Broadcast, error) {
	r, err := decodeRoute(frame, FrameTypeBroadcast)
	if err != nil {
		return Broadcast{}, err
	}
	return Broadcast{Name: r.name, Metadata: r.metadata, Tags: r.tags}, nil
}

// EncodeShard encodes a SHARD frame. A nil shard key is encoded as an empty
// one.
func EncodeShard(s Shard) []byte {
	key := s.ShardKey
	if key == nil {
		key = []byte{}
	}
	return encodeRoute(FrameTypeShard, s.Name, s.Metadata, key, s.Tags)
}

// DecodeShard decodes a SHARD frame.
func DecodeShard(frame []byte) (Shard, error) {
	r, err := decodeRoute(frame, FrameTypeShard)
	if err != nil {
		return Shard{}, err
	}
	return Shard{Name: r.name, Metadata: r.metadata, ShardKey: r.shardKey, Tags: r.tags}, nil
}

type route struct {
	name     string
	metadata []byte
	shardKey []byte
	tags     tags.Tags
}

// encodeRoute writes the layout shared by GROUP, BROADCAST and SHARD. The
// shard key field is only present when shardKey is non-nil.
func encodeRoute(t FrameType, name string, metadata, shardKey []byte, ts tags.Tags) []byte {
	size := 4 + len(name) + 4 + len(metadata) + tagsSize(ts)
	if shardKey != nil {
		size += 4 + len(shardKey)
	}

	w := newWriter(t, size)
	w.putString(name)
	w.putBytes(metadata)
	if shardKey != nil {
		w.putBytes(shardKey)
	}
	w.putTags(ts)
	return w.buf
}

func decodeRoute(frame []byte, t FrameType) (route, error) {
	if err := expectType(frame, t); err != nil {
		return route{}, err
	}

	r := newReader(frame, t)
	var out route
	out.name = r.string()
	out.metadata = r.bytes()
	if t == FrameTypeShard {
		out.shardKey = r.bytes()
	}
	out.tags = r.tags()
	if err := r.Err(); err != nil {
		return route{}, err
	}
	return out, nil
}

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
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/tags"
)

// Unwrap returns the application metadata carried by a routing frame,
// looking through any number of AUTHORIZATION_WRAPPER frames. The result
// shares memory with frame.
func Unwrap(frame []byte) ([]byte, error) {
	for {
		t, err := FrameTypeOf(frame)
		if err != nil {
			return nil, err
		}
		switch t {
		case FrameTypeAuthorizationWrapper:
			a, err := DecodeAuthorizationWrapper(frame)
			if err != nil {
				return nil, err
			}
			frame = a.Inner
		case FrameTypeGroup, FrameTypeBroadcast, FrameTypeShard:
			return Metadata(frame)
		default:
			return nil, brokererrors.InvalidArgumentErrorf("unknown frame type %v", t)
		}
	}
}

// Metadata returns the metadata of a GROUP, BROADCAST or SHARD frame without
// decoding its tags.
func Metadata(frame []byte) ([]byte, error) {
	t, err := routeType(frame)
	if err != nil {
		return nil, err
	}
	r := newReader(frame, t)
	r.skip()
	md := r.bytes()
	return md, r.Err()
}

// GroupName returns the destination group of a GROUP, BROADCAST or SHARD
// frame.
func GroupName(frame []byte) (string, error) {
	t, err := routeType(frame)
	if err != nil {
		return "", err
	}
	r := newReader(frame, t)
	name := r.string()
	return name, r.Err()
}

// Tags returns the tags of a GROUP, BROADCAST, SHARD or DESTINATION_SETUP
// frame.
func Tags(frame []byte) (tags.Tags, error) {
	t, err := FrameTypeOf(frame)
	if err != nil {
		return nil, err
	}
	switch t {
	case FrameTypeGroup, FrameTypeBroadcast, FrameTypeShard:
		r, err := decodeRoute(frame, t)
		return r.tags, err
	case FrameTypeDestinationSetup:
		d, err := DecodeDestinationSetup(frame)
		return d.Tags, err
	default:
		return nil, brokererrors.InvalidArgumentErrorf("%v frame carries no tags", t)
	}
}

func routeType(frame []byte) (FrameType, error) {
	t, err := FrameTypeOf(frame)
	if err != nil {
		return t, err
	}
	switch t {
	case FrameTypeGroup, FrameTypeBroadcast, FrameTypeShard:
		return t, nil
	default:
		return t, brokererrors.InvalidArgumentErrorf("%v is not a routing frame", t)
	}
}

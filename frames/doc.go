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

// Package frames implements the binary routing frames that wrap outbound
// request metadata so that a broker can address a logical destination
// (a group, every member of a group, or the member owning a shard key)
// without inspecting the application payload.
//
// Every frame starts with a fixed six byte header:
//
//	majorVersion:2 minorVersion:2 frameType:2
//
// All integers are big-endian. Variable length fields are prefixed with a
// four byte length, written as "x~4" in the layouts below.
//
//	GROUP, BROADCAST:      name~4 metadata~4 (key~4 value~4)*
//	SHARD:                 name~4 metadata~4 shardKey~4 (key~4 value~4)*
//	DESTINATION_SETUP:     address~4 group~4 accessKey:8 accessToken~4
//	                       connectionID:16 flags:2 (key~4 value~4)*
//	AUTHORIZATION_WRAPPER: accessKey:8 accessToken~4 innerFrame...
//
// Tags repeat until the end of the frame. Decoding never reads past the end
// of the buffer: a length prefix that points beyond it yields a
// CodeDataLoss error from brokererrors.
//
// Decoded metadata, shard keys, access tokens and inner frames are
// sub-slices of the input buffer and must not be modified by the caller.
package frames

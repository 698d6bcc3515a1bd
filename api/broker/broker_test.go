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

package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		desc string
		give Descriptor
		want string
	}{
		{desc: "id wins", give: Descriptor{ID: "b1", TCPAddress: Address{Host: "h", Port: 1}}, want: "b1"},
		{desc: "tcp seed", give: Descriptor{TCPAddress: Address{Host: "10.0.0.1", Port: 8001}}, want: "tcp://10.0.0.1:8001"},
		{desc: "ws seed", give: Descriptor{WebSocketAddress: Address{Host: "h", Port: 8101}}, want: "ws://h:8101"},
		{desc: "ipv6", give: Descriptor{TCPAddress: Address{Host: "::1", Port: 8001}}, want: "tcp://[::1]:8001"},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.give.Identity())
		})
	}
}

func TestSelectors(t *testing.T) {
	d := Descriptor{
		TCPAddress:       Address{Host: "t", Port: 1},
		WebSocketAddress: Address{Host: "w", Port: 2},
		ClusterAddress:   Address{Host: "c", Port: 3},
	}
	assert.Equal(t, "t:1", TCPAddress(d).String())
	assert.Equal(t, "w:2", WebSocketAddress(d).String())
	assert.Equal(t, "c:3", ClusterAddress(d).String())
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "JOIN", EventJoin.String())
	assert.Equal(t, "LEAVE", EventLeave.String())
	assert.Equal(t, "EventType(0)", EventUnknown.String())
}

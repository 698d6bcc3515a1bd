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

package peer

import "strconv"

// ConnectionStatus is the state of a pool member's broker connection.
type ConnectionStatus int

const (
	// Unavailable means the member holds no connection. The next request
	// reconnects it.
	Unavailable ConnectionStatus = iota

	// Connecting means a connection attempt is in flight. Requests wait for
	// it rather than starting another one.
	Connecting

	// Available means the member holds a live connection.
	Available

	// Closed is terminal and only reached when the pool is disposed.
	Closed
)

func (s ConnectionStatus) String() string {
	switch s {
	case Unavailable:
		return "unavailable"
	case Connecting:
		return "connecting"
	case Available:
		return "available"
	case Closed:
		return "closed"
	default:
		return "ConnectionStatus(" + strconv.Itoa(int(s)) + ")"
	}
}

// Status is a snapshot of a member's load and connection state.
type Status struct {
	// Current number of requests in flight on this member.
	PendingRequestCount int

	// Current state of the member's connection.
	ConnectionStatus ConnectionStatus
}

// Identifier uniquely identifies a peer within a pool.
type Identifier interface {
	Identifier() string
}

// StatusPeer exposes a peer's identity and status without allowing any
// change to it.
type StatusPeer interface {
	Identifier

	Status() Status
}

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

package discovery

import (
	"context"
	"net"
	"net/url"
	"strconv"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/brokererrors"
)

// Feed is a push source of broker membership: a snapshot of the current
// brokers followed by a stream of changes.
type Feed interface {
	// Snapshot returns every broker currently known to the source.
	Snapshot(ctx context.Context) ([]broker.Descriptor, error)

	// Watch streams the changes made after the last Snapshot.
	Watch(ctx context.Context) (EventStream, error)
}

// EventStream is a stream of membership changes.
type EventStream interface {
	// Next blocks until the next event. Any error ends the stream.
	Next(ctx context.Context) (broker.Event, error)

	Close() error
}

// Strategy is a pull source of broker membership.
type Strategy interface {
	// DiscoverNodes returns every broker currently known to the source.
	DiscoverNodes(ctx context.Context) ([]broker.Descriptor, error)
}

// StaticList is a fixed set of brokers.
type StaticList []broker.Descriptor

var _ Strategy = StaticList(nil)

// DiscoverNodes returns the list.
func (l StaticList) DiscoverNodes(context.Context) ([]broker.Descriptor, error) {
	return append([]broker.Descriptor(nil), l...), nil
}

// ParseStaticList builds a StaticList from addresses of the form
// "host", "host:port", "tcp://host:port" or "ws://host:port". Addresses
// without a port use defaultPort. Plain and tcp addresses set the TCP
// address of the broker, ws and wss addresses its websocket address.
func ParseStaticList(defaultPort int, addrs ...string) (StaticList, error) {
	list := make(StaticList, 0, len(addrs))
	for _, addr := range addrs {
		b, err := parseAddress(addr, defaultPort)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, nil
}

func parseAddress(addr string, defaultPort int) (broker.Descriptor, error) {
	scheme := "tcp"
	hostport := addr
	if u, err := url.Parse(addr); err == nil && u.Scheme != "" && u.Host != "" {
		scheme = u.Scheme
		hostport = u.Host
	}

	host, port, err := splitHostPort(hostport, defaultPort)
	if err != nil {
		return broker.Descriptor{}, brokererrors.InvalidArgumentErrorf("invalid broker address %q: %v", addr, err)
	}
	a := broker.Address{Host: host, Port: port}

	switch scheme {
	case "tcp":
		return broker.Descriptor{TCPAddress: a}, nil
	case "ws", "wss":
		return broker.Descriptor{WebSocketAddress: a}, nil
	default:
		return broker.Descriptor{}, brokererrors.InvalidArgumentErrorf(
			"invalid broker address %q: unsupported scheme %q", addr, scheme)
	}
}

func splitHostPort(hostport string, defaultPort int) (string, int, error) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		// No port.
		if hostport == "" {
			return "", 0, err
		}
		return hostport, defaultPort, nil
	}
	if host == "" {
		return "", 0, brokererrors.InvalidArgumentErrorf("missing host")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, brokererrors.InvalidArgumentErrorf("invalid port %q", portStr)
	}
	return host, port, nil
}

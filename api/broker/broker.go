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

// Package broker describes the broker nodes a client can connect to and the
// membership events that discovery sources report about them.
package broker

import (
	"net"
	"strconv"
)

// Address is a host and port.
type Address struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// String returns the address in host:port form.
func (a Address) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a.Host == "" && a.Port == 0
}

// Descriptor identifies a broker node and the addresses it listens on.
// Descriptors are values and never change once built.
type Descriptor struct {
	ID               string  `yaml:"id" json:"id"`
	ClusterName      string  `yaml:"clusterName" json:"clusterName"`
	TCPAddress       Address `yaml:"tcpAddress" json:"tcpAddress"`
	WebSocketAddress Address `yaml:"webSocketAddress" json:"webSocketAddress"`
	ClusterAddress   Address `yaml:"clusterAddress" json:"clusterAddress"`
}

// Identity returns the key under which the pool tracks this broker: the
// broker ID when there is one, otherwise the first address that is set.
// Brokers built from seed addresses have no ID.
func (d Descriptor) Identity() string {
	switch {
	case d.ID != "":
		return d.ID
	case !d.TCPAddress.IsZero():
		return "tcp://" + d.TCPAddress.String()
	case !d.WebSocketAddress.IsZero():
		return "ws://" + d.WebSocketAddress.String()
	default:
		return "cluster://" + d.ClusterAddress.String()
	}
}

// String returns the identity of the broker.
func (d Descriptor) String() string {
	return d.Identity()
}

// AddressSelector picks the address a transport should dial.
type AddressSelector func(Descriptor) Address

// TCPAddress selects the TCP listener of a broker.
func TCPAddress(d Descriptor) Address { return d.TCPAddress }

// WebSocketAddress selects the WebSocket listener of a broker.
func WebSocketAddress(d Descriptor) Address { return d.WebSocketAddress }

// ClusterAddress selects the broker-to-broker listener of a broker.
func ClusterAddress(d Descriptor) Address { return d.ClusterAddress }

// OrAnyClientAddress returns a selector using s, or for brokers where s
// selects nothing, whichever client address is set. Brokers built from
// seed addresses carry a single address.
func OrAnyClientAddress(s AddressSelector) AddressSelector {
	return func(d Descriptor) Address {
		if a := s(d); !a.IsZero() {
			return a
		}
		if !d.TCPAddress.IsZero() {
			return d.TCPAddress
		}
		return d.WebSocketAddress
	}
}

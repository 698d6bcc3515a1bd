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

// Package netifi is a client for a cluster of message brokers.
//
// A Client keeps a pool of broker connections sized to the cluster. Brokers
// are found through static addresses, etcd, or a caller supplied feed or
// strategy, and the pool follows membership changes as they are reported.
// Connections reconnect on their own and requests go to the member with the
// best recent latency and availability.
//
// Requests are sent through routed sockets. A socket wraps the metadata of
// every payload in a routing frame that tells the broker where to deliver it:
//
//	client, err := netifi.New(cfg, netifi.Logger(logger))
//	if err != nil {
//		return err
//	}
//	if err := client.Start(); err != nil {
//		return err
//	}
//	defer client.Stop()
//
//	socket := client.GroupSocket("quotes", tags.Empty())
//	res, err := socket.RequestResponse(ctx, transport.Payload{Data: body})
//
// Requests brokers route to this client are served by the Handler option.
// Routing frames are stripped from their metadata first.
//
// # Configuration
//
// Config can be loaded from YAML. String fields accept ${VAR} and
// ${VAR:default} references to environment variables.
//
//	group: quotes
//	accessKey: 9007199254740991
//	accessToken: ${NETIFI_ACCESS_TOKEN}
//	poolSize: 4
//	discovery:
//	  static:
//	    addresses: [broker-1, broker-2:8101]
package netifi

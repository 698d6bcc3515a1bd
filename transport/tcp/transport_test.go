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

package tcp

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/brokertest"
	"github.com/netifi/netifi-go/transport/framed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestInbound(t *testing.T, onAccept AcceptFunc) *Inbound {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	i := NewInbound(l, onAccept, Handler(brokertest.EchoHandler{}), Logger(zaptest.NewLogger(t)))
	require.NoError(t, i.Start())
	t.Cleanup(func() { assert.NoError(t, i.Stop()) })
	return i
}

func TestDialAndRequest(t *testing.T) {
	setups := make(chan transport.Payload, 1)
	i := newTestInbound(t, func(_ *framed.Session, setup transport.Payload) {
		setups <- setup
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	setup := transport.Payload{Metadata: []byte("destination"), Data: []byte("token")}
	conn, err := NewTransport(Logger(zaptest.NewLogger(t))).Dial(ctx, i.Addr().String(), setup)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case got := <-setups:
		assert.Equal(t, setup, got)
	case <-ctx.Done():
		t.Fatal("inbound did not accept the connection")
	}

	res, err := conn.RequestResponse(ctx, transport.Payload{Data: []byte("ping")})
	require.NoError(t, err)
	assert.Equal(t, "ping", string(res.Data))
	require.NoError(t, conn.KeepAlive(ctx))
	assert.Equal(t, 1.0, conn.Availability())
}

func TestStopClosesConnections(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	i := NewInbound(l, nil)
	require.NoError(t, i.Start())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewTransport().Dial(ctx, l.Addr().String(), transport.Payload{})
	require.NoError(t, err)

	require.NoError(t, i.Stop())
	assert.False(t, i.IsRunning())

	select {
	case <-conn.Done():
	case <-ctx.Done():
		t.Fatal("connection was not closed by Stop")
	}
	assert.Equal(t, 0.0, conn.Availability())
}

func TestDialRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = NewTransport().Dial(context.Background(), addr, transport.Payload{})
	assert.True(t, brokererrors.IsUnavailable(err), "got %v", err)
}

func TestDialCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTransport().Dial(ctx, "127.0.0.1:1", transport.Payload{})
	assert.Equal(t, brokererrors.CodeCancelled, brokererrors.FromError(err).Code())
}

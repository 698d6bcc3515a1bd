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

package websocket

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/gorilla/websocket"
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
	t.Cleanup(func() { _ = i.Stop() })
	return i
}

func TestDialAndStream(t *testing.T) {
	setups := make(chan transport.Payload, 1)
	i := newTestInbound(t, func(_ *framed.Session, setup transport.Payload) {
		setups <- setup
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	setup := transport.Payload{Data: []byte("setup")}
	conn, err := NewTransport(Logger(zaptest.NewLogger(t))).Dial(ctx, i.Addr().String(), setup)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case got := <-setups:
		assert.Equal(t, "setup", string(got.Data))
	case <-ctx.Done():
		t.Fatal("inbound did not accept the connection")
	}

	stream, err := conn.RequestStream(ctx, transport.Payload{Data: []byte("x")})
	require.NoError(t, err)
	for n := 0; n < 3; n++ {
		p, err := stream.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, "x", string(p.Data))
	}
	_, err = stream.Recv(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestStopClosesSessions(t *testing.T) {
	accepted := make(chan struct{})
	i := newTestInbound(t, func(*framed.Session, transport.Payload) { close(accepted) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewTransport().Dial(ctx, "ws://"+i.Addr().String()+"/", transport.Payload{})
	require.NoError(t, err)
	<-accepted

	require.NoError(t, i.Stop())
	select {
	case <-conn.Done():
	case <-ctx.Done():
		t.Fatal("connection was not closed by Stop")
	}
}

func TestDialUnavailable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = NewTransport().Dial(context.Background(), addr, transport.Payload{})
	assert.True(t, brokererrors.IsUnavailable(err), "got %v", err)
}

func TestURL(t *testing.T) {
	tr := NewTransport(Path("connect"))
	assert.Equal(t, "ws://broker:8101/connect", tr.url("broker:8101"))
	assert.Equal(t, "wss://broker/x", tr.url("wss://broker/x"))
}

func TestWrapError(t *testing.T) {
	assert.Equal(t, io.EOF, wrapError(&websocket.CloseError{Code: websocket.CloseNormalClosure}))

	err := wrapError(&websocket.CloseError{Code: websocket.CloseInternalServerErr, Text: "boom"})
	assert.Equal(t, brokererrors.CodeInternal, brokererrors.FromError(err).Code())

	err = wrapError(&websocket.CloseError{Code: websocket.CloseAbnormalClosure})
	assert.True(t, brokererrors.IsUnavailable(err))

	other := io.ErrUnexpectedEOF
	assert.Equal(t, other, wrapError(other))
}

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
	"errors"
	"io"
	"time"

	"github.com/gorilla/websocket"
	"github.com/netifi/netifi-go/brokererrors"
)

const closeTimeout = time.Second

// frameConn carries one frame per binary websocket message.
type frameConn struct {
	conn *websocket.Conn
}

func (c frameConn) ReadFrame() ([]byte, error) {
	msgType, msg, err := c.conn.ReadMessage()
	if err != nil {
		return nil, wrapError(err)
	}
	if msgType != websocket.BinaryMessage {
		return nil, brokererrors.InvalidArgumentErrorf("invalid websocket message type %d", msgType)
	}
	return msg, nil
}

func (c frameConn) WriteFrame(b []byte) error {
	return wrapError(c.conn.WriteMessage(websocket.BinaryMessage, b))
}

func (c frameConn) Close() error {
	// The peer may already be gone, so the close message is best effort.
	_ = c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(closeTimeout),
	)
	return c.conn.Close()
}

func wrapError(err error) error {
	var closeErr *websocket.CloseError
	if !errors.As(err, &closeErr) {
		return err
	}
	switch closeErr.Code {
	case websocket.CloseNormalClosure, websocket.CloseNoStatusReceived, websocket.CloseGoingAway:
		return io.EOF
	case websocket.CloseInternalServerErr:
		return brokererrors.InternalErrorf("%s", closeErr.Error())
	default:
		return brokererrors.UnavailableErrorf("%s", closeErr.Error())
	}
}

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
	"bufio"
	"encoding/binary"
	"io"
	"net"

	"github.com/netifi/netifi-go/brokererrors"
)

// frameConn reads and writes frames prefixed with their length as a
// big-endian u32.
type frameConn struct {
	conn         net.Conn
	r            *bufio.Reader
	maxFrameSize int
}

func newFrameConn(conn net.Conn, maxFrameSize int) *frameConn {
	return &frameConn{
		conn:         conn,
		r:            bufio.NewReader(conn),
		maxFrameSize: maxFrameSize,
	}
}

func (c *frameConn) ReadFrame() ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(c.r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if uint64(n) > uint64(c.maxFrameSize) {
		return nil, brokererrors.DataLossErrorf("frame of %d bytes exceeds the limit of %d", n, c.maxFrameSize)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(c.r, b); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return b, nil
}

func (c *frameConn) WriteFrame(b []byte) error {
	if len(b) > c.maxFrameSize {
		return brokererrors.InvalidArgumentErrorf("frame of %d bytes exceeds the limit of %d", len(b), c.maxFrameSize)
	}
	buf := make([]byte, 4+len(b))
	binary.BigEndian.PutUint32(buf, uint32(len(b)))
	copy(buf[4:], b)
	_, err := c.conn.Write(buf)
	return err
}

func (c *frameConn) Close() error {
	return c.conn.Close()
}

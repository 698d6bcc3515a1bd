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

package reconnecting

import (
	"context"

	"github.com/netifi/netifi-go/api/transport"
	"go.uber.org/zap"
)

// runKeepAlive pings conn every tick period until it closes. After
// MissedAcks consecutive pings go unanswered within the ack timeout the
// connection is closed, which unbinds the member.
func (m *Member) runKeepAlive(conn transport.Conn) {
	cfg := m.keepAlive
	ticker := m.clock.Ticker(cfg.TickPeriod)
	defer ticker.Stop()

	missed := 0
	for {
		select {
		case <-ticker.C():
		case <-conn.Done():
			return
		case <-m.closed:
			return
		}

		if m.ping(conn) {
			missed = 0
			continue
		}

		missed++
		m.logger.Debug("missed keep-alive acknowledgement", zap.Int("missed", missed))
		if missed >= cfg.MissedAcks {
			m.logger.Warn("closing connection after missed keep-alive acknowledgements",
				zap.Int("missed", missed))
			_ = conn.Close()
			m.unbind(conn)
			return
		}
	}
}

// ping reports whether conn acknowledged a keep-alive within the timeout.
func (m *Member) ping(conn transport.Conn) bool {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	acked := make(chan error, 1)
	go func() { acked <- conn.KeepAlive(ctx) }()

	timer := m.clock.Timer(m.keepAlive.AckTimeout)
	defer timer.Stop()

	select {
	case err := <-acked:
		return err == nil
	case <-timer.C():
		return false
	case <-conn.Done():
		return false
	}
}

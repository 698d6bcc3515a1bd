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
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/api/peer"
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/brokertest"
	"github.com/netifi/netifi-go/internal/clock"
	"github.com/netifi/netifi-go/internal/stats"
	"github.com/netifi/netifi-go/peer/supplier"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap/zaptest"
)

const testAddr = "10.0.0.1:8001"

var testBroker = broker.Descriptor{
	ID:         "broker-1",
	TCPAddress: broker.Address{Host: "10.0.0.1", Port: 8001},
}

// fakeSelector always hands out the same supplier.
type fakeSelector struct {
	supplier *supplier.Supplier
	err      error
	calls    atomic.Int32
}

func (s *fakeSelector) SelectTransport(context.Context) (*supplier.Supplier, error) {
	s.calls.Inc()
	if s.err != nil {
		return nil, s.err
	}
	s.supplier.Select()
	return s.supplier, nil
}

func newSelector(t transport.Transport, opts ...supplier.Option) *fakeSelector {
	return &fakeSelector{supplier: supplier.New(testBroker, broker.TCPAddress, t, opts...)}
}

// gatedTransport blocks every dial until the gate is opened.
type gatedTransport struct {
	*brokertest.FakeTransport

	gate chan struct{}
}

func (t *gatedTransport) Dial(ctx context.Context, addr string, setup transport.Payload) (transport.Conn, error) {
	select {
	case <-t.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return t.FakeTransport.Dial(ctx, addr, setup)
}

// blockingHandler answers request-response calls once release is closed.
type blockingHandler struct {
	brokertest.EchoHandler

	release chan struct{}
}

func (h blockingHandler) RequestResponse(ctx context.Context, p transport.Payload) (transport.Payload, error) {
	<-h.release
	return p, nil
}

func TestLazyBind(t *testing.T) {
	trans := brokertest.NewFakeTransport()
	setup := transport.Payload{Metadata: []byte("setup")}
	m := New("member-0", newSelector(trans), setup, Logger(zaptest.NewLogger(t)))

	assert.Equal(t, "member-0", m.Identifier())
	assert.Equal(t, peer.Unavailable, m.State())
	assert.Equal(t, 0.0, m.Availability())
	assert.Nil(t, m.Supplier())
	assert.Empty(t, trans.Conns())

	req := transport.Payload{Metadata: []byte("m"), Data: []byte("d")}
	res, err := m.RequestResponse(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req, res)

	assert.Equal(t, peer.Available, m.State())
	assert.Equal(t, 1.0, m.Availability())
	require.NotNil(t, m.Supplier())
	assert.Equal(t, 1, m.Supplier().Active())

	conns := trans.ConnsTo(testAddr)
	require.Len(t, conns, 1)
	assert.Equal(t, setup, conns[0].Setup())
	assert.Equal(t, 1, conns[0].Requests())

	require.NoError(t, m.FireAndForget(context.Background(), req))
	assert.Len(t, trans.Conns(), 1, "bound member must reuse its connection")
	assert.Equal(t, 2, conns[0].Requests())
}

func TestConcurrentCallersShareOneAttempt(t *testing.T) {
	trans := &gatedTransport{
		FakeTransport: brokertest.NewFakeTransport(),
		gate:          make(chan struct{}),
	}
	selector := newSelector(trans)
	m := New("member-0", selector, transport.Payload{})

	const callers = 10
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.Connect(context.Background())
		}()
	}

	assert.Eventually(t, func() bool {
		return m.State() == peer.Connecting
	}, time.Second, time.Millisecond)
	close(trans.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), selector.calls.Load())
	assert.Len(t, trans.Conns(), 1)
	assert.Equal(t, peer.Available, m.State())
}

func TestWaitingCallerHonorsContext(t *testing.T) {
	trans := &gatedTransport{
		FakeTransport: brokertest.NewFakeTransport(),
		gate:          make(chan struct{}),
	}
	m := New("member-0", newSelector(trans), transport.Payload{})

	go func() { _ = m.Connect(context.Background()) }()
	assert.Eventually(t, func() bool {
		return m.State() == peer.Connecting
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Connect(ctx)
	require.Error(t, err)
	assert.Equal(t, brokererrors.CodeCancelled, brokererrors.FromError(err).Code())

	close(trans.gate)
	assert.Eventually(t, func() bool {
		return m.State() == peer.Available
	}, time.Second, time.Millisecond)
}

func TestReconnectAfterConnectionCloses(t *testing.T) {
	trans := brokertest.NewFakeTransport()
	m := New("member-0", newSelector(trans), transport.Payload{})

	require.NoError(t, m.Connect(context.Background()))
	first := trans.Conns()[0]
	require.NoError(t, first.Close())

	assert.Eventually(t, func() bool {
		return m.State() == peer.Unavailable
	}, time.Second, time.Millisecond)
	assert.Equal(t, 0.0, m.Availability())

	_, err := m.RequestResponse(context.Background(), transport.Payload{Data: []byte("again")})
	require.NoError(t, err)
	assert.Len(t, trans.Conns(), 2)
	assert.Equal(t, peer.Available, m.State())
}

func TestSelectionFailureReturnsToCaller(t *testing.T) {
	noBrokers := brokererrors.UnavailableErrorf("no brokers available")
	selector := &fakeSelector{err: noBrokers}
	m := New("member-0", selector, transport.Payload{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := m.Connect(ctx)
	require.Error(t, err)
	assert.Equal(t, noBrokers, err)
	assert.Equal(t, int32(1), selector.calls.Load(), "a failed attempt must not be retried in place")
	assert.Equal(t, peer.Unavailable, m.State())
	assert.NoError(t, ctx.Err(), "connect must fail before the deadline")

	err = m.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), selector.calls.Load())
}

func TestBindFailure(t *testing.T) {
	refused := errors.New("connection refused")
	trans := brokertest.NewFakeTransport(brokertest.DialErrors(refused, testAddr))
	selector := newSelector(trans)
	m := New("member-0", selector, transport.Payload{})

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, brokererrors.IsUnavailable(err))
	assert.Equal(t, peer.Unavailable, m.State())
	assert.Equal(t, 0, selector.supplier.Active())

	trans.SimulateDialError(testAddr, nil)
	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, peer.Available, m.State())
}

func TestSelectorFailure(t *testing.T) {
	selector := &fakeSelector{err: brokererrors.UnavailableErrorf("no brokers")}
	m := New("member-0", selector, transport.Payload{})

	_, err := m.RequestResponse(context.Background(), transport.Payload{})
	require.Error(t, err)
	assert.True(t, brokererrors.IsUnavailable(err))
	assert.Equal(t, peer.Unavailable, m.State())
}

func TestReset(t *testing.T) {
	trans := brokertest.NewFakeTransport()
	m := New("member-0", newSelector(trans), transport.Payload{})

	require.NoError(t, m.Reset(), "reset of an unbound member is a no-op")

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Reset())
	assert.Equal(t, peer.Unavailable, m.State())
	assert.True(t, trans.Conns()[0].IsClosed())

	require.NoError(t, m.Connect(context.Background()))
	assert.Len(t, trans.Conns(), 2)
}

func TestClose(t *testing.T) {
	trans := brokertest.NewFakeTransport()
	m := New("member-0", newSelector(trans), transport.Payload{})

	require.NoError(t, m.Connect(context.Background()))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.Equal(t, peer.Closed, m.State())
	assert.True(t, trans.Conns()[0].IsClosed())

	_, err := m.RequestResponse(context.Background(), transport.Payload{})
	require.Error(t, err)
	assert.True(t, brokererrors.IsFailedPrecondition(err))
	assert.Contains(t, err.Error(), "is disposed")

	_, err = m.RequestStream(context.Background(), transport.Payload{})
	assert.True(t, brokererrors.IsFailedPrecondition(err))
	assert.Len(t, trans.Conns(), 1)
}

func TestCloseWhileConnecting(t *testing.T) {
	trans := &gatedTransport{
		FakeTransport: brokertest.NewFakeTransport(),
		gate:          make(chan struct{}),
	}
	m := New("member-0", newSelector(trans), transport.Payload{})

	errs := make(chan error, 1)
	go func() { errs <- m.Connect(context.Background()) }()
	assert.Eventually(t, func() bool {
		return m.State() == peer.Connecting
	}, time.Second, time.Millisecond)

	require.NoError(t, m.Close())
	close(trans.gate)

	err := <-errs
	assert.True(t, brokererrors.IsFailedPrecondition(err))
	require.Len(t, trans.Conns(), 1)
	assert.True(t, trans.Conns()[0].IsClosed(), "late connection must be closed")
}

func TestAvailabilityFollowsConnection(t *testing.T) {
	trans := brokertest.NewFakeTransport()
	m := New("member-0", newSelector(trans), transport.Payload{})
	require.NoError(t, m.Connect(context.Background()))

	trans.Conns()[0].SetAvailability(0.25)
	assert.Equal(t, 0.25, m.Availability())
}

func TestPendingAndLatency(t *testing.T) {
	clk := clock.NewFake()
	h := blockingHandler{release: make(chan struct{})}
	trans := brokertest.NewFakeTransport(brokertest.Handler(h))
	lower, higher := stats.NewMedian(), stats.NewMedian()
	m := New("member-0", newSelector(trans, supplier.Clock(clk)), transport.Payload{},
		Clock(clk), Quantiles(lower, higher))

	require.NoError(t, m.Connect(context.Background()))
	assert.Equal(t, 0.0, m.PredictedLatency())

	done := make(chan error, 1)
	go func() {
		_, err := m.RequestResponse(context.Background(), transport.Payload{})
		done <- err
	}()
	assert.Eventually(t, func() bool { return m.Pending() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, 1, m.Status().PendingRequestCount)
	assert.Equal(t, stats.StartupPenalty+1, m.PredictedLatency())

	clk.Add(2 * time.Millisecond)
	close(h.release)
	require.NoError(t, <-done)

	assert.Equal(t, 0, m.Pending())
	assert.InDelta(t, 2000, m.PredictedLatency(), 1e-6)
	assert.InDelta(t, 2000, lower.Estimate(), 1e-6)
	assert.InDelta(t, 2000, higher.Estimate(), 1e-6)
}

func TestFailedRequestsDoNotFeedQuantiles(t *testing.T) {
	clk := clock.NewFake()
	trans := brokertest.NewFakeTransport(brokertest.Handler(transport.UnimplementedHandler{}))
	lower, higher := stats.NewMedian(), stats.NewMedian()
	m := New("member-0", newSelector(trans), transport.Payload{}, Clock(clk), Quantiles(lower, higher))

	_, err := m.RequestResponse(context.Background(), transport.Payload{})
	require.Error(t, err)
	assert.Equal(t, 0, m.Pending())
	assert.Equal(t, 0.0, lower.Estimate())
	assert.Equal(t, 0.0, higher.Estimate())
}

func TestStreamCountsAsPendingUntilEnd(t *testing.T) {
	trans := brokertest.NewFakeTransport()
	m := New("member-0", newSelector(trans), transport.Payload{})

	req := transport.Payload{Data: []byte("tick")}
	s, err := m.RequestStream(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Pending())

	for i := 0; i < 3; i++ {
		p, err := s.Recv(context.Background())
		require.NoError(t, err)
		assert.Equal(t, req, p)
	}
	_, err = s.Recv(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, m.Pending())

	require.NoError(t, s.Close())
	assert.Equal(t, 0, m.Pending(), "close after completion must not finish twice")
}

func TestChannel(t *testing.T) {
	trans := brokertest.NewFakeTransport()
	m := New("member-0", newSelector(trans), transport.Payload{})

	ctx := context.Background()
	ch, err := m.RequestChannel(ctx, transport.Payload{Data: []byte("first")})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Pending())

	require.NoError(t, ch.Send(ctx, transport.Payload{Data: []byte("second")}))
	require.NoError(t, ch.CloseSend())

	for _, want := range []string{"first", "second"} {
		p, err := ch.Recv(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(p.Data))
	}
	_, err = ch.Recv(ctx)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 0, m.Pending())
}

func TestStreamCancel(t *testing.T) {
	trans := brokertest.NewFakeTransport()
	m := New("member-0", newSelector(trans), transport.Payload{})

	s, err := m.RequestStream(context.Background(), transport.Payload{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, 0, m.Pending())
}

func TestKeepAliveClosesUnresponsiveConnection(t *testing.T) {
	clk := clock.NewFake()
	trans := brokertest.NewFakeTransport()
	cfg := KeepAliveConfig{
		Enabled:    true,
		TickPeriod: time.Second,
		AckTimeout: 30 * time.Second,
		MissedAcks: 2,
	}
	m := New("member-0", newSelector(trans), transport.Payload{}, Clock(clk), KeepAlive(cfg))

	require.NoError(t, m.Connect(context.Background()))
	conn := trans.Conns()[0]
	conn.IgnoreKeepAlives(true)

	// Ticker only.
	clk.BlockUntil(1)
	clk.Add(cfg.TickPeriod)

	for i := 0; i < cfg.MissedAcks; i++ {
		// Ticker plus the ack timeout of the outstanding ping.
		clk.BlockUntil(2)
		clk.Add(cfg.AckTimeout)
	}

	assert.Eventually(t, conn.IsClosed, time.Second, time.Millisecond)
	assert.Eventually(t, func() bool {
		return m.State() == peer.Unavailable
	}, time.Second, time.Millisecond)
}

func TestKeepAliveAcknowledged(t *testing.T) {
	clk := clock.NewFake()
	trans := brokertest.NewFakeTransport()
	cfg := KeepAliveConfig{
		Enabled:    true,
		TickPeriod: time.Second,
		AckTimeout: 30 * time.Second,
		MissedAcks: 1,
	}
	m := New("member-0", newSelector(trans), transport.Payload{}, Clock(clk), KeepAlive(cfg))

	require.NoError(t, m.Connect(context.Background()))
	conn := trans.Conns()[0]

	clk.BlockUntil(1)
	for i := 1; i <= 3; i++ {
		clk.Add(cfg.TickPeriod)
		want := i
		assert.Eventually(t, func() bool { return conn.KeepAlives() >= want }, time.Second, time.Millisecond)
	}
	assert.False(t, conn.IsClosed())
	assert.Equal(t, peer.Available, m.State())
	require.NoError(t, m.Close())
}

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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/api/peer"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

var (
	brokerA = broker.Descriptor{ID: "broker-a", TCPAddress: broker.Address{Host: "10.0.0.1", Port: 8001}}
	brokerB = broker.Descriptor{ID: "broker-b", TCPAddress: broker.Address{Host: "10.0.0.2", Port: 8001}}
	brokerC = broker.Descriptor{ID: "broker-c", TCPAddress: broker.Address{Host: "10.0.0.3", Port: 8001}}
)

// call is one recorded call on a recordingList.
type call struct {
	replace []broker.Descriptor
	update  peer.ListUpdates
}

// recordingList records every change applied to it.
type recordingList struct {
	calls chan call

	mu  sync.Mutex
	err error
}

var _ peer.List = (*recordingList)(nil)

func newRecordingList() *recordingList {
	return &recordingList{calls: make(chan call, 100)}
}

func (l *recordingList) Update(u peer.ListUpdates) error {
	l.calls <- call{update: u}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *recordingList) Replace(brokers []broker.Descriptor) error {
	l.calls <- call{replace: brokers}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

func (l *recordingList) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.err = err
}

func (l *recordingList) next(t *testing.T) call {
	t.Helper()
	select {
	case c := <-l.calls:
		return c
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for a list change")
		return call{}
	}
}

// fakeFeed serves a configurable snapshot and hands every stream it opens
// to the test.
type fakeFeed struct {
	streams   chan *fakeStream
	snapshots atomic.Int32

	mu          sync.Mutex
	snapshot    []broker.Descriptor
	snapshotErr error
}

var _ Feed = (*fakeFeed)(nil)

func newFakeFeed(brokers ...broker.Descriptor) *fakeFeed {
	return &fakeFeed{
		streams:  make(chan *fakeStream, 10),
		snapshot: brokers,
	}
}

func (f *fakeFeed) setSnapshot(brokers []broker.Descriptor, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot = brokers
	f.snapshotErr = err
}

func (f *fakeFeed) Snapshot(context.Context) ([]broker.Descriptor, error) {
	f.snapshots.Inc()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return append([]broker.Descriptor(nil), f.snapshot...), nil
}

func (f *fakeFeed) Watch(context.Context) (EventStream, error) {
	s := &fakeStream{events: make(chan fakeEvent, 10), closed: make(chan struct{})}
	f.streams <- s
	return s, nil
}

func (f *fakeFeed) nextStream(t *testing.T) *fakeStream {
	t.Helper()
	select {
	case s := <-f.streams:
		return s
	case <-time.After(time.Second):
		require.FailNow(t, "timed out waiting for a watch")
		return nil
	}
}

type fakeEvent struct {
	event broker.Event
	err   error
}

type fakeStream struct {
	events    chan fakeEvent
	closed    chan struct{}
	closeOnce sync.Once
}

func (s *fakeStream) send(typ broker.EventType, b broker.Descriptor) {
	s.events <- fakeEvent{event: broker.Event{Type: typ, Broker: b}}
}

func (s *fakeStream) fail(err error) {
	s.events <- fakeEvent{err: err}
}

func (s *fakeStream) Next(ctx context.Context) (broker.Event, error) {
	select {
	case e := <-s.events:
		return e.event, e.err
	case <-ctx.Done():
		return broker.Event{}, ctx.Err()
	}
}

func (s *fakeStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// fakeStrategy returns the results queued on it in order, repeating the
// last one.
type fakeStrategy struct {
	calls atomic.Int32

	mu      sync.Mutex
	results []strategyResult
}

type strategyResult struct {
	brokers []broker.Descriptor
	err     error
}

var _ Strategy = (*fakeStrategy)(nil)

func (s *fakeStrategy) DiscoverNodes(context.Context) ([]broker.Descriptor, error) {
	s.calls.Inc()
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.results) == 0 {
		return nil, errors.New("no brokers configured")
	}
	r := s.results[0]
	if len(s.results) > 1 {
		s.results = s.results[1:]
	}
	return r.brokers, r.err
}

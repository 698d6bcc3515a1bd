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

package etcddiscovery

import (
	"context"
	"errors"
	"testing"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap/zaptest"
)

const testPrefix = "/netifi/brokers/"

type fakeKV struct {
	resp *clientv3.GetResponse
	err  error

	key string
	op  clientv3.Op
}

func (kv *fakeKV) Get(_ context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	kv.key = key
	kv.op = clientv3.OpGet(key, opts...)
	return kv.resp, kv.err
}

type fakeWatcher struct {
	ch chan clientv3.WatchResponse

	key string
	op  clientv3.Op
	ctx context.Context
}

var _ clientv3.Watcher = (*fakeWatcher)(nil)

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{ch: make(chan clientv3.WatchResponse, 10)}
}

func (w *fakeWatcher) Watch(ctx context.Context, key string, opts ...clientv3.OpOption) clientv3.WatchChan {
	w.key = key
	w.op = clientv3.OpGet(key, opts...)
	w.ctx = ctx
	return w.ch
}

func (w *fakeWatcher) RequestProgress(context.Context) error { return nil }

func (w *fakeWatcher) Close() error { return nil }

func keyValue(key, value string) *mvccpb.KeyValue {
	return &mvccpb.KeyValue{Key: []byte(testPrefix + key), Value: []byte(value)}
}

func getResponse(rev int64, kvs ...*mvccpb.KeyValue) *clientv3.GetResponse {
	return &clientv3.GetResponse{
		Header: &etcdserverpb.ResponseHeader{Revision: rev},
		Kvs:    kvs,
	}
}

func TestSnapshot(t *testing.T) {
	kv := &fakeKV{resp: getResponse(41,
		keyValue("broker-a", "tcpAddress: {host: 10.0.0.1, port: 8001}"),
		keyValue("broker-b", `{"id": "b", "clusterName": "east", "webSocketAddress": {"host": "10.0.0.2", "port": 8101}}`),
		keyValue("broken", "tcpAddress: ["),
	)}
	feed := New(kv, newFakeWatcher(), testPrefix, zaptest.NewLogger(t))

	brokers, err := feed.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testPrefix, kv.key)
	assert.NotEmpty(t, kv.op.RangeBytes(), "snapshot must read the whole prefix")

	assert.Equal(t, []broker.Descriptor{
		{ID: "broker-a", TCPAddress: broker.Address{Host: "10.0.0.1", Port: 8001}},
		{ID: "b", ClusterName: "east", WebSocketAddress: broker.Address{Host: "10.0.0.2", Port: 8101}},
	}, brokers)
}

func TestSnapshotError(t *testing.T) {
	feed := New(&fakeKV{err: errors.New("no leader")}, newFakeWatcher(), testPrefix, nil)

	_, err := feed.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, brokererrors.IsUnavailable(err))
}

func TestWatchStartsAfterSnapshot(t *testing.T) {
	w := newFakeWatcher()
	feed := New(&fakeKV{resp: getResponse(41)}, w, testPrefix, nil)

	_, err := feed.Snapshot(context.Background())
	require.NoError(t, err)
	s, err := feed.Watch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testPrefix, w.key)
	assert.Equal(t, int64(42), w.op.Rev())

	require.NoError(t, s.Close())
	assert.Error(t, w.ctx.Err(), "closing the stream must cancel the watch")
}

func TestWatchEvents(t *testing.T) {
	w := newFakeWatcher()
	feed := New(&fakeKV{resp: getResponse(1)}, w, testPrefix, zaptest.NewLogger(t))
	s, err := feed.Watch(context.Background())
	require.NoError(t, err)

	w.ch <- clientv3.WatchResponse{Events: []*clientv3.Event{
		{Type: mvccpb.PUT, Kv: keyValue("broker-a", "tcpAddress: {host: 10.0.0.1, port: 8001}")},
		{Type: mvccpb.PUT, Kv: keyValue("broken", "[")},
		{
			Type:   mvccpb.DELETE,
			Kv:     &mvccpb.KeyValue{Key: []byte(testPrefix + "broker-c")},
			PrevKv: keyValue("broker-c", "id: c\ntcpAddress: {host: 10.0.0.3, port: 8001}"),
		},
	}}
	w.ch <- clientv3.WatchResponse{Events: []*clientv3.Event{
		{Type: mvccpb.DELETE, Kv: &mvccpb.KeyValue{Key: []byte(testPrefix + "broker-d")}},
	}}

	want := []broker.Event{
		{Type: broker.EventJoin, Broker: broker.Descriptor{ID: "broker-a", TCPAddress: broker.Address{Host: "10.0.0.1", Port: 8001}}},
		{Type: broker.EventLeave, Broker: broker.Descriptor{ID: "c", TCPAddress: broker.Address{Host: "10.0.0.3", Port: 8001}}},
		{Type: broker.EventLeave, Broker: broker.Descriptor{ID: "broker-d"}},
	}
	for _, ev := range want {
		got, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ev, got)
	}
}

func TestWatchErrors(t *testing.T) {
	t.Run("compacted", func(t *testing.T) {
		w := newFakeWatcher()
		s, err := New(&fakeKV{}, w, testPrefix, nil).Watch(context.Background())
		require.NoError(t, err)

		w.ch <- clientv3.WatchResponse{Canceled: true, CompactRevision: 10}
		_, err = s.Next(context.Background())
		require.Error(t, err)
		assert.True(t, brokererrors.IsUnavailable(err))
	})

	t.Run("closed", func(t *testing.T) {
		w := newFakeWatcher()
		s, err := New(&fakeKV{}, w, testPrefix, nil).Watch(context.Background())
		require.NoError(t, err)

		close(w.ch)
		_, err = s.Next(context.Background())
		assert.True(t, brokererrors.IsUnavailable(err))
	})

	t.Run("context", func(t *testing.T) {
		s, err := New(&fakeKV{}, newFakeWatcher(), testPrefix, nil).Watch(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = s.Next(ctx)
		assert.Equal(t, context.Canceled, err)
	})
}

func TestDialRequiresEndpoints(t *testing.T) {
	_, _, err := Dial(Config{}, nil)
	assert.True(t, brokererrors.IsInvalidArgument(err))
}

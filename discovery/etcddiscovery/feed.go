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

// Package etcddiscovery follows broker membership stored under an etcd key
// prefix.
//
// Every broker is one key below the prefix. Its value is the YAML (or JSON)
// encoding of a broker.Descriptor. When the value carries no id, the key
// suffix is used instead. Creating or updating a key is a JOIN, deleting it
// a LEAVE.
package etcddiscovery

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/discovery"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Getter reads a key range.
type Getter interface {
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
}

// Config configures an etcd connection.
type Config struct {
	Endpoints   []string      `config:"endpoints"`
	Prefix      string        `config:"prefix"`
	DialTimeout time.Duration `config:"dialTimeout"`
}

// DefaultPrefix is the key prefix brokers register under.
const DefaultPrefix = "/netifi/brokers/"

// Dial connects to etcd and returns a feed of cfg.Prefix along with the
// client, which the caller must close.
func Dial(cfg Config, logger *zap.Logger) (*Feed, *clientv3.Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, nil, brokererrors.InvalidArgumentErrorf("no etcd endpoints configured")
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, brokererrors.Wrapf(brokererrors.CodeUnavailable, err, "connect to etcd %v", cfg.Endpoints)
	}
	return New(client, client, cfg.Prefix, logger), client, nil
}

// Feed is a discovery.Feed over an etcd key prefix.
type Feed struct {
	kv      Getter
	watcher clientv3.Watcher
	prefix  string
	logger  *zap.Logger

	mu       sync.Mutex
	revision int64
}

var _ discovery.Feed = (*Feed)(nil)

// New returns a feed of the brokers under prefix.
func New(kv Getter, watcher clientv3.Watcher, prefix string, logger *zap.Logger) *Feed {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		kv:      kv,
		watcher: watcher,
		prefix:  prefix,
		logger:  logger.With(zap.String("prefix", prefix)),
	}
}

// Snapshot lists the brokers under the prefix and remembers the revision
// the next Watch starts after.
func (f *Feed) Snapshot(ctx context.Context) ([]broker.Descriptor, error) {
	resp, err := f.kv.Get(ctx, f.prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, brokererrors.Wrapf(brokererrors.CodeUnavailable, err, "list brokers under %q", f.prefix)
	}

	brokers := make([]broker.Descriptor, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		b, err := f.decode(kv)
		if err != nil {
			f.logger.Warn("skipping undecodable broker", zap.ByteString("key", kv.Key), zap.Error(err))
			continue
		}
		brokers = append(brokers, b)
	}

	f.mu.Lock()
	f.revision = resp.Header.Revision
	f.mu.Unlock()
	return brokers, nil
}

// Watch streams changes made after the last Snapshot.
func (f *Feed) Watch(ctx context.Context) (discovery.EventStream, error) {
	f.mu.Lock()
	next := f.revision + 1
	f.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	ch := f.watcher.Watch(clientv3.WithRequireLeader(ctx), f.prefix,
		clientv3.WithPrefix(),
		clientv3.WithPrevKV(),
		clientv3.WithRev(next),
	)
	return &stream{feed: f, ch: ch, cancel: cancel}, nil
}

func (f *Feed) decode(kv *mvccpb.KeyValue) (broker.Descriptor, error) {
	var b broker.Descriptor
	if err := yaml.Unmarshal(kv.Value, &b); err != nil {
		return broker.Descriptor{}, brokererrors.Wrapf(brokererrors.CodeDataLoss, err, "decode broker %q", kv.Key)
	}
	if b.ID == "" {
		b.ID = f.id(kv.Key)
	}
	return b, nil
}

func (f *Feed) id(key []byte) string {
	return strings.TrimPrefix(string(key), f.prefix)
}

// toEvent maps an etcd event to a membership event. ok is false for events
// that carry nothing usable.
func (f *Feed) toEvent(ev *clientv3.Event) (broker.Event, bool) {
	switch ev.Type {
	case mvccpb.PUT:
		b, err := f.decode(ev.Kv)
		if err != nil {
			f.logger.Warn("skipping undecodable broker", zap.ByteString("key", ev.Kv.Key), zap.Error(err))
			return broker.Event{}, false
		}
		return broker.Event{Type: broker.EventJoin, Broker: b}, true

	case mvccpb.DELETE:
		b := broker.Descriptor{ID: f.id(ev.Kv.Key)}
		if ev.PrevKv != nil {
			if prev, err := f.decode(ev.PrevKv); err == nil {
				b = prev
			}
		}
		return broker.Event{Type: broker.EventLeave, Broker: b}, true

	default:
		return broker.Event{Type: broker.EventUnknown}, true
	}
}

type stream struct {
	feed    *Feed
	ch      clientv3.WatchChan
	cancel  context.CancelFunc
	pending []broker.Event
}

func (s *stream) Next(ctx context.Context) (broker.Event, error) {
	for len(s.pending) == 0 {
		select {
		case resp, ok := <-s.ch:
			if !ok {
				return broker.Event{}, brokererrors.UnavailableErrorf("etcd watch of %q closed", s.feed.prefix)
			}
			if err := resp.Err(); err != nil {
				return broker.Event{}, brokererrors.Wrapf(brokererrors.CodeUnavailable, err, "etcd watch of %q", s.feed.prefix)
			}
			for _, ev := range resp.Events {
				if e, ok := s.feed.toEvent(ev); ok {
					s.pending = append(s.pending, e)
				}
			}
		case <-ctx.Done():
			return broker.Event{}, ctx.Err()
		}
	}

	ev := s.pending[0]
	s.pending = s.pending[1:]
	return ev, nil
}

func (s *stream) Close() error {
	s.cancel()
	return nil
}

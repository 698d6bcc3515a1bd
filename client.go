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

package netifi

import (
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/netifi/netifi-go/api/broker"
	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/discovery"
	"github.com/netifi/netifi-go/discovery/etcddiscovery"
	"github.com/netifi/netifi-go/frames"
	"github.com/netifi/netifi-go/peer/pool"
	"github.com/netifi/netifi-go/peer/reconnecting"
	"github.com/netifi/netifi-go/peer/supplier"
	"github.com/netifi/netifi-go/pkg/lifecycle"
	"github.com/netifi/netifi-go/tags"
	"github.com/netifi/netifi-go/transport/tcp"
	"github.com/netifi/netifi-go/transport/websocket"
	opentracing "github.com/opentracing/opentracing-go"
	"github.com/uber-go/tally"
	"go.uber.org/multierr"
	"go.uber.org/net/metrics"
	"go.uber.org/zap"
)

// DestinationTag is the tag that carries a client's destination.
const DestinationTag = "com.netifi.destination"

// Client is a client's presence in a broker cluster. It keeps a pool of
// broker connections in sync with discovery and hands out routed sockets.
type Client struct {
	once   *lifecycle.Once
	logger *zap.Logger
	tracer opentracing.Tracer

	group       string
	destination string
	tags        tags.Tags

	pool       *pool.Pool
	reconciler *discovery.Reconciler
	closers    []io.Closer

	closeOnce sync.Once
	closeErr  error
}

// New builds a Client from cfg. Call Start to begin discovery.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, brokererrors.Wrapf(brokererrors.CodeInvalidArgument, err, "invalid config")
	}

	var o options
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.tracer == nil {
		o.tracer = opentracing.GlobalTracer()
	}
	if o.meter == nil {
		o.meter = metrics.New().Scope()
	}
	if o.scope == nil {
		o.scope = tally.NoopScope
	}
	if o.feed == nil && o.strategy == nil &&
		len(cfg.Discovery.Etcd.Endpoints) == 0 && len(cfg.Discovery.Static.Addresses) == 0 {
		return nil, brokererrors.InvalidArgumentErrorf("no brokers configured: set discovery.static.addresses or discovery.etcd.endpoints")
	}

	destination := cfg.Destination
	if destination == "" {
		destination = uuid.New().String()
	}
	seed := cfg.ConnectionID
	if seed == "" {
		seed = uuid.New().String()
	}
	clientTags := tags.FromMap(cfg.Tags).With(DestinationTag, destination)
	token, err := cfg.accessToken()
	if err != nil {
		return nil, brokererrors.InvalidArgumentErrorf("%v", err)
	}

	logger := o.logger.With(zap.String("group", cfg.Group), zap.String("destination", destination))
	c := &Client{
		once:        lifecycle.NewOnce(),
		logger:      logger,
		tracer:      o.tracer,
		group:       cfg.Group,
		destination: destination,
		tags:        clientTags,
	}

	setup := frames.DestinationSetup{
		LocalAddress:    net.ParseIP(cfg.LocalAddress),
		Group:           cfg.Group,
		AccessKey:       cfg.AccessKey,
		AccessToken:     token,
		AdditionalFlags: cfg.AdditionalFlags,
		Tags:            clientTags,
	}
	setupFunc := func(index int) transport.Payload {
		s := setup
		s.ConnectionID = frames.ConnectionID(seed, index)
		return transport.Payload{Metadata: frames.EncodeDestinationSetup(s)}
	}

	t, selector := c.transport(cfg, o)
	seeds, err := discovery.ParseStaticList(cfg.Discovery.Static.Port, cfg.Discovery.Static.Addresses...)
	if err != nil {
		return nil, err
	}

	poolOpts := []pool.Option{
		pool.Size(cfg.PoolSize),
		pool.Effort(cfg.Effort),
		pool.Quantiles(cfg.Quantiles.Low, cfg.Quantiles.High),
		pool.AddressSelector(selector),
		pool.Setup(setupFunc),
		pool.Seeds(seeds...),
		pool.Logger(logger),
		pool.Meter(o.meter),
		pool.SupplierOptions(supplier.HalfLife(cfg.TransportHalfLife)),
	}
	if ka := cfg.KeepAlive; ka.Enabled {
		poolOpts = append(poolOpts, pool.MemberOptions(reconnecting.KeepAlive(reconnecting.KeepAliveConfig{
			Enabled:    true,
			TickPeriod: ka.TickPeriod,
			AckTimeout: ka.AckTimeout,
			MissedAcks: ka.MissedAcks,
		})))
	}
	c.pool = pool.New(t, poolOpts...)

	c.reconciler, err = c.newReconciler(cfg, o, seeds)
	if err != nil {
		_ = c.pool.Dispose()
		return nil, err
	}
	return c, nil
}

func (c *Client) transport(cfg Config, o options) (transport.Transport, broker.AddressSelector) {
	selector := broker.TCPAddress
	if cfg.Transport == transportWebSocket {
		selector = broker.WebSocketAddress
	}
	if o.transport != nil {
		return o.transport, selector
	}

	var h transport.Handler = transport.UnimplementedHandler{}
	if o.handler != nil {
		h = NewUnwrappingHandler(o.handler, c.logger)
	}
	if cfg.Transport == transportWebSocket {
		return websocket.NewTransport(websocket.Handler(h), websocket.Logger(c.logger)), selector
	}
	return tcp.NewTransport(tcp.Handler(h), tcp.Logger(c.logger)), selector
}

func (c *Client) newReconciler(cfg Config, o options, seeds discovery.StaticList) (*discovery.Reconciler, error) {
	strategy, err := cfg.Backoff.Strategy()
	if err != nil {
		return nil, brokererrors.InvalidArgumentErrorf("%v", err)
	}
	dopts := []discovery.Option{
		discovery.Logger(c.logger),
		discovery.Scope(o.scope),
		discovery.PollInterval(cfg.Discovery.PollInterval),
	}
	if strategy != nil {
		dopts = append(dopts, discovery.Backoff(strategy))
	}

	switch {
	case o.feed != nil:
		return discovery.NewPush(c.pool, o.feed, dopts...), nil
	case o.strategy != nil:
		return discovery.NewPull(c.pool, o.strategy, dopts...), nil
	case len(cfg.Discovery.Etcd.Endpoints) > 0:
		feed, client, err := etcddiscovery.Dial(cfg.Discovery.Etcd, c.logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, client)
		return discovery.NewPush(c.pool, feed, dopts...), nil
	default:
		return discovery.NewStatic(c.pool, seeds, dopts...), nil
	}
}

// Start starts discovery. The pool connects lazily on the first request.
func (c *Client) Start() error {
	return c.once.Start(func() error {
		c.logger.Info("registering with broker cluster")
		return c.reconciler.Start()
	})
}

// Stop stops discovery and closes every connection. A client that was
// never started is closed too.
func (c *Client) Stop() error {
	err := c.once.Stop(c.reconciler.Stop)
	c.closeOnce.Do(func() {
		c.closeErr = c.pool.Dispose()
		for _, closer := range c.closers {
			c.closeErr = multierr.Append(c.closeErr, closer.Close())
		}
	})
	return multierr.Append(err, c.closeErr)
}

// IsRunning returns whether the client is started and not stopped.
func (c *Client) IsRunning() bool {
	return c.once.IsRunning()
}

// Group returns the group of this client.
func (c *Client) Group() string { return c.group }

// Destination returns the destination of this client.
func (c *Client) Destination() string { return c.destination }

// Tags returns the tags this client registered with, including its
// destination.
func (c *Client) Tags() tags.Tags { return c.tags }

// Pool returns the connection pool of the client.
func (c *Client) Pool() *pool.Pool { return c.pool }

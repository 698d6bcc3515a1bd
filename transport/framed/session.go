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

package framed

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/internal/sampledlogger"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// FrameConn reads and writes whole frames. ReadFrame must return a buffer
// that the caller owns. WriteFrame is never called concurrently.
type FrameConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame([]byte) error
	Close() error
}

var _ transport.Conn = (*Session)(nil)

// Session multiplexes request streams over a FrameConn. The side that sent
// SETUP opens streams with odd ids and the other side with even ids.
type Session struct {
	fc      FrameConn
	handler transport.Handler
	logger  *zap.Logger
	// protocolErrors logs frames the peer should not have sent.
	protocolErrors *sampledlogger.SampledLogger
	client         bool

	nextID  atomic.Uint32
	pingSeq atomic.Uint64
	writeMu sync.Mutex

	mu       sync.Mutex
	outbound map[uint32]*queue
	inbound  map[uint32]*inboundStream
	pings    map[uint64]chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
	closed    atomic.Bool
}

// inboundStream is a request the peer opened on this session.
type inboundStream struct {
	cancel    context.CancelFunc
	cancelled atomic.Bool
	in        *queue // only for channels
}

func newSession(fc FrameConn, client bool, opts []Option) *Session {
	o := defaultOptions
	for _, opt := range opts {
		opt.apply(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.handler == nil {
		o.handler = transport.UnimplementedHandler{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		fc:       fc,
		handler:  o.handler,
		logger:   o.logger,
		client:   client,
		outbound: make(map[uint32]*queue),
		inbound:  make(map[uint32]*inboundStream),
		pings:    make(map[uint64]chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),

		protocolErrors: sampledlogger.New(o.logger),
	}
	if client {
		s.nextID.Store(1)
	} else {
		s.nextID.Store(2)
	}
	return s
}

// Client starts the requesting side of a session by sending setup.
func Client(fc FrameConn, setup transport.Payload, opts ...Option) (*Session, error) {
	s := newSession(fc, true, opts)
	if err := s.write(frame{kind: kindSetup, payload: setup}); err != nil {
		return nil, err
	}
	go s.readLoop()
	return s, nil
}

// Server starts the accepting side of a session. It reads the SETUP frame
// and returns its payload.
func Server(fc FrameConn, opts ...Option) (*Session, transport.Payload, error) {
	b, err := fc.ReadFrame()
	if err != nil {
		_ = fc.Close()
		return nil, transport.Payload{}, brokererrors.Wrapf(brokererrors.CodeUnavailable, err, "failed to read setup")
	}
	f, err := decodeFrame(b)
	if err != nil {
		_ = fc.Close()
		return nil, transport.Payload{}, err
	}
	if f.kind != kindSetup {
		_ = fc.Close()
		return nil, transport.Payload{}, brokererrors.InvalidArgumentErrorf("expected SETUP frame, got %v", f.kind)
	}

	s := newSession(fc, false, opts)
	go s.readLoop()
	return s, f.payload, nil
}

// local reports whether id belongs to a stream this side opened.
func (s *Session) local(id uint32) bool {
	return (id%2 == 1) == s.client
}

func (s *Session) write(f frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.closed.Load() {
		return brokererrors.UnavailableErrorf("connection is closed")
	}
	if err := s.fc.WriteFrame(f.encode()); err != nil {
		s.closeWithError(err)
		return brokererrors.Wrapf(brokererrors.CodeUnavailable, err, "failed to write %v frame", f.kind)
	}
	return nil
}

func (s *Session) readLoop() {
	for {
		b, err := s.fc.ReadFrame()
		if err != nil {
			s.closeWithError(err)
			return
		}
		f, err := decodeFrame(b)
		if err != nil {
			s.protocolErrors.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		s.dispatch(f)
	}
}

func (s *Session) dispatch(f frame) {
	switch f.kind {
	case kindKeepAlive:
		s.keepAliveReceived(f)
	case kindFireAndForget, kindRequestResponse, kindRequestStream, kindRequestChannel:
		if s.local(f.streamID) {
			s.protocolErrors.Warn("peer opened a stream with a local id",
				zap.Uint32("streamID", f.streamID), zap.Stringer("kind", f.kind))
			return
		}
		s.serve(f)
	case kindPayload, kindComplete, kindError, kindCancel:
		if s.local(f.streamID) {
			s.outboundFrame(f)
		} else {
			s.inboundFrame(f)
		}
	default:
		s.protocolErrors.Warn("unexpected frame", zap.Stringer("kind", f.kind), zap.Uint32("streamID", f.streamID))
	}
}

func (s *Session) keepAliveReceived(f frame) {
	if f.flags&flagRespond != 0 {
		echo := frame{kind: kindKeepAlive, payload: transport.Payload{Data: f.payload.Data}}
		// Writing from the read loop would stall it behind a slow peer.
		go func() { _ = s.write(echo) }()
		return
	}
	if len(f.payload.Data) != 8 {
		return
	}
	seq := binary.BigEndian.Uint64(f.payload.Data)
	s.mu.Lock()
	ch, ok := s.pings[seq]
	delete(s.pings, seq)
	s.mu.Unlock()
	if ok {
		close(ch)
	}
}

func (s *Session) outboundFrame(f frame) {
	s.mu.Lock()
	q, ok := s.outbound[f.streamID]
	if ok && f.kind != kindPayload {
		delete(s.outbound, f.streamID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	switch f.kind {
	case kindPayload:
		q.push(f.payload)
	case kindComplete:
		q.finish(nil)
	case kindError:
		q.finish(f.err())
	case kindCancel:
		q.finish(brokererrors.CancelledErrorf("stream %d cancelled by peer", f.streamID))
	}
}

func (s *Session) inboundFrame(f frame) {
	s.mu.Lock()
	st, ok := s.inbound[f.streamID]
	if ok && (f.kind == kindCancel || f.kind == kindError) {
		delete(s.inbound, f.streamID)
	}
	s.mu.Unlock()
	if !ok {
		return
	}

	switch f.kind {
	case kindPayload:
		if st.in != nil {
			st.in.push(f.payload)
		}
	case kindComplete:
		if st.in != nil {
			st.in.finish(nil)
		}
	case kindError:
		if st.in != nil {
			st.in.finish(f.err())
		}
		st.cancelled.Store(true)
		st.cancel()
	case kindCancel:
		if st.in != nil {
			st.in.finish(brokererrors.CancelledErrorf("stream %d cancelled by peer", f.streamID))
		}
		st.cancelled.Store(true)
		st.cancel()
	}
}

func (s *Session) serve(f frame) {
	id, p := f.streamID, f.payload
	ctx, cancel := context.WithCancel(s.ctx)

	if f.kind == kindFireAndForget {
		go func() {
			defer cancel()
			s.handler.FireAndForget(ctx, p)
		}()
		return
	}

	st := &inboundStream{cancel: cancel}
	if f.kind == kindRequestChannel {
		st.in = newQueue()
	}
	s.mu.Lock()
	s.inbound[id] = st
	s.mu.Unlock()

	out := &sender{s: s, id: id}
	go func() {
		defer cancel()
		defer s.removeInbound(id)

		var (
			res transport.Payload
			err error
		)
		switch f.kind {
		case kindRequestResponse:
			res, err = s.handler.RequestResponse(ctx, p)
		case kindRequestStream:
			err = s.handler.RequestStream(ctx, p, out)
		case kindRequestChannel:
			err = s.handler.RequestChannel(ctx, p, &inboundChannel{s: s, id: id, q: st.in}, out)
		}

		if st.cancelled.Load() {
			return
		}
		switch {
		case err != nil:
			_ = s.write(errorFrame(id, err))
		case f.kind == kindRequestResponse:
			_ = s.write(frame{streamID: id, kind: kindPayload, payload: res})
		default:
			_ = s.write(frame{streamID: id, kind: kindComplete})
		}
	}()
}

func (s *Session) removeInbound(id uint32) {
	s.mu.Lock()
	delete(s.inbound, id)
	s.mu.Unlock()
}

// open allocates a stream id and registers a queue for its responses.
func (s *Session) open() (uint32, *queue) {
	id := s.nextID.Add(2) - 2
	q := newQueue()
	s.mu.Lock()
	s.outbound[id] = q
	s.mu.Unlock()
	if s.closed.Load() {
		q.finish(brokererrors.UnavailableErrorf("connection is closed"))
	}
	return id, q
}

func (s *Session) forget(id uint32) {
	s.mu.Lock()
	delete(s.outbound, id)
	s.mu.Unlock()
}

// cancelStream stops a stream this side opened and tells the peer.
func (s *Session) cancelStream(id uint32, q *queue) {
	s.forget(id)
	if q.finish(brokererrors.CancelledErrorf("stream %d cancelled", id)) {
		_ = s.write(frame{streamID: id, kind: kindCancel})
	}
}

// FireAndForget sends p without waiting for the peer.
func (s *Session) FireAndForget(ctx context.Context, p transport.Payload) error {
	if err := ctx.Err(); err != nil {
		return brokererrors.CancelledErrorf("fire-and-forget: %v", err)
	}
	id := s.nextID.Add(2) - 2
	return s.write(frame{streamID: id, kind: kindFireAndForget, payload: p})
}

// RequestResponse sends p and waits for the first response.
func (s *Session) RequestResponse(ctx context.Context, p transport.Payload) (transport.Payload, error) {
	id, q := s.open()
	if err := s.write(frame{streamID: id, kind: kindRequestResponse, payload: p}); err != nil {
		s.forget(id)
		return transport.Payload{}, err
	}

	res, err := q.Recv(ctx)
	switch {
	case err == nil:
		s.forget(id)
		return res, nil
	case errors.Is(err, io.EOF):
		return transport.Payload{}, nil
	case ctx.Err() != nil:
		s.cancelStream(id, q)
		return transport.Payload{}, brokererrors.CancelledErrorf("request/response: %v", ctx.Err())
	default:
		return transport.Payload{}, err
	}
}

// RequestStream sends p and returns the stream of responses.
func (s *Session) RequestStream(ctx context.Context, p transport.Payload) (transport.Stream, error) {
	id, q := s.open()
	if err := s.write(frame{streamID: id, kind: kindRequestStream, payload: p}); err != nil {
		s.forget(id)
		return nil, err
	}
	return &outboundStream{s: s, id: id, q: q}, nil
}

// RequestChannel opens a channel whose first payload is p.
func (s *Session) RequestChannel(ctx context.Context, p transport.Payload) (transport.Channel, error) {
	id, q := s.open()
	if err := s.write(frame{streamID: id, kind: kindRequestChannel, payload: p}); err != nil {
		s.forget(id)
		return nil, err
	}
	return &outboundChannel{
		outboundStream: outboundStream{s: s, id: id, q: q},
		sender:         sender{s: s, id: id},
	}, nil
}

// KeepAlive sends a KEEPALIVE frame and waits for the peer to echo it.
func (s *Session) KeepAlive(ctx context.Context) error {
	seq := s.pingSeq.Inc()
	ack := make(chan struct{})
	s.mu.Lock()
	s.pings[seq] = ack
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pings, seq)
		s.mu.Unlock()
	}()

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, seq)
	if err := s.write(frame{kind: kindKeepAlive, flags: flagRespond, payload: transport.Payload{Data: data}}); err != nil {
		return err
	}

	select {
	case <-ack:
		return nil
	case <-s.done:
		return brokererrors.UnavailableErrorf("connection closed while waiting for keep-alive")
	case <-ctx.Done():
		return brokererrors.CancelledErrorf("keep-alive: %v", ctx.Err())
	}
}

// Availability is 1 while the session is open and 0 after.
func (s *Session) Availability() float64 {
	if s.closed.Load() {
		return 0
	}
	return 1
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close closes the session and the underlying FrameConn.
func (s *Session) Close() error {
	s.closeWithError(nil)
	return nil
}

func (s *Session) closeWithError(err error) {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.cancel()
		_ = s.fc.Close()

		if err != nil && !errors.Is(err, io.EOF) {
			s.logger.Info("connection closed", zap.Error(err))
		} else {
			s.logger.Debug("connection closed")
		}

		s.mu.Lock()
		outbound, inbound := s.outbound, s.inbound
		s.outbound = make(map[uint32]*queue)
		s.inbound = make(map[uint32]*inboundStream)
		s.mu.Unlock()

		for _, q := range outbound {
			q.finish(brokererrors.UnavailableErrorf("connection closed"))
		}
		for _, st := range inbound {
			st.cancelled.Store(true)
			if st.in != nil {
				st.in.finish(brokererrors.UnavailableErrorf("connection closed"))
			}
			st.cancel()
		}
	})
}

type outboundStream struct {
	s  *Session
	id uint32
	q  *queue
}

func (o *outboundStream) Recv(ctx context.Context) (transport.Payload, error) {
	p, err := o.q.Recv(ctx)
	if err != nil && ctx.Err() != nil {
		return p, brokererrors.CancelledErrorf("stream %d: %v", o.id, ctx.Err())
	}
	return p, err
}

func (o *outboundStream) Close() error {
	o.s.cancelStream(o.id, o.q)
	return nil
}

type outboundChannel struct {
	outboundStream
	sender

	closeSend sync.Once
}

func (c *outboundChannel) CloseSend() error {
	var err error
	c.closeSend.Do(func() {
		err = c.sender.s.write(frame{streamID: c.sender.id, kind: kindComplete})
	})
	return err
}

// sender writes PAYLOAD frames on one stream.
type sender struct {
	s  *Session
	id uint32
}

func (w *sender) Send(ctx context.Context, p transport.Payload) error {
	if err := ctx.Err(); err != nil {
		return brokererrors.CancelledErrorf("send on stream %d: %v", w.id, err)
	}
	return w.s.write(frame{streamID: w.id, kind: kindPayload, payload: p})
}

// inboundChannel is the receiving half of a channel the peer opened.
type inboundChannel struct {
	s  *Session
	id uint32
	q  *queue
}

func (c *inboundChannel) Recv(ctx context.Context) (transport.Payload, error) {
	return c.q.Recv(ctx)
}

func (c *inboundChannel) Close() error {
	if c.q.finish(brokererrors.CancelledErrorf("stream %d cancelled", c.id)) {
		_ = c.s.write(frame{streamID: c.id, kind: kindCancel})
	}
	return nil
}

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

// Package lifecycle provides an at-most-once start and stop helper for the
// long lived components of the broker client: the pool, the discovery
// reconciler and the client itself.
package lifecycle

import (
	"context"
	"errors"
	syncatomic "sync/atomic"

	"github.com/netifi/netifi-go/brokererrors"
	"go.uber.org/atomic"
)

// State is a point in the life of a component. States only move forward.
type State int32

const (
	// Idle means neither Start nor Stop has been called.
	Idle State = iota
	// Starting means the start function is running.
	Starting
	// Running means the start function returned successfully.
	Running
	// Stopping means the stop function is running.
	Stopping
	// Stopped is terminal.
	Stopped
	// Errored is terminal and means start or stop failed.
	Errored
)

var _stateNames = map[State]string{
	Idle:     "idle",
	Starting: "starting",
	Running:  "running",
	Stopping: "stopping",
	Stopped:  "stopped",
	Errored:  "errored",
}

func (s State) String() string {
	if name, ok := _stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Once runs a start function and a stop function at most once each, from
// any number of goroutines.
//
//   - Start blocks until the state is at least Running.
//   - Stop blocks until the state is Stopped or Errored.
//   - Stop before Start skips the start function entirely.
type Once struct {
	startCh    chan struct{}
	stoppingCh chan struct{}
	stopCh     chan struct{}

	// err is written only by the goroutine that won the transition, before
	// the matching channel is closed.
	err   syncatomic.Value
	state atomic.Int32
}

// NewOnce returns an Idle lifecycle.
func NewOnce() *Once {
	return &Once{
		startCh:    make(chan struct{}),
		stoppingCh: make(chan struct{}),
		stopCh:     make(chan struct{}),
	}
}

// Start runs f if this is the first call to Start and Stop has not been
// called. Every call returns the error of the first one.
func (o *Once) Start(f func() error) error {
	if !o.state.CAS(int32(Idle), int32(Starting)) {
		<-o.startCh
		return o.loadError()
	}

	var err error
	if f != nil {
		err = f()
	}
	if err != nil {
		o.err.Store(err)
		o.state.Store(int32(Errored))
		close(o.stoppingCh)
		close(o.stopCh)
	} else {
		o.state.Store(int32(Running))
	}
	close(o.startCh)
	return err
}

// WaitUntilRunning blocks until the component is running or ctx ends.
func (o *Once) WaitUntilRunning(ctx context.Context) error {
	state := o.State()
	if state == Running {
		return nil
	}
	if state > Running {
		return brokererrors.FailedPreconditionErrorf(
			"could not wait for instance to start running: current state is %q", state)
	}

	select {
	case <-o.startCh:
		if state := o.State(); state != Running {
			return brokererrors.FailedPreconditionErrorf(
				"instance did not enter running state, current state is %q", state)
		}
		return nil
	case <-ctx.Done():
		return brokererrors.CancelledErrorf(
			"context finished while waiting for instance to start: %v", ctx.Err())
	}
}

// Stop runs f if the component is running and this is the first call to
// Stop. Every call returns the error of the first one.
func (o *Once) Stop(f func() error) error {
	if o.state.CAS(int32(Idle), int32(Stopped)) {
		close(o.startCh)
		close(o.stoppingCh)
		close(o.stopCh)
		return nil
	}

	<-o.startCh

	if !o.state.CAS(int32(Running), int32(Stopping)) {
		<-o.stopCh
		return o.loadError()
	}

	close(o.stoppingCh)
	var err error
	if f != nil {
		err = f()
	}
	if err != nil {
		o.err.Store(err)
		o.state.Store(int32(Errored))
	} else {
		o.state.Store(int32(Stopped))
	}
	close(o.stopCh)
	return err
}

// Started closes once the component is running or beyond.
func (o *Once) Started() <-chan struct{} { return o.startCh }

// Stopping closes once Stop has begun.
func (o *Once) Stopping() <-chan struct{} { return o.stoppingCh }

// Stopped closes once the component reached a terminal state.
func (o *Once) Stopped() <-chan struct{} { return o.stopCh }

// State returns a state the component has at least reached.
func (o *Once) State() State {
	return State(o.state.Load())
}

// IsRunning reports whether the component is currently running.
func (o *Once) IsRunning() bool {
	return o.State() == Running
}

func (o *Once) loadError() error {
	v := o.err.Load()
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return err
	}
	return errors.New("lifecycle error was not an error value")
}

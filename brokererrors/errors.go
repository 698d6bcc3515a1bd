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

// Package brokererrors contains the coded error statuses returned by the
// broker client.
//
// Every error produced by the pool, the routing frame codec and the
// transports is a *Status, so callers can branch on Code without matching
// strings:
//
//	if brokererrors.FromError(err).Code() == brokererrors.CodeFailedPrecondition {
//		// the client was disposed
//	}
package brokererrors

import (
	"bytes"
	"errors"
	"fmt"
)

// Newf returns a new Status.
//
// The Code should never be CodeOK, if it is, this will return nil.
func Newf(code Code, format string, args ...interface{}) *Status {
	if code == CodeOK {
		return nil
	}

	var err error
	if len(args) == 0 {
		err = errors.New(format)
	} else {
		err = fmt.Errorf(format, args...)
	}

	return &Status{
		code: code,
		err:  err,
	}
}

// Wrapf returns a new Status with the given code wrapping err, so that
// errors.Is and errors.As see through it.
func Wrapf(code Code, err error, format string, args ...interface{}) *Status {
	if code == CodeOK || err == nil {
		return nil
	}
	return &Status{
		code: code,
		err:  fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err),
	}
}

// FromError returns the Status for the provided error.
//
// If the error:
//   - is nil, return nil
//   - is or wraps a 'Status', return the 'Status'
//
// Otherwise, return a wrapped error with code 'CodeUnknown'.
func FromError(err error) *Status {
	if err == nil {
		return nil
	}
	var st *Status
	if errors.As(err, &st) {
		return st
	}
	return &Status{
		code: CodeUnknown,
		err:  &wrapError{err: err},
	}
}

// IsStatus returns whether the provided error is, or wraps, a Status.
func IsStatus(err error) bool {
	var st *Status
	return errors.As(err, &st)
}

// Status represents a broker client error.
type Status struct {
	code Code
	err  error
}

// Code returns the error code for this Status.
func (s *Status) Code() Code {
	if s == nil {
		return CodeOK
	}
	return s.code
}

// Message returns the error message for this Status.
func (s *Status) Message() string {
	if s == nil {
		return ""
	}
	return s.err.Error()
}

// Unwrap supports errors.Unwrap.
func (s *Status) Unwrap() error {
	if s == nil {
		return nil
	}
	return errors.Unwrap(s.err)
}

// Error implements the error interface.
func (s *Status) Error() string {
	buffer := bytes.NewBuffer(nil)
	_, _ = buffer.WriteString(`code:`)
	_, _ = buffer.WriteString(s.code.String())
	if s.err != nil && s.err.Error() != "" {
		_, _ = buffer.WriteString(` message:`)
		_, _ = buffer.WriteString(s.err.Error())
	}
	return buffer.String()
}

type wrapError struct {
	err error
}

func (e *wrapError) Error() string {
	if e == nil || e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *wrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

// CancelledErrorf returns a new Status with code CodeCancelled.
func CancelledErrorf(format string, args ...interface{}) error {
	return Newf(CodeCancelled, format, args...)
}

// InvalidArgumentErrorf returns a new Status with code CodeInvalidArgument.
func InvalidArgumentErrorf(format string, args ...interface{}) error {
	return Newf(CodeInvalidArgument, format, args...)
}

// FailedPreconditionErrorf returns a new Status with code
// CodeFailedPrecondition.
func FailedPreconditionErrorf(format string, args ...interface{}) error {
	return Newf(CodeFailedPrecondition, format, args...)
}

// UnimplementedErrorf returns a new Status with code CodeUnimplemented.
func UnimplementedErrorf(format string, args ...interface{}) error {
	return Newf(CodeUnimplemented, format, args...)
}

// InternalErrorf returns a new Status with code CodeInternal.
func InternalErrorf(format string, args ...interface{}) error {
	return Newf(CodeInternal, format, args...)
}

// UnavailableErrorf returns a new Status with code CodeUnavailable.
func UnavailableErrorf(format string, args ...interface{}) error {
	return Newf(CodeUnavailable, format, args...)
}

// DataLossErrorf returns a new Status with code CodeDataLoss.
func DataLossErrorf(format string, args ...interface{}) error {
	return Newf(CodeDataLoss, format, args...)
}

// DisposedErrorf returns the error returned by every operation attempted
// after the named component has been disposed.
func DisposedErrorf(format string, args ...interface{}) error {
	return Newf(CodeFailedPrecondition, format+" is disposed", args...)
}

// IsFailedPrecondition returns true if FromError(err).Code() is
// CodeFailedPrecondition.
func IsFailedPrecondition(err error) bool {
	return FromError(err).Code() == CodeFailedPrecondition
}

// IsUnavailable returns true if FromError(err).Code() is CodeUnavailable.
func IsUnavailable(err error) bool {
	return FromError(err).Code() == CodeUnavailable
}

// IsDataLoss returns true if FromError(err).Code() is CodeDataLoss.
func IsDataLoss(err error) bool {
	return FromError(err).Code() == CodeDataLoss
}

// IsInvalidArgument returns true if FromError(err).Code() is
// CodeInvalidArgument.
func IsInvalidArgument(err error) bool {
	return FromError(err).Code() == CodeInvalidArgument
}

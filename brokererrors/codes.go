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

package brokererrors

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CodeOK means no error.
	CodeOK Code = 0

	// CodeCancelled means the caller abandoned the operation.
	CodeCancelled Code = 1

	// CodeUnknown is used for errors that carry no status of their own.
	CodeUnknown Code = 2

	// CodeInvalidArgument means the input is problematic regardless of the
	// state of the system, e.g. a routing frame of an unknown type.
	CodeInvalidArgument Code = 3

	// CodeDeadlineExceeded means the deadline expired before the operation
	// completed.
	CodeDeadlineExceeded Code = 4

	// CodeFailedPrecondition means the component is not in a state that
	// permits the operation, most notably after it has been disposed.
	CodeFailedPrecondition Code = 9

	// CodeUnimplemented means the operation is not supported by the
	// connection or transport.
	CodeUnimplemented Code = 12

	// CodeInternal means an invariant of the client was broken.
	CodeInternal Code = 13

	// CodeUnavailable means no broker could be reached. Retrying with a
	// backoff may succeed.
	CodeUnavailable Code = 14

	// CodeDataLoss means a frame was truncated or its length prefixes point
	// past the end of the buffer.
	CodeDataLoss Code = 15

	// CodeUnauthenticated means the broker rejected the access key or token.
	CodeUnauthenticated Code = 16
)

var (
	_codeToString = map[Code]string{
		CodeOK:                 "ok",
		CodeCancelled:          "cancelled",
		CodeUnknown:            "unknown",
		CodeInvalidArgument:    "invalid-argument",
		CodeDeadlineExceeded:   "deadline-exceeded",
		CodeFailedPrecondition: "failed-precondition",
		CodeUnimplemented:      "unimplemented",
		CodeInternal:           "internal",
		CodeUnavailable:        "unavailable",
		CodeDataLoss:           "data-loss",
		CodeUnauthenticated:    "unauthenticated",
	}
	_stringToCode = map[string]Code{
		"ok":                  CodeOK,
		"cancelled":           CodeCancelled,
		"unknown":             CodeUnknown,
		"invalid-argument":    CodeInvalidArgument,
		"deadline-exceeded":   CodeDeadlineExceeded,
		"failed-precondition": CodeFailedPrecondition,
		"unimplemented":       CodeUnimplemented,
		"internal":            CodeInternal,
		"unavailable":         CodeUnavailable,
		"data-loss":           CodeDataLoss,
		"unauthenticated":     CodeUnauthenticated,
	}
)

// Code classifies an error raised by the broker client or carried back from
// a broker in an error frame.
//
// The numeric values match gRPC status codes so they survive a round trip
// through transports that speak them.
type Code int

// String returns the string representation of the Code.
func (c Code) String() string {
	s, ok := _codeToString[c]
	if ok {
		return s
	}
	return strconv.Itoa(int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Code) MarshalText() ([]byte, error) {
	s, ok := _codeToString[c]
	if ok {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("unknown code: %d", int(c))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Code) UnmarshalText(text []byte) error {
	i, ok := _stringToCode[strings.ToLower(string(text))]
	if !ok {
		return fmt.Errorf("unknown code string: %s", string(text))
	}
	*c = i
	return nil
}

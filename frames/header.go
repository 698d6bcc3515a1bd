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

package frames

import (
	"encoding/binary"
	"strconv"

	"github.com/netifi/netifi-go/brokererrors"
)

const (
	// MajorVersion is the major version written into every frame header.
	MajorVersion uint16 = 1
	// MinorVersion is the minor version written into every frame header.
	MinorVersion uint16 = 0

	// HeaderSize is the size in bytes of the frame header.
	HeaderSize = 6
)

// FrameType identifies the layout of the bytes following the header.
type FrameType uint16

const (
	// FrameTypeUndefined is the zero value and never valid on the wire.
	FrameTypeUndefined FrameType = 0x00
	// FrameTypeBrokerSetup is exchanged between brokers only.
	FrameTypeBrokerSetup FrameType = 0x01
	// FrameTypeDestinationSetup is the first frame a client sends on a new
	// connection to identify itself.
	FrameTypeDestinationSetup FrameType = 0x02
	// FrameTypeGroup routes a request to one member of a group.
	FrameTypeGroup FrameType = 0x03
	// FrameTypeBroadcast routes a request to every member of a group.
	FrameTypeBroadcast FrameType = 0x04
	// FrameTypeShard routes a request to the group member owning a shard key.
	FrameTypeShard FrameType = 0x05
	// FrameTypeAuthorizationWrapper carries credentials around another frame.
	FrameTypeAuthorizationWrapper FrameType = 0x06
)

var _frameTypeToString = map[FrameType]string{
	FrameTypeUndefined:            "UNDEFINED",
	FrameTypeBrokerSetup:          "BROKER_SETUP",
	FrameTypeDestinationSetup:     "DESTINATION_SETUP",
	FrameTypeGroup:                "GROUP",
	FrameTypeBroadcast:            "BROADCAST",
	FrameTypeShard:                "SHARD",
	FrameTypeAuthorizationWrapper: "AUTHORIZATION_WRAPPER",
}

// String returns the wire name of the frame type.
func (t FrameType) String() string {
	if s, ok := _frameTypeToString[t]; ok {
		return s
	}
	return "FrameType(" + strconv.Itoa(int(t)) + ")"
}

// Header is the decoded fixed-width frame header.
type Header struct {
	MajorVersion uint16
	MinorVersion uint16
	Type         FrameType
}

// DecodeHeader reads the header at the start of a frame.
func DecodeHeader(frame []byte) (Header, error) {
	if len(frame) < HeaderSize {
		return Header{}, brokererrors.DataLossErrorf(
			"frame header truncated: need %d bytes, have %d", HeaderSize, len(frame))
	}
	return Header{
		MajorVersion: binary.BigEndian.Uint16(frame[0:]),
		MinorVersion: binary.BigEndian.Uint16(frame[2:]),
		Type:         FrameType(binary.BigEndian.Uint16(frame[4:])),
	}, nil
}

// FrameTypeOf returns the type recorded in the frame header.
func FrameTypeOf(frame []byte) (FrameType, error) {
	h, err := DecodeHeader(frame)
	if err != nil {
		return FrameTypeUndefined, err
	}
	return h.Type, nil
}

// putHeader writes a header for the given type into out and returns the
// number of bytes written.
func putHeader(out []byte, t FrameType) int {
	binary.BigEndian.PutUint16(out[0:], MajorVersion)
	binary.BigEndian.PutUint16(out[2:], MinorVersion)
	binary.BigEndian.PutUint16(out[4:], uint16(t))
	return HeaderSize
}

// expectType decodes the header and fails unless it carries the wanted type.
func expectType(frame []byte, want FrameType) error {
	got, err := FrameTypeOf(frame)
	if err != nil {
		return err
	}
	if got != want {
		return brokererrors.InvalidArgumentErrorf("expected %v frame, got %v", want, got)
	}
	return nil
}

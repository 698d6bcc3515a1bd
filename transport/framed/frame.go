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
	"encoding/binary"
	"fmt"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
)

// kind identifies what a frame does.
type kind uint8

const (
	kindSetup kind = iota + 1
	kindFireAndForget
	kindRequestResponse
	kindRequestStream
	kindRequestChannel
	kindPayload
	kindComplete
	kindError
	kindCancel
	kindKeepAlive
)

var kindNames = map[kind]string{
	kindSetup:           "SETUP",
	kindFireAndForget:   "FIRE_AND_FORGET",
	kindRequestResponse: "REQUEST_RESPONSE",
	kindRequestStream:   "REQUEST_STREAM",
	kindRequestChannel:  "REQUEST_CHANNEL",
	kindPayload:         "PAYLOAD",
	kindComplete:        "COMPLETE",
	kindError:           "ERROR",
	kindCancel:          "CANCEL",
	kindKeepAlive:       "KEEPALIVE",
}

func (k kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// carriesPayload reports whether frames of kind k carry metadata and data.
func (k kind) carriesPayload() bool {
	switch k {
	case kindSetup, kindFireAndForget, kindRequestResponse, kindRequestStream,
		kindRequestChannel, kindPayload, kindKeepAlive:
		return true
	default:
		return false
	}
}

// flagRespond on a KEEPALIVE frame asks the peer to echo it.
const flagRespond uint8 = 1

const headerSize = 6

// frame is the unit of the multiplexing protocol:
//
//	streamID:u32 kind:u8 flags:u8 body
//
// Payload-carrying kinds have a body of metadataLen:u32 metadata data.
// ERROR frames have a body of code:u16 message. COMPLETE and CANCEL frames
// have no body.
type frame struct {
	streamID uint32
	kind     kind
	flags    uint8
	payload  transport.Payload
	code     brokererrors.Code
	message  string
}

func errorFrame(streamID uint32, err error) frame {
	st := brokererrors.FromError(err)
	return frame{
		streamID: streamID,
		kind:     kindError,
		code:     st.Code(),
		message:  st.Message(),
	}
}

// err returns the error carried by an ERROR frame.
func (f frame) err() error {
	return brokererrors.Newf(f.code, "%s", f.message)
}

func (f frame) encode() []byte {
	size := headerSize
	switch {
	case f.kind.carriesPayload():
		size += 4 + len(f.payload.Metadata) + len(f.payload.Data)
	case f.kind == kindError:
		size += 2 + len(f.message)
	}

	b := make([]byte, size)
	binary.BigEndian.PutUint32(b, f.streamID)
	b[4] = byte(f.kind)
	b[5] = f.flags

	body := b[headerSize:]
	switch {
	case f.kind.carriesPayload():
		binary.BigEndian.PutUint32(body, uint32(len(f.payload.Metadata)))
		n := copy(body[4:], f.payload.Metadata)
		copy(body[4+n:], f.payload.Data)
	case f.kind == kindError:
		binary.BigEndian.PutUint16(body, uint16(f.code))
		copy(body[2:], f.message)
	}
	return b
}

// decodeFrame parses b. The returned payload aliases b.
func decodeFrame(b []byte) (frame, error) {
	if len(b) < headerSize {
		return frame{}, brokererrors.DataLossErrorf("frame truncated: %d bytes", len(b))
	}
	f := frame{
		streamID: binary.BigEndian.Uint32(b),
		kind:     kind(b[4]),
		flags:    b[5],
	}
	if _, ok := kindNames[f.kind]; !ok {
		return f, brokererrors.InvalidArgumentErrorf("unknown frame kind %v on stream %d", f.kind, f.streamID)
	}

	body := b[headerSize:]
	switch {
	case f.kind.carriesPayload():
		if len(body) < 4 {
			return f, brokererrors.DataLossErrorf("%v frame truncated: no metadata length", f.kind)
		}
		n := binary.BigEndian.Uint32(body)
		if uint64(n) > uint64(len(body)-4) {
			return f, brokererrors.DataLossErrorf("%v frame truncated: metadata length %d exceeds %d bytes", f.kind, n, len(body)-4)
		}
		f.payload.Metadata = body[4 : 4+n : 4+n]
		f.payload.Data = body[4+n:]
	case f.kind == kindError:
		if len(body) < 2 {
			return f, brokererrors.DataLossErrorf("ERROR frame truncated: no code")
		}
		f.code = brokererrors.Code(binary.BigEndian.Uint16(body))
		f.message = string(body[2:])
	}
	return f, nil
}

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
	"testing"

	"github.com/netifi/netifi-go/api/transport"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameLayout(t *testing.T) {
	b := frame{
		streamID: 7,
		kind:     kindPayload,
		payload:  transport.Payload{Metadata: []byte("md"), Data: []byte("data")},
	}.encode()

	assert.Equal(t, []byte{
		0, 0, 0, 7, // stream id
		byte(kindPayload), 0,
		0, 0, 0, 2, 'm', 'd',
		'd', 'a', 't', 'a',
	}, b)

	f, err := decodeFrame(b)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), f.streamID)
	assert.Equal(t, "md", string(f.payload.Metadata))
	assert.Equal(t, "data", string(f.payload.Data))
}

func TestErrorFrameKeepsCode(t *testing.T) {
	f, err := decodeFrame(errorFrame(3, brokererrors.UnavailableErrorf("no brokers")).encode())
	require.NoError(t, err)
	assert.Equal(t, kindError, f.kind)

	st := brokererrors.FromError(f.err())
	assert.Equal(t, brokererrors.CodeUnavailable, st.Code())
	assert.Equal(t, "no brokers", st.Message())
}

func TestDecodeFrameErrors(t *testing.T) {
	tests := []struct {
		desc  string
		give  []byte
		check func(error) bool
	}{
		{
			desc:  "short header",
			give:  []byte{0, 0, 0, 1, byte(kindPayload)},
			check: brokererrors.IsDataLoss,
		},
		{
			desc:  "unknown kind",
			give:  []byte{0, 0, 0, 1, 200, 0},
			check: brokererrors.IsInvalidArgument,
		},
		{
			desc:  "missing metadata length",
			give:  []byte{0, 0, 0, 1, byte(kindPayload), 0, 0, 0},
			check: brokererrors.IsDataLoss,
		},
		{
			desc:  "metadata longer than frame",
			give:  []byte{0, 0, 0, 1, byte(kindPayload), 0, 0, 0, 0, 9, 'x'},
			check: brokererrors.IsDataLoss,
		},
		{
			desc:  "error without code",
			give:  []byte{0, 0, 0, 1, byte(kindError), 0, 1},
			check: brokererrors.IsDataLoss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			_, err := decodeFrame(tt.give)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "REQUEST_CHANNEL", kindRequestChannel.String())
	assert.Equal(t, "kind(99)", kind(99).String())
}

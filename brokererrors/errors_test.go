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
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewfOK(t *testing.T) {
	assert.Nil(t, Newf(CodeOK, "nothing"))
	assert.Nil(t, Wrapf(CodeOK, io.EOF, "nothing"))
	assert.Nil(t, Wrapf(CodeUnavailable, nil, "nothing"))
}

func TestErrorString(t *testing.T) {
	err := Newf(CodeDataLoss, "frame truncated at offset %d", 12)
	assert.Equal(t, "code:data-loss message:frame truncated at offset 12", err.Error())
	assert.Equal(t, CodeDataLoss, err.Code())
	assert.Equal(t, "frame truncated at offset 12", err.Message())
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	st := FromError(io.EOF)
	require.NotNil(t, st)
	assert.Equal(t, CodeUnknown, st.Code())
	assert.True(t, errors.Is(st, io.EOF))

	wrapped := Wrapf(CodeUnavailable, io.ErrUnexpectedEOF, "dial %q", "broker-1")
	assert.True(t, errors.Is(wrapped, io.ErrUnexpectedEOF))
	assert.True(t, IsUnavailable(wrapped))
	assert.Equal(t, `code:unavailable message:dial "broker-1": unexpected EOF`, wrapped.Error())
}

func TestPredicates(t *testing.T) {
	assert.True(t, IsFailedPrecondition(DisposedErrorf("pool %q", "p")))
	assert.Equal(t, `code:failed-precondition message:pool "p" is disposed`, DisposedErrorf("pool %q", "p").Error())
	assert.True(t, IsDataLoss(DataLossErrorf("short")))
	assert.True(t, IsInvalidArgument(InvalidArgumentErrorf("bad")))
	assert.False(t, IsUnavailable(errors.New("plain")))
	assert.True(t, IsStatus(UnimplementedErrorf("nope")))
	assert.False(t, IsStatus(errors.New("plain")))
}

func TestCodeText(t *testing.T) {
	for code, name := range _codeToString {
		text, err := code.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, name, string(text))

		var back Code
		require.NoError(t, back.UnmarshalText([]byte(name)))
		assert.Equal(t, code, back)
	}

	var c Code
	assert.Error(t, c.UnmarshalText([]byte("bogus")))
	_, err := Code(99).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "99", Code(99).String())
}

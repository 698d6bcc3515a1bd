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

// AuthorizationWrapper carries an access key and token around another
// routing frame.
type AuthorizationWrapper struct {
	AccessKey   uint64
	AccessToken []byte
	// Inner is the wrapped frame, itself starting with a frame header.
	Inner []byte
}

// EncodeAuthorizationWrapper encodes an AUTHORIZATION_WRAPPER frame.
func EncodeAuthorizationWrapper(a AuthorizationWrapper) []byte {
	w := newWriter(FrameTypeAuthorizationWrapper, 8+4+len(a.AccessToken)+len(a.Inner))
	w.putUint64(a.AccessKey)
	w.putBytes(a.AccessToken)
	w.putRaw(a.Inner)
	return w.buf
}

// DecodeAuthorizationWrapper decodes an AUTHORIZATION_WRAPPER frame. The
// inner frame is returned as-is; use Unwrap to reach the routed metadata.
func DecodeAuthorizationWrapper(frame []byte) (AuthorizationWrapper, error) {
	if err := expectType(frame, FrameTypeAuthorizationWrapper); err != nil {
		return AuthorizationWrapper{}, err
	}

	r := newReader(frame, FrameTypeAuthorizationWrapper)
	var a AuthorizationWrapper
	a.AccessKey = r.uint64()
	a.AccessToken = r.bytes()
	a.Inner = r.rest()
	if err := r.Err(); err != nil {
		return AuthorizationWrapper{}, err
	}
	return a, nil
}

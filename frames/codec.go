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

	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/tags"
)

// writer fills a buffer that was sized up front. It never grows the buffer.
type writer struct {
	buf []byte
	off int
}

func newWriter(t FrameType, size int) *writer {
	w := &writer{buf: make([]byte, HeaderSize+size)}
	w.off = putHeader(w.buf, t)
	return w
}

func (w *writer) putUint16(v uint16) {
	binary.BigEndian.PutUint16(w.buf[w.off:], v)
	w.off += 2
}

func (w *writer) putUint64(v uint64) {
	binary.BigEndian.PutUint64(w.buf[w.off:], v)
	w.off += 8
}

func (w *writer) putRaw(b []byte) {
	w.off += copy(w.buf[w.off:], b)
}

// putBytes writes b using the encoding b~4.
func (w *writer) putBytes(b []byte) {
	binary.BigEndian.PutUint32(w.buf[w.off:], uint32(len(b)))
	w.off += 4
	w.off += copy(w.buf[w.off:], b)
}

// putString writes s using the encoding s~4.
func (w *writer) putString(s string) {
	binary.BigEndian.PutUint32(w.buf[w.off:], uint32(len(s)))
	w.off += 4
	w.off += copy(w.buf[w.off:], s)
}

func (w *writer) putTags(ts tags.Tags) {
	for _, t := range ts {
		w.putString(t.Key)
		w.putString(t.Value)
	}
}

// tagsSize is the encoded size of a tag region.
func tagsSize(ts tags.Tags) int {
	n := 0
	for _, t := range ts {
		n += 4 + len(t.Key) + 4 + len(t.Value)
	}
	return n
}

// reader walks a frame body. The first out-of-bounds read records an error
// and turns every later read into a no-op, so callers only check Err once.
type reader struct {
	frameType FrameType
	buf       []byte
	off       int
	err       error
}

func newReader(frame []byte, t FrameType) *reader {
	return &reader{frameType: t, buf: frame, off: HeaderSize}
}

func (r *reader) fail(need uint64) {
	r.err = brokererrors.DataLossErrorf(
		"%v frame truncated: need %d bytes at offset %d, have %d",
		r.frameType, need, r.off, len(r.buf)-r.off)
}

func (r *reader) take(n uint64) []byte {
	if r.err != nil {
		return nil
	}
	if n > uint64(len(r.buf)-r.off) {
		r.fail(n)
		return nil
	}
	b := r.buf[r.off : r.off+int(n) : r.off+int(n)]
	r.off += int(n)
	return b
}

func (r *reader) uint16() uint16 {
	if b := r.take(2); b != nil {
		return binary.BigEndian.Uint16(b)
	}
	return 0
}

func (r *reader) uint32() uint32 {
	if b := r.take(4); b != nil {
		return binary.BigEndian.Uint32(b)
	}
	return 0
}

func (r *reader) uint64() uint64 {
	if b := r.take(8); b != nil {
		return binary.BigEndian.Uint64(b)
	}
	return 0
}

// bytes reads a b~4 field as a sub-slice of the frame.
func (r *reader) bytes() []byte {
	n := r.uint32()
	return r.take(uint64(n))
}

// string reads a s~4 field.
func (r *reader) string() string {
	return string(r.bytes())
}

// skip advances past a b~4 field without materializing it.
func (r *reader) skip() {
	r.bytes()
}

func (r *reader) remaining() int {
	if r.err != nil {
		return 0
	}
	return len(r.buf) - r.off
}

// rest returns everything after the current offset.
func (r *reader) rest() []byte {
	if r.err != nil {
		return nil
	}
	b := r.buf[r.off:len(r.buf):len(r.buf)]
	r.off = len(r.buf)
	return b
}

// tags reads key/value pairs until the frame is exhausted.
func (r *reader) tags() tags.Tags {
	ts := tags.Tags{}
	for r.err == nil && r.remaining() > 0 {
		k := r.string()
		v := r.string()
		if r.err == nil {
			ts = append(ts, tags.Tag{Key: k, Value: v})
		}
	}
	return ts
}

func (r *reader) Err() error {
	return r.err
}

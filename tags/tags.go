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

// Package tags provides the ordered key/value tag set carried by routing
// frames and destination setup frames.
//
// Keys need not be unique. The order in which tags are added is preserved so
// that a decoded frame re-encodes to the same bytes, but Equal ignores order.
package tags

import (
	"sort"
	"strings"
)

// Tag is a single key/value pair.
type Tag struct {
	Key   string
	Value string
}

// String returns "key=value".
func (t Tag) String() string {
	return t.Key + "=" + t.Value
}

// Tags is an ordered collection of tags.
type Tags []Tag

// Empty returns a tag set with no tags.
func Empty() Tags { return Tags{} }

// Of builds a tag set from alternating keys and values.
//
//	tags.Of("region", "us-west", "zone", "a")
//
// A trailing key without a value is paired with the empty string.
func Of(kv ...string) Tags {
	ts := make(Tags, 0, (len(kv)+1)/2)
	for i := 0; i < len(kv); i += 2 {
		t := Tag{Key: kv[i]}
		if i+1 < len(kv) {
			t.Value = kv[i+1]
		}
		ts = append(ts, t)
	}
	return ts
}

// FromMap builds a tag set from a map. Keys are sorted so the result is
// deterministic.
func FromMap(m map[string]string) Tags {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ts := make(Tags, 0, len(m))
	for _, k := range keys {
		ts = append(ts, Tag{Key: k, Value: m[k]})
	}
	return ts
}

// With returns a copy of the tag set with the given tag appended.
func (ts Tags) With(key, value string) Tags {
	out := make(Tags, len(ts), len(ts)+1)
	copy(out, ts)
	return append(out, Tag{Key: key, Value: value})
}

// Get returns the value of the first tag with the given key.
func (ts Tags) Get(key string) (string, bool) {
	for _, t := range ts {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}

// Equal reports whether both sets hold the same tags, ignoring order.
func (ts Tags) Equal(other Tags) bool {
	if len(ts) != len(other) {
		return false
	}
	counts := make(map[Tag]int, len(ts))
	for _, t := range ts {
		counts[t]++
	}
	for _, t := range other {
		if counts[t] == 0 {
			return false
		}
		counts[t]--
	}
	return true
}

// String returns the tags as a comma separated list.
func (ts Tags) String() string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

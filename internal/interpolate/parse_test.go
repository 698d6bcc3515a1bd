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

package interpolate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapResolver(m map[string]string) VariableResolver {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		give string
		want String
	}{
		{give: "foo", want: String{literal("foo")}},
		{
			give: "brokers ${HOST} port",
			want: String{literal("brokers "), variable{Name: "HOST"}, literal(" port")},
		},
		{give: "$ {x}", want: String{literal("$ {x}")}},
		{
			give: "${TOKEN:}",
			want: String{variable{Name: "TOKEN", HasDefault: true}},
		},
		{
			give: "${PORT::8001}",
			want: String{variable{Name: "PORT", HasDefault: true, Default: ":8001"}},
		},
		{give: `\${HOST}`, want: String{literal("${HOST}")}},
		{
			give: "a${b-c}",
			want: String{literal("a"), variable{Name: "b-c"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.give, func(t *testing.T) {
			got, err := Parse(tt.give)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFailures(t *testing.T) {
	for _, give := range []string{"${foo", "${foo.}", "${foo-}", "${foo--bar}", "${}"} {
		_, err := Parse(give)
		assert.Error(t, err, give)
	}
}

func TestRender(t *testing.T) {
	s, err := Parse("${HOST}:${PORT:8001}")
	require.NoError(t, err)

	got, err := s.Render(mapResolver(map[string]string{"HOST": "broker-1"}))
	require.NoError(t, err)
	assert.Equal(t, "broker-1:8001", got)

	_, err = s.Render(mapResolver(nil))
	assert.EqualError(t, err, `variable "HOST" does not have a value or a default`)
}

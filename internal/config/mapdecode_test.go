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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapResolver(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func TestInterpolateHook(t *testing.T) {
	type target struct {
		Address  string        `config:"address,interpolate"`
		Port     int           `config:"port,interpolate"`
		Interval time.Duration `config:"interval,interpolate"`
		Raw      string        `config:"raw"`
	}

	tests := []struct {
		desc    string
		give    map[string]interface{}
		env     map[string]string
		want    target
		wantErr string
	}{
		{
			desc: "string",
			give: map[string]interface{}{"address": "${HOST:localhost}"},
			env:  map[string]string{"HOST": "broker-1"},
			want: target{Address: "broker-1"},
		},
		{
			desc: "default",
			give: map[string]interface{}{"address": "${HOST:localhost}"},
			want: target{Address: "localhost"},
		},
		{
			desc: "int from variable",
			give: map[string]interface{}{"port": "80${SUFFIX:}"},
			env:  map[string]string{"SUFFIX": "01"},
			want: target{Port: 8001},
		},
		{
			desc: "int literal",
			give: map[string]interface{}{"port": 8001},
			want: target{Port: 8001},
		},
		{
			desc: "duration",
			give: map[string]interface{}{"interval": "${INTERVAL:10s}"},
			want: target{Interval: 10 * time.Second},
		},
		{
			desc: "uninterpolated field",
			give: map[string]interface{}{"raw": "${HOST"},
			want: target{Raw: "${HOST"},
		},
		{
			desc:    "bad string",
			give:    map[string]interface{}{"address": "${HOST"},
			wantErr: `failed to parse "${HOST" for interpolation`,
		},
		{
			desc:    "missing variable",
			give:    map[string]interface{}{"address": "${HOST}"},
			wantErr: `failed to render "${HOST}" with environment variables`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			var got target
			err := DecodeInto(&got, tt.give, InterpolateWith(mapResolver(tt.env)))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

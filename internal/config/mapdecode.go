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

// Package config decodes configuration maps into structs tagged with
// `config:"..."`.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/netifi/netifi-go/internal/interpolate"
	"github.com/uber-go/mapdecode"
)

const (
	_tagName           = "config"
	_interpolateOption = "interpolate"
)

// DecodeInto decodes src into dst using `config` struct tags.
func DecodeInto(dst interface{}, src interface{}, opts ...mapdecode.Option) error {
	opts = append(opts, mapdecode.TagName(_tagName))
	return mapdecode.Decode(dst, src, opts...)
}

// InterpolateWith expands variables in string values of fields tagged
// `config:",interpolate"` before they are decoded.
func InterpolateWith(resolver interpolate.VariableResolver) mapdecode.Option {
	return mapdecode.FieldHook(func(dest reflect.StructField, srcData reflect.Value) (reflect.Value, error) {
		if !interpolated(dest) {
			return srcData, nil
		}

		// Non-string values are left alone so that a numeric field tagged for
		// interpolation still accepts a number.
		v, ok := srcData.Interface().(string)
		if !ok {
			return srcData, nil
		}

		s, err := interpolate.Parse(v)
		if err != nil {
			return srcData, fmt.Errorf("failed to parse %q for interpolation: %v", v, err)
		}
		out, err := s.Render(resolver)
		if err != nil {
			return srcData, fmt.Errorf("failed to render %q with environment variables: %v", v, err)
		}
		return reflect.ValueOf(out), nil
	})
}

func interpolated(f reflect.StructField) bool {
	options := strings.Split(f.Tag.Get(_tagName), ",")[1:]
	for _, o := range options {
		if o == _interpolateOption {
			return true
		}
	}
	return false
}

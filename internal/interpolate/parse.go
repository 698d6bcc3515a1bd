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
	"fmt"
	"strings"
)

// Parse parses s. A backslash before "$" produces a literal "$".
func Parse(s string) (String, error) {
	var (
		out String
		lit strings.Builder
	)
	flush := func() {
		if lit.Len() > 0 {
			out = append(out, literal(lit.String()))
			lit.Reset()
		}
	}

	for i := 0; i < len(s); {
		switch {
		case s[i] == '\\' && strings.HasPrefix(s[i+1:], "$"):
			lit.WriteByte('$')
			i += 2
		case strings.HasPrefix(s[i:], "${"):
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				return nil, fmt.Errorf("unterminated variable at offset %d", i)
			}
			v, err := parseVariable(s[i+2 : i+2+end])
			if err != nil {
				return nil, err
			}
			flush()
			out = append(out, v)
			i += end + 3
		default:
			lit.WriteByte(s[i])
			i++
		}
	}
	flush()
	return out, nil
}

func parseVariable(body string) (variable, error) {
	name, def, hasDefault := strings.Cut(body, ":")
	if !validName(name) {
		return variable{}, fmt.Errorf("invalid variable name %q", name)
	}
	return variable{Name: name, Default: def, HasDefault: hasDefault}, nil
}

// validName accepts letters, digits and underscores, with single hyphens
// between them.
func validName(name string) bool {
	if name == "" || name[0] == '-' || name[len(name)-1] == '-' || strings.Contains(name, "--") {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

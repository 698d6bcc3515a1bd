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

// Package interpolate expands ${NAME} and ${NAME:default} references in
// configuration strings.
package interpolate

import (
	"fmt"
	"strings"
)

// VariableResolver returns the value of a variable and whether it is set.
type VariableResolver func(name string) (value string, ok bool)

// String is a parsed string made of literals and variable references.
type String []term

type term interface {
	render(VariableResolver) (string, error)
}

type literal string

func (l literal) render(VariableResolver) (string, error) {
	return string(l), nil
}

type variable struct {
	Name       string
	Default    string
	HasDefault bool
}

func (v variable) render(resolve VariableResolver) (string, error) {
	if val, ok := resolve(v.Name); ok {
		return val, nil
	}
	if v.HasDefault {
		return v.Default, nil
	}
	return "", errUnknownVariable{Name: v.Name}
}

// Render replaces every variable of s with its resolved value.
func (s String) Render(resolve VariableResolver) (string, error) {
	var b strings.Builder
	for _, t := range s {
		v, err := t.render(resolve)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

type errUnknownVariable struct{ Name string }

func (e errUnknownVariable) Error() string {
	return fmt.Sprintf("variable %q does not have a value or a default", e.Name)
}

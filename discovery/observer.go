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

package discovery

import "github.com/uber-go/tally"

const (
	_joinsName    = "discovery_joins"
	_leavesName   = "discovery_leaves"
	_failuresName = "discovery_failures"
	_pollsName    = "discovery_polls"
	_sourceTag    = "source"
)

type discoveryObserver struct {
	joins    tally.Counter
	leaves   tally.Counter
	failures tally.Counter
	polls    tally.Counter
}

func newObserver(scope tally.Scope, source string) *discoveryObserver {
	scope = scope.Tagged(map[string]string{_sourceTag: source})
	return &discoveryObserver{
		joins:    scope.Counter(_joinsName),
		leaves:   scope.Counter(_leavesName),
		failures: scope.Counter(_failuresName),
		polls:    scope.Counter(_pollsName),
	}
}

func (o *discoveryObserver) joined(n int) {
	if n > 0 {
		o.joins.Inc(int64(n))
	}
}

func (o *discoveryObserver) left(n int) {
	if n > 0 {
		o.leaves.Inc(int64(n))
	}
}

func (o *discoveryObserver) failure() {
	o.failures.Inc(1)
}

func (o *discoveryObserver) poll() {
	o.polls.Inc(1)
}

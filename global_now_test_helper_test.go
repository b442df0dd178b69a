// Copyright (c) 2021 Uber Technologies, Inc.
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

package tally

import "time"

// fakeGlobalNow pins globalNow to t and returns a func that restores the
// real clock. Tests that need a deterministic elapsed duration from
// Timer.Start/Histogram.Start use this instead of sleeping. Not safe for
// concurrent use across tests; callers run it from a single goroutine.
var fakeNowCurrent time.Time

func fakeGlobalNow(t time.Time) (restore func()) {
	fakeNowCurrent = t
	real := globalNow
	globalNow = func() time.Time { return fakeNowCurrent }
	return func() { globalNow = real }
}

func advanceGlobalNow(d time.Duration) {
	fakeNowCurrent = fakeNowCurrent.Add(d)
}

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

import (
	"sync"
	"time"
)

// StopwatchRecorder is implemented by anything a Stopwatch can report its
// elapsed duration to once stopped.
type StopwatchRecorder interface {
	RecordStopwatch(stopwatchStart time.Time)
}

// Stopwatch tracks the duration from its creation until Stop is called.
// Stop is idempotent: only the first call records.
type Stopwatch struct {
	start    time.Time
	recorder StopwatchRecorder
	stopped  sync.Once
}

// NewStopwatch creates a Stopwatch that will record to recorder when
// stopped.
func NewStopwatch(now time.Time, recorder StopwatchRecorder) Stopwatch {
	return Stopwatch{start: now, recorder: recorder}
}

// Stop records the elapsed duration since the stopwatch was created. Only
// the first call has any effect.
func (sw *Stopwatch) Stop() {
	sw.stopped.Do(func() {
		if sw.recorder != nil {
			sw.recorder.RecordStopwatch(sw.start)
		}
	})
}

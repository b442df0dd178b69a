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

// Timer records individual durations, reported as they occur with no
// aggregation.
type Timer interface {
	// Record records the given duration.
	Record(value time.Duration)

	// Start begins timing, returning a Stopwatch that records on Stop.
	Start() Stopwatch
}

type timer struct {
	name     string
	tags     map[string]string
	reporter StatsReporter
}

func newTimer(name string, tags map[string]string, r StatsReporter) *timer {
	return &timer{name: name, tags: tags, reporter: r}
}

func (t *timer) Record(interval time.Duration) {
	if t.reporter != nil {
		t.reporter.ReportTimer(t.name, t.tags, interval)
	}
}

func (t *timer) Start() Stopwatch {
	return NewStopwatch(globalNow(), t)
}

// RecordStopwatch implements StopwatchRecorder.
func (t *timer) RecordStopwatch(stopwatchStart time.Time) {
	t.Record(globalNow().Sub(stopwatchStart))
}

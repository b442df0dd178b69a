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

// capturingReporter is a StatsReporter that records every call it
// receives, for assertions in tests across this package.
type capturingReporter struct {
	mu sync.Mutex

	counters   []capturedCounter
	gauges     []capturedGauge
	timers     []capturedTimer
	valueHist  []capturedValueHistogramSample
	durHist    []capturedDurationHistogramSample
	flushCount int
}

type capturedCounter struct {
	name  string
	tags  map[string]string
	value int64
}

type capturedGauge struct {
	name  string
	tags  map[string]string
	value float64
}

type capturedTimer struct {
	name     string
	tags     map[string]string
	interval time.Duration
}

type capturedValueHistogramSample struct {
	name       string
	tags       map[string]string
	buckets    Buckets
	lowerBound float64
	upperBound float64
	samples    int64
}

type capturedDurationHistogramSample struct {
	name       string
	tags       map[string]string
	buckets    Buckets
	lowerBound time.Duration
	upperBound time.Duration
	samples    int64
}

func newCapturingReporter() *capturingReporter {
	return &capturingReporter{}
}

func (r *capturingReporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters = append(r.counters, capturedCounter{name: name, tags: tags, value: value})
}

func (r *capturingReporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges = append(r.gauges, capturedGauge{name: name, tags: tags, value: value})
}

func (r *capturingReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timers = append(r.timers, capturedTimer{name: name, tags: tags, interval: interval})
}

func (r *capturingReporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	buckets Buckets,
	bucketLowerBound, bucketUpperBound float64,
	samples int64,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.valueHist = append(r.valueHist, capturedValueHistogramSample{
		name: name, tags: tags, buckets: buckets,
		lowerBound: bucketLowerBound, upperBound: bucketUpperBound, samples: samples,
	})
}

func (r *capturingReporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	buckets Buckets,
	bucketLowerBound, bucketUpperBound time.Duration,
	samples int64,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durHist = append(r.durHist, capturedDurationHistogramSample{
		name: name, tags: tags, buckets: buckets,
		lowerBound: bucketLowerBound, upperBound: bucketUpperBound, samples: samples,
	})
}

func (r *capturingReporter) Capabilities() Capabilities {
	return capabilitiesReportingTagging
}

func (r *capturingReporter) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushCount++
}

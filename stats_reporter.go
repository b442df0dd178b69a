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

// StatsReporter is the interface a Scope reports its metrics to on each
// report cycle. Implementations must be safe for concurrent use: a single
// reporter is shared across every scope in a tree.
type StatsReporter interface {
	// ReportCounter reports a counter's delta since the last report.
	ReportCounter(name string, tags map[string]string, value int64)

	// ReportGauge reports a gauge's latched value.
	ReportGauge(name string, tags map[string]string, value float64)

	// ReportTimer reports a single timer observation.
	ReportTimer(name string, tags map[string]string, interval time.Duration)

	// ReportHistogramValueSamples reports the sample count accumulated in
	// a value-bounded histogram bucket.
	ReportHistogramValueSamples(
		name string,
		tags map[string]string,
		buckets Buckets,
		bucketLowerBound, bucketUpperBound float64,
		samples int64,
	)

	// ReportHistogramDurationSamples reports the sample count accumulated
	// in a duration-bounded histogram bucket.
	ReportHistogramDurationSamples(
		name string,
		tags map[string]string,
		buckets Buckets,
		bucketLowerBound, bucketUpperBound time.Duration,
		samples int64,
	)

	// Capabilities describes what this reporter supports.
	Capabilities() Capabilities

	// Flush gives the reporter a chance to flush any buffered state; it
	// is called after every report cycle completes.
	Flush()
}

// NullStatsReporter is a StatsReporter that does nothing. It is the default
// reporter for any Scope constructed without one, so Counter/Gauge/Timer/
// Histogram calls are always safe even with no configured backend.
var NullStatsReporter StatsReporter = nullStatsReporter{}

type nullStatsReporter struct{}

func (nullStatsReporter) ReportCounter(name string, tags map[string]string, value int64) {}

func (nullStatsReporter) ReportGauge(name string, tags map[string]string, value float64) {}

func (nullStatsReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {}

func (nullStatsReporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	buckets Buckets,
	bucketLowerBound, bucketUpperBound float64,
	samples int64,
) {
}

func (nullStatsReporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	buckets Buckets,
	bucketLowerBound, bucketUpperBound time.Duration,
	samples int64,
) {
}

func (nullStatsReporter) Capabilities() Capabilities {
	return capabilitiesNone
}

func (nullStatsReporter) Flush() {}

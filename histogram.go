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
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m3db/tally-go/internal/identity"
)

// Histogram records observations into a fixed set of buckets, chosen once
// at construction. Each bucket holds its own delta counter, reported every
// cycle alongside the scope's other counters.
type Histogram interface {
	// RecordValue records a value observation, placing it in the first
	// bucket whose upper bound is greater than value.
	RecordValue(value float64)

	// RecordDuration records a duration observation, placing it in the
	// first bucket whose upper bound is greater than duration.
	RecordDuration(value time.Duration)

	// Start begins timing an observation; RecordStopwatch on Stop.
	Start() Stopwatch
}

type histogramBucket struct {
	valueUpperBound    float64
	durationUpperBound time.Duration
	samples            *counter
}

type histogram struct {
	htype   indicatorHistogramType
	buckets []histogramBucket
}

type indicatorHistogramType int

const (
	valueHistogramType indicatorHistogramType = iota
	durationHistogramType
)

func newHistogram(buckets Buckets) *histogram {
	htype := valueHistogramType
	if _, ok := buckets.(DurationBuckets); ok {
		htype = durationHistogramType
	}

	pairs := BucketPairs(buckets)
	hbuckets := make([]histogramBucket, 0, len(pairs))
	for _, pair := range pairs {
		hbuckets = append(hbuckets, histogramBucket{
			valueUpperBound:    pair.UpperBoundValue(),
			durationUpperBound: pair.UpperBoundDuration(),
			samples:            newCounter(),
		})
	}

	return &histogram{htype: htype, buckets: hbuckets}
}

func (h *histogram) RecordValue(value float64) {
	idx := sort.Search(len(h.buckets), func(i int) bool {
		return h.buckets[i].valueUpperBound > value
	})
	if idx == len(h.buckets) {
		idx--
	}
	h.buckets[idx].samples.Inc(1)
}

func (h *histogram) RecordDuration(value time.Duration) {
	idx := sort.Search(len(h.buckets), func(i int) bool {
		return h.buckets[i].durationUpperBound > value
	})
	if idx == len(h.buckets) {
		idx--
	}
	h.buckets[idx].samples.Inc(1)
}

func (h *histogram) Start() Stopwatch {
	return NewStopwatch(globalNow(), histogramStopwatchRecorder{h: h})
}

type histogramStopwatchRecorder struct {
	h *histogram
}

func (r histogramStopwatchRecorder) RecordStopwatch(start time.Time) {
	r.h.RecordDuration(globalNow().Sub(start))
}

func (h *histogram) report(name string, tags map[string]string, buckets Buckets, r StatsReporter) {
	for i := range h.buckets {
		samples := h.buckets[i].samples.value()
		if samples == 0 {
			continue
		}
		lower, upper := h.boundsAt(i)
		if h.htype == durationHistogramType {
			r.ReportHistogramDurationSamples(name, tags, buckets, lower.(time.Duration), upper.(time.Duration), samples)
		} else {
			r.ReportHistogramValueSamples(name, tags, buckets, lower.(float64), upper.(float64), samples)
		}
	}
}

// boundsAt returns the lower/upper bound of the bucket at index i, typed as
// either float64 or time.Duration depending on htype. The lower bound of
// bucket i is the upper bound of bucket i-1 (or the sentinel minimum for
// bucket 0).
func (h *histogram) boundsAt(i int) (lower, upper interface{}) {
	if h.htype == durationHistogramType {
		up := h.buckets[i].durationUpperBound
		if i <= 0 {
			return time.Duration(math.MinInt64), up
		}
		return h.buckets[i-1].durationUpperBound, up
	}

	up := h.buckets[i].valueUpperBound
	if i <= 0 {
		return -math.MaxFloat64, up
	}
	return h.buckets[i-1].valueUpperBound, up
}

// bucketCache deduplicates Buckets values by content identity. Each scope
// owns its own cache, so histograms created in the same scope with equal
// bucket configurations share one Buckets value; the value is stored as
// passed in, not sorted.
type bucketCache struct {
	mtx   sync.RWMutex
	cache map[uint64]Buckets
}

func newBucketCache() *bucketCache {
	return &bucketCache{cache: make(map[uint64]Buckets)}
}

func (c *bucketCache) Get(buckets Buckets) Buckets {
	id := bucketsIdentity(buckets)

	c.mtx.RLock()
	existing, ok := c.cache[id]
	c.mtx.RUnlock()
	if ok && bucketsEqual(existing, buckets) {
		return existing
	}

	c.mtx.Lock()
	defer c.mtx.Unlock()
	if existing, ok := c.cache[id]; ok && bucketsEqual(existing, buckets) {
		return existing
	}
	c.cache[id] = buckets
	return buckets
}

func bucketsIdentity(buckets Buckets) uint64 {
	switch b := buckets.(type) {
	case DurationBuckets:
		return identity.Durations(b)
	case ValueBuckets:
		return identity.Float64s(b)
	default:
		return identity.Float64s(buckets.AsValues())
	}
}

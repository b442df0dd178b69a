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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHistogramRecordValuePlacesIntoCorrectBucket(t *testing.T) {
	h := newHistogram(ValueBuckets{10, 20, 30})

	h.RecordValue(5)
	h.RecordValue(10)
	h.RecordValue(25)
	h.RecordValue(1000)

	r := newCapturingReporter()
	h.report("size", nil, ValueBuckets{10, 20, 30}, r)

	require.Len(t, r.valueHist, 4, "one report entry per non-empty bucket")

	byUpper := map[float64]int64{}
	for _, s := range r.valueHist {
		byUpper[s.upperBound] = s.samples
	}
	require.Equal(t, int64(1), byUpper[10], "5 lands in the [-inf, 10) bucket")
	require.Equal(t, int64(1), byUpper[20], "exactly-10 lands in the [10, 20) bucket")
	require.Equal(t, int64(1), byUpper[30], "25 lands in the [20, 30) bucket")
	require.Equal(t, int64(1), byUpper[math.MaxFloat64], "1000 overflows into the catch-all bucket")
}

func TestHistogramRecordDurationPlacesIntoCorrectBucket(t *testing.T) {
	h := newHistogram(DurationBuckets{10 * time.Millisecond, 100 * time.Millisecond})

	h.RecordDuration(5 * time.Millisecond)
	h.RecordDuration(50 * time.Millisecond)

	r := newCapturingReporter()
	h.report("latency", nil, DurationBuckets{10 * time.Millisecond, 100 * time.Millisecond}, r)

	require.Len(t, r.durHist, 2)
}

func TestHistogramStartStopRecordsElapsedDuration(t *testing.T) {
	h := newHistogram(DurationBuckets{time.Second, 10 * time.Second})

	restore := fakeGlobalNow(time.Unix(0, 0))
	defer restore()

	sw := h.Start()
	advanceGlobalNow(2 * time.Second)
	sw.Stop()

	r := newCapturingReporter()
	h.report("latency", nil, DurationBuckets{time.Second, 10 * time.Second}, r)

	require.Len(t, r.durHist, 1)
	require.Equal(t, int64(1), r.durHist[0].samples)
	require.Equal(t, 10*time.Second, r.durHist[0].upperBound)
}

func TestHistogramReportSkipsEmptyBuckets(t *testing.T) {
	h := newHistogram(ValueBuckets{1, 2, 3})
	r := newCapturingReporter()
	h.report("size", nil, ValueBuckets{1, 2, 3}, r)
	require.Empty(t, r.valueHist, "no RecordValue calls means nothing to report")
}

func TestBucketCacheDedupesEqualBuckets(t *testing.T) {
	c := newBucketCache()

	a := c.Get(DurationBuckets{time.Second, 2 * time.Second})
	b := c.Get(DurationBuckets{time.Second, 2 * time.Second})
	require.Equal(t, a, b)

	distinct := c.Get(DurationBuckets{time.Second, 3 * time.Second})
	require.NotEqual(t, a, distinct)
}

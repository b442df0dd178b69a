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

package m3

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tally "github.com/m3db/tally-go"
	"github.com/m3db/tally-go/m3/thrift"
)

const (
	_bucketIDTagName    = "bucketid"
	_bucketTagName      = "bucket"
	_minBucketIDDigits  = 4
)

// convertTags converts a plain tag map into the wire MetricTag slice the
// Thrift codec expects. Order is unspecified; the collector does not
// depend on tag ordering.
func convertTags(tags map[string]string) []*thrift.MetricTag {
	if len(tags) == 0 {
		return nil
	}
	out := make([]*thrift.MetricTag, 0, len(tags))
	for k, v := range tags {
		value := v
		out = append(out, &thrift.MetricTag{Name: k, TagValue: &value})
	}
	return out
}

// withBucketTags returns a copy of tags extended with the bucketid/bucket
// labels a histogram sample report attaches, the way the original
// reporter adds them to every ReportHistogram*Samples call before it
// reaches ReportMetric.
func withBucketTags(tags map[string]string, bucketIDTag, bucketTag string) map[string]string {
	out := make(map[string]string, len(tags)+2)
	for k, v := range tags {
		out[k] = v
	}
	out[_bucketIDTagName] = bucketIDTag
	out[_bucketTagName] = bucketTag
	return out
}

// bucketID zero-pads id to the width of its own digit count (or
// _minBucketIDDigits, whichever is larger) so that bucket labels sort
// lexically in the same order as numerically, e.g. "0003" before "0012".
func bucketID(id int) string {
	width := len(strconv.Itoa(id))
	if width < _minBucketIDDigits {
		width = _minBucketIDDigits
	}
	return fmt.Sprintf("%0*d", width, id)
}

// valueBucketString renders a histogram value bound as the collector
// expects: "infinity"/"-infinity" for the catch-all sentinels, otherwise
// a fixed 6-decimal float.
func valueBucketString(bound float64) string {
	switch {
	case bound == math.MaxFloat64:
		return "infinity"
	case bound == -math.MaxFloat64:
		return "-infinity"
	default:
		return strconv.FormatFloat(bound, 'f', 6, 64)
	}
}

// durationBucketString renders a histogram duration bound, picking the
// largest sub-second unit with a non-zero integer part (ms, then us, then
// ns) below one second, and "<h>h<m>m<s>s"-style formatting at or above
// one second. The original C++ reporter's equivalent function tests
// "milliseconds > 0" twice instead of falling through to microseconds on
// the second check, so genuine microsecond-range bounds render as raw
// nanoseconds; this port implements the intended behavior instead of
// reproducing that bug.
func durationBucketString(bound time.Duration) string {
	switch {
	case bound == 0:
		return "0"
	case bound == time.Duration(math.MaxInt64):
		return "infinity"
	case bound == time.Duration(math.MinInt64):
		return "-infinity"
	}

	negative := bound < 0
	abs := bound
	if negative {
		abs = -bound
	}

	var s string
	switch {
	case abs < time.Second:
		switch {
		case abs/time.Millisecond > 0:
			s = formatSubsecond(abs, time.Millisecond) + "ms"
		case abs/time.Microsecond > 0:
			s = formatSubsecond(abs, time.Microsecond) + "us"
		default:
			s = strconv.FormatInt(int64(abs), 10) + "ns"
		}
	default:
		hours := abs / time.Hour
		abs -= hours * time.Hour
		minutes := abs / time.Minute
		abs -= minutes * time.Minute

		var b strings.Builder
		if hours > 0 {
			fmt.Fprintf(&b, "%dh", hours)
		}
		if minutes > 0 {
			fmt.Fprintf(&b, "%dm", minutes)
		}
		b.WriteString(formatSubsecond(abs, time.Second))
		b.WriteString("s")
		s = b.String()
	}

	if negative {
		return "-" + s
	}
	return s
}

// bucketIndexForValue finds the index of the bucket whose upper bound is
// bucketUpperBound among buckets' derived pairs, used to label the bucket
// id tag on a histogram value sample report.
func bucketIndexForValue(buckets tally.Buckets, bucketUpperBound float64) int {
	pairs := tally.BucketPairs(buckets)
	for i, p := range pairs {
		if p.UpperBoundValue() == bucketUpperBound {
			return i
		}
	}
	return len(pairs) - 1
}

// bucketIndexForDuration is the duration-bucket analog of
// bucketIndexForValue.
func bucketIndexForDuration(buckets tally.Buckets, bucketUpperBound time.Duration) int {
	pairs := tally.BucketPairs(buckets)
	for i, p := range pairs {
		if p.UpperBoundDuration() == bucketUpperBound {
			return i
		}
	}
	return len(pairs) - 1
}

// formatSubsecond renders duration as a float count of unit, trimming
// trailing zeros and a trailing decimal point, matching the original
// FormatDuration(duration, precision) behavior.
func formatSubsecond(d time.Duration, unit time.Duration) string {
	f := float64(d) / float64(unit)
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		s = "0"
	}
	return s
}

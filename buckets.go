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
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/pkg/errors"
)

var (
	errBucketsCountNeedsGreaterThanZero = errors.New("bucket count must be > 0")
	errBucketsWidthNeedsGreaterThanZero = errors.New("bucket width must be > 0")
	errBucketsFactorNeedsGreaterThanOne = errors.New("bucket factor must be > 1")

	// _singleBucket is the pair used when no buckets are configured: it
	// spans the entire representable range so every sample lands in it.
	_singleBucket = bucketPair{
		lowerBoundDuration: time.Duration(math.MinInt64),
		upperBoundDuration: time.Duration(math.MaxInt64),
		lowerBoundValue:    -math.MaxFloat64,
		upperBoundValue:    math.MaxFloat64,
	}
)

// Buckets is an interface that can represent a set of buckets either as
// float64s or as durations.
type Buckets interface {
	fmt.Stringer
	sort.Interface

	// AsValues returns a representation of the buckets as float64s.
	AsValues() []float64

	// AsDurations returns a representation of the buckets as
	// time.Durations.
	AsDurations() []time.Duration

	// Len returns the number of buckets.
	Len() int
}

// BucketPair describes the lower and upper bounds for a derived bucket from
// a buckets set.
type BucketPair interface {
	LowerBoundValue() float64
	UpperBoundValue() float64
	LowerBoundDuration() time.Duration
	UpperBoundDuration() time.Duration
}

type bucketPair struct {
	lowerBoundValue    float64
	upperBoundValue    float64
	lowerBoundDuration time.Duration
	upperBoundDuration time.Duration
}

func (p bucketPair) LowerBoundValue() float64          { return p.lowerBoundValue }
func (p bucketPair) UpperBoundValue() float64          { return p.upperBoundValue }
func (p bucketPair) LowerBoundDuration() time.Duration { return p.lowerBoundDuration }
func (p bucketPair) UpperBoundDuration() time.Duration { return p.upperBoundDuration }

// ValueBuckets is a sorted set of float64 values that implements Buckets.
type ValueBuckets []float64

func (v ValueBuckets) Len() int           { return len(v) }
func (v ValueBuckets) Swap(i, j int)      { v[i], v[j] = v[j], v[i] }
func (v ValueBuckets) Less(i, j int) bool { return v[i] < v[j] }

func (v ValueBuckets) String() string {
	values := make([]string, len(v))
	for i := range values {
		values[i] = fmt.Sprintf("%f", v[i])
	}
	return fmt.Sprint(values)
}

// AsValues implements Buckets.
func (v ValueBuckets) AsValues() []float64 {
	return v
}

// AsDurations implements Buckets, converting each value to a duration by
// treating it as a count of seconds.
func (v ValueBuckets) AsDurations() []time.Duration {
	durations := make([]time.Duration, len(v))
	for i := range v {
		durations[i] = time.Duration(v[i] * float64(time.Second))
	}
	return durations
}

// DurationBuckets is a sorted set of time.Duration values that implements
// Buckets.
type DurationBuckets []time.Duration

func (d DurationBuckets) Len() int           { return len(d) }
func (d DurationBuckets) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }
func (d DurationBuckets) Less(i, j int) bool { return d[i] < d[j] }

func (d DurationBuckets) String() string {
	values := make([]string, len(d))
	for i := range d {
		values[i] = d[i].String()
	}
	return fmt.Sprint(values)
}

// AsValues implements Buckets, converting each duration to a float64 count
// of seconds.
func (d DurationBuckets) AsValues() []float64 {
	values := make([]float64, len(d))
	for i := range d {
		values[i] = float64(d[i]) / float64(time.Second)
	}
	return values
}

// AsDurations implements Buckets.
func (d DurationBuckets) AsDurations() []time.Duration {
	return d
}

// MustMakeLinearValueBuckets panics on error; see MakeLinearValueBuckets.
func MustMakeLinearValueBuckets(start, width float64, count int) ValueBuckets {
	buckets, err := makeLinearValues(start, width, count)
	if err != nil {
		panic(err)
	}
	return buckets
}

// MakeLinearValueBuckets creates `count` ValueBuckets beginning at `start`
// and incrementing by `width` for each following bucket.
func MakeLinearValueBuckets(start, width float64, count int) (ValueBuckets, error) {
	return makeLinearValues(start, width, count)
}

// MustMakeExponentialValueBuckets panics on error; see
// MakeExponentialValueBuckets.
func MustMakeExponentialValueBuckets(start, factor float64, count int) ValueBuckets {
	buckets, err := makeExponentialValues(start, factor, count)
	if err != nil {
		panic(err)
	}
	return buckets
}

// MakeExponentialValueBuckets creates `count` ValueBuckets beginning at
// `start` and multiplying by `factor` for each following bucket.
func MakeExponentialValueBuckets(start, factor float64, count int) (ValueBuckets, error) {
	return makeExponentialValues(start, factor, count)
}

// MustMakeLinearDurationBuckets panics on error; see
// MakeLinearDurationBuckets.
func MustMakeLinearDurationBuckets(start, width time.Duration, count int) DurationBuckets {
	buckets, err := makeLinearDurations(start, width, count)
	if err != nil {
		panic(err)
	}
	return buckets
}

// MakeLinearDurationBuckets creates `count` DurationBuckets beginning at
// `start` and incrementing by `width` for each following bucket.
func MakeLinearDurationBuckets(start, width time.Duration, count int) (DurationBuckets, error) {
	return makeLinearDurations(start, width, count)
}

// MustMakeExponentialDurationBuckets panics on error; see
// MakeExponentialDurationBuckets.
func MustMakeExponentialDurationBuckets(start time.Duration, factor float64, count int) DurationBuckets {
	buckets, err := makeExponentialDurations(start, factor, count)
	if err != nil {
		panic(err)
	}
	return buckets
}

// MakeExponentialDurationBuckets creates `count` DurationBuckets beginning
// at `start` and multiplying by `factor` for each following bucket.
func MakeExponentialDurationBuckets(start time.Duration, factor float64, count int) (DurationBuckets, error) {
	return makeExponentialDurations(start, factor, count)
}

func makeLinearValues(start, width float64, count int) (ValueBuckets, error) {
	if count < 1 {
		return nil, errBucketsCountNeedsGreaterThanZero
	}
	if width <= 0 {
		return nil, errBucketsWidthNeedsGreaterThanZero
	}

	buckets := make(ValueBuckets, count)
	for i := 0; i < count; i++ {
		buckets[i] = start + width*float64(i)
	}
	return buckets, nil
}

func makeExponentialValues(start, factor float64, count int) (ValueBuckets, error) {
	if count < 1 {
		return nil, errBucketsCountNeedsGreaterThanZero
	}
	if factor <= 1 {
		return nil, errBucketsFactorNeedsGreaterThanOne
	}

	buckets := make(ValueBuckets, count)
	for i := 0; i < count; i++ {
		buckets[i] = start * math.Pow(factor, float64(i))
	}
	return buckets, nil
}

func makeLinearDurations(start, width time.Duration, count int) (DurationBuckets, error) {
	if count < 1 {
		return nil, errBucketsCountNeedsGreaterThanZero
	}
	if width <= 0 {
		return nil, errBucketsWidthNeedsGreaterThanZero
	}

	buckets := make(DurationBuckets, count)
	for i := 0; i < count; i++ {
		buckets[i] = start + width*time.Duration(i)
	}
	return buckets, nil
}

func makeExponentialDurations(start time.Duration, factor float64, count int) (DurationBuckets, error) {
	if count < 1 {
		return nil, errBucketsCountNeedsGreaterThanZero
	}
	if factor <= 1 {
		return nil, errBucketsFactorNeedsGreaterThanOne
	}

	buckets := make(DurationBuckets, count)
	for i := 0; i < count; i++ {
		buckets[i] = time.Duration(float64(start) * math.Pow(factor, float64(i)))
	}
	return buckets, nil
}

func bucketsEqual(x, y Buckets) bool {
	switch b1 := x.(type) {
	case DurationBuckets:
		b2, ok := y.(DurationBuckets)
		if !ok || len(b1) != len(b2) {
			return false
		}
		for i := range b1 {
			if b1[i] != b2[i] {
				return false
			}
		}
	case ValueBuckets:
		b2, ok := y.(ValueBuckets)
		if !ok || len(b1) != len(b2) {
			return false
		}
		for i := range b1 {
			if b1[i] != b2[i] {
				return false
			}
		}
	default:
		return false
	}
	return true
}

// BucketPairs derives the lower/upper bound for each bucket in buckets,
// including a catch-all final bucket whose upper bound is math.MaxFloat64
// (or the max representable duration) so that every recorded sample always lands in
// exactly one bucket.
func BucketPairs(buckets Buckets) []BucketPair {
	if buckets == nil || buckets.Len() < 1 {
		return []BucketPair{_singleBucket}
	}

	durationKind := false
	if _, ok := buckets.(DurationBuckets); ok {
		durationKind = true
	}

	pairs := make([]BucketPair, 0, buckets.Len()+1)

	if durationKind {
		durations := copyAndSortDurations(buckets.AsDurations())
		lower := _singleBucket.lowerBoundDuration
		for _, upper := range durations {
			pairs = append(pairs, bucketPair{lowerBoundDuration: lower, upperBoundDuration: upper})
			lower = upper
		}
		pairs = append(pairs, bucketPair{lowerBoundDuration: lower, upperBoundDuration: _singleBucket.upperBoundDuration})
		return pairs
	}

	values := copyAndSortValues(buckets.AsValues())
	lower := _singleBucket.lowerBoundValue
	for _, upper := range values {
		pairs = append(pairs, bucketPair{lowerBoundValue: lower, upperBoundValue: upper})
		lower = upper
	}
	pairs = append(pairs, bucketPair{lowerBoundValue: lower, upperBoundValue: _singleBucket.upperBoundValue})
	return pairs
}

func copyAndSortValues(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Sort(ValueBuckets(out))
	return out
}

func copyAndSortDurations(durations []time.Duration) []time.Duration {
	out := make([]time.Duration, len(durations))
	copy(out, durations)
	sort.Sort(DurationBuckets(out))
	return out
}

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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tally "github.com/m3db/tally-go"
	thrift "github.com/m3db/tally-go/m3/thrift"
)

func tagValue(tags []*thrift.MetricTag, name string) (string, bool) {
	for _, tag := range tags {
		if tag.Name == name {
			if tag.TagValue == nil {
				return "", true
			}
			return *tag.TagValue, true
		}
	}
	return "", false
}

func TestReporterEmitsCounterOverUDP(t *testing.T) {
	server := newFakeM3Server(t)

	r, err := NewReporter(Options{HostPort: server.addr()})
	require.NoError(t, err)
	defer r.Close()

	r.ReportCounter("requests", map[string]string{"route": "/health"}, 42)
	require.NoError(t, r.Close())

	batch, ok := server.next(time.Second)
	require.True(t, ok, "expected the close-triggered flush to deliver a batch")
	require.Len(t, batch.Metrics, 1)

	m := batch.Metrics[0]
	require.Equal(t, "requests", m.Name)
	require.NotNil(t, m.MetricValue.Count)
	require.Equal(t, int64(42), m.MetricValue.Count.I64Value)

	v, ok := tagValue(m.Tags, "route")
	require.True(t, ok)
	require.Equal(t, "/health", v)
}

func TestReporterAppliesCommonTagsToBatch(t *testing.T) {
	server := newFakeM3Server(t)

	r, err := NewReporter(Options{
		HostPort:   server.addr(),
		CommonTags: map[string]string{"service": "checkout"},
	})
	require.NoError(t, err)
	defer r.Close()

	r.ReportGauge("cpu", nil, 0.5)
	require.NoError(t, r.Close())

	batch, ok := server.next(time.Second)
	require.True(t, ok)

	v, ok := tagValue(batch.CommonTags, "service")
	require.True(t, ok)
	require.Equal(t, "checkout", v)

	require.NotNil(t, batch.Metrics[0].MetricValue.Gauge)
	require.Equal(t, 0.5, batch.Metrics[0].MetricValue.Gauge.DValue)
}

func TestReporterTimerReportsNanosecondInterval(t *testing.T) {
	server := newFakeM3Server(t)

	r, err := NewReporter(Options{HostPort: server.addr()})
	require.NoError(t, err)
	defer r.Close()

	r.ReportTimer("latency", nil, 250*time.Millisecond)
	require.NoError(t, r.Close())

	batch, ok := server.next(time.Second)
	require.True(t, ok)
	require.NotNil(t, batch.Metrics[0].MetricValue.Timer)
	require.Equal(t, int64(250*time.Millisecond), batch.Metrics[0].MetricValue.Timer.I64Value)
}

func TestReporterHistogramSamplesCarryBucketTags(t *testing.T) {
	server := newFakeM3Server(t)

	r, err := NewReporter(Options{HostPort: server.addr()})
	require.NoError(t, err)
	defer r.Close()

	buckets := tally.ValueBuckets{10, 20, 30}
	r.ReportHistogramValueSamples("size", nil, buckets, 0, 10, 3)
	require.NoError(t, r.Close())

	batch, ok := server.next(time.Second)
	require.True(t, ok)
	require.Len(t, batch.Metrics, 1)

	m := batch.Metrics[0]
	require.NotNil(t, m.MetricValue.Count)
	require.Equal(t, int64(3), m.MetricValue.Count.I64Value)

	idTag, ok := tagValue(m.Tags, "bucketid")
	require.True(t, ok)
	require.Equal(t, "0000", idTag)

	bucketTag, ok := tagValue(m.Tags, "bucket")
	require.True(t, ok)
	require.Equal(t, "0.000000-10.000000", bucketTag)
}

func TestReporterSplitsBatchesWhenOverPacketBudget(t *testing.T) {
	server := newFakeM3Server(t)

	r, err := NewReporter(Options{
		HostPort:           server.addr(),
		MaxPacketSizeBytes: 100,
	})
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 20; i++ {
		r.ReportCounter("requests", map[string]string{"i": "tag"}, int64(i))
	}
	require.NoError(t, r.Close())

	total := 0
	for {
		batch, ok := server.next(200 * time.Millisecond)
		if !ok {
			break
		}
		total += len(batch.Metrics)
	}
	require.Equal(t, 20, total, "every enqueued metric must arrive across however many datagrams it took")
}

func TestReporterDropsMetricsEnqueuedAfterClose(t *testing.T) {
	server := newFakeM3Server(t)

	r, err := NewReporter(Options{HostPort: server.addr()})
	require.NoError(t, err)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close(), "Close must be idempotent")

	r.ReportCounter("late", nil, 1)

	_, ok := server.next(100 * time.Millisecond)
	require.False(t, ok, "nothing should be emitted after the reporter is closed")
}

func TestReporterCapabilitiesAlwaysSupportsReportingAndTagging(t *testing.T) {
	server := newFakeM3Server(t)

	r, err := NewReporter(Options{HostPort: server.addr()})
	require.NoError(t, err)
	defer r.Close()

	require.True(t, r.Capabilities().Reporting())
	require.True(t, r.Capabilities().Tagging())
}

func TestNewReporterRequiresHostPort(t *testing.T) {
	_, err := NewReporter(Options{})
	require.Error(t, err)
}

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
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScopeCounterGaugeTimerAreMemoized(t *testing.T) {
	s, closer := NewRootScope(ScopeOptions{}, 0)
	defer closer.Close()

	require.Same(t, s.Counter("requests"), s.Counter("requests"))
	require.Same(t, s.Gauge("cpu"), s.Gauge("cpu"))
	require.Same(t, s.Timer("latency"), s.Timer("latency"))
	require.Same(t, s.Histogram("size", nil), s.Histogram("size", nil))
}

func TestScopeFullyQualifiedName(t *testing.T) {
	s, closer := NewRootScope(ScopeOptions{Prefix: "myapp"}, 0)
	defer closer.Close()

	r := newCapturingReporter()
	root := s.(*scope)
	root.reporter = r

	s.Counter("requests").Inc(1)
	root.report(r)

	require.Len(t, r.counters, 1)
	require.Equal(t, "myapp.requests", r.counters[0].name)
}

func TestScopeSubScopeDedupesByPrefixAndTags(t *testing.T) {
	s, closer := NewRootScope(ScopeOptions{Prefix: "myapp"}, 0)
	defer closer.Close()

	a := s.SubScope("db")
	b := s.SubScope("db")
	require.Same(t, a, b, "two SubScope calls with the same name must resolve to the same scope")

	c := s.Tagged(map[string]string{"shard": "1"})
	d := s.Tagged(map[string]string{"shard": "1"})
	require.Same(t, c, d)

	require.NotSame(t, a, c)
}

func TestScopeTaggedMergesWithChildWinning(t *testing.T) {
	s, closer := NewRootScope(ScopeOptions{Tags: map[string]string{"env": "prod", "region": "east"}}, 0)
	defer closer.Close()

	child := s.Tagged(map[string]string{"env": "staging"}).(*scope)
	require.Equal(t, map[string]string{"env": "staging", "region": "east"}, child.tags)
}

func TestScopeSubScopeInheritsPrefixAndTags(t *testing.T) {
	s, closer := NewRootScope(ScopeOptions{Prefix: "myapp", Tags: map[string]string{"env": "prod"}}, 0)
	defer closer.Close()

	child := s.SubScope("db").(*scope)
	require.Equal(t, "myapp.db", child.prefix)
	require.Equal(t, map[string]string{"env": "prod"}, child.tags)
}

func TestScopeReportWalksDescendants(t *testing.T) {
	r := newCapturingReporter()
	s, closer := NewRootScope(ScopeOptions{Reporter: r}, 0)

	s.Counter("root_counter").Inc(1)
	s.SubScope("child").Counter("child_counter").Inc(2)
	s.Tagged(map[string]string{"k": "v"}).Counter("tagged_counter").Inc(3)

	require.NoError(t, closer.Close())

	names := map[string]int64{}
	for _, c := range r.counters {
		names[c.name] = c.value
	}
	require.Equal(t, int64(1), names["root_counter"])
	require.Equal(t, int64(2), names["child.child_counter"])
	require.Equal(t, int64(3), names["tagged_counter"])
}

func TestScopeCloseIsIdempotentAndBlocksUntilFinalReport(t *testing.T) {
	r := newCapturingReporter()
	s, closer := NewRootScope(ScopeOptions{Reporter: r}, time.Hour)

	s.Counter("requests").Inc(5)

	require.NoError(t, closer.Close())
	require.NoError(t, closer.Close(), "Close must be idempotent")

	require.Len(t, r.counters, 1)
	require.Equal(t, int64(5), r.counters[0].value)
}

func TestScopeWithoutIntervalReportsOnlyOnClose(t *testing.T) {
	r := newCapturingReporter()
	s, closer := NewRootScope(ScopeOptions{Reporter: r}, 0)

	s.Counter("requests").Inc(1)
	require.Empty(t, r.counters, "with no interval, nothing is reported until Close")

	require.NoError(t, closer.Close())
	require.Len(t, r.counters, 1)
}

func TestScopeSubScopeInheritsSeparatorAndDefaultBuckets(t *testing.T) {
	r := newCapturingReporter()
	customBuckets := ValueBuckets{1, 2, 3}
	s, closer := NewRootScope(ScopeOptions{
		Prefix:         "myapp",
		Reporter:       r,
		Separator:      "/",
		DefaultBuckets: customBuckets,
	}, 0)

	child := s.SubScope("db").(*scope)
	require.Equal(t, "/", child.separator)
	require.Equal(t, "myapp/db", child.prefix)

	grandchild := child.SubScope("pool").(*scope)
	require.Equal(t, "myapp/db/pool", grandchild.prefix)

	child.Histogram("latency", nil)
	histBuckets := child.histograms["latency"].buckets
	require.Equal(t, customBuckets.AsValues(), histBuckets.AsValues())

	require.NoError(t, closer.Close())
}

func TestScopeCapabilitiesDelegatesToReporter(t *testing.T) {
	s, closer := NewRootScope(ScopeOptions{Reporter: newCapturingReporter()}, 0)
	defer closer.Close()

	require.True(t, s.Capabilities().Reporting())
	require.True(t, s.Capabilities().Tagging())
}

func TestNoopScopeNeverPanics(t *testing.T) {
	require.NotPanics(t, func() {
		NoopScope.Counter("x").Inc(1)
		NoopScope.Gauge("y").Update(1)
		NoopScope.Timer("z").Record(time.Second)
		NoopScope.Histogram("w", nil).RecordValue(1)
	})
}

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
	"io"
	"sync"
	"time"
)

// DefaultSeparator is the separator used to join a scope's prefix with a
// metric's own name when no separator is configured.
const DefaultSeparator = "."

var globalNow = time.Now

// defaultScopeBuckets mirrors the bucket set the reporter assumes callers
// want for ad hoc latency histograms when none is supplied.
var defaultScopeBuckets = DurationBuckets{
	0 * time.Millisecond,
	10 * time.Millisecond,
	25 * time.Millisecond,
	50 * time.Millisecond,
	75 * time.Millisecond,
	100 * time.Millisecond,
	200 * time.Millisecond,
	300 * time.Millisecond,
	400 * time.Millisecond,
	500 * time.Millisecond,
	600 * time.Millisecond,
	800 * time.Millisecond,
	1 * time.Second,
	2 * time.Second,
	5 * time.Second,
}

// NoopScope is a Scope with a NullStatsReporter and no background report
// loop; every metric call on it succeeds and reports nothing.
var NoopScope, _ = NewRootScope(ScopeOptions{Reporter: NullStatsReporter}, 0)

// Scope is a named, tagged namespace for a tree of metrics. Each distinct
// (prefix, tags) combination reached via SubScope/Tagged from the same root
// resolves to the same underlying scope, so repeated calls never duplicate
// state.
type Scope interface {
	// Counter returns the Counter registered under name, creating it on
	// first use.
	Counter(name string) Counter

	// Gauge returns the Gauge registered under name, creating it on
	// first use.
	Gauge(name string) Gauge

	// Timer returns the Timer registered under name, creating it on
	// first use.
	Timer(name string) Timer

	// Histogram returns the Histogram registered under name, creating it
	// on first use. If buckets is nil, the scope's default buckets are
	// used.
	Histogram(name string, buckets Buckets) Histogram

	// Tagged returns a child scope with tags merged on top of this
	// scope's own tags; keys in tags win on conflict.
	Tagged(tags map[string]string) Scope

	// SubScope returns a child scope whose prefix is this scope's prefix
	// joined with name, inheriting this scope's tags unmodified.
	SubScope(name string) Scope

	// Capabilities reports what the underlying reporter supports.
	Capabilities() Capabilities
}

// ScopeOptions configures a root scope and its reporter.
type ScopeOptions struct {
	Prefix         string
	Tags           map[string]string
	Reporter       StatsReporter
	Separator      string
	DefaultBuckets Buckets
}

type scopeOptions struct {
	prefix         string
	tags           map[string]string
	reporter       StatsReporter
	separator      string
	defaultBuckets Buckets
}

type scope struct {
	separator      string
	prefix         string
	tags           map[string]string
	reporter       StatsReporter
	defaultBuckets Buckets
	registry       *scopeRegistry
	buckets        *bucketCache

	cm sync.RWMutex
	gm sync.RWMutex
	tm sync.RWMutex
	hm sync.RWMutex

	counters   map[string]*counter
	gauges     map[string]*gauge
	timers     map[string]*timer
	histograms map[string]*scopedHistogram

	hasLoop   bool
	closed    chan struct{}
	closeOnce sync.Once
	loopDone  chan struct{}
}

type scopedHistogram struct {
	buckets Buckets
	h       *histogram
}

// NewRootScope creates a new root Scope with no parent. If interval is
// greater than zero, a background goroutine reports this scope and every
// descendant scope every interval until Close is called; Close always
// performs one final synchronous report before returning so no metrics
// recorded up to the moment of Close are lost.
func NewRootScope(opts ScopeOptions, interval time.Duration) (Scope, io.Closer) {
	s := newRootScope(opts)
	s.hasLoop = interval > 0
	if s.hasLoop {
		go s.reportLoop(interval)
	} else {
		close(s.loopDone)
	}
	return s, s
}

func newRootScope(opts ScopeOptions) *scope {
	internal := scopeOptions{
		prefix:         opts.Prefix,
		tags:           copyStringMap(opts.Tags),
		reporter:       opts.Reporter,
		separator:      opts.Separator,
		defaultBuckets: opts.DefaultBuckets,
	}
	s := newScope(internal, nil)
	s.registry = newScopeRegistry(s)
	return s
}

func newScope(opts scopeOptions, registry *scopeRegistry) *scope {
	separator := opts.separator
	if separator == "" {
		separator = DefaultSeparator
	}
	reporter := opts.reporter
	if reporter == nil {
		reporter = NullStatsReporter
	}
	defaultBuckets := opts.defaultBuckets
	if defaultBuckets == nil || defaultBuckets.Len() < 1 {
		defaultBuckets = defaultScopeBuckets
	}

	s := &scope{
		separator:      separator,
		prefix:         opts.prefix,
		tags:           opts.tags,
		reporter:       reporter,
		defaultBuckets: defaultBuckets,
		registry:       registry,
		buckets:        newBucketCache(),
		counters:       make(map[string]*counter),
		gauges:         make(map[string]*gauge),
		timers:         make(map[string]*timer),
		histograms:     make(map[string]*scopedHistogram),
		closed:         make(chan struct{}),
		loopDone:       make(chan struct{}),
	}
	return s
}

func (s *scope) fullyQualifiedName(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + s.separator + name
}

func (s *scope) Counter(name string) Counter {
	s.cm.RLock()
	if c, ok := s.counters[name]; ok {
		s.cm.RUnlock()
		return c
	}
	s.cm.RUnlock()

	s.cm.Lock()
	defer s.cm.Unlock()
	if c, ok := s.counters[name]; ok {
		return c
	}
	c := newCounter()
	s.counters[name] = c
	return c
}

func (s *scope) Gauge(name string) Gauge {
	s.gm.RLock()
	if g, ok := s.gauges[name]; ok {
		s.gm.RUnlock()
		return g
	}
	s.gm.RUnlock()

	s.gm.Lock()
	defer s.gm.Unlock()
	if g, ok := s.gauges[name]; ok {
		return g
	}
	g := newGauge()
	s.gauges[name] = g
	return g
}

func (s *scope) Timer(name string) Timer {
	s.tm.RLock()
	if t, ok := s.timers[name]; ok {
		s.tm.RUnlock()
		return t
	}
	s.tm.RUnlock()

	s.tm.Lock()
	defer s.tm.Unlock()
	if t, ok := s.timers[name]; ok {
		return t
	}
	t := newTimer(s.fullyQualifiedName(name), s.tags, s.reporter)
	s.timers[name] = t
	return t
}

func (s *scope) Histogram(name string, buckets Buckets) Histogram {
	if buckets == nil || buckets.Len() < 1 {
		buckets = s.defaultBuckets
	}
	buckets = s.buckets.Get(buckets)

	s.hm.RLock()
	if h, ok := s.histograms[name]; ok {
		s.hm.RUnlock()
		return h.h
	}
	s.hm.RUnlock()

	s.hm.Lock()
	defer s.hm.Unlock()
	if h, ok := s.histograms[name]; ok {
		return h.h
	}
	h := &scopedHistogram{buckets: buckets, h: newHistogram(buckets)}
	s.histograms[name] = h
	return h.h
}

func (s *scope) Tagged(tags map[string]string) Scope {
	return s.subscope(s.prefix, tags)
}

func (s *scope) SubScope(name string) Scope {
	return s.subscope(s.fullyQualifiedName(name), nil)
}

func (s *scope) subscope(prefix string, tags map[string]string) Scope {
	return s.registry.Subscope(s, prefix, tags)
}

func (s *scope) Capabilities() Capabilities {
	if s.reporter == nil {
		return capabilitiesNone
	}
	return s.reporter.Capabilities()
}

// report reports every counter, gauge, and histogram directly owned by
// this scope to r. Timers need no report call here; they emit immediately
// on Record.
func (s *scope) report(r StatsReporter) {
	s.cm.RLock()
	for name, c := range s.counters {
		c.report(s.fullyQualifiedName(name), s.tags, r)
	}
	s.cm.RUnlock()

	s.gm.RLock()
	for name, g := range s.gauges {
		g.report(s.fullyQualifiedName(name), s.tags, r)
	}
	s.gm.RUnlock()

	s.hm.RLock()
	for name, h := range s.histograms {
		h.h.report(s.fullyQualifiedName(name), s.tags, h.buckets, r)
	}
	s.hm.RUnlock()
}

// reportLoop is only ever run for a root scope. It reports the full tree
// rooted at s on every tick until closed is signalled, then performs one
// last report so metrics recorded right before Close are never lost, and
// finally signals loopDone.
func (s *scope) reportLoop(interval time.Duration) {
	defer close(s.loopDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reportLoopRun()
		case <-s.closed:
			s.reportLoopRun()
			return
		}
	}
}

func (s *scope) reportLoopRun() {
	s.registry.Report(s.reporter)
	s.reporter.Flush()
}

// Close stops the background report loop, if any, and blocks until its
// final report completes. Close is idempotent.
func (s *scope) Close() error {
	s.closeOnce.Do(func() {
		if s.hasLoop {
			close(s.closed)
		} else {
			s.reportLoopRun()
		}
	})
	<-s.loopDone
	return nil
}

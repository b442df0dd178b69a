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

import "sync"

// scopeRegistry holds every scope descended from a single root, keyed by
// scope identity (prefix + sorted tags) so that two requests for the same
// prefix/tag combination always return the same *scope instance.
type scopeRegistry struct {
	mu        sync.RWMutex
	root      *scope
	subscopes map[string]*scope
}

func newScopeRegistry(root *scope) *scopeRegistry {
	r := &scopeRegistry{
		subscopes: make(map[string]*scope),
	}
	r.subscopes[scopeID(root.prefix, root.tags)] = root
	r.root = root
	return r
}

// Subscope returns the child scope for (prefix, tags), creating and
// registering it on first use. tags are merged on top of the parent's tags
// before the identity is computed, so a tagged child always carries its
// ancestors' tags unless explicitly overridden.
func (r *scopeRegistry) Subscope(parent *scope, prefix string, tags map[string]string) *scope {
	allTags := mergeRightTags(parent.tags, tags)
	id := scopeID(prefix, allTags)

	if existing := r.lockedLookup(id); existing != nil {
		return existing
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.subscopes[id]; ok {
		return existing
	}

	child := newScope(scopeOptions{
		prefix:         prefix,
		tags:           allTags,
		reporter:       parent.reporter,
		separator:      parent.separator,
		defaultBuckets: parent.defaultBuckets,
	}, parent.registry)
	r.subscopes[id] = child
	return child
}

func (r *scopeRegistry) lockedLookup(id string) *scope {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.subscopes[id]
}

// Report walks every scope registered under this root and reports it. It
// is called from the root's reportLoopRun, either on the background report
// loop or from Close when the root has no loop; children have no loop of
// their own.
func (r *scopeRegistry) Report(rep StatsReporter) {
	r.mu.RLock()
	scopes := make([]*scope, 0, len(r.subscopes))
	for _, s := range r.subscopes {
		scopes = append(scopes, s)
	}
	r.mu.RUnlock()

	for _, s := range scopes {
		s.report(rep)
	}
}

// ForEachScope calls fn for every scope registered under this root.
func (r *scopeRegistry) ForEachScope(fn func(*scope)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.subscopes {
		fn(s)
	}
}

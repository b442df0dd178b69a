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

import "sort"

const (
	prefixSplitter  = '+'
	keyPairSplitter = ','
	keyNameSplitter = '='
)

// scopeID returns the identity string for a scope with the given prefix
// and tag set: "prefix+k1=v1,k2=v2" with keys sorted lexically. Two scopes
// with the same prefix and the same tag contents collapse to the same
// entry in a scope registry regardless of insertion order.
func scopeID(prefix string, tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := make([]byte, 0, 64)
	buf = append(buf, prefix...)
	buf = append(buf, prefixSplitter)
	for i, k := range keys {
		if i > 0 {
			buf = append(buf, keyPairSplitter)
		}
		buf = append(buf, k...)
		buf = append(buf, keyNameSplitter)
		buf = append(buf, tags[k]...)
	}
	return string(buf)
}

// mergeRightTags merges two tag maps, giving precedence to keys present in
// the right-hand map. Either argument may be nil. A fresh map is always
// returned unless both inputs are empty, in which case nil is returned.
func mergeRightTags(left, right map[string]string) map[string]string {
	if len(left) == 0 && len(right) == 0 {
		return nil
	}
	if len(left) == 0 {
		return copyStringMap(right)
	}
	if len(right) == 0 {
		return copyStringMap(left)
	}

	merged := make(map[string]string, len(left)+len(right))
	for k, v := range left {
		merged[k] = v
	}
	for k, v := range right {
		merged[k] = v
	}
	return merged
}

func copyStringMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

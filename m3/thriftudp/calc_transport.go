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

package thriftudp

import (
	"context"
	"io"

	"github.com/apache/thrift/lib/go/thrift"
)

// CalcTransport is a write-only TTransport that never actually sends
// anything; it only counts the bytes that would have been written. The M3
// reporter encodes a metric into a CalcTransport before appending it to
// the real batch, so it can tell whether the metric plus the batch built
// so far would overflow the packet budget before committing to it.
type CalcTransport struct {
	size int
}

// NewCalcTransport creates an empty size-probe transport.
func NewCalcTransport() *CalcTransport {
	return &CalcTransport{}
}

// Size returns the number of bytes written since the last Reset.
func (t *CalcTransport) Size() int {
	return t.size
}

// Reset zeroes the accumulated size so the transport can be reused to
// probe the next metric.
func (t *CalcTransport) Reset() {
	t.size = 0
}

// Write implements io.Writer / thrift.TTransport.
func (t *CalcTransport) Write(p []byte) (int, error) {
	t.size += len(p)
	return len(p), nil
}

// Open implements thrift.TTransport.
func (t *CalcTransport) Open() error { return nil }

// IsOpen implements thrift.TTransport.
func (t *CalcTransport) IsOpen() bool { return true }

// Close implements thrift.TTransport.
func (t *CalcTransport) Close() error { return nil }

// Flush implements thrift.TTransport.
func (t *CalcTransport) Flush(ctx context.Context) error { return nil }

// Read implements thrift.TTransport; the probe is write-only.
func (t *CalcTransport) Read(p []byte) (int, error) { return 0, io.EOF }

// RemainingBytes implements thrift.TTransport.
func (t *CalcTransport) RemainingBytes() uint64 { return 0 }

var _ thrift.TTransport = (*CalcTransport)(nil)

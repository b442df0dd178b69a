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

package thrift

import (
	"context"

	"github.com/apache/thrift/lib/go/thrift"
)

const _emitMetricBatchMethod = "emitMetricBatch"

// M3Client is the generated-style RPC client for the M3 metrics ingestion
// service. It exposes a single oneway method, emitMetricBatch, matching
// the one method the production reporter ever calls.
type M3Client struct {
	protocol thrift.TProtocol
	seqID    int32
}

// NewM3Client builds a client that writes oneway emitMetricBatch calls
// onto protocol.
func NewM3Client(protocol thrift.TProtocol) *M3Client {
	return &M3Client{protocol: protocol}
}

// EmitMetricBatch sends batch as a oneway emitMetricBatch RPC: a message
// header followed by a single-field args struct wrapping the batch, with
// no response expected or read. The reporter has no caller context to
// thread through a fire-and-forget UDP send, so this uses
// context.Background() internally, the same way tally's StatsReporter
// methods take no context either.
func (c *M3Client) EmitMetricBatch(batch *MetricBatch) error {
	c.seqID++
	p := c.protocol
	ctx := context.Background()

	if err := p.WriteMessageBegin(ctx, _emitMetricBatchMethod, thrift.ONEWAY, c.seqID); err != nil {
		return err
	}

	if err := p.WriteStructBegin(ctx, "emitMetricBatch_args"); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "batch", thrift.STRUCT, 1); err != nil {
		return err
	}
	if err := batch.Write(ctx, p); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	if err := p.WriteStructEnd(ctx); err != nil {
		return err
	}

	if err := p.WriteMessageEnd(ctx); err != nil {
		return err
	}
	return p.Flush(ctx)
}

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
	"context"
	"sync"
	"testing"
	"time"

	atthrift "github.com/apache/thrift/lib/go/thrift"
	"github.com/stretchr/testify/require"

	thrift "github.com/m3db/tally-go/m3/thrift"
	"github.com/m3db/tally-go/m3/thriftudp"
)

// fakeM3Server stands in for an M3 collector in tests. It decodes the
// same oneway emitMetricBatch messages the production client writes and
// hands each decoded batch to the test over a channel.
type fakeM3Server struct {
	server    *thriftudp.Server
	protocol  atthrift.TProtocol
	batches   chan *thrift.MetricBatch
	closeOnce sync.Once
}

func newFakeM3Server(t *testing.T) *fakeM3Server {
	t.Helper()

	server, err := thriftudp.NewServer("127.0.0.1:0")
	require.NoError(t, err)

	f := &fakeM3Server{
		server:   server,
		protocol: atthrift.NewTCompactProtocolFactory().GetProtocol(server),
		batches:  make(chan *thrift.MetricBatch, 64),
	}
	go f.run()

	t.Cleanup(f.close)
	return f
}

func (f *fakeM3Server) addr() string {
	return f.server.LocalAddr().String()
}

// close stops the server's read loop, which unblocks the pending
// Server.Read inside run() with ErrTransportClosed and lets run() exit.
func (f *fakeM3Server) close() {
	f.closeOnce.Do(func() { f.server.Close() })
}

// run decodes exactly one emitMetricBatch message per datagram, mirroring
// the one-flush-per-batch contract the reporter writes under. The
// underlying Server.Read blocks until a datagram has arrived (or the
// transport is closed), so this loop needs no polling of its own.
func (f *fakeM3Server) run() {
	ctx := context.Background()
	for {
		if err := f.readOneBatch(ctx); err != nil {
			return
		}
	}
}

func (f *fakeM3Server) readOneBatch(ctx context.Context) error {
	if _, _, _, err := f.protocol.ReadMessageBegin(ctx); err != nil {
		return err
	}
	if _, err := f.protocol.ReadStructBegin(ctx); err != nil {
		return err
	}

	batch := &thrift.MetricBatch{}
	for {
		_, fieldType, id, err := f.protocol.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == atthrift.STOP {
			break
		}
		if id == 1 && fieldType == atthrift.STRUCT {
			if err := batch.Read(ctx, f.protocol); err != nil {
				return err
			}
		} else if err := f.protocol.Skip(ctx, fieldType); err != nil {
			return err
		}
		if err := f.protocol.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := f.protocol.ReadStructEnd(ctx); err != nil {
		return err
	}
	if err := f.protocol.ReadMessageEnd(ctx); err != nil {
		return err
	}

	f.batches <- batch
	return nil
}

// next blocks until a batch is decoded or timeout elapses.
func (f *fakeM3Server) next(timeout time.Duration) (*thrift.MetricBatch, bool) {
	select {
	case b := <-f.batches:
		return b, true
	case <-time.After(timeout):
		return nil, false
	}
}

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

// Package m3 implements a tally.StatsReporter that emits metrics to an M3
// collector over UDP using the Thrift compact protocol.
package m3

import (
	"context"
	"os"
	"sync"
	"time"

	atthrift "github.com/apache/thrift/lib/go/thrift"
	"github.com/pkg/errors"
	"go.uber.org/atomic"

	tally "github.com/m3db/tally-go"
	thrift "github.com/m3db/tally-go/m3/thrift"
	"github.com/m3db/tally-go/m3/thriftudp"
)

const (
	// DefaultMaxQueueSize is the default bound on the number of metrics
	// buffered between Report* calls and the background emitter.
	DefaultMaxQueueSize = 1024

	// DefaultMaxPacketSizeBytes is the default UDP MTU budget the batch
	// packer targets.
	DefaultMaxPacketSizeBytes = 1440
)

// Options configures a Reporter.
type Options struct {
	// HostPort is the address of the M3 collector, e.g. "127.0.0.1:9052".
	HostPort string

	// CommonTags are attached once per batch rather than per metric.
	CommonTags map[string]string

	// MaxQueueSize bounds the number of metrics buffered between
	// Report* calls and the background emitter. Zero uses
	// DefaultMaxQueueSize.
	MaxQueueSize int

	// MaxPacketSizeBytes bounds the size of each UDP datagram the
	// reporter sends. Zero uses DefaultMaxPacketSizeBytes. Only 80% of
	// this budget is actually used per batch, leaving headroom for
	// protocol framing overhead the size probe doesn't account for.
	MaxPacketSizeBytes int32

	// Logger receives a line for every queue-overflow, flush failure, or
	// send error, mirroring the original reporter's stderr logging.
	Logger tally.Logger
}

// Reporter emits metrics to an M3 collector. It implements
// tally.StatsReporter.
type Reporter struct {
	logger tally.Logger

	client        *thriftudp.Client
	calcTransport *thriftudp.CalcTransport
	protocol      atthrift.TProtocol
	calcProtocol  atthrift.TProtocol
	m3Client      *thrift.M3Client

	commonTags []*thrift.MetricTag

	maxPacketSize int32

	queue    chan *thrift.Metric
	done     atomic.Bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup

	mu           sync.Mutex
	currentBatch *thrift.MetricBatch
}

// NewReporter constructs a Reporter and starts its background emitter
// goroutine. The returned Reporter must eventually be closed with
// Reporter.Close to guarantee any queued metrics are flushed before
// process exit.
func NewReporter(opts Options) (*Reporter, error) {
	if opts.HostPort == "" {
		return nil, errors.New("m3: HostPort is required")
	}

	maxQueueSize := opts.MaxQueueSize
	if maxQueueSize <= 0 {
		maxQueueSize = DefaultMaxQueueSize
	}
	maxPacketSize := opts.MaxPacketSizeBytes
	if maxPacketSize <= 0 {
		maxPacketSize = DefaultMaxPacketSizeBytes
	}

	logger := opts.Logger
	if logger == nil {
		logger = tally.NewLogger(os.Stderr)
	}

	client, err := thriftudp.NewClient(opts.HostPort)
	if err != nil {
		return nil, errors.Wrap(err, "m3: open UDP client")
	}

	protocolFactory := atthrift.NewTCompactProtocolFactory()
	protocol := protocolFactory.GetProtocol(client)

	calcTransport := thriftudp.NewCalcTransport()
	calcProtocol := protocolFactory.GetProtocol(calcTransport)

	r := &Reporter{
		logger:        logger,
		client:        client,
		calcTransport: calcTransport,
		protocol:      protocol,
		calcProtocol:  calcProtocol,
		m3Client:      thrift.NewM3Client(protocol),
		commonTags:    convertTags(opts.CommonTags),
		// effective budget is 80% of the configured MTU, leaving
		// headroom the size probe alone can't account for.
		maxPacketSize: maxPacketSize * 4 / 5,
		queue:         make(chan *thrift.Metric, maxQueueSize),
		closeCh:       make(chan struct{}),
		currentBatch:  &thrift.MetricBatch{CommonTags: convertTags(opts.CommonTags)},
	}

	r.closedWg.Add(1)
	go r.run()

	return r, nil
}

func (r *Reporter) enqueue(m *thrift.Metric) {
	if r.done.Load() {
		r.logger.Printf("m3: enqueue after shutdown, dropping metric %s", m.Name)
		return
	}
	select {
	case r.queue <- m:
	default:
		r.logger.Printf("m3: queue is full, dropping metric %s", m.Name)
	}
}

func (r *Reporter) reportMetric(name string, tags map[string]string, value *thrift.MetricValue) {
	r.enqueue(&thrift.Metric{
		Name:          name,
		Tags:          convertTags(tags),
		MetricValue:   value,
		TimestampNano: globalNow().UnixNano(),
	})
}

var globalNow = time.Now

// ReportCounter implements tally.StatsReporter.
func (r *Reporter) ReportCounter(name string, tags map[string]string, value int64) {
	r.reportMetric(name, tags, &thrift.MetricValue{Count: &thrift.CountValue{I64Value: value}})
}

// ReportGauge implements tally.StatsReporter.
func (r *Reporter) ReportGauge(name string, tags map[string]string, value float64) {
	r.reportMetric(name, tags, &thrift.MetricValue{Gauge: &thrift.GaugeValue{DValue: value}})
}

// ReportTimer implements tally.StatsReporter.
func (r *Reporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	r.reportMetric(name, tags, &thrift.MetricValue{Timer: &thrift.TimerValue{I64Value: int64(interval)}})
}

// ReportHistogramValueSamples implements tally.StatsReporter.
func (r *Reporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound, bucketUpperBound float64,
	samples int64,
) {
	bucketTag := valueBucketString(bucketLowerBound) + "-" + valueBucketString(bucketUpperBound)
	idTag := bucketID(bucketIndexForValue(buckets, bucketUpperBound))
	r.reportMetric(
		name,
		withBucketTags(tags, idTag, bucketTag),
		&thrift.MetricValue{Count: &thrift.CountValue{I64Value: samples}},
	)
}

// ReportHistogramDurationSamples implements tally.StatsReporter.
func (r *Reporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	buckets tally.Buckets,
	bucketLowerBound, bucketUpperBound time.Duration,
	samples int64,
) {
	bucketTag := durationBucketString(bucketLowerBound) + "-" + durationBucketString(bucketUpperBound)
	idTag := bucketID(bucketIndexForDuration(buckets, bucketUpperBound))
	r.reportMetric(
		name,
		withBucketTags(tags, idTag, bucketTag),
		&thrift.MetricValue{Count: &thrift.CountValue{I64Value: samples}},
	)
}

// Capabilities implements tally.StatsReporter. The M3 collector always
// accepts tagged, actively-reported metrics.
func (r *Reporter) Capabilities() tally.Capabilities {
	return tally.CapableOf(true, true)
}

// Flush implements tally.StatsReporter; it is a no-op because every
// Report* call already enqueues for the background emitter, which drains
// the queue continuously rather than waiting for an explicit flush
// signal.
func (r *Reporter) Flush() {}

// Close stops the background emitter after it has drained every metric
// already enqueued, and flushes any partially-built batch. Close blocks
// until the drain completes.
func (r *Reporter) Close() error {
	if !r.done.CAS(false, true) {
		return nil
	}
	close(r.closeCh)
	r.closedWg.Wait()
	return r.client.Close()
}

// run is the background emitter: it drains the queue, packing metrics
// into MTU-sized batches, until told to stop, at which point it drains
// whatever remains, flushes, and exits.
func (r *Reporter) run() {
	defer r.closedWg.Done()

	for {
		select {
		case m := <-r.queue:
			r.process(m)
		case <-r.closeCh:
			r.drainAndFlush()
			return
		}
	}
}

func (r *Reporter) drainAndFlush() {
	for {
		select {
		case m := <-r.queue:
			r.process(m)
		default:
			r.flush()
			return
		}
	}
}

// process appends m to the in-progress batch, flushing and restarting the
// batch first if adding m would exceed the packet budget. This mirrors
// the original reporter's size-probe packer: it encodes into a
// throwaway transport to measure the cumulative size before committing.
func (r *Reporter) process(m *thrift.Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calcTransport.Reset()
	if err := m.Write(context.Background(), r.calcProtocol); err != nil {
		r.logger.Printf("m3: failed to size metric %s: %v", m.Name, err)
		return
	}
	metricSize := r.calcTransport.Size()

	r.calcTransport.Reset()
	if err := r.currentBatch.Write(context.Background(), r.calcProtocol); err != nil {
		r.logger.Printf("m3: failed to size batch: %v", err)
	}
	batchSize := r.calcTransport.Size()

	if batchSize+metricSize > int(r.maxPacketSize) && len(r.currentBatch.Metrics) > 0 {
		r.flushLocked()
	}

	r.currentBatch.Metrics = append(r.currentBatch.Metrics, m)
}

func (r *Reporter) flush() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
}

func (r *Reporter) flushLocked() {
	if len(r.currentBatch.Metrics) == 0 {
		return
	}

	if err := r.m3Client.EmitMetricBatch(r.currentBatch); err != nil {
		r.logger.Printf("m3: failed to emit metric batch: %v", err)
	}
	if err := r.client.Flush(context.Background()); err != nil {
		r.logger.Printf("m3: failed to flush UDP client: %v", err)
	}

	r.currentBatch = &thrift.MetricBatch{Metrics: nil, CommonTags: r.commonTags}
}

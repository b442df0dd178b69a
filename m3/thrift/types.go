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

// Package thrift implements the wire types the M3 metrics ingestion
// protocol uses, hand-written against the compact protocol the way the
// Thrift IDL compiler would have generated them from m3.thrift.
package thrift

import (
	"context"
	"fmt"

	"github.com/apache/thrift/lib/go/thrift"
)

// MetricTag is a single key/optional-value pair attached to a Metric.
type MetricTag struct {
	Name     string
	TagValue *string
}

// CountValue is a MetricValue payload for a counter observation.
type CountValue struct {
	I64Value int64
}

// GaugeValue is a MetricValue payload for a gauge observation. The IDL
// models this as a union of int/double representations; this port only
// ever populates the double form, matching how the Go teacher's values
// are produced.
type GaugeValue struct {
	DValue float64
}

// TimerValue is a MetricValue payload for a timer observation, expressed
// in nanoseconds.
type TimerValue struct {
	I64Value int64
}

// MetricValue is a tagged union of exactly one of Count, Gauge, or Timer.
type MetricValue struct {
	Count *CountValue
	Gauge *GaugeValue
	Timer *TimerValue
}

// Metric is a single named, tagged, timestamped observation.
type Metric struct {
	Name          string
	Tags          []*MetricTag
	MetricValue   *MetricValue
	TimestampNano int64
}

// MetricBatch is a batch of metrics sharing a common tag set, the unit the
// M3 reporter flushes over the wire.
type MetricBatch struct {
	Metrics    []*Metric
	CommonTags []*MetricTag
}

const (
	_fieldMetricTagName    = 1
	_fieldMetricTagValue   = 2
	_fieldCountI64Value    = 1
	_fieldGaugeDValue      = 2
	_fieldTimerI64Value    = 1
	_fieldMetricValueCount = 1
	_fieldMetricValueGauge = 2
	_fieldMetricValueTimer = 3
	_fieldMetricName       = 1
	_fieldMetricTags       = 2
	_fieldMetricValueField = 3
	_fieldMetricTimestamp  = 4
	_fieldBatchMetrics     = 1
	_fieldBatchCommonTags  = 2
)

// Write encodes t onto p as a MetricTag struct.
func (t *MetricTag) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "MetricTag"); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "tagName", thrift.STRING, _fieldMetricTagName); err != nil {
		return err
	}
	if err := p.WriteString(ctx, t.Name); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if t.TagValue != nil {
		if err := p.WriteFieldBegin(ctx, "tagValue", thrift.STRING, _fieldMetricTagValue); err != nil {
			return err
		}
		if err := p.WriteString(ctx, *t.TagValue); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// Read decodes a MetricTag struct from p into t.
func (t *MetricTag) Read(ctx context.Context, p thrift.TProtocol) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		switch id {
		case _fieldMetricTagName:
			v, err := p.ReadString(ctx)
			if err != nil {
				return err
			}
			t.Name = v
		case _fieldMetricTagValue:
			v, err := p.ReadString(ctx)
			if err != nil {
				return err
			}
			t.TagValue = &v
		default:
			if err := p.Skip(ctx, fieldType); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func (v *MetricValue) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "MetricValue"); err != nil {
		return err
	}
	switch {
	case v.Count != nil:
		if err := p.WriteFieldBegin(ctx, "count", thrift.STRUCT, _fieldMetricValueCount); err != nil {
			return err
		}
		if err := writeCountValue(ctx, p, v.Count); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	case v.Gauge != nil:
		if err := p.WriteFieldBegin(ctx, "gauge", thrift.STRUCT, _fieldMetricValueGauge); err != nil {
			return err
		}
		if err := writeGaugeValue(ctx, p, v.Gauge); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	case v.Timer != nil:
		if err := p.WriteFieldBegin(ctx, "timer", thrift.STRUCT, _fieldMetricValueTimer); err != nil {
			return err
		}
		if err := writeTimerValue(ctx, p, v.Timer); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	default:
		return fmt.Errorf("m3 thrift: metric value has no populated member")
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func writeCountValue(ctx context.Context, p thrift.TProtocol, v *CountValue) error {
	if err := p.WriteStructBegin(ctx, "CountValue"); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "i64Value", thrift.I64, _fieldCountI64Value); err != nil {
		return err
	}
	if err := p.WriteI64(ctx, v.I64Value); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func writeGaugeValue(ctx context.Context, p thrift.TProtocol, v *GaugeValue) error {
	if err := p.WriteStructBegin(ctx, "GaugeValue"); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "dValue", thrift.DOUBLE, _fieldGaugeDValue); err != nil {
		return err
	}
	if err := p.WriteDouble(ctx, v.DValue); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func writeTimerValue(ctx context.Context, p thrift.TProtocol, v *TimerValue) error {
	if err := p.WriteStructBegin(ctx, "TimerValue"); err != nil {
		return err
	}
	if err := p.WriteFieldBegin(ctx, "i64Value", thrift.I64, _fieldTimerI64Value); err != nil {
		return err
	}
	if err := p.WriteI64(ctx, v.I64Value); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

func (v *MetricValue) Read(ctx context.Context, p thrift.TProtocol) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		switch id {
		case _fieldMetricValueCount:
			c := &CountValue{}
			if err := readCountValue(ctx, p, c); err != nil {
				return err
			}
			v.Count = c
		case _fieldMetricValueGauge:
			g := &GaugeValue{}
			if err := readGaugeValue(ctx, p, g); err != nil {
				return err
			}
			v.Gauge = g
		case _fieldMetricValueTimer:
			t := &TimerValue{}
			if err := readTimerValue(ctx, p, t); err != nil {
				return err
			}
			v.Timer = t
		default:
			if err := p.Skip(ctx, fieldType); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func readCountValue(ctx context.Context, p thrift.TProtocol, c *CountValue) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		if id == _fieldCountI64Value {
			v, err := p.ReadI64(ctx)
			if err != nil {
				return err
			}
			c.I64Value = v
		} else if err := p.Skip(ctx, fieldType); err != nil {
			return err
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func readGaugeValue(ctx context.Context, p thrift.TProtocol, g *GaugeValue) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		if id == _fieldGaugeDValue {
			v, err := p.ReadDouble(ctx)
			if err != nil {
				return err
			}
			g.DValue = v
		} else if err := p.Skip(ctx, fieldType); err != nil {
			return err
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

func readTimerValue(ctx context.Context, p thrift.TProtocol, t *TimerValue) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		if id == _fieldTimerI64Value {
			v, err := p.ReadI64(ctx)
			if err != nil {
				return err
			}
			t.I64Value = v
		} else if err := p.Skip(ctx, fieldType); err != nil {
			return err
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

// Write encodes m onto p as a Metric struct.
func (m *Metric) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "Metric"); err != nil {
		return err
	}

	if err := p.WriteFieldBegin(ctx, "name", thrift.STRING, _fieldMetricName); err != nil {
		return err
	}
	if err := p.WriteString(ctx, m.Name); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}

	if len(m.Tags) > 0 {
		if err := p.WriteFieldBegin(ctx, "tags", thrift.LIST, _fieldMetricTags); err != nil {
			return err
		}
		if err := p.WriteListBegin(ctx, thrift.STRUCT, len(m.Tags)); err != nil {
			return err
		}
		for _, t := range m.Tags {
			if err := t.Write(ctx, p); err != nil {
				return err
			}
		}
		if err := p.WriteListEnd(ctx); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}

	if m.MetricValue != nil {
		if err := p.WriteFieldBegin(ctx, "metricValue", thrift.STRUCT, _fieldMetricValueField); err != nil {
			return err
		}
		if err := m.MetricValue.Write(ctx, p); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}

	if err := p.WriteFieldBegin(ctx, "timestamp", thrift.I64, _fieldMetricTimestamp); err != nil {
		return err
	}
	if err := p.WriteI64(ctx, m.TimestampNano); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}

	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// Read decodes a Metric struct from p into m.
func (m *Metric) Read(ctx context.Context, p thrift.TProtocol) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		switch id {
		case _fieldMetricName:
			v, err := p.ReadString(ctx)
			if err != nil {
				return err
			}
			m.Name = v
		case _fieldMetricTags:
			_, size, err := p.ReadListBegin(ctx)
			if err != nil {
				return err
			}
			tags := make([]*MetricTag, 0, size)
			for i := 0; i < size; i++ {
				t := &MetricTag{}
				if err := t.Read(ctx, p); err != nil {
					return err
				}
				tags = append(tags, t)
			}
			if err := p.ReadListEnd(ctx); err != nil {
				return err
			}
			m.Tags = tags
		case _fieldMetricValueField:
			v := &MetricValue{}
			if err := v.Read(ctx, p); err != nil {
				return err
			}
			m.MetricValue = v
		case _fieldMetricTimestamp:
			v, err := p.ReadI64(ctx)
			if err != nil {
				return err
			}
			m.TimestampNano = v
		default:
			if err := p.Skip(ctx, fieldType); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

// Write encodes b onto p as a MetricBatch struct.
func (b *MetricBatch) Write(ctx context.Context, p thrift.TProtocol) error {
	if err := p.WriteStructBegin(ctx, "MetricBatch"); err != nil {
		return err
	}

	if err := p.WriteFieldBegin(ctx, "metrics", thrift.LIST, _fieldBatchMetrics); err != nil {
		return err
	}
	if err := p.WriteListBegin(ctx, thrift.STRUCT, len(b.Metrics)); err != nil {
		return err
	}
	for _, m := range b.Metrics {
		if err := m.Write(ctx, p); err != nil {
			return err
		}
	}
	if err := p.WriteListEnd(ctx); err != nil {
		return err
	}
	if err := p.WriteFieldEnd(ctx); err != nil {
		return err
	}

	if len(b.CommonTags) > 0 {
		if err := p.WriteFieldBegin(ctx, "commonTags", thrift.LIST, _fieldBatchCommonTags); err != nil {
			return err
		}
		if err := p.WriteListBegin(ctx, thrift.STRUCT, len(b.CommonTags)); err != nil {
			return err
		}
		for _, t := range b.CommonTags {
			if err := t.Write(ctx, p); err != nil {
				return err
			}
		}
		if err := p.WriteListEnd(ctx); err != nil {
			return err
		}
		if err := p.WriteFieldEnd(ctx); err != nil {
			return err
		}
	}

	if err := p.WriteFieldStop(ctx); err != nil {
		return err
	}
	return p.WriteStructEnd(ctx)
}

// Read decodes a MetricBatch struct from p into b.
func (b *MetricBatch) Read(ctx context.Context, p thrift.TProtocol) error {
	if _, err := p.ReadStructBegin(ctx); err != nil {
		return err
	}
	for {
		_, fieldType, id, err := p.ReadFieldBegin(ctx)
		if err != nil {
			return err
		}
		if fieldType == thrift.STOP {
			break
		}
		switch id {
		case _fieldBatchMetrics:
			_, size, err := p.ReadListBegin(ctx)
			if err != nil {
				return err
			}
			metrics := make([]*Metric, 0, size)
			for i := 0; i < size; i++ {
				m := &Metric{}
				if err := m.Read(ctx, p); err != nil {
					return err
				}
				metrics = append(metrics, m)
			}
			if err := p.ReadListEnd(ctx); err != nil {
				return err
			}
			b.Metrics = metrics
		case _fieldBatchCommonTags:
			_, size, err := p.ReadListBegin(ctx)
			if err != nil {
				return err
			}
			tags := make([]*MetricTag, 0, size)
			for i := 0; i < size; i++ {
				t := &MetricTag{}
				if err := t.Read(ctx, p); err != nil {
					return err
				}
				tags = append(tags, t)
			}
			if err := p.ReadListEnd(ctx); err != nil {
				return err
			}
			b.CommonTags = tags
		default:
			if err := p.Skip(ctx, fieldType); err != nil {
				return err
			}
		}
		if err := p.ReadFieldEnd(ctx); err != nil {
			return err
		}
	}
	return p.ReadStructEnd(ctx)
}

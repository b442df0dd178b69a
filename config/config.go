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

// Package config loads a Scope and its M3 reporter from a YAML document,
// the declarative counterpart to building them with Go literals.
package config

import (
	"io"
	"time"

	"github.com/pkg/errors"
	validator "gopkg.in/validator.v2"
	yaml "gopkg.in/yaml.v2"

	tally "github.com/m3db/tally-go"
	"github.com/m3db/tally-go/m3"
)

// ScopeConfiguration configures the Scope half of a Configuration: the
// name/tag namespace and report cadence, independent of where it reports
// to.
type ScopeConfiguration struct {
	Prefix    string            `yaml:"prefix"`
	Tags      map[string]string `yaml:"tags"`
	Separator string            `yaml:"separator"`

	// ReportInterval is how often the scope tree is reported. Zero
	// disables the background report loop entirely.
	ReportInterval time.Duration `yaml:"reportInterval"`
}

// M3Configuration configures the M3 reporter half of a Configuration.
type M3Configuration struct {
	// HostPort is the address of the M3 collector, e.g. "127.0.0.1:9052".
	HostPort string `yaml:"hostPort" validate:"nonzero"`

	CommonTags map[string]string `yaml:"commonTags"`

	MaxQueueSize       int   `yaml:"maxQueueSize"`
	MaxPacketSizeBytes int32 `yaml:"maxPacketSizeBytes"`
}

// Configuration is the top-level YAML document this package loads: a
// Scope configuration and, optionally, an M3 reporter configuration. If
// M3 is nil, the resulting scope reports to tally.NullStatsReporter.
type Configuration struct {
	Scope ScopeConfiguration `yaml:"scope"`
	M3    *M3Configuration   `yaml:"m3"`
}

// LoadConfiguration parses YAML from r into a Configuration and validates
// it with struct tags before returning.
func LoadConfiguration(r io.Reader) (*Configuration, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "config: read YAML")
	}

	var cfg Configuration
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, errors.Wrap(err, "config: parse YAML")
	}

	if err := validator.Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: validate")
	}
	if cfg.M3 != nil {
		if err := validator.Validate(cfg.M3); err != nil {
			return nil, errors.Wrap(err, "config: validate m3")
		}
	}

	return &cfg, nil
}

// NewScope builds the running Scope and its io.Closer from a
// Configuration: if M3 is configured, its reporter backs the scope;
// otherwise the scope reports to tally.NullStatsReporter.
func (c *Configuration) NewScope() (tally.Scope, io.Closer, error) {
	reporter := tally.NullStatsReporter

	if c.M3 != nil {
		r, err := m3.NewReporter(m3.Options{
			HostPort:           c.M3.HostPort,
			CommonTags:         c.M3.CommonTags,
			MaxQueueSize:       c.M3.MaxQueueSize,
			MaxPacketSizeBytes: c.M3.MaxPacketSizeBytes,
		})
		if err != nil {
			return nil, nil, errors.Wrap(err, "config: build m3 reporter")
		}
		reporter = r
	}

	scope, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix:    c.Scope.Prefix,
		Tags:      c.Scope.Tags,
		Separator: c.Scope.Separator,
		Reporter:  reporter,
	}, c.Scope.ReportInterval)

	return scope, closer, nil
}

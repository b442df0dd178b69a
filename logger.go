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
	"log"
)

// Logger receives a line of text for every failure the M3 reporter cannot
// return as an error: a dropped metric on queue overflow, a failed batch
// emit, a failed UDP flush (including its send error). Receive errors on
// the read side of the UDP transport are not logged. The original reporter
// and transport wrote these straight to stderr; this interface lets a host
// application redirect that output instead of losing it.
type Logger interface {
	Printf(format string, args ...interface{})
}

// NewLogger returns a Logger that writes a single line per call to w,
// prefixed with a timestamp the way the standard logger does.
func NewLogger(w io.Writer) Logger {
	return &stdLogger{l: log.New(w, "", log.LstdFlags)}
}

type stdLogger struct {
	l *log.Logger
}

func (s *stdLogger) Printf(format string, args ...interface{}) {
	s.l.Printf(format, args...)
}

// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package mxf

import (
	"os"

	kratoslog "github.com/go-kratos/kratos/v2/log"
)

// Sink is the diagnostic sink threaded explicitly through Session,
// Partition and Resolver.Finalize (KLVObject carries none), replacing the global error()/warning()
// sinks the original C++ implementation calls process-wide (design
// note §9: "implementations should thread an explicit diagnostic sink
// ... to preserve testability"). It wraps a go-kratos log.Helper the
// same way the teacher's file.go wires github.com/saferwall/pe/log.
type Sink struct {
	helper *kratoslog.Helper
}

// NewSink wraps logger, filtering at minLevel the way the teacher
// filters at log.LevelError by default in file.go's New/NewBytes.
func NewSink(logger kratoslog.Logger, minLevel kratoslog.Level) *Sink {
	if logger == nil {
		logger = kratoslog.NewStdLogger(os.Stdout)
	}
	return &Sink{helper: kratoslog.NewHelper(kratoslog.NewFilter(logger, kratoslog.FilterLevel(minLevel)))}
}

// DefaultSink is a Sink over a stdout logger filtered to warnings and
// above, used when a caller doesn't supply one.
func DefaultSink() *Sink {
	return NewSink(kratoslog.NewStdLogger(os.Stdout), kratoslog.LevelWarn)
}

// Warnf logs a non-fatal structural anomaly (UnknownUL, UnknownTag,
// DanglingWeakRef, resynchronisation events).
func (s *Sink) Warnf(format string, args ...interface{}) {
	if s == nil || s.helper == nil {
		return
	}
	s.helper.Warnf(format, args...)
}

// Errorf logs a condition the caller will also see returned as an
// error, for operator visibility in long essence-iteration runs.
func (s *Sink) Errorf(format string, args ...interface{}) {
	if s == nil || s.helper == nil {
		return
	}
	s.helper.Errorf(format, args...)
}

// Debugf logs fine-grained tracing (e.g. per-KLV resync scanning).
func (s *Sink) Debugf(format string, args ...interface{}) {
	if s == nil || s.helper == nil {
		return
	}
	s.helper.Debugf(format, args...)
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package tool implements the introspection and benchmarking commands of the
// scanfilter command line tool.
package tool

import (
	"github.com/cockroachdb/scanfilter"
	"github.com/spf13/cobra"
)

// T is the container for all of the introspection tools.
type T struct {
	Commands []*cobra.Command
	filter   *filterT
	bench    *benchT
	logger   scanfilter.Logger
}

// Option configures the tool.
type Option func(*T)

// WithLogger sets the logger used by commands that open a table.
func WithLogger(logger scanfilter.Logger) Option {
	return func(t *T) { t.logger = logger }
}

// New creates a new introspection tool.
func New(opts ...Option) *T {
	t := &T{logger: scanfilter.DefaultLogger{}}
	for _, opt := range opts {
		opt(t)
	}
	t.filter = newFilter()
	t.bench = newBench(t.logger)
	t.Commands = []*cobra.Command{
		t.filter.Root,
		t.bench.Root,
	}
	return t
}

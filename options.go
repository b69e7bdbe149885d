// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import (
	"fmt"
	"log"
)

// Logger defines an interface for writing log messages.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// DefaultLogger logs to the Go stdlib logs.
type DefaultLogger struct{}

var _ Logger = DefaultLogger{}

// Infof implements the Logger.Infof interface.
func (DefaultLogger) Infof(format string, args ...interface{}) {
	_ = log.Output(2, fmt.Sprintf(format, args...))
}

// Errorf implements the Logger.Errorf interface.
func (DefaultLogger) Errorf(format string, args ...interface{}) {
	_ = log.Output(2, "ERROR: "+fmt.Sprintf(format, args...))
}

// SkipScanOptions holds the optional parameters of a SkipScanFilter. The zero
// value is a filter that includes only the newest version of every row and is
// not a point lookup.
type SkipScanOptions struct {
	// IncludeAllVersions makes the filter return Include rather than
	// IncludeAndSkipVersions for matching rows.
	IncludeAllVersions bool
	// PointLookup declares that the first slot enumerates complete row keys.
	// Callers may then fetch those keys directly (see PointLookupRanges)
	// instead of scanning.
	PointLookup bool
	// Offset is the number of leading bytes of every row key that precede the
	// first field, such as a salt or tenant prefix. These bytes are ignored
	// when matching and copied from the current row into every seek hint.
	Offset int
}

// DistinctPrefixOptions holds the optional parameters of a
// DistinctPrefixFilter.
type DistinctPrefixOptions struct {
	// Offset is the number of leading bytes of every row key that precede the
	// first field. See SkipScanOptions.Offset.
	Offset int
}

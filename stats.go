// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import "github.com/cockroachdb/redact"

// Stats counts the work done by a filter.
type Stats struct {
	// Rows is the number of rows presented to the filter.
	Rows uint64
	// Included is the number of rows the filter included.
	Included uint64
	// Seeks is the number of seek hints the filter produced.
	Seeks uint64
	// CachedIncludes is the number of included rows that fell below the upper
	// bound of the previously matched range combination, and so needed no
	// decoding.
	CachedIncludes uint64
	// Terminated is set once the filter has returned Terminate.
	Terminated bool
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return redact.StringWithoutMarkers(s)
}

// SafeFormat implements redact.SafeFormatter.
func (s Stats) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("rows=%d included=%d seeks=%d cached=%d", s.Rows, s.Included, s.Seeks, s.CachedIncludes)
	if s.Terminated {
		w.SafeString(" terminated")
	}
}

// record updates the counters for a decision.
func (s *Stats) record(d Decision) {
	s.Rows++
	switch d {
	case Include, IncludeAndSkipVersions:
		s.Included++
	case SeekToHint:
		s.Seeks++
	case Terminate:
		s.Terminated = true
	}
}

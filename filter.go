// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package scanfilter implements scan-pruning filters over composite row keys.
//
// A filter is driven by a host scan engine that presents row keys in strictly
// increasing order. For each row the filter decides whether the row is
// included, whether the host should seek forward to a hint key, skipping the
// rows in between, or whether the scan is over. Two filters are provided:
//
//   - SkipScanFilter evaluates a conjunction of per-column disjunctions of
//     key ranges ("slots"), seeking over rows that cannot match.
//   - DistinctPrefixFilter includes only the first row of every distinct key
//     prefix.
//
// Row keys are decoded with a rowkey.Schema, and ranges are expressed as
// keyrange.KeyRange values over the stored form of the decoded fields.
package scanfilter

import "github.com/cockroachdb/scanfilter/internal/wire"

// Filter is the contract between a filter and the host scan engine.
//
// A Filter is used by a single goroutine for the duration of one scan. Rows
// must be presented in strictly increasing key order within each family.
type Filter interface {
	// Navigate returns the decision for the row with the given key, read from
	// the given column family. When the decision is SeekToHint, NextHint
	// returns the key to seek to. An error is only returned on an internal
	// inconsistency and aborts the scan.
	Navigate(family, row []byte) (Decision, error)
	// NextHint returns the most recent seek hint computed for the family, or
	// nil if there is none.
	NextHint(family []byte) []byte
	// Exhausted returns true once no further row can be included.
	Exhausted() bool
	// Stats returns counters describing the work done by the filter.
	Stats() Stats
}

// ErrCorruptFilter is the error returned, possibly wrapped, when a
// serialized filter cannot be decoded.
var ErrCorruptFilter = wire.ErrCorrupt

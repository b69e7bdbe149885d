// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import "github.com/cockroachdb/redact"

// Decision is the verdict a Filter returns for a row.
type Decision int8

const (
	// Include includes the row, with all of its versions.
	Include Decision = iota
	// IncludeAndSkipVersions includes the newest version of the row; the host
	// may skip its older versions.
	IncludeAndSkipVersions
	// SeekToHint excludes the row. The host should seek to the key returned
	// by NextHint for the row's family.
	SeekToHint
	// Terminate excludes the row and every row after it.
	Terminate
)

var decisionNames = [...]string{
	Include:                "include",
	IncludeAndSkipVersions: "include-skip-versions",
	SeekToHint:             "seek",
	Terminate:              "terminate",
}

// String implements fmt.Stringer.
func (d Decision) String() string {
	if d < 0 || int(d) >= len(decisionNames) {
		return "unknown"
	}
	return decisionNames[d]
}

// SafeFormat implements redact.SafeFormatter.
func (d Decision) SafeFormat(w redact.SafePrinter, _ rune) {
	w.SafeString(redact.SafeString(d.String()))
}

// Included returns true if the row the decision was made for is part of the
// result.
func (d Decision) Included() bool {
	return d == Include || d == IncludeAndSkipVersions
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package invariants holds assertions that only run in builds with the
// "invariants" or "race" build tags.
package invariants

import "github.com/cockroachdb/errors"

// CheckSorted panics in invariant builds if the n elements described by cmp
// are not in strictly increasing order. cmp(i, j) must return a negative
// number when element i orders before element j.
func CheckSorted(n int, cmp func(i, j int) int) {
	if !Enabled {
		return
	}
	for i := 1; i < n; i++ {
		if cmp(i-1, i) >= 0 {
			panic(errors.AssertionFailedf("elements %d and %d out of order", i-1, i))
		}
	}
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"
)

// hintMap holds the most recent seek hint of each column family. A row may
// be stored across several families, each read by its own iterator, so each
// family needs its own increasing sequence of hints.
type hintMap struct {
	m swiss.Map[string, []byte]
}

func (h *hintMap) init() {
	h.m.Init(1)
}

// get returns the most recent hint for the family.
func (h *hintMap) get(family []byte) []byte {
	hint, _ := h.m.Get(string(family))
	return hint
}

// set records a new hint for the family. A hint that does not sort after the
// previous hint of the same family would make the host seek backwards or
// stall, and is reported as an assertion failure.
func (h *hintMap) set(family, hint []byte) error {
	if prev, ok := h.m.Get(string(family)); ok && bytes.Compare(hint, prev) <= 0 {
		return errors.AssertionFailedf("seek hint %x for family %q does not sort after previous hint %x",
			hint, family, prev)
	}
	h.m.Put(string(family), append([]byte(nil), hint...))
	return nil
}

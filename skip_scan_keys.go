// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import (
	"github.com/cockroachdb/scanfilter/keyrange"
	"github.com/cockroachdb/scanfilter/rowkey"
)

// appendBound appends to dst the given bound of the current combination of
// ranges of slots start and above, producing a key that is a lower bound
// (inclusive) or an upper bound (exclusive) of every key matching the
// combination when prefixed by dst. It returns false if the key cannot be
// represented because incrementing it overflowed.
func (f *SkipScanFilter) appendBound(dst []byte, bound keyrange.Bound, start int) ([]byte, bool) {
	begin := len(dst)
	upper := bound == keyrange.Upper
	// increment is set when dst must be incremented past the keys it
	// prefixes.
	increment := false
	// trim is the length of a lower bound without its trailing separators
	// and nulls, which keys omit when the fields that follow are null.
	trim := begin
	for i := start; i < len(f.slots); i++ {
		r := f.current(i)
		if r.Unbounded(bound) {
			increment = upper
			break
		}
		key := r.Key(bound)
		if upper && !r.UpperInclusive() {
			// Anything appended after an exclusive upper end would admit keys
			// equal to it.
			dst = append(dst, key...)
			increment = false
			break
		}
		n := len(dst)
		complete := true
		if !upper && r.LowerInclusive() && f.isLastField(i) {
			dst = append(dst, key...)
		} else {
			dst, complete = f.appendValue(dst, key, i)
		}
		if len(key) > 0 {
			trim = n + len(key)
		}
		if upper {
			increment = true
		}
		if !complete {
			break
		}
		if !upper && !r.LowerInclusive() {
			// The smallest key after every key holding the value. Once a
			// variable-width field has been incremented, the key no longer
			// splits into the fields of the schema, so nothing may follow.
			if !f.incrementKey(dst) {
				return dst[:begin], false
			}
			if !f.fixedThrough(i) {
				return dst, true
			}
			trim = len(dst)
		}
	}
	if increment {
		if !f.incrementKey(dst) {
			return dst[:begin], false
		}
		return dst, true
	}
	if !upper {
		dst = dst[:trim]
	}
	return dst, true
}

// appendValue appends to dst the value key of slot i followed by the
// separator terminating it, so that the value of the next slot may follow.
// Fields of the slot missing from key are appended as nulls. It returns false
// if a missing field has a fixed width, leaving dst after the fields present.
func (f *SkipScanFilter) appendValue(dst, key []byte, i int) ([]byte, bool) {
	f.bounds.Reset(key, 0)
	n := f.bounds.Advance(f.fieldPos[i], f.spans[i])
	dst, _ = f.bounds.Terminate(dst)
	for k := n; k < f.spans[i]; k++ {
		if f.schema.Field(f.fieldPos[i] + k).FixedWidth() {
			return dst, false
		}
		dst = append(dst, rowkey.AscSeparator)
	}
	return dst, true
}

// fixedThrough returns true if every field up to the end of slot i has a
// fixed width.
func (f *SkipScanFilter) fixedThrough(i int) bool {
	for k := 0; k < f.fieldPos[i]+f.spans[i]; k++ {
		if !f.schema.Field(k).FixedWidth() {
			return false
		}
	}
	return true
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import (
	"bytes"
	"slices"
	"sort"

	"github.com/cockroachdb/scanfilter/keyrange"
	"github.com/cockroachdb/scanfilter/rowkey"
)

// Intersect returns a filter that is restricted to the keys in [lower,
// upper), or false if no key in the interval can match. An empty lower or
// upper is unbounded. The keys of the interval include the row key offset;
// with a row key offset, the slots are only narrowed if both keys are bounded
// and share the offset prefix.
//
// Within [lower, upper) the returned filter includes exactly the rows the
// receiver includes; it is meant to be used by a scan confined to that
// interval, such as the scan of one region of a split table. The receiver is
// not modified.
func (f *SkipScanFilter) Intersect(lower, upper []byte) (*SkipScanFilter, bool) {
	slots, ok := f.fresh().intersect(lower, upper, true)
	if !ok {
		return nil, false
	}
	g, err := NewSkipScanFilter(f.schema, slots, f.spans, f.opts)
	if err != nil {
		// Every intersected slot holds a non-empty sublist of a valid slot.
		panic(err)
	}
	return g, true
}

// HasIntersect returns true if some key in [lower, upper) may match the
// filter. It is equivalent to the second result of Intersect, without
// building the new filter.
func (f *SkipScanFilter) HasIntersect(lower, upper []byte) bool {
	_, ok := f.fresh().intersect(lower, upper, false)
	return ok
}

// fresh returns a filter with the configuration of f and a reset scan state.
func (f *SkipScanFilter) fresh() *SkipScanFilter {
	return &SkipScanFilter{
		schema:   f.schema,
		slots:    f.slots,
		spans:    f.spans,
		opts:     f.opts,
		fieldPos: f.fieldPos,
		position: make([]int, len(f.slots)),
		cursor:   rowkey.MakeCursor(f.schema),
		bounds:   rowkey.MakeCursor(f.schema),
	}
}

// searchFirstSlot returns the index of the first range of slot 0 at or after
// from whose upper bound is not below the slot 0 value of key. It leaves the
// cursor on the slot 0 value of key.
func (f *SkipScanFilter) searchFirstSlot(key []byte, from int) int {
	f.cursor.Reset(key, f.opts.Offset)
	f.cursor.Advance(f.fieldPos[0], f.spans[0])
	value := f.cursor.Value()
	slot := f.slots[0]
	return from + sort.Search(len(slot)-from, func(k int) bool {
		return slot[from+k].CompareUpperToLowerBound(value, true, bytes.Compare) >= 0
	})
}

// intersect computes the slots restricted to [lower, upper). It navigates the
// receiver, which must have a fresh scan state. When build is false only the
// second result is computed.
func (f *SkipScanFilter) intersect(lower, upper []byte, build bool) ([][]keyrange.KeyRange, bool) {
	var newSlots [][]keyrange.KeyRange
	first := f.slots[0]
	lastSlot := len(f.slots) - 1

	if off := f.opts.Offset; off > 0 && (len(lower) < off || len(upper) < off ||
		!bytes.Equal(lower[:off], upper[:off])) {
		// Keys in the interval may have any row key offset prefix, and so any
		// value in every slot.
		if build {
			newSlots = f.slots
		}
		return newSlots, true
	}

	lowerUnbounded := len(lower) == 0
	startPos := 0
	if !lowerUnbounded {
		startPos = f.searchFirstSlot(lower, 0)
		if startPos >= len(first) {
			return nil, false
		}
	}
	upperUnbounded := len(upper) == 0
	endPos := len(first) - 1
	if !upperUnbounded {
		endPos = f.searchFirstSlot(upper, startPos)
		if endPos >= len(first) {
			upperUnbounded = true
			endPos = len(first) - 1
		} else if c := first[endPos].CompareLowerToUpperBound(f.cursor.Value(), true, bytes.Compare); c > 0 ||
			(c == 0 && f.cursor.End() == len(upper)) {
			// The range at endPos starts after the slot 0 value of the
			// exclusive upper key, or at that value when the key holds
			// nothing beyond it.
			endPos--
		}
		if endPos < startPos {
			return nil, false
		}
	}

	if lastSlot == 0 {
		if build {
			newSlots = append(newSlots, first[startPos:endPos+1])
		}
		return newSlots, true
	}

	// lowerKey is the smallest key at or after lower that may match: lower
	// itself if it matches, or the seek hint computed for it.
	var lowerKey []byte
	if !lowerUnbounded {
		f.position[0] = startPos
		switch f.navigate(lower, terminateAfter) {
		case Terminate:
			return nil, false
		case SeekToHint:
			lowerKey = slices.Clone(f.startKey)
		default:
			lowerKey = lower
		}
	}
	if upperUnbounded {
		if build {
			newSlots = append(newSlots, first[f.position[0]:endPos+1])
			newSlots = append(newSlots, f.slots[1:]...)
		}
		return newSlots, true
	}

	lowerPosition := slices.Clone(f.position)
	switch d := f.navigate(upper, terminateAt); {
	case d.Included():
		// If the upper key is the smallest key of the combination it is in,
		// the combination lies entirely above the exclusive upper key; back
		// up to the previous one.
		start := append([]byte(nil), upper[:min(f.opts.Offset, len(upper))]...)
		if start, ok := f.appendBound(start, keyrange.Lower, 0); ok && bytes.Equal(start, upper) {
			if f.previousPosition(lastSlot) < 0 || f.position[0] < lowerPosition[0] {
				return nil, false
			}
		}
	case d == SeekToHint:
		// The upper key is below the combination the positions point at. If
		// that is the combination found for the lower key, and it is a
		// single key up to the last slot, nothing lies in between.
		if slices.Equal(lowerPosition, f.position) && f.singleKeysBefore(lastSlot) {
			return nil, false
		}
	case f.done:
		// The positions wrapped around; the upper key is beyond every
		// combination.
		for i := range f.position {
			f.position[i] = len(f.slots[i]) - 1
		}
	}

	lowerCursor, upperCursor := rowkey.MakeCursor(f.schema), rowkey.MakeCursor(f.schema)
	lowerCursor.Reset(lowerKey, f.opts.Offset)
	upperCursor.Reset(upper, f.opts.Offset)
	for i := 0; i <= lastSlot; i++ {
		slot := f.slots[i]
		end := min(f.position[i]+1, len(slot))
		if lowerPosition[i] >= end {
			return nil, false
		}
		ranges := slot[lowerPosition[i]:end]
		if build {
			newSlots = append(newSlots, ranges)
		}
		if f.position[i] > lowerPosition[i] {
			// Every combination of the following slots is reachable between
			// the two positions.
			if build {
				newSlots = append(newSlots, f.slots[i+1:]...)
			}
			break
		}
		lowerCursor.Advance(f.fieldPos[i], f.spans[i])
		upperCursor.Advance(f.fieldPos[i], f.spans[i])
		if !ranges[0].IsSingleKey() && !bytes.Equal(lowerCursor.Value(), upperCursor.Value()) {
			// Both keys fall within the same range of this slot, but with
			// different values; the following slots are unconstrained in
			// between.
			if build {
				newSlots = append(newSlots, f.slots[i+1:]...)
			}
			break
		}
	}
	return newSlots, true
}

// singleKeysBefore returns true if the current ranges of the slots before
// slot n are all single keys.
func (f *SkipScanFilter) singleKeysBefore(n int) bool {
	for i := 0; i < n; i++ {
		if f.position[i] >= len(f.slots[i]) || !f.current(i).IsSingleKey() {
			return false
		}
	}
	return true
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import (
	"bytes"
	"slices"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/scanfilter/internal/invariants"
	"github.com/cockroachdb/scanfilter/keyrange"
	"github.com/cockroachdb/scanfilter/rowkey"
)

// SkipScanFilter includes the rows whose key satisfies a conjunction of
// slots, where each slot is a disjunction of key ranges over one or more
// consecutive fields of the row key. Rows that cannot match are skipped by
// returning SeekToHint with the smallest key that may match next.
//
// The filter keeps a position into every slot, which only moves forward as
// the scan progresses. Together the positions select one combination of
// ranges; the filter walks these combinations in key order.
type SkipScanFilter struct {
	schema rowkey.Schema
	slots  [][]keyrange.KeyRange
	spans  []int
	opts   SkipScanOptions

	// fieldPos[i] is the index of the first field of slot i.
	fieldPos []int

	position []int
	cursor   rowkey.Cursor
	// bounds decodes range bounds while building keys.
	bounds rowkey.Cursor
	// startKey holds the most recent seek hint, or a key under construction
	// while backtracking.
	startKey []byte
	// endKey, when non-empty, is an exclusive upper bound of the keys matching
	// the current combination of ranges.
	endKey []byte
	done   bool
	hints  hintMap
	stats  Stats
}

var _ Filter = (*SkipScanFilter)(nil)

// NewSkipScanFilter returns a filter that includes rows whose key, decoded
// with schema, has a value in one of the ranges of every slot. spans[i] is
// the number of fields covered by slot i; a nil spans gives every slot a
// single field. Within a slot, ranges must be sorted and must not overlap.
// Range bounds hold stored values (see rowkey.EncodeString), joined by the
// separators between the fields of the slot; they compare bytewise.
//
// The filter retains slots; the caller must not modify them.
func NewSkipScanFilter(
	schema rowkey.Schema, slots [][]keyrange.KeyRange, spans []int, opts SkipScanOptions,
) (*SkipScanFilter, error) {
	if len(slots) == 0 {
		return nil, errors.New("skip scan filter requires at least one slot")
	}
	if spans == nil {
		spans = make([]int, len(slots))
		for i := range spans {
			spans[i] = 1
		}
	}
	if len(spans) != len(slots) {
		return nil, errors.Errorf("%d spans for %d slots", len(spans), len(slots))
	}
	if opts.Offset < 0 {
		return nil, errors.Errorf("negative row key offset %d", opts.Offset)
	}
	f := &SkipScanFilter{
		schema:   schema,
		slots:    slots,
		spans:    spans,
		opts:     opts,
		fieldPos: make([]int, len(slots)),
		position: make([]int, len(slots)),
		cursor:   rowkey.MakeCursor(schema),
		bounds:   rowkey.MakeCursor(schema),
	}
	pos := 0
	for i, slot := range slots {
		if len(slot) == 0 {
			return nil, errors.Errorf("slot %d has no ranges", i)
		}
		if spans[i] < 1 || spans[i] > maxSlotSpan {
			return nil, errors.Errorf("slot %d has invalid span %d", i, spans[i])
		}
		if len(slot) > maxSlotRanges {
			return nil, errors.Errorf("slot %d has %d ranges, more than the maximum %d", i, len(slot), maxSlotRanges)
		}
		f.fieldPos[i] = pos
		pos += spans[i]
		if pos > schema.NumFields() {
			return nil, errors.Errorf("slots cover %d fields but the schema has %d", pos, schema.NumFields())
		}
		for _, r := range slot {
			for _, b := range [...]keyrange.Bound{keyrange.Lower, keyrange.Upper} {
				if r.Unbounded(b) {
					continue
				}
				if err := f.checkSlotValue(i, r.Key(b)); err != nil {
					return nil, err
				}
			}
		}
		invariants.CheckSorted(len(slot), func(a, b int) int {
			return slot[a].CompareUpperToLowerBound(slot[b].Lower(), slot[b].LowerInclusive(), bytes.Compare)
		})
	}
	if opts.PointLookup && len(slots) != 1 {
		return nil, errors.Errorf("point lookup filter must have a single slot, not %d", len(slots))
	}
	f.hints.init()
	return f, nil
}

// checkSlotValue returns an error if v is not a value of slot i: the stored
// values of the slot's leading fields, each non-null descending value
// terminated, with nothing following the last field.
func (f *SkipScanFilter) checkSlotValue(i int, v []byte) error {
	f.bounds.Reset(v, 0)
	n := f.bounds.Advance(f.fieldPos[i], f.spans[i])
	if f.bounds.End() != len(v) {
		return errors.Errorf("slot %d: value %x holds more than %d fields", i, v, f.spans[i])
	}
	if _, ok := f.bounds.Terminate(nil); !ok {
		return errors.Errorf("slot %d: value %x ends inside a descending value", i, v)
	}
	for k := n; k < f.spans[i]; k++ {
		if f.schema.Field(f.fieldPos[i] + k).FixedWidth() && len(v) > 0 {
			return errors.Errorf("slot %d: value %x is missing fixed-width field %d", i, v, f.fieldPos[i]+k)
		}
	}
	return nil
}

// Schema returns the schema row keys are decoded with.
func (f *SkipScanFilter) Schema() rowkey.Schema { return f.schema }

// Slots returns the slots of the filter. The result must not be modified.
func (f *SkipScanFilter) Slots() [][]keyrange.KeyRange { return f.slots }

// Spans returns the number of fields covered by each slot.
func (f *SkipScanFilter) Spans() []int { return f.spans }

// Options returns the options the filter was created with.
func (f *SkipScanFilter) Options() SkipScanOptions { return f.opts }

// IsPointLookup returns true if the single slot of the filter enumerates
// complete row keys.
func (f *SkipScanFilter) IsPointLookup() bool { return f.opts.PointLookup }

// PointLookupRanges returns the row keys enumerated by a point lookup filter,
// as single-key ranges, or nil if the filter is not a point lookup.
func (f *SkipScanFilter) PointLookupRanges() []keyrange.KeyRange {
	if !f.opts.PointLookup {
		return nil
	}
	return f.slots[0]
}

// Exhausted implements Filter.
func (f *SkipScanFilter) Exhausted() bool { return f.done }

// Stats implements Filter.
func (f *SkipScanFilter) Stats() Stats { return f.stats }

// NextHint implements Filter.
func (f *SkipScanFilter) NextHint(family []byte) []byte {
	return f.hints.get(family)
}

// Navigate implements Filter.
func (f *SkipScanFilter) Navigate(family, row []byte) (Decision, error) {
	d := Terminate
	if !f.done {
		d = f.navigate(row, terminateAfter)
	}
	if d == SeekToHint {
		if err := f.hints.set(family, f.startKey); err != nil {
			f.done = true
			return Terminate, err
		}
	}
	f.stats.record(d)
	return d, nil
}

// terminateMode says how navigate treats a key beyond the last range of a
// slot.
type terminateMode int8

const (
	// terminateAfter backtracks to the next combination of ranges that sorts
	// after the key, terminating if there is none.
	terminateAfter terminateMode = iota
	// terminateAt stops at the key and returns SeekToHint without moving the
	// positions further.
	terminateAt
)

func (f *SkipScanFilter) includeDecision() Decision {
	if f.opts.IncludeAllVersions {
		return Include
	}
	return IncludeAndSkipVersions
}

// lastField returns the last field covered by slot i.
func (f *SkipScanFilter) lastField(i int) rowkey.Field {
	return f.schema.Field(f.fieldPos[i] + f.spans[i] - 1)
}

// isLastField returns true if slot i ends with the last field of the schema.
func (f *SkipScanFilter) isLastField(i int) bool {
	return f.fieldPos[i]+f.spans[i] == f.schema.NumFields()
}

// current returns the range selected by the position of slot i.
func (f *SkipScanFilter) current(i int) keyrange.KeyRange {
	return f.slots[i][f.position[i]]
}

// seekSlot positions the cursor on slot i of buf. It returns the number of
// fields of the slot present in buf.
func (f *SkipScanFilter) seekSlot(buf []byte, i int) int {
	f.cursor.Reset(buf, f.opts.Offset)
	n := 0
	for k := 0; k <= i; k++ {
		n = f.cursor.Advance(f.fieldPos[k], f.spans[k])
	}
	return n
}

// nextPosition advances the position of slot i to its next single key,
// carrying into preceding slots when a slot wraps around. Slots positioned on
// a range are left alone, since the next key may still fall within the
// range. It returns the slot the increment stopped at, or -1 if every slot
// wrapped around.
func (f *SkipScanFilter) nextPosition(i int) int {
	for ; i >= 0 && f.current(i).IsSingleKey(); i-- {
		f.position[i] = (f.position[i] + 1) % len(f.slots[i])
		if f.position[i] != 0 {
			break
		}
	}
	return i
}

// previousPosition is the inverse of nextPosition.
func (f *SkipScanFilter) previousPosition(i int) int {
	for ; i >= 0 && f.current(i).IsSingleKey(); i-- {
		f.position[i]--
		if f.position[i] >= 0 {
			break
		}
		f.position[i] = len(f.slots[i]) - 1
	}
	return i
}

// setStartKeyFrom sets startKey to buf[:prefixLen] followed by the lower
// bounds of slots i and above. If the bound cannot be represented, the
// smallest key after every key prefixed by buf[:prefixLen] is used instead.
// It returns false if there is no such key.
func (f *SkipScanFilter) setStartKeyFrom(buf []byte, prefixLen, i int) bool {
	f.startKey = append(f.startKey[:0], buf[:prefixLen]...)
	if key, ok := f.appendBound(f.startKey, keyrange.Lower, i); ok {
		f.startKey = key
		return true
	}
	f.startKey = f.startKey[:prefixLen]
	return f.incrementKey(f.startKey)
}

// incrementKey increments the part of key following the row key offset in
// place, as rowkey.NextKey does. It returns false if that part cannot be
// incremented.
func (f *SkipScanFilter) incrementKey(key []byte) bool {
	if len(key) <= f.opts.Offset {
		return false
	}
	return rowkey.NextKey(key[f.opts.Offset:])
}

// allTrailingNulls returns true if every slot from i onward has a range
// containing the null value, so that a key ending before slot i satisfies
// them.
func (f *SkipScanFilter) allTrailingNulls(i int) bool {
	for ; i < len(f.slots); i++ {
		if !slices.ContainsFunc(f.slots[i], func(r keyrange.KeyRange) bool {
			return r.Contains(nil, bytes.Compare)
		}) {
			return false
		}
	}
	return true
}

// navigate computes the decision for key and updates the positions. When the
// decision is SeekToHint, startKey holds the hint.
func (f *SkipScanFilter) navigate(key []byte, mode terminateMode) Decision {
	n := len(f.slots)
	if len(f.endKey) > 0 {
		if bytes.Compare(key, f.endKey) < 0 {
			f.stats.CachedIncludes++
			return f.includeDecision()
		}
		// The key is past the current combination of ranges.
		if f.current(n - 1).IsSingleKey() {
			if f.nextPosition(n-1) < 0 {
				f.done = true
			}
		} else {
			earliestRange := n - 1
			for i := 0; i < n; i++ {
				if !f.current(i).IsSingleKey() {
					earliestRange = i
					break
				}
			}
			clear(f.position[earliestRange+1:])
		}
		f.endKey = f.endKey[:0]
		if f.done {
			return Terminate
		}
	}

	buf := key
	// restarted is set once buf no longer holds key but a larger key built
	// while backtracking. Such a key is never included itself; if it matches
	// it becomes the seek hint.
	restarted := false
	i := 0
	f.cursor.Reset(buf, f.opts.Offset)
	f.cursor.Advance(f.fieldPos[0], f.spans[0])
	for {
		slot := f.slots[i]
		value := f.cursor.Value()
		// Skip the ranges that end before the value.
		p := f.position[i]
		f.position[i] = p + sort.Search(len(slot)-p, func(k int) bool {
			return slot[p+k].CompareUpperToLowerBound(value, true, bytes.Compare) >= 0
		})
		clear(f.position[i+1:])

		switch {
		case f.position[i] >= len(slot):
			// The value is beyond the last range of the slot.
			if mode == terminateAt {
				return SeekToHint
			}
			if i == 0 {
				f.done = true
				return Terminate
			}
			// Move the preceding slots to their next combination, like the
			// digits of a counter.
			clear(f.position[i:])
			j := i - 1
			incremented := false
			for ; j >= 0 && f.current(j).IsSingleKey(); j-- {
				f.position[j] = (f.position[j] + 1) % len(f.slots[j])
				if f.position[j] != 0 {
					incremented = true
					break
				}
			}
			if j < 0 {
				f.done = true
				return Terminate
			}
			if incremented {
				// Slot j moved to a larger single key; the loop seeks to its
				// lower bound.
				f.seekSlot(buf, j)
				i = j
				continue
			}
			// Slot j is on a range. Start over from the smallest key whose
			// value for slot j is larger than the current one: the key up to
			// the value and its separator, incremented. The increment may
			// carry into the preceding slots, which are checked again.
			f.seekSlot(buf, j)
			f.startKey = append(f.startKey[:0], buf[:f.cursor.SeparatorEnd()]...)
			if !f.incrementKey(f.startKey) {
				f.done = true
				return Terminate
			}
			buf = f.startKey
			restarted = true
			i = 0
			f.cursor.Reset(buf, f.opts.Offset)
			f.cursor.Advance(f.fieldPos[0], f.spans[0])

		case f.current(i).CompareLowerToUpperBound(value, true, bytes.Compare) > 0:
			// The value is before the current range. Seek to its lower bound.
			if !f.setStartKeyFrom(buf, f.cursor.Offset(), i) {
				f.done = true
				return Terminate
			}
			return SeekToHint

		default:
			// The value is within the range; check the next slot.
			if i == n-1 {
				if restarted {
					return SeekToHint
				}
				f.setEndKey(buf, i)
				return f.includeDecision()
			}
			i++
			if f.cursor.Advance(f.fieldPos[i], f.spans[i]) != 0 {
				continue
			}
			// The key ends before slot i.
			if f.allTrailingNulls(i) {
				if restarted {
					return SeekToHint
				}
				return f.includeDecision()
			}
			// Continue from the key up to slot i, terminated, followed by the
			// lower bounds of the remaining slots.
			prefix, ok := f.startKey[:0], f.seekSlot(buf, i-1) == f.spans[i-1]
			if ok {
				prefix, ok = f.cursor.Terminate(prefix)
			}
			if !ok {
				// The key ends inside slot i-1, and keys extending it have
				// another value for the slot. Move on to the next key.
				f.startKey = append(f.startKey[:0], buf...)
				if !restarted {
					f.startKey = append(f.startKey, 0)
				}
				return SeekToHint
			}
			f.startKey = prefix
			if !f.setStartKeyFrom(f.startKey, len(f.startKey), i) {
				f.done = true
				return Terminate
			}
			if bytes.Equal(f.startKey, key) {
				// The lower bounds of the remaining slots add nothing to the
				// key; the next candidate is the smallest key after it.
				f.startKey = append(f.startKey, 0)
			}
			return SeekToHint
		}
	}
}

// setEndKey sets endKey to the upper bound of the current combination of
// ranges, given that the cursor is positioned on slot i of buf. If the upper
// bound cannot be represented, endKey is left empty.
func (f *SkipScanFilter) setEndKey(buf []byte, i int) {
	f.endKey = append(f.endKey[:0], buf[:f.cursor.Offset()]...)
	if key, ok := f.appendBound(f.endKey, keyrange.Upper, i); ok {
		f.endKey = key
	} else {
		f.endKey = f.endKey[:0]
	}
}

// String implements fmt.Stringer.
func (f *SkipScanFilter) String() string {
	return redact.StringWithoutMarkers(f)
}

// SafeFormat implements redact.SafeFormatter.
func (f *SkipScanFilter) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("skip-scan")
	if f.opts.IncludeAllVersions {
		w.SafeString(" all-versions")
	}
	if f.opts.PointLookup {
		w.SafeString(" point-lookup")
	}
	if f.opts.Offset > 0 {
		w.Printf(" offset=%d", f.opts.Offset)
	}
	for i, slot := range f.slots {
		w.Printf(" %d:", i)
		if f.spans[i] > 1 {
			w.Printf("span=%d:", f.spans[i])
		}
		w.SafeRune('[')
		for k, r := range slot {
			if k > 0 {
				w.SafeString(", ")
			}
			w.Print(r)
		}
		w.SafeRune(']')
	}
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanner

import (
	"bytes"
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/scanfilter"
)

// Region is the span of rows [Start, End). A nil Start or End leaves that
// side unbounded.
type Region struct {
	Start, End []byte
}

// Contains returns true if row falls within the region.
func (r Region) Contains(row []byte) bool {
	return bytes.Compare(row, r.Start) >= 0 && (r.End == nil || bytes.Compare(row, r.End) < 0)
}

// String implements fmt.Stringer.
func (r Region) String() string {
	return redact.StringWithoutMarkers(r)
}

// SafeFormat implements redact.SafeFormatter.
func (r Region) SafeFormat(w redact.SafePrinter, _ rune) {
	w.SafeRune('[')
	if r.Start == nil {
		w.SafeRune('*')
	} else {
		w.Printf("%x", r.Start)
	}
	w.SafeString(" - ")
	if r.End == nil {
		w.SafeRune('*')
	} else {
		w.Printf("%x", r.End)
	}
	w.SafeRune(')')
}

// Cell is a single version of a row in a column family. Row and Value are
// only valid for the duration of the callback they are passed to.
type Cell struct {
	Family    string
	Row       []byte
	Timestamp uint64
	Value     []byte
}

// ScanStats describes the work done by a scan.
type ScanStats struct {
	// CellsExamined is the number of cells presented to the filter.
	CellsExamined uint64
	// CellsIncluded is the number of cells passed to the callback.
	CellsIncluded uint64
	// Seeks is the number of iterator seeks to filter hints.
	Seeks uint64
	// RegionsPruned is the number of regions skipped without a scan.
	RegionsPruned int
}

func (s *ScanStats) add(o ScanStats) {
	s.CellsExamined += o.CellsExamined
	s.CellsIncluded += o.CellsIncluded
	s.Seeks += o.Seeks
	s.RegionsPruned += o.RegionsPruned
}

// String implements fmt.Stringer.
func (s ScanStats) String() string {
	return redact.StringWithoutMarkers(s)
}

// SafeFormat implements redact.SafeFormatter.
func (s ScanStats) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("examined=%d included=%d seeks=%d", s.CellsExamined, s.CellsIncluded, s.Seeks)
	if s.RegionsPruned > 0 {
		w.Printf(" pruned=%d", s.RegionsPruned)
	}
}

// familyIter positions a pebble iterator over the cells of one column family
// and decodes the current cell.
type familyIter struct {
	name   string
	id     byte
	iter   *pebble.Iterator
	valid  bool
	row    []byte
	ts     uint64
	keyBuf []byte
}

func (f *familyIter) decode() error {
	f.valid = f.iter.Valid()
	if !f.valid {
		return f.iter.Error()
	}
	id, row, ts, err := decodeCellKey(f.iter.Key(), f.row)
	if err != nil {
		return err
	}
	if id != f.id {
		return errors.AssertionFailedf("scanner: cell of family %d in the iterator of family %d", id, f.id)
	}
	f.row, f.ts = row, ts
	return nil
}

func (f *familyIter) seekGE(row []byte) error {
	f.keyBuf = makeSeekKey(f.keyBuf[:0], f.id, row)
	f.iter.SeekGE(f.keyBuf)
	return f.decode()
}

func (f *familyIter) nextRow() error {
	f.keyBuf = makeNextRowKey(f.keyBuf[:0], f.id, f.row)
	f.iter.SeekGE(f.keyBuf)
	return f.decode()
}

func (f *familyIter) next() error {
	f.iter.Next()
	return f.decode()
}

// Scan calls fn for every cell in the region that the filter includes, in
// row order and, within a row, in family order and newest version first. The
// filter is consulted for every cell it is presented with; a nil filter
// includes every cell. Scan stops at the first error returned by fn or by the
// filter.
func (t *Table) Scan(
	ctx context.Context, region Region, filter scanfilter.Filter, fn func(Cell) error,
) (ScanStats, error) {
	start := time.Now()
	stats, err := t.scan(ctx, region, filter, fn)
	t.opts.Metrics.recordScan(stats, time.Since(start))
	return stats, err
}

func (t *Table) scan(
	ctx context.Context, region Region, filter scanfilter.Filter, fn func(Cell) error,
) (stats ScanStats, err error) {
	iters := make([]*familyIter, len(t.opts.Families))
	defer func() {
		for _, f := range iters {
			if f != nil && f.iter != nil {
				err = errors.CombineErrors(err, f.iter.Close())
			}
		}
	}()
	for i, name := range t.opts.Families {
		f := &familyIter{name: name, id: byte(i)}
		iters[i] = f
		opts := &pebble.IterOptions{
			LowerBound: makeSeekKey(nil, f.id, region.Start),
		}
		if region.End != nil {
			opts.UpperBound = makeSeekKey(nil, f.id, region.End)
		} else {
			opts.UpperBound = []byte{f.id + 1}
			if f.id == maxFamilies-1 {
				opts.UpperBound = nil
			}
		}
		if f.iter, err = t.db.NewIter(opts); err != nil {
			return stats, err
		}
		f.iter.First()
		if err := f.decode(); err != nil {
			return stats, err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if filter != nil && filter.Exhausted() {
			return stats, nil
		}
		// Pick the family with the smallest row, the first family on ties.
		var cur *familyIter
		for _, f := range iters {
			if f.valid && (cur == nil || bytes.Compare(f.row, cur.row) < 0) {
				cur = f
			}
		}
		if cur == nil {
			return stats, nil
		}

		stats.CellsExamined++
		d := scanfilter.Include
		if filter != nil {
			if d, err = filter.Navigate([]byte(cur.name), cur.row); err != nil {
				return stats, err
			}
		}
		switch d {
		case scanfilter.Include, scanfilter.IncludeAndSkipVersions:
			stats.CellsIncluded++
			cell := Cell{Family: cur.name, Row: cur.row, Timestamp: cur.ts, Value: cur.iter.Value()}
			if err := fn(cell); err != nil {
				return stats, err
			}
			if d == scanfilter.IncludeAndSkipVersions {
				err = cur.nextRow()
			} else {
				err = cur.next()
			}
		case scanfilter.SeekToHint:
			hint := filter.NextHint([]byte(cur.name))
			if bytes.Compare(hint, cur.row) <= 0 {
				return stats, errors.AssertionFailedf("scanner: seek hint %x does not sort after row %x", hint, cur.row)
			}
			stats.Seeks++
			err = cur.seekGE(hint)
		case scanfilter.Terminate:
			return stats, nil
		default:
			return stats, errors.AssertionFailedf("scanner: unknown decision %d", d)
		}
		if err != nil {
			return stats, err
		}
	}
}

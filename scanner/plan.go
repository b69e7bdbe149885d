// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanner

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/RaduBerinde/axisds"
	"github.com/RaduBerinde/axisds/regiontree"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/scanfilter"
	"golang.org/x/sync/errgroup"
)

// PlannedRegion is a region together with the filter narrowed to it.
type PlannedRegion struct {
	Region
	// Index is the position of the region in the list the plan was made from.
	Index  int
	Filter *scanfilter.SkipScanFilter
}

// Plan splits a skip scan over a set of regions: every region the filter can
// match is paired with the filter intersected with the region's bounds, and
// the regions the filter cannot match are recorded as pruned.
//
// Adjacent pruned regions are merged in the pruned set.
type Plan struct {
	Regions []PlannedRegion

	// pruned holds the bounded pruned regions. A pruned region with no end
	// is recorded in prunedTail instead.
	pruned     regiontree.T[[]byte, bool]
	prunedTail []byte
	hasTail    bool
	numPruned  int
}

// MakePlan intersects filter with every region. The regions must be sorted
// and must not overlap.
func MakePlan(filter *scanfilter.SkipScanFilter, regions []Region) (*Plan, error) {
	p := &Plan{
		pruned: regiontree.Make(
			axisds.CompareFn[[]byte](bytes.Compare),
			func(a, b bool) bool { return a == b },
		),
	}
	for i, r := range regions {
		if r.End != nil && bytes.Compare(r.Start, r.End) >= 0 {
			return nil, errors.Errorf("scanner: region %d %s is empty", i, r)
		}
		if i > 0 {
			prev := regions[i-1]
			if prev.End == nil || bytes.Compare(prev.End, r.Start) > 0 {
				return nil, errors.Errorf("scanner: region %d %s overlaps region %d %s", i, r, i-1, prev)
			}
		}
		g, ok := filter.Intersect(r.Start, r.End)
		if !ok {
			p.prune(r)
			continue
		}
		p.Regions = append(p.Regions, PlannedRegion{Region: r, Index: i, Filter: g})
	}
	return p, nil
}

func (p *Plan) prune(r Region) {
	p.numPruned++
	start := r.Start
	if start == nil {
		start = []byte{}
	}
	if r.End == nil {
		p.prunedTail, p.hasTail = start, true
		return
	}
	p.pruned.Update(start, r.End, func(bool) bool { return true })
}

// NumPruned returns the number of regions the filter cannot match.
func (p *Plan) NumPruned() int { return p.numPruned }

// Pruned returns true if row falls in a pruned region.
func (p *Plan) Pruned(row []byte) bool {
	if p.hasTail && bytes.Compare(row, p.prunedTail) >= 0 {
		return true
	}
	// [row, row+"\x00") holds row alone.
	end := append(row[:len(row):len(row)], 0)
	return p.pruned.Any(row, end, func(pruned bool) bool { return pruned })
}

// PrunedSpans returns the pruned spans in order, with adjacent pruned regions
// merged.
func (p *Plan) PrunedSpans() []Region {
	var spans []Region
	p.pruned.EnumerateAll(func(start, end []byte, pruned bool) bool {
		if pruned {
			r := Region{Start: start, End: end}
			if len(r.Start) == 0 {
				r.Start = nil
			}
			spans = append(spans, r)
		}
		return true
	})
	if p.hasTail {
		if n := len(spans); n > 0 && bytes.Equal(spans[n-1].End, p.prunedTail) {
			spans[n-1].End = nil
		} else {
			spans = append(spans, Region{Start: p.prunedTail})
		}
	}
	return spans
}

// String implements fmt.Stringer.
func (p *Plan) String() string {
	var buf strings.Builder
	for _, r := range p.Regions {
		fmt.Fprintf(&buf, "region %d %s: %s\n", r.Index, r.Region, r.Filter)
	}
	for _, r := range p.PrunedSpans() {
		fmt.Fprintf(&buf, "pruned %s\n", r)
	}
	return buf.String()
}

// ScanRegions scans every region the filter can match, each with the filter
// narrowed to the region, running up to Options.RegionConcurrency scans at
// once. fn may be called concurrently for cells of different regions; the
// region argument is the index of the cell's region in regions. Cells of a
// single region are passed in order.
func (t *Table) ScanRegions(
	ctx context.Context,
	regions []Region,
	filter *scanfilter.SkipScanFilter,
	fn func(region int, c Cell) error,
) (ScanStats, error) {
	plan, err := MakePlan(filter, regions)
	if err != nil {
		return ScanStats{}, err
	}
	if n := plan.NumPruned(); n > 0 {
		t.opts.Metrics.recordPruned(n)
		t.opts.Logger.Infof("scanner: pruned %d of %d regions: %v", n, len(regions), plan.PrunedSpans())
	}

	var mu sync.Mutex
	stats := ScanStats{RegionsPruned: plan.NumPruned()}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(t.opts.RegionConcurrency)
	for _, r := range plan.Regions {
		g.Go(func() error {
			s, err := t.Scan(ctx, r.Region, r.Filter, func(c Cell) error {
				return fn(r.Index, c)
			})
			mu.Lock()
			stats.add(s)
			mu.Unlock()
			return errors.Wrapf(err, "scanning region %d %s", r.Index, r.Region)
		})
	}
	err = g.Wait()
	if err != nil {
		t.opts.Logger.Errorf("scanner: region scan failed: %v", err)
	}
	return stats, err
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanner

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/scanfilter"
	"github.com/cockroachdb/scanfilter/rowkey"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

// testLogger collects log lines.
type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) Infof(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

func (l *testLogger) Errorf(format string, args ...interface{}) {
	l.Infof("ERROR: "+format, args...)
}

func argVals(td *datadriven.TestData, key string) []string {
	for _, arg := range td.CmdArgs {
		if arg.Key == key {
			return arg.Vals
		}
	}
	return nil
}

// parseRegions splits the row space at the keys of the split argument.
func parseRegions(t *testing.T, schema rowkey.Schema, td *datadriven.TestData) []Region {
	var regions []Region
	var start []byte
	for _, s := range argVals(td, "split") {
		key, err := schema.ParseKey(s)
		require.NoError(t, err)
		regions = append(regions, Region{Start: start, End: key})
		start = key
	}
	return append(regions, Region{Start: start})
}

func parseSkipScan(
	t *testing.T, schema rowkey.Schema, td *datadriven.TestData,
) *scanfilter.SkipScanFilter {
	slots, spans, err := scanfilter.ParseSlots(schema, td.Input)
	require.NoError(t, err)
	f, err := scanfilter.NewSkipScanFilter(schema, slots, spans, scanfilter.SkipScanOptions{
		IncludeAllVersions: td.HasArg("all-versions"),
	})
	require.NoError(t, err)
	return f
}

func formatCell(schema rowkey.Schema, c Cell) string {
	return fmt.Sprintf("%s %s @%d = %s", c.Family, schema.FormatKey(c.Row), c.Timestamp, c.Value)
}

func TestScan(t *testing.T) {
	var tbl *Table
	var schema rowkey.Schema
	defer func() {
		if tbl != nil {
			require.NoError(t, tbl.Close())
		}
	}()
	ctx := context.Background()

	datadriven.RunTest(t, "testdata/scan", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "open":
			if tbl != nil {
				require.NoError(t, tbl.Close())
			}
			var err error
			schema, err = rowkey.ParseSchema(strings.Join(argVals(td, "schema"), " "))
			require.NoError(t, err)
			tbl, err = Open("", Options{
				FS:       vfs.NewMem(),
				Families: argVals(td, "families"),
				Logger:   &testLogger{},
			})
			require.NoError(t, err)
			return ""

		case "put":
			b := tbl.NewBatch()
			defer b.Close()
			for _, line := range crstrings.Lines(td.Input) {
				fields := strings.Fields(line)
				require.Len(t, fields, 4, "expected <family> <row> @<ts> <value>: %q", line)
				row, err := schema.ParseKey(fields[1])
				require.NoError(t, err)
				ts, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "@"), 10, 64)
				require.NoError(t, err)
				require.NoError(t, b.Put(fields[0], row, ts, []byte(fields[3])))
			}
			n := b.Count()
			require.NoError(t, tbl.Apply(b))
			return fmt.Sprintf("%d cells", n)

		case "scan":
			var region Region
			if td.HasArg("lower") {
				var s string
				td.ScanArgs(t, "lower", &s)
				region.Start, _ = schema.ParseKey(s)
			}
			if td.HasArg("upper") {
				var s string
				td.ScanArgs(t, "upper", &s)
				region.End, _ = schema.ParseKey(s)
			}
			var filter scanfilter.Filter
			switch {
			case td.HasArg("distinct"):
				var n int
				td.ScanArgs(t, "distinct", &n)
				f, err := scanfilter.NewDistinctPrefixFilter(schema, n, scanfilter.DistinctPrefixOptions{})
				require.NoError(t, err)
				filter = f
			case td.Input != "":
				filter = parseSkipScan(t, schema, td)
			}
			var buf strings.Builder
			stats, err := tbl.Scan(ctx, region, filter, func(c Cell) error {
				fmt.Fprintln(&buf, formatCell(schema, c))
				return nil
			})
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			fmt.Fprintln(&buf, stats)
			return buf.String()

		case "plan":
			plan, err := MakePlan(parseSkipScan(t, schema, td), parseRegions(t, schema, td))
			require.NoError(t, err)
			var buf strings.Builder
			for _, r := range plan.Regions {
				fmt.Fprintf(&buf, "region %d %s\n", r.Index, r.Region)
			}
			for _, r := range plan.PrunedSpans() {
				fmt.Fprintf(&buf, "pruned %s\n", r)
			}
			return buf.String()

		case "scan-regions":
			type regionCell struct {
				region int
				seq    int
				str    string
			}
			var mu sync.Mutex
			var cells []regionCell
			stats, err := tbl.ScanRegions(ctx, parseRegions(t, schema, td), parseSkipScan(t, schema, td),
				func(region int, c Cell) error {
					mu.Lock()
					defer mu.Unlock()
					cells = append(cells, regionCell{region: region, seq: len(cells), str: formatCell(schema, c)})
					return nil
				})
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			// Regions are scanned concurrently; cells within a region arrive
			// in order.
			slices.SortStableFunc(cells, func(a, b regionCell) int { return a.region - b.region })
			var buf strings.Builder
			for _, c := range cells {
				fmt.Fprintf(&buf, "%d: %s\n", c.region, c.str)
			}
			fmt.Fprintf(&buf, "included=%d pruned=%d\n", stats.CellsIncluded, stats.RegionsPruned)
			return buf.String()

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}

func TestOpenErrors(t *testing.T) {
	testCases := []struct {
		families []string
		err      string
	}{
		{nil, "at least one column family"},
		{[]string{"a", ""}, "empty column family name"},
		{[]string{"a", "b", "a"}, `duplicate column family "a"`},
		{make([]string, 300), "300 column families exceed the limit"},
	}
	for _, tc := range testCases {
		_, err := Open("", Options{FS: vfs.NewMem(), Families: tc.families})
		require.ErrorContains(t, err, tc.err)
	}
}

func TestPutUnknownFamily(t *testing.T) {
	tbl, err := Open("", Options{FS: vfs.NewMem(), Families: []string{"a"}})
	require.NoError(t, err)
	defer func() { require.NoError(t, tbl.Close()) }()
	require.ErrorContains(t, tbl.Put("b", []byte("r"), 1, nil), `unknown column family "b"`)
}

// misbehavingFilter returns a seek hint that does not advance the scan.
type misbehavingFilter struct{}

func (misbehavingFilter) Navigate(family, row []byte) (scanfilter.Decision, error) {
	return scanfilter.SeekToHint, nil
}
func (misbehavingFilter) NextHint(family []byte) []byte { return nil }
func (misbehavingFilter) Exhausted() bool               { return false }
func (misbehavingFilter) Stats() scanfilter.Stats       { return scanfilter.Stats{} }

func TestScanErrors(t *testing.T) {
	tbl, err := Open("", Options{FS: vfs.NewMem(), Families: []string{"a"}})
	require.NoError(t, err)
	defer func() { require.NoError(t, tbl.Close()) }()
	for _, row := range []string{"r1", "r2", "r3"} {
		require.NoError(t, tbl.Put("a", []byte(row), 1, []byte("v")))
	}

	_, err = tbl.Scan(context.Background(), Region{}, misbehavingFilter{}, func(Cell) error { return nil })
	require.True(t, errors.IsAssertionFailure(err), "%v", err)

	errStop := errors.New("stop")
	stats, err := tbl.Scan(context.Background(), Region{}, nil, func(Cell) error { return errStop })
	require.True(t, errors.Is(err, errStop))
	require.Equal(t, uint64(1), stats.CellsIncluded)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = tbl.Scan(ctx, Region{}, nil, func(Cell) error { return nil })
	require.True(t, errors.Is(err, context.Canceled))
}

func TestScanRegionsMetricsAndLogging(t *testing.T) {
	logger := &testLogger{}
	metrics := NewMetrics(prometheus.NewRegistry())
	tbl, err := Open("", Options{
		FS:                vfs.NewMem(),
		Families:          []string{"a"},
		Logger:            logger,
		Metrics:           metrics,
		RegionConcurrency: 2,
	})
	require.NoError(t, err)
	defer func() { require.NoError(t, tbl.Close()) }()

	schema := rowkey.MakeSchema(rowkey.Field{Width: 1})
	b := tbl.NewBatch()
	for v := byte(0); v < 10; v++ {
		require.NoError(t, b.Put("a", []byte{v}, 1, []byte{v}))
	}
	require.NoError(t, tbl.Apply(b))
	require.NoError(t, b.Close())

	slots, spans, err := scanfilter.ParseSlots(schema, "2, 7")
	require.NoError(t, err)
	f, err := scanfilter.NewSkipScanFilter(schema, slots, spans, scanfilter.SkipScanOptions{})
	require.NoError(t, err)
	regions := []Region{{End: []byte{3}}, {Start: []byte{3}, End: []byte{6}}, {Start: []byte{6}}}

	var mu sync.Mutex
	var rows [][]byte
	stats, err := tbl.ScanRegions(context.Background(), regions, f, func(region int, c Cell) error {
		mu.Lock()
		defer mu.Unlock()
		rows = append(rows, slices.Clone(c.Row))
		return nil
	})
	require.NoError(t, err)
	slices.SortFunc(rows, bytes.Compare)
	require.Equal(t, [][]byte{{2}, {7}}, rows)
	require.Equal(t, 1, stats.RegionsPruned)
	require.Equal(t, uint64(2), stats.CellsIncluded)

	counter := func(c prometheus.Counter) float64 {
		var m dto.Metric
		require.NoError(t, c.Write(&m))
		return m.GetCounter().GetValue()
	}
	require.Equal(t, float64(1), counter(metrics.PrunedRegions))
	require.Equal(t, float64(2), counter(metrics.CellsIncluded))
	require.Equal(t, float64(stats.CellsExamined), counter(metrics.CellsExamined))
	require.Equal(t, float64(stats.Seeks), counter(metrics.Seeks))
	var m dto.Metric
	require.NoError(t, metrics.ScanLatency.Write(&m))
	require.Equal(t, uint64(2), m.GetHistogram().GetSampleCount())

	require.Len(t, logger.lines, 1)
	require.Contains(t, logger.lines[0], "pruned 1 of 3 regions")

	// A nil Metrics records nothing.
	var nilMetrics *Metrics
	nilMetrics.recordScan(stats, 0)
	nilMetrics.recordPruned(1)
}

func TestPlanErrors(t *testing.T) {
	schema := rowkey.MakeSchema(rowkey.Field{Width: 1})
	slots, spans, err := scanfilter.ParseSlots(schema, "1")
	require.NoError(t, err)
	f, err := scanfilter.NewSkipScanFilter(schema, slots, spans, scanfilter.SkipScanOptions{})
	require.NoError(t, err)

	_, err = MakePlan(f, []Region{{Start: []byte{2}, End: []byte{2}}})
	require.ErrorContains(t, err, "is empty")
	_, err = MakePlan(f, []Region{{End: []byte{3}}, {Start: []byte{2}}})
	require.ErrorContains(t, err, "overlaps region 0")
	_, err = MakePlan(f, []Region{{}, {Start: []byte{2}}})
	require.ErrorContains(t, err, "overlaps region 0")

	p, err := MakePlan(f, []Region{{End: []byte{1}}, {Start: []byte{1}, End: []byte{2}}, {Start: []byte{2}}})
	require.NoError(t, err)
	require.Len(t, p.Regions, 1)
	require.True(t, p.Pruned([]byte{0}))
	require.False(t, p.Pruned([]byte{1}))
	require.True(t, p.Pruned([]byte{9}))
	require.Equal(t, 2, p.NumPruned())
}

func TestPlanPruned(t *testing.T) {
	schema := rowkey.MakeSchema(rowkey.Field{Width: 1})
	slots, spans, err := scanfilter.ParseSlots(schema, "1, 3")
	require.NoError(t, err)
	f, err := scanfilter.NewSkipScanFilter(schema, slots, spans, scanfilter.SkipScanOptions{})
	require.NoError(t, err)

	p, err := MakePlan(f, []Region{
		{End: []byte{1}},
		{Start: []byte{1}, End: []byte{2}},
		{Start: []byte{2}, End: []byte{3}},
		{Start: []byte{3}, End: []byte{5}},
		{Start: []byte{5}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, p.NumPruned())
	require.Equal(t, []Region{
		{End: []byte{1}},
		{Start: []byte{2}, End: []byte{3}},
		{Start: []byte{5}},
	}, p.PrunedSpans())

	for _, tc := range []struct {
		row    []byte
		pruned bool
	}{
		{[]byte{}, true},
		{[]byte{0}, true},
		{[]byte{0, 0xff}, true},
		{[]byte{1}, false},
		{[]byte{1, 7}, false},
		{[]byte{2}, true},
		{[]byte{2, 5}, true},
		{[]byte{3}, false},
		{[]byte{4, 0xff}, false},
		{[]byte{5}, true},
		{[]byte{0xff}, true},
	} {
		require.Equal(t, tc.pruned, p.Pruned(tc.row), "%x", tc.row)
	}
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/scanfilter"
	"github.com/cockroachdb/scanfilter/keyrange"
	"github.com/cockroachdb/scanfilter/rowkey"
	"github.com/cockroachdb/scanfilter/scanner"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// benchT implements the benchmarking tools.
type benchT struct {
	Root     *cobra.Command
	SkipScan *cobra.Command

	logger     scanfilter.Logger
	prefixes   int
	suffixes   int
	matches    int
	iterations int
}

func newBench(logger scanfilter.Logger) *benchT {
	b := &benchT{logger: logger}
	b.Root = &cobra.Command{
		Use:   "bench",
		Short: "benchmarking tools",
	}
	b.SkipScan = &cobra.Command{
		Use:   "skipscan",
		Short: "compare a skip scan with a full scan",
		Long: `
Load an in-memory table whose row keys are made of two 2-byte fields, with
every combination of --prefixes values of the first field and --suffixes values
of the second, then select the rows whose second field is one of --matches
evenly spaced values, once with a skip scan and once with a full scan. Print
the work done and the latency of both.
`,
		Args: cobra.NoArgs,
		RunE: b.runSkipScan,
	}
	b.Root.AddCommand(b.SkipScan)

	b.SkipScan.Flags().IntVar(&b.prefixes, "prefixes", 100, "number of values of the first field")
	b.SkipScan.Flags().IntVar(&b.suffixes, "suffixes", 100, "number of values of the second field")
	b.SkipScan.Flags().IntVar(&b.matches, "matches", 3, "number of selected values of the second field")
	b.SkipScan.Flags().IntVar(&b.iterations, "iterations", 10, "number of times each scan is run")
	return b
}

const benchFamily = "f"

var benchSchema = rowkey.MakeSchema(rowkey.Field{Width: 2}, rowkey.Field{Width: 2})

type benchResult struct {
	name  string
	stats scanner.ScanStats
	rows  int
	hist  *hdrhistogram.Histogram
}

func (b *benchT) runSkipScan(cmd *cobra.Command, args []string) error {
	if b.prefixes <= 0 || b.prefixes > 1<<16 || b.suffixes <= 0 || b.suffixes > 1<<16 {
		return errors.New("--prefixes and --suffixes must be in [1, 65536]")
	}
	if b.matches <= 0 || b.matches > b.suffixes {
		return errors.Errorf("--matches must be in [1, %d]", b.suffixes)
	}
	tbl, err := scanner.Open("", scanner.Options{
		FS:       vfs.NewMem(),
		Families: []string{benchFamily},
		Logger:   b.logger,
	})
	if err != nil {
		return err
	}
	defer tbl.Close()
	if err := b.load(tbl); err != nil {
		return err
	}

	selected := make([]keyrange.KeyRange, b.matches)
	wanted := make(map[string]struct{}, b.matches)
	for i := range selected {
		v := rowkey.EncodeUint(uint64(i*b.suffixes/b.matches), 2, rowkey.Ascending)
		selected[i] = keyrange.Point(v)
		wanted[string(v)] = struct{}{}
	}
	slots := [][]keyrange.KeyRange{{keyrange.Everything}, selected}

	var results []*benchResult
	skip := &benchResult{name: "skip-scan"}
	err = b.run(skip, func() (scanner.ScanStats, int, error) {
		f, err := scanfilter.NewSkipScanFilter(benchSchema, slots, nil, scanfilter.SkipScanOptions{})
		if err != nil {
			return scanner.ScanStats{}, 0, err
		}
		rows := 0
		stats, err := tbl.Scan(context.Background(), scanner.Region{}, f, func(scanner.Cell) error {
			rows++
			return nil
		})
		return stats, rows, err
	})
	if err != nil {
		return err
	}
	results = append(results, skip)

	full := &benchResult{name: "full-scan"}
	err = b.run(full, func() (scanner.ScanStats, int, error) {
		rows := 0
		stats, err := tbl.Scan(context.Background(), scanner.Region{}, nil, func(c scanner.Cell) error {
			if _, ok := wanted[string(benchSchema.DecodeKey(c.Row)[1])]; ok {
				rows++
			}
			return nil
		})
		return stats, rows, err
	})
	if err != nil {
		return err
	}
	results = append(results, full)

	if skip.rows != full.rows {
		return errors.AssertionFailedf("skip scan returned %d rows, full scan %d", skip.rows, full.rows)
	}

	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "rows: %d selected: %d\n", b.prefixes*b.suffixes, skip.rows)
	tw := tablewriter.NewWriter(stdout)
	tw.SetHeader([]string{"Scan", "Examined", "Seeks", "p50", "p99", "Max"})
	for _, r := range results {
		tw.Append([]string{
			r.name,
			strconv.FormatUint(r.stats.CellsExamined, 10),
			strconv.FormatUint(r.stats.Seeks, 10),
			time.Duration(r.hist.ValueAtQuantile(50)).String(),
			time.Duration(r.hist.ValueAtQuantile(99)).String(),
			time.Duration(r.hist.Max()).String(),
		})
	}
	tw.Render()
	return nil
}

// load writes every row of the synthetic table.
func (b *benchT) load(tbl *scanner.Table) error {
	batch := tbl.NewBatch()
	defer func() { _ = batch.Close() }()
	var row []byte
	for p := 0; p < b.prefixes; p++ {
		for s := 0; s < b.suffixes; s++ {
			var err error
			row, err = benchSchema.AppendKey(row[:0],
				rowkey.EncodeUint(uint64(p), 2, rowkey.Ascending),
				rowkey.EncodeUint(uint64(s), 2, rowkey.Ascending))
			if err != nil {
				return err
			}
			if err := batch.Put(benchFamily, row, 1, bytes.Repeat([]byte{'v'}, 8)); err != nil {
				return err
			}
		}
	}
	return tbl.Apply(batch)
}

// run times iterations of fn, recording the result of the last one.
func (b *benchT) run(r *benchResult, fn func() (scanner.ScanStats, int, error)) error {
	r.hist = hdrhistogram.New(1, int64(time.Minute), 2)
	for i := 0; i < max(b.iterations, 1); i++ {
		start := time.Now()
		stats, rows, err := fn()
		if err != nil {
			return errors.Wrapf(err, "%s", r.name)
		}
		if err := r.hist.RecordValue(int64(time.Since(start))); err != nil {
			return err
		}
		r.stats, r.rows = stats, rows
	}
	return nil
}

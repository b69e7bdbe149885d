// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/scanfilter"
	"github.com/cockroachdb/scanfilter/keyrange"
	"github.com/cockroachdb/scanfilter/rowkey"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// filterT implements the filter introspection tools, including both
// configuration state and the commands themselves.
type filterT struct {
	Root      *cobra.Command
	Encode    *cobra.Command
	Describe  *cobra.Command
	Intersect *cobra.Command

	schema      string
	allVersions bool
	pointLookup bool
	offset      int
	distinct    int
}

func newFilter() *filterT {
	f := &filterT{}
	f.Root = &cobra.Command{
		Use:   "filter",
		Short: "serialized filter tools",
	}
	f.Encode = &cobra.Command{
		Use:   "encode <slots>...",
		Short: "serialize a filter",
		Long: `
Serialize a skip scan filter over the schema given by --schema and print it
in hex. Every argument is a slot: comma separated ranges, each a value, "null",
"*" or a range such as "[1 - 5)". A slot prefixed with "span=<n>:" covers n
fields. With --distinct, a distinct prefix filter is serialized instead and no
slots are accepted.
`,
		RunE: f.runEncode,
	}
	f.Describe = &cobra.Command{
		Use:   "describe <filter>",
		Short: "print a serialized skip scan filter",
		Long: `
Print the schema, options, fingerprint and slots of a skip scan filter given
in hex.
`,
		Args: cobra.ExactArgs(1),
		RunE: f.runDescribe,
	}
	f.Intersect = &cobra.Command{
		Use:   "intersect <filter> <lower> <upper>",
		Short: "intersect a serialized skip scan filter with a key interval",
		Long: `
Print the skip scan filter given in hex restricted to the keys in
[lower, upper), or "no intersection". Keys are given in hex, or verbatim with a
"raw:" prefix; "-" leaves a bound open.
`,
		Args: cobra.ExactArgs(3),
		RunE: f.runIntersect,
	}

	f.Root.AddCommand(f.Encode, f.Describe, f.Intersect)

	f.Encode.Flags().StringVar(&f.schema, "schema", "", "comma separated fields of the row key, such as fixed:4,var:desc")
	f.Encode.Flags().BoolVar(&f.allVersions, "all-versions", false, "include every version of matching rows")
	f.Encode.Flags().BoolVar(&f.pointLookup, "point-lookup", false, "the single slot enumerates complete row keys")
	f.Encode.Flags().IntVar(&f.offset, "offset", 0, "number of row key bytes preceding the first field")
	f.Encode.Flags().IntVar(&f.distinct, "distinct", 0, "serialize a distinct prefix filter over this many fields")
	return f
}

func (f *filterT) runEncode(cmd *cobra.Command, args []string) error {
	schema, err := rowkey.ParseSchema(f.schema)
	if err != nil {
		return err
	}
	if f.distinct > 0 {
		if len(args) > 0 {
			return errors.New("a distinct prefix filter has no slots")
		}
		d, err := scanfilter.NewDistinctPrefixFilter(schema, f.distinct, scanfilter.DistinctPrefixOptions{Offset: f.offset})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%x\n", d.Encode())
		return nil
	}
	slots, spans, err := scanfilter.ParseSlots(schema, strings.Join(args, "\n"))
	if err != nil {
		return err
	}
	s, err := scanfilter.NewSkipScanFilter(schema, slots, spans, scanfilter.SkipScanOptions{
		IncludeAllVersions: f.allVersions,
		PointLookup:        f.pointLookup,
		Offset:             f.offset,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%x\n", s.Encode())
	return nil
}

func decodeSkipScan(arg string) (*scanfilter.SkipScanFilter, error) {
	buf, err := hex.DecodeString(strings.TrimPrefix(arg, "hex:"))
	if err != nil {
		return nil, errors.Wrap(err, "filter")
	}
	return scanfilter.DecodeSkipScanFilter(buf)
}

func (f *filterT) runDescribe(cmd *cobra.Command, args []string) error {
	s, err := decodeSkipScan(args[0])
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()
	opts := s.Options()
	var flags []string
	if opts.IncludeAllVersions {
		flags = append(flags, "all-versions")
	}
	if opts.PointLookup {
		flags = append(flags, "point-lookup")
	}
	if opts.Offset > 0 {
		flags = append(flags, "offset="+strconv.Itoa(opts.Offset))
	}
	if len(flags) == 0 {
		flags = append(flags, "none")
	}
	fmt.Fprintf(stdout, "schema: %s\n", s.Schema())
	fmt.Fprintf(stdout, "options: %s\n", strings.Join(flags, " "))
	fmt.Fprintf(stdout, "fingerprint: %016x\n", s.Fingerprint())

	schema := s.Schema()
	tbl := tablewriter.NewWriter(stdout)
	tbl.SetHeader([]string{"Slot", "Fields", "Ranges"})
	field := 0
	for i, slot := range s.Slots() {
		span := s.Spans()[i]
		// Ranges of single-field slots are printed in the syntax accepted by
		// encode.
		fmtKey := keyrange.DefaultFormatter
		if span == 1 {
			fmtKey = func(k []byte) string { return schema.FormatValue(field, k) }
		}
		ranges := make([]string, len(slot))
		for k, r := range slot {
			ranges[k] = r.Format(fmtKey)
		}
		fields := strconv.Itoa(field)
		if span > 1 {
			fields = fmt.Sprintf("%d-%d", field, field+span-1)
		}
		tbl.Append([]string{strconv.Itoa(i), fields, strings.Join(ranges, ", ")})
		field += span
	}
	tbl.Render()
	return nil
}

func (f *filterT) runIntersect(cmd *cobra.Command, args []string) error {
	s, err := decodeSkipScan(args[0])
	if err != nil {
		return err
	}
	lower, err := parseKey(args[1])
	if err != nil {
		return err
	}
	upper, err := parseKey(args[2])
	if err != nil {
		return err
	}
	g, ok := s.Intersect(lower, upper)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "no intersection")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%x\n", g, g.Encode())
	return nil
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/scanfilter/keyrange"
	"github.com/cockroachdb/scanfilter/rowkey"
)

// ParseSlots parses the human-readable form of skip scan slots: one slot
// per line, holding comma-separated ranges. A line starting with
// "span=<n>:" covers n fields. Each range is one of
//
//	*            every value
//	null         the null value, also accepted as a range end
//	v            a single value
//	[a - b)      a range with inclusive ('[', ']') or exclusive ('(', ')')
//	             ends, where '*' leaves an end unbounded
//
// Values of slots covering several fields list the field values separated
// by '/', in the syntax of rowkey.Schema.ParseValue.
func ParseSlots(schema rowkey.Schema, text string) ([][]keyrange.KeyRange, []int, error) {
	var slots [][]keyrange.KeyRange
	var spans []int
	field := 0
	for _, line := range crstrings.Lines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		span := 1
		if rest, ok := strings.CutPrefix(line, "span="); ok {
			n, body, found := strings.Cut(rest, ":")
			if !found {
				return nil, nil, errors.Errorf("malformed slot %q", line)
			}
			var err error
			if span, err = strconv.Atoi(n); err != nil || span < 1 {
				return nil, nil, errors.Errorf("slot %q: invalid span %q", line, n)
			}
			line = strings.TrimSpace(body)
		}
		if field+span > schema.NumFields() {
			return nil, nil, errors.Errorf("slot %q: slots cover %d fields, schema has %d",
				line, field+span, schema.NumFields())
		}
		var slot []keyrange.KeyRange
		for _, s := range strings.Split(line, ",") {
			r, err := parseRange(schema, field, span, strings.TrimSpace(s))
			if err != nil {
				return nil, nil, errors.Wrapf(err, "slot %d", len(slots))
			}
			slot = append(slot, r)
		}
		slots = append(slots, slot)
		spans = append(spans, span)
		field += span
	}
	return slots, spans, nil
}

func parseRange(schema rowkey.Schema, field, span int, str string) (keyrange.KeyRange, error) {
	switch str {
	case "":
		return keyrange.KeyRange{}, errors.New("empty range")
	case "*":
		return keyrange.Everything, nil
	case "null":
		return keyrange.IsNull, nil
	}
	if str[0] != '[' && str[0] != '(' {
		v, err := parseSlotValue(schema, field, span, str)
		if err != nil {
			return keyrange.KeyRange{}, err
		}
		return keyrange.Point(v), nil
	}
	lowerKind := keyrange.InclusiveIf(str[0] == '[')
	upperKind := keyrange.InclusiveIf(str[len(str)-1] == ']')
	if c := str[len(str)-1]; c != ']' && c != ')' {
		return keyrange.KeyRange{}, errors.Errorf("malformed range %q", str)
	}
	lo, hi, ok := strings.Cut(str[1:len(str)-1], " - ")
	if !ok {
		return keyrange.KeyRange{}, errors.Errorf("malformed range %q", str)
	}
	var lower, upper []byte
	var err error
	if lo != "*" {
		if lower, err = parseSlotValue(schema, field, span, lo); err != nil {
			return keyrange.KeyRange{}, err
		}
	}
	if hi != "*" {
		if upper, err = parseSlotValue(schema, field, span, hi); err != nil {
			return keyrange.KeyRange{}, err
		}
	}
	switch {
	case lo == "*" && hi == "*":
		return keyrange.Everything, nil
	case lo == "*":
		return keyrange.AtMost(upper, upperKind), nil
	case hi == "*":
		return keyrange.AtLeast(lower, lowerKind), nil
	default:
		return keyrange.Make(lower, lowerKind, upper, upperKind), nil
	}
}

// parseSlotValue parses the value of a slot covering span fields starting
// at field, given as '/'-separated field values.
func parseSlotValue(schema rowkey.Schema, field, span int, str string) ([]byte, error) {
	if str == "null" {
		return []byte{}, nil
	}
	parts := strings.Split(str, "/")
	if len(parts) > span {
		return nil, errors.Errorf("%q has more values than the slot has fields", str)
	}
	var b []byte
	for k, p := range parts {
		v, err := schema.ParseValue(field+k, p)
		if err != nil {
			return nil, err
		}
		b = append(b, v...)
		// Non-null descending values end with their terminator.
		f := schema.Field(field + k)
		if k < len(parts)-1 && !f.FixedWidth() && (f.Order == rowkey.Ascending || len(v) == 0) {
			b = append(b, rowkey.AscSeparator)
		}
	}
	return b, nil
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/scanfilter/internal/wire"
	"github.com/cockroachdb/scanfilter/rowkey"
)

// DistinctPrefixFilter includes the first row of every distinct value of the
// leading prefixLength fields of the row key, and seeks past the remaining
// rows sharing that prefix.
type DistinctPrefixFilter struct {
	schema       rowkey.Schema
	prefixLength int
	opts         DistinctPrefixOptions

	cursor rowkey.Cursor
	// lastPrefix holds the prefix of the most recently included row, up to
	// its last non-null field.
	lastPrefix []byte
	havePrefix bool
	hint       []byte
	done       bool
	hints      hintMap
	stats      Stats
}

var _ Filter = (*DistinctPrefixFilter)(nil)

// NewDistinctPrefixFilter returns a filter that includes one row for each
// distinct value of the first prefixLength fields of the row key.
func NewDistinctPrefixFilter(
	schema rowkey.Schema, prefixLength int, opts DistinctPrefixOptions,
) (*DistinctPrefixFilter, error) {
	if prefixLength < 1 || prefixLength > schema.NumFields() {
		return nil, errors.Errorf("prefix length %d out of range [1, %d]", prefixLength, schema.NumFields())
	}
	if opts.Offset < 0 {
		return nil, errors.Errorf("negative row key offset %d", opts.Offset)
	}
	f := &DistinctPrefixFilter{
		schema:       schema,
		prefixLength: prefixLength,
		opts:         opts,
		cursor:       rowkey.MakeCursor(schema),
	}
	f.hints.init()
	return f, nil
}

// Schema returns the schema row keys are decoded with.
func (f *DistinctPrefixFilter) Schema() rowkey.Schema { return f.schema }

// PrefixLength returns the number of leading fields that make up the prefix.
func (f *DistinctPrefixFilter) PrefixLength() int { return f.prefixLength }

// Exhausted implements Filter.
func (f *DistinctPrefixFilter) Exhausted() bool { return f.done }

// Stats implements Filter.
func (f *DistinctPrefixFilter) Stats() Stats { return f.stats }

// NextHint implements Filter.
func (f *DistinctPrefixFilter) NextHint(family []byte) []byte {
	return f.hints.get(family)
}

// Navigate implements Filter.
func (f *DistinctPrefixFilter) Navigate(family, row []byte) (Decision, error) {
	d := Terminate
	if !f.done {
		d = f.navigate(row)
	}
	if d == SeekToHint {
		if err := f.hints.set(family, f.hint); err != nil {
			f.done = true
			return Terminate, err
		}
	}
	f.stats.record(d)
	return d, nil
}

func (f *DistinctPrefixFilter) navigate(row []byte) Decision {
	// Null prefix fields are omitted from keys when only nulls follow them,
	// so prefixes are compared up to their last non-null field.
	f.cursor.Reset(row, f.opts.Offset)
	start := f.cursor.Offset()
	end, fields := start, 0
	for k := 0; k < f.prefixLength && f.cursor.Advance(k, 1) > 0; k++ {
		if len(f.cursor.Value()) > 0 {
			end, fields = f.cursor.End(), k+1
		}
	}
	prefix := row[start:end]
	if !f.havePrefix || !bytes.Equal(prefix, f.lastPrefix) {
		f.lastPrefix = append(f.lastPrefix[:0], prefix...)
		f.havePrefix = true
		return Include
	}

	// Seek to the smallest key after every key starting with the prefix: the
	// prefix up to its last non-null field and that field's separator,
	// completed with the smallest encoding of the remaining prefix fields,
	// and incremented.
	f.cursor.Reset(row, f.opts.Offset)
	f.hint = append(f.hint[:0], row[:start]...)
	if fields > 0 {
		f.cursor.Advance(0, fields)
		var ok bool
		if f.hint, ok = f.cursor.Terminate(f.hint[:0]); !ok {
			// The row ends inside a descending value, which longer keys
			// extend into other values.
			f.hint = append(append(f.hint[:0], row...), 0)
			return SeekToHint
		}
	}
	for k := fields; k < f.prefixLength; k++ {
		if field := f.schema.Field(k); field.FixedWidth() {
			f.hint = append(f.hint, make([]byte, field.Width)...)
		} else {
			f.hint = append(f.hint, rowkey.AscSeparator)
		}
	}
	if !rowkey.NextKey(f.hint[start:]) {
		f.done = true
		return Terminate
	}
	return SeekToHint
}

// String implements fmt.Stringer.
func (f *DistinctPrefixFilter) String() string {
	return redact.StringWithoutMarkers(f)
}

// SafeFormat implements redact.SafeFormatter.
func (f *DistinctPrefixFilter) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("distinct-prefix %d of %s", f.prefixLength, f.schema)
	if f.opts.Offset > 0 {
		w.Printf(" offset=%d", f.opts.Offset)
	}
}

// distinctPrefixVersion is the version byte leading a serialized
// DistinctPrefixFilter.
const distinctPrefixVersion = 1

// Encode returns the serialized form of the filter: a version byte, the
// schema, the prefix length as a big-endian int32 and the row key offset as a
// uvarint. Decoders treat the offset as optional.
func (f *DistinctPrefixFilter) Encode() []byte {
	e := wire.MakeEncoder()
	e.WriteByte(distinctPrefixVersion)
	f.schema.Encode(e)
	e.WriteInt32(int32(f.prefixLength))
	e.WriteUvarint(uint64(f.opts.Offset))
	return e.Bytes()
}

// DecodeDistinctPrefixFilter decodes a filter serialized by Encode.
// Malformed input returns an error marked with ErrCorruptFilter.
func DecodeDistinctPrefixFilter(buf []byte) (*DistinctPrefixFilter, error) {
	d := wire.MakeDecoder(buf)
	v, err := d.ReadByte()
	if err != nil {
		return nil, errors.Wrap(err, "decoding version")
	}
	if v != distinctPrefixVersion {
		return nil, errors.Wrapf(ErrCorruptFilter, "unknown distinct prefix filter version %d", v)
	}
	schema, err := rowkey.DecodeSchema(d)
	if err != nil {
		return nil, errors.Wrap(err, "decoding schema")
	}
	prefixLength, err := d.ReadInt32()
	if err != nil {
		return nil, errors.Wrap(err, "decoding prefix length")
	}
	var opts DistinctPrefixOptions
	if d.Len() > 0 {
		offset, err := d.ReadUvarint()
		if err != nil {
			return nil, errors.Wrap(err, "decoding row key offset")
		}
		if offset > 1<<20 {
			return nil, errors.Wrapf(ErrCorruptFilter, "invalid row key offset %d", offset)
		}
		opts.Offset = int(offset)
	}
	if d.Len() > 0 {
		return nil, errors.Wrapf(ErrCorruptFilter, "%d trailing bytes", d.Len())
	}
	f, err := NewDistinctPrefixFilter(schema, int(prefixLength), opts)
	if err != nil {
		return nil, errors.Mark(err, ErrCorruptFilter)
	}
	return f, nil
}

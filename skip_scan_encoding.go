// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanfilter

import (
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/scanfilter/internal/wire"
	"github.com/cockroachdb/scanfilter/keyrange"
	"github.com/cockroachdb/scanfilter/rowkey"
)

// The header of a slot packs the number of ranges in its low bits and the
// span, minus one, in the bits above. Headers are written negated and offset
// by one so that they can be told apart from the legacy form, a plain
// non-negative range count with an implied span of one.
const (
	slotCountBits = 21
	maxSlotRanges = 1<<slotCountBits - 1
	maxSlotSpan   = 1 << (31 - slotCountBits)
)

func encodeSlotHeader(span, count int) int32 {
	return -int32((span-1)<<slotCountBits|count) - 1
}

func decodeSlotHeader(h int32) (span, count int) {
	if h >= 0 {
		return 1, int(h)
	}
	v := -(h + 1)
	return int(v>>slotCountBits) + 1, int(v & maxSlotRanges)
}

// Encode returns the serialized form of the filter's configuration: its
// schema, slots and options. Scan state is not serialized.
//
// The layout is the encoded schema; a big-endian int32 slot count, negated
// if all versions are included; for each slot a big-endian int32 header (see
// encodeSlotHeader) followed by its ranges; a point lookup byte; and the row
// key offset as a uvarint. Decoders treat the last two as optional.
func (f *SkipScanFilter) Encode() []byte {
	e := wire.MakeEncoder()
	f.schema.Encode(e)
	n := int32(len(f.slots))
	if f.opts.IncludeAllVersions {
		n = -n
	}
	e.WriteInt32(n)
	for i, slot := range f.slots {
		e.WriteInt32(encodeSlotHeader(f.spans[i], len(slot)))
		for _, r := range slot {
			r.Encode(e)
		}
	}
	e.WriteBool(f.opts.PointLookup)
	e.WriteUvarint(uint64(f.opts.Offset))
	return e.Bytes()
}

// DecodeSkipScanFilter decodes a filter serialized by Encode. Input that
// ends after the slots, as written by older producers, decodes to a filter
// that is not a point lookup and has no row key offset. Malformed input
// returns an error marked with ErrCorruptFilter.
func DecodeSkipScanFilter(buf []byte) (*SkipScanFilter, error) {
	d := wire.MakeDecoder(buf)
	schema, err := rowkey.DecodeSchema(d)
	if err != nil {
		return nil, errors.Wrap(err, "decoding schema")
	}
	n, err := d.ReadInt32()
	if err != nil {
		return nil, errors.Wrap(err, "decoding slot count")
	}
	var opts SkipScanOptions
	if n < 0 {
		opts.IncludeAllVersions = true
		n = -n
	}
	if n <= 0 || int(n) > d.Len() {
		return nil, errors.Wrapf(ErrCorruptFilter, "invalid slot count %d", n)
	}
	slots := make([][]keyrange.KeyRange, n)
	spans := make([]int, n)
	for i := range slots {
		h, err := d.ReadInt32()
		if err != nil {
			return nil, errors.Wrapf(err, "decoding slot %d", i)
		}
		span, count := decodeSlotHeader(h)
		if count == 0 || count > d.Len() {
			return nil, errors.Wrapf(ErrCorruptFilter, "slot %d: invalid range count %d", i, count)
		}
		spans[i] = span
		slots[i] = make([]keyrange.KeyRange, count)
		for k := range slots[i] {
			if slots[i][k], err = keyrange.Decode(d); err != nil {
				return nil, errors.Wrapf(err, "decoding slot %d range %d", i, k)
			}
		}
	}
	if d.Len() > 0 {
		if opts.PointLookup, err = d.ReadBool(); err != nil {
			return nil, errors.Wrap(err, "decoding point lookup flag")
		}
	}
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
	f, err := NewSkipScanFilter(schema, slots, spans, opts)
	if err != nil {
		return nil, errors.Mark(err, ErrCorruptFilter)
	}
	return f, nil
}

// Equal returns true if both filters have the same schema, slots and
// options. Scan state is not compared.
func (f *SkipScanFilter) Equal(o *SkipScanFilter) bool {
	if f.opts != o.opts || !f.schema.Equal(o.schema) || !slices.Equal(f.spans, o.spans) {
		return false
	}
	return slices.EqualFunc(f.slots, o.slots, func(a, b []keyrange.KeyRange) bool {
		return slices.EqualFunc(a, b, keyrange.KeyRange.Equal)
	})
}

// Fingerprint returns a hash of the filter's configuration. Equal filters
// have equal fingerprints.
func (f *SkipScanFilter) Fingerprint() uint64 {
	return xxhash.Sum64(f.Encode())
}

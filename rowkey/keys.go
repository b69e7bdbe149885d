// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package rowkey

import (
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/scanfilter/keyrange"
)

// AppendKey appends the row key formed by values to dst. Values must already
// be in their stored form (see EncodeUint, EncodeString); an empty value is
// null. Missing trailing values are treated as null. Trailing null fields are
// omitted together with their separators, while a non-null value keeps the
// separator that follows it.
func (s Schema) AppendKey(dst []byte, values ...[]byte) ([]byte, error) {
	if len(values) > len(s.fields) {
		return nil, errors.Errorf("%d values for a schema of %d fields", len(values), len(s.fields))
	}
	start := len(dst)
	// end is the length of dst after the last non-null field.
	end := start
	for i, f := range s.fields {
		var v []byte
		if i < len(values) {
			v = values[i]
		}
		switch {
		case f.FixedWidth():
			if len(v) != f.Width {
				return nil, errors.Errorf("field %d: value of %d bytes for width %d", i, len(v), f.Width)
			}
			dst = append(dst, v...)
			end = len(dst)
			continue
		case len(v) > 0 && v[0] == AscSeparator:
			return nil, errors.Errorf("field %d: value starts with a separator byte", i)
		case len(v) > 0 && f.Order == Descending:
			// The stored value ends with its terminator.
			if n := bytes.IndexByte(v, DescSeparator); n != len(v)-1 {
				return nil, errors.Errorf("field %d: descending value is not terminated once", i)
			}
			dst = append(dst, v...)
			end = len(dst)
			continue
		case bytes.IndexByte(v, AscSeparator) >= 0:
			return nil, errors.Errorf("field %d: value contains a separator byte", i)
		}
		dst = append(dst, v...)
		if len(v) > 0 {
			end = len(dst)
		}
		if i < len(s.fields)-1 {
			dst = append(dst, AscSeparator)
			if len(v) > 0 {
				end = len(dst)
			}
		}
	}
	return dst[:end], nil
}

// DecodeKey splits a key into its stored field values. Fields missing from
// the key are reported as nil.
func (s Schema) DecodeKey(key []byte) [][]byte {
	c := MakeCursor(s)
	c.Reset(key, 0)
	values := make([][]byte, len(s.fields))
	for i := range s.fields {
		if c.Advance(i, 1) == 0 {
			break
		}
		values[i] = c.Value()
	}
	return values
}

// FormatKey returns a printable form of key in the syntax accepted by
// ParseKey: the values of the fields present in the key, separated by '/'.
func (s Schema) FormatKey(key []byte) string {
	var sb strings.Builder
	for i, v := range s.DecodeKey(key) {
		if v == nil {
			break
		}
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(s.FormatValue(i, v))
	}
	return sb.String()
}

// FormatValue returns a printable form of a stored value of field i, in the
// syntax accepted by ParseValue where possible. Fixed-width values of up to 8
// bytes are printed as unsigned integers, and null as "-".
func (s Schema) FormatValue(i int, v []byte) string {
	f := s.fields[i]
	if f.Order == Descending {
		if !f.FixedWidth() && len(v) > 0 && v[len(v)-1] == DescSeparator {
			v = v[:len(v)-1]
		}
		v = Invert(v)
	}
	switch {
	case len(v) == 0:
		return "-"
	case f.FixedWidth() && len(v) == f.Width && f.Width <= 8:
		var buf [8]byte
		copy(buf[8-len(v):], v)
		return strconv.FormatUint(binary.BigEndian.Uint64(buf[:]), 10)
	default:
		return keyrange.DefaultFormatter(v)
	}
}

// Invert returns a copy of b with every byte inverted.
func Invert(b []byte) []byte {
	r := make([]byte, len(b))
	for i := range b {
		r[i] = ^b[i]
	}
	return r
}

// EncodeUint returns the stored form of v in a fixed-width field of the
// given width. Bytes of v above the width are dropped.
func EncodeUint(v uint64, width int, order SortOrder) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	b := make([]byte, width)
	if width >= 8 {
		copy(b[width-8:], buf[:])
	} else {
		copy(b, buf[8-width:])
	}
	if order == Descending {
		return Invert(b)
	}
	return b
}

// EncodeInt64 returns the stored form of v in an 8 byte field, flipping the
// sign bit so that negative values sort first.
func EncodeInt64(v int64, order SortOrder) []byte {
	return EncodeUint(uint64(v)^(1<<63), 8, order)
}

// EncodeString returns the stored form of s in a variable-width field. A
// non-empty descending value is inverted and terminated by DescSeparator, so
// that a value sorts before the values it is a prefix of.
func EncodeString(s string, order SortOrder) []byte {
	if order == Descending && len(s) > 0 {
		return append(Invert([]byte(s)), DescSeparator)
	}
	return []byte(s)
}

// ParseValue parses the human-readable form of a value of field i and
// returns its stored form. Fixed-width values are unsigned decimal integers;
// variable-width values are taken literally. "-" denotes null.
func (s Schema) ParseValue(i int, str string) ([]byte, error) {
	f := s.fields[i]
	if str == "-" {
		if f.FixedWidth() {
			return nil, errors.Errorf("field %d: fixed-width fields cannot be null", i)
		}
		return []byte{}, nil
	}
	if !f.FixedWidth() {
		return EncodeString(str, f.Order), nil
	}
	v, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "field %d", i)
	}
	if f.Width < 8 && v >= 1<<(8*f.Width) {
		return nil, errors.Errorf("field %d: %d does not fit in %d bytes", i, v, f.Width)
	}
	return EncodeUint(v, f.Width, f.Order), nil
}

// ParseKey parses a '/'-separated list of human-readable values (see
// ParseValue) and returns the encoded key. Fewer values than fields may be
// given.
func (s Schema) ParseKey(str string) ([]byte, error) {
	var values [][]byte
	if str != "" {
		parts := strings.Split(str, "/")
		if len(parts) > len(s.fields) {
			return nil, errors.Errorf("%q has %d values for %d fields", str, len(parts), len(s.fields))
		}
		for i, p := range parts {
			v, err := s.ParseValue(i, p)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
	}
	// A partial key encodes the given leading fields as if they were the
	// whole key, so that it ends right after the last given value.
	return Schema{fields: s.fields[:len(values)]}.AppendKey(nil, values...)
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package rowkey describes the layout of composite row keys: a sequence of
// fixed-width and variable-width fields, each ascending or descending, where
// variable-width fields are terminated by a separator byte. It provides a
// cursor that walks the fields of an encoded key in place and helpers to
// build and format keys.
package rowkey

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/scanfilter/internal/wire"
)

// SortOrder is the order in which a field's values sort in the key. Values
// of a descending field are stored with every byte inverted. Stored values of
// any field compare bytewise in key order.
type SortOrder uint8

const (
	// Ascending fields are stored as is.
	Ascending SortOrder = iota
	// Descending fields are stored inverted.
	Descending
)

// String implements fmt.Stringer.
func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// Separator bytes terminating variable-width fields. A null value is
// followed by AscSeparator in either order, so that it sorts first. A
// non-null descending value ends with DescSeparator, which is part of its
// stored form; other values are followed by AscSeparator unless they end the
// key.
const (
	AscSeparator  byte = 0x00
	DescSeparator byte = 0xff
)

// Field describes one field of a row key.
type Field struct {
	// Width is the number of bytes of a fixed-width field, or 0 for a
	// variable-width field.
	Width int
	Order SortOrder
}

// FixedWidth returns true if the field always occupies Width bytes.
func (f Field) FixedWidth() bool { return f.Width > 0 }

// String implements fmt.Stringer, using the syntax accepted by ParseSchema.
func (f Field) String() string {
	var s string
	if f.FixedWidth() {
		s = "fixed:" + strconv.Itoa(f.Width)
	} else {
		s = "var"
	}
	if f.Order == Descending {
		s += ":desc"
	}
	return s
}

// Schema is the ordered list of fields making up a row key.
type Schema struct {
	fields []Field
}

// MakeSchema returns a schema with the given fields.
func MakeSchema(fields ...Field) Schema {
	return Schema{fields: fields}
}

// NumFields returns the number of fields in the schema.
func (s Schema) NumFields() int { return len(s.fields) }

// Field returns the i-th field.
func (s Schema) Field(i int) Field { return s.fields[i] }

// Equal returns true if both schemas have the same fields.
func (s Schema) Equal(o Schema) bool {
	if len(s.fields) != len(o.fields) {
		return false
	}
	for i := range s.fields {
		if s.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (s Schema) String() string {
	parts := make([]string, len(s.fields))
	for i, f := range s.fields {
		parts[i] = f.String()
	}
	return strings.Join(parts, " ")
}

// SafeFormat implements redact.SafeFormatter. Schemas contain no user data.
func (s Schema) SafeFormat(w redact.SafePrinter, _ rune) {
	w.SafeString(redact.SafeString(s.String()))
}

// ParseSchema parses a whitespace or comma separated list of fields of the form
// "fixed:<width>[:desc]" or "var[:desc]".
func ParseSchema(str string) (Schema, error) {
	var fields []Field
	toks := strings.FieldsFunc(str, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	for _, tok := range toks {
		parts := strings.Split(tok, ":")
		var f Field
		switch parts[0] {
		case "fixed":
			if len(parts) < 2 {
				return Schema{}, errors.Errorf("field %q: missing width", tok)
			}
			w, err := strconv.Atoi(parts[1])
			if err != nil || w <= 0 {
				return Schema{}, errors.Errorf("field %q: invalid width", tok)
			}
			f.Width = w
			parts = parts[2:]
		case "var":
			parts = parts[1:]
		default:
			return Schema{}, errors.Errorf("field %q: unknown kind", tok)
		}
		switch {
		case len(parts) == 0:
		case len(parts) == 1 && parts[0] == "desc":
			f.Order = Descending
		case len(parts) == 1 && parts[0] == "asc":
		default:
			return Schema{}, errors.Errorf("field %q: unexpected suffix", tok)
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return Schema{}, errors.New("schema has no fields")
	}
	return MakeSchema(fields...), nil
}

// Encode writes the schema as a uvarint field count followed by, for each
// field, its width as a uvarint and its order as a byte.
func (s Schema) Encode(e wire.Encoder) {
	e.WriteUvarint(uint64(len(s.fields)))
	for _, f := range s.fields {
		e.WriteUvarint(uint64(f.Width))
		e.WriteByte(byte(f.Order))
	}
}

// maxFields bounds the field count accepted by DecodeSchema.
const maxFields = 1 << 16

// DecodeSchema reads a schema written by Encode.
func DecodeSchema(d wire.Decoder) (Schema, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return Schema{}, err
	}
	if n == 0 || n > maxFields || n > uint64(d.Len()) {
		return Schema{}, errors.Wrapf(wire.ErrCorrupt, "invalid field count %d", n)
	}
	fields := make([]Field, n)
	for i := range fields {
		w, err := d.ReadUvarint()
		if err != nil {
			return Schema{}, err
		}
		if w > 1<<20 {
			return Schema{}, errors.Wrapf(wire.ErrCorrupt, "field %d: invalid width %d", i, w)
		}
		o, err := d.ReadByte()
		if err != nil {
			return Schema{}, err
		}
		if SortOrder(o) > Descending {
			return Schema{}, errors.Wrapf(wire.ErrCorrupt, "field %d: invalid sort order %d", i, o)
		}
		fields[i] = Field{Width: int(w), Order: SortOrder(o)}
	}
	return MakeSchema(fields...), nil
}

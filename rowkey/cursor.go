// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package rowkey

// fieldState is the outcome of decoding a single field.
type fieldState int8

const (
	// fieldAbsent means the key ended before the field.
	fieldAbsent fieldState = iota
	// fieldNull means the field is present with an empty value.
	fieldNull
	// fieldValue means the field has a non-empty value.
	fieldValue
)

// Cursor walks the fields of an encoded row key without copying. The cursor
// holds a window [off, off+len) into the key; after Advance the window covers
// the fields that were decoded. The window of a non-null descending
// variable-width value includes its terminating separator, so windows of a
// field compare bytewise in key order.
//
// A Cursor must be Reset before use.
type Cursor struct {
	schema Schema
	buf    []byte
	max    int
	off    int
	len    int
	// sep is 1 if a separator byte terminating the window's last field
	// follows the window.
	sep int
	// last is the outcome of decoding the last field present in the key, at
	// index pos.
	last fieldState
	pos  int
}

// MakeCursor returns a cursor over keys with the given schema.
func MakeCursor(schema Schema) Cursor {
	return Cursor{schema: schema}
}

// Schema returns the schema the cursor decodes.
func (c *Cursor) Schema() Schema { return c.schema }

// Reset positions the cursor before the first field of the key stored in
// buf[offset:].
func (c *Cursor) Reset(buf []byte, offset int) {
	c.buf = buf
	c.max = len(buf)
	c.off = min(offset, len(buf))
	c.len = 0
	c.sep = 0
	c.last = fieldAbsent
}

// Buf returns the key the cursor was reset to.
func (c *Cursor) Buf() []byte { return c.buf }

// Offset returns the start of the current window.
func (c *Cursor) Offset() int { return c.off }

// End returns the end of the current window.
func (c *Cursor) End() int { return c.off + c.len }

// SeparatorEnd returns the end of the current window, past the separator
// terminating its last field if the key holds one.
func (c *Cursor) SeparatorEnd() int { return c.off + c.len + c.sep }

// Value returns the bytes of the current window.
func (c *Cursor) Value() []byte { return c.buf[c.off : c.off+c.len] }

// Terminate appends to dst the key up to the end of the current window,
// followed by the separator terminating the last field decoded from the key
// so that another field may follow it. The separator is added if the key ends
// without it. It returns false if the key ends inside a non-null descending
// value, which no separator completes.
func (c *Cursor) Terminate(dst []byte) ([]byte, bool) {
	end := c.off + c.len
	switch {
	case c.last == fieldAbsent || c.schema.fields[c.pos].FixedWidth():
		return append(dst, c.buf[:end]...), true
	case c.sep > 0:
		return append(dst, c.buf[:end+1]...), true
	case c.last == fieldValue && c.schema.fields[c.pos].Order == Descending:
		return append(dst, c.buf[:end]...), c.buf[end-1] == DescSeparator
	default:
		dst = append(dst, c.buf[:end]...)
		return append(dst, AscSeparator), true
	}
}

// Advance decodes the span fields starting at field pos, which must directly
// follow the fields decoded so far. The window is set to cover the decoded
// fields, including the separators between them. It returns the number of
// fields that were present in the key; decoding stops at the first absent
// field. If no field was present the window is empty and positioned at the
// end of the key.
func (c *Cursor) Advance(pos, span int) int {
	if c.next(pos) == fieldAbsent {
		return 0
	}
	start := c.off
	n := 1
	for ; n < span; n++ {
		if c.next(pos+n) == fieldAbsent {
			break
		}
	}
	c.len = c.off + c.len - start
	c.off = start
	return n
}

// next moves the window to field pos.
func (c *Cursor) next(pos int) fieldState {
	if c.off+c.len >= c.max {
		c.off, c.len, c.sep = c.max, 0, 0
		return fieldAbsent
	}
	c.off += c.len + c.sep
	c.len, c.sep = 0, 0
	c.pos = pos
	f := c.schema.fields[pos]
	switch {
	case c.off >= c.max:
		c.off = c.max
	case f.FixedWidth():
		c.len = min(c.max-c.off, f.Width)
	case c.buf[c.off] == AscSeparator:
		// Null, terminated by the ascending separator in either order.
		c.sep = 1
	case f.Order == Descending:
		for c.off+c.len < c.max && c.buf[c.off+c.len] != DescSeparator {
			c.len++
		}
		if c.off+c.len < c.max {
			c.len++
		}
	case pos == len(c.schema.fields)-1:
		c.len = c.max - c.off
	default:
		for c.off+c.len < c.max && c.buf[c.off+c.len] != AscSeparator {
			c.len++
		}
		if c.off+c.len < c.max {
			c.sep = 1
		}
	}
	c.last = fieldValue
	if c.len == 0 {
		c.last = fieldNull
	}
	return c.last
}

// NextKey increments b in place to the smallest byte string of the same
// length that is greater than b, carrying into preceding bytes as needed. It
// returns false, leaving b unchanged, if every byte is 0xff.
func NextKey(b []byte) bool {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xff {
			b[i]++
			for j := i + 1; j < len(b); j++ {
				b[j] = 0
			}
			return true
		}
	}
	return false
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanner

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// A cell is stored in pebble under the key
//
//	familyID | escaped(row) | 0x00 0x01 | ^timestamp
//
// where escaping replaces every 0x00 byte of the row with 0x00 0xff and the
// timestamp is a big-endian uint64. The escaping preserves the order of rows,
// the terminator sorts before any escaped continuation so that a row sorts
// before the rows it prefixes, and the inverted timestamp orders the newest
// version of a row first.
const (
	escapeByte     byte = 0x00
	escapedZero    byte = 0xff
	terminatorByte byte = 0x01
	// nextRowByte follows the terminator's first byte in a key that sorts
	// after every version of a row and before every other row.
	nextRowByte byte = 0x02
	tsLen            = 8
)

// appendEscaped appends the escaped form of row to dst.
func appendEscaped(dst, row []byte) []byte {
	for _, b := range row {
		if b == escapeByte {
			dst = append(dst, escapeByte, escapedZero)
			continue
		}
		dst = append(dst, b)
	}
	return dst
}

// makeCellKey appends the storage key of a cell to dst.
func makeCellKey(dst []byte, family byte, row []byte, ts uint64) []byte {
	dst = append(dst, family)
	dst = appendEscaped(dst, row)
	dst = append(dst, escapeByte, terminatorByte)
	return binary.BigEndian.AppendUint64(dst, ^ts)
}

// makeSeekKey appends to dst the smallest storage key of the family whose
// row is at or after row. A nil row is the start of the family.
func makeSeekKey(dst []byte, family byte, row []byte) []byte {
	dst = append(dst, family)
	return appendEscaped(dst, row)
}

// makeNextRowKey appends to dst the smallest storage key of the family whose
// row is after row.
func makeNextRowKey(dst []byte, family byte, row []byte) []byte {
	dst = makeSeekKey(dst, family, row)
	return append(dst, escapeByte, nextRowByte)
}

// decodeCellKey splits a storage key into its family, its unescaped row,
// appended to rowBuf, and its timestamp.
func decodeCellKey(key, rowBuf []byte) (family byte, row []byte, ts uint64, err error) {
	if len(key) < 1+2+tsLen {
		return 0, nil, 0, errors.Errorf("cell key %x too short", key)
	}
	family = key[0]
	row = rowBuf[:0]
	body := key[1 : len(key)-tsLen]
	for i := 0; i < len(body); i++ {
		if body[i] != escapeByte {
			row = append(row, body[i])
			continue
		}
		if i+1 < len(body) && body[i+1] == escapedZero {
			row = append(row, 0)
			i++
			continue
		}
		if i+2 != len(body) || body[i+1] != terminatorByte {
			return 0, nil, 0, errors.Errorf("cell key %x: malformed row", key)
		}
		return family, row, ^binary.BigEndian.Uint64(key[len(key)-tsLen:]), nil
	}
	return 0, nil, 0, errors.Errorf("cell key %x: missing row terminator", key)
}

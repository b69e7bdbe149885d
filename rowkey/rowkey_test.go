// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package rowkey

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/scanfilter/internal/wire"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	var schema Schema
	datadriven.RunTest(t, "testdata/keys", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "schema":
			s, err := ParseSchema(td.Input)
			if err != nil {
				return err.Error()
			}
			schema = s
			return schema.String()

		case "encode":
			var buf bytes.Buffer
			for _, line := range crstrings.Lines(td.Input) {
				key, err := schema.ParseKey(line)
				if err != nil {
					fmt.Fprintf(&buf, "%s: error: %v\n", line, err)
					continue
				}
				fmt.Fprintf(&buf, "%s: %x -> %s\n", line, key, schema.FormatKey(key))
			}
			return buf.String()

		case "advance":
			var keyStr string
			td.ScanArgs(t, "key", &keyStr)
			key, err := schema.ParseKey(keyStr)
			require.NoError(t, err)
			c := MakeCursor(schema)
			c.Reset(key, 0)
			var buf bytes.Buffer
			for _, line := range crstrings.Lines(td.Input) {
				if line == "reset" {
					c.Reset(key, 0)
					continue
				}
				fields := strings.Fields(line)
				require.Len(t, fields, 2)
				pos, err := strconv.Atoi(fields[0])
				require.NoError(t, err)
				span, err := strconv.Atoi(fields[1])
				require.NoError(t, err)
				n := c.Advance(pos, span)
				fmt.Fprintf(&buf, "n=%d value=%x [%d,%d)\n", n, c.Value(), c.Offset(), c.End())
			}
			return buf.String()

		default:
			return fmt.Sprintf("unknown command: %s", td.Cmd)
		}
	})
}

func TestNextKey(t *testing.T) {
	testCases := []struct {
		in, out []byte
		ok      bool
	}{
		{[]byte{0x00}, []byte{0x01}, true},
		{[]byte{0x01, 0xff}, []byte{0x02, 0x00}, true},
		{[]byte{0x01, 0xff, 0xff}, []byte{0x02, 0x00, 0x00}, true},
		{[]byte{0xff, 0xff}, []byte{0xff, 0xff}, false},
		{[]byte{}, nil, false},
	}
	for _, tc := range testCases {
		b := append([]byte(nil), tc.in...)
		require.Equal(t, tc.ok, NextKey(b), "%x", tc.in)
		require.Equal(t, tc.out, b, "%x", tc.in)
	}
}

// TestValueOrder checks that stored values compare bytewise in the order of
// the keys holding them, with null first in either order.
func TestValueOrder(t *testing.T) {
	for _, order := range []SortOrder{Ascending, Descending} {
		t.Run(order.String(), func(t *testing.T) {
			vals := []string{"", "a", "ab", "abc", "b", "ba"}
			if order == Descending {
				// Null first, then the largest value.
				vals = []string{"", "ba", "b", "abc", "ab", "a"}
			}
			s := MakeSchema(Field{Order: order}, Field{Width: 1})
			var prevValue, prevKey []byte
			for i, str := range vals {
				v := EncodeString(str, order)
				key, err := s.AppendKey(nil, v, []byte{7})
				require.NoError(t, err)
				require.Equal(t, [][]byte{v, {7}}, s.DecodeKey(key))
				want := str + "/7"
				if str == "" {
					want = "-/7"
				}
				require.Equal(t, want, s.FormatKey(key))
				if i > 0 {
					require.Equal(t, -1, bytes.Compare(prevValue, v), "%q %q", vals[i-1], str)
					require.Equal(t, -1, bytes.Compare(prevKey, key), "%q %q", vals[i-1], str)
				}
				prevValue, prevKey = v, key
			}
		})
	}
}

func TestEncodeInt64(t *testing.T) {
	vals := []int64{-1 << 63, -100, -1, 0, 1, 100, 1<<63 - 1}
	for i := 1; i < len(vals); i++ {
		require.Equal(t, -1, bytes.Compare(EncodeInt64(vals[i-1], Ascending), EncodeInt64(vals[i], Ascending)))
		require.Equal(t, 1, bytes.Compare(EncodeInt64(vals[i-1], Descending), EncodeInt64(vals[i], Descending)))
	}
}

func TestAppendKeyErrors(t *testing.T) {
	s := MakeSchema(Field{Width: 2}, Field{}, Field{Order: Descending})
	_, err := s.AppendKey(nil, []byte{1})
	require.Error(t, err)
	_, err = s.AppendKey(nil, []byte{1, 2}, []byte("a\x00b"))
	require.Error(t, err)
	// Descending values must end with their terminator and hold no other.
	_, err = s.AppendKey(nil, []byte{1, 2}, []byte("a"), []byte{0x9e})
	require.Error(t, err)
	_, err = s.AppendKey(nil, []byte{1, 2}, []byte("a"), []byte{0x9e, 0xff, 0x9d, 0xff})
	require.Error(t, err)
	_, err = s.AppendKey(nil, []byte{1, 2}, []byte{0x00, 'a'})
	require.Error(t, err)
	// The separator following a non-null value is kept when only nulls
	// follow it, while those of the null fields are dropped.
	key, err := s.AppendKey([]byte("prefix"), []byte{1, 2}, []byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("prefix\x01\x02a\x00"), key)
	key, err = s.AppendKey(nil, []byte{1, 2})
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, key)
	key, err = s.AppendKey(nil, []byte{1, 2}, nil, EncodeString("a", Descending))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 0x00, 0x9e, 0xff}, key)
}

func TestSchemaEncoding(t *testing.T) {
	s, err := ParseSchema("fixed:4 var:desc fixed:1:desc var")
	require.NoError(t, err)
	e := wire.MakeEncoder()
	s.Encode(e)
	buf := e.Bytes()

	got, err := DecodeSchema(wire.MakeDecoder(buf))
	require.NoError(t, err)
	require.True(t, s.Equal(got))
	require.Equal(t, s.String(), got.String())

	for i := 0; i < len(buf); i++ {
		_, err := DecodeSchema(wire.MakeDecoder(buf[:i]))
		require.True(t, errors.Is(err, wire.ErrCorrupt), "prefix %d: %v", i, err)
	}
	// An out of range sort order is rejected.
	bad := append([]byte(nil), buf...)
	bad[2] = 7
	_, err = DecodeSchema(wire.MakeDecoder(bad))
	require.True(t, errors.Is(err, wire.ErrCorrupt))
}

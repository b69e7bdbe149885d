// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanner

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestCellKeyRoundTrip(t *testing.T) {
	for _, row := range [][]byte{{}, {0}, {0, 0}, []byte("a\x00b"), {0xff, 0x00, 0x01}} {
		key := makeCellKey(nil, 3, row, 42)
		family, got, ts, err := decodeCellKey(key, nil)
		require.NoError(t, err)
		require.Equal(t, byte(3), family)
		require.Equal(t, row, append([]byte{}, got...))
		require.Equal(t, uint64(42), ts)
	}

	for _, key := range [][]byte{
		{1},
		{1, 'a', 0, 1, 0, 0, 0, 0, 0, 0, 0},
		{1, 'a', 0, 5, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 'a', 0, 1, 'b', 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 'a', 'b', 'c', 0, 0, 0, 0, 0, 0, 0, 0},
	} {
		_, _, _, err := decodeCellKey(key, nil)
		require.Error(t, err, "%x", key)
	}
}

// TestCellKeyOrder checks that storage keys order cells by row and then by
// descending timestamp, and that the seek key of a row sorts between the
// cells of the rows before and after it.
func TestCellKeyOrder(t *testing.T) {
	seed := uint64(time.Now().UnixNano())
	t.Logf("seed: %d", seed)
	rng := rand.New(rand.NewSource(seed))
	randRow := func() []byte {
		row := make([]byte, rng.Intn(4))
		for i := range row {
			row[i] = []byte{0x00, 0x01, 0x02, 0xff}[rng.Intn(4)]
		}
		return row
	}
	for i := 0; i < 2000; i++ {
		a, b := randRow(), randRow()
		tsA, tsB := uint64(rng.Intn(3)), uint64(rng.Intn(3))
		ka, kb := makeCellKey(nil, 0, a, tsA), makeCellKey(nil, 0, b, tsB)
		want := bytes.Compare(a, b)
		if want == 0 {
			// Newer versions first.
			switch {
			case tsA > tsB:
				want = -1
			case tsA < tsB:
				want = 1
			}
		}
		require.Equal(t, want, bytes.Compare(ka, kb), "rows %x@%d %x@%d", a, tsA, b, tsB)

		seek := makeSeekKey(nil, 0, b)
		next := makeNextRowKey(nil, 0, b)
		if bytes.Compare(a, b) < 0 {
			require.Less(t, bytes.Compare(ka, seek), 0, "row %x seek %x", a, b)
		} else {
			require.GreaterOrEqual(t, bytes.Compare(ka, seek), 0, "row %x seek %x", a, b)
		}
		if bytes.Compare(a, b) <= 0 {
			require.Less(t, bytes.Compare(ka, next), 0, "row %x next row %x", a, b)
		} else {
			require.Greater(t, bytes.Compare(ka, next), 0, "row %x next row %x", a, b)
		}
	}
}

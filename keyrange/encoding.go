// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package keyrange

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/scanfilter/internal/wire"
)

// Encode writes the range to e. Each bound is written as a presence byte,
// followed, if present, by the length-prefixed key and an inclusive byte.
func (r KeyRange) Encode(e wire.Encoder) {
	encodeBound(e, r.lowerUnbounded, r.lower, r.lowerKind)
	encodeBound(e, r.upperUnbounded, r.upper, r.upperKind)
}

func encodeBound(e wire.Encoder, unbounded bool, key []byte, kind BoundaryKind) {
	e.WriteBool(!unbounded)
	if unbounded {
		return
	}
	e.WriteBytes(key)
	e.WriteBool(kind == Inclusive)
}

// Decode reads a range written by Encode.
func Decode(d wire.Decoder) (KeyRange, error) {
	var r KeyRange
	var err error
	if r.lowerUnbounded, r.lower, r.lowerKind, err = decodeBound(d); err != nil {
		return KeyRange{}, errors.Wrap(err, "lower bound")
	}
	if r.upperUnbounded, r.upper, r.upperKind, err = decodeBound(d); err != nil {
		return KeyRange{}, errors.Wrap(err, "upper bound")
	}
	return r, nil
}

func decodeBound(d wire.Decoder) (unbounded bool, key []byte, kind BoundaryKind, err error) {
	present, err := d.ReadBool()
	if err != nil || !present {
		return true, nil, Exclusive, err
	}
	if key, err = d.ReadBytes(); err != nil {
		return false, nil, Exclusive, err
	}
	inclusive, err := d.ReadBool()
	if err != nil {
		return false, nil, Exclusive, err
	}
	return false, key, InclusiveIf(inclusive), nil
}

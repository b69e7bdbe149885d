// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package wire implements the primitive encoding shared by serialized filters,
// schemas and key ranges: single bytes, uvarints, length-prefixed byte strings
// and big-endian int32s.
package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
)

// ErrCorrupt is returned (possibly wrapped) when serialized bytes cannot be
// decoded.
var ErrCorrupt = errors.New("scanfilter: corrupt encoding")

// Encoder appends primitive values to a buffer.
type Encoder struct {
	*bytes.Buffer
}

// MakeEncoder returns an Encoder writing to a new buffer.
func MakeEncoder() Encoder {
	return Encoder{Buffer: new(bytes.Buffer)}
}

// WriteBool writes a single byte, 1 for true and 0 for false.
func (e Encoder) WriteBool(b bool) {
	if b {
		e.WriteByte(1)
	} else {
		e.WriteByte(0)
	}
}

// WriteUvarint writes u as a uvarint.
func (e Encoder) WriteUvarint(u uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], u)
	e.Write(buf[:n])
}

// WriteBytes writes the length of p as a uvarint followed by p.
func (e Encoder) WriteBytes(p []byte) {
	e.WriteUvarint(uint64(len(p)))
	e.Write(p)
}

// WriteInt32 writes v as 4 big-endian bytes.
func (e Encoder) WriteInt32(v int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	e.Write(buf[:])
}

// Decoder reads primitive values written by an Encoder. Every short read is
// reported as ErrCorrupt.
type Decoder struct {
	r *bytes.Reader
}

// MakeDecoder returns a Decoder reading from b.
func MakeDecoder(b []byte) Decoder {
	return Decoder{r: bytes.NewReader(b)}
}

// Len returns the number of unread bytes.
func (d Decoder) Len() int {
	return d.r.Len()
}

// ReadByte reads a single byte.
func (d Decoder) ReadByte() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(ErrCorrupt, "unexpected end of input")
	}
	return b, nil
}

// ReadBool reads a byte written by WriteBool.
func (d Decoder) ReadBool() (bool, error) {
	b, err := d.ReadByte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(ErrCorrupt, "invalid bool byte %d", b)
	}
}

// ReadUvarint reads a uvarint.
func (d Decoder) ReadUvarint() (uint64, error) {
	u, err := binary.ReadUvarint(d.r)
	if err != nil {
		return 0, errors.Wrap(ErrCorrupt, "malformed uvarint")
	}
	return u, nil
}

// ReadBytes reads a length-prefixed byte string. The returned slice is a copy.
func (d Decoder) ReadBytes() ([]byte, error) {
	n, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(d.r.Len()) {
		return nil, errors.Wrapf(ErrCorrupt, "byte string length %d exceeds remaining %d", n, d.r.Len())
	}
	s := make([]byte, n)
	if _, err := io.ReadFull(d.r, s); err != nil {
		return nil, errors.Wrap(ErrCorrupt, "truncated byte string")
	}
	return s, nil
}

// ReadInt32 reads 4 big-endian bytes.
func (d Decoder) ReadInt32() (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, errors.Wrap(ErrCorrupt, "truncated int32")
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

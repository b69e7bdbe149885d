// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package tool

import (
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
)

// key is a command line key. It is given in hex, optionally prefixed with
// "hex:", or verbatim with a "raw:" prefix. "-" and the empty string denote
// an unbounded key.
type key []byte

func (k *key) String() string {
	return hex.EncodeToString(*k)
}

func (k *key) Type() string {
	return "key"
}

func (k *key) Set(v string) error {
	switch {
	case v == "-" || v == "":
		*k = nil
	case strings.HasPrefix(v, "raw:"):
		*k = key(strings.TrimPrefix(v, "raw:"))
	default:
		b, err := hex.DecodeString(strings.TrimPrefix(v, "hex:"))
		if err != nil {
			return errors.Wrapf(err, "invalid key %q", v)
		}
		*k = key(b)
	}
	return nil
}

func parseKey(v string) ([]byte, error) {
	var k key
	err := k.Set(v)
	return k, err
}

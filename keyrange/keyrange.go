// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package keyrange defines KeyRange, an immutable interval over encoded key
// values with inclusive or exclusive bounds, either of which may be
// unbounded.
package keyrange

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/redact"
)

// Compare returns -1, 0, or +1 depending on whether a is 'less than', 'equal
// to' or 'greater than' b in the order of the column the values belong to.
type Compare func(a, b []byte) int

// BoundaryKind indicates if a boundary is exclusive or inclusive.
type BoundaryKind uint8

// The two possible values of BoundaryKind.
//
// Exclusive is the zero value, so the zero KeyRange is not a single key.
const (
	Exclusive BoundaryKind = iota
	Inclusive
)

// InclusiveIf returns Inclusive if inclusive is true and Exclusive otherwise.
func InclusiveIf(inclusive bool) BoundaryKind {
	if inclusive {
		return Inclusive
	}
	return Exclusive
}

// Bound selects one end of a KeyRange.
type Bound uint8

const (
	// Lower is the lower (start) end of a range.
	Lower Bound = iota
	// Upper is the upper (end) end of a range.
	Upper
)

func (b Bound) String() string {
	if b == Lower {
		return "lower"
	}
	return "upper"
}

// KeyRange is an interval [lower, upper] of encoded column values. Each end
// may be inclusive, exclusive or unbounded. A KeyRange is immutable; the
// slices it was built from must not be modified afterwards.
//
// The bytes of a KeyRange are in the storage encoding of the column they
// constrain, so for descending columns they are already inverted and the
// range still satisfies lower <= upper under the column's comparator.
type KeyRange struct {
	lower          []byte
	upper          []byte
	lowerKind      BoundaryKind
	upperKind      BoundaryKind
	lowerUnbounded bool
	upperUnbounded bool
}

// Everything is the range that is unbounded at both ends.
var Everything = KeyRange{lowerUnbounded: true, upperUnbounded: true}

// IsNull is the single-key range matching an absent (empty) value.
var IsNull = Point([]byte{})

// Make returns the range between lower and upper, both of which are bounded.
func Make(lower []byte, lowerKind BoundaryKind, upper []byte, upperKind BoundaryKind) KeyRange {
	return KeyRange{
		lower:     lower,
		upper:     upper,
		lowerKind: lowerKind,
		upperKind: upperKind,
	}
}

// Point returns the range containing exactly key.
func Point(key []byte) KeyRange {
	return Make(key, Inclusive, key, Inclusive)
}

// AtLeast returns the range that starts at lower and has no upper bound.
func AtLeast(lower []byte, kind BoundaryKind) KeyRange {
	return KeyRange{lower: lower, lowerKind: kind, upperUnbounded: true}
}

// AtMost returns the range that has no lower bound and ends at upper.
func AtMost(upper []byte, kind BoundaryKind) KeyRange {
	return KeyRange{upper: upper, upperKind: kind, lowerUnbounded: true}
}

// Lower returns the lower bound, or nil if the range has no lower bound.
func (r KeyRange) Lower() []byte { return r.lower }

// Upper returns the upper bound, or nil if the range has no upper bound.
func (r KeyRange) Upper() []byte { return r.upper }

// LowerInclusive returns true if the lower bound is bounded and inclusive.
func (r KeyRange) LowerInclusive() bool { return !r.lowerUnbounded && r.lowerKind == Inclusive }

// UpperInclusive returns true if the upper bound is bounded and inclusive.
func (r KeyRange) UpperInclusive() bool { return !r.upperUnbounded && r.upperKind == Inclusive }

// LowerUnbounded returns true if the range extends to the start of the
// keyspace.
func (r KeyRange) LowerUnbounded() bool { return r.lowerUnbounded }

// UpperUnbounded returns true if the range extends to the end of the
// keyspace.
func (r KeyRange) UpperUnbounded() bool { return r.upperUnbounded }

// Key returns the key of the given bound.
func (r KeyRange) Key(b Bound) []byte {
	if b == Lower {
		return r.lower
	}
	return r.upper
}

// Inclusive returns true if the given bound is bounded and inclusive.
func (r KeyRange) Inclusive(b Bound) bool {
	if b == Lower {
		return r.LowerInclusive()
	}
	return r.UpperInclusive()
}

// Unbounded returns true if the given bound is unbounded.
func (r KeyRange) Unbounded(b Bound) bool {
	if b == Lower {
		return r.lowerUnbounded
	}
	return r.upperUnbounded
}

// IsSingleKey returns true if the range contains exactly one key.
func (r KeyRange) IsSingleKey() bool {
	return r.LowerInclusive() && r.UpperInclusive() && bytes.Equal(r.lower, r.upper)
}

// IsEverything returns true if the range is unbounded at both ends.
func (r KeyRange) IsEverything() bool {
	return r.lowerUnbounded && r.upperUnbounded
}

// CompareLowerToUpperBound compares the lower bound of the range against b,
// where b is treated as the upper bound of another interval; inclusive says
// whether that bound is inclusive. The result is negative if the range
// starts before b, zero if both ends meet at the same inclusive key, and
// positive if the range starts after b (so the two do not overlap).
func (r KeyRange) CompareLowerToUpperBound(b []byte, inclusive bool, cmp Compare) int {
	if r.lowerUnbounded {
		return -1
	}
	return compareBound(cmp(r.lower, b), r.lowerKind == Inclusive && inclusive, 1)
}

// CompareUpperToLowerBound compares the upper bound of the range against b,
// where b is treated as the lower bound of another interval; inclusive says
// whether that bound is inclusive. The result is positive if the range ends
// after b, zero if both ends meet at the same inclusive key, and negative if
// the range ends before b.
func (r KeyRange) CompareUpperToLowerBound(b []byte, inclusive bool, cmp Compare) int {
	if r.upperUnbounded {
		return 1
	}
	return compareBound(cmp(r.upper, b), r.upperKind == Inclusive && inclusive, -1)
}

// compareBound resolves a comparison between two bounds given the raw key
// comparison c. When the keys are equal the bounds only touch if both are
// inclusive; otherwise the result is tie.
func compareBound(c int, bothInclusive bool, tie int) int {
	switch {
	case c > 0:
		return 1
	case c < 0:
		return -1
	case bothInclusive:
		return 0
	default:
		return tie
	}
}

// Contains returns true if the value v lies within the range.
func (r KeyRange) Contains(v []byte, cmp Compare) bool {
	return r.CompareLowerToUpperBound(v, true, cmp) <= 0 &&
		r.CompareUpperToLowerBound(v, true, cmp) >= 0
}

// Equal returns true if r and o describe the same range.
func (r KeyRange) Equal(o KeyRange) bool {
	if r.lowerUnbounded != o.lowerUnbounded || r.upperUnbounded != o.upperUnbounded {
		return false
	}
	if !r.lowerUnbounded && (r.lowerKind != o.lowerKind || !bytes.Equal(r.lower, o.lower)) {
		return false
	}
	if !r.upperUnbounded && (r.upperKind != o.upperKind || !bytes.Equal(r.upper, o.upper)) {
		return false
	}
	return true
}

// FormatKey returns a printable form of an encoded value.
type FormatKey func(key []byte) string

// DefaultFormatter prints printable ASCII values verbatim and everything
// else in hex. The null value is printed as ''.
var DefaultFormatter FormatKey = func(key []byte) string {
	if len(key) == 0 {
		return "''"
	}
	for _, c := range key {
		if c < ' ' || c > '~' {
			return fmt.Sprintf("0x%x", key)
		}
	}
	return string(key)
}

// String implements fmt.Stringer.
func (r KeyRange) String() string {
	return r.Format(DefaultFormatter)
}

// Format converts the range to a string of the form "[a - b)", using the
// given key formatter. Unbounded ends are printed as "*"; a single key is
// printed on its own.
func (r KeyRange) Format(fmtKey FormatKey) string {
	if r.IsSingleKey() {
		return fmtKey(r.lower)
	}
	open, close := '(', ')'
	lo, hi := "*", "*"
	if !r.lowerUnbounded {
		lo = fmtKey(r.lower)
		if r.lowerKind == Inclusive {
			open = '['
		}
	}
	if !r.upperUnbounded {
		hi = fmtKey(r.upper)
		if r.upperKind == Inclusive {
			close = ']'
		}
	}
	return fmt.Sprintf("%c%s - %s%c", open, lo, hi, close)
}

// SafeFormat implements redact.SafeFormatter. Keys are user data and are
// printed as redactable values.
func (r KeyRange) SafeFormat(w redact.SafePrinter, _ rune) {
	if r.IsSingleKey() {
		w.Print(DefaultFormatter(r.lower))
		return
	}
	open, close := redact.SafeRune('('), redact.SafeRune(')')
	if r.LowerInclusive() {
		open = '['
	}
	if r.UpperInclusive() {
		close = ']'
	}
	w.SafeRune(open)
	if r.lowerUnbounded {
		w.SafeString("*")
	} else {
		w.Print(DefaultFormatter(r.lower))
	}
	w.SafeString(" - ")
	if r.upperUnbounded {
		w.SafeString("*")
	} else {
		w.Print(DefaultFormatter(r.upper))
	}
	w.SafeRune(close)
}

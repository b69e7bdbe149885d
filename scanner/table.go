// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package scanner stores versioned rows in column families on top of a
// pebble database and scans them under the control of a scanfilter.Filter,
// turning the filter's seek hints into iterator seeks.
package scanner

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
)

// Table is a set of column families stored in a pebble database. Each cell
// is addressed by its family, its row key and a timestamp.
//
// A Table is safe for concurrent use.
type Table struct {
	db       *pebble.DB
	opts     Options
	families map[string]byte
}

// Open opens or creates the table stored in dirname.
func Open(dirname string, opts Options) (*Table, error) {
	opts.EnsureDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	db, err := pebble.Open(dirname, &pebble.Options{FS: opts.FS})
	if err != nil {
		return nil, errors.Wrapf(err, "scanner: opening %q", dirname)
	}
	t := &Table{
		db:       db,
		opts:     opts,
		families: make(map[string]byte, len(opts.Families)),
	}
	for i, name := range opts.Families {
		t.families[name] = byte(i)
	}
	return t, nil
}

// Close closes the underlying database.
func (t *Table) Close() error {
	return t.db.Close()
}

// Families returns the names of the table's column families.
func (t *Table) Families() []string {
	return t.opts.Families
}

func (t *Table) familyID(family string) (byte, error) {
	id, ok := t.families[family]
	if !ok {
		return 0, errors.Errorf("scanner: unknown column family %q", family)
	}
	return id, nil
}

// Put writes a single cell and syncs it.
func (t *Table) Put(family string, row []byte, ts uint64, value []byte) error {
	b := t.NewBatch()
	defer b.Close()
	if err := b.Put(family, row, ts, value); err != nil {
		return err
	}
	return t.Apply(b)
}

// Batch accumulates cells to be written atomically by Table.Apply.
type Batch struct {
	t   *Table
	b   *pebble.Batch
	buf []byte
}

// NewBatch returns an empty batch.
func (t *Table) NewBatch() *Batch {
	return &Batch{t: t, b: t.db.NewBatch()}
}

// Put adds a cell to the batch. A later cell with the same family, row and
// timestamp replaces an earlier one.
func (b *Batch) Put(family string, row []byte, ts uint64, value []byte) error {
	id, err := b.t.familyID(family)
	if err != nil {
		return err
	}
	b.buf = makeCellKey(b.buf[:0], id, row, ts)
	return b.b.Set(b.buf, value, nil)
}

// Count returns the number of cells in the batch.
func (b *Batch) Count() uint32 {
	return b.b.Count()
}

// Close releases the batch. It must not be used afterwards.
func (b *Batch) Close() error {
	return b.b.Close()
}

// Apply commits the batch and syncs it.
func (t *Table) Apply(b *Batch) error {
	if b.t != t {
		return errors.AssertionFailedf("scanner: batch applied to a different table")
	}
	return errors.Wrap(t.db.Apply(b.b, pebble.Sync), "scanner: applying batch")
}

// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanner

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/scanfilter"
)

// maxFamilies is the number of column families a table can hold; family
// IDs are stored in a single byte.
const maxFamilies = 256

// Options holds the parameters of a Table. The zero value is usable once a
// family is named; EnsureDefaults fills in the rest.
type Options struct {
	// FS is the filesystem the pebble store lives on. Defaults to vfs.Default.
	FS vfs.FS

	// Families lists the column families of the table, in the order in which
	// cells of a row are presented to filters. At least one family is
	// required.
	Families []string

	// Logger receives scan summaries and region pruning decisions. Defaults
	// to scanfilter.DefaultLogger.
	Logger scanfilter.Logger

	// Metrics, if set, is updated by every scan.
	Metrics *Metrics

	// RegionConcurrency bounds the number of regions ScanRegions scans at
	// once. Defaults to 4.
	RegionConcurrency int
}

// EnsureDefaults ensures that the default values for all options are set if a
// valid value was not already specified. Returns the new options.
func (o *Options) EnsureDefaults() *Options {
	if o == nil {
		o = &Options{}
	}
	if o.FS == nil {
		o.FS = vfs.Default
	}
	if o.Logger == nil {
		o.Logger = scanfilter.DefaultLogger{}
	}
	if o.RegionConcurrency <= 0 {
		o.RegionConcurrency = 4
	}
	return o
}

// Validate verifies that the options are consistent.
func (o *Options) Validate() error {
	if len(o.Families) == 0 {
		return errors.New("scanner: at least one column family is required")
	}
	if len(o.Families) > maxFamilies {
		return errors.Errorf("scanner: %d column families exceed the limit of %d", len(o.Families), maxFamilies)
	}
	seen := make(map[string]struct{}, len(o.Families))
	for _, name := range o.Families {
		if name == "" {
			return errors.New("scanner: empty column family name")
		}
		if _, ok := seen[name]; ok {
			return errors.Errorf("scanner: duplicate column family %q", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

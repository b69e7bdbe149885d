// Copyright 2026 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package scanner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the prometheus collectors updated by scans. A nil *Metrics
// records nothing.
type Metrics struct {
	CellsExamined prometheus.Counter
	CellsIncluded prometheus.Counter
	Seeks         prometheus.Counter
	PrunedRegions prometheus.Counter
	ScanLatency   prometheus.Histogram
}

// NewMetrics creates the scan collectors and, if reg is non-nil, registers
// them with it.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CellsExamined: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scanfilter",
			Name:      "cells_examined_total",
			Help:      "Cells presented to a filter.",
		}),
		CellsIncluded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scanfilter",
			Name:      "cells_included_total",
			Help:      "Cells returned by scans.",
		}),
		Seeks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scanfilter",
			Name:      "seeks_total",
			Help:      "Iterator seeks to filter hints.",
		}),
		PrunedRegions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scanfilter",
			Name:      "pruned_regions_total",
			Help:      "Regions skipped because the filter cannot match them.",
		}),
		ScanLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scanfilter",
			Name:      "scan_latency_seconds",
			Help:      "Duration of scans.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CellsExamined, m.CellsIncluded, m.Seeks, m.PrunedRegions, m.ScanLatency)
	}
	return m
}

func (m *Metrics) recordScan(s ScanStats, d time.Duration) {
	if m == nil {
		return
	}
	m.CellsExamined.Add(float64(s.CellsExamined))
	m.CellsIncluded.Add(float64(s.CellsIncluded))
	m.Seeks.Add(float64(s.Seeks))
	m.ScanLatency.Observe(d.Seconds())
}

func (m *Metrics) recordPruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.PrunedRegions.Add(float64(n))
}

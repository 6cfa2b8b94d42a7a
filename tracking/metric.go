// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package tracking

import (
	"context"
)

// Metric is a single point in a run's numeric time series.
type Metric struct {
	RunID     string
	Key       string
	Value     float64
	Timestamp int64 // unix milliseconds
}

// Metrics exposes methods to manage the metrics table.
//
// architecture: Database
type Metrics interface {
	// GetOrCreate returns the stored point matching every field of metric,
	// inserting it when missing. The returned bool reports whether an
	// insert happened. The insert fails with ErrConflict when a row with
	// the same run, key and timestamp already holds a different value or
	// when a concurrent writer got there first.
	GetOrCreate(ctx context.Context, metric *Metric) (*Metric, bool, error)
	// Latest returns the point with the greatest timestamp for the key.
	// It fails with ErrNotFound when the key has no points.
	Latest(ctx context.Context, runID, key string) (*Metric, error)
	// History returns all points logged for the key in chronological order.
	History(ctx context.Context, runID, key string) ([]Metric, error)
}

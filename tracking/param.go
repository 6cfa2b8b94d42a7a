// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package tracking

import (
	"context"
)

// Param is a write once input recorded for a run.
type Param struct {
	RunID string
	Key   string
	Value string
}

// Params exposes methods to manage the params table.
//
// architecture: Database
type Params interface {
	// GetOrCreate returns the stored param matching every field of param,
	// inserting it when missing. The returned bool reports whether an
	// insert happened. The insert fails with ErrConflict when the key is
	// already taken with a different value or when a concurrent writer got
	// there first.
	GetOrCreate(ctx context.Context, param *Param) (*Param, bool, error)
	// Get returns the stored param for the key. It fails with ErrNotFound
	// when no such param exists.
	Get(ctx context.Context, runID, key string) (*Param, error)
}

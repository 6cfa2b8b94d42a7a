// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package tracking

import (
	"context"
)

const (
	// TagParentRunID is the reserved tag key linking a run to its parent run.
	TagParentRunID = "cairn.parentRunId"
	// TagRunName is the reserved tag key carrying the run name given at creation.
	TagRunName = "cairn.runName"
)

// Tag is a free form annotation on a run. Tags have no uniqueness rules,
// repeated writes of the same key pile up as separate rows.
type Tag struct {
	RunID string
	Key   string
	Value string
}

// Tags exposes methods to manage the tags table.
//
// architecture: Database
type Tags interface {
	// Create inserts the tag.
	Create(ctx context.Context, tag *Tag) error
}

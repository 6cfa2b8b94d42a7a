// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package tracking

import "context"

// DB contains access to the different tracking repositories.
//
// architecture: Database
type DB interface {
	// Experiments is a getter for Experiments repository.
	Experiments() Experiments
	// Runs is a getter for Runs repository.
	Runs() Runs
	// Metrics is a getter for Metrics repository.
	Metrics() Metrics
	// Params is a getter for Params repository.
	Params() Params
	// Tags is a getter for Tags repository.
	Tags() Tags

	// MigrateToLatest initializes or upgrades the database schema.
	MigrateToLatest(ctx context.Context) error
	// Close closes the database.
	Close() error
}

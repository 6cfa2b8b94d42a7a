// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package trackingdb

import (
	"context"

	"github.com/cairnlabs/cairn/tracking"
)

// ensures that tags implements tracking.Tags.
var _ tracking.Tags = (*tags)(nil)

// tags is an implementation of tracking.Tags over raw sql.
type tags struct {
	db *DB
}

// Create inserts a tag for a run. Repeated keys insert additional rows.
func (repo *tags) Create(ctx context.Context, tag *tracking.Tag) (err error) {
	defer mon.Task()(&ctx)(&err)

	_, err = repo.db.ExecContext(ctx, repo.db.Rebind(`
		INSERT INTO tags ( run_id, key, value )
		VALUES ( ?, ?, ? )`),
		tag.RunID, tag.Key, tag.Value,
	)
	if err != nil {
		if repo.db.isConstraintError(err) {
			return tracking.ErrConflict.Wrap(err)
		}
		return Error.Wrap(err)
	}
	return nil
}

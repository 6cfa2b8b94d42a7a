// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package trackingdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cairnlabs/cairn/shared/dbutil/txutil"
	"github.com/cairnlabs/cairn/tracking"
)

// ensures that params implements tracking.Params.
var _ tracking.Params = (*params)(nil)

// params is an implementation of tracking.Params over raw sql.
type params struct {
	db *DB
}

// GetOrCreate returns the stored param matching every field of param,
// inserting it when missing. A row holding the same key with a different
// value, or a concurrent insert of the same key, makes the insert fail
// with ErrConflict after the transaction rolled back.
func (repo *params) GetOrCreate(ctx context.Context, param *tracking.Param) (_ *tracking.Param, created bool, err error) {
	defer mon.Task()(&ctx)(&err)

	stored := *param
	err = txutil.WithTx(ctx, repo.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		created = false

		err := tx.QueryRowContext(ctx, repo.db.Rebind(`
			SELECT run_id, key, value FROM params
			WHERE run_id = ? AND key = ? AND value = ?`),
			param.RunID, param.Key, param.Value,
		).Scan(&stored.RunID, &stored.Key, &stored.Value)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		_, err = tx.ExecContext(ctx, repo.db.Rebind(`
			INSERT INTO params ( run_id, key, value )
			VALUES ( ?, ?, ? )`),
			param.RunID, param.Key, param.Value,
		)
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if repo.db.isConstraintError(err) {
			return nil, false, tracking.ErrConflict.Wrap(err)
		}
		return nil, false, Error.Wrap(err)
	}

	return &stored, created, nil
}

// Get returns the stored param for the key.
func (repo *params) Get(ctx context.Context, runID, key string) (_ *tracking.Param, err error) {
	defer mon.Task()(&ctx)(&err)

	var param tracking.Param
	err = repo.db.QueryRowContext(ctx, repo.db.Rebind(`
		SELECT run_id, key, value FROM params
		WHERE run_id = ? AND key = ?`),
		runID, key,
	).Scan(&param.RunID, &param.Key, &param.Value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tracking.ErrNotFound.New("param %q not found for run %s", key, runID)
		}
		return nil, Error.Wrap(err)
	}
	return &param, nil
}

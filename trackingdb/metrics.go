// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package trackingdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/zeebo/errs"

	"github.com/cairnlabs/cairn/shared/dbutil/txutil"
	"github.com/cairnlabs/cairn/tracking"
)

// ensures that metrics implements tracking.Metrics.
var _ tracking.Metrics = (*metrics)(nil)

// metrics is an implementation of tracking.Metrics over raw sql.
type metrics struct {
	db *DB
}

// GetOrCreate returns the stored point matching every field of metric,
// inserting it when missing. A row holding the same run, key and timestamp
// with a different value, or a concurrent insert of the same point, makes
// the insert fail with ErrConflict after the transaction rolled back.
func (repo *metrics) GetOrCreate(ctx context.Context, metric *tracking.Metric) (_ *tracking.Metric, created bool, err error) {
	defer mon.Task()(&ctx)(&err)

	stored := *metric
	err = txutil.WithTx(ctx, repo.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		created = false

		err := tx.QueryRowContext(ctx, repo.db.Rebind(`
			SELECT run_id, key, value, timestamp FROM metrics
			WHERE run_id = ? AND key = ? AND value = ? AND timestamp = ?`),
			metric.RunID, metric.Key, metric.Value, metric.Timestamp,
		).Scan(&stored.RunID, &stored.Key, &stored.Value, &stored.Timestamp)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		_, err = tx.ExecContext(ctx, repo.db.Rebind(`
			INSERT INTO metrics ( run_id, key, value, timestamp )
			VALUES ( ?, ?, ?, ? )`),
			metric.RunID, metric.Key, metric.Value, metric.Timestamp,
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

// Latest returns the point with the greatest timestamp for the key.
func (repo *metrics) Latest(ctx context.Context, runID, key string) (_ *tracking.Metric, err error) {
	defer mon.Task()(&ctx)(&err)

	var metric tracking.Metric
	err = repo.db.QueryRowContext(ctx, repo.db.Rebind(`
		SELECT run_id, key, value, timestamp FROM metrics
		WHERE run_id = ? AND key = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT 1`),
		runID, key,
	).Scan(&metric.RunID, &metric.Key, &metric.Value, &metric.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tracking.ErrNotFound.New("metric %q not found for run %s", key, runID)
		}
		return nil, Error.Wrap(err)
	}
	return &metric, nil
}

// History returns all points logged for the key in chronological order.
func (repo *metrics) History(ctx context.Context, runID, key string) (_ []tracking.Metric, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.QueryContext(ctx, repo.db.Rebind(`
		SELECT run_id, key, value, timestamp FROM metrics
		WHERE run_id = ? AND key = ?
		ORDER BY timestamp, id`),
		runID, key,
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var history []tracking.Metric
	for rows.Next() {
		var metric tracking.Metric
		err := rows.Scan(&metric.RunID, &metric.Key, &metric.Value, &metric.Timestamp)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		history = append(history, metric)
	}
	return history, Error.Wrap(rows.Err())
}

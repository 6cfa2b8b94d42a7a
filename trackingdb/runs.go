// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package trackingdb

import (
	"context"
	"database/sql"

	"github.com/zeebo/errs"

	"github.com/cairnlabs/cairn/shared/dbutil/txutil"
	"github.com/cairnlabs/cairn/tracking"
)

// ensures that runs implements tracking.Runs.
var _ tracking.Runs = (*runs)(nil)

// runs is an implementation of tracking.Runs over raw sql.
type runs struct {
	db *DB
}

// scanner is the part of sql.Row and sql.Rows used for reading a row.
type scanner interface {
	Scan(dest ...interface{}) error
}

const runColumns = `run_id, experiment_id, name, user_id,
	source_type, source_name, entry_point_name, source_version,
	artifact_uri, status, start_time, end_time, lifecycle_stage`

// Create inserts the run and its tags as a single transaction and returns
// the stored view.
func (repo *runs) Create(ctx context.Context, run *tracking.Run) (_ *tracking.Run, err error) {
	defer mon.Task()(&ctx)(&err)

	err = txutil.WithTx(ctx, repo.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, repo.db.Rebind(`
			INSERT INTO runs (
				run_id, experiment_id, name, user_id,
				source_type, source_name, entry_point_name, source_version,
				artifact_uri, status, start_time, end_time, lifecycle_stage
			) VALUES ( ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ? )`),
			run.RunID, run.ExperimentID, run.Name, run.UserID,
			run.SourceType.String(), run.SourceName, run.EntryPointName, run.SourceVersion,
			run.ArtifactURI, run.Status.String(), run.StartTime, endTimeValue(run.EndTime), string(run.Stage),
		)
		if err != nil {
			return err
		}

		for _, tag := range run.Tags {
			_, err := tx.ExecContext(ctx, repo.db.Rebind(`
				INSERT INTO tags ( run_id, key, value ) VALUES ( ?, ?, ? )`),
				run.RunID, tag.Key, tag.Value,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if repo.db.isConstraintError(err) {
			return nil, tracking.ErrConflict.Wrap(err)
		}
		return nil, Error.Wrap(err)
	}

	return repo.Get(ctx, run.RunID)
}

// Get returns the full detached view of the run.
func (repo *runs) Get(ctx context.Context, runID string) (_ *tracking.Run, err error) {
	defer mon.Task()(&ctx)(&err)

	rows, err := repo.db.QueryContext(ctx, repo.db.Rebind(`
		SELECT `+runColumns+` FROM runs WHERE run_id = ?`),
		runID,
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	infos, err := scanRunInfos(rows)
	if err != nil {
		return nil, err
	}
	switch {
	case len(infos) == 0:
		return nil, tracking.ErrNotFound.New("run %s not found", runID)
	case len(infos) > 1:
		return nil, tracking.ErrInvalidState.New("expected 1 run with id %s, found %d", runID, len(infos))
	}

	return repo.load(ctx, infos[0])
}

// List returns the full detached views of the experiment's runs in the
// given lifecycle stages.
func (repo *runs) List(ctx context.Context, experimentID int64, stages []tracking.LifecycleStage) (_ []*tracking.Run, err error) {
	defer mon.Task()(&ctx)(&err)

	if len(stages) == 0 {
		return nil, nil
	}

	query := `SELECT ` + runColumns + ` FROM runs
		WHERE experiment_id = ? AND lifecycle_stage IN (` + placeholders(len(stages)) + `)
		ORDER BY start_time, run_id`
	args := []interface{}{experimentID}
	for _, stage := range stages {
		args = append(args, string(stage))
	}

	rows, err := repo.db.QueryContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	infos, err := scanRunInfos(rows)
	if err != nil {
		return nil, err
	}

	list := make([]*tracking.Run, 0, len(infos))
	for _, info := range infos {
		run, err := repo.load(ctx, info)
		if err != nil {
			return nil, err
		}
		list = append(list, run)
	}
	return list, nil
}

// Update persists status, end time and lifecycle stage by run id.
func (repo *runs) Update(ctx context.Context, info *tracking.RunInfo) (err error) {
	defer mon.Task()(&ctx)(&err)

	result, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE runs
		SET status = ?, end_time = ?, lifecycle_stage = ?
		WHERE run_id = ?`),
		info.Status.String(), endTimeValue(info.EndTime), string(info.Stage), info.RunID,
	)
	if err != nil {
		return Error.Wrap(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Error.Wrap(err)
	}
	if affected == 0 {
		return tracking.ErrNotFound.New("run %s not found", info.RunID)
	}
	return nil
}

// load attaches the run's logged data to the info.
func (repo *runs) load(ctx context.Context, info tracking.RunInfo) (*tracking.Run, error) {
	run := &tracking.Run{RunInfo: info}

	var err error
	run.Metrics, err = repo.runMetrics(ctx, info.RunID)
	if err != nil {
		return nil, err
	}
	run.Params, err = repo.runParams(ctx, info.RunID)
	if err != nil {
		return nil, err
	}
	run.Tags, err = repo.runTags(ctx, info.RunID)
	if err != nil {
		return nil, err
	}
	return run, nil
}

// runMetrics returns every metric row of the run in key then time order.
func (repo *runs) runMetrics(ctx context.Context, runID string) (_ []tracking.Metric, err error) {
	rows, err := repo.db.QueryContext(ctx, repo.db.Rebind(`
		SELECT run_id, key, value, timestamp FROM metrics
		WHERE run_id = ?
		ORDER BY key, timestamp, id`),
		runID,
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var list []tracking.Metric
	for rows.Next() {
		var metric tracking.Metric
		err := rows.Scan(&metric.RunID, &metric.Key, &metric.Value, &metric.Timestamp)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		list = append(list, metric)
	}
	return list, Error.Wrap(rows.Err())
}

// runParams returns every param of the run in key order.
func (repo *runs) runParams(ctx context.Context, runID string) (_ []tracking.Param, err error) {
	rows, err := repo.db.QueryContext(ctx, repo.db.Rebind(`
		SELECT run_id, key, value FROM params
		WHERE run_id = ?
		ORDER BY key`),
		runID,
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var list []tracking.Param
	for rows.Next() {
		var param tracking.Param
		err := rows.Scan(&param.RunID, &param.Key, &param.Value)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		list = append(list, param)
	}
	return list, Error.Wrap(rows.Err())
}

// runTags returns every tag of the run in insertion order.
func (repo *runs) runTags(ctx context.Context, runID string) (_ []tracking.Tag, err error) {
	rows, err := repo.db.QueryContext(ctx, repo.db.Rebind(`
		SELECT run_id, key, value FROM tags
		WHERE run_id = ?
		ORDER BY id`),
		runID,
	)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var list []tracking.Tag
	for rows.Next() {
		var tag tracking.Tag
		err := rows.Scan(&tag.RunID, &tag.Key, &tag.Value)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		list = append(list, tag)
	}
	return list, Error.Wrap(rows.Err())
}

// scanRunInfos drains rows into detached run infos.
func scanRunInfos(rows *sql.Rows) (_ []tracking.RunInfo, err error) {
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var infos []tracking.RunInfo
	for rows.Next() {
		info, err := scanRunInfo(rows)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		infos = append(infos, info)
	}
	return infos, Error.Wrap(rows.Err())
}

// scanRunInfo reads a single run row.
func scanRunInfo(row scanner) (info tracking.RunInfo, err error) {
	var sourceType, status, stage string
	var endTime sql.NullInt64

	err = row.Scan(
		&info.RunID, &info.ExperimentID, &info.Name, &info.UserID,
		&sourceType, &info.SourceName, &info.EntryPointName, &info.SourceVersion,
		&info.ArtifactURI, &status, &info.StartTime, &endTime, &stage,
	)
	if err != nil {
		return tracking.RunInfo{}, err
	}

	info.SourceType, err = tracking.SourceTypeFromString(sourceType)
	if err != nil {
		return tracking.RunInfo{}, err
	}
	info.Status, err = tracking.RunStatusFromString(status)
	if err != nil {
		return tracking.RunInfo{}, err
	}
	info.EndTime = endTime.Int64
	info.Stage = tracking.LifecycleStage(stage)
	return info, nil
}

// endTimeValue maps the zero end time to a database null.
func endTimeValue(endTime int64) sql.NullInt64 {
	return sql.NullInt64{Int64: endTime, Valid: endTime != 0}
}

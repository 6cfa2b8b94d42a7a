// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package trackingdb

import (
	"context"
	"database/sql"
	"strings"

	"github.com/zeebo/errs"

	"github.com/cairnlabs/cairn/shared/dbutil"
	"github.com/cairnlabs/cairn/tracking"
)

// ensures that experiments implements tracking.Experiments.
var _ tracking.Experiments = (*experiments)(nil)

// experiments is an implementation of tracking.Experiments over raw sql.
type experiments struct {
	db *DB
}

// Create inserts a new experiment and returns it with the assigned id.
func (repo *experiments) Create(ctx context.Context, experiment *tracking.Experiment) (_ *tracking.Experiment, err error) {
	defer mon.Task()(&ctx)(&err)

	created := *experiment
	if created.Stage == "" {
		created.Stage = tracking.StageActive
	}
	artifactLocation := sql.NullString{String: created.ArtifactLocation, Valid: created.ArtifactLocation != ""}

	switch repo.db.impl {
	case dbutil.Postgres, dbutil.Cockroach:
		err = repo.db.QueryRowContext(ctx, repo.db.Rebind(`
			INSERT INTO experiments ( name, artifact_location, lifecycle_stage )
			VALUES ( ?, ?, ? )
			RETURNING id`),
			created.Name, artifactLocation, string(created.Stage),
		).Scan(&created.ID)
	default:
		var result sql.Result
		result, err = repo.db.ExecContext(ctx, repo.db.Rebind(`
			INSERT INTO experiments ( name, artifact_location, lifecycle_stage )
			VALUES ( ?, ?, ? )`),
			created.Name, artifactLocation, string(created.Stage),
		)
		if err == nil {
			created.ID, err = result.LastInsertId()
		}
	}
	if err != nil {
		if repo.db.isConstraintError(err) {
			return nil, tracking.ErrConflict.Wrap(err)
		}
		return nil, Error.Wrap(err)
	}

	return &created, nil
}

// List returns the experiments matching the filter, ordered by id.
func (repo *experiments) List(ctx context.Context, filter tracking.ExperimentFilter) (_ []tracking.Experiment, err error) {
	defer mon.Task()(&ctx)(&err)

	query := `SELECT id, name, artifact_location, lifecycle_stage FROM experiments`
	var conds []string
	var args []interface{}

	if len(filter.IDs) > 0 {
		conds = append(conds, `id IN (`+placeholders(len(filter.IDs))+`)`)
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}
	if len(filter.Stages) > 0 {
		conds = append(conds, `lifecycle_stage IN (`+placeholders(len(filter.Stages))+`)`)
		for _, stage := range filter.Stages {
			args = append(args, string(stage))
		}
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY id`

	rows, err := repo.db.QueryContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	defer func() { err = errs.Combine(err, rows.Close()) }()

	var list []tracking.Experiment
	for rows.Next() {
		var experiment tracking.Experiment
		var artifactLocation sql.NullString
		var stage string
		err := rows.Scan(&experiment.ID, &experiment.Name, &artifactLocation, &stage)
		if err != nil {
			return nil, Error.Wrap(err)
		}
		experiment.ArtifactLocation = artifactLocation.String
		experiment.Stage = tracking.LifecycleStage(stage)
		list = append(list, experiment)
	}
	return list, Error.Wrap(rows.Err())
}

// Update persists name, artifact location and lifecycle stage by id.
func (repo *experiments) Update(ctx context.Context, experiment *tracking.Experiment) (err error) {
	defer mon.Task()(&ctx)(&err)

	artifactLocation := sql.NullString{String: experiment.ArtifactLocation, Valid: experiment.ArtifactLocation != ""}
	result, err := repo.db.ExecContext(ctx, repo.db.Rebind(`
		UPDATE experiments
		SET name = ?, artifact_location = ?, lifecycle_stage = ?
		WHERE id = ?`),
		experiment.Name, artifactLocation, string(experiment.Stage), experiment.ID,
	)
	if err != nil {
		if repo.db.isConstraintError(err) {
			return tracking.ErrConflict.Wrap(err)
		}
		return Error.Wrap(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return Error.Wrap(err)
	}
	if affected == 0 {
		return tracking.ErrNotFound.New("no experiment with id %d", experiment.ID)
	}
	return nil
}

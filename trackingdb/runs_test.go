// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package trackingdb_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cairnlabs/cairn/private/testcontext"
	"github.com/cairnlabs/cairn/tracking"
	"github.com/cairnlabs/cairn/trackingdb/trackingdbtest"
)

func TestRunsCreateGet(t *testing.T) {
	trackingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db tracking.DB) {
		experiment := createTestExperiment(ctx, t, db, "alpha")

		runID := newRunID()
		created, err := db.Runs().Create(ctx, &tracking.Run{
			RunInfo: tracking.RunInfo{
				RunID:          runID,
				ExperimentID:   experiment.ID,
				Name:           "first",
				UserID:         "ada",
				SourceType:     tracking.SourceTypeProject,
				SourceName:     "train.py",
				EntryPointName: "main",
				SourceVersion:  "3aa9c59",
				ArtifactURI:    "s3://artifacts/alpha/" + runID,
				Status:         tracking.RunStatusRunning,
				StartTime:      1000,
				Stage:          tracking.StageActive,
			},
			Tags: []tracking.Tag{
				{RunID: runID, Key: "team", Value: "forecasting"},
				{RunID: runID, Key: tracking.TagRunName, Value: "first"},
			},
		})
		require.NoError(t, err)
		require.Equal(t, runID, created.RunID)
		require.Len(t, created.Tags, 2)

		got, err := db.Runs().Get(ctx, runID)
		require.NoError(t, err)
		require.Equal(t, created.RunInfo, got.RunInfo)
		require.Equal(t, created.Tags, got.Tags)
		require.Empty(t, got.Metrics)
		require.Empty(t, got.Params)
		require.Zero(t, got.EndTime)

		_, err = db.Runs().Get(ctx, newRunID())
		require.True(t, tracking.ErrNotFound.Has(err), err)
	})
}

func TestRunsCreateDuplicate(t *testing.T) {
	trackingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db tracking.DB) {
		experiment := createTestExperiment(ctx, t, db, "alpha")
		run := createTestRun(ctx, t, db, experiment.ID, 1000)

		// the whole insert rolls back, the stray tag must not stick
		_, err := db.Runs().Create(ctx, &tracking.Run{
			RunInfo: run.RunInfo,
			Tags: []tracking.Tag{
				{RunID: run.RunID, Key: "stray", Value: "tag"},
			},
		})
		require.True(t, tracking.ErrConflict.Has(err), err)

		got, err := db.Runs().Get(ctx, run.RunID)
		require.NoError(t, err)
		require.Equal(t, run.Tags, got.Tags)
	})
}

func TestRunsList(t *testing.T) {
	trackingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db tracking.DB) {
		experiment := createTestExperiment(ctx, t, db, "alpha")
		other := createTestExperiment(ctx, t, db, "beta")

		first := createTestRun(ctx, t, db, experiment.ID, 1000)
		second := createTestRun(ctx, t, db, experiment.ID, 2000)
		third := createTestRun(ctx, t, db, experiment.ID, 3000)
		createTestRun(ctx, t, db, other.ID, 1500)

		second.Status = tracking.RunStatusKilled
		second.Stage = tracking.StageDeleted
		require.NoError(t, db.Runs().Update(ctx, &second.RunInfo))

		active, err := db.Runs().List(ctx, experiment.ID, tracking.ViewActiveOnly.Stages())
		require.NoError(t, err)
		require.Len(t, active, 2)
		require.Equal(t, first.RunID, active[0].RunID)
		require.Equal(t, third.RunID, active[1].RunID)

		deleted, err := db.Runs().List(ctx, experiment.ID, tracking.ViewDeletedOnly.Stages())
		require.NoError(t, err)
		require.Len(t, deleted, 1)
		require.Equal(t, second.RunID, deleted[0].RunID)
		require.Equal(t, tracking.RunStatusKilled, deleted[0].Status)
		require.Equal(t, tracking.StageDeleted, deleted[0].Stage)

		all, err := db.Runs().List(ctx, experiment.ID, tracking.ViewAll.Stages())
		require.NoError(t, err)
		require.Len(t, all, 3)

		none, err := db.Runs().List(ctx, experiment.ID, nil)
		require.NoError(t, err)
		require.Empty(t, none)
	})
}

func TestRunsUpdate(t *testing.T) {
	trackingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db tracking.DB) {
		experiment := createTestExperiment(ctx, t, db, "alpha")
		run := createTestRun(ctx, t, db, experiment.ID, 1000)

		run.Status = tracking.RunStatusFinished
		run.EndTime = 5000
		require.NoError(t, db.Runs().Update(ctx, &run.RunInfo))

		got, err := db.Runs().Get(ctx, run.RunID)
		require.NoError(t, err)
		require.Equal(t, tracking.RunStatusFinished, got.Status)
		require.Equal(t, int64(5000), got.EndTime)
		require.Equal(t, run.StartTime, got.StartTime)
		require.Equal(t, run.Name, got.Name)

		info := run.RunInfo
		info.RunID = newRunID()
		err = db.Runs().Update(ctx, &info)
		require.True(t, tracking.ErrNotFound.Has(err), err)
	})
}

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

func TestMetricsGetOrCreate(t *testing.T) {
	trackingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db tracking.DB) {
		experiment := createTestExperiment(ctx, t, db, "alpha")
		run := createTestRun(ctx, t, db, experiment.ID, 1000)
		metrics := db.Metrics()

		point := &tracking.Metric{RunID: run.RunID, Key: "loss", Value: 0.5, Timestamp: 100}

		stored, created, err := metrics.GetOrCreate(ctx, point)
		require.NoError(t, err)
		require.True(t, created)
		require.Equal(t, point, stored)

		// the identical point reads back instead of inserting again
		stored, created, err = metrics.GetOrCreate(ctx, point)
		require.NoError(t, err)
		require.False(t, created)
		require.Equal(t, point, stored)

		history, err := metrics.History(ctx, run.RunID, "loss")
		require.NoError(t, err)
		require.Len(t, history, 1)

		// same run, key and timestamp with another value hits the constraint
		_, _, err = metrics.GetOrCreate(ctx, &tracking.Metric{
			RunID: run.RunID, Key: "loss", Value: 0.75, Timestamp: 100,
		})
		require.True(t, tracking.ErrConflict.Has(err), err)

		history, err = metrics.History(ctx, run.RunID, "loss")
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, 0.5, history[0].Value)
	})
}

func TestMetricsLatestHistory(t *testing.T) {
	trackingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db tracking.DB) {
		experiment := createTestExperiment(ctx, t, db, "alpha")
		run := createTestRun(ctx, t, db, experiment.ID, 1000)
		metrics := db.Metrics()

		// log out of order, ordering must come from the query
		for _, point := range []tracking.Metric{
			{RunID: run.RunID, Key: "loss", Value: 0.3, Timestamp: 300},
			{RunID: run.RunID, Key: "loss", Value: 0.9, Timestamp: 100},
			{RunID: run.RunID, Key: "loss", Value: 0.6, Timestamp: 200},
			{RunID: run.RunID, Key: "accuracy", Value: 0.1, Timestamp: 400},
		} {
			point := point
			_, created, err := metrics.GetOrCreate(ctx, &point)
			require.NoError(t, err)
			require.True(t, created)
		}

		latest, err := metrics.Latest(ctx, run.RunID, "loss")
		require.NoError(t, err)
		require.Equal(t, int64(300), latest.Timestamp)
		require.Equal(t, 0.3, latest.Value)

		history, err := metrics.History(ctx, run.RunID, "loss")
		require.NoError(t, err)
		require.Len(t, history, 3)
		require.Equal(t, int64(100), history[0].Timestamp)
		require.Equal(t, int64(200), history[1].Timestamp)
		require.Equal(t, int64(300), history[2].Timestamp)

		_, err = metrics.Latest(ctx, run.RunID, "missing")
		require.True(t, tracking.ErrNotFound.Has(err), err)

		empty, err := metrics.History(ctx, run.RunID, "missing")
		require.NoError(t, err)
		require.Empty(t, empty)
	})
}

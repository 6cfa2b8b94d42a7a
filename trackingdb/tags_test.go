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

func TestTagsCreate(t *testing.T) {
	trackingdbtest.Run(t, func(ctx *testcontext.Context, t *testing.T, db tracking.DB) {
		experiment := createTestExperiment(ctx, t, db, "alpha")
		run := createTestRun(ctx, t, db, experiment.ID, 1000)
		tags := db.Tags()

		err := tags.Create(ctx, &tracking.Tag{RunID: run.RunID, Key: "team", Value: "forecasting"})
		require.NoError(t, err)

		// repeated keys pile up as separate rows in insertion order
		err = tags.Create(ctx, &tracking.Tag{RunID: run.RunID, Key: "team", Value: "forecasting"})
		require.NoError(t, err)
		err = tags.Create(ctx, &tracking.Tag{RunID: run.RunID, Key: "team", Value: "research"})
		require.NoError(t, err)

		got, err := db.Runs().Get(ctx, run.RunID)
		require.NoError(t, err)
		require.Equal(t, []tracking.Tag{
			{RunID: run.RunID, Key: tracking.TagRunName, Value: "seeded"},
			{RunID: run.RunID, Key: "team", Value: "forecasting"},
			{RunID: run.RunID, Key: "team", Value: "forecasting"},
			{RunID: run.RunID, Key: "team", Value: "research"},
		}, got.Tags)
	})
}

// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package trackingdb_test

import (
	"encoding/hex"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/cairnlabs/cairn/private/testcontext"
	"github.com/cairnlabs/cairn/tracking"
)

func newRunID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

func createTestExperiment(ctx *testcontext.Context, t *testing.T, db tracking.DB, name string) *tracking.Experiment {
	experiment, err := db.Experiments().Create(ctx, &tracking.Experiment{
		Name:             name,
		ArtifactLocation: "s3://artifacts/" + name,
	})
	require.NoError(t, err)
	return experiment
}

func createTestRun(ctx *testcontext.Context, t *testing.T, db tracking.DB, experimentID, startTime int64) *tracking.Run {
	runID := newRunID()
	run, err := db.Runs().Create(ctx, &tracking.Run{
		RunInfo: tracking.RunInfo{
			RunID:        runID,
			ExperimentID: experimentID,
			Name:         "seeded",
			UserID:       "tester",
			SourceType:   tracking.SourceTypeLocal,
			SourceName:   "train.py",
			Status:       tracking.RunStatusRunning,
			StartTime:    startTime,
			Stage:        tracking.StageActive,
		},
		Tags: []tracking.Tag{
			{RunID: runID, Key: tracking.TagRunName, Value: "seeded"},
		},
	})
	require.NoError(t, err)
	return run
}

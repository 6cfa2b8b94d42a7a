// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package tracking

import (
	"context"
)

// LifecycleStage is the archival state of an experiment or run.
type LifecycleStage string

const (
	// StageActive marks entities that are live.
	StageActive LifecycleStage = "active"
	// StageDeleted marks entities that are soft deleted.
	StageDeleted LifecycleStage = "deleted"
)

// ViewType selects which lifecycle stages reads take into account.
type ViewType int

const (
	// ViewActiveOnly matches only active entities.
	ViewActiveOnly ViewType = 1
	// ViewDeletedOnly matches only soft deleted entities.
	ViewDeletedOnly ViewType = 2
	// ViewAll matches entities regardless of lifecycle stage.
	ViewAll ViewType = 3
)

// Stages returns the lifecycle stages the view takes into account.
func (v ViewType) Stages() []LifecycleStage {
	switch v {
	case ViewActiveOnly:
		return []LifecycleStage{StageActive}
	case ViewDeletedOnly:
		return []LifecycleStage{StageDeleted}
	case ViewAll:
		return []LifecycleStage{StageActive, StageDeleted}
	default:
		return nil
	}
}

// Experiment is a named collection of runs.
type Experiment struct {
	ID               int64
	Name             string
	ArtifactLocation string
	Stage            LifecycleStage
}

// ExperimentFilter restricts which experiments a listing returns.
// Empty IDs match every experiment.
type ExperimentFilter struct {
	IDs    []int64
	Stages []LifecycleStage
}

// Experiments exposes methods to manage the experiments table.
//
// architecture: Database
type Experiments interface {
	// Create inserts a new experiment and returns it with the assigned id.
	// It fails with ErrConflict when the name is already taken, regardless
	// of the lifecycle stage of the holder.
	Create(ctx context.Context, experiment *Experiment) (*Experiment, error)
	// List returns detached snapshots of the experiments matching the
	// filter, ordered by id.
	List(ctx context.Context, filter ExperimentFilter) ([]Experiment, error)
	// Update persists name, artifact location and lifecycle stage by id.
	// It fails with ErrConflict when the new name is already taken.
	Update(ctx context.Context, experiment *Experiment) error
}

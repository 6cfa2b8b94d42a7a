// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package tracking

import (
	"context"
)

// RunStatus is the execution state of a run.
type RunStatus int

const (
	// RunStatusRunning means the run is executing.
	RunStatusRunning RunStatus = 1
	// RunStatusScheduled means the run is waiting to execute.
	RunStatusScheduled RunStatus = 2
	// RunStatusFinished means the run completed successfully.
	RunStatusFinished RunStatus = 3
	// RunStatusFailed means the run completed with a failure.
	RunStatusFailed RunStatus = 4
	// RunStatusKilled means the run was terminated from the outside.
	RunStatusKilled RunStatus = 5
)

// String returns the token the status is stored as.
func (s RunStatus) String() string {
	switch s {
	case RunStatusRunning:
		return "RUNNING"
	case RunStatusScheduled:
		return "SCHEDULED"
	case RunStatusFinished:
		return "FINISHED"
	case RunStatusFailed:
		return "FAILED"
	case RunStatusKilled:
		return "KILLED"
	default:
		return ""
	}
}

// RunStatusFromString parses a stored status token.
func RunStatusFromString(s string) (RunStatus, error) {
	switch s {
	case "RUNNING":
		return RunStatusRunning, nil
	case "SCHEDULED":
		return RunStatusScheduled, nil
	case "FINISHED":
		return RunStatusFinished, nil
	case "FAILED":
		return RunStatusFailed, nil
	case "KILLED":
		return RunStatusKilled, nil
	default:
		return 0, Error.New("invalid run status %q", s)
	}
}

// SourceType describes what kind of source launched a run.
type SourceType int

const (
	// SourceTypeUnknown is the source type of runs with no declared origin.
	SourceTypeUnknown SourceType = iota
	// SourceTypeNotebook marks runs launched from an interactive notebook.
	SourceTypeNotebook
	// SourceTypeJob marks runs launched by a scheduled job.
	SourceTypeJob
	// SourceTypeProject marks runs launched from a packaged project.
	SourceTypeProject
	// SourceTypeLocal marks runs launched from local code.
	SourceTypeLocal
)

// String returns the token the source type is stored as.
func (s SourceType) String() string {
	switch s {
	case SourceTypeNotebook:
		return "NOTEBOOK"
	case SourceTypeJob:
		return "JOB"
	case SourceTypeProject:
		return "PROJECT"
	case SourceTypeLocal:
		return "LOCAL"
	default:
		return "UNKNOWN"
	}
}

// SourceTypeFromString parses a stored source type token.
func SourceTypeFromString(s string) (SourceType, error) {
	switch s {
	case "NOTEBOOK":
		return SourceTypeNotebook, nil
	case "JOB":
		return SourceTypeJob, nil
	case "PROJECT":
		return SourceTypeProject, nil
	case "LOCAL":
		return SourceTypeLocal, nil
	case "UNKNOWN":
		return SourceTypeUnknown, nil
	default:
		return 0, Error.New("invalid source type %q", s)
	}
}

// RunInfo holds the descriptive fields of a run without its logged data.
type RunInfo struct {
	RunID          string
	ExperimentID   int64
	Name           string
	UserID         string
	SourceType     SourceType
	SourceName     string
	EntryPointName string
	SourceVersion  string
	ArtifactURI    string
	Status         RunStatus
	StartTime      int64 // unix milliseconds
	EndTime        int64 // unix milliseconds, zero until a terminal status is recorded
	Stage          LifecycleStage
}

// Run is a run together with everything logged against it.
type Run struct {
	RunInfo

	Metrics []Metric
	Params  []Param
	Tags    []Tag
}

// CreateRun struct holds info for run creation.
type CreateRun struct {
	ExperimentID   int64
	Name           string
	UserID         string
	SourceType     SourceType
	SourceName     string
	EntryPointName string
	SourceVersion  string
	StartTime      int64
	Tags           []Tag
	ParentRunID    string
}

// Runs exposes methods to manage the runs table.
//
// architecture: Database
type Runs interface {
	// Create inserts the run and its tags as a single unit and returns the
	// stored view.
	Create(ctx context.Context, run *Run) (*Run, error)
	// Get returns the full detached view of a run. It fails with
	// ErrNotFound when the run does not exist and with ErrInvalidState when
	// more than one row shares the id.
	Get(ctx context.Context, runID string) (*Run, error)
	// List returns full detached views of the experiment's runs in the
	// given lifecycle stages.
	List(ctx context.Context, experimentID int64, stages []LifecycleStage) ([]*Run, error)
	// Update persists status, end time and lifecycle stage by run id.
	Update(ctx context.Context, info *RunInfo) error
}

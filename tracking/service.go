// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package tracking

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
)

// Service is handling experiment tracking related logic.
//
// architecture: Service
type Service struct {
	log       *zap.Logger
	store     DB
	evaluator Evaluator
}

// NewService returns new instance of Service.
func NewService(log *zap.Logger, store DB, evaluator Evaluator) (*Service, error) {
	if log == nil {
		return nil, errs.New("log can't be nil")
	}
	if store == nil {
		return nil, errs.New("store can't be nil")
	}
	if evaluator == nil {
		return nil, errs.New("evaluator can't be nil")
	}

	return &Service{log: log, store: store, evaluator: evaluator}, nil
}

// CreateExperiment creates a new active experiment and returns its id.
// Names are unique across all lifecycle stages, so a deleted experiment
// still blocks reuse of its name.
func (s *Service) CreateExperiment(ctx context.Context, name, artifactLocation string) (id int64, err error) {
	defer mon.Task()(&ctx)(&err)

	if name == "" {
		return 0, ErrInvalidArgument.New("experiment name cannot be empty")
	}

	created, err := s.store.Experiments().Create(ctx, &Experiment{
		Name:             name,
		ArtifactLocation: artifactLocation,
		Stage:            StageActive,
	})
	if err != nil {
		if ErrConflict.Has(err) {
			return 0, ErrAlreadyExists.New("experiment %q already exists", name)
		}
		return 0, err
	}

	s.log.Debug("experiment created",
		zap.Int64("id", created.ID), zap.String("name", created.Name))
	return created.ID, nil
}

// ListExperiments returns the experiments in the lifecycle stages selected
// by view.
func (s *Service) ListExperiments(ctx context.Context, view ViewType) (_ []Experiment, err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.Experiments().List(ctx, ExperimentFilter{Stages: view.Stages()})
}

// GetExperiment returns the experiment regardless of lifecycle stage.
func (s *Service) GetExperiment(ctx context.Context, id int64) (_ *Experiment, err error) {
	defer mon.Task()(&ctx)(&err)

	return s.getExperiment(ctx, id, ViewAll)
}

// DeleteExperiment moves an active experiment to the deleted lifecycle stage.
func (s *Service) DeleteExperiment(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	experiment, err := s.getExperiment(ctx, id, ViewActiveOnly)
	if err != nil {
		return err
	}

	experiment.Stage = StageDeleted
	return s.store.Experiments().Update(ctx, experiment)
}

// RestoreExperiment moves a soft deleted experiment back to the active stage.
func (s *Service) RestoreExperiment(ctx context.Context, id int64) (err error) {
	defer mon.Task()(&ctx)(&err)

	experiment, err := s.getExperiment(ctx, id, ViewDeletedOnly)
	if err != nil {
		return err
	}

	experiment.Stage = StageActive
	return s.store.Experiments().Update(ctx, experiment)
}

// RenameExperiment changes the name of an active experiment.
func (s *Service) RenameExperiment(ctx context.Context, id int64, newName string) (err error) {
	defer mon.Task()(&ctx)(&err)

	experiment, err := s.getExperiment(ctx, id, ViewAll)
	if err != nil {
		return err
	}
	if experiment.Stage != StageActive {
		return ErrInvalidState.New("cannot rename experiment %d in stage %q", id, experiment.Stage)
	}

	experiment.Name = newName
	err = s.store.Experiments().Update(ctx, experiment)
	if ErrConflict.Has(err) {
		return ErrAlreadyExists.New("experiment %q already exists", newName)
	}
	return err
}

// CreateRun registers a new running run under an active experiment and
// returns its full view. The caller's tags are stored along with reserved
// tags for the parent run link and the run name.
func (s *Service) CreateRun(ctx context.Context, req CreateRun) (_ *Run, err error) {
	defer mon.Task()(&ctx)(&err)

	experiment, err := s.getExperiment(ctx, req.ExperimentID, ViewAll)
	if err != nil {
		return nil, err
	}
	if experiment.Stage != StageActive {
		return nil, ErrInvalidState.New("experiment %d must be in stage %q to create a run, current stage %q",
			experiment.ID, StageActive, experiment.Stage)
	}

	id := uuid.New()
	runID := hex.EncodeToString(id[:])

	run := &Run{
		RunInfo: RunInfo{
			RunID:          runID,
			ExperimentID:   req.ExperimentID,
			Name:           req.Name,
			UserID:         req.UserID,
			SourceType:     req.SourceType,
			SourceName:     req.SourceName,
			EntryPointName: req.EntryPointName,
			SourceVersion:  req.SourceVersion,
			Status:         RunStatusRunning,
			StartTime:      req.StartTime,
			Stage:          StageActive,
		},
	}
	for _, tag := range req.Tags {
		run.Tags = append(run.Tags, Tag{RunID: runID, Key: tag.Key, Value: tag.Value})
	}
	if req.ParentRunID != "" {
		run.Tags = append(run.Tags, Tag{RunID: runID, Key: TagParentRunID, Value: req.ParentRunID})
	}
	if req.Name != "" {
		run.Tags = append(run.Tags, Tag{RunID: runID, Key: TagRunName, Value: req.Name})
	}

	created, err := s.store.Runs().Create(ctx, run)
	if err != nil {
		return nil, err
	}

	s.log.Debug("run created",
		zap.String("run id", runID), zap.Int64("experiment id", req.ExperimentID))
	return created, nil
}

// GetRun returns the full view of a run regardless of lifecycle stage.
func (s *Service) GetRun(ctx context.Context, runID string) (_ *Run, err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.Runs().Get(ctx, runID)
}

// UpdateRunInfo sets the status and end time of an active run and returns
// the updated descriptive fields.
func (s *Service) UpdateRunInfo(ctx context.Context, runID string, status RunStatus, endTime int64) (_ *RunInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	run, err := s.store.Runs().Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := checkRunActive(&run.RunInfo); err != nil {
		return nil, err
	}

	run.Status = status
	run.EndTime = endTime
	if err := s.store.Runs().Update(ctx, &run.RunInfo); err != nil {
		return nil, err
	}

	info := run.RunInfo
	return &info, nil
}

// DeleteRun moves an active run to the deleted lifecycle stage.
func (s *Service) DeleteRun(ctx context.Context, runID string) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.setRunStage(ctx, runID, StageActive, StageDeleted)
}

// RestoreRun moves a soft deleted run back to the active stage.
func (s *Service) RestoreRun(ctx context.Context, runID string) (err error) {
	defer mon.Task()(&ctx)(&err)

	return s.setRunStage(ctx, runID, StageDeleted, StageActive)
}

// LogMetric appends a point to a metric time series of an active run. A
// point already logged for the same key and timestamp reports
// ErrAlreadyExists, including when the value is identical.
func (s *Service) LogMetric(ctx context.Context, runID string, metric Metric) (err error) {
	defer mon.Task()(&ctx)(&err)

	run, err := s.store.Runs().Get(ctx, runID)
	if err != nil {
		return err
	}
	if err := checkRunActive(&run.RunInfo); err != nil {
		return err
	}

	metric.RunID = runID
	stored, created, err := s.store.Metrics().GetOrCreate(ctx, &metric)
	if err != nil {
		if !ErrConflict.Has(err) {
			return err
		}
		return s.resolveMetricConflict(ctx, runID, metric, err)
	}
	if !created {
		return ErrAlreadyExists.New("metric %q already logged value %v at timestamp %d for run %s",
			stored.Key, stored.Value, stored.Timestamp, runID)
	}
	return nil
}

// GetMetric returns the most recently timestamped point of a metric series.
func (s *Service) GetMetric(ctx context.Context, runID, key string) (_ *Metric, err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.Metrics().Latest(ctx, runID, key)
}

// GetMetricHistory returns every point logged for the key in chronological
// order.
func (s *Service) GetMetricHistory(ctx context.Context, runID, key string) (_ []Metric, err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.Metrics().History(ctx, runID, key)
}

// LogParam records a parameter of an active run. Parameters are write once:
// logging the same key and value again is a no-op, while a different value
// for an existing key reports ErrAlreadyExists.
func (s *Service) LogParam(ctx context.Context, runID string, param Param) (err error) {
	defer mon.Task()(&ctx)(&err)

	run, err := s.store.Runs().Get(ctx, runID)
	if err != nil {
		return err
	}
	if err := checkRunActive(&run.RunInfo); err != nil {
		return err
	}

	param.RunID = runID
	_, _, err = s.store.Params().GetOrCreate(ctx, &param)
	if err != nil {
		if !ErrConflict.Has(err) {
			return err
		}
		return s.resolveParamConflict(ctx, runID, param, err)
	}
	return nil
}

// GetParam returns the stored value of a logged parameter.
func (s *Service) GetParam(ctx context.Context, runID, key string) (_ *Param, err error) {
	defer mon.Task()(&ctx)(&err)

	return s.store.Params().Get(ctx, runID, key)
}

// SetTag records an annotation on an active run. Repeated writes of the
// same key insert additional rows.
func (s *Service) SetTag(ctx context.Context, runID string, tag Tag) (err error) {
	defer mon.Task()(&ctx)(&err)

	run, err := s.store.Runs().Get(ctx, runID)
	if err != nil {
		return err
	}
	if err := checkRunActive(&run.RunInfo); err != nil {
		return err
	}

	tag.RunID = runID
	return s.store.Tags().Create(ctx, &tag)
}

// SearchRuns returns the runs of the given experiments that match every
// expression. Runs are filtered to the view's lifecycle stages before
// expressions apply.
func (s *Service) SearchRuns(ctx context.Context, experimentIDs []int64, expressions []SearchExpression, view ViewType) (_ []*Run, err error) {
	defer mon.Task()(&ctx)(&err)

	var runs []*Run
	for _, experimentID := range experimentIDs {
		listed, err := s.listRuns(ctx, experimentID, view)
		if err != nil {
			return nil, err
		}
		runs = append(runs, listed...)
	}
	if len(expressions) == 0 {
		return runs, nil
	}

	var matched []*Run
	for _, run := range runs {
		if s.matchesAll(run, expressions) {
			matched = append(matched, run)
		}
	}
	return matched, nil
}

// ListRunInfos returns the descriptive fields of an experiment's runs in
// the view's lifecycle stages.
func (s *Service) ListRunInfos(ctx context.Context, experimentID int64, view ViewType) (_ []RunInfo, err error) {
	defer mon.Task()(&ctx)(&err)

	runs, err := s.listRuns(ctx, experimentID, view)
	if err != nil {
		return nil, err
	}

	infos := make([]RunInfo, 0, len(runs))
	for _, run := range runs {
		infos = append(infos, run.RunInfo)
	}
	return infos, nil
}

// getExperiment returns the experiment in the view, failing with
// ErrNotFound when the view has no such experiment and with
// ErrInvalidState when the id resolves to more than one row.
func (s *Service) getExperiment(ctx context.Context, id int64, view ViewType) (*Experiment, error) {
	experiments, err := s.store.Experiments().List(ctx, ExperimentFilter{
		IDs:    []int64{id},
		Stages: view.Stages(),
	})
	if err != nil {
		return nil, err
	}

	switch {
	case len(experiments) == 0:
		switch view {
		case ViewActiveOnly:
			return nil, ErrNotFound.New("no active experiment with id %d", id)
		case ViewDeletedOnly:
			return nil, ErrNotFound.New("no deleted experiment with id %d", id)
		default:
			return nil, ErrNotFound.New("no experiment with id %d", id)
		}
	case len(experiments) > 1:
		return nil, ErrInvalidState.New("expected 1 experiment with id %d, found %d", id, len(experiments))
	}
	return &experiments[0], nil
}

// listRuns returns the full views of an experiment's runs, checking that
// the experiment exists first.
func (s *Service) listRuns(ctx context.Context, experimentID int64, view ViewType) ([]*Run, error) {
	if _, err := s.getExperiment(ctx, experimentID, ViewAll); err != nil {
		return nil, err
	}
	return s.store.Runs().List(ctx, experimentID, view.Stages())
}

// setRunStage flips a run between lifecycle stages. A run outside the
// required stage reports ErrNotFound, since it does not exist in the view
// the caller addressed.
func (s *Service) setRunStage(ctx context.Context, runID string, required, target LifecycleStage) error {
	run, err := s.store.Runs().Get(ctx, runID)
	if err != nil {
		return err
	}
	if run.Stage != required {
		return ErrNotFound.New("run %s is not in stage %q (current stage %q)", runID, required, run.Stage)
	}

	run.Stage = target
	return s.store.Runs().Update(ctx, &run.RunInfo)
}

// resolveMetricConflict re-reads the series after a lost insert to report
// which stored point blocked the write.
func (s *Service) resolveMetricConflict(ctx context.Context, runID string, metric Metric, cause error) error {
	history, err := s.store.Metrics().History(ctx, runID, metric.Key)
	if err != nil {
		return ErrStorage.Wrap(errs.Combine(cause, err))
	}
	for _, stored := range history {
		if stored.Timestamp == metric.Timestamp {
			return ErrAlreadyExists.New("metric %q already logged value %v at timestamp %d for run %s",
				stored.Key, stored.Value, stored.Timestamp, runID)
		}
	}
	return ErrStorage.New("logging metric %q for run %s: %v", metric.Key, runID, cause)
}

// resolveParamConflict re-reads the stored parameter after a lost insert to
// report the value change attempt.
func (s *Service) resolveParamConflict(ctx context.Context, runID string, param Param, cause error) error {
	stored, err := s.store.Params().Get(ctx, runID, param.Key)
	if err != nil {
		if ErrNotFound.Has(err) {
			return ErrStorage.New("logging param %q for run %s: %v", param.Key, runID, cause)
		}
		return ErrStorage.Wrap(errs.Combine(cause, err))
	}
	return ErrAlreadyExists.New("changing param value is not allowed: param %q was already logged with value %q for run %s, attempted new value %q",
		param.Key, stored.Value, runID, param.Value)
}

func (s *Service) matchesAll(run *Run, expressions []SearchExpression) bool {
	for _, expr := range expressions {
		if !s.evaluator.Matches(run, expr) {
			return false
		}
	}
	return true
}

// checkRunActive rejects writes against runs that left the active stage.
func checkRunActive(info *RunInfo) error {
	if info.Stage != StageActive {
		return ErrInvalidState.New("run %s must be in stage %q, current stage %q",
			info.RunID, StageActive, info.Stage)
	}
	return nil
}

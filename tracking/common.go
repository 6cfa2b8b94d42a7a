// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

// Package tracking implements the experiment tracking metadata store.
package tracking

import (
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

var (
	mon = monkit.Package()

	// Error is the default error class for the tracking package.
	Error = errs.Class("tracking")
	// ErrInvalidArgument is an error class for rejected caller input.
	ErrInvalidArgument = errs.Class("invalid argument")
	// ErrNotFound is an error class for entities that could not be found.
	ErrNotFound = errs.Class("not found")
	// ErrAlreadyExists is an error class for writes blocked by already stored state.
	ErrAlreadyExists = errs.Class("already exists")
	// ErrInvalidState is an error class for operations rejected by lifecycle
	// stage and for violated store invariants.
	ErrInvalidState = errs.Class("invalid state")
	// ErrConflict is the error class the persistence gateway uses to report
	// uniqueness constraint violations.
	ErrConflict = errs.Class("conflict")
	// ErrStorage is an error class for conflicts that could not be resolved
	// against the stored state.
	ErrStorage = errs.Class("storage failure")
)

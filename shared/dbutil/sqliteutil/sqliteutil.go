// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

// Package sqliteutil contains helpers specific to sqlite3 databases.
package sqliteutil

import (
	"github.com/mattn/go-sqlite3"
	"github.com/zeebo/errs"
)

// IsConstraintError checks if given error is about constraint violation.
func IsConstraintError(err error) bool {
	return errs.IsFunc(err, func(err error) bool {
		if e, ok := err.(sqlite3.Error); ok {
			if e.Code == sqlite3.ErrConstraint {
				return true
			}
		}
		return false
	})
}

// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package tracking

// SearchExpression is an opaque filter clause over a run's logged data. Its
// semantics belong to the Evaluator the service was built with; the service
// only combines per-expression verdicts into a conjunction.
type SearchExpression interface{}

// Evaluator decides whether a run matches a search expression.
type Evaluator interface {
	Matches(run *Run, expr SearchExpression) bool
}

// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package sqliteutil_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"github.com/cairnlabs/cairn/shared/dbutil/sqliteutil"
)

func TestIsConstraintError(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer func() { require.NoError(t, db.Close()) }()

	_, err = db.Exec(`CREATE TABLE example (name TEXT NOT NULL UNIQUE)`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO example (name) VALUES ('alpha')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO example (name) VALUES ('alpha')`)
	require.Error(t, err)
	require.True(t, sqliteutil.IsConstraintError(err))

	_, err = db.Exec(`INSERT INTO missing (name) VALUES ('alpha')`)
	require.Error(t, err)
	require.False(t, sqliteutil.IsConstraintError(err))

	require.False(t, sqliteutil.IsConstraintError(nil))
}

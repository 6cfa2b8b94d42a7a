// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

package trackingdb

import (
	"github.com/cairnlabs/cairn/private/migrate"
	"github.com/cairnlabs/cairn/shared/dbutil"
)

// Migration returns the table migrations for the tracking database.
func (db *DB) Migration() *migrate.Migration {
	return &migrate.Migration{
		Table: VersionTable,
		Steps: []*migrate.Step{
			{
				DB:          db,
				Description: "Initial setup",
				Version:     0,
				Action:      migrate.SQL(db.initialSchema()),
			},
			{
				DB:          db,
				Description: "Add run listing and tag lookup indexes",
				Version:     1,
				Action: migrate.SQL{
					`CREATE INDEX runs_experiment_id_lifecycle_stage_index ON runs ( experiment_id, lifecycle_stage )`,
					`CREATE INDEX tags_run_id_index ON tags ( run_id )`,
				},
			},
		},
	}
}

// initialSchema returns the initial tables for the implementation in use.
func (db *DB) initialSchema() []string {
	switch db.impl {
	case dbutil.Postgres, dbutil.Cockroach:
		return []string{
			`CREATE TABLE experiments (
				id BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				artifact_location TEXT,
				lifecycle_stage TEXT NOT NULL DEFAULT 'active'
			)`,
			`CREATE TABLE runs (
				run_id TEXT NOT NULL PRIMARY KEY,
				experiment_id BIGINT NOT NULL REFERENCES experiments ( id ),
				name TEXT NOT NULL,
				user_id TEXT NOT NULL,
				source_type TEXT NOT NULL,
				source_name TEXT NOT NULL,
				entry_point_name TEXT NOT NULL,
				source_version TEXT NOT NULL,
				artifact_uri TEXT NOT NULL,
				status TEXT NOT NULL,
				start_time BIGINT NOT NULL,
				end_time BIGINT,
				lifecycle_stage TEXT NOT NULL DEFAULT 'active'
			)`,
			`CREATE TABLE metrics (
				id BIGSERIAL PRIMARY KEY,
				run_id TEXT NOT NULL REFERENCES runs ( run_id ),
				key TEXT NOT NULL,
				value DOUBLE PRECISION NOT NULL,
				timestamp BIGINT NOT NULL,
				UNIQUE ( run_id, key, timestamp )
			)`,
			`CREATE TABLE params (
				run_id TEXT NOT NULL REFERENCES runs ( run_id ),
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY ( run_id, key )
			)`,
			`CREATE TABLE tags (
				id BIGSERIAL PRIMARY KEY,
				run_id TEXT NOT NULL REFERENCES runs ( run_id ),
				key TEXT NOT NULL,
				value TEXT NOT NULL
			)`,
		}
	default:
		return []string{
			`CREATE TABLE experiments (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE,
				artifact_location TEXT,
				lifecycle_stage TEXT NOT NULL DEFAULT 'active'
			)`,
			`CREATE TABLE runs (
				run_id TEXT NOT NULL PRIMARY KEY,
				experiment_id INTEGER NOT NULL REFERENCES experiments ( id ),
				name TEXT NOT NULL,
				user_id TEXT NOT NULL,
				source_type TEXT NOT NULL,
				source_name TEXT NOT NULL,
				entry_point_name TEXT NOT NULL,
				source_version TEXT NOT NULL,
				artifact_uri TEXT NOT NULL,
				status TEXT NOT NULL,
				start_time INTEGER NOT NULL,
				end_time INTEGER,
				lifecycle_stage TEXT NOT NULL DEFAULT 'active'
			)`,
			`CREATE TABLE metrics (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL REFERENCES runs ( run_id ),
				key TEXT NOT NULL,
				value REAL NOT NULL,
				timestamp INTEGER NOT NULL,
				UNIQUE ( run_id, key, timestamp )
			)`,
			`CREATE TABLE params (
				run_id TEXT NOT NULL REFERENCES runs ( run_id ),
				key TEXT NOT NULL,
				value TEXT NOT NULL,
				PRIMARY KEY ( run_id, key )
			)`,
			`CREATE TABLE tags (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				run_id TEXT NOT NULL REFERENCES runs ( run_id ),
				key TEXT NOT NULL,
				value TEXT NOT NULL
			)`,
		}
	}
}

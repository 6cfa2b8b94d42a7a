// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

// Package trackingdb implements the tracking database interfaces over
// sqlite3 and postgres compatible databases.
package trackingdb

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/lib/pq"           // registers the postgres driver
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"github.com/cairnlabs/cairn/shared/dbutil"
	"github.com/cairnlabs/cairn/shared/dbutil/pgutil"
	"github.com/cairnlabs/cairn/shared/dbutil/sqliteutil"
	"github.com/cairnlabs/cairn/tracking"
)

// VersionTable is the table that stores the schema version info.
const VersionTable = "versions"

var (
	mon = monkit.Package()

	// Error is the default error class for trackingdb.
	Error = errs.Class("trackingdb")
)

// Options contains options for the tracking database.
type Options struct {
	// ApplicationName is advertised in postgres connection strings.
	ApplicationName string

	// MaxIdleConns and MaxOpenConns bound the connection pool.
	// Zero keeps the stdlib default.
	MaxIdleConns int
	MaxOpenConns int
}

// ensures that DB implements tracking.DB.
var _ tracking.DB = (*DB)(nil)

// DB is the tracking database.
type DB struct {
	log  *zap.Logger
	db   *sql.DB
	impl dbutil.Implementation
	opts Options
}

// Open creates an instance of the tracking database for the given url.
// Supported schemes are sqlite3, postgres and cockroach.
func Open(ctx context.Context, log *zap.Logger, databaseURL string, opts Options) (*DB, error) {
	driver, source, impl, err := dbutil.SplitConnStr(databaseURL)
	if err != nil {
		return nil, Error.Wrap(err)
	}

	switch impl {
	case dbutil.SQLite3:
		source = withBusyTimeout(source)
	case dbutil.Postgres, dbutil.Cockroach:
		source = pgutil.CheckApplicationName(source, opts.ApplicationName)
	}

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, Error.Wrap(errs.Combine(err, db.Close()))
	}

	maxIdle, maxOpen := opts.MaxIdleConns, opts.MaxOpenConns
	if maxIdle == 0 {
		maxIdle = -1
	}
	if maxOpen == 0 {
		maxOpen = -1
	}
	dbutil.Configure(db, "tracking", maxIdle, maxOpen, mon)

	log.Debug("connected to database", zap.String("implementation", impl.String()))

	return &DB{
		log:  log,
		db:   db,
		impl: impl,
		opts: opts,
	}, nil
}

// Experiments is a getter for tracking.Experiments repository.
func (db *DB) Experiments() tracking.Experiments { return &experiments{db: db} }

// Runs is a getter for tracking.Runs repository.
func (db *DB) Runs() tracking.Runs { return &runs{db: db} }

// Metrics is a getter for tracking.Metrics repository.
func (db *DB) Metrics() tracking.Metrics { return &metrics{db: db} }

// Params is a getter for tracking.Params repository.
func (db *DB) Params() tracking.Params { return &params{db: db} }

// Tags is a getter for tracking.Tags repository.
func (db *DB) Tags() tracking.Tags { return &tags{db: db} }

// MigrateToLatest initializes or upgrades the database schema.
func (db *DB) MigrateToLatest(ctx context.Context) (err error) {
	defer mon.Task()(&ctx)(&err)

	return db.Migration().Run(ctx, db.log.Named("migrate"))
}

// Close closes the database.
func (db *DB) Close() error {
	return Error.Wrap(db.db.Close())
}

// Implementation returns the database implementation in use.
func (db *DB) Implementation() dbutil.Implementation {
	return db.impl
}

// BeginTx starts a transaction on the underlying database.
func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	return db.db.BeginTx(ctx, opts)
}

// ExecContext runs the query on the underlying database.
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return db.db.ExecContext(ctx, query, args...)
}

// QueryContext runs the query on the underlying database.
func (db *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return db.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs the query on the underlying database.
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return db.db.QueryRowContext(ctx, query, args...)
}

// Rebind adjusts placeholders to what the underlying database expects.
func (db *DB) Rebind(query string) string {
	return dbutil.Rebind(db.impl, query)
}

// isConstraintError reports whether err is a constraint violation on the
// underlying database.
func (db *DB) isConstraintError(err error) bool {
	switch db.impl {
	case dbutil.SQLite3:
		return sqliteutil.IsConstraintError(err)
	case dbutil.Postgres, dbutil.Cockroach:
		return pgutil.IsConstraintError(err)
	default:
		return false
	}
}

// withBusyTimeout makes concurrent sqlite writers queue instead of failing
// immediately with a busy error.
func withBusyTimeout(source string) string {
	if strings.Contains(source, "_busy_timeout") {
		return source
	}
	if strings.Contains(source, "?") {
		return source + "&_busy_timeout=10000"
	}
	return source + "?_busy_timeout=10000"
}

// placeholders returns n comma separated ? placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

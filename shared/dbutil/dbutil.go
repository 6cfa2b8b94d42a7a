// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

// Package dbutil contains common utilities for working with sql databases.
package dbutil

import (
	"database/sql"
	"strconv"
	"strings"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
)

// Implementation type of valid databases.
type Implementation int

const (
	// Unknown is an unknown database implementation.
	Unknown Implementation = iota
	// SQLite3 is a file or memory backed sqlite3 database.
	SQLite3
	// Postgres is a postgres database.
	Postgres
	// Cockroach is a cockroachdb database, spoken to over the postgres wire.
	Cockroach
)

// String returns the lowercase name of the implementation.
func (impl Implementation) String() string {
	switch impl {
	case SQLite3:
		return "sqlite3"
	case Postgres:
		return "postgres"
	case Cockroach:
		return "cockroach"
	default:
		return "unknown"
	}
}

// ImplementationForScheme returns the Implementation that is used for
// the url with the specified scheme.
func ImplementationForScheme(scheme string) Implementation {
	switch scheme {
	case "sqlite", "sqlite3":
		return SQLite3
	case "postgres", "postgresql":
		return Postgres
	case "cockroach":
		return Cockroach
	default:
		return Unknown
	}
}

// SplitConnStr returns the driver and source to use with database/sql,
// along with the database implementation the url refers to.
func SplitConnStr(s string) (driver string, source string, implementation Implementation, err error) {
	parts := strings.SplitN(s, "://", 2)
	if len(parts) != 2 {
		return "", "", Unknown, errs.New("could not parse database url %q", s)
	}

	implementation = ImplementationForScheme(parts[0])
	switch implementation {
	case SQLite3:
		driver = "sqlite3"
		source = parts[1]
	case Postgres:
		driver = "postgres"
		source = s
	case Cockroach:
		driver = "postgres"
		source = "postgres://" + parts[1]
	default:
		return "", "", Unknown, errs.New("unsupported database scheme %q in %q", parts[0], s)
	}
	return driver, source, implementation, nil
}

// Rebind replaces ? placeholders with the positional arguments
// the implementation expects.
func Rebind(implementation Implementation, query string) string {
	switch implementation {
	case Postgres, Cockroach:
	default:
		return query
	}

	out := make([]byte, 0, len(query)+10)
	j := 1
	for i := 0; i < len(query); i++ {
		ch := query[i]
		if ch != '?' {
			out = append(out, ch)
			continue
		}
		out = append(out, '$')
		out = append(out, strconv.Itoa(j)...)
		j++
	}
	return string(out)
}

// Configure sets connection boundaries and adds db_stats monitoring to monkit.
func Configure(db *sql.DB, dbName string, maxIdleConns, maxOpenConns int, scope *monkit.Scope) {
	if maxIdleConns >= 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
	if maxOpenConns >= 0 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	scope.Chain(monkit.StatSourceFunc(
		func(cb func(key monkit.SeriesKey, field string, val float64)) {
			monkit.StatSourceFromStruct(monkit.NewSeriesKey("db_stats").WithTag("db_name", dbName), db.Stats()).Stats(cb)
		}))
}

// Copyright (C) 2025 Cairn Labs, Inc.
// See LICENSE for copying information.

// Package pgutil contains helpers specific to postgres compatible databases.
package pgutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/lib/pq"
	"github.com/zeebo/errs"
)

// IsConstraintError checks if given error is about constraint violation.
func IsConstraintError(err error) bool {
	return errs.IsFunc(err, func(err error) bool {
		if e, ok := err.(*pq.Error); ok {
			if e.Code.Class() == "23" {
				return true
			}
		}
		return false
	})
}

// CheckApplicationName ensures that the connection string contains an
// application name, adding the provided one when missing.
func CheckApplicationName(s string, applicationName string) string {
	if applicationName == "" || strings.Contains(s, "application_name") {
		return s
	}
	if !strings.Contains(s, "?") {
		return s + "?application_name=" + url.QueryEscape(applicationName)
	}
	return s + "&application_name=" + url.QueryEscape(applicationName)
}

// ConnstrWithSchema adds schema to a connection string.
func ConnstrWithSchema(connstr, schema string) string {
	if strings.Contains(connstr, "?") {
		connstr += "&options="
	} else {
		connstr += "?options="
	}
	return connstr + url.QueryEscape("--search_path="+pq.QuoteIdentifier(schema))
}

// CreateRandomTestingSchemaName creates a random schema name string.
func CreateRandomTestingSchemaName(n int) string {
	data := make([]byte, n)
	_, _ = rand.Read(data)
	return hex.EncodeToString(data)
}

// CreateSchema creates a schema if it doesn't exist.
func CreateSchema(ctx context.Context, db *sql.DB, schema string) error {
	_, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS `+pq.QuoteIdentifier(schema)+`;`)
	return errs.Wrap(err)
}

// DropSchema drops the named schema and everything it contains.
func DropSchema(ctx context.Context, db *sql.DB, schema string) error {
	_, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS `+pq.QuoteIdentifier(schema)+` CASCADE;`)
	return errs.Wrap(err)
}

/* Copyright 2026 Memora Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package database provides the durable local store for memora entities
// and their sync metadata
package database

import (
	"database/sql"

	"github.com/pkg/errors"
)

// ErrIntegrityViolation is an error for a write that breaks a local invariant,
// such as a row referencing a nonexistent parent
var ErrIntegrityViolation = errors.New("integrity violation")

// ErrNotFound is an error for a missing row
var ErrNotFound = errors.New("not found")

// DB is a handle to the local database. It wraps either a connection or an
// open transaction so that queries can run in both contexts.
type DB struct {
	conn *sql.DB
	tx   *sql.Tx
}

// Open opens a database connection at the given path
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	// sqlite serializes writers; a single connection avoids SQLITE_BUSY
	// between the gateway and the sync engine.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, errors.Wrap(err, "enabling foreign keys")
	}

	return &DB{conn: conn}, nil
}

// Begin starts a transaction and returns a handle scoped to it
func (d *DB) Begin() (*DB, error) {
	if d.tx != nil {
		return nil, errors.New("transaction already open")
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "beginning a transaction")
	}

	return &DB{conn: d.conn, tx: tx}, nil
}

// Exec executes the given query
func (d *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	if d.tx != nil {
		return d.tx.Exec(query, args...)
	}

	return d.conn.Exec(query, args...)
}

// Query runs the given query and returns rows
func (d *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	if d.tx != nil {
		return d.tx.Query(query, args...)
	}

	return d.conn.Query(query, args...)
}

// QueryRow runs the given query and returns a single row
func (d *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	if d.tx != nil {
		return d.tx.QueryRow(query, args...)
	}

	return d.conn.QueryRow(query, args...)
}

// Commit commits the transaction held by the handle
func (d *DB) Commit() error {
	if d.tx == nil {
		return errors.New("no open transaction")
	}

	if err := d.tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}

	return nil
}

// Rollback aborts the transaction held by the handle. It is safe to call
// after a failed commit.
func (d *DB) Rollback() error {
	if d.tx == nil {
		return nil
	}

	if err := d.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return errors.Wrap(err, "rolling back transaction")
	}

	return nil
}

// Close closes the underlying connection
func (d *DB) Close() error {
	return d.conn.Close()
}

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

package database

import (
	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

// migrations is the ordered schema migration sequence for the local store
var migrations = &migrate.MemoryMigrationSource{
	Migrations: []*migrate.Migration{
		{
			Id: "1_entities",
			Up: []string{
				`CREATE TABLE notes
				(
					id integer PRIMARY KEY AUTOINCREMENT,
					uuid text NOT NULL,
					user_uuid text NOT NULL,
					title text NOT NULL DEFAULT '',
					body text NOT NULL,
					created_at integer NOT NULL,
					edited_on integer NOT NULL,
					server_updated_at integer NOT NULL DEFAULT 0,
					sync_state text NOT NULL DEFAULT 'pending'
				)`,
				`CREATE TABLE categories
				(
					uuid text PRIMARY KEY,
					user_uuid text NOT NULL,
					name text NOT NULL,
					color text NOT NULL DEFAULT '',
					icon text NOT NULL DEFAULT '',
					created_at integer NOT NULL,
					edited_on integer NOT NULL,
					server_updated_at integer NOT NULL DEFAULT 0,
					sync_state text NOT NULL DEFAULT 'pending'
				)`,
				`CREATE TABLE note_categories
				(
					uuid text PRIMARY KEY,
					note_uuid text NOT NULL,
					category_uuid text NOT NULL,
					user_uuid text NOT NULL,
					created_at integer NOT NULL,
					sync_state text NOT NULL DEFAULT 'pending'
				)`,
				`CREATE TABLE attachments
				(
					uuid text PRIMARY KEY,
					note_uuid text NOT NULL,
					user_uuid text NOT NULL,
					filename text NOT NULL,
					kind text NOT NULL,
					mime_type text NOT NULL,
					size integer NOT NULL,
					uploaded_at integer NOT NULL,
					server_updated_at integer NOT NULL DEFAULT 0,
					sync_state text NOT NULL DEFAULT 'pending'
				)`,
				`CREATE UNIQUE INDEX idx_notes_uuid ON notes(uuid)`,
				`CREATE INDEX idx_notes_user ON notes(user_uuid)`,
				`CREATE UNIQUE INDEX idx_note_categories_pair ON note_categories(note_uuid, category_uuid)`,
				`CREATE INDEX idx_attachments_note ON attachments(note_uuid)`,
			},
			Down: []string{
				`DROP TABLE attachments`,
				`DROP TABLE note_categories`,
				`DROP TABLE categories`,
				`DROP TABLE notes`,
			},
		},
		{
			Id: "2_intents",
			Up: []string{
				`CREATE TABLE intents
				(
					uuid text PRIMARY KEY,
					entity_type text NOT NULL,
					entity_uuid text NOT NULL,
					op text NOT NULL,
					queued_at integer NOT NULL,
					retry_count integer NOT NULL DEFAULT 0,
					next_retry_at integer NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_intents_entity ON intents(entity_uuid, queued_at)`,
			},
			Down: []string{
				`DROP TABLE intents`,
			},
		},
		{
			Id: "3_system",
			Up: []string{
				`CREATE TABLE system
				(
					key text NOT NULL,
					value text NOT NULL
				)`,
				`CREATE UNIQUE INDEX idx_system_key ON system(key)`,
			},
			Down: []string{
				`DROP TABLE system`,
			},
		},
	},
}

// Migrate brings the local schema up to date
func Migrate(db *DB) error {
	if _, err := migrate.Exec(db.conn, "sqlite3", migrations, migrate.Up); err != nil {
		return errors.Wrap(err, "running migrations")
	}

	return nil
}

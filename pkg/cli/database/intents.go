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
)

// Intent operations
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Intent is a queued instruction describing one pending local mutation
// awaiting remote propagation. Intents for the same entity are processed
// in enqueue order.
type Intent struct {
	UUID        string `json:"uuid"`
	EntityType  string `json:"entity_type"`
	EntityUUID  string `json:"entity_uuid"`
	Op          string `json:"op"`
	QueuedAt    int64  `json:"queued_at"`
	RetryCount  int    `json:"retry_count"`
	NextRetryAt int64  `json:"next_retry_at"`
}

// NewIntent constructs an intent with the given data
func NewIntent(uuid, entityType, entityUUID, op string, queuedAt int64) Intent {
	return Intent{
		UUID:       uuid,
		EntityType: entityType,
		EntityUUID: entityUUID,
		Op:         op,
		QueuedAt:   queuedAt,
	}
}

// Insert inserts a new intent
func (i Intent) Insert(db *DB) error {
	_, err := db.Exec("INSERT INTO intents (uuid, entity_type, entity_uuid, op, queued_at, retry_count, next_retry_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		i.UUID, i.EntityType, i.EntityUUID, i.Op, i.QueuedAt, i.RetryCount, i.NextRetryAt)
	if err != nil {
		return errors.Wrapf(err, "inserting intent for %s %s", i.EntityType, i.EntityUUID)
	}

	return nil
}

// Expunge removes the intent from the queue
func (i Intent) Expunge(db *DB) error {
	_, err := db.Exec("DELETE FROM intents WHERE uuid = ?", i.UUID)
	if err != nil {
		return errors.Wrap(err, "expunging an intent")
	}

	return nil
}

// BumpRetry increments the retry count and schedules the next attempt
func (i *Intent) BumpRetry(db *DB, nextRetryAt int64) error {
	i.RetryCount++
	i.NextRetryAt = nextRetryAt

	_, err := db.Exec("UPDATE intents SET retry_count = ?, next_retry_at = ? WHERE uuid = ?",
		i.RetryCount, i.NextRetryAt, i.UUID)
	if err != nil {
		return errors.Wrapf(err, "bumping retry for intent %s", i.UUID)
	}

	return nil
}

func scanIntents(db *DB, query string, args ...interface{}) ([]Intent, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying intents")
	}
	defer rows.Close()

	var ret []Intent
	for rows.Next() {
		var i Intent
		if err := rows.Scan(&i.UUID, &i.EntityType, &i.EntityUUID, &i.Op, &i.QueuedAt, &i.RetryCount, &i.NextRetryAt); err != nil {
			return nil, errors.Wrap(err, "scanning an intent row")
		}
		ret = append(ret, i)
	}

	return ret, nil
}

// ListIntents retrieves all queued intents in enqueue order
func ListIntents(db *DB) ([]Intent, error) {
	return scanIntents(db, "SELECT uuid, entity_type, entity_uuid, op, queued_at, retry_count, next_retry_at FROM intents ORDER BY queued_at ASC")
}

// ListEntityIntents retrieves the queued intents targeting the given entity
// in enqueue order
func ListEntityIntents(db *DB, entityUUID string) ([]Intent, error) {
	return scanIntents(db, "SELECT uuid, entity_type, entity_uuid, op, queued_at, retry_count, next_retry_at FROM intents WHERE entity_uuid = ? ORDER BY queued_at ASC", entityUUID)
}

// HasPendingIntent checks if any intent targets the given entity
func HasPendingIntent(db *DB, entityUUID string) (bool, error) {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM intents WHERE entity_uuid = ?", entityUUID).Scan(&count); err != nil {
		return false, errors.Wrapf(err, "counting intents for %s", entityUUID)
	}

	return count > 0, nil
}

// ExpungeIntents removes the given intents from the queue by uuid
func ExpungeIntents(db *DB, uuids []string) error {
	for _, uuid := range uuids {
		if _, err := db.Exec("DELETE FROM intents WHERE uuid = ?", uuid); err != nil {
			return errors.Wrapf(err, "expunging intent %s", uuid)
		}
	}

	return nil
}

// ExpungeEntityIntents removes all intents targeting the given entity
func ExpungeEntityIntents(db *DB, entityUUID string) error {
	if _, err := db.Exec("DELETE FROM intents WHERE entity_uuid = ?", entityUUID); err != nil {
		return errors.Wrapf(err, "expunging intents for %s", entityUUID)
	}

	return nil
}

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
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/clock"
)

// Period is a preset date range for filtering notes
type Period int

// Preset periods. Ranges are computed against the clock at query time, not
// stored server-side.
const (
	PeriodAll Period = iota
	PeriodToday
	PeriodThisWeek
	PeriodThisMonth
	PeriodLast30Days
	PeriodLast90Days
	PeriodCustom
)

// Filter narrows a note listing by date range and category membership
type Filter struct {
	Period       Period
	From         time.Time // custom range, inclusive
	To           time.Time // custom range, exclusive
	CategoryUUID string
	SyncState    string
}

// periodBounds computes the unixnano bounds of the filter period. A zero
// upper bound means unbounded.
func periodBounds(c clock.Clock, f Filter) (int64, int64) {
	now := c.Now()

	switch f.Period {
	case PeriodToday:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return start.UnixNano(), 0
	case PeriodThisWeek:
		// week starts on Monday
		offset := (int(now.Weekday()) + 6) % 7
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return day.AddDate(0, 0, -offset).UnixNano(), 0
	case PeriodThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return start.UnixNano(), 0
	case PeriodLast30Days:
		return now.AddDate(0, 0, -30).UnixNano(), 0
	case PeriodLast90Days:
		return now.AddDate(0, 0, -90).UnixNano(), 0
	case PeriodCustom:
		var from, to int64
		if !f.From.IsZero() {
			from = f.From.UnixNano()
		}
		if !f.To.IsZero() {
			to = f.To.UnixNano()
		}
		return from, to
	default:
		return 0, 0
	}
}

// ListNotes retrieves the notes of the given user matching the filter,
// ordered most-recently-modified first. Locally deleted notes are excluded.
func ListNotes(db *DB, c clock.Clock, userUUID string, f Filter) ([]Note, error) {
	query := "SELECT uuid, user_uuid, title, body, created_at, edited_on, server_updated_at, sync_state FROM notes WHERE user_uuid = ? AND sync_state != ?"
	args := []interface{}{userUUID, SyncStateDeleted}

	from, to := periodBounds(c, f)
	if from > 0 {
		query += " AND edited_on >= ?"
		args = append(args, from)
	}
	if to > 0 {
		query += " AND edited_on < ?"
		args = append(args, to)
	}

	if f.CategoryUUID != "" {
		query += " AND uuid IN (SELECT note_uuid FROM note_categories WHERE category_uuid = ? AND sync_state != ?)"
		args = append(args, f.CategoryUUID, SyncStateDeleted)
	}

	if f.SyncState != "" {
		query += " AND sync_state = ?"
		args = append(args, f.SyncState)
	}

	query += " ORDER BY edited_on DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	defer rows.Close()

	var ret []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.UUID, &n.UserUUID, &n.Title, &n.Body, &n.CreatedAt, &n.EditedOn, &n.ServerUpdatedAt, &n.SyncState); err != nil {
			return nil, errors.Wrap(err, "scanning a note row")
		}
		ret = append(ret, n)
	}

	return ret, nil
}

// ListCategories retrieves the categories of the given user, ordered
// most-recently-modified first
func ListCategories(db *DB, userUUID string) ([]Category, error) {
	rows, err := db.Query("SELECT uuid, user_uuid, name, color, icon, created_at, edited_on, server_updated_at, sync_state FROM categories WHERE user_uuid = ? AND sync_state != ? ORDER BY edited_on DESC",
		userUUID, SyncStateDeleted)
	if err != nil {
		return nil, errors.Wrap(err, "querying categories")
	}
	defer rows.Close()

	var ret []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.UUID, &c.UserUUID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt, &c.EditedOn, &c.ServerUpdatedAt, &c.SyncState); err != nil {
			return nil, errors.Wrap(err, "scanning a category row")
		}
		ret = append(ret, c)
	}

	return ret, nil
}

// GetCategoryByName retrieves a category of the given user by name
func GetCategoryByName(db *DB, userUUID, name string) (Category, error) {
	var c Category
	err := db.QueryRow("SELECT uuid, user_uuid, name, color, icon, created_at, edited_on, server_updated_at, sync_state FROM categories WHERE user_uuid = ? AND name = ? AND sync_state != ?",
		userUUID, name, SyncStateDeleted).
		Scan(&c.UUID, &c.UserUUID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt, &c.EditedOn, &c.ServerUpdatedAt, &c.SyncState)
	if err == sql.ErrNoRows {
		return c, errors.Wrapf(ErrNotFound, "category named %s", name)
	} else if err != nil {
		return c, errors.Wrapf(err, "getting category named %s", name)
	}

	return c, nil
}

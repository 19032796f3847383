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
	"fmt"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/assert"
	"github.com/vicherarr/memora/pkg/clock"
)

func TestListNotesOrder(t *testing.T) {
	db := InitTestMemoryDB(t)
	c := clock.NewMock()
	c.SetNow(time.Date(2018, time.August, 10, 12, 0, 0, 0, time.UTC))

	for idx, editedOn := range []int64{10, 30, 20} {
		n := NewNote(fmt.Sprintf("n%d-uuid", idx), "user-uuid", fmt.Sprintf("n%d", idx), "body", 1, editedOn, SyncStateSynced)
		if err := n.Insert(db); err != nil {
			t.Fatal(errors.Wrap(err, "inserting note"))
		}
	}

	got, err := ListNotes(db, c, "user-uuid", Filter{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing notes"))
	}

	assert.Equal(t, len(got), 3, "result length mismatch")
	assert.Equal(t, got[0].UUID, "n1-uuid", "first note mismatch")
	assert.Equal(t, got[1].UUID, "n2-uuid", "second note mismatch")
	assert.Equal(t, got[2].UUID, "n0-uuid", "third note mismatch")
}

func TestListNotesExcludesDeleted(t *testing.T) {
	db := InitTestMemoryDB(t)
	c := clock.NewMock()

	n1 := NewNote("n1-uuid", "user-uuid", "n1", "body", 1, 1, SyncStateSynced)
	if err := n1.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting note"))
	}
	n2 := NewNote("n2-uuid", "user-uuid", "n2", "body", 1, 2, SyncStateDeleted)
	if err := n2.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting deleted note"))
	}

	got, err := ListNotes(db, c, "user-uuid", Filter{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing notes"))
	}

	assert.Equal(t, len(got), 1, "result length mismatch")
	assert.Equal(t, got[0].UUID, "n1-uuid", "note mismatch")
}

func TestListNotesScopedToUser(t *testing.T) {
	db := InitTestMemoryDB(t)
	c := clock.NewMock()

	n1 := NewNote("n1-uuid", "user-uuid", "mine", "body", 1, 1, SyncStateSynced)
	if err := n1.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting note"))
	}
	n2 := NewNote("n2-uuid", "other-user-uuid", "theirs", "body", 1, 2, SyncStateSynced)
	if err := n2.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting another user's note"))
	}

	got, err := ListNotes(db, c, "user-uuid", Filter{})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing notes"))
	}

	assert.Equal(t, len(got), 1, "result length mismatch")
	assert.Equal(t, got[0].UUID, "n1-uuid", "note mismatch")
}

func TestListNotesPeriods(t *testing.T) {
	db := InitTestMemoryDB(t)
	c := clock.NewMock()
	// Wednesday
	now := time.Date(2018, time.August, 15, 12, 0, 0, 0, time.UTC)
	c.SetNow(now)

	notes := map[string]time.Time{
		"today-uuid":      now.Add(-2 * time.Hour),
		"this-week-uuid":  now.AddDate(0, 0, -2),
		"this-month-uuid": now.AddDate(0, 0, -10),
		"older-uuid":      now.AddDate(0, 0, -40),
		"ancient-uuid":    now.AddDate(0, 0, -100),
	}
	for uuid, editedOn := range notes {
		n := NewNote(uuid, "user-uuid", uuid, "body", 1, editedOn.UnixNano(), SyncStateSynced)
		if err := n.Insert(db); err != nil {
			t.Fatal(errors.Wrap(err, "inserting note"))
		}
	}

	testCases := []struct {
		period   Period
		expected int
	}{
		{period: PeriodToday, expected: 1},
		{period: PeriodThisWeek, expected: 2},
		{period: PeriodThisMonth, expected: 3},
		{period: PeriodLast30Days, expected: 3},
		{period: PeriodLast90Days, expected: 4},
		{period: PeriodAll, expected: 5},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("period %d", tc.period), func(t *testing.T) {
			got, err := ListNotes(db, c, "user-uuid", Filter{Period: tc.period})
			if err != nil {
				t.Fatal(errors.Wrap(err, "listing notes"))
			}

			assert.Equal(t, len(got), tc.expected, "result length mismatch")
		})
	}
}

func TestListNotesCustomPeriod(t *testing.T) {
	db := InitTestMemoryDB(t)
	c := clock.NewMock()

	from := time.Date(2018, time.August, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2018, time.September, 1, 0, 0, 0, 0, time.UTC)

	n1 := NewNote("inside-uuid", "user-uuid", "n1", "body", 1, from.AddDate(0, 0, 5).UnixNano(), SyncStateSynced)
	if err := n1.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting note"))
	}
	n2 := NewNote("outside-uuid", "user-uuid", "n2", "body", 1, to.AddDate(0, 0, 5).UnixNano(), SyncStateSynced)
	if err := n2.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting note"))
	}

	got, err := ListNotes(db, c, "user-uuid", Filter{Period: PeriodCustom, From: from, To: to})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing notes"))
	}

	assert.Equal(t, len(got), 1, "result length mismatch")
	assert.Equal(t, got[0].UUID, "inside-uuid", "note mismatch")
}

func TestListNotesByCategory(t *testing.T) {
	db := InitTestMemoryDB(t)
	c := clock.NewMock()

	n1 := NewNote("n1-uuid", "user-uuid", "n1", "body", 1, 1, SyncStateSynced)
	if err := n1.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting note"))
	}
	n2 := NewNote("n2-uuid", "user-uuid", "n2", "body", 1, 2, SyncStateSynced)
	if err := n2.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting note"))
	}
	cat := NewCategory("c1-uuid", "user-uuid", "work", "", "", 1, 1, SyncStateSynced)
	if err := cat.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting category"))
	}
	l := NewNoteCategory("l1-uuid", "n1-uuid", "c1-uuid", "user-uuid", 1, SyncStateSynced)
	if err := l.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting link"))
	}

	got, err := ListNotes(db, c, "user-uuid", Filter{CategoryUUID: "c1-uuid"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing notes"))
	}

	assert.Equal(t, len(got), 1, "result length mismatch")
	assert.Equal(t, got[0].UUID, "n1-uuid", "note mismatch")
}

func TestListNotesByCategoryExcludesDeletedLinks(t *testing.T) {
	db := InitTestMemoryDB(t)
	c := clock.NewMock()

	n1 := NewNote("n1-uuid", "user-uuid", "n1", "body", 1, 1, SyncStateSynced)
	if err := n1.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting note"))
	}
	cat := NewCategory("c1-uuid", "user-uuid", "work", "", "", 1, 1, SyncStateSynced)
	if err := cat.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting category"))
	}
	// an unlinked pair leaves a tombstoned row behind
	l := NewNoteCategory("l1-uuid", "n1-uuid", "c1-uuid", "user-uuid", 1, SyncStateDeleted)
	if err := l.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting link"))
	}

	got, err := ListNotes(db, c, "user-uuid", Filter{CategoryUUID: "c1-uuid"})
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing notes"))
	}

	assert.Equal(t, len(got), 0, "result length mismatch")
}

func TestGetCategoryByName(t *testing.T) {
	db := InitTestMemoryDB(t)

	cat := NewCategory("c1-uuid", "user-uuid", "work", "", "", 1, 1, SyncStateSynced)
	if err := cat.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting category"))
	}

	got, err := GetCategoryByName(db, "user-uuid", "work")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting category"))
	}
	assert.Equal(t, got.UUID, "c1-uuid", "uuid mismatch")

	_, err = GetCategoryByName(db, "user-uuid", "personal")
	assert.Equal(t, errors.Cause(err), ErrNotFound, "error mismatch")
}

func TestGetCategoryByNameStorageError(t *testing.T) {
	db := InitTestMemoryDB(t)
	db.Close()

	// a failing store must not masquerade as a missing category
	_, err := GetCategoryByName(db, "user-uuid", "work")
	if err == nil {
		t.Fatal("querying a closed database should have failed")
	}
	assert.NotEqual(t, errors.Cause(err), ErrNotFound, "error mismatch")
}

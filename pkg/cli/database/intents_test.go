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
	"testing"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/assert"
)

func TestListIntentsOrder(t *testing.T) {
	db := InitTestMemoryDB(t)

	for _, i := range []Intent{
		NewIntent("i2-uuid", EntityNote, "n2-uuid", OpUpdate, 20),
		NewIntent("i1-uuid", EntityNote, "n1-uuid", OpCreate, 10),
		NewIntent("i3-uuid", EntityCategory, "c1-uuid", OpDelete, 30),
	} {
		if err := i.Insert(db); err != nil {
			t.Fatal(errors.Wrap(err, "inserting intent"))
		}
	}

	got, err := ListIntents(db)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}

	assert.Equal(t, len(got), 3, "result length mismatch")
	assert.Equal(t, got[0].UUID, "i1-uuid", "first intent mismatch")
	assert.Equal(t, got[1].UUID, "i2-uuid", "second intent mismatch")
	assert.Equal(t, got[2].UUID, "i3-uuid", "third intent mismatch")
}

func TestListEntityIntents(t *testing.T) {
	db := InitTestMemoryDB(t)

	for _, i := range []Intent{
		NewIntent("i1-uuid", EntityNote, "n1-uuid", OpCreate, 10),
		NewIntent("i2-uuid", EntityNote, "n1-uuid", OpUpdate, 20),
		NewIntent("i3-uuid", EntityNote, "n2-uuid", OpUpdate, 30),
	} {
		if err := i.Insert(db); err != nil {
			t.Fatal(errors.Wrap(err, "inserting intent"))
		}
	}

	got, err := ListEntityIntents(db, "n1-uuid")
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}

	assert.Equal(t, len(got), 2, "result length mismatch")
	assert.Equal(t, got[0].Op, OpCreate, "first op mismatch")
	assert.Equal(t, got[1].Op, OpUpdate, "second op mismatch")
}

func TestHasPendingIntent(t *testing.T) {
	db := InitTestMemoryDB(t)

	i := NewIntent("i1-uuid", EntityNote, "n1-uuid", OpUpdate, 10)
	if err := i.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting intent"))
	}

	got, err := HasPendingIntent(db, "n1-uuid")
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking intent"))
	}
	assert.Equal(t, got, true, "pending check mismatch")

	got, err = HasPendingIntent(db, "n2-uuid")
	if err != nil {
		t.Fatal(errors.Wrap(err, "checking intent"))
	}
	assert.Equal(t, got, false, "pending check mismatch")
}

func TestBumpRetry(t *testing.T) {
	db := InitTestMemoryDB(t)

	i := NewIntent("i1-uuid", EntityNote, "n1-uuid", OpUpdate, 10)
	if err := i.Insert(db); err != nil {
		t.Fatal(errors.Wrap(err, "inserting intent"))
	}

	if err := i.BumpRetry(db, 500); err != nil {
		t.Fatal(errors.Wrap(err, "bumping retry"))
	}
	if err := i.BumpRetry(db, 900); err != nil {
		t.Fatal(errors.Wrap(err, "bumping retry again"))
	}

	var retryCount int
	var nextRetryAt int64
	MustScan(t, "getting retry columns",
		db.QueryRow("SELECT retry_count, next_retry_at FROM intents WHERE uuid = ?", "i1-uuid"), &retryCount, &nextRetryAt)

	assert.Equal(t, retryCount, 2, "retry count mismatch")
	assert.Equal(t, nextRetryAt, int64(900), "next retry mismatch")
	assert.Equal(t, i.RetryCount, 2, "in-memory retry count mismatch")
}

func TestExpungeEntityIntents(t *testing.T) {
	db := InitTestMemoryDB(t)

	for _, i := range []Intent{
		NewIntent("i1-uuid", EntityNote, "n1-uuid", OpCreate, 10),
		NewIntent("i2-uuid", EntityNote, "n1-uuid", OpUpdate, 20),
		NewIntent("i3-uuid", EntityNote, "n2-uuid", OpUpdate, 30),
	} {
		if err := i.Insert(db); err != nil {
			t.Fatal(errors.Wrap(err, "inserting intent"))
		}
	}

	if err := ExpungeEntityIntents(db, "n1-uuid"); err != nil {
		t.Fatal(errors.Wrap(err, "expunging intents"))
	}

	var count int
	MustScan(t, "counting remaining intents", db.QueryRow("SELECT count(*) FROM intents"), &count)
	assert.Equal(t, count, 1, "intent count mismatch")
}

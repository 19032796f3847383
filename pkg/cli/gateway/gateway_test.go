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

package gateway

import (
	gocontext "context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/assert"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/media"
	"github.com/vicherarr/memora/pkg/cli/validate"
	"github.com/vicherarr/memora/pkg/clock"
)

const testUserUUID = "user-uuid"

func newTestGateway(t *testing.T) (*Gateway, context.MemoraCtx) {
	db := database.InitTestMemoryDB(t)
	c := clock.NewMock()

	ctx := context.MemoraCtx{
		DB:    db,
		Clock: c,
		Paths: context.Paths{Data: t.TempDir()},
	}

	return New(ctx, testUserUUID, database.NewWatcher(c)), ctx
}

func TestCreateNote(t *testing.T) {
	g, ctx := newTestGateway(t)

	note, err := g.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}

	got, err := database.GetNote(ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.SyncState, database.SyncStatePending, "sync state mismatch")
	assert.Equal(t, got.UserUUID, testUserUUID, "user mismatch")

	intents, err := database.ListEntityIntents(ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 1, "intent count mismatch")
	assert.Equal(t, intents[0].Op, database.OpCreate, "op mismatch")
	assert.Equal(t, intents[0].EntityType, database.EntityNote, "entity type mismatch")
}

func TestCreateNoteInvalid(t *testing.T) {
	g, ctx := newTestGateway(t)

	_, err := g.CreateNote("groceries", "   ")
	assert.Equal(t, errors.Cause(err), validate.ErrNoteBodyEmpty, "error mismatch")

	// rejected input must not touch the store or the queue
	var noteCount, intentCount int
	database.MustScan(t, "counting notes", ctx.DB.QueryRow("SELECT count(*) FROM notes"), &noteCount)
	database.MustScan(t, "counting intents", ctx.DB.QueryRow("SELECT count(*) FROM intents"), &intentCount)
	assert.Equal(t, noteCount, 0, "note count mismatch")
	assert.Equal(t, intentCount, 0, "intent count mismatch")
}

func TestUpdateNote(t *testing.T) {
	g, ctx := newTestGateway(t)

	note, err := g.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}

	// simulate a completed sync
	note.SyncState = database.SyncStateSynced
	if err := note.Update(ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "marking synced"))
	}

	updated, err := g.UpdateNote(note.UUID, "groceries", "eggs, milk and bread")
	if err != nil {
		t.Fatal(errors.Wrap(err, "updating note"))
	}

	assert.Equal(t, updated.SyncState, database.SyncStatePending, "sync state should revert to pending")

	intents, err := database.ListEntityIntents(ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 2, "intent count mismatch")
	assert.Equal(t, intents[1].Op, database.OpUpdate, "op mismatch")
}

func TestDeleteNoteCascade(t *testing.T) {
	g, ctx := newTestGateway(t)

	note, err := g.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	category, err := g.CreateCategory("errands", "", "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating category"))
	}
	link, err := g.LinkCategory(note.UUID, category.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "linking category"))
	}
	attachment, err := g.AttachMedia(gocontext.Background(), note.UUID, func(gocontext.Context) (media.Result, error) {
		return media.Result{Data: []byte("png-bytes"), Filename: "cat.png", Kind: media.KindImage, MimeType: "image/png", Size: 9}, nil
	})
	if err != nil {
		t.Fatal(errors.Wrap(err, "attaching media"))
	}

	if err := g.DeleteNote(note.UUID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting note"))
	}

	gotNote, err := database.GetNote(ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, gotNote.SyncState, database.SyncStateDeleted, "note state mismatch")

	gotAttachment, err := database.GetAttachment(ctx.DB, attachment.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting attachment"))
	}
	assert.Equal(t, gotAttachment.SyncState, database.SyncStateDeleted, "attachment state mismatch")

	_, err = database.GetNoteCategory(ctx.DB, note.UUID, category.UUID)
	assert.Equal(t, errors.Cause(err), database.ErrNotFound, "link should be removed")

	for _, entityUUID := range []string{note.UUID, attachment.UUID, link.UUID} {
		intents, err := database.ListEntityIntents(ctx.DB, entityUUID)
		if err != nil {
			t.Fatal(errors.Wrap(err, "listing intents"))
		}

		var deleteCount int
		for _, i := range intents {
			if i.Op == database.OpDelete {
				deleteCount++
			}
		}
		assert.Equal(t, deleteCount, 1, "delete intent count mismatch")
	}
}

func TestDeleteCategoryCascade(t *testing.T) {
	g, ctx := newTestGateway(t)

	note, err := g.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	category, err := g.CreateCategory("errands", "", "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating category"))
	}
	if _, err := g.LinkCategory(note.UUID, category.UUID); err != nil {
		t.Fatal(errors.Wrap(err, "linking category"))
	}

	if err := g.DeleteCategory(category.UUID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting category"))
	}

	gotCategory, err := database.GetCategory(ctx.DB, category.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting category"))
	}
	assert.Equal(t, gotCategory.SyncState, database.SyncStateDeleted, "category state mismatch")

	_, err = database.GetNoteCategory(ctx.DB, note.UUID, category.UUID)
	assert.Equal(t, errors.Cause(err), database.ErrNotFound, "link should be removed")

	// the note itself is untouched
	gotNote, err := database.GetNote(ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, gotNote.SyncState, database.SyncStatePending, "note state mismatch")
}

func TestRelinkAfterUnlink(t *testing.T) {
	g, ctx := newTestGateway(t)

	note, err := g.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	category, err := g.CreateCategory("errands", "", "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating category"))
	}
	link, err := g.LinkCategory(note.UUID, category.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "linking category"))
	}

	ctx.Clock.(*clock.Mock).Advance(time.Second)
	if err := g.UnlinkCategory(note.UUID, category.UUID); err != nil {
		t.Fatal(errors.Wrap(err, "unlinking category"))
	}

	ctx.Clock.(*clock.Mock).Advance(time.Second)
	relinked, err := g.LinkCategory(note.UUID, category.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "re-linking category"))
	}

	// the tombstoned row is revived rather than duplicated
	assert.Equal(t, relinked.UUID, link.UUID, "link uuid mismatch")

	var rowCount int
	database.MustScan(t, "counting links", ctx.DB.QueryRow("SELECT count(*) FROM note_categories"), &rowCount)
	assert.Equal(t, rowCount, 1, "link row count mismatch")

	got, err := database.GetNoteCategory(ctx.DB, note.UUID, category.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting link"))
	}
	assert.Equal(t, got.SyncState, database.SyncStatePending, "sync state mismatch")

	intents, err := database.ListEntityIntents(ctx.DB, link.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 3, "intent count mismatch")
	assert.Equal(t, intents[2].Op, database.OpCreate, "op mismatch")
}

func TestLinkCategoryIdempotent(t *testing.T) {
	g, ctx := newTestGateway(t)

	note, err := g.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	category, err := g.CreateCategory("errands", "", "")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating category"))
	}
	link, err := g.LinkCategory(note.UUID, category.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "linking category"))
	}

	again, err := g.LinkCategory(note.UUID, category.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "linking category again"))
	}

	assert.Equal(t, again.UUID, link.UUID, "link uuid mismatch")

	intents, err := database.ListEntityIntents(ctx.DB, link.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 1, "a live link must not enqueue again")
}

func TestCreateCategoryInvalid(t *testing.T) {
	g, _ := newTestGateway(t)

	_, err := g.CreateCategory("  ", "", "")
	assert.Equal(t, errors.Cause(err), validate.ErrCategoryNameEmpty, "error mismatch")
}

func TestAttachMediaMissingNote(t *testing.T) {
	g, ctx := newTestGateway(t)

	_, err := g.AttachMedia(gocontext.Background(), "missing-note", func(gocontext.Context) (media.Result, error) {
		t.Fatal("acquisition should not run for a missing note")
		return media.Result{}, nil
	})
	assert.Equal(t, errors.Cause(err), database.ErrNotFound, "error mismatch")

	var count int
	database.MustScan(t, "counting attachments", ctx.DB.QueryRow("SELECT count(*) FROM attachments"), &count)
	assert.Equal(t, count, 0, "attachment count mismatch")
}

func TestAttachMediaDenied(t *testing.T) {
	g, _ := newTestGateway(t)

	note, err := g.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}

	_, err = g.AttachMedia(gocontext.Background(), note.UUID, func(gocontext.Context) (media.Result, error) {
		return media.Result{}, media.ErrDenied
	})
	assert.Equal(t, errors.Cause(err), media.ErrDenied, "error mismatch")
}

func TestWatcherNotifiedAfterCommit(t *testing.T) {
	g, _ := newTestGateway(t)

	ch, cancel := g.watcher.SubscribeNotes()
	defer cancel()

	if _, err := g.CreateNote("groceries", "eggs and milk"); err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}

	got := <-ch
	assert.Equal(t, len(got), 1, "snapshot length mismatch")
	assert.Equal(t, got[0].Title, "groceries", "note mismatch")

	// the snapshot reflects the committed row
	if !strings.Contains(got[0].Body, "eggs") {
		t.Errorf("unexpected body %s", got[0].Body)
	}
}

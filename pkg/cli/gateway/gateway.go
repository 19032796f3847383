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

// Package gateway is the single entry point for local mutations. Every
// accepted mutation writes the entity and enqueues its intent in one
// transaction, so the queue never disagrees with the store.
package gateway

import (
	gocontext "context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/media"
	"github.com/vicherarr/memora/pkg/cli/utils"
	"github.com/vicherarr/memora/pkg/cli/validate"
)

// Gateway validates and applies local mutations for one user
type Gateway struct {
	ctx      context.MemoraCtx
	userUUID string
	watcher  *database.Watcher
}

// New constructs a gateway
func New(ctx context.MemoraCtx, userUUID string, watcher *database.Watcher) *Gateway {
	return &Gateway{
		ctx:      ctx,
		userUUID: userUUID,
		watcher:  watcher,
	}
}

func (g *Gateway) notifyNotes() {
	if g.watcher == nil {
		return
	}

	g.watcher.NotifyNotes(g.ctx.DB, g.userUUID, database.Filter{})
}

func (g *Gateway) notifyCategories() {
	if g.watcher == nil {
		return
	}

	g.watcher.NotifyCategories(g.ctx.DB, g.userUUID)
}

func (g *Gateway) enqueue(tx *database.DB, entityType, entityUUID, op string) error {
	uuid, err := utils.GenerateUUID()
	if err != nil {
		return errors.Wrap(err, "generating intent uuid")
	}

	intent := database.NewIntent(uuid, entityType, entityUUID, op, g.ctx.Clock.Now().UnixNano())
	if err := intent.Insert(tx); err != nil {
		return errors.Wrap(err, "enqueueing intent")
	}

	return nil
}

// CreateNote creates a note with a provisional uuid and queues its upload
func (g *Gateway) CreateNote(title, body string) (database.Note, error) {
	var ret database.Note

	if err := validate.Note(title, body); err != nil {
		return ret, err
	}

	uuid, err := utils.GenerateUUID()
	if err != nil {
		return ret, errors.Wrap(err, "generating note uuid")
	}

	now := g.ctx.Clock.Now().UnixNano()
	note := database.NewNote(uuid, g.userUUID, title, body, now, now, database.SyncStatePending)

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return ret, errors.Wrap(err, "beginning a transaction")
	}

	if err := note.Insert(tx); err != nil {
		tx.Rollback()
		return ret, errors.Wrap(err, "inserting note")
	}
	if err := g.enqueue(tx, database.EntityNote, note.UUID, database.OpCreate); err != nil {
		tx.Rollback()
		return ret, err
	}

	if err := tx.Commit(); err != nil {
		return ret, errors.Wrap(err, "committing a transaction")
	}

	g.notifyNotes()
	return note, nil
}

// UpdateNote updates a note and queues the change
func (g *Gateway) UpdateNote(uuid, title, body string) (database.Note, error) {
	var ret database.Note

	if err := validate.Note(title, body); err != nil {
		return ret, err
	}

	note, err := database.GetNote(g.ctx.DB, uuid)
	if err != nil {
		return ret, errors.Wrap(err, "getting note")
	}

	note.Title = title
	note.Body = body
	note.EditedOn = g.ctx.Clock.Now().UnixNano()
	if note.SyncState == database.SyncStateSynced {
		note.SyncState = database.SyncStatePending
	}

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return ret, errors.Wrap(err, "beginning a transaction")
	}

	if err := note.Update(tx); err != nil {
		tx.Rollback()
		return ret, errors.Wrap(err, "updating note")
	}
	if err := g.enqueue(tx, database.EntityNote, note.UUID, database.OpUpdate); err != nil {
		tx.Rollback()
		return ret, err
	}

	if err := tx.Commit(); err != nil {
		return ret, errors.Wrap(err, "committing a transaction")
	}

	g.notifyNotes()
	return note, nil
}

// DeleteNote marks a note deleted and queues delete intents for the note,
// its attachments and its links, all in one transaction
func (g *Gateway) DeleteNote(uuid string) error {
	note, err := database.GetNote(g.ctx.DB, uuid)
	if err != nil {
		return errors.Wrap(err, "getting note")
	}

	attachments, err := database.ListNoteAttachments(g.ctx.DB, uuid)
	if err != nil {
		return errors.Wrap(err, "listing attachments")
	}
	links, err := database.ListNoteCategories(g.ctx.DB, uuid)
	if err != nil {
		return errors.Wrap(err, "listing links")
	}

	note.SyncState = database.SyncStateDeleted
	note.EditedOn = g.ctx.Clock.Now().UnixNano()

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := note.Update(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "marking note deleted")
	}
	if err := g.enqueue(tx, database.EntityNote, note.UUID, database.OpDelete); err != nil {
		tx.Rollback()
		return err
	}

	for _, a := range attachments {
		a.SyncState = database.SyncStateDeleted
		if err := a.Update(tx); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "marking attachment deleted")
		}
		if err := g.enqueue(tx, database.EntityAttachment, a.UUID, database.OpDelete); err != nil {
			tx.Rollback()
			return err
		}
	}
	for _, l := range links {
		l.SyncState = database.SyncStateDeleted
		if err := l.Update(tx); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "marking link deleted")
		}
		if err := g.enqueue(tx, database.EntityLink, l.UUID, database.OpDelete); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	g.notifyNotes()
	return nil
}

// CreateCategory creates a category and queues its upload
func (g *Gateway) CreateCategory(name, color, icon string) (database.Category, error) {
	var ret database.Category

	if err := validate.CategoryName(name); err != nil {
		return ret, err
	}

	uuid, err := utils.GenerateUUID()
	if err != nil {
		return ret, errors.Wrap(err, "generating category uuid")
	}

	now := g.ctx.Clock.Now().UnixNano()
	category := database.NewCategory(uuid, g.userUUID, name, color, icon, now, now, database.SyncStatePending)

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return ret, errors.Wrap(err, "beginning a transaction")
	}

	if err := category.Insert(tx); err != nil {
		tx.Rollback()
		return ret, errors.Wrap(err, "inserting category")
	}
	if err := g.enqueue(tx, database.EntityCategory, category.UUID, database.OpCreate); err != nil {
		tx.Rollback()
		return ret, err
	}

	if err := tx.Commit(); err != nil {
		return ret, errors.Wrap(err, "committing a transaction")
	}

	g.notifyCategories()
	return category, nil
}

// DeleteCategory marks a category deleted and cascades link deletes
func (g *Gateway) DeleteCategory(uuid string) error {
	category, err := database.GetCategory(g.ctx.DB, uuid)
	if err != nil {
		return errors.Wrap(err, "getting category")
	}

	links, err := database.ListCategoryLinks(g.ctx.DB, uuid)
	if err != nil {
		return errors.Wrap(err, "listing links")
	}

	category.SyncState = database.SyncStateDeleted
	category.EditedOn = g.ctx.Clock.Now().UnixNano()

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := category.Update(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "marking category deleted")
	}
	if err := g.enqueue(tx, database.EntityCategory, category.UUID, database.OpDelete); err != nil {
		tx.Rollback()
		return err
	}

	for _, l := range links {
		l.SyncState = database.SyncStateDeleted
		if err := l.Update(tx); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "marking link deleted")
		}
		if err := g.enqueue(tx, database.EntityLink, l.UUID, database.OpDelete); err != nil {
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	g.notifyCategories()
	g.notifyNotes()
	return nil
}

// LinkCategory attaches a category to a note. Re-linking a pair whose
// unlink tombstone has not drained yet revives the existing row; the unique
// index on the pair forbids a second insert.
func (g *Gateway) LinkCategory(noteUUID, categoryUUID string) (database.NoteCategory, error) {
	var ret database.NoteCategory

	existing, err := database.GetLinkByEndpoints(g.ctx.DB, noteUUID, categoryUUID)
	if err == nil {
		if existing.SyncState != database.SyncStateDeleted {
			return existing, nil
		}

		return g.reviveLink(existing)
	} else if errors.Cause(err) != database.ErrNotFound {
		return ret, errors.Wrap(err, "checking for an existing link")
	}

	uuid, err := utils.GenerateUUID()
	if err != nil {
		return ret, errors.Wrap(err, "generating link uuid")
	}

	link := database.NewNoteCategory(uuid, noteUUID, categoryUUID, g.userUUID, g.ctx.Clock.Now().UnixNano(), database.SyncStatePending)

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return ret, errors.Wrap(err, "beginning a transaction")
	}

	if err := link.Insert(tx); err != nil {
		tx.Rollback()
		return ret, errors.Wrap(err, "inserting link")
	}
	if err := g.enqueue(tx, database.EntityLink, link.UUID, database.OpCreate); err != nil {
		tx.Rollback()
		return ret, err
	}

	if err := tx.Commit(); err != nil {
		return ret, errors.Wrap(err, "committing a transaction")
	}

	g.notifyNotes()
	return link, nil
}

// reviveLink returns a tombstoned link to the pending state and queues it
// for creation again
func (g *Gateway) reviveLink(link database.NoteCategory) (database.NoteCategory, error) {
	var ret database.NoteCategory

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return ret, errors.Wrap(err, "beginning a transaction")
	}

	link.SyncState = database.SyncStatePending
	if err := link.Update(tx); err != nil {
		tx.Rollback()
		return ret, errors.Wrap(err, "reviving link")
	}
	if err := g.enqueue(tx, database.EntityLink, link.UUID, database.OpCreate); err != nil {
		tx.Rollback()
		return ret, err
	}

	if err := tx.Commit(); err != nil {
		return ret, errors.Wrap(err, "committing a transaction")
	}

	g.notifyNotes()
	return link, nil
}

// UnlinkCategory detaches a category from a note
func (g *Gateway) UnlinkCategory(noteUUID, categoryUUID string) error {
	link, err := database.GetNoteCategory(g.ctx.DB, noteUUID, categoryUUID)
	if err != nil {
		return errors.Wrap(err, "getting link")
	}

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	link.SyncState = database.SyncStateDeleted
	if err := link.Update(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "marking link deleted")
	}
	if err := g.enqueue(tx, database.EntityLink, link.UUID, database.OpDelete); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	g.notifyNotes()
	return nil
}

// AttachMedia acquires a binary through the capability, stores it under the
// data directory and records attachment metadata for the note
func (g *Gateway) AttachMedia(ctx gocontext.Context, noteUUID string, acquire func(gocontext.Context) (media.Result, error)) (database.Attachment, error) {
	var ret database.Attachment

	// verify the note before acquiring; acquisition can be expensive
	if _, err := database.GetNote(g.ctx.DB, noteUUID); err != nil {
		return ret, errors.Wrap(err, "getting note")
	}

	result, err := acquire(ctx)
	if err != nil {
		return ret, errors.Wrap(err, "acquiring media")
	}

	uuid, err := utils.GenerateUUID()
	if err != nil {
		return ret, errors.Wrap(err, "generating attachment uuid")
	}

	dir := context.AttachmentDir(g.ctx.Paths)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return ret, errors.Wrap(err, "creating attachment directory")
	}
	path := filepath.Join(dir, uuid)
	if err := ioutil.WriteFile(path, result.Data, 0644); err != nil {
		return ret, errors.Wrap(err, "writing attachment binary")
	}

	attachment := database.NewAttachment(uuid, noteUUID, g.userUUID, result.Filename, result.Kind, result.MimeType, result.Size, g.ctx.Clock.Now().UnixNano(), database.SyncStatePending)

	tx, err := g.ctx.DB.Begin()
	if err != nil {
		return ret, errors.Wrap(err, "beginning a transaction")
	}

	if err := attachment.Insert(tx); err != nil {
		tx.Rollback()
		os.Remove(path)
		return ret, errors.Wrap(err, "inserting attachment")
	}
	if err := g.enqueue(tx, database.EntityAttachment, attachment.UUID, database.OpCreate); err != nil {
		tx.Rollback()
		os.Remove(path)
		return ret, err
	}

	if err := tx.Commit(); err != nil {
		os.Remove(path)
		return ret, errors.Wrap(err, "committing a transaction")
	}

	g.notifyNotes()
	return attachment, nil
}

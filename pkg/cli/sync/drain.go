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

package sync

import (
	"bytes"
	gocontext "context"
	"io/ioutil"
	"os"
	"path/filepath"
	stdsync "sync"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/client"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/session"
)

// Drain pushes queued intents to the server. Entities are dispatched
// concurrently through a semaphore; the intents of one entity collapse to
// a single effective operation beforehand. Without a session the pass
// suspends silently; queued work is not an error.
func (e *Engine) Drain(ctx gocontext.Context) error {
	token, err := e.session.CurrentToken(ctx)
	if err != nil {
		cause := errors.Cause(err)
		if cause == session.ErrNotSignedIn || cause == session.ErrSessionExpired {
			log.Debug("no session; suspending drain\n")
			return nil
		}

		return errors.Wrap(err, "getting session token")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	intents, err := database.ListIntents(e.ctx.DB)
	if err != nil {
		return errors.Wrap(err, "listing intents")
	}
	if len(intents) == 0 {
		return nil
	}

	now := e.ctx.Clock.Now().UnixNano()

	// notes and categories go first so links and attachments enqueued
	// against provisional ids reference adopted server ids by the time
	// they are sent
	var parents, children []effectiveOp
	for _, group := range groupByEntity(intents) {
		op := coalesce(group)
		if op.intent.NextRetryAt > now {
			continue
		}

		if op.entityType == database.EntityNote || op.entityType == database.EntityCategory {
			parents = append(parents, op)
		} else {
			children = append(children, op)
		}
	}

	if err := e.dispatch(ctx, token, parents); err != nil {
		return err
	}
	if err := e.dispatch(ctx, token, children); err != nil {
		return err
	}

	e.notify()
	return nil
}

func (e *Engine) notify() {
	if e.watcher == nil {
		return
	}

	userUUID, _, err := e.session.CurrentUser()
	if err != nil {
		return
	}

	e.watcher.NotifyNotes(e.ctx.DB, userUUID, database.Filter{})
	e.watcher.NotifyCategories(e.ctx.DB, userUUID)
}

func (e *Engine) dispatch(ctx gocontext.Context, token string, ops []effectiveOp) error {
	sem := make(chan struct{}, e.concurrency)
	var wg stdsync.WaitGroup

	var mu stdsync.Mutex
	var firstErr error

	for _, op := range ops {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(op effectiveOp) {
			defer wg.Done()
			defer func() { <-sem }()

			if err := e.process(ctx, token, op); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(op)
	}

	wg.Wait()
	return firstErr
}

// process performs one effective operation and settles its intents
func (e *Engine) process(ctx gocontext.Context, token string, op effectiveOp) error {
	if op.expungeLocal {
		if err := e.expungeEntity(op.entityType, op.entityUUID); err != nil {
			return errors.Wrapf(err, "expunging unsent %s %s", op.entityType, op.entityUUID)
		}

		return database.ExpungeIntents(e.ctx.DB, op.intentUUIDs)
	}

	err := e.send(ctx, token, op)
	if errors.Cause(err) == errSessionEnded {
		log.Debug("session ended mid-drain; discarding result for %s\n", op.entityUUID)
		return nil
	}

	if err == nil {
		return database.ExpungeIntents(e.ctx.DB, op.intentUUIDs)
	}

	// a delete finding nothing remotely already succeeded
	if httpErr, ok := errors.Cause(err).(client.HTTPError); ok && httpErr.IsNotFound() && op.op == database.OpDelete {
		if err := e.expungeEntity(op.entityType, op.entityUUID); err != nil {
			return errors.Wrapf(err, "expunging remotely absent %s %s", op.entityType, op.entityUUID)
		}

		return database.ExpungeIntents(e.ctx.DB, op.intentUUIDs)
	}

	if client.IsTransient(err) {
		if op.intent.RetryCount+1 >= maxRetries {
			log.Debug("retries exhausted for %s %s\n", op.entityType, op.entityUUID)
			return e.markConflict(op, "")
		}

		delay := backoffDelay(op.intent.RetryCount)
		nextRetryAt := e.ctx.Clock.Now().Add(delay).UnixNano()
		if err := op.intent.BumpRetry(e.ctx.DB, nextRetryAt); err != nil {
			return errors.Wrap(err, "recording retry")
		}

		return nil
	}

	log.Debug("definitive rejection for %s %s: %s\n", op.entityType, op.entityUUID, err)
	return e.markConflict(op, err.Error())
}

// errSessionEnded aborts settling when the session changed while a remote
// call was in flight. The call's result never reaches the local store.
var errSessionEnded = errors.New("session ended mid-drain")

// sessionEnded reports a sign-out or expiry that raced a remote call
func (e *Engine) sessionEnded() bool {
	return e.session.State() != session.StateAuthenticated
}

// send performs the remote call for the operation and applies the result
func (e *Engine) send(ctx gocontext.Context, token string, op effectiveOp) error {
	switch op.entityType {
	case database.EntityNote:
		return e.sendNote(token, op)
	case database.EntityCategory:
		return e.sendCategory(token, op)
	case database.EntityLink:
		return e.sendLink(token, op)
	case database.EntityAttachment:
		return e.sendAttachment(token, op)
	default:
		return errors.Errorf("unknown entity type %s", op.entityType)
	}
}

func (e *Engine) sendNote(token string, op effectiveOp) error {
	if op.op == database.OpDelete {
		if err := client.DeleteNote(e.ctx, token, op.entityUUID); err != nil {
			return err
		}
		if e.sessionEnded() {
			return errSessionEnded
		}

		return e.expungeEntity(database.EntityNote, op.entityUUID)
	}

	note, err := database.GetNote(e.ctx.DB, op.entityUUID)
	if err != nil {
		return errors.Wrap(err, "getting note")
	}

	var remote client.RemoteNote
	payload := client.NotePayload{Title: note.Title, Body: note.Body}

	switch op.op {
	case database.OpCreate:
		remote, err = client.CreateNote(e.ctx, token, payload)
	case database.OpUpdate:
		remote, err = client.UpdateNote(e.ctx, token, note.UUID, payload)
	}
	if err != nil {
		return err
	}
	if e.sessionEnded() {
		return errSessionEnded
	}

	tx, err := e.ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if op.op == database.OpCreate && remote.UUID != note.UUID {
		if err := note.UpdateUUID(tx, remote.UUID); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "adopting server id")
		}
	}
	note.ServerUpdatedAt = remote.UpdatedAt
	note.SyncState = database.SyncStateSynced
	if err := note.Update(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "marking note synced")
	}

	return tx.Commit()
}

func (e *Engine) sendCategory(token string, op effectiveOp) error {
	if op.op == database.OpDelete {
		if err := client.DeleteCategory(e.ctx, token, op.entityUUID); err != nil {
			return err
		}
		if e.sessionEnded() {
			return errSessionEnded
		}

		return e.expungeEntity(database.EntityCategory, op.entityUUID)
	}

	category, err := database.GetCategory(e.ctx.DB, op.entityUUID)
	if err != nil {
		return errors.Wrap(err, "getting category")
	}

	var remote client.RemoteCategory
	payload := client.CategoryPayload{Name: category.Name, Color: category.Color, Icon: category.Icon}

	switch op.op {
	case database.OpCreate:
		remote, err = client.CreateCategory(e.ctx, token, payload)
	case database.OpUpdate:
		remote, err = client.UpdateCategory(e.ctx, token, category.UUID, payload)
	}
	if err != nil {
		return err
	}
	if e.sessionEnded() {
		return errSessionEnded
	}

	tx, err := e.ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if op.op == database.OpCreate && remote.UUID != category.UUID {
		if err := category.UpdateUUID(tx, remote.UUID); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "adopting server id")
		}
	}
	category.ServerUpdatedAt = remote.UpdatedAt
	category.SyncState = database.SyncStateSynced
	if err := category.Update(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "marking category synced")
	}

	return tx.Commit()
}

func (e *Engine) sendLink(token string, op effectiveOp) error {
	link, err := database.GetLink(e.ctx.DB, op.entityUUID)
	if errors.Cause(err) == database.ErrNotFound {
		// a reconcile pass expunged the row along with its category;
		// nothing is left to send
		return nil
	} else if err != nil {
		return errors.Wrap(err, "getting link")
	}

	switch op.op {
	case database.OpCreate:
		if err := client.LinkCategory(e.ctx, token, link.NoteUUID, link.CategoryUUID); err != nil {
			return err
		}
		if e.sessionEnded() {
			return errSessionEnded
		}

		link.SyncState = database.SyncStateSynced
		if err := link.Update(e.ctx.DB); err != nil {
			return errors.Wrap(err, "marking link synced")
		}
	case database.OpDelete:
		if err := client.UnlinkCategory(e.ctx, token, link.NoteUUID, link.CategoryUUID); err != nil {
			return err
		}
		if e.sessionEnded() {
			return errSessionEnded
		}
		if err := link.Expunge(e.ctx.DB); err != nil {
			return errors.Wrap(err, "expunging link")
		}
	}

	return nil
}

func (e *Engine) sendAttachment(token string, op effectiveOp) error {
	// the server removes attachment binaries with their note; a delete
	// only needs local cleanup
	if op.op == database.OpDelete {
		return e.expungeEntity(database.EntityAttachment, op.entityUUID)
	}

	attachment, err := database.GetAttachment(e.ctx.DB, op.entityUUID)
	if err != nil {
		return errors.Wrap(err, "getting attachment")
	}

	blobPath := filepath.Join(context.AttachmentDir(e.ctx.Paths), attachment.UUID)
	data, err := ioutil.ReadFile(blobPath)
	if err != nil {
		return errors.Wrap(err, "reading attachment binary")
	}

	remote, err := client.CreateAttachment(e.ctx, token, attachment.NoteUUID, attachment.Filename, attachment.Kind, attachment.MimeType, bytes.NewReader(data))
	if err != nil {
		return err
	}
	if e.sessionEnded() {
		return errSessionEnded
	}

	tx, err := e.ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if remote.UUID != attachment.UUID {
		oldUUID := attachment.UUID
		if err := attachment.UpdateUUID(tx, remote.UUID); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "adopting server id")
		}
		newPath := filepath.Join(context.AttachmentDir(e.ctx.Paths), remote.UUID)
		if err := os.Rename(blobPath, newPath); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "renaming attachment binary %s", oldUUID)
		}
	}
	attachment.ServerUpdatedAt = remote.UpdatedAt
	attachment.SyncState = database.SyncStateSynced
	if err := attachment.Update(tx); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "marking attachment synced")
	}

	return tx.Commit()
}

// expungeEntity removes the local row for an entity, plus the stored blob
// for attachments
func (e *Engine) expungeEntity(entityType, entityUUID string) error {
	switch entityType {
	case database.EntityNote:
		note := database.Note{UUID: entityUUID}
		return note.Expunge(e.ctx.DB)
	case database.EntityCategory:
		category := database.Category{UUID: entityUUID}
		return category.Expunge(e.ctx.DB)
	case database.EntityLink:
		link := database.NoteCategory{UUID: entityUUID}
		return link.Expunge(e.ctx.DB)
	case database.EntityAttachment:
		os.Remove(filepath.Join(context.AttachmentDir(e.ctx.Paths), entityUUID))
		attachment := database.Attachment{UUID: entityUUID}
		return attachment.Expunge(e.ctx.DB)
	default:
		return errors.Errorf("unknown entity type %s", entityType)
	}
}

// markConflict parks the entity in the conflict state and drops its queued
// intents. For notes a diff report is left in the cache directory.
func (e *Engine) markConflict(op effectiveOp, serverMessage string) error {
	switch op.entityType {
	case database.EntityNote:
		note, err := database.GetNote(e.ctx.DB, op.entityUUID)
		if err != nil {
			return errors.Wrap(err, "getting note")
		}

		note.SyncState = database.SyncStateConflict
		if err := note.Update(e.ctx.DB); err != nil {
			return errors.Wrap(err, "marking note conflicted")
		}
		if err := writeConflictReport(e.ctx, note.UUID, note.Body, serverMessage); err != nil {
			log.Debug("writing conflict report: %s\n", err)
		}
	case database.EntityCategory:
		category, err := database.GetCategory(e.ctx.DB, op.entityUUID)
		if err != nil {
			return errors.Wrap(err, "getting category")
		}

		category.SyncState = database.SyncStateConflict
		if err := category.Update(e.ctx.DB); err != nil {
			return errors.Wrap(err, "marking category conflicted")
		}
	case database.EntityLink:
		link, err := database.GetLink(e.ctx.DB, op.entityUUID)
		if err != nil {
			return errors.Wrap(err, "getting link")
		}

		link.SyncState = database.SyncStateConflict
		if err := link.Update(e.ctx.DB); err != nil {
			return errors.Wrap(err, "marking link conflicted")
		}
	case database.EntityAttachment:
		attachment, err := database.GetAttachment(e.ctx.DB, op.entityUUID)
		if err != nil {
			return errors.Wrap(err, "getting attachment")
		}

		attachment.SyncState = database.SyncStateConflict
		if err := attachment.Update(e.ctx.DB); err != nil {
			return errors.Wrap(err, "marking attachment conflicted")
		}
	}

	return database.ExpungeIntents(e.ctx.DB, op.intentUUIDs)
}

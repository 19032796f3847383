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
	gocontext "context"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/client"
	"github.com/vicherarr/memora/pkg/cli/consts"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/session"
)

const reconcilePageSize = 100

// Reconcile pulls the full remote note set page by page, then the category
// listing, and merges them into the local store. Rows with a pending intent
// always win locally; the drain pass settles them against the server.
func (e *Engine) Reconcile(ctx gocontext.Context) error {
	token, err := e.session.CurrentToken(ctx)
	if err != nil {
		cause := errors.Cause(err)
		if cause == session.ErrNotSignedIn || cause == session.ErrSessionExpired {
			log.Debug("no session; suspending reconcile\n")
			return nil
		}

		return errors.Wrap(err, "getting session token")
	}

	userUUID, _, err := e.session.CurrentUser()
	if err != nil {
		return errors.Wrap(err, "getting current user")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	remoteSeen := map[string]bool{}

	for page := 1; ; page++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		resp, err := client.GetNotes(e.ctx, token, page, reconcilePageSize)
		if err != nil {
			return errors.Wrapf(err, "fetching notes page %d", page)
		}

		if e.session.State() != session.StateAuthenticated {
			log.Debug("session ended mid-reconcile; discarding page %d\n", page)
			return nil
		}

		for _, remote := range resp.Notes {
			remoteSeen[remote.UUID] = true

			if err := e.mergeNote(userUUID, remote); err != nil {
				return errors.Wrapf(err, "merging note %s", remote.UUID)
			}
		}

		if !resp.HasNextPage {
			break
		}
	}

	if err := e.expungeRemotelyMissing(userUUID, remoteSeen); err != nil {
		return err
	}

	if err := e.reconcileCategories(token, userUUID); err != nil {
		if errors.Cause(err) == errSessionEnded {
			log.Debug("session ended mid-reconcile; discarding categories\n")
			return nil
		}

		return err
	}

	if err := database.UpdateSystem(e.ctx.DB, consts.SystemLastReconcileAt, e.ctx.Clock.Now().Unix()); err != nil {
		return errors.Wrap(err, "recording reconcile time")
	}

	e.notify()
	return nil
}

// mergeNote folds one remote note into the local store
func (e *Engine) mergeNote(userUUID string, remote client.RemoteNote) error {
	local, err := database.GetNote(e.ctx.DB, remote.UUID)
	if errors.Cause(err) == database.ErrNotFound {
		if remote.Deleted {
			return nil
		}

		// remote-only note; adopt it as synced
		note := database.NewNote(remote.UUID, userUUID, remote.Title, remote.Body, remote.CreatedAt, e.ctx.Clock.Now().UnixNano(), database.SyncStateSynced)
		note.ServerUpdatedAt = remote.UpdatedAt
		if err := note.Insert(e.ctx.DB); err != nil {
			return errors.Wrap(err, "inserting remote note")
		}

		return nil
	} else if err != nil {
		return errors.Wrap(err, "getting local note")
	}

	pending, err := database.HasPendingIntent(e.ctx.DB, remote.UUID)
	if err != nil {
		return errors.Wrap(err, "checking pending intent")
	}

	if remote.Deleted {
		if pending {
			// a local edit raced a remote delete; park it for the user
			local.SyncState = database.SyncStateConflict
			if err := local.Update(e.ctx.DB); err != nil {
				return errors.Wrap(err, "marking note conflicted")
			}
			if err := writeConflictReport(e.ctx, local.UUID, local.Body, ""); err != nil {
				log.Debug("writing conflict report: %s\n", err)
			}

			return database.ExpungeEntityIntents(e.ctx.DB, local.UUID)
		}

		return local.Expunge(e.ctx.DB)
	}

	if remote.UpdatedAt <= local.ServerUpdatedAt {
		return nil
	}
	if pending {
		// local wins; the queued intent carries the local edit out
		return nil
	}

	local.Title = remote.Title
	local.Body = remote.Body
	local.ServerUpdatedAt = remote.UpdatedAt
	local.SyncState = database.SyncStateSynced
	if err := local.Update(e.ctx.DB); err != nil {
		return errors.Wrap(err, "overwriting local note")
	}

	return nil
}

// reconcileCategories merges the remote category listing into the local
// store. The category endpoint serves a flat list; no paging.
func (e *Engine) reconcileCategories(token, userUUID string) error {
	remote, err := client.GetCategories(e.ctx, token)
	if err != nil {
		return errors.Wrap(err, "fetching categories")
	}
	if e.sessionEnded() {
		return errSessionEnded
	}

	remoteSeen := map[string]bool{}
	for _, rc := range remote {
		remoteSeen[rc.UUID] = true

		if err := e.mergeCategory(userUUID, rc); err != nil {
			return errors.Wrapf(err, "merging category %s", rc.UUID)
		}
	}

	return e.expungeRemotelyMissingCategories(userUUID, remoteSeen)
}

// mergeCategory folds one remote category into the local store, following
// the same precedence as notes: pending local edits win, newer remote
// rows overwrite, remote deletes expunge
func (e *Engine) mergeCategory(userUUID string, remote client.RemoteCategory) error {
	local, err := database.GetCategory(e.ctx.DB, remote.UUID)
	if errors.Cause(err) == database.ErrNotFound {
		if remote.Deleted {
			return nil
		}

		category := database.NewCategory(remote.UUID, userUUID, remote.Name, remote.Color, remote.Icon, remote.CreatedAt, e.ctx.Clock.Now().UnixNano(), database.SyncStateSynced)
		category.ServerUpdatedAt = remote.UpdatedAt
		if err := category.Insert(e.ctx.DB); err != nil {
			return errors.Wrap(err, "inserting remote category")
		}

		return nil
	} else if err != nil {
		return errors.Wrap(err, "getting local category")
	}

	pending, err := database.HasPendingIntent(e.ctx.DB, remote.UUID)
	if err != nil {
		return errors.Wrap(err, "checking pending intent")
	}

	if remote.Deleted {
		if pending {
			// a local edit raced a remote delete; park it for the user
			local.SyncState = database.SyncStateConflict
			if err := local.Update(e.ctx.DB); err != nil {
				return errors.Wrap(err, "marking category conflicted")
			}

			return database.ExpungeEntityIntents(e.ctx.DB, local.UUID)
		}

		return e.expungeCategory(local.UUID)
	}

	if remote.UpdatedAt <= local.ServerUpdatedAt {
		return nil
	}
	if pending {
		// local wins; the queued intent carries the local edit out
		return nil
	}

	local.Name = remote.Name
	local.Color = remote.Color
	local.Icon = remote.Icon
	local.ServerUpdatedAt = remote.UpdatedAt
	local.SyncState = database.SyncStateSynced
	if err := local.Update(e.ctx.DB); err != nil {
		return errors.Wrap(err, "overwriting local category")
	}

	return nil
}

// expungeCategory removes a category together with its link rows, matching
// the server-side cascade
func (e *Engine) expungeCategory(uuid string) error {
	if err := database.ExpungeCategoryLinks(e.ctx.DB, uuid); err != nil {
		return err
	}

	category := database.Category{UUID: uuid}
	return category.Expunge(e.ctx.DB)
}

// expungeRemotelyMissingCategories removes local synced categories the
// server no longer has
func (e *Engine) expungeRemotelyMissingCategories(userUUID string, remoteSeen map[string]bool) error {
	categories, err := database.ListCategories(e.ctx.DB, userUUID)
	if err != nil {
		return errors.Wrap(err, "listing categories")
	}

	for _, c := range categories {
		if remoteSeen[c.UUID] || c.SyncState != database.SyncStateSynced {
			continue
		}

		if err := e.expungeCategory(c.UUID); err != nil {
			return errors.Wrapf(err, "expunging category %s", c.UUID)
		}
	}

	return nil
}

// expungeRemotelyMissing removes local synced notes the server no longer
// has; their absence is a remote-origin delete
func (e *Engine) expungeRemotelyMissing(userUUID string, remoteSeen map[string]bool) error {
	notes, err := database.ListNotes(e.ctx.DB, e.ctx.Clock, userUUID, database.Filter{SyncState: database.SyncStateSynced})
	if err != nil {
		return errors.Wrap(err, "listing synced notes")
	}

	for _, n := range notes {
		if remoteSeen[n.UUID] {
			continue
		}

		if err := n.Expunge(e.ctx.DB); err != nil {
			return errors.Wrapf(err, "expunging note %s", n.UUID)
		}
	}

	return nil
}

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
	"net/http"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/assert"
	"github.com/vicherarr/memora/pkg/cli/client"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/gateway"
	"github.com/vicherarr/memora/pkg/cli/session"
	"github.com/vicherarr/memora/pkg/cli/testutils"
	"github.com/vicherarr/memora/pkg/clock"
)

type testEnv struct {
	ctx     context.MemoraCtx
	clock   *clock.Mock
	server  *testutils.Server
	session *session.Manager
	gateway *gateway.Gateway
	engine  *Engine
}

func newTestEnv(t *testing.T) *testEnv {
	server := testutils.NewServer(t)
	c := clock.NewMock()
	db := database.InitTestMemoryDB(t)

	ctx := context.MemoraCtx{
		APIEndpoint:     server.URL,
		DB:              db,
		Clock:           c,
		Paths:           context.Paths{Data: t.TempDir(), Cache: t.TempDir()},
		SyncConcurrency: 1,
	}

	m, err := session.NewManager(ctx, nil)
	if err != nil {
		t.Fatal(errors.Wrap(err, "constructing session manager"))
	}
	if err := m.SignInWithPassword("alice@example.com", "pass1234"); err != nil {
		t.Fatal(errors.Wrap(err, "signing in"))
	}

	watcher := database.NewWatcher(c)

	return &testEnv{
		ctx:     ctx,
		clock:   c,
		server:  server,
		session: m,
		gateway: gateway.New(ctx, testutils.UserUUID, watcher),
		engine:  NewEngine(ctx, m, watcher),
	}
}

func TestDrainCreate(t *testing.T) {
	env := newTestEnv(t)

	note, err := env.gateway.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}

	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}

	// provisional id replaced by the server-assigned one
	_, err = database.GetNote(env.ctx.DB, note.UUID)
	assert.Equal(t, errors.Cause(err), database.ErrNotFound, "provisional row should be gone")

	assert.Equal(t, env.server.NoteCount(), 1, "server note count mismatch")

	var uuid, state string
	var serverUpdatedAt int64
	database.MustScan(t, "getting synced note",
		env.ctx.DB.QueryRow("SELECT uuid, sync_state, server_updated_at FROM notes"), &uuid, &state, &serverUpdatedAt)

	remote, ok := env.server.GetNote(uuid)
	assert.Equal(t, ok, true, "server should hold the note")
	assert.Equal(t, remote.Title, "groceries", "remote title mismatch")
	assert.Equal(t, state, database.SyncStateSynced, "sync state mismatch")
	assert.Equal(t, serverUpdatedAt, remote.UpdatedAt, "server timestamp mismatch")

	intents, err := database.ListIntents(env.ctx.DB)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 0, "intent count mismatch")
}

func TestDrainCreateDeleteCoalesces(t *testing.T) {
	env := newTestEnv(t)

	note, err := env.gateway.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	if err := env.gateway.DeleteNote(note.UUID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting note"))
	}

	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}

	// the note never reached the server
	assert.Equal(t, env.server.NoteCount(), 0, "server note count mismatch")

	var noteCount, intentCount int
	database.MustScan(t, "counting notes", env.ctx.DB.QueryRow("SELECT count(*) FROM notes"), &noteCount)
	database.MustScan(t, "counting intents", env.ctx.DB.QueryRow("SELECT count(*) FROM intents"), &intentCount)
	assert.Equal(t, noteCount, 0, "note count mismatch")
	assert.Equal(t, intentCount, 0, "intent count mismatch")
}

func TestDrainTransientRetry(t *testing.T) {
	env := newTestEnv(t)

	note, err := env.gateway.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}

	env.server.FailNextWith = http.StatusInternalServerError
	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}

	intents, err := database.ListEntityIntents(env.ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 1, "intent count mismatch")
	assert.Equal(t, intents[0].RetryCount, 1, "retry count mismatch")

	// too early; the entity is skipped
	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining early"))
	}
	assert.Equal(t, env.server.NoteCount(), 0, "note should not have been retried yet")

	env.clock.Advance(2 * time.Second)
	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining after backoff"))
	}

	assert.Equal(t, env.server.NoteCount(), 1, "server note count mismatch")

	intents, err = database.ListIntents(env.ctx.DB)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 0, "intent count mismatch")
}

func TestDrainDefinitiveRejection(t *testing.T) {
	env := newTestEnv(t)

	note, err := env.gateway.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}

	env.server.FailNextWith = http.StatusUnprocessableEntity
	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}

	got, err := database.GetNote(env.ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.SyncState, database.SyncStateConflict, "sync state mismatch")

	intents, err := database.ListIntents(env.ctx.DB)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 0, "intents should be dropped on conflict")
}

func TestDrainIdempotent(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.gateway.CreateNote("groceries", "eggs and milk"); err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}

	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}
	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining again"))
	}

	assert.Equal(t, env.server.NoteCount(), 1, "a second drain must not resend")
}

func TestDrainUpdateAfterAdoption(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.gateway.CreateNote("groceries", "eggs and milk"); err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}

	var adoptedUUID string
	database.MustScan(t, "getting adopted uuid", env.ctx.DB.QueryRow("SELECT uuid FROM notes"), &adoptedUUID)

	env.clock.Advance(time.Second)
	if _, err := env.gateway.UpdateNote(adoptedUUID, "groceries", "eggs, milk and bread"); err != nil {
		t.Fatal(errors.Wrap(err, "updating note"))
	}
	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining update"))
	}

	// the edit lands on the adopted row instead of re-creating the note
	assert.Equal(t, env.server.NoteCount(), 1, "server note count mismatch")

	remote, ok := env.server.GetNote(adoptedUUID)
	assert.Equal(t, ok, true, "server should hold the note")
	assert.Equal(t, remote.Body, "eggs, milk and bread", "remote body mismatch")

	intents, err := database.ListIntents(env.ctx.DB)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 0, "intent count mismatch")
}

func TestDrainDiscardsResultAfterSignOut(t *testing.T) {
	env := newTestEnv(t)

	note, err := env.gateway.CreateNote("groceries", "eggs and milk")
	if err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	intents, err := database.ListEntityIntents(env.ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	op := coalesce(intents)

	if err := env.session.SignOut(); err != nil {
		t.Fatal(errors.Wrap(err, "signing out"))
	}

	// the remote call succeeds, but its result must not touch the store
	err = env.engine.sendNote(testutils.Token, op)
	assert.Equal(t, errors.Cause(err), errSessionEnded, "error mismatch")

	got, err := database.GetNote(env.ctx.DB, note.UUID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.SyncState, database.SyncStatePending, "sync state mismatch")
	assert.Equal(t, got.ServerUpdatedAt, int64(0), "server timestamp should be untouched")
}

func TestReconcileRemoteOnly(t *testing.T) {
	env := newTestEnv(t)

	env.server.SetNote(client.RemoteNote{UUID: "srv-n1", Title: "from remote", Body: "remote body", CreatedAt: 7, UpdatedAt: 9})

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	got, err := database.GetNote(env.ctx.DB, "srv-n1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.Title, "from remote", "title mismatch")
	assert.Equal(t, got.SyncState, database.SyncStateSynced, "sync state mismatch")
	assert.Equal(t, got.ServerUpdatedAt, int64(9), "server timestamp mismatch")
}

func TestReconcileRemoteNewerOverwrites(t *testing.T) {
	env := newTestEnv(t)

	local := database.NewNote("srv-n1", testutils.UserUUID, "stale", "stale body", 1, 1, database.SyncStateSynced)
	local.ServerUpdatedAt = 5
	if err := local.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting local note"))
	}
	env.server.SetNote(client.RemoteNote{UUID: "srv-n1", Title: "fresh", Body: "fresh body", UpdatedAt: 9})

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	got, err := database.GetNote(env.ctx.DB, "srv-n1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.Title, "fresh", "title mismatch")
	assert.Equal(t, got.Body, "fresh body", "body mismatch")
	assert.Equal(t, got.ServerUpdatedAt, int64(9), "server timestamp mismatch")
}

func TestReconcilePendingIntentWins(t *testing.T) {
	env := newTestEnv(t)

	local := database.NewNote("srv-n1", testutils.UserUUID, "local edit", "local body", 1, 1, database.SyncStatePending)
	local.ServerUpdatedAt = 5
	if err := local.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting local note"))
	}
	intent := database.NewIntent("i1-uuid", database.EntityNote, "srv-n1", database.OpUpdate, 1)
	if err := intent.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting intent"))
	}
	env.server.SetNote(client.RemoteNote{UUID: "srv-n1", Title: "remote edit", Body: "remote body", UpdatedAt: 9})

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	got, err := database.GetNote(env.ctx.DB, "srv-n1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.Title, "local edit", "local edit should win")
	assert.Equal(t, got.SyncState, database.SyncStatePending, "sync state mismatch")
}

func TestReconcileRemoteMissingExpunges(t *testing.T) {
	env := newTestEnv(t)

	local := database.NewNote("srv-n1", testutils.UserUUID, "gone remotely", "body", 1, 1, database.SyncStateSynced)
	if err := local.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting local note"))
	}

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	_, err := database.GetNote(env.ctx.DB, "srv-n1")
	assert.Equal(t, errors.Cause(err), database.ErrNotFound, "note should be expunged")
}

func TestReconcileRemoteDeletedWithPendingEdit(t *testing.T) {
	env := newTestEnv(t)

	local := database.NewNote("srv-n1", testutils.UserUUID, "local edit", "local body", 1, 1, database.SyncStatePending)
	if err := local.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting local note"))
	}
	intent := database.NewIntent("i1-uuid", database.EntityNote, "srv-n1", database.OpUpdate, 1)
	if err := intent.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting intent"))
	}
	env.server.SetNote(client.RemoteNote{UUID: "srv-n1", Deleted: true, UpdatedAt: 9})

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	got, err := database.GetNote(env.ctx.DB, "srv-n1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
	assert.Equal(t, got.SyncState, database.SyncStateConflict, "sync state mismatch")

	intents, err := database.ListEntityIntents(env.ctx.DB, "srv-n1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 0, "intents should be dropped on conflict")
}

func TestReconcileCategoryRemoteOnly(t *testing.T) {
	env := newTestEnv(t)

	env.server.SetCategory(client.RemoteCategory{UUID: "srv-c1", Name: "errands", Color: "#ff0000", CreatedAt: 7, UpdatedAt: 9})

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	got, err := database.GetCategory(env.ctx.DB, "srv-c1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting category"))
	}
	assert.Equal(t, got.Name, "errands", "name mismatch")
	assert.Equal(t, got.Color, "#ff0000", "color mismatch")
	assert.Equal(t, got.SyncState, database.SyncStateSynced, "sync state mismatch")
	assert.Equal(t, got.ServerUpdatedAt, int64(9), "server timestamp mismatch")
}

func TestReconcileCategoryRemoteNewerOverwrites(t *testing.T) {
	env := newTestEnv(t)

	local := database.NewCategory("srv-c1", testutils.UserUUID, "stale", "", "", 1, 1, database.SyncStateSynced)
	local.ServerUpdatedAt = 5
	if err := local.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting local category"))
	}
	env.server.SetCategory(client.RemoteCategory{UUID: "srv-c1", Name: "fresh", Color: "#00ff00", UpdatedAt: 9})

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	got, err := database.GetCategory(env.ctx.DB, "srv-c1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting category"))
	}
	assert.Equal(t, got.Name, "fresh", "name mismatch")
	assert.Equal(t, got.ServerUpdatedAt, int64(9), "server timestamp mismatch")
}

func TestReconcileCategoryPendingIntentWins(t *testing.T) {
	env := newTestEnv(t)

	local := database.NewCategory("srv-c1", testutils.UserUUID, "local edit", "", "", 1, 1, database.SyncStatePending)
	local.ServerUpdatedAt = 5
	if err := local.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting local category"))
	}
	intent := database.NewIntent("i1-uuid", database.EntityCategory, "srv-c1", database.OpUpdate, 1)
	if err := intent.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting intent"))
	}
	env.server.SetCategory(client.RemoteCategory{UUID: "srv-c1", Name: "remote edit", UpdatedAt: 9})

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	got, err := database.GetCategory(env.ctx.DB, "srv-c1")
	if err != nil {
		t.Fatal(errors.Wrap(err, "getting category"))
	}
	assert.Equal(t, got.Name, "local edit", "local edit should win")
	assert.Equal(t, got.SyncState, database.SyncStatePending, "sync state mismatch")
}

func TestReconcileCategoryRemoteMissingExpunges(t *testing.T) {
	env := newTestEnv(t)

	note := database.NewNote("srv-n1", testutils.UserUUID, "kept", "body", 1, 1, database.SyncStateSynced)
	note.ServerUpdatedAt = 3
	if err := note.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting local note"))
	}
	env.server.SetNote(client.RemoteNote{UUID: "srv-n1", Title: "kept", Body: "body", UpdatedAt: 3})

	category := database.NewCategory("srv-c1", testutils.UserUUID, "gone remotely", "", "", 1, 1, database.SyncStateSynced)
	if err := category.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting local category"))
	}
	link := database.NewNoteCategory("l1-uuid", "srv-n1", "srv-c1", testutils.UserUUID, 1, database.SyncStateSynced)
	if err := link.Insert(env.ctx.DB); err != nil {
		t.Fatal(errors.Wrap(err, "inserting link"))
	}

	if err := env.engine.Reconcile(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "reconciling"))
	}

	_, err := database.GetCategory(env.ctx.DB, "srv-c1")
	assert.Equal(t, errors.Cause(err), database.ErrNotFound, "category should be expunged")

	// the cascade takes the link rows but leaves the note
	var linkCount int
	database.MustScan(t, "counting links", env.ctx.DB.QueryRow("SELECT count(*) FROM note_categories"), &linkCount)
	assert.Equal(t, linkCount, 0, "link count mismatch")

	if _, err := database.GetNote(env.ctx.DB, "srv-n1"); err != nil {
		t.Fatal(errors.Wrap(err, "getting note"))
	}
}

func TestRunRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.gateway.CreateNote("groceries", "eggs and milk"); err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	env.server.SetNote(client.RemoteNote{UUID: "srv-other", Title: "from another device", Body: "remote body", UpdatedAt: 3})

	if err := env.engine.Run(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "running sync"))
	}

	// both directions applied
	assert.Equal(t, env.server.NoteCount(), 2, "server note count mismatch")

	var localCount int
	database.MustScan(t, "counting local notes", env.ctx.DB.QueryRow("SELECT count(*) FROM notes"), &localCount)
	assert.Equal(t, localCount, 2, "local note count mismatch")

	var pendingCount int
	database.MustScan(t, "counting pending rows",
		env.ctx.DB.QueryRow("SELECT count(*) FROM notes WHERE sync_state != ?", database.SyncStateSynced), &pendingCount)
	assert.Equal(t, pendingCount, 0, "all notes should be synced")
}

func TestDrainWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.gateway.CreateNote("groceries", "eggs and milk"); err != nil {
		t.Fatal(errors.Wrap(err, "creating note"))
	}
	if err := env.session.SignOut(); err != nil {
		t.Fatal(errors.Wrap(err, "signing out"))
	}

	// suspends, does not fail; the queue is untouched
	if err := env.engine.Drain(gocontext.Background()); err != nil {
		t.Fatal(errors.Wrap(err, "draining"))
	}

	intents, err := database.ListIntents(env.ctx.DB)
	if err != nil {
		t.Fatal(errors.Wrap(err, "listing intents"))
	}
	assert.Equal(t, len(intents), 1, "intent count mismatch")
	assert.Equal(t, env.server.NoteCount(), 0, "nothing should reach the server")
}

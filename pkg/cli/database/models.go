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

	"github.com/pkg/errors"
)

// Sync states of an entity
const (
	SyncStatePending  = "pending"
	SyncStateSynced   = "synced"
	SyncStateConflict = "conflict"
	SyncStateDeleted  = "deleted"
)

// Entity types referenced by intents
const (
	EntityNote       = "note"
	EntityCategory   = "category"
	EntityLink       = "link"
	EntityAttachment = "attachment"
)

// Media kinds of an attachment
const (
	MediaKindImage = "image"
	MediaKindVideo = "video"
)

// Note represents a note
type Note struct {
	RowID           int    `json:"rowid"`
	UUID            string `json:"uuid"`
	UserUUID        string `json:"user_uuid"`
	Title           string `json:"title"`
	Body            string `json:"body"`
	CreatedAt       int64  `json:"created_at"`
	EditedOn        int64  `json:"edited_on"`
	ServerUpdatedAt int64  `json:"server_updated_at"`
	SyncState       string `json:"sync_state"`
}

// Category holds a label under which notes are organized
type Category struct {
	UUID            string `json:"uuid"`
	UserUUID        string `json:"user_uuid"`
	Name            string `json:"name"`
	Color           string `json:"color"`
	Icon            string `json:"icon"`
	CreatedAt       int64  `json:"created_at"`
	EditedOn        int64  `json:"edited_on"`
	ServerUpdatedAt int64  `json:"server_updated_at"`
	SyncState       string `json:"sync_state"`
}

// NoteCategory is a link between a note and a category. At most one link
// exists per (note, category) pair.
type NoteCategory struct {
	UUID         string `json:"uuid"`
	NoteUUID     string `json:"note_uuid"`
	CategoryUUID string `json:"category_uuid"`
	UserUUID     string `json:"user_uuid"`
	CreatedAt    int64  `json:"created_at"`
	SyncState    string `json:"sync_state"`
}

// Attachment holds metadata for a binary attached to a note. The local
// binary may exist before the remote copy does.
type Attachment struct {
	UUID            string `json:"uuid"`
	NoteUUID        string `json:"note_uuid"`
	UserUUID        string `json:"user_uuid"`
	Filename        string `json:"filename"`
	Kind            string `json:"kind"`
	MimeType        string `json:"mime_type"`
	Size            int64  `json:"size"`
	UploadedAt      int64  `json:"uploaded_at"`
	ServerUpdatedAt int64  `json:"server_updated_at"`
	SyncState       string `json:"sync_state"`
}

// NewNote constructs a note with the given data
func NewNote(uuid, userUUID, title, body string, createdAt, editedOn int64, syncState string) Note {
	return Note{
		UUID:      uuid,
		UserUUID:  userUUID,
		Title:     title,
		Body:      body,
		CreatedAt: createdAt,
		EditedOn:  editedOn,
		SyncState: syncState,
	}
}

// Insert inserts a new note
func (n Note) Insert(db *DB) error {
	_, err := db.Exec("INSERT INTO notes (uuid, user_uuid, title, body, created_at, edited_on, server_updated_at, sync_state) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		n.UUID, n.UserUUID, n.Title, n.Body, n.CreatedAt, n.EditedOn, n.ServerUpdatedAt, n.SyncState)
	if err != nil {
		return errors.Wrapf(err, "inserting note with uuid %s", n.UUID)
	}

	return nil
}

// Update updates the note with the given data
func (n Note) Update(db *DB) error {
	_, err := db.Exec("UPDATE notes SET title = ?, body = ?, edited_on = ?, server_updated_at = ?, sync_state = ? WHERE uuid = ?",
		n.Title, n.Body, n.EditedOn, n.ServerUpdatedAt, n.SyncState, n.UUID)
	if err != nil {
		return errors.Wrapf(err, "updating the note with uuid %s", n.UUID)
	}

	return nil
}

// UpdateUUID replaces the provisional uuid of a note with the server-assigned
// one, rewriting references held by attachments and links
func (n *Note) UpdateUUID(db *DB, newUUID string) error {
	if _, err := db.Exec("UPDATE notes SET uuid = ? WHERE uuid = ?", newUUID, n.UUID); err != nil {
		return errors.Wrapf(err, "updating note uuid from '%s' to '%s'", n.UUID, newUUID)
	}
	if _, err := db.Exec("UPDATE attachments SET note_uuid = ? WHERE note_uuid = ?", newUUID, n.UUID); err != nil {
		return errors.Wrapf(err, "updating attachment references to note %s", n.UUID)
	}
	if _, err := db.Exec("UPDATE note_categories SET note_uuid = ? WHERE note_uuid = ?", newUUID, n.UUID); err != nil {
		return errors.Wrapf(err, "updating link references to note %s", n.UUID)
	}
	if _, err := db.Exec("UPDATE intents SET entity_uuid = ? WHERE entity_uuid = ?", newUUID, n.UUID); err != nil {
		return errors.Wrapf(err, "updating intent references to note %s", n.UUID)
	}

	n.UUID = newUUID

	return nil
}

// Expunge hard-deletes the note from the database
func (n Note) Expunge(db *DB) error {
	_, err := db.Exec("DELETE FROM notes WHERE uuid = ?", n.UUID)
	if err != nil {
		return errors.Wrap(err, "expunging a note locally")
	}

	return nil
}

// GetNote retrieves a note by uuid
func GetNote(db *DB, uuid string) (Note, error) {
	var n Note
	err := db.QueryRow("SELECT uuid, user_uuid, title, body, created_at, edited_on, server_updated_at, sync_state FROM notes WHERE uuid = ?", uuid).
		Scan(&n.UUID, &n.UserUUID, &n.Title, &n.Body, &n.CreatedAt, &n.EditedOn, &n.ServerUpdatedAt, &n.SyncState)
	if err == sql.ErrNoRows {
		return n, errors.Wrapf(ErrNotFound, "note %s", uuid)
	} else if err != nil {
		return n, errors.Wrapf(err, "getting note %s", uuid)
	}

	return n, nil
}

// NewCategory constructs a category with the given data
func NewCategory(uuid, userUUID, name, color, icon string, createdAt, editedOn int64, syncState string) Category {
	return Category{
		UUID:      uuid,
		UserUUID:  userUUID,
		Name:      name,
		Color:     color,
		Icon:      icon,
		CreatedAt: createdAt,
		EditedOn:  editedOn,
		SyncState: syncState,
	}
}

// Insert inserts a new category
func (c Category) Insert(db *DB) error {
	_, err := db.Exec("INSERT INTO categories (uuid, user_uuid, name, color, icon, created_at, edited_on, server_updated_at, sync_state) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		c.UUID, c.UserUUID, c.Name, c.Color, c.Icon, c.CreatedAt, c.EditedOn, c.ServerUpdatedAt, c.SyncState)
	if err != nil {
		return errors.Wrapf(err, "inserting category with uuid %s", c.UUID)
	}

	return nil
}

// Update updates the category with the given data
func (c Category) Update(db *DB) error {
	_, err := db.Exec("UPDATE categories SET name = ?, color = ?, icon = ?, edited_on = ?, server_updated_at = ?, sync_state = ? WHERE uuid = ?",
		c.Name, c.Color, c.Icon, c.EditedOn, c.ServerUpdatedAt, c.SyncState, c.UUID)
	if err != nil {
		return errors.Wrapf(err, "updating the category with uuid %s", c.UUID)
	}

	return nil
}

// UpdateUUID replaces the provisional uuid of a category with the
// server-assigned one, rewriting references held by links
func (c *Category) UpdateUUID(db *DB, newUUID string) error {
	if _, err := db.Exec("UPDATE categories SET uuid = ? WHERE uuid = ?", newUUID, c.UUID); err != nil {
		return errors.Wrapf(err, "updating category uuid from '%s' to '%s'", c.UUID, newUUID)
	}
	if _, err := db.Exec("UPDATE note_categories SET category_uuid = ? WHERE category_uuid = ?", newUUID, c.UUID); err != nil {
		return errors.Wrapf(err, "updating link references to category %s", c.UUID)
	}
	if _, err := db.Exec("UPDATE intents SET entity_uuid = ? WHERE entity_uuid = ?", newUUID, c.UUID); err != nil {
		return errors.Wrapf(err, "updating intent references to category %s", c.UUID)
	}

	c.UUID = newUUID

	return nil
}

// Expunge hard-deletes the category from the database
func (c Category) Expunge(db *DB) error {
	_, err := db.Exec("DELETE FROM categories WHERE uuid = ?", c.UUID)
	if err != nil {
		return errors.Wrap(err, "expunging a category locally")
	}

	return nil
}

// GetCategory retrieves a category by uuid
func GetCategory(db *DB, uuid string) (Category, error) {
	var c Category
	err := db.QueryRow("SELECT uuid, user_uuid, name, color, icon, created_at, edited_on, server_updated_at, sync_state FROM categories WHERE uuid = ?", uuid).
		Scan(&c.UUID, &c.UserUUID, &c.Name, &c.Color, &c.Icon, &c.CreatedAt, &c.EditedOn, &c.ServerUpdatedAt, &c.SyncState)
	if err == sql.ErrNoRows {
		return c, errors.Wrapf(ErrNotFound, "category %s", uuid)
	} else if err != nil {
		return c, errors.Wrapf(err, "getting category %s", uuid)
	}

	return c, nil
}

// NewNoteCategory constructs a link between a note and a category
func NewNoteCategory(uuid, noteUUID, categoryUUID, userUUID string, createdAt int64, syncState string) NoteCategory {
	return NoteCategory{
		UUID:         uuid,
		NoteUUID:     noteUUID,
		CategoryUUID: categoryUUID,
		UserUUID:     userUUID,
		CreatedAt:    createdAt,
		SyncState:    syncState,
	}
}

// Insert inserts a new link. It fails with ErrIntegrityViolation if either
// end of the link does not exist.
func (l NoteCategory) Insert(db *DB) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM notes WHERE uuid = ?", l.NoteUUID).Scan(&count); err != nil {
		return errors.Wrapf(err, "checking note %s", l.NoteUUID)
	}
	if count == 0 {
		return errors.Wrapf(ErrIntegrityViolation, "link references missing note %s", l.NoteUUID)
	}
	if err := db.QueryRow("SELECT count(*) FROM categories WHERE uuid = ?", l.CategoryUUID).Scan(&count); err != nil {
		return errors.Wrapf(err, "checking category %s", l.CategoryUUID)
	}
	if count == 0 {
		return errors.Wrapf(ErrIntegrityViolation, "link references missing category %s", l.CategoryUUID)
	}

	_, err := db.Exec("INSERT INTO note_categories (uuid, note_uuid, category_uuid, user_uuid, created_at, sync_state) VALUES (?, ?, ?, ?, ?, ?)",
		l.UUID, l.NoteUUID, l.CategoryUUID, l.UserUUID, l.CreatedAt, l.SyncState)
	if err != nil {
		return errors.Wrapf(err, "inserting link with uuid %s", l.UUID)
	}

	return nil
}

// Update updates the sync state of the link
func (l NoteCategory) Update(db *DB) error {
	_, err := db.Exec("UPDATE note_categories SET sync_state = ? WHERE uuid = ?", l.SyncState, l.UUID)
	if err != nil {
		return errors.Wrapf(err, "updating the link with uuid %s", l.UUID)
	}

	return nil
}

// Expunge hard-deletes the link from the database
func (l NoteCategory) Expunge(db *DB) error {
	_, err := db.Exec("DELETE FROM note_categories WHERE uuid = ?", l.UUID)
	if err != nil {
		return errors.Wrap(err, "expunging a link locally")
	}

	return nil
}

// GetNoteCategory retrieves a live link by the (note, category) pair
func GetNoteCategory(db *DB, noteUUID, categoryUUID string) (NoteCategory, error) {
	var l NoteCategory
	err := db.QueryRow("SELECT uuid, note_uuid, category_uuid, user_uuid, created_at, sync_state FROM note_categories WHERE note_uuid = ? AND category_uuid = ? AND sync_state != ?", noteUUID, categoryUUID, SyncStateDeleted).
		Scan(&l.UUID, &l.NoteUUID, &l.CategoryUUID, &l.UserUUID, &l.CreatedAt, &l.SyncState)
	if err == sql.ErrNoRows {
		return l, errors.Wrapf(ErrNotFound, "link %s-%s", noteUUID, categoryUUID)
	} else if err != nil {
		return l, errors.Wrapf(err, "getting link %s-%s", noteUUID, categoryUUID)
	}

	return l, nil
}

// GetLinkByEndpoints retrieves the link row for the (note, category) pair
// regardless of its sync state
func GetLinkByEndpoints(db *DB, noteUUID, categoryUUID string) (NoteCategory, error) {
	var l NoteCategory
	err := db.QueryRow("SELECT uuid, note_uuid, category_uuid, user_uuid, created_at, sync_state FROM note_categories WHERE note_uuid = ? AND category_uuid = ?", noteUUID, categoryUUID).
		Scan(&l.UUID, &l.NoteUUID, &l.CategoryUUID, &l.UserUUID, &l.CreatedAt, &l.SyncState)
	if err == sql.ErrNoRows {
		return l, errors.Wrapf(ErrNotFound, "link %s-%s", noteUUID, categoryUUID)
	} else if err != nil {
		return l, errors.Wrapf(err, "getting link %s-%s", noteUUID, categoryUUID)
	}

	return l, nil
}

// GetLink retrieves a link by uuid, deleted or not
func GetLink(db *DB, uuid string) (NoteCategory, error) {
	var l NoteCategory
	err := db.QueryRow("SELECT uuid, note_uuid, category_uuid, user_uuid, created_at, sync_state FROM note_categories WHERE uuid = ?", uuid).
		Scan(&l.UUID, &l.NoteUUID, &l.CategoryUUID, &l.UserUUID, &l.CreatedAt, &l.SyncState)
	if err == sql.ErrNoRows {
		return l, errors.Wrapf(ErrNotFound, "link %s", uuid)
	} else if err != nil {
		return l, errors.Wrapf(err, "getting link %s", uuid)
	}

	return l, nil
}

// ListNoteCategories retrieves the live links attached to the given note
func ListNoteCategories(db *DB, noteUUID string) ([]NoteCategory, error) {
	rows, err := db.Query("SELECT uuid, note_uuid, category_uuid, user_uuid, created_at, sync_state FROM note_categories WHERE note_uuid = ? AND sync_state != ?", noteUUID, SyncStateDeleted)
	if err != nil {
		return nil, errors.Wrapf(err, "querying links for note %s", noteUUID)
	}
	defer rows.Close()

	var ret []NoteCategory
	for rows.Next() {
		var l NoteCategory
		if err := rows.Scan(&l.UUID, &l.NoteUUID, &l.CategoryUUID, &l.UserUUID, &l.CreatedAt, &l.SyncState); err != nil {
			return nil, errors.Wrap(err, "scanning a link row")
		}
		ret = append(ret, l)
	}

	return ret, nil
}

// ExpungeCategoryLinks removes every link row referencing the category,
// deleted or not
func ExpungeCategoryLinks(db *DB, categoryUUID string) error {
	if _, err := db.Exec("DELETE FROM note_categories WHERE category_uuid = ?", categoryUUID); err != nil {
		return errors.Wrapf(err, "expunging links for category %s", categoryUUID)
	}

	return nil
}

// ListCategoryLinks retrieves the live links attached to the given category
func ListCategoryLinks(db *DB, categoryUUID string) ([]NoteCategory, error) {
	rows, err := db.Query("SELECT uuid, note_uuid, category_uuid, user_uuid, created_at, sync_state FROM note_categories WHERE category_uuid = ? AND sync_state != ?", categoryUUID, SyncStateDeleted)
	if err != nil {
		return nil, errors.Wrapf(err, "querying links for category %s", categoryUUID)
	}
	defer rows.Close()

	var ret []NoteCategory
	for rows.Next() {
		var l NoteCategory
		if err := rows.Scan(&l.UUID, &l.NoteUUID, &l.CategoryUUID, &l.UserUUID, &l.CreatedAt, &l.SyncState); err != nil {
			return nil, errors.Wrap(err, "scanning a link row")
		}
		ret = append(ret, l)
	}

	return ret, nil
}

// NewAttachment constructs an attachment with the given data
func NewAttachment(uuid, noteUUID, userUUID, filename, kind, mimeType string, size, uploadedAt int64, syncState string) Attachment {
	return Attachment{
		UUID:       uuid,
		NoteUUID:   noteUUID,
		UserUUID:   userUUID,
		Filename:   filename,
		Kind:       kind,
		MimeType:   mimeType,
		Size:       size,
		UploadedAt: uploadedAt,
		SyncState:  syncState,
	}
}

// Insert inserts a new attachment. Attachments are never orphaned: the
// referenced note must exist, or the write fails with ErrIntegrityViolation.
func (a Attachment) Insert(db *DB) error {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM notes WHERE uuid = ?", a.NoteUUID).Scan(&count); err != nil {
		return errors.Wrapf(err, "checking note %s", a.NoteUUID)
	}
	if count == 0 {
		return errors.Wrapf(ErrIntegrityViolation, "attachment references missing note %s", a.NoteUUID)
	}

	_, err := db.Exec("INSERT INTO attachments (uuid, note_uuid, user_uuid, filename, kind, mime_type, size, uploaded_at, server_updated_at, sync_state) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		a.UUID, a.NoteUUID, a.UserUUID, a.Filename, a.Kind, a.MimeType, a.Size, a.UploadedAt, a.ServerUpdatedAt, a.SyncState)
	if err != nil {
		return errors.Wrapf(err, "inserting attachment with uuid %s", a.UUID)
	}

	return nil
}

// Update updates the attachment with the given data
func (a Attachment) Update(db *DB) error {
	_, err := db.Exec("UPDATE attachments SET filename = ?, kind = ?, mime_type = ?, size = ?, server_updated_at = ?, sync_state = ? WHERE uuid = ?",
		a.Filename, a.Kind, a.MimeType, a.Size, a.ServerUpdatedAt, a.SyncState, a.UUID)
	if err != nil {
		return errors.Wrapf(err, "updating the attachment with uuid %s", a.UUID)
	}

	return nil
}

// UpdateUUID replaces the provisional uuid of an attachment with the
// server-assigned one
func (a *Attachment) UpdateUUID(db *DB, newUUID string) error {
	if _, err := db.Exec("UPDATE attachments SET uuid = ? WHERE uuid = ?", newUUID, a.UUID); err != nil {
		return errors.Wrapf(err, "updating attachment uuid from '%s' to '%s'", a.UUID, newUUID)
	}
	if _, err := db.Exec("UPDATE intents SET entity_uuid = ? WHERE entity_uuid = ?", newUUID, a.UUID); err != nil {
		return errors.Wrapf(err, "updating intent references to attachment %s", a.UUID)
	}

	a.UUID = newUUID

	return nil
}

// Expunge hard-deletes the attachment from the database
func (a Attachment) Expunge(db *DB) error {
	_, err := db.Exec("DELETE FROM attachments WHERE uuid = ?", a.UUID)
	if err != nil {
		return errors.Wrap(err, "expunging an attachment locally")
	}

	return nil
}

// GetAttachment retrieves an attachment by uuid
func GetAttachment(db *DB, uuid string) (Attachment, error) {
	var a Attachment
	err := db.QueryRow("SELECT uuid, note_uuid, user_uuid, filename, kind, mime_type, size, uploaded_at, server_updated_at, sync_state FROM attachments WHERE uuid = ?", uuid).
		Scan(&a.UUID, &a.NoteUUID, &a.UserUUID, &a.Filename, &a.Kind, &a.MimeType, &a.Size, &a.UploadedAt, &a.ServerUpdatedAt, &a.SyncState)
	if err == sql.ErrNoRows {
		return a, errors.Wrapf(ErrNotFound, "attachment %s", uuid)
	} else if err != nil {
		return a, errors.Wrapf(err, "getting attachment %s", uuid)
	}

	return a, nil
}

// ListNoteAttachments retrieves the attachments of the given note
func ListNoteAttachments(db *DB, noteUUID string) ([]Attachment, error) {
	rows, err := db.Query("SELECT uuid, note_uuid, user_uuid, filename, kind, mime_type, size, uploaded_at, server_updated_at, sync_state FROM attachments WHERE note_uuid = ?", noteUUID)
	if err != nil {
		return nil, errors.Wrapf(err, "querying attachments for note %s", noteUUID)
	}
	defer rows.Close()

	var ret []Attachment
	for rows.Next() {
		var a Attachment
		if err := rows.Scan(&a.UUID, &a.NoteUUID, &a.UserUUID, &a.Filename, &a.Kind, &a.MimeType, &a.Size, &a.UploadedAt, &a.ServerUpdatedAt, &a.SyncState); err != nil {
			return nil, errors.Wrap(err, "scanning an attachment row")
		}
		ret = append(ret, a)
	}

	return ret, nil
}

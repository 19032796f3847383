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

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/context"
)

// RemoteNote is a note as represented by the server
type RemoteNote struct {
	UUID      string `json:"uuid"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	Deleted   bool   `json:"deleted"`
}

// NotesPage is one page of the paginated note listing
type NotesPage struct {
	Notes       []RemoteNote `json:"notes"`
	TotalCount  int          `json:"totalCount"`
	Page        int          `json:"page"`
	PageSize    int          `json:"pageSize"`
	HasNextPage bool         `json:"hasNextPage"`
}

// NotePayload is a payload for creating or updating a note
type NotePayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// GetNotes retrieves one page of the user's notes
func GetNotes(ctx context.MemoraCtx, token string, page, pageSize int) (NotesPage, error) {
	var ret NotesPage

	q := url.Values{}
	q.Set("page", fmt.Sprintf("%d", page))
	q.Set("pageSize", fmt.Sprintf("%d", pageSize))

	res, err := doAuthorizedReq(ctx, token, "GET", fmt.Sprintf("/notes?%s", q.Encode()), nil)
	if err != nil {
		return ret, errors.Wrap(err, "fetching notes")
	}
	if err := decodeJSON(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding notes page")
	}

	return ret, nil
}

// CreateNote creates a note on the server
func CreateNote(ctx context.MemoraCtx, token string, payload NotePayload) (RemoteNote, error) {
	var ret RemoteNote

	b, err := json.Marshal(payload)
	if err != nil {
		return ret, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, token, "POST", "/notes", bytes.NewReader(b))
	if err != nil {
		return ret, errors.Wrap(err, "creating a note")
	}
	if err := decodeJSON(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding create note response")
	}

	return ret, nil
}

// UpdateNote updates a note on the server
func UpdateNote(ctx context.MemoraCtx, token, uuid string, payload NotePayload) (RemoteNote, error) {
	var ret RemoteNote

	b, err := json.Marshal(payload)
	if err != nil {
		return ret, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, token, "PUT", fmt.Sprintf("/notes/%s", uuid), bytes.NewReader(b))
	if err != nil {
		return ret, errors.Wrap(err, "updating a note")
	}
	if err := decodeJSON(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding update note response")
	}

	return ret, nil
}

// DeleteNote removes a note on the server
func DeleteNote(ctx context.MemoraCtx, token, uuid string) error {
	res, err := doAuthorizedReq(ctx, token, "DELETE", fmt.Sprintf("/notes/%s", uuid), nil)
	if err != nil {
		return errors.Wrap(err, "deleting a note")
	}
	defer res.Body.Close()

	return nil
}

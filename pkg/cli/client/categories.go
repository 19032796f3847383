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

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/context"
)

// RemoteCategory is a category as represented by the server
type RemoteCategory struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Icon      string `json:"icon"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
	Deleted   bool   `json:"deleted"`
}

// CategoryPayload is a payload for creating or updating a category
type CategoryPayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// GetCategories retrieves all of the user's categories
func GetCategories(ctx context.MemoraCtx, token string) ([]RemoteCategory, error) {
	res, err := doAuthorizedReq(ctx, token, "GET", "/categories", nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetching categories")
	}

	var ret []RemoteCategory
	if err := decodeJSON(res, &ret); err != nil {
		return nil, errors.Wrap(err, "decoding categories")
	}

	return ret, nil
}

// CreateCategory creates a category on the server
func CreateCategory(ctx context.MemoraCtx, token string, payload CategoryPayload) (RemoteCategory, error) {
	var ret RemoteCategory

	b, err := json.Marshal(payload)
	if err != nil {
		return ret, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, token, "POST", "/categories", bytes.NewReader(b))
	if err != nil {
		return ret, errors.Wrap(err, "creating a category")
	}
	if err := decodeJSON(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding create category response")
	}

	return ret, nil
}

// UpdateCategory updates a category on the server
func UpdateCategory(ctx context.MemoraCtx, token, uuid string, payload CategoryPayload) (RemoteCategory, error) {
	var ret RemoteCategory

	b, err := json.Marshal(payload)
	if err != nil {
		return ret, errors.Wrap(err, "marshaling payload")
	}

	res, err := doAuthorizedReq(ctx, token, "PUT", fmt.Sprintf("/categories/%s", uuid), bytes.NewReader(b))
	if err != nil {
		return ret, errors.Wrap(err, "updating a category")
	}
	if err := decodeJSON(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding update category response")
	}

	return ret, nil
}

// DeleteCategory removes a category on the server
func DeleteCategory(ctx context.MemoraCtx, token, uuid string) error {
	res, err := doAuthorizedReq(ctx, token, "DELETE", fmt.Sprintf("/categories/%s", uuid), nil)
	if err != nil {
		return errors.Wrap(err, "deleting a category")
	}
	defer res.Body.Close()

	return nil
}

// LinkCategory attaches a category to a note on the server
func LinkCategory(ctx context.MemoraCtx, token, noteUUID, categoryUUID string) error {
	res, err := doAuthorizedReq(ctx, token, "POST", fmt.Sprintf("/notes/%s/categories/%s", noteUUID, categoryUUID), nil)
	if err != nil {
		return errors.Wrap(err, "linking a category")
	}
	defer res.Body.Close()

	return nil
}

// UnlinkCategory detaches a category from a note on the server
func UnlinkCategory(ctx context.MemoraCtx, token, noteUUID, categoryUUID string) error {
	res, err := doAuthorizedReq(ctx, token, "DELETE", fmt.Sprintf("/notes/%s/categories/%s", noteUUID, categoryUUID), nil)
	if err != nil {
		return errors.Wrap(err, "unlinking a category")
	}
	defer res.Body.Close()

	return nil
}

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
	"fmt"
	"io"
	"io/ioutil"
	"mime/multipart"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/context"
)

// RemoteAttachment is attachment metadata as represented by the server
type RemoteAttachment struct {
	UUID      string `json:"uuid"`
	NoteUUID  string `json:"note_uuid"`
	Filename  string `json:"filename"`
	Kind      string `json:"kind"`
	MimeType  string `json:"mime_type"`
	Size      int64  `json:"size"`
	UpdatedAt int64  `json:"updated_at"`
}

// CreateAttachment uploads a binary for the given note along with its
// metadata as a multipart request
func CreateAttachment(ctx context.MemoraCtx, token, noteUUID, filename, kind, mimeType string, data io.Reader) (RemoteAttachment, error) {
	var ret RemoteAttachment

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return ret, errors.Wrap(err, "creating multipart file field")
	}
	if _, err := io.Copy(part, data); err != nil {
		return ret, errors.Wrap(err, "copying attachment data")
	}
	if err := mw.WriteField("kind", kind); err != nil {
		return ret, errors.Wrap(err, "writing kind field")
	}
	if err := mw.WriteField("mime_type", mimeType); err != nil {
		return ret, errors.Wrap(err, "writing mime_type field")
	}
	if err := mw.Close(); err != nil {
		return ret, errors.Wrap(err, "closing multipart writer")
	}

	path := fmt.Sprintf("/notes/%s/attachments", noteUUID)
	req, err := newAuthorizedMultipartReq(ctx, token, path, mw.FormDataContentType(), &buf)
	if err != nil {
		return ret, err
	}

	res, err := getHTTPClient(ctx).Do(req)
	if err != nil {
		return ret, errors.Wrap(err, "uploading an attachment")
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		defer res.Body.Close()

		b, err := ioutil.ReadAll(res.Body)
		if err != nil {
			return ret, errors.Wrap(err, "reading error response body")
		}

		return ret, HTTPError{StatusCode: res.StatusCode, Body: string(b)}
	}
	if err := decodeJSON(res, &ret); err != nil {
		return ret, errors.Wrap(err, "decoding attachment response")
	}

	return ret, nil
}

// GetAttachment downloads the binary of the given attachment
func GetAttachment(ctx context.MemoraCtx, token, uuid string) ([]byte, error) {
	res, err := doAuthorizedReq(ctx, token, "GET", fmt.Sprintf("/attachments/%s", uuid), nil)
	if err != nil {
		return nil, errors.Wrap(err, "downloading an attachment")
	}
	defer res.Body.Close()

	b, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading attachment body")
	}

	return b, nil
}

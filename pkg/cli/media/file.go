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

package media

import (
	"context"
	"io/ioutil"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileCapability reads media from the local filesystem. The CLI has no
// camera, so capture operations fail with ErrUnavailable.
type FileCapability struct {
	// ImagePath and VideoPath point at the files the pick operations read
	ImagePath string
	VideoPath string
}

func readFile(path, kind string) (Result, error) {
	if path == "" {
		return Result{}, ErrUnavailable
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Result{}, errors.Wrapf(err, "reading media file %s", path)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = http.DetectContentType(data)
	}
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = mimeType[:idx]
	}

	return Result{
		Data:     data,
		Filename: filepath.Base(path),
		Kind:     kind,
		MimeType: mimeType,
		Size:     int64(len(data)),
	}, nil
}

// CapturePhoto fails because the CLI has no camera
func (c FileCapability) CapturePhoto(ctx context.Context) (Result, error) {
	return Result{}, ErrUnavailable
}

// RecordVideo fails because the CLI has no camera
func (c FileCapability) RecordVideo(ctx context.Context) (Result, error) {
	return Result{}, ErrUnavailable
}

// PickImage reads the configured image file
func (c FileCapability) PickImage(ctx context.Context) (Result, error) {
	return readFile(c.ImagePath, KindImage)
}

// PickVideo reads the configured video file
func (c FileCapability) PickVideo(ctx context.Context) (Result, error) {
	return readFile(c.VideoPath, KindVideo)
}

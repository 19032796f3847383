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
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/assert"
)

func TestFileCapabilityPickImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cat.png")
	if err := ioutil.WriteFile(path, []byte("png-bytes"), 0644); err != nil {
		t.Fatal(errors.Wrap(err, "writing fixture"))
	}

	c := FileCapability{ImagePath: path}

	got, err := c.PickImage(context.Background())
	if err != nil {
		t.Fatal(errors.Wrap(err, "picking image"))
	}

	assert.Equal(t, got.Filename, "cat.png", "filename mismatch")
	assert.Equal(t, got.Kind, KindImage, "kind mismatch")
	assert.Equal(t, got.MimeType, "image/png", "mime type mismatch")
	assert.Equal(t, got.Size, int64(9), "size mismatch")
}

func TestFileCapabilityCapture(t *testing.T) {
	c := FileCapability{}

	_, err := c.CapturePhoto(context.Background())
	assert.Equal(t, errors.Cause(err), ErrUnavailable, "capture error mismatch")

	_, err = c.RecordVideo(context.Background())
	assert.Equal(t, errors.Cause(err), ErrUnavailable, "record error mismatch")
}

func TestFileCapabilityPickUnconfigured(t *testing.T) {
	c := FileCapability{}

	_, err := c.PickImage(context.Background())
	assert.Equal(t, errors.Cause(err), ErrUnavailable, "error mismatch")
}

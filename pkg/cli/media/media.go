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

// Package media defines the media acquisition capability. Adapters are
// injected at composition time; the core never branches on platform.
package media

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrDenied is an error for a media source the user refused access to
	ErrDenied = errors.New("media source access denied")
	// ErrUnavailable is an error for a media source absent on this platform
	ErrUnavailable = errors.New("media source unavailable")
	// ErrCancelled is an error for an acquisition the user abandoned
	ErrCancelled = errors.New("media acquisition cancelled")
)

// Kinds of media
const (
	KindImage = "image"
	KindVideo = "video"
)

// Result is an acquired binary along with its metadata
type Result struct {
	Data     []byte
	Filename string
	Kind     string
	MimeType string
	Size     int64
}

// Capability acquires media binaries from platform sources
type Capability interface {
	CapturePhoto(ctx context.Context) (Result, error)
	RecordVideo(ctx context.Context) (Result, error)
	PickImage(ctx context.Context) (Result, error)
	PickVideo(ctx context.Context) (Result, error)
}

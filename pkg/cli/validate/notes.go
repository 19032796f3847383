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

// Package validate provides validation rules for user-generated content
package validate

import (
	"errors"

	"github.com/vicherarr/memora/pkg/cli/utils"
)

// Limits on note fields
const (
	MaxNoteTitleLength = 200
	MaxNoteBodyLength  = 10000
)

var (
	// ErrNoteTitleTooLong is an error for a note title exceeding the length limit
	ErrNoteTitleTooLong = errors.New("note title is too long")
	// ErrNoteBodyEmpty is an error for a note with an empty body
	ErrNoteBodyEmpty = errors.New("note body is empty")
	// ErrNoteBodyTooLong is an error for a note body exceeding the length limit
	ErrNoteBodyTooLong = errors.New("note body is too long")
)

// NoteTitle validates a note title
func NoteTitle(title string) error {
	if len([]rune(title)) > MaxNoteTitleLength {
		return ErrNoteTitleTooLong
	}

	return nil
}

// NoteBody validates a note body
func NoteBody(body string) error {
	if utils.IsBlank(body) {
		return ErrNoteBodyEmpty
	}
	if len([]rune(body)) > MaxNoteBodyLength {
		return ErrNoteBodyTooLong
	}

	return nil
}

// Note validates the content of a note
func Note(title, body string) error {
	if err := NoteTitle(title); err != nil {
		return err
	}
	if err := NoteBody(body); err != nil {
		return err
	}

	return nil
}

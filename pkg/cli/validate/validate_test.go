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

package validate

import (
	"strings"
	"testing"

	"github.com/vicherarr/memora/pkg/assert"
)

func TestNote(t *testing.T) {
	testCases := []struct {
		title    string
		body     string
		expected error
	}{
		{title: "groceries", body: "eggs and milk", expected: nil},
		{title: "", body: "untitled is fine", expected: nil},
		{title: strings.Repeat("a", 201), body: "body", expected: ErrNoteTitleTooLong},
		{title: strings.Repeat("a", 200), body: "body", expected: nil},
		{title: "groceries", body: "", expected: ErrNoteBodyEmpty},
		{title: "groceries", body: "  \n\t ", expected: ErrNoteBodyEmpty},
		{title: "groceries", body: strings.Repeat("a", 10001), expected: ErrNoteBodyTooLong},
		{title: "groceries", body: strings.Repeat("a", 10000), expected: nil},
	}

	for _, tc := range testCases {
		got := Note(tc.title, tc.body)

		assert.Equal(t, got, tc.expected, "validation result mismatch")
	}
}

func TestCategoryName(t *testing.T) {
	testCases := []struct {
		name     string
		expected error
	}{
		{name: "work", expected: nil},
		{name: "", expected: ErrCategoryNameEmpty},
		{name: "   ", expected: ErrCategoryNameEmpty},
		{name: strings.Repeat("a", 101), expected: ErrCategoryNameTooLong},
		{name: strings.Repeat("a", 100), expected: nil},
	}

	for _, tc := range testCases {
		got := CategoryName(tc.name)

		assert.Equal(t, got, tc.expected, "validation result mismatch")
	}
}

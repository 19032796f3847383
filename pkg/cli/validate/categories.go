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
	"errors"

	"github.com/vicherarr/memora/pkg/cli/utils"
)

// MaxCategoryNameLength is the length limit on a category name
const MaxCategoryNameLength = 100

var (
	// ErrCategoryNameEmpty is an error for a category with an empty name
	ErrCategoryNameEmpty = errors.New("category name is empty")
	// ErrCategoryNameTooLong is an error for a category name exceeding the length limit
	ErrCategoryNameTooLong = errors.New("category name is too long")
)

// CategoryName validates a category name
func CategoryName(name string) error {
	if utils.IsBlank(name) {
		return ErrCategoryNameEmpty
	}
	if len([]rune(name)) > MaxCategoryNameLength {
		return ErrCategoryNameTooLong
	}

	return nil
}

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

// Package output provides functions to print informations on the terminal
// in a consistent manner
package output

import (
	"fmt"
	"time"

	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/log"
)

func formatTS(ts int64) string {
	return time.Unix(0, ts).Format("Jan 2, 2006 3:04pm (MST)")
}

// NoteInfo prints a note information
func NoteInfo(note database.Note) {
	log.Infof("title: %s\n", note.Title)
	log.Infof("created at: %s\n", formatTS(note.CreatedAt))
	if note.EditedOn != 0 {
		log.Infof("updated at: %s\n", formatTS(note.EditedOn))
	}
	log.Infof("note uuid: %s\n", note.UUID)
	log.Infof("sync state: %s\n", note.SyncState)

	fmt.Printf("\n------------------------content------------------------\n")
	fmt.Printf("%s", note.Body)
	fmt.Printf("\n-------------------------------------------------------\n")
}

// NoteContent prints only the body of a note
func NoteContent(note database.Note) {
	fmt.Printf("%s", note.Body)
}

// CategoryInfo prints a category information
func CategoryInfo(category database.Category) {
	log.Infof("category name: %s\n", category.Name)
	log.Infof("category uuid: %s\n", category.UUID)
	log.Infof("sync state: %s\n", category.SyncState)
}

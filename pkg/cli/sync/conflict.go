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

package sync

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/consts"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/utils/diff"
)

// conflictsDirName is the cache subdirectory holding conflict reports
const conflictsDirName = "conflicts"

// ConflictReportPath returns the report location for the given note
func ConflictReportPath(ctx context.MemoraCtx, noteUUID string) string {
	return filepath.Join(ctx.Paths.Cache, consts.MemoraDirName, conflictsDirName, fmt.Sprintf("%s.diff", noteUUID))
}

// renderDiff formats a line diff with -/+ markers
func renderDiff(localBody, remoteBody string) string {
	var sb strings.Builder

	for _, d := range diff.Do(localBody, remoteBody) {
		var marker string
		switch d.Type {
		case diff.DiffDelete:
			marker = "-"
		case diff.DiffInsert:
			marker = "+"
		default:
			marker = " "
		}

		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			sb.WriteString(marker)
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// writeConflictReport records a line diff between the local and the remote
// body so the user can resolve the conflict by hand
func writeConflictReport(ctx context.MemoraCtx, noteUUID, localBody, remoteBody string) error {
	report := renderDiff(localBody, remoteBody)

	path := ConflictReportPath(ctx, noteUUID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "creating conflicts directory")
	}
	if err := ioutil.WriteFile(path, []byte(report), 0644); err != nil {
		return errors.Wrap(err, "writing conflict report")
	}

	return nil
}

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

package edit

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/infra"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/output"
	"github.com/vicherarr/memora/pkg/cli/ui"
)

var contentFlag string
var titleFlag string

var example = `
  * Edit a note by uuid
  memora edit 8f3bd424

  * Edit a note without launching an editor
  memora edit 8f3bd424 -c "new content"

  * Rename a note
  memora edit 8f3bd424 -t "new title"
`

// NewCmd returns a new edit command
func NewCmd(ctx context.MemoraCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "edit <note uuid>",
		Short:   "Edit a note",
		Aliases: []string{"e"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "a new content for the note")
	f.StringVarP(&titleFlag, "title", "t", "", "a new title for the note")

	return cmd
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// getContent gets the new content for the note. If no content flag was
// provided, an editor is launched with the current content pre-filled.
func getContent(ctx context.MemoraCtx, note database.Note) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporarily content file path")
	}

	if err := ioutil.WriteFile(fpath, []byte(note.Body), 0644); err != nil {
		return "", errors.Wrap(err, "preparing the content file")
	}

	c, err := ui.GetEditorInput(ctx, fpath)
	if err != nil {
		return "", errors.Wrap(err, "getting editor input")
	}

	return c, nil
}

func newRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		noteUUID := args[0]

		note, err := database.GetNote(ctx.DB, noteUUID)
		if err != nil {
			return errors.Wrap(err, "finding the note")
		}

		// A rename alone should not launch an editor
		content := note.Body
		if titleFlag == "" || contentFlag != "" {
			content, err = getContent(ctx, note)
			if err != nil {
				return errors.Wrap(err, "getting content")
			}
		}

		title := note.Title
		if titleFlag != "" {
			title = titleFlag
		}

		g, err := infra.NewGateway(ctx, nil)
		if err != nil {
			return err
		}

		updated, err := g.UpdateNote(noteUUID, title, content)
		if err != nil {
			return errors.Wrap(err, "updating the note")
		}

		log.Successf("edited %s\n", updated.Title)

		output.NoteInfo(updated)

		return nil
	}
}

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

package add

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/infra"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/output"
	"github.com/vicherarr/memora/pkg/cli/ui"
	"github.com/vicherarr/memora/pkg/cli/upgrade"
	"github.com/vicherarr/memora/pkg/cli/validate"
)

var contentFlag string
var categoryFlag string

var example = `
 * Open an editor to write content
 memora add "git rebase"

 * Skip the editor by providing content directly
 memora add "git rebase" -c "rebase rewrites history"

 * Add a note to a category
 memora add "git rebase" -g dev

 * Send stdin content to a note
 echo "a branch is just a pointer to a commit" | memora add git`

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new add command
func NewCmd(ctx context.MemoraCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <title>",
		Short:   "Add a new note",
		Aliases: []string{"a", "n", "new"},
		Example: example,
		PreRunE: preRun,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVarP(&contentFlag, "content", "c", "", "The new content for the note")
	f.StringVarP(&categoryFlag, "category", "g", "", "The name of the category to add the note to")

	return cmd
}

func getContent(ctx context.MemoraCtx) (string, error) {
	if contentFlag != "" {
		return contentFlag, nil
	}

	// check for piped content
	fInfo, _ := os.Stdin.Stat()
	if fInfo.Mode()&os.ModeCharDevice == 0 {
		c, err := ui.ReadStdInput()
		if err != nil {
			return "", errors.Wrap(err, "Failed to get piped input")
		}
		return c, nil
	}

	fpath, err := ui.GetTmpContentPath(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting temporarily content file path")
	}

	c, err := ui.GetEditorInput(ctx, fpath)
	if err != nil {
		return "", errors.Wrap(err, "Failed to get editor input")
	}

	return c, nil
}

func newRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		title := args[0]
		if err := validate.NoteTitle(title); err != nil {
			return errors.Wrap(err, "invalid title")
		}

		content, err := getContent(ctx)
		if err != nil {
			return errors.Wrap(err, "getting content")
		}

		g, err := infra.NewGateway(ctx, nil)
		if err != nil {
			return err
		}

		note, err := g.CreateNote(title, content)
		if err != nil {
			return errors.Wrap(err, "Failed to write note")
		}

		if categoryFlag != "" {
			userUUID, err := infra.CurrentUserUUID(ctx)
			if err != nil {
				return err
			}

			category, err := database.GetCategoryByName(ctx.DB, userUUID, categoryFlag)
			if err != nil {
				return errors.Wrapf(err, "finding the category %s", categoryFlag)
			}

			if _, err := g.LinkCategory(note.UUID, category.UUID); err != nil {
				return errors.Wrap(err, "adding the note to the category")
			}
		}

		log.Successf("added %s\n", title)

		output.NoteInfo(note)

		if err := upgrade.Check(ctx); err != nil {
			log.Error(errors.Wrap(err, "automatically checking updates").Error())
		}

		return nil
	}
}

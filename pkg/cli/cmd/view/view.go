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

package view

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/infra"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/output"
	"github.com/vicherarr/memora/pkg/cli/sync"
)

var example = `
 * View all notes
 memora view

 * View the notes modified today
 memora view --period today

 * View the notes in a category
 memora view --category dev

 * View a particular note
 memora view 8f3bd424
 `

var periodFlag string
var categoryFlag string
var fromFlag string
var toFlag string
var contentOnly bool
var conflictsOnly bool

var periods = map[string]database.Period{
	"all":   database.PeriodAll,
	"today": database.PeriodToday,
	"week":  database.PeriodThisWeek,
	"month": database.PeriodThisMonth,
	"30d":   database.PeriodLast30Days,
	"90d":   database.PeriodLast90Days,
}

func preRun(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return errors.New("Incorrect number of argument")
	}

	return nil
}

// NewCmd returns a new view command
func NewCmd(ctx context.MemoraCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "view <note uuid?>",
		Aliases: []string{"v", "ls", "list"},
		Short:   "List notes or view a note",
		Example: example,
		RunE:    newRun(ctx),
		PreRunE: preRun,
	}

	f := cmd.Flags()
	f.StringVarP(&periodFlag, "period", "p", "all", "filter by modification period (all, today, week, month, 30d, 90d)")
	f.StringVarP(&categoryFlag, "category", "g", "", "filter by category name")
	f.StringVar(&fromFlag, "from", "", "custom range start date (YYYY-MM-DD)")
	f.StringVar(&toFlag, "to", "", "custom range end date (YYYY-MM-DD, exclusive)")
	f.BoolVarP(&contentOnly, "content-only", "", false, "print the note content only")
	f.BoolVar(&conflictsOnly, "conflicts", false, "list conflicted notes with their diff reports")

	return cmd
}

// buildFilter resolves the period and category flags into a note filter
func buildFilter(ctx context.MemoraCtx, userUUID string) (database.Filter, error) {
	var ret database.Filter

	if fromFlag != "" || toFlag != "" {
		ret.Period = database.PeriodCustom

		if fromFlag != "" {
			from, err := time.Parse("2006-01-02", fromFlag)
			if err != nil {
				return ret, errors.Wrap(err, "parsing the from date")
			}
			ret.From = from
		}
		if toFlag != "" {
			to, err := time.Parse("2006-01-02", toFlag)
			if err != nil {
				return ret, errors.Wrap(err, "parsing the to date")
			}
			ret.To = to
		}
	} else {
		period, ok := periods[periodFlag]
		if !ok {
			return ret, errors.Errorf("unknown period %s", periodFlag)
		}
		ret.Period = period
	}

	if categoryFlag != "" {
		category, err := database.GetCategoryByName(ctx.DB, userUUID, categoryFlag)
		if err != nil {
			return ret, errors.Wrapf(err, "finding the category %s", categoryFlag)
		}
		ret.CategoryUUID = category.UUID
	}

	return ret, nil
}

func runNote(ctx context.MemoraCtx, noteUUID string) error {
	note, err := database.GetNote(ctx.DB, noteUUID)
	if err != nil {
		return errors.Wrap(err, "finding the note")
	}

	if contentOnly {
		output.NoteContent(note)
	} else {
		output.NoteInfo(note)
	}

	return nil
}

// runConflicts lists conflicted notes along with their stored diff reports
func runConflicts(ctx context.MemoraCtx) error {
	userUUID, err := infra.CurrentUserUUID(ctx)
	if err != nil {
		return err
	}

	notes, err := database.ListNotes(ctx.DB, ctx.Clock, userUUID, database.Filter{SyncState: database.SyncStateConflict})
	if err != nil {
		return errors.Wrap(err, "listing conflicted notes")
	}

	if len(notes) == 0 {
		log.Info("no conflicts\n")
		return nil
	}

	for _, note := range notes {
		log.Plainf("%s  %s\n", note.UUID, note.Title)

		path := sync.ConflictReportPath(ctx, note.UUID)
		report, err := ioutil.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "reading the conflict report for %s", note.UUID)
		}

		log.Plainf("%s\n", string(report))
	}

	return nil
}

func runList(ctx context.MemoraCtx) error {
	userUUID, err := infra.CurrentUserUUID(ctx)
	if err != nil {
		return err
	}

	filter, err := buildFilter(ctx, userUUID)
	if err != nil {
		return errors.Wrap(err, "building the filter")
	}

	notes, err := database.ListNotes(ctx.DB, ctx.Clock, userUUID, filter)
	if err != nil {
		return errors.Wrap(err, "listing notes")
	}

	for _, note := range notes {
		modifiedAt := note.CreatedAt
		if note.EditedOn != 0 {
			modifiedAt = note.EditedOn
		}

		log.Plainf("%s  %s  (%s)  %s\n", note.UUID, note.Title, note.SyncState, time.Unix(0, modifiedAt).Format("Jan 2, 2006"))
	}

	return nil
}

func newRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runNote(ctx, args[0])
		}

		if contentOnly {
			return errors.New("--content-only flag is only valid when viewing a note")
		}

		if conflictsOnly {
			return runConflicts(ctx)
		}

		return runList(ctx)
	}
}

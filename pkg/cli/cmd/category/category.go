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

package category

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/infra"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/ui"
)

var colorFlag string
var iconFlag string
var yesFlag bool

var example = `
 * List categories
 memora category

 * Add a category
 memora category add dev --color "#00ff00"

 * Remove a category and its links
 memora category remove dev

 * Add a note to a category
 memora category link 8f3bd424 dev

 * Remove a note from a category
 memora category unlink 8f3bd424 dev`

// NewCmd returns a new category command
func NewCmd(ctx context.MemoraCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"g", "cat"},
		Short:   "Manage categories",
		Example: example,
		RunE:    newListRun(ctx),
	}

	addCmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Add a new category",
		PreRunE: exactArgs(1),
		RunE:    newAddRun(ctx),
	}
	f := addCmd.Flags()
	f.StringVar(&colorFlag, "color", "", "the display color of the category")
	f.StringVar(&iconFlag, "icon", "", "the display icon of the category")

	removeCmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a category and its links",
		PreRunE: exactArgs(1),
		RunE:    newRemoveRun(ctx),
	}
	rf := removeCmd.Flags()
	rf.BoolVarP(&yesFlag, "yes", "y", false, "remove without confirmation")

	linkCmd := &cobra.Command{
		Use:     "link <note uuid> <name>",
		Short:   "Add a note to a category",
		PreRunE: exactArgs(2),
		RunE:    newLinkRun(ctx),
	}

	unlinkCmd := &cobra.Command{
		Use:     "unlink <note uuid> <name>",
		Short:   "Remove a note from a category",
		PreRunE: exactArgs(2),
		RunE:    newUnlinkRun(ctx),
	}

	cmd.AddCommand(addCmd)
	cmd.AddCommand(removeCmd)
	cmd.AddCommand(linkCmd)
	cmd.AddCommand(unlinkCmd)

	return cmd
}

func exactArgs(n int) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.New("Incorrect number of argument")
		}

		return nil
	}
}

func newListRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		userUUID, err := infra.CurrentUserUUID(ctx)
		if err != nil {
			return err
		}

		categories, err := database.ListCategories(ctx.DB, userUUID)
		if err != nil {
			return errors.Wrap(err, "listing categories")
		}

		for _, category := range categories {
			log.Plainf("%s  (%s)\n", category.Name, category.SyncState)
		}

		return nil
	}
}

func newAddRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		name := args[0]

		g, err := infra.NewGateway(ctx, nil)
		if err != nil {
			return err
		}

		category, err := g.CreateCategory(name, colorFlag, iconFlag)
		if err != nil {
			return errors.Wrap(err, "creating the category")
		}

		log.Successf("added category %s\n", category.Name)

		return nil
	}
}

func newRemoveRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		name := args[0]

		userUUID, err := infra.CurrentUserUUID(ctx)
		if err != nil {
			return err
		}

		category, err := database.GetCategoryByName(ctx.DB, userUUID, name)
		if err != nil {
			return errors.Wrapf(err, "finding the category %s", name)
		}

		if !yesFlag {
			ok, err := ui.Confirm("remove this category and its links?", false)
			if err != nil {
				return errors.Wrap(err, "getting confirmation")
			}
			if !ok {
				log.Warnf("aborted by user\n")
				return nil
			}
		}

		g, err := infra.NewGateway(ctx, nil)
		if err != nil {
			return err
		}

		if err := g.DeleteCategory(category.UUID); err != nil {
			return errors.Wrap(err, "removing the category")
		}

		log.Successf("removed category %s\n", name)

		return nil
	}
}

func newLinkRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		noteUUID := args[0]
		name := args[1]

		userUUID, err := infra.CurrentUserUUID(ctx)
		if err != nil {
			return err
		}

		category, err := database.GetCategoryByName(ctx.DB, userUUID, name)
		if err != nil {
			return errors.Wrapf(err, "finding the category %s", name)
		}

		g, err := infra.NewGateway(ctx, nil)
		if err != nil {
			return err
		}

		if _, err := g.LinkCategory(noteUUID, category.UUID); err != nil {
			return errors.Wrap(err, "adding the note to the category")
		}

		log.Successf("added the note to %s\n", name)

		return nil
	}
}

func newUnlinkRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		noteUUID := args[0]
		name := args[1]

		userUUID, err := infra.CurrentUserUUID(ctx)
		if err != nil {
			return err
		}

		category, err := database.GetCategoryByName(ctx.DB, userUUID, name)
		if err != nil {
			return errors.Wrapf(err, "finding the category %s", name)
		}

		g, err := infra.NewGateway(ctx, nil)
		if err != nil {
			return err
		}

		if err := g.UnlinkCategory(noteUUID, category.UUID); err != nil {
			return errors.Wrap(err, "removing the note from the category")
		}

		log.Successf("removed the note from %s\n", name)

		return nil
	}
}

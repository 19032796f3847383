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
	gocontext "context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/infra"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/session"
	"github.com/vicherarr/memora/pkg/cli/sync"
	"github.com/vicherarr/memora/pkg/cli/upgrade"
)

var example = `
  * Sync once
  memora sync

  * Keep syncing periodically until interrupted
  memora sync --watch`

var watchFlag bool
var apiEndpointFlag string

// NewCmd returns a new sync command
func NewCmd(ctx context.MemoraCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sync",
		Aliases: []string{"s"},
		Short:   "Sync data with the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.BoolVarP(&watchFlag, "watch", "w", false, "keep syncing on an interval until interrupted")
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

func newRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		// Override APIEndpoint if flag was provided
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		manager, err := session.NewManager(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "initializing session")
		}

		engine := sync.NewEngine(ctx, manager, nil)

		if watchFlag {
			return runWatch(ctx, engine)
		}

		log.Infof("syncing with %s\n", ctx.APIEndpoint)

		if err := engine.Run(gocontext.Background()); err != nil {
			return errors.Wrap(err, "syncing")
		}

		log.Success("success\n")

		if err := upgrade.Check(ctx); err != nil {
			log.Error(errors.Wrap(err, "automatically checking updates").Error())
		}

		return nil
	}
}

// runWatch syncs on an interval until the process is interrupted or the
// session ends.
func runWatch(ctx context.MemoraCtx, engine *sync.Engine) error {
	log.Infof("watching for changes. syncing every %s\n", ctx.ReconcileInterval)

	runCtx, cancel := gocontext.WithCancel(gocontext.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if err := engine.Watch(runCtx, ctx.ReconcileInterval); err != nil {
		return errors.Wrap(err, "watching")
	}

	return nil
}

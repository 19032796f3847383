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

package register

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/infra"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/session"
	"github.com/vicherarr/memora/pkg/cli/ui"
)

var example = `
  memora register`

var apiEndpointFlag string

// NewCmd returns a new register command
func NewCmd(ctx context.MemoraCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Create an account on the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

func newRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		// Override APIEndpoint if flag was provided
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		var fullName, email, password, passwordConfirm string
		if err := ui.PromptInput("name", &fullName); err != nil {
			return errors.Wrap(err, "getting name input")
		}
		if err := ui.PromptInput("email", &email); err != nil {
			return errors.Wrap(err, "getting email input")
		}
		if email == "" {
			return errors.New("Email is empty")
		}

		if err := ui.PromptPassword("password", &password); err != nil {
			return errors.Wrap(err, "getting password input")
		}
		if password == "" {
			return errors.New("Password is empty")
		}
		if err := ui.PromptPassword("confirm password", &passwordConfirm); err != nil {
			return errors.Wrap(err, "getting password confirmation input")
		}
		if password != passwordConfirm {
			return errors.New("Password mismatch")
		}

		manager, err := session.NewManager(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "initializing session")
		}

		if err := manager.Register(fullName, email, password); err != nil {
			return errors.Wrap(err, "registering")
		}

		log.Success("registered\n")

		return nil
	}
}

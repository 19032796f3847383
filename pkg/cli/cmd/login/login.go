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

package login

import (
	"net/url"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/vicherarr/memora/pkg/cli/client"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/infra"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/session"
	"github.com/vicherarr/memora/pkg/cli/ui"
)

var example = `
  memora login`

var apiEndpointFlag string

// NewCmd returns a new login command
func NewCmd(ctx context.MemoraCtx) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "login",
		Short:   "Login to the server",
		Example: example,
		RunE:    newRun(ctx),
	}

	f := cmd.Flags()
	f.StringVar(&apiEndpointFlag, "apiEndpoint", "", "API endpoint to connect to (defaults to value in config)")

	return cmd
}

// getServerDisplayURL derives the URL of the server to display to the user
// based on the API endpoint.
func getServerDisplayURL(ctx context.MemoraCtx) string {
	u, err := url.Parse(ctx.APIEndpoint)
	if err != nil {
		return ""
	}
	if u.Scheme == "" || u.Host == "" {
		return ""
	}

	ret := url.URL{
		Scheme: u.Scheme,
		Host:   u.Host,
	}

	return ret.String()
}

func newRun(ctx context.MemoraCtx) infra.RunEFunc {
	return func(cmd *cobra.Command, args []string) error {
		// Override APIEndpoint if flag was provided
		if apiEndpointFlag != "" {
			ctx.APIEndpoint = apiEndpointFlag
		}

		if displayURL := getServerDisplayURL(ctx); displayURL != "" {
			log.Infof("logging in to %s\n", displayURL)
		}

		var email, password string
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

		manager, err := session.NewManager(ctx, nil)
		if err != nil {
			return errors.Wrap(err, "initializing session")
		}

		err = manager.SignInWithPassword(email, password)
		if errors.Cause(err) == client.ErrInvalidLogin {
			log.Error("wrong login\n")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "logging in")
		}

		log.Success("logged in\n")

		return nil
	}
}

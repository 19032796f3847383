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

package infra

import (
	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/gateway"
	"github.com/vicherarr/memora/pkg/cli/session"
)

// ErrNotLoggedIn is an error for invoking a user-scoped operation without
// a persisted session
var ErrNotLoggedIn = errors.New("not logged in. Please run `memora login` first")

// CurrentUserUUID returns the uuid of the user owning the local data.
// A session persisted earlier is honored even when the token has expired,
// so that local operations keep working offline.
func CurrentUserUUID(ctx context.MemoraCtx) (string, error) {
	manager, err := session.NewManager(ctx, nil)
	if err != nil {
		return "", errors.Wrap(err, "initializing session")
	}

	userUUID, _, err := manager.CurrentUser()
	if errors.Cause(err) == session.ErrNotSignedIn {
		return "", ErrNotLoggedIn
	} else if err != nil {
		return "", errors.Wrap(err, "getting current user")
	}

	return userUUID, nil
}

// NewGateway constructs a mutation gateway scoped to the current user
func NewGateway(ctx context.MemoraCtx, watcher *database.Watcher) (*gateway.Gateway, error) {
	userUUID, err := CurrentUserUUID(ctx)
	if err != nil {
		return nil, err
	}

	return gateway.New(ctx, userUUID, watcher), nil
}

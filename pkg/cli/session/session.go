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

// Package session manages the authentication lifecycle and the persisted
// session token
package session

import (
	gocontext "context"
	"sync"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/client"
	"github.com/vicherarr/memora/pkg/cli/consts"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/identity"
)

// Authentication states
const (
	StateUnauthenticated = "unauthenticated"
	StateAuthenticating  = "authenticating"
	StateAuthenticated   = "authenticated"
	StateFailed          = "failed"
)

var (
	// ErrNotSignedIn is an error for an operation requiring a session
	// when none exists
	ErrNotSignedIn = errors.New("not signed in")
	// ErrSessionExpired is an error for an expired token that could not
	// be re-issued
	ErrSessionExpired = errors.New("session expired")
	// ErrNoProvider is an error for a provider sign-in without a
	// configured identity provider
	ErrNoProvider = errors.New("no identity provider configured")
)

// Manager owns the authentication state machine. The token, its expiry and
// the user identity persist in the system table and nowhere else.
type Manager struct {
	ctx      context.MemoraCtx
	provider identity.Provider

	mu     sync.Mutex
	state  string
	subs   map[int]chan string
	nextID int
}

// NewManager constructs a session manager. The initial state reflects the
// persisted token: a valid unexpired token starts Authenticated.
func NewManager(ctx context.MemoraCtx, provider identity.Provider) (*Manager, error) {
	m := &Manager{
		ctx:      ctx,
		provider: provider,
		state:    StateUnauthenticated,
		subs:     map[int]chan string{},
	}

	ok, err := database.HasSystem(ctx.DB, consts.SystemSessionToken)
	if err != nil {
		return nil, errors.Wrap(err, "checking persisted session")
	}
	if ok {
		expired, err := m.tokenExpired()
		if err != nil {
			return nil, errors.Wrap(err, "checking token expiry")
		}
		if !expired {
			m.state = StateAuthenticated
		}
	}

	return m, nil
}

// State reports the current authentication state
func (m *Manager) State() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// Subscribe registers a subscriber for state transitions. The returned
// cancel function removes the subscription and closes the channel.
func (m *Manager) Subscribe() (<-chan string, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++

	ch := make(chan string, 1)
	m.subs[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

func (m *Manager) setState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = state

	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- state:
		default:
		}
	}
}

func (m *Manager) tokenExpired() (bool, error) {
	var expiry int64
	if err := database.GetSystem(m.ctx.DB, consts.SystemSessionTokenExpiry, &expiry); err != nil {
		return false, errors.Wrap(err, "getting token expiry")
	}

	return expiry <= m.ctx.Clock.Now().Unix(), nil
}

func (m *Manager) persist(token, userUUID, email string, expiresAt int64) error {
	tx, err := m.ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	if err := database.UpdateSystem(tx, consts.SystemSessionToken, token); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "persisting token")
	}
	if err := database.UpdateSystem(tx, consts.SystemSessionTokenExpiry, expiresAt); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "persisting token expiry")
	}
	if err := database.UpdateSystem(tx, consts.SystemSessionUserUUID, userUUID); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "persisting user uuid")
	}
	if err := database.UpdateSystem(tx, consts.SystemSessionUserEmail, email); err != nil {
		tx.Rollback()
		return errors.Wrap(err, "persisting user email")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	return nil
}

// SignInWithPassword authenticates against the server with credentials
func (m *Manager) SignInWithPassword(email, password string) error {
	m.setState(StateAuthenticating)

	resp, err := client.Signin(m.ctx, email, password)
	if err != nil {
		m.setState(StateFailed)
		return errors.Wrap(err, "signing in")
	}

	if err := m.persist(resp.Token, resp.UserUUID, resp.Email, resp.ExpiresAt); err != nil {
		m.setState(StateFailed)
		return errors.Wrap(err, "persisting session")
	}

	m.setState(StateAuthenticated)
	return nil
}

// Register creates an account and signs in
func (m *Manager) Register(fullName, email, password string) error {
	m.setState(StateAuthenticating)

	resp, err := client.Register(m.ctx, fullName, email, password)
	if err != nil {
		m.setState(StateFailed)
		return errors.Wrap(err, "registering")
	}

	if err := m.persist(resp.Token, resp.UserUUID, resp.Email, resp.ExpiresAt); err != nil {
		m.setState(StateFailed)
		return errors.Wrap(err, "persisting session")
	}

	m.setState(StateAuthenticated)
	return nil
}

// SignInWithProvider authenticates through the injected identity provider
func (m *Manager) SignInWithProvider(ctx gocontext.Context) error {
	if m.provider == nil {
		return ErrNoProvider
	}

	m.setState(StateAuthenticating)

	ident, err := m.provider.SignIn(ctx)
	if err != nil {
		m.setState(StateFailed)
		return errors.Wrap(err, "signing in with provider")
	}

	if err := m.persist(ident.Token, ident.UserUUID, ident.Email, ident.ExpiresAt); err != nil {
		m.setState(StateFailed)
		return errors.Wrap(err, "persisting session")
	}

	m.setState(StateAuthenticated)
	return nil
}

// SignOut removes the persisted session completely. Subscribers observe the
// transition and abandon in-flight work.
func (m *Manager) SignOut() error {
	tx, err := m.ctx.DB.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning a transaction")
	}

	for _, key := range []string{
		consts.SystemSessionToken,
		consts.SystemSessionTokenExpiry,
		consts.SystemSessionUserUUID,
		consts.SystemSessionUserEmail,
	} {
		if err := database.DeleteSystem(tx, key); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "removing %s", key)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "committing a transaction")
	}

	m.setState(StateUnauthenticated)
	return nil
}

// CurrentToken returns a non-expired session token. An expired token is
// re-issued through the identity provider when one is wired. After a
// sign-out there is no persisted token and the session counts as expired.
func (m *Manager) CurrentToken(ctx gocontext.Context) (string, error) {
	ok, err := database.HasSystem(m.ctx.DB, consts.SystemSessionToken)
	if err != nil {
		return "", errors.Wrap(err, "checking persisted session")
	}
	if !ok {
		return "", ErrSessionExpired
	}

	expired, err := m.tokenExpired()
	if err != nil {
		return "", errors.Wrap(err, "checking token expiry")
	}
	if expired {
		if m.provider == nil {
			m.setState(StateUnauthenticated)
			return "", ErrSessionExpired
		}
		if err := m.SignInWithProvider(ctx); err != nil {
			return "", errors.Wrap(ErrSessionExpired, "re-issuing token")
		}
	}

	var token string
	if err := database.GetSystem(m.ctx.DB, consts.SystemSessionToken, &token); err != nil {
		return "", errors.Wrap(err, "getting token")
	}

	return token, nil
}

// CurrentUser returns the uuid and email of the signed-in user
func (m *Manager) CurrentUser() (string, string, error) {
	ok, err := database.HasSystem(m.ctx.DB, consts.SystemSessionUserUUID)
	if err != nil {
		return "", "", errors.Wrap(err, "checking persisted user")
	}
	if !ok {
		return "", "", ErrNotSignedIn
	}

	var uuid, email string
	if err := database.GetSystem(m.ctx.DB, consts.SystemSessionUserUUID, &uuid); err != nil {
		return "", "", errors.Wrap(err, "getting user uuid")
	}
	if err := database.GetSystem(m.ctx.DB, consts.SystemSessionUserEmail, &email); err != nil {
		return "", "", errors.Wrap(err, "getting user email")
	}

	return uuid, email, nil
}

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

// Package sync propagates queued local mutations to the server and
// reconciles remote state back into the local store
package sync

import (
	gocontext "context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron"
	"github.com/vicherarr/memora/pkg/cli/context"
	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/cli/log"
	"github.com/vicherarr/memora/pkg/cli/session"
)

// Retry policy for transient failures
const (
	defaultConcurrency = 4
	maxRetries         = 8
	baseBackoff        = time.Second
	maxBackoff         = 5 * time.Minute
)

// Engine drives the drain and reconcile passes. The mutex serializes the
// passes so a reconcile merge never races a drain apply.
type Engine struct {
	ctx     context.MemoraCtx
	session *session.Manager
	watcher *database.Watcher

	mu          stdsync.Mutex
	concurrency int
}

// NewEngine constructs a sync engine
func NewEngine(ctx context.MemoraCtx, sessionManager *session.Manager, watcher *database.Watcher) *Engine {
	concurrency := ctx.SyncConcurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	return &Engine{
		ctx:         ctx,
		session:     sessionManager,
		watcher:     watcher,
		concurrency: concurrency,
	}
}

// backoffDelay computes the delay before the given retry attempt.
// It doubles per attempt from the base and saturates at the cap.
func backoffDelay(retryCount int) time.Duration {
	delay := baseBackoff
	for i := 0; i < retryCount; i++ {
		delay *= 2
		if delay >= maxBackoff {
			return maxBackoff
		}
	}

	return delay
}

// Run performs one full sync pass: pending intents drain first so local
// edits reach the server before the reconcile merge, then a final drain
// flushes anything queued mid-pass.
func (e *Engine) Run(ctx gocontext.Context) error {
	if err := e.Drain(ctx); err != nil {
		return errors.Wrap(err, "draining intents")
	}
	if err := e.Reconcile(ctx); err != nil {
		return errors.Wrap(err, "reconciling")
	}
	if err := e.Drain(ctx); err != nil {
		return errors.Wrap(err, "draining intents after reconcile")
	}

	return nil
}

// Watch runs full sync passes on the given interval until the context is
// cancelled or the session ends
func (e *Engine) Watch(ctx gocontext.Context, interval string) error {
	runCtx, cancel := gocontext.WithCancel(ctx)
	defer cancel()

	stateCh, unsubscribe := e.session.Subscribe()
	defer unsubscribe()

	c := cron.New()
	if err := c.AddFunc(fmt.Sprintf("@every %s", interval), func() {
		if err := e.Run(runCtx); err != nil {
			log.Errorf("sync failed: %s\n", err)
		}
	}); err != nil {
		return errors.Wrap(err, "scheduling sync")
	}

	c.Start()
	defer c.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case state, ok := <-stateCh:
			if !ok {
				return nil
			}
			if state == session.StateUnauthenticated {
				cancel()
				return nil
			}
		}
	}
}

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

// Package context defines memora context
package context

import (
	"net/http"

	"github.com/vicherarr/memora/pkg/cli/database"
	"github.com/vicherarr/memora/pkg/clock"
)

// Paths contain directory definitions
type Paths struct {
	Home   string
	Config string
	Data   string
	Cache  string
}

// MemoraCtx is a context holding the information of the current runtime
type MemoraCtx struct {
	Paths              Paths
	APIEndpoint        string
	Version            string
	DB                 *database.DB
	Editor             string
	Clock              clock.Clock
	EnableUpgradeCheck bool
	SyncConcurrency    int
	ReconcileInterval  string
	HTTPClient         *http.Client
}

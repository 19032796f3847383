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

// Package identity defines the external identity provider capability.
// Host applications inject a provider; none ships with the CLI.
package identity

import "context"

// ExternalIdentity is a session issued by an external identity provider
type ExternalIdentity struct {
	Token     string
	UserUUID  string
	Email     string
	ExpiresAt int64
}

// Provider obtains sessions from an external identity system
type Provider interface {
	SignIn(ctx context.Context) (ExternalIdentity, error)
}

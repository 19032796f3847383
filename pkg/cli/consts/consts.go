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

// Package consts provides definitions of constants
package consts

var (
	// MemoraDirName is the name of the directory containing memora files
	MemoraDirName = "memora"
	// MemoraDBFileName is a filename for the Memora SQLite database
	MemoraDBFileName = "memora.db"
	// AttachmentsDirName is the name of the directory holding attachment binaries
	AttachmentsDirName = "attachments"
	// TmpContentFileBase is the base for the filename for a temporary content
	TmpContentFileBase = "MEMORA_TMPCONTENT"
	// TmpContentFileExt is the extension for the temporary content file
	TmpContentFileExt = "md"
	// ConfigFilename is the name of the config file
	ConfigFilename = "memorarc"
	// EnvFilename is the name of the optional env override file
	EnvFilename = "memora.env"

	// SystemSchema is the key for schema in the system table
	SystemSchema = "schema"
	// SystemLastReconcileAt is the timestamp of the server at the last reconciliation pass
	SystemLastReconcileAt = "last_reconcile_at"
	// SystemLastUpgrade is the timestamp at which the system most recently checked for an upgrade
	SystemLastUpgrade = "last_upgrade"
	// SystemSessionToken is the bearer token for the current session
	SystemSessionToken = "session_token"
	// SystemSessionTokenExpiry is the timestamp at which the session token will expire
	SystemSessionTokenExpiry = "session_token_expiry"
	// SystemSessionUserUUID is the uuid of the signed-in user
	SystemSessionUserUUID = "session_user_uuid"
	// SystemSessionUserEmail is the email of the signed-in user
	SystemSessionUserEmail = "session_user_email"
)

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

package context

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/cli/consts"
	"github.com/vicherarr/memora/pkg/cli/utils"
)

// InitMemoraDirs creates, if necessary, the memora directories under the
// config, data and cache homes
func InitMemoraDirs(paths Paths) error {
	targets := []string{
		fmt.Sprintf("%s/%s", paths.Config, consts.MemoraDirName),
		fmt.Sprintf("%s/%s", paths.Data, consts.MemoraDirName),
		fmt.Sprintf("%s/%s/%s", paths.Data, consts.MemoraDirName, consts.AttachmentsDirName),
		fmt.Sprintf("%s/%s", paths.Cache, consts.MemoraDirName),
	}

	for _, target := range targets {
		if err := utils.EnsureDir(target); err != nil {
			return errors.Wrapf(err, "creating directory %s", target)
		}
	}

	return nil
}

// AttachmentDir returns the directory in which attachment binaries are stored
func AttachmentDir(paths Paths) string {
	return fmt.Sprintf("%s/%s/%s", paths.Data, consts.MemoraDirName, consts.AttachmentsDirName)
}

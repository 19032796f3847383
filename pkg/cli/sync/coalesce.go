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
	"github.com/vicherarr/memora/pkg/cli/database"
)

// effectiveOp is the coalesced outcome for one entity in a drain pass
type effectiveOp struct {
	entityType string
	entityUUID string
	// op is the single remote operation to perform. Empty when no remote
	// call is needed.
	op string
	// expungeLocal marks an entity created and deleted before ever
	// reaching the server. It is removed locally with no remote call.
	expungeLocal bool
	// intent is the representative row carrying the retry bookkeeping
	intent database.Intent
	// intentUUIDs identifies the coalesced rows. Settling goes through
	// these rather than the entity uuid: a successful create adopts the
	// server id, and intents enqueued after the snapshot must survive.
	intentUUIDs []string
}

// coalesce folds the FIFO intents of one entity into at most one remote
// operation. Field values are not carried here; they are read from the
// store at send time, so a create transmits the latest state.
func coalesce(intents []database.Intent) effectiveOp {
	ret := effectiveOp{
		entityType: intents[0].EntityType,
		entityUUID: intents[0].EntityUUID,
		intent:     intents[0],
	}

	for _, i := range intents {
		ret.intentUUIDs = append(ret.intentUUIDs, i.UUID)

		switch i.Op {
		case database.OpCreate:
			ret.op = database.OpCreate
		case database.OpUpdate:
			// an update after a delete is stale; drop it
			if ret.op == database.OpDelete {
				continue
			}
			if ret.op != database.OpCreate {
				ret.op = database.OpUpdate
			}
		case database.OpDelete:
			if ret.op == database.OpCreate {
				// never reached the server; nothing to tell it
				ret.op = ""
				ret.expungeLocal = true
				continue
			}
			ret.op = database.OpDelete
			ret.expungeLocal = false
		}
	}

	return ret
}

// groupByEntity partitions intents per entity, preserving both the FIFO
// order within an entity and the order in which entities first appear
func groupByEntity(intents []database.Intent) [][]database.Intent {
	index := map[string]int{}
	var ret [][]database.Intent

	for _, i := range intents {
		idx, ok := index[i.EntityUUID]
		if !ok {
			idx = len(ret)
			index[i.EntityUUID] = idx
			ret = append(ret, nil)
		}

		ret[idx] = append(ret[idx], i)
	}

	return ret
}

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

package database

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/vicherarr/memora/pkg/clock"
)

// Watcher delivers ordered snapshots of notes and categories to subscribers
// after every committed write. Each notification carries an immutable slice;
// subscribers never share mutable state with writers. A slow subscriber
// loses intermediate snapshots rather than blocking a writer.
type Watcher struct {
	mu           sync.Mutex
	clock        clock.Clock
	noteSubs     map[int]chan []Note
	categorySubs map[int]chan []Category
	nextID       int
}

// NewWatcher constructs a watcher
func NewWatcher(c clock.Clock) *Watcher {
	return &Watcher{
		clock:        c,
		noteSubs:     map[int]chan []Note{},
		categorySubs: map[int]chan []Category{},
	}
}

// SubscribeNotes registers a subscriber for note snapshots. The returned
// cancel function removes the subscription and closes the channel.
func (w *Watcher) SubscribeNotes() (<-chan []Note, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++

	ch := make(chan []Note, 1)
	w.noteSubs[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if sub, ok := w.noteSubs[id]; ok {
			delete(w.noteSubs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// SubscribeCategories registers a subscriber for category snapshots
func (w *Watcher) SubscribeCategories() (<-chan []Category, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++

	ch := make(chan []Category, 1)
	w.categorySubs[id] = ch

	cancel := func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		if sub, ok := w.categorySubs[id]; ok {
			delete(w.categorySubs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// NotifyNotes queries the current ordered note view for the user and fans it
// out to all note subscribers. Call after committing a write.
func (w *Watcher) NotifyNotes(db *DB, userUUID string, f Filter) error {
	notes, err := ListNotes(db, w.clock, userUUID, f)
	if err != nil {
		return errors.Wrap(err, "listing notes for notification")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.noteSubs {
		// latest-wins: displace a stale undelivered snapshot
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- notes:
		default:
		}
	}

	return nil
}

// NotifyCategories queries the current ordered category view for the user
// and fans it out to all category subscribers
func (w *Watcher) NotifyCategories(db *DB, userUUID string) error {
	categories, err := ListCategories(db, userUUID)
	if err != nil {
		return errors.Wrap(err, "listing categories for notification")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, ch := range w.categorySubs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- categories:
		default:
		}
	}

	return nil
}

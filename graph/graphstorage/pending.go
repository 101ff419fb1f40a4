/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graphstorage

import (
	"sort"
	"strings"
	"sync"
)

/*
pendingWrites holds writes of a record database which have not been flushed yet.
*/
type pendingWrites struct {
	store  map[string][]byte // Records to store
	remove map[string]bool   // Records to remove
	mutex  *sync.RWMutex     // Lock for the pending maps
}

/*
newPendingWrites creates a new empty pendingWrites object.
*/
func newPendingWrites() *pendingWrites {
	return &pendingWrites{make(map[string][]byte), make(map[string]bool), &sync.RWMutex{}}
}

/*
fetch looks up a key. Returns the value, a flag if the key was found and a
flag if the key is known to the pending writes at all.
*/
func (pw *pendingWrites) fetch(key string) ([]byte, bool, bool) {
	pw.mutex.RLock()
	defer pw.mutex.RUnlock()

	if v, ok := pw.store[key]; ok {
		return v, true, true
	}

	if pw.remove[key] {
		return nil, false, true
	}

	return nil, false, false
}

/*
put registers a value to store.
*/
func (pw *pendingWrites) put(key string, value []byte) {
	pw.mutex.Lock()
	defer pw.mutex.Unlock()

	delete(pw.remove, key)
	pw.store[key] = append([]byte(nil), value...)
}

/*
del registers a key to remove.
*/
func (pw *pendingWrites) del(key string) {
	pw.mutex.Lock()
	defer pw.mutex.Unlock()

	delete(pw.store, key)
	pw.remove[key] = true
}

/*
mergeKeys merges the given stored keys with the pending keys and returns
the sorted result for a given prefix.
*/
func (pw *pendingWrites) mergeKeys(stored []string, prefix string) []string {
	pw.mutex.RLock()
	defer pw.mutex.RUnlock()

	set := make(map[string]bool)

	for _, k := range stored {
		if !pw.remove[k] {
			set[k] = true
		}
	}

	for k := range pw.store {
		if strings.HasPrefix(k, prefix) {
			set[k] = true
		}
	}

	ret := make([]string, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}

	sort.Strings(ret)

	return ret
}

/*
drain returns all pending writes and resets this object.
*/
func (pw *pendingWrites) drain() (map[string][]byte, map[string]bool) {
	pw.mutex.Lock()
	defer pw.mutex.Unlock()

	store, remove := pw.store, pw.remove

	pw.store = make(map[string][]byte)
	pw.remove = make(map[string]bool)

	return store, remove
}

/*
reset discards all pending writes.
*/
func (pw *pendingWrites) reset() {
	pw.drain()
}

/*
isEmpty returns if there are no pending writes.
*/
func (pw *pendingWrites) isEmpty() bool {
	pw.mutex.RLock()
	defer pw.mutex.RUnlock()

	return len(pw.store) == 0 && len(pw.remove) == 0
}

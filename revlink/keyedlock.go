/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package revlink

import "sync"

/*
keyedMutex provides one mutex per key. Locks are never removed; the number
of keys is bounded by the number of namespaces.
*/
type keyedMutex struct {
	locks map[string]*sync.Mutex
	mutex sync.Mutex
}

/*
newKeyedMutex creates a new keyedMutex.
*/
func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

/*
get returns the mutex of a given key.
*/
func (km *keyedMutex) get(key string) *sync.Mutex {
	km.mutex.Lock()
	defer km.mutex.Unlock()

	if l, ok := km.locks[key]; ok {
		return l
	}

	l := &sync.Mutex{}
	km.locks[key] = l

	return l
}

/*
lock locks a key and returns the function which unlocks it again.
*/
func (km *keyedMutex) lock(key string) func() {
	l := km.get(key)
	l.Lock()

	return l.Unlock
}

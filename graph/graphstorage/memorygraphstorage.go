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

	"devt.de/krotik/revlinks/graph/util"
)

/*
Return values for Close, FlushMain, RollbackMain, FlushAll and record
database Rollback calls. These can be set to simulate storage failures.
*/
var MgsRetClose, MgsRetFlushMain, MgsRetRollbackMain, MgsRetFlushAll, MgsRetRollback error

/*
MemoryGraphStorage data structure
*/
type MemoryGraphStorage struct {
	name      string                     // Name of the graph storage
	mainDB    map[string]string          // Database storing meta data
	recordDBs map[string]*MemoryRecordDB // Map of record databases
	mutex     *sync.Mutex                // Lock for the record database map
}

/*
NewMemoryGraphStorage creates a new MemoryGraphStorage instance.
*/
func NewMemoryGraphStorage(name string) Storage {
	return &MemoryGraphStorage{name, make(map[string]string),
		make(map[string]*MemoryRecordDB), &sync.Mutex{}}
}

/*
Name returns the name of the MemoryGraphStorage instance.
*/
func (mgs *MemoryGraphStorage) Name() string {
	return mgs.name
}

/*
MainDB returns the main database.
*/
func (mgs *MemoryGraphStorage) MainDB() map[string]string {
	return mgs.mainDB
}

/*
RollbackMain rollback the main database.
*/
func (mgs *MemoryGraphStorage) RollbackMain() error {
	return MgsRetRollbackMain
}

/*
FlushMain writes the main database to the storage.
*/
func (mgs *MemoryGraphStorage) FlushMain() error {
	return MgsRetFlushMain
}

/*
RecordDB gets a record database with a certain name. A non-existing
RecordDB is created automatically if the create flag is set to true.
*/
func (mgs *MemoryGraphStorage) RecordDB(name string, create bool) RecordDB {
	mgs.mutex.Lock()
	defer mgs.mutex.Unlock()

	rdb, ok := mgs.recordDBs[name]

	if !ok {
		if !create {
			return nil
		}

		rdb = NewMemoryRecordDB(mgs.name + "/" + name)
		mgs.recordDBs[name] = rdb
	}

	return rdb
}

/*
FlushAll writes all pending changes to the storage.
*/
func (mgs *MemoryGraphStorage) FlushAll() error {
	if MgsRetFlushAll != nil {
		return &util.GraphError{Type: util.ErrFlushing, Detail: MgsRetFlushAll.Error()}
	}

	mgs.mutex.Lock()
	defer mgs.mutex.Unlock()

	for _, rdb := range mgs.recordDBs {
		rdb.Flush()
	}

	return nil
}

/*
Close closes the storage.
*/
func (mgs *MemoryGraphStorage) Close() error {
	return MgsRetClose
}

/*
MemoryRecordDB is a record database which keeps its data in memory only.
*/
type MemoryRecordDB struct {
	name    string            // Name of the record database
	data    map[string][]byte // Flushed records
	pending *pendingWrites    // Pending writes
	mutex   *sync.RWMutex     // Lock for the flushed records
}

/*
NewMemoryRecordDB creates a new MemoryRecordDB instance.
*/
func NewMemoryRecordDB(name string) *MemoryRecordDB {
	return &MemoryRecordDB{name, make(map[string][]byte), newPendingWrites(), &sync.RWMutex{}}
}

/*
Name returns the name of the record database.
*/
func (mrdb *MemoryRecordDB) Name() string {
	return mrdb.name
}

/*
Fetch fetches a record.
*/
func (mrdb *MemoryRecordDB) Fetch(key string) ([]byte, bool, error) {
	if v, ok, known := mrdb.pending.fetch(key); known {
		return v, ok, nil
	}

	mrdb.mutex.RLock()
	defer mrdb.mutex.RUnlock()

	v, ok := mrdb.data[key]

	return v, ok, nil
}

/*
Store stores a record.
*/
func (mrdb *MemoryRecordDB) Store(key string, value []byte) error {
	mrdb.pending.put(key, value)
	return nil
}

/*
Remove removes a record.
*/
func (mrdb *MemoryRecordDB) Remove(key string) error {
	mrdb.pending.del(key)
	return nil
}

/*
Keys returns all keys with a given prefix in ascending order.
*/
func (mrdb *MemoryRecordDB) Keys(prefix string) ([]string, error) {
	var stored []string

	mrdb.mutex.RLock()
	for k := range mrdb.data {
		if strings.HasPrefix(k, prefix) {
			stored = append(stored, k)
		}
	}
	mrdb.mutex.RUnlock()

	sort.Strings(stored)

	return mrdb.pending.mergeKeys(stored, prefix), nil
}

/*
Flush writes all pending changes.
*/
func (mrdb *MemoryRecordDB) Flush() error {
	store, remove := mrdb.pending.drain()

	mrdb.mutex.Lock()
	defer mrdb.mutex.Unlock()

	for k := range remove {
		delete(mrdb.data, k)
	}

	for k, v := range store {
		mrdb.data[k] = v
	}

	return nil
}

/*
Rollback discards all pending changes.
*/
func (mrdb *MemoryRecordDB) Rollback() error {
	mrdb.pending.reset()

	if MgsRetRollback != nil {
		return &util.GraphError{Type: util.ErrRollback, Detail: MgsRetRollback.Error()}
	}

	return nil
}

/*
Close closes the record database.
*/
func (mrdb *MemoryRecordDB) Close() error {
	return nil
}

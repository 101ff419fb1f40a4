/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package graphstorage contains classes which model storage objects for graph data.

There are three storage objects: DiskGraphStorage which stores persistent maps
in a directory, BadgerGraphStorage which uses a Badger key-value store and
MemoryGraphStorage which provides memory-only storage.

Each storage has a main database for meta data and any number of named record
databases which hold the encoded graph records.
*/
package graphstorage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"devt.de/krotik/common/datautil"
	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/revlinks/graph/util"
)

/*
FilenameMainDB is the filename for the main database file
*/
var FilenameMainDB = "main.pm"

/*
FileSuffixRecordDB is the suffix for record database files
*/
var FileSuffixRecordDB = ".rdb"

/*
DiskGraphStorage data structure
*/
type DiskGraphStorage struct {
	name      string                        // Name of the graph storage
	readonly  bool                          // Flag for readonly mode
	mainDB    *datautil.PersistentStringMap // Database storing meta data
	recordDBs map[string]*diskRecordDB      // Map of record databases
	mutex     *sync.Mutex                   // Lock for the record database map
}

/*
NewDiskGraphStorage creates a new DiskGraphStorage instance.
*/
func NewDiskGraphStorage(name string, readonly bool) (Storage, error) {

	dgs := &DiskGraphStorage{name, readonly, nil, make(map[string]*diskRecordDB), &sync.Mutex{}}

	// Load the graph storage if the storage directory already exists if not try to create it

	if res, _ := fileutil.PathExists(name); !res {
		if err := os.Mkdir(name, 0770); err != nil {
			return nil, &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
		}

		mainDB, err := datautil.NewPersistentStringMap(filepath.Join(name, FilenameMainDB))
		if err != nil {
			return nil, &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
		}

		dgs.mainDB = mainDB

	} else {

		mainDB, err := datautil.LoadPersistentStringMap(filepath.Join(name, FilenameMainDB))
		if err != nil {
			return nil, &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
		}

		dgs.mainDB = mainDB
	}

	return dgs, nil
}

/*
Name returns the name of the DiskGraphStorage instance.
*/
func (dgs *DiskGraphStorage) Name() string {
	return dgs.name
}

/*
MainDB returns the main database.
*/
func (dgs *DiskGraphStorage) MainDB() map[string]string {
	return dgs.mainDB.Data
}

/*
RollbackMain rollback the main database.
*/
func (dgs *DiskGraphStorage) RollbackMain() error {

	// Fail operation when readonly

	if dgs.readonly {
		return &util.GraphError{Type: util.ErrReadOnly, Detail: "Cannot rollback main db"}
	}

	mainDB, err := datautil.LoadPersistentStringMap(filepath.Join(dgs.name, FilenameMainDB))
	if err != nil {
		return &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
	}

	dgs.mainDB = mainDB

	return nil
}

/*
FlushMain writes the main database to the storage.
*/
func (dgs *DiskGraphStorage) FlushMain() error {

	// Fail operation when readonly

	if dgs.readonly {
		return &util.GraphError{Type: util.ErrReadOnly, Detail: "Cannot flush main db"}
	}

	if err := dgs.mainDB.Flush(); err != nil {
		return &util.GraphError{Type: util.ErrFlushing, Detail: err.Error()}
	}

	return nil
}

/*
RecordDB gets a record database with a certain name. A non-existing
RecordDB is created automatically if the create flag is set to true.
*/
func (dgs *DiskGraphStorage) RecordDB(name string, create bool) RecordDB {
	dgs.mutex.Lock()
	defer dgs.mutex.Unlock()

	if rdb, ok := dgs.recordDBs[name]; ok {
		return rdb
	}

	filename := filepath.Join(dgs.name, name+FileSuffixRecordDB)
	exists, _ := fileutil.PathExists(filename)

	// Create the record database object either if we may create or if the
	// database already exists

	if !exists && (!create || dgs.readonly) {
		return nil
	}

	var pm *datautil.PersistentStringMap
	var err error

	if exists {
		pm, err = datautil.LoadPersistentStringMap(filename)
	} else {
		pm, err = datautil.NewPersistentStringMap(filename)
	}

	if err != nil {
		return nil
	}

	rdb := &diskRecordDB{filename, dgs.readonly, pm, newPendingWrites(), &sync.RWMutex{}}
	dgs.recordDBs[name] = rdb

	return rdb
}

/*
FlushAll writes all pending changes to the storage.
*/
func (dgs *DiskGraphStorage) FlushAll() error {

	if dgs.readonly {
		return nil
	}

	var errors []string

	if err := dgs.mainDB.Flush(); err != nil {
		errors = append(errors, err.Error())
	}

	dgs.mutex.Lock()
	for _, rdb := range dgs.recordDBs {
		if err := rdb.Flush(); err != nil {
			errors = append(errors, err.Error())
		}
	}
	dgs.mutex.Unlock()

	if len(errors) > 0 {
		details := fmt.Sprint(dgs.name, " :", strings.Join(errors, "; "))

		return &util.GraphError{Type: util.ErrFlushing, Detail: details}
	}

	return nil
}

/*
Close closes the storage.
*/
func (dgs *DiskGraphStorage) Close() error {

	if dgs.readonly {
		return nil
	}

	var errors []string

	if err := dgs.mainDB.Flush(); err != nil {
		errors = append(errors, err.Error())
	}

	dgs.mutex.Lock()
	for _, rdb := range dgs.recordDBs {
		if err := rdb.Close(); err != nil {
			errors = append(errors, err.Error())
		}
	}
	dgs.mutex.Unlock()

	if len(errors) > 0 {
		details := fmt.Sprint(dgs.name, " :", strings.Join(errors, "; "))

		return &util.GraphError{Type: util.ErrClosing, Detail: details}
	}

	return nil
}

/*
diskRecordDB is a record database which is stored in a persistent map file.
*/
type diskRecordDB struct {
	filename string                        // File of the persistent map
	readonly bool                          // Flag for readonly mode
	pm       *datautil.PersistentStringMap // Flushed records
	pending  *pendingWrites                // Pending writes
	mutex    *sync.RWMutex                 // Lock for the persistent map
}

/*
Name returns the name of the record database.
*/
func (drdb *diskRecordDB) Name() string {
	return drdb.filename
}

/*
Fetch fetches a record.
*/
func (drdb *diskRecordDB) Fetch(key string) ([]byte, bool, error) {
	if v, ok, known := drdb.pending.fetch(key); known {
		return v, ok, nil
	}

	drdb.mutex.RLock()
	defer drdb.mutex.RUnlock()

	v, ok := drdb.pm.Data[key]

	if !ok {
		return nil, false, nil
	}

	return []byte(v), true, nil
}

/*
Store stores a record.
*/
func (drdb *diskRecordDB) Store(key string, value []byte) error {
	if drdb.readonly {
		return &util.GraphError{Type: util.ErrReadOnly, Detail: drdb.filename}
	}

	drdb.pending.put(key, value)

	return nil
}

/*
Remove removes a record.
*/
func (drdb *diskRecordDB) Remove(key string) error {
	if drdb.readonly {
		return &util.GraphError{Type: util.ErrReadOnly, Detail: drdb.filename}
	}

	drdb.pending.del(key)

	return nil
}

/*
Keys returns all keys with a given prefix in ascending order.
*/
func (drdb *diskRecordDB) Keys(prefix string) ([]string, error) {
	var stored []string

	drdb.mutex.RLock()
	for k := range drdb.pm.Data {
		if strings.HasPrefix(k, prefix) {
			stored = append(stored, k)
		}
	}
	drdb.mutex.RUnlock()

	sort.Strings(stored)

	return drdb.pending.mergeKeys(stored, prefix), nil
}

/*
Flush writes all pending changes to disk.
*/
func (drdb *diskRecordDB) Flush() error {

	if drdb.readonly || drdb.pending.isEmpty() {
		return nil
	}

	store, remove := drdb.pending.drain()

	drdb.mutex.Lock()
	defer drdb.mutex.Unlock()

	for k := range remove {
		delete(drdb.pm.Data, k)
	}

	for k, v := range store {
		drdb.pm.Data[k] = string(v)
	}

	if err := drdb.pm.Flush(); err != nil {
		return &util.GraphError{Type: util.ErrFlushing, Detail: err.Error()}
	}

	return nil
}

/*
Rollback discards all pending changes and reloads the flushed state.
*/
func (drdb *diskRecordDB) Rollback() error {
	drdb.pending.reset()

	drdb.mutex.Lock()
	defer drdb.mutex.Unlock()

	pm, err := datautil.LoadPersistentStringMap(drdb.filename)
	if err != nil {
		return &util.GraphError{Type: util.ErrRollback, Detail: err.Error()}
	}

	drdb.pm = pm

	return nil
}

/*
Close closes the record database.
*/
func (drdb *diskRecordDB) Close() error {
	return drdb.Flush()
}

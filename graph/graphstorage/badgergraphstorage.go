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
	"errors"
	"fmt"
	"strings"
	"sync"

	"devt.de/krotik/revlinks/graph/util"
	"github.com/dgraph-io/badger/v4"
)

/*
Key prefixes used in the Badger key space
*/
const (
	badgerPrefixMain   = "m/"
	badgerPrefixRecord = "r/"
)

/*
BadgerGraphStorage data structure
*/
type BadgerGraphStorage struct {
	name      string                     // Name of the graph storage
	db        *badger.DB                 // Badger database
	mainDB    map[string]string          // Main database (cached in memory)
	recordDBs map[string]*badgerRecordDB // Map of record databases
	mutex     *sync.Mutex                // Lock for the record database map
}

/*
NewBadgerGraphStorage creates a new BadgerGraphStorage instance. The data is
stored in the given directory. An empty directory creates an in-memory
Badger instance.
*/
func NewBadgerGraphStorage(name string, dir string) (Storage, error) {

	opts := badger.DefaultOptions(dir).WithLogger(nil)

	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &util.GraphError{Type: util.ErrOpening, Detail: err.Error()}
	}

	bgs := &BadgerGraphStorage{name, db, nil, make(map[string]*badgerRecordDB), &sync.Mutex{}}

	if err := bgs.loadMain(); err != nil {
		db.Close()
		return nil, err
	}

	return bgs, nil
}

/*
Name returns the name of the BadgerGraphStorage instance.
*/
func (bgs *BadgerGraphStorage) Name() string {
	return bgs.name
}

/*
MainDB returns the main database.
*/
func (bgs *BadgerGraphStorage) MainDB() map[string]string {
	return bgs.mainDB
}

/*
RollbackMain rollback the main database.
*/
func (bgs *BadgerGraphStorage) RollbackMain() error {
	return bgs.loadMain()
}

/*
loadMain loads the main database from Badger.
*/
func (bgs *BadgerGraphStorage) loadMain() error {
	mainDB := make(map[string]string)

	err := bgs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerPrefixMain)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()

			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}

			mainDB[strings.TrimPrefix(string(item.Key()), badgerPrefixMain)] = string(v)
		}

		return nil
	})

	if err != nil {
		return &util.GraphError{Type: util.ErrReading, Detail: err.Error()}
	}

	bgs.mainDB = mainDB

	return nil
}

/*
FlushMain writes the main database to the storage.
*/
func (bgs *BadgerGraphStorage) FlushMain() error {

	err := bgs.db.Update(func(txn *badger.Txn) error {
		for k, v := range bgs.mainDB {
			if err := txn.Set([]byte(badgerPrefixMain+k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return &util.GraphError{Type: util.ErrFlushing, Detail: err.Error()}
	}

	return nil
}

/*
RecordDB gets a record database with a certain name. A non-existing
RecordDB is created automatically if the create flag is set to true.
*/
func (bgs *BadgerGraphStorage) RecordDB(name string, create bool) RecordDB {
	bgs.mutex.Lock()
	defer bgs.mutex.Unlock()

	if rdb, ok := bgs.recordDBs[name]; ok {
		return rdb
	}

	rdb := &badgerRecordDB{name, bgs.db, badgerPrefixRecord + name + "/", newPendingWrites()}

	if !create {
		if keys, err := rdb.storedKeys(""); err != nil || len(keys) == 0 {
			return nil
		}
	}

	bgs.recordDBs[name] = rdb

	return rdb
}

/*
FlushAll writes all pending changes to the storage.
*/
func (bgs *BadgerGraphStorage) FlushAll() error {
	var errs []string

	if err := bgs.FlushMain(); err != nil {
		errs = append(errs, err.Error())
	}

	bgs.mutex.Lock()
	for _, rdb := range bgs.recordDBs {
		if err := rdb.Flush(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	bgs.mutex.Unlock()

	if len(errs) > 0 {
		details := fmt.Sprint(bgs.name, " :", strings.Join(errs, "; "))

		return &util.GraphError{Type: util.ErrFlushing, Detail: details}
	}

	return nil
}

/*
Close closes the storage.
*/
func (bgs *BadgerGraphStorage) Close() error {

	err := bgs.FlushAll()

	if cerr := bgs.db.Close(); cerr != nil {
		return &util.GraphError{Type: util.ErrClosing, Detail: cerr.Error()}
	}

	return err
}

/*
badgerRecordDB is a record database which is stored under a key prefix in Badger.
*/
type badgerRecordDB struct {
	name    string         // Name of the record database
	db      *badger.DB     // Badger database
	prefix  string         // Key prefix of all records
	pending *pendingWrites // Pending writes
}

/*
Name returns the name of the record database.
*/
func (brdb *badgerRecordDB) Name() string {
	return brdb.name
}

/*
Fetch fetches a record.
*/
func (brdb *badgerRecordDB) Fetch(key string) ([]byte, bool, error) {
	var ret []byte

	if v, ok, known := brdb.pending.fetch(key); known {
		return v, ok, nil
	}

	err := brdb.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(brdb.prefix + key))
		if err != nil {
			return err
		}

		ret, err = item.ValueCopy(nil)

		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, &util.GraphError{Type: util.ErrReading, Detail: err.Error()}
	}

	return ret, true, nil
}

/*
Store stores a record.
*/
func (brdb *badgerRecordDB) Store(key string, value []byte) error {
	brdb.pending.put(key, value)
	return nil
}

/*
Remove removes a record.
*/
func (brdb *badgerRecordDB) Remove(key string) error {
	brdb.pending.del(key)
	return nil
}

/*
Keys returns all keys with a given prefix in ascending order.
*/
func (brdb *badgerRecordDB) Keys(prefix string) ([]string, error) {
	stored, err := brdb.storedKeys(prefix)
	if err != nil {
		return nil, err
	}

	return brdb.pending.mergeKeys(stored, prefix), nil
}

/*
storedKeys returns all flushed keys with a given prefix. Badger iterates
in byte-wise key order.
*/
func (brdb *badgerRecordDB) storedKeys(prefix string) ([]string, error) {
	var ret []string

	err := brdb.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(brdb.prefix + prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			ret = append(ret, strings.TrimPrefix(string(it.Item().Key()), brdb.prefix))
		}

		return nil
	})

	if err != nil {
		return nil, &util.GraphError{Type: util.ErrReading, Detail: err.Error()}
	}

	return ret, nil
}

/*
Flush writes all pending changes in a single Badger transaction.
*/
func (brdb *badgerRecordDB) Flush() error {

	if brdb.pending.isEmpty() {
		return nil
	}

	store, remove := brdb.pending.drain()

	err := brdb.db.Update(func(txn *badger.Txn) error {
		for k := range remove {
			if err := txn.Delete([]byte(brdb.prefix + k)); err != nil {
				return err
			}
		}

		for k, v := range store {
			if err := txn.Set([]byte(brdb.prefix+k), v); err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return &util.GraphError{Type: util.ErrFlushing, Detail: err.Error()}
	}

	return nil
}

/*
Rollback discards all pending changes.
*/
func (brdb *badgerRecordDB) Rollback() error {
	brdb.pending.reset()
	return nil
}

/*
Close closes the record database. The Badger database is closed by the storage.
*/
func (brdb *badgerRecordDB) Close() error {
	return brdb.Flush()
}

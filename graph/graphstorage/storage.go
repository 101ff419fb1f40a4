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

/*
Storage interface models the storage backend for a graph manager.
*/
type Storage interface {

	/*
	   Name returns the name of the GraphStorage instance.
	*/
	Name() string

	/*
		MainDB returns the main database. The main database is a quick
		lookup map for meta data which is always kept in memory.
	*/
	MainDB() map[string]string

	/*
	   RollbackMain rollback the main database.
	*/
	RollbackMain() error

	/*
	   FlushMain writes the main database to the storage.
	*/
	FlushMain() error

	/*
	   FlushAll writes all pending changes to the storage.
	*/
	FlushAll() error

	/*
	   RecordDB gets a record database with a certain name. A non-existing
	   RecordDB is not created automatically if the create flag is set to false.
	   In that case nil is returned.
	*/
	RecordDB(name string, create bool) RecordDB

	/*
		Close closes the storage.
	*/
	Close() error
}

/*
RecordDB models a key-value store for encoded graph records. Writes are
pending until Flush is called and can be discarded with Rollback.
*/
type RecordDB interface {

	/*
		Name returns the name of the record database.
	*/
	Name() string

	/*
		Fetch fetches a record. Returns false if the record does not exist.
	*/
	Fetch(key string) ([]byte, bool, error)

	/*
		Store stores a record.
	*/
	Store(key string, value []byte) error

	/*
		Remove removes a record.
	*/
	Remove(key string) error

	/*
		Keys returns all keys with a given prefix in ascending order.
	*/
	Keys(prefix string) ([]string, error)

	/*
		Flush writes all pending changes.
	*/
	Flush() error

	/*
		Rollback discards all pending changes.
	*/
	Rollback() error

	/*
		Close closes the record database.
	*/
	Close() error
}

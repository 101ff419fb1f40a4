/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/revlinks/graph/data"
	"devt.de/krotik/revlinks/graph/graphstorage"
	"devt.de/krotik/revlinks/graph/util"
)

/*
Manager data structure
*/
type Manager struct {
	gs      graphstorage.Storage // Graph storage of this graph manager
	mutex   *sync.RWMutex        // Mutex to protect atomic graph operations
	idMutex *sync.Mutex          // Mutex for id allocation
}

/*
NewGraphManager returns a new Manager instance.
*/
func NewGraphManager(gs graphstorage.Storage) *Manager {

	mdb := gs.MainDB()

	// Check version

	if version, ok := mdb[MainDBVersion]; !ok {

		mdb[MainDBVersion] = strconv.Itoa(VERSION)
		mdb[MainDBIDCounter] = "0"
		gs.FlushMain()

	} else if v, _ := strconv.Atoi(version); v > VERSION {

		panic(fmt.Sprintf("Cannot open graph storage of version: %v - "+
			"max supported version: %v", version, VERSION))
	}

	return &Manager{gs, &sync.RWMutex{}, &sync.Mutex{}}
}

/*
Name returns the name of this graph manager.
*/
func (gm *Manager) Name() string {
	return fmt.Sprint("Graph ", gm.gs.Name())
}

/*
newID allocates a new unique id. Allocated ids are never reused even if
the allocating workspace is never committed.
*/
func (gm *Manager) newID() data.ID {
	gm.idMutex.Lock()
	defer gm.idMutex.Unlock()

	mdb := gm.gs.MainDB()

	counter, _ := strconv.ParseUint(mdb[MainDBIDCounter], 10, 64)
	counter++

	mdb[MainDBIDCounter] = strconv.FormatUint(counter, 10)

	return data.ID(counter)
}

/*
FetchNode fetches a published node. Returns nil if the node does not exist.
*/
func (gm *Manager) FetchNode(id data.ID) (*data.Node, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	b, err := gm.fetchRecord(RecordDBNodes, id)
	if b == nil || err != nil {
		return nil, err
	}

	return decodeNode(b)
}

/*
FetchNamespace fetches a published namespace. Returns nil if the namespace
does not exist.
*/
func (gm *Manager) FetchNamespace(id data.ID) (*data.Namespace, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	b, err := gm.fetchRecord(RecordDBNamespaces, id)
	if b == nil || err != nil {
		return nil, err
	}

	var rec namespaceRecord

	if err := decode(b, &rec); err != nil {
		return nil, err
	}

	return &data.Namespace{ID: data.ID(rec.ID), Name: rec.Name, Parent: data.ID(rec.Parent)}, nil
}

/*
FetchCollection fetches a published collection entity. Returns nil if the
collection does not exist.
*/
func (gm *Manager) FetchCollection(id data.ID) (*data.CollectionEntity, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	b, err := gm.fetchRecord(RecordDBCollections, id)
	if b == nil || err != nil {
		return nil, err
	}

	return decodeCollection(b)
}

/*
Namespaces returns all published namespaces ordered by id.
*/
func (gm *Manager) Namespaces() ([]*data.Namespace, error) {
	var ret []*data.Namespace

	ids, err := gm.recordIDs(RecordDBNamespaces, "")
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		ns, err := gm.FetchNamespace(id)
		if err != nil {
			return nil, err
		} else if ns != nil {
			ret = append(ret, ns)
		}
	}

	return ret, nil
}

/*
NamespaceMembers returns the ids of all published nodes of a namespace
ordered by id.
*/
func (gm *Manager) NamespaceMembers(ns data.ID) ([]data.ID, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	rdb := gm.gs.RecordDB(RecordDBMembers, false)
	if rdb == nil {
		return nil, nil
	}

	prefix := idKey(ns) + "/"

	keys, err := rdb.Keys(prefix)
	if err != nil {
		return nil, err
	}

	ret := make([]data.ID, 0, len(keys))

	for _, k := range keys {
		id, err := keyID(strings.TrimPrefix(k, prefix))
		if err != nil {
			return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: k}
		}
		ret = append(ret, id)
	}

	return ret, nil
}

/*
NodeCount returns the number of published nodes.
*/
func (gm *Manager) NodeCount() (int, error) {
	ids, err := gm.recordIDs(RecordDBNodes, "")
	return len(ids), err
}

/*
commit writes a set of changes to the storage and flushes it. All record
databases are rolled back if an error occurs. The main database is not
rolled back so allocated ids stay reserved.
*/
func (gm *Manager) commit(nodes map[data.ID]*data.Node, namespaces map[data.ID]*data.Namespace,
	collections map[data.ID]*data.CollectionEntity) error {

	gm.mutex.Lock()
	defer gm.mutex.Unlock()

	rdbs := []graphstorage.RecordDB{
		gm.gs.RecordDB(RecordDBNodes, true),
		gm.gs.RecordDB(RecordDBNamespaces, true),
		gm.gs.RecordDB(RecordDBCollections, true),
		gm.gs.RecordDB(RecordDBMembers, true),
	}

	for _, rdb := range rdbs {
		if rdb == nil {
			return &util.GraphError{Type: util.ErrAccessComponent, Detail: "Could not open record database"}
		}
	}

	doRollback := func(err error) error {
		rerr := errorutil.NewCompositeError()
		rerr.Add(err)

		for _, rdb := range rdbs {
			if err := rdb.Rollback(); err != nil {
				rerr.Add(err)
			}
		}

		return &util.GraphError{Type: util.ErrCommit, Detail: rerr.Error()}
	}

	// Write namespaces first so nodes never refer to unwritten namespaces

	for _, id := range sortedIDs(namespaces) {
		ns := namespaces[id]

		b, err := encode(&namespaceRecord{uint64(ns.ID), ns.Name, uint64(ns.Parent)})
		if err == nil {
			err = rdbs[1].Store(idKey(id), b)
		}

		if err != nil {
			return doRollback(err)
		}
	}

	for _, id := range sortedIDs(nodes) {
		node := nodes[id]

		b, err := encodeNode(node)
		if err == nil {
			err = rdbs[0].Store(idKey(id), b)
		}

		if err == nil && node.Namespace() != data.NoID {
			err = rdbs[3].Store(idKey(node.Namespace())+"/"+idKey(id), nil)
		}

		if err != nil {
			return doRollback(err)
		}
	}

	for _, id := range sortedIDs(collections) {
		b, err := encodeCollection(collections[id])
		if err == nil {
			err = rdbs[2].Store(idKey(id), b)
		}

		if err != nil {
			return doRollback(err)
		}
	}

	if err := gm.gs.FlushAll(); err != nil {
		return doRollback(err)
	}

	return nil
}

// Helper functions
// ================

/*
fetchRecord fetches a raw record. Returns nil if the record does not exist.
*/
func (gm *Manager) fetchRecord(rdbName string, id data.ID) ([]byte, error) {

	rdb := gm.gs.RecordDB(rdbName, false)
	if rdb == nil {
		return nil, nil
	}

	b, ok, err := rdb.Fetch(idKey(id))
	if !ok || err != nil {
		return nil, err
	}

	return b, nil
}

/*
recordIDs returns all ids of a record database.
*/
func (gm *Manager) recordIDs(rdbName string, prefix string) ([]data.ID, error) {
	gm.mutex.RLock()
	defer gm.mutex.RUnlock()

	rdb := gm.gs.RecordDB(rdbName, false)
	if rdb == nil {
		return nil, nil
	}

	keys, err := rdb.Keys(prefix)
	if err != nil {
		return nil, err
	}

	ret := make([]data.ID, 0, len(keys))

	for _, k := range keys {
		id, err := keyID(k)
		if err != nil {
			return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: k}
		}
		ret = append(ret, id)
	}

	return ret, nil
}

/*
sortedIDs returns the keys of an id map in ascending order.
*/
func sortedIDs[T any](m map[data.ID]T) []data.ID {
	ret := make([]data.ID, 0, len(m))

	for id := range m {
		ret = append(ret, id)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i] < ret[j]
	})

	return ret
}

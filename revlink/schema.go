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

import (
	"fmt"
	"sync"

	"devt.de/krotik/revlinks/graph/data"
	"golang.org/x/sync/singleflight"
)

/*
DefaultSchemaNamespace is the namespace which holds the schema node
*/
const DefaultSchemaNamespace = "RevLinks"

/*
SchemaName is the name of the schema node
*/
const SchemaName = "RLink"

/*
Properties of the schema node
*/
const (
	PropFields    = "fields"
	PropProcessed = "processed"
)

/*
Fields of a reverse-link record
*/
const (
	FieldSource        = "source"
	FieldTarget        = "target"
	FieldSourceType    = "sourceType"
	FieldTargetType    = "targetType"
	FieldRelationNames = "relationNames"
)

/*
Fields is the list of all record fields in the order they are stored in the
schema node.
*/
var Fields = []string{FieldSource, FieldTarget, FieldSourceType, FieldTargetType, FieldRelationNames}

/*
schemaGroup deduplicates concurrent schema lookups for the same store.
*/
var schemaGroup singleflight.Group

/*
schemaMutex serializes schema creation and changes to processed sets.
*/
var schemaMutex = &sync.Mutex{}

/*
Schema is a handle on the reverse-link schema node of a store.
*/
type Schema struct {
	store     Store   // Store which holds the schema
	id        data.ID // Id of the schema node
	namespace data.ID // Namespace of the schema node
	processed data.ID // Collection entity holding processed namespace ids
}

/*
GetOrCreateSchema returns the schema of a store. The schema node and its
namespace are created if they do not exist. Concurrent callers for the same
store share one result.
*/
func GetOrCreateSchema(store Store, namespace string) (*Schema, error) {

	if namespace == "" {
		namespace = DefaultSchemaNamespace
	}

	key := fmt.Sprintf("%p/%v/%v", store, namespace, SchemaName)

	res, err, _ := schemaGroup.Do(key, func() (interface{}, error) {
		schemaMutex.Lock()
		defer schemaMutex.Unlock()

		return getOrCreateSchema(store, namespace)
	})

	if err != nil {
		return nil, err
	}

	return res.(*Schema), nil
}

/*
getOrCreateSchema looks up or creates the schema. The caller must hold the
schema mutex.
*/
func getOrCreateSchema(store Store, namespace string) (*Schema, error) {

	fail := func(err error) (*Schema, error) {
		return nil, &Error{ErrSchemaUncreatable, err.Error()}
	}

	ns, _, err := store.GetOrCreateNamespace(namespace, data.NoID)
	if err != nil {
		return fail(err)
	}

	nodes, err := store.NodesOf(ns.ID)
	if err != nil {
		return fail(err)
	}

	for _, n := range nodes {
		if n.Name() != SchemaName {
			continue
		}

		s := &Schema{store, n.ID(), ns.ID, data.NoID}

		if v, ok := n.Prop(PropProcessed); ok {
			if ref, ok := v.(data.Reference); ok {
				s.processed = ref.Target()
				return s, nil
			}
		}

		if err := s.createProcessedSet(); err != nil {
			return fail(err)
		}

		return s, nil
	}

	id, err := store.CreateNode(data.NoID, ns.ID)
	if err != nil {
		return fail(err)
	}

	fields := make(data.Collection, 0, len(Fields))
	for _, f := range Fields {
		fields = append(fields, data.Str(f))
	}

	if err = store.SetProperty(id, data.NameProp, data.Str(SchemaName)); err == nil {
		err = store.SetProperty(id, PropFields, fields)
	}

	if err != nil {
		return fail(err)
	}

	s := &Schema{store, id, ns.ID, data.NoID}

	if err := s.createProcessedSet(); err != nil {
		return fail(err)
	}

	return s, nil
}

/*
createProcessedSet creates an empty processed set for the schema node.
*/
func (s *Schema) createProcessedSet() error {

	cid, err := s.store.CreateCollection(SchemaName+"."+PropProcessed, s.namespace)
	if err != nil {
		return err
	}

	if err := s.store.SetProperty(s.id, PropProcessed, data.Reference(cid)); err != nil {
		return err
	}

	s.processed = cid

	return nil
}

/*
ID returns the id of the schema node. All reverse-link records have this
id as type.
*/
func (s *Schema) ID() data.ID {
	return s.id
}

/*
Namespace returns the id of the namespace which holds the schema node.
*/
func (s *Schema) Namespace() data.ID {
	return s.namespace
}

/*
IsRecord checks if a given node is a reverse-link record.
*/
func (s *Schema) IsRecord(n *data.Node) bool {
	return n.Type() == s.id
}

/*
MarkProcessed adds a namespace to the processed set. Adding a namespace
which is already in the set does nothing.
*/
func (s *Schema) MarkProcessed(ns data.ID) error {
	schemaMutex.Lock()
	defer schemaMutex.Unlock()

	if ok, err := s.isProcessed(ns); ok || err != nil {
		return err
	}

	return s.store.AddToCollection(s.processed, data.Str(ns.String()))
}

/*
IsProcessed checks if a namespace is in the processed set.
*/
func (s *Schema) IsProcessed(ns data.ID) (bool, error) {
	schemaMutex.Lock()
	defer schemaMutex.Unlock()

	return s.isProcessed(ns)
}

/*
isProcessed checks if a namespace is in the processed set. The caller must
hold the schema mutex.
*/
func (s *Schema) isProcessed(ns data.ID) (bool, error) {

	ids, err := s.processedIDs()
	if err != nil {
		return false, err
	}

	for _, id := range ids {
		if id == ns {
			return true, nil
		}
	}

	return false, nil
}

/*
Processed returns the ids of all processed namespaces in the order they
were processed.
*/
func (s *Schema) Processed() ([]data.ID, error) {
	schemaMutex.Lock()
	defer schemaMutex.Unlock()

	return s.processedIDs()
}

/*
processedIDs reads the processed set. Elements which are not ids are ignored.
*/
func (s *Schema) processedIDs() ([]data.ID, error) {

	ce, ok, err := s.store.Collection(s.processed)
	if err != nil || !ok {
		return nil, err
	}

	var ret []data.ID

	for _, e := range ce.Elements {
		if id, err := data.ParseID(e.String()); err == nil {
			ret = append(ret, id)
		}
	}

	return ret, nil
}

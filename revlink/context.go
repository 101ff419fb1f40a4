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
Package revlink contains the reverse-link indexing engine.

The graph store only offers forward navigation: a node's properties point to
other nodes but there is no way to ask which nodes point to a given node. The
Builder scans the nodes of a namespace, groups their reference properties by
target and writes one reverse-link record per (source, target) pair into the
shadow namespace of the target's namespace. Looking up incoming links of a
node then only requires a scan of a single shadow namespace.

Reverse-link records are nodes whose type is the schema node RLink in the
namespace RevLinks. The schema node also holds the set of namespaces which
were already processed.

The Aggregator derives the @opposite property of a node (all distinct targets
of the node) from the Builder output. The Query object provides read access
to forward links, reverse links and display names. The Indexer runs whole
passes synchronously or as a background Task.

All components work on a Context which holds the store, the schema and the
logger.
*/
package revlink

import (
	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/revlinks/graph/data"
)

/*
Store is the view on the graph store which is needed by the reverse-link
engine. It is implemented by graph.Workspace.
*/
type Store interface {

	/*
		Node returns a node and a flag if the node exists.
	*/
	Node(id data.ID) (*data.Node, bool, error)

	/*
		CreateNode creates a new node with a given type in a given namespace.
	*/
	CreateNode(typ data.ID, ns data.ID) (data.ID, error)

	/*
		SetProperty sets a property of a node.
	*/
	SetProperty(id data.ID, name string, v data.Value) error

	/*
		Namespace returns a namespace and a flag if the namespace exists.
	*/
	Namespace(id data.ID) (*data.Namespace, bool, error)

	/*
		Namespaces returns all namespaces.
	*/
	Namespaces() ([]*data.Namespace, error)

	/*
		NamespaceByName looks up a namespace by its name and parent.
	*/
	NamespaceByName(name string, parent data.ID) (*data.Namespace, bool, error)

	/*
		GetOrCreateNamespace returns or atomically creates a namespace.
	*/
	GetOrCreateNamespace(name string, parent data.ID) (*data.Namespace, bool, error)

	/*
		NodesOf returns all nodes of a namespace.
	*/
	NodesOf(ns data.ID) ([]*data.Node, error)

	/*
		CreateCollection creates a new collection entity.
	*/
	CreateCollection(name string, ns data.ID) (data.ID, error)

	/*
		Collection returns a collection entity and a flag if it exists.
	*/
	Collection(id data.ID) (*data.CollectionEntity, bool, error)

	/*
		AddToCollection appends a value to a collection entity.
	*/
	AddToCollection(id data.ID, v data.Value) error

	/*
		Commit publishes all local changes.
	*/
	Commit() error
}

/*
Context bundles the objects which are used by all reverse-link operations.
*/
type Context struct {
	Store  Store       // Graph store
	Schema *Schema     // Reverse-link schema of the store
	Logger util.Logger // Logger for all operations

	locks *keyedMutex // Locks for shadow and source namespaces
}

/*
NewContext creates a new Context. The reverse-link schema is looked up or
created in the given schema namespace (DefaultSchemaNamespace if empty). A
nil logger discards all log output.
*/
func NewContext(store Store, schemaNamespace string, logger util.Logger) (*Context, error) {
	errorutil.AssertTrue(store != nil, "Store must not be nil")

	if logger == nil {
		logger = util.NewNullLogger()
	}

	schema, err := GetOrCreateSchema(store, schemaNamespace)
	if err != nil {
		return nil, err
	}

	return &Context{store, schema, logger, newKeyedMutex()}, nil
}

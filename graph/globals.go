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
Package graph contains the main API to the graph store.

Manager API

The published state of the graph is provided by a Manager object which can be
created with the NewGraphManager() constructor function. The manager allocates
ids and provides read access to nodes, namespaces and collection entities.

Workspaces

A workspace is used to build up changes to the graph. Nothing is written to
the storage before calling Commit(). Reads through a workspace see its own
uncommitted changes on top of the published state. A failed commit keeps all
local changes so the commit can be retried.

A workspace object can be created with the NewWorkspace() function.

Import

Graph documents in YAML or JSON format can be loaded into a workspace with
the Import() function. Two example documents are embedded (see Examples).

Graph databases

The storage is divided into several databases:

Main database

MainDB stores the storage version and the id counter.

Record databases

	nodes       : id -> encoded node
	namespaces  : id -> encoded namespace
	collections : id -> encoded collection entity
	members     : namespace id + "/" + node id -> <empty>
	(lookup of all nodes of a namespace)

All ids are stored as fixed width hex strings so key order equals id order.
*/
package graph

/*
VERSION of the graph storage format
*/
const VERSION = 1

/*
Main database entries
*/
const (
	MainDBVersion   = "ver"
	MainDBIDCounter = "idcounter"
)

/*
Record database names
*/
const (
	RecordDBNodes       = "nodes"
	RecordDBNamespaces  = "namespaces"
	RecordDBCollections = "collections"
	RecordDBMembers     = "members"
)

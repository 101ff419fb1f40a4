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
	"sync"

	"devt.de/krotik/revlinks/graph/data"
	"devt.de/krotik/revlinks/graph/util"
)

/*
idCounter is a simple counter for workspace ids
*/
var idCounter uint64
var idCounterLock = &sync.Mutex{}

/*
Workspace is a local uncommitted view on the graph. All writes are kept
locally until Commit is called. Reads see local changes first and then
the published state. All returned objects are copies.
*/
type Workspace struct {
	id string   // Unique workspace ID
	gm *Manager // Graph manager which holds the published state

	nodes       map[data.ID]*data.Node             // Nodes which should be stored
	namespaces  map[data.ID]*data.Namespace        // Namespaces which should be stored
	collections map[data.ID]*data.CollectionEntity // Collections which should be stored

	mutex *sync.RWMutex // Lock for local changes
}

/*
NewWorkspace creates a new workspace.
*/
func NewWorkspace(gm *Manager) *Workspace {
	idCounterLock.Lock()
	defer idCounterLock.Unlock()

	idCounter++

	return &Workspace{fmt.Sprint(idCounter), gm, make(map[data.ID]*data.Node),
		make(map[data.ID]*data.Namespace), make(map[data.ID]*data.CollectionEntity),
		&sync.RWMutex{}}
}

/*
ID returns a unique workspace ID.
*/
func (ws *Workspace) ID() string {
	return ws.id
}

/*
Manager returns the graph manager of this workspace.
*/
func (ws *Workspace) Manager() *Manager {
	return ws.gm
}

/*
Counts returns the number of uncommitted nodes, namespaces and collections.
*/
func (ws *Workspace) Counts() (int, int, int) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	return len(ws.nodes), len(ws.namespaces), len(ws.collections)
}

/*
IsEmpty returns if this workspace has no uncommitted changes.
*/
func (ws *Workspace) IsEmpty() bool {
	n, ns, c := ws.Counts()

	return n == 0 && ns == 0 && c == 0
}

/*
String returns a string representation of this workspace.
*/
func (ws *Workspace) String() string {
	n, ns, c := ws.Counts()

	return fmt.Sprintf("Workspace %v - Nodes: %v Namespaces: %v Collections: %v",
		ws.id, n, ns, c)
}

/*
Commit publishes all local changes. If the commit fails all local changes
are kept and the commit can be retried.
*/
func (ws *Workspace) Commit() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if len(ws.nodes) == 0 && len(ws.namespaces) == 0 && len(ws.collections) == 0 {
		return nil
	}

	if err := ws.gm.commit(ws.nodes, ws.namespaces, ws.collections); err != nil {
		return err
	}

	ws.nodes = make(map[data.ID]*data.Node)
	ws.namespaces = make(map[data.ID]*data.Namespace)
	ws.collections = make(map[data.ID]*data.CollectionEntity)

	return nil
}

/*
Discard drops all local changes. Ids which were allocated for them stay
reserved.
*/
func (ws *Workspace) Discard() {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	ws.nodes = make(map[data.ID]*data.Node)
	ws.namespaces = make(map[data.ID]*data.Namespace)
	ws.collections = make(map[data.ID]*data.CollectionEntity)
}

// Nodes
// =====

/*
Node returns a copy of a node and a flag if the node exists.
*/
func (ws *Workspace) Node(id data.ID) (*data.Node, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	n, err := ws.node(id)
	if n == nil || err != nil {
		return nil, false, err
	}

	return n.Copy(), true, nil
}

/*
node looks up a node without copying it. The caller must hold the lock.
*/
func (ws *Workspace) node(id data.ID) (*data.Node, error) {
	if n, ok := ws.nodes[id]; ok {
		return n, nil
	}

	return ws.gm.FetchNode(id)
}

/*
NodesOf returns copies of all nodes of a namespace ordered by id which is
the order of creation.
*/
func (ws *Workspace) NodesOf(ns data.ID) ([]*data.Node, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	ids, err := ws.gm.NamespaceMembers(ns)
	if err != nil {
		return nil, err
	}

	seen := make(map[data.ID]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}

	for id, n := range ws.nodes {
		if n.Namespace() == ns && !seen[id] {
			ids = append(ids, id)
		}
	}

	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})

	ret := make([]*data.Node, 0, len(ids))

	for _, id := range ids {
		n, err := ws.node(id)
		if err != nil {
			return nil, err
		} else if n != nil {
			ret = append(ret, n.Copy())
		}
	}

	return ret, nil
}

/*
CreateNode creates a new node with a given type in a given namespace.
*/
func (ws *Workspace) CreateNode(typ data.ID, ns data.ID) (data.ID, error) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if ns != data.NoID {
		if n, err := ws.namespace(ns); err != nil {
			return data.NoID, err
		} else if n == nil {
			return data.NoID, &util.GraphError{Type: util.ErrUnknownID,
				Detail: fmt.Sprintf("Namespace %v", ns)}
		}
	}

	id := ws.gm.newID()
	ws.nodes[id] = data.NewNode(id, typ, ns)

	return id, nil
}

/*
SetProperty sets a property of a node. A nil value removes the property.
*/
func (ws *Workspace) SetProperty(id data.ID, name string, v data.Value) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	n, ok := ws.nodes[id]

	if !ok {
		pn, err := ws.gm.FetchNode(id)
		if err != nil {
			return err
		} else if pn == nil {
			return &util.GraphError{Type: util.ErrUnknownID, Detail: fmt.Sprintf("Node %v", id)}
		}

		n = pn
		ws.nodes[id] = n
	}

	n.SetProp(name, data.CopyValue(v))

	return nil
}

// Namespaces
// ==========

/*
Namespace returns a copy of a namespace and a flag if the namespace exists.
*/
func (ws *Workspace) Namespace(id data.ID) (*data.Namespace, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	ns, err := ws.namespace(id)
	if ns == nil || err != nil {
		return nil, false, err
	}

	c := *ns

	return &c, true, nil
}

/*
namespace looks up a namespace without copying it. The caller must hold the lock.
*/
func (ws *Workspace) namespace(id data.ID) (*data.Namespace, error) {
	if ns, ok := ws.namespaces[id]; ok {
		return ns, nil
	}

	return ws.gm.FetchNamespace(id)
}

/*
Namespaces returns copies of all namespaces ordered by id.
*/
func (ws *Workspace) Namespaces() ([]*data.Namespace, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	return ws.allNamespaces()
}

/*
allNamespaces returns copies of all namespaces. The caller must hold the lock.
*/
func (ws *Workspace) allNamespaces() ([]*data.Namespace, error) {

	published, err := ws.gm.Namespaces()
	if err != nil {
		return nil, err
	}

	ret := make([]*data.Namespace, 0, len(published)+len(ws.namespaces))

	for _, ns := range published {
		if _, ok := ws.namespaces[ns.ID]; !ok {
			ret = append(ret, ns)
		}
	}

	for _, ns := range ws.namespaces {
		c := *ns
		ret = append(ret, &c)
	}

	sort.Slice(ret, func(i, j int) bool {
		return ret[i].ID < ret[j].ID
	})

	return ret, nil
}

/*
NamespaceByName looks up a namespace by its name and parent.
*/
func (ws *Workspace) NamespaceByName(name string, parent data.ID) (*data.Namespace, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	return ws.namespaceByName(name, parent)
}

/*
namespaceByName looks up a namespace by its name and parent. The caller
must hold the lock.
*/
func (ws *Workspace) namespaceByName(name string, parent data.ID) (*data.Namespace, bool, error) {

	all, err := ws.allNamespaces()
	if err != nil {
		return nil, false, err
	}

	for _, ns := range all {
		if ns.Name == name && ns.Parent == parent {
			return ns, true, nil
		}
	}

	return nil, false, nil
}

/*
GetOrCreateNamespace returns the namespace with a given name under a given
parent. The namespace is created if it does not exist. The operation is
atomic. Returns the namespace and a flag if it was created.
*/
func (ws *Workspace) GetOrCreateNamespace(name string, parent data.ID) (*data.Namespace, bool, error) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if name == "" {
		return nil, false, &util.GraphError{Type: util.ErrInvalidData, Detail: "Namespace name is empty"}
	}

	if ns, ok, err := ws.namespaceByName(name, parent); ok || err != nil {
		return ns, false, err
	}

	if parent != data.NoID {
		if p, err := ws.namespace(parent); err != nil {
			return nil, false, err
		} else if p == nil {
			return nil, false, &util.GraphError{Type: util.ErrUnknownID,
				Detail: fmt.Sprintf("Namespace %v", parent)}
		}
	}

	ns := &data.Namespace{ID: ws.gm.newID(), Name: name, Parent: parent}
	ws.namespaces[ns.ID] = ns

	c := *ns

	return &c, true, nil
}

// Collections
// ===========

/*
Collection returns a copy of a collection entity and a flag if it exists.
*/
func (ws *Workspace) Collection(id data.ID) (*data.CollectionEntity, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	ce, err := ws.collection(id)
	if ce == nil || err != nil {
		return nil, false, err
	}

	return ce.Copy(), true, nil
}

/*
collection looks up a collection without copying it. The caller must hold the lock.
*/
func (ws *Workspace) collection(id data.ID) (*data.CollectionEntity, error) {
	if ce, ok := ws.collections[id]; ok {
		return ce, nil
	}

	return ws.gm.FetchCollection(id)
}

/*
CreateCollection creates a new empty collection entity.
*/
func (ws *Workspace) CreateCollection(name string, ns data.ID) (data.ID, error) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	id := ws.gm.newID()
	ws.collections[id] = &data.CollectionEntity{ID: id, Name: name, Namespace: ns}

	return id, nil
}

/*
AddToCollection appends a value to a collection entity.
*/
func (ws *Workspace) AddToCollection(id data.ID, v data.Value) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	ce, ok := ws.collections[id]

	if !ok {
		pce, err := ws.gm.FetchCollection(id)
		if err != nil {
			return err
		} else if pce == nil {
			return &util.GraphError{Type: util.ErrUnknownID, Detail: fmt.Sprintf("Collection %v", id)}
		}

		ce = pce
		ws.collections[id] = ce
	}

	ce.Elements = append(ce.Elements, data.CopyValue(v))

	return nil
}

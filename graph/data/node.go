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
Package data contains the data model of the graph store.

Node

A node is a typed entity which belongs to a namespace. It has an ordered set of
named properties. Each property holds a Value: a Scalar (string or number), a
Reference to another entity or a Collection of values.

Namespace

Namespaces partition the graph hierarchically. A namespace name is unique
among the children of the same parent.

CollectionEntity

A collection entity is a named, ordered list of values which is stored as its
own entity so that a Reference can point to it.
*/
package data

import (
	"bytes"
	"fmt"
	"sort"
)

/*
NameProp is the property which holds the display name of a node.
*/
const NameProp = "name"

/*
Node data structure
*/
type Node struct {
	id        ID               // Unique id of the node
	typ       ID               // Id of the type node
	namespace ID               // Id of the namespace (NoID if none)
	names     []string         // Property names in insertion order
	props     map[string]Value // Property values
}

/*
NewNode creates a new node with no properties.
*/
func NewNode(id ID, typ ID, namespace ID) *Node {
	return &Node{id, typ, namespace, nil, make(map[string]Value)}
}

/*
ID returns the id of this node.
*/
func (n *Node) ID() ID {
	return n.id
}

/*
Type returns the id of the type node of this node.
*/
func (n *Node) Type() ID {
	return n.typ
}

/*
Namespace returns the namespace id of this node.
*/
func (n *Node) Namespace() ID {
	return n.namespace
}

/*
Prop returns a property value and a flag if the property exists.
*/
func (n *Node) Prop(name string) (Value, bool) {
	v, ok := n.props[name]
	return v, ok
}

/*
SetProp sets a property value. A nil value removes the property. Overwriting
an existing property keeps its position.
*/
func (n *Node) SetProp(name string, v Value) {

	if v == nil {

		if _, ok := n.props[name]; ok {
			delete(n.props, name)

			for i, pn := range n.names {
				if pn == name {
					n.names = append(n.names[:i:i], n.names[i+1:]...)
					break
				}
			}
		}

		return
	}

	if _, ok := n.props[name]; !ok {
		n.names = append(n.names, name)
	}

	n.props[name] = v
}

/*
PropNames returns all property names in insertion order.
*/
func (n *Node) PropNames() []string {
	return append([]string(nil), n.names...)
}

/*
Name returns the display name of this node or an empty string.
*/
func (n *Node) Name() string {
	if v, ok := n.props[NameProp]; ok {
		if s, ok := v.(Scalar); ok {
			return s.String()
		}
	}
	return ""
}

/*
Copy returns a deep copy of this node.
*/
func (n *Node) Copy() *Node {
	c := NewNode(n.id, n.typ, n.namespace)

	for _, name := range n.names {
		c.names = append(c.names, name)
		c.props[name] = CopyValue(n.props[name])
	}

	return c
}

/*
String returns a string representation of this node.
*/
func (n *Node) String() string {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Node %v (type:%v ns:%v)\n", n.id, n.typ, n.namespace))

	names := n.PropNames()
	sort.Strings(names)

	for _, name := range names {
		buf.WriteString(fmt.Sprintf("    %v : %v\n", name, n.props[name]))
	}

	return buf.String()
}

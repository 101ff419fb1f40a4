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

	"devt.de/krotik/revlinks/graph/data"
)

/*
UnknownName is the display name of nodes without a name property
*/
const UnknownName = "<Unknown>"

/*
Link directions of a LinkRow
*/
const (
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

/*
ForwardLink is a reference property of a node.
*/
type ForwardLink struct {
	Relation string  `json:"relation"` // Property name
	Target   data.ID `json:"target"`   // Referenced entity
}

/*
LinkRow is a single row of a link table of a node. Other always holds the
id of the node on the other end of the link; Label is for display only.
*/
type LinkRow struct {
	Direction string  `json:"direction"` // Either outgoing or incoming
	Relation  string  `json:"relation"`  // Relation name
	Other     data.ID `json:"other"`     // Node on the other end
	OtherName string  `json:"otherName"` // Display name of the other node
	Label     string  `json:"label"`     // Display label
}

/*
Query provides read access to forward and reverse links. It never writes
to the store.
*/
type Query struct {
	ctx *Context
}

/*
NewQuery creates a new Query object.
*/
func NewQuery(ctx *Context) *Query {
	return &Query{ctx}
}

/*
ResolveID validates a raw user supplied id.
*/
func (q *Query) ResolveID(raw string) (data.ID, error) {
	id, err := data.ParseID(raw)
	if err != nil {
		return data.NoID, &Error{ErrMalformedInput, err.Error()}
	}

	return id, nil
}

/*
ForwardLinks returns all reference properties of a node in property order.
Collections are not searched. Returns false if the node does not exist.
*/
func (q *Query) ForwardLinks(id data.ID) ([]ForwardLink, bool, error) {

	n, ok, err := q.ctx.Store.Node(id)
	if !ok || err != nil {
		return nil, false, err
	}

	ret := []ForwardLink{}

	for _, name := range n.PropNames() {
		v, _ := n.Prop(name)

		if ref, ok := v.(data.Reference); ok {
			ret = append(ret, ForwardLink{name, ref.Target()})
		}
	}

	return ret, true, nil
}

/*
ReverseLinks returns all records which point to a node. Only the shadow
namespace of the node's namespace is scanned. Returns false if the node
does not exist.
*/
func (q *Query) ReverseLinks(id data.ID) ([]*Record, bool, error) {

	n, ok, err := q.ctx.Store.Node(id)
	if !ok || err != nil {
		return nil, false, err
	}

	ret := []*Record{}

	if n.Namespace() == data.NoID {
		return ret, true, nil
	}

	shadow, ok, err := q.ctx.ShadowOf(n.Namespace())
	if !ok || err != nil {
		return ret, true, err
	}

	records, err := q.ctx.records(shadow.ID)
	if err != nil {
		return nil, true, err
	}

	for _, r := range records {
		if r.Target == id && r.TargetType == n.Type() {
			ret = append(ret, r)
		}
	}

	return ret, true, nil
}

/*
ReverseLinksGrouped returns all records of the shadow namespace of a given
namespace grouped by the type of their source. Returns false if the
namespace does not exist.
*/
func (q *Query) ReverseLinksGrouped(ns data.ID) (map[data.ID][]*Record, bool, error) {

	if _, ok, err := q.ctx.Store.Namespace(ns); !ok || err != nil {
		return nil, false, err
	}

	ret := make(map[data.ID][]*Record)

	shadow, ok, err := q.ctx.ShadowOf(ns)
	if !ok || err != nil {
		return ret, true, err
	}

	records, err := q.ctx.records(shadow.ID)
	if err != nil {
		return nil, true, err
	}

	for _, r := range records {
		ret[r.SourceType] = append(ret[r.SourceType], r)
	}

	return ret, true, nil
}

/*
Name returns the display name of an entity. Nodes without a name property
are named UnknownName. Namespaces and collection entities are resolved as
well. Returns false if no entity with the given id exists.
*/
func (q *Query) Name(id data.ID) (string, bool, error) {

	if n, ok, err := q.ctx.Store.Node(id); err != nil {
		return "", false, err
	} else if ok {
		if name := n.Name(); name != "" {
			return name, true, nil
		}
		return UnknownName, true, nil
	}

	if ns, ok, err := q.ctx.Store.Namespace(id); err != nil {
		return "", false, err
	} else if ok {
		return ns.Name, true, nil
	}

	if ce, ok, err := q.ctx.Store.Collection(id); err != nil {
		return "", false, err
	} else if ok {
		return ce.Name, true, nil
	}

	return "", false, nil
}

/*
Rows returns the link table of a node: one outgoing row per forward link
and one incoming row per relation name of each reverse link. Returns false
if the node does not exist.
*/
func (q *Query) Rows(id data.ID) ([]LinkRow, bool, error) {

	forward, ok, err := q.ForwardLinks(id)
	if !ok || err != nil {
		return nil, ok, err
	}

	reverse, _, err := q.ReverseLinks(id)
	if err != nil {
		return nil, true, err
	}

	ret := []LinkRow{}

	for _, fl := range forward {
		name, err := q.displayName(fl.Target)
		if err != nil {
			return nil, true, err
		}

		ret = append(ret, LinkRow{DirectionOutgoing, fl.Relation, fl.Target, name,
			fmt.Sprintf("this -%v-> %v (id=%v)", fl.Relation, name, fl.Target)})
	}

	for _, r := range reverse {
		name, err := q.displayName(r.Source)
		if err != nil {
			return nil, true, err
		}

		for _, rel := range r.RelationNames {
			ret = append(ret, LinkRow{DirectionIncoming, rel, r.Source, name,
				fmt.Sprintf("%v (id=%v) -%v-> this", name, r.Source, rel)})
		}
	}

	return ret, true, nil
}

/*
displayName returns the name of an entity or UnknownName.
*/
func (q *Query) displayName(id data.ID) (string, error) {
	name, ok, err := q.Name(id)
	if !ok {
		name = UnknownName
	}

	return name, err
}

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
	"strings"

	"devt.de/krotik/revlinks/graph/data"
)

/*
Record is a materialized reverse link. Source is the node which holds the
reference properties, Target is the node they point to.
*/
type Record struct {
	ID            data.ID  `json:"id"`            // Id of the record node
	Source        data.ID  `json:"source"`        // Referring node
	Target        data.ID  `json:"target"`        // Referenced node
	SourceType    data.ID  `json:"sourceType"`    // Type of the referring node
	TargetType    data.ID  `json:"targetType"`    // Type of the referenced node
	RelationNames []string `json:"relationNames"` // Names of the reference properties
}

/*
RecordName returns the display name of a record between two nodes.
*/
func RecordName(source data.ID, target data.ID) string {
	return fmt.Sprintf("[RL] %v->%v", source, target)
}

/*
String returns a string representation of this record.
*/
func (r *Record) String() string {
	return fmt.Sprintf("%v [%v]", RecordName(r.Source, r.Target), strings.Join(r.RelationNames, ","))
}

/*
recordFromNode reads a record from a record node. Returns false if the node
does not hold a valid source and target.
*/
func recordFromNode(n *data.Node) (*Record, bool) {

	ref := func(name string) data.ID {
		if v, ok := n.Prop(name); ok {
			if r, ok := v.(data.Reference); ok {
				return r.Target()
			}
		}
		return data.NoID
	}

	r := &Record{
		ID:         n.ID(),
		Source:     ref(FieldSource),
		Target:     ref(FieldTarget),
		SourceType: ref(FieldSourceType),
		TargetType: ref(FieldTargetType),
	}

	if v, ok := n.Prop(FieldRelationNames); ok {
		if c, ok := v.(data.Collection); ok {
			r.RelationNames = c.Strings()
		}
	}

	return r, r.Source != data.NoID && r.Target != data.NoID
}

/*
createRecord writes a new record node into a shadow namespace.
*/
func (ctx *Context) createRecord(shadow data.ID, source *data.Node, target *data.Node,
	relationNames []string) (data.ID, error) {

	id, err := ctx.Store.CreateNode(ctx.Schema.ID(), shadow)
	if err != nil {
		return data.NoID, err
	}

	names := make(data.Collection, 0, len(relationNames))
	for _, rn := range relationNames {
		names = append(names, data.Str(rn))
	}

	props := []struct {
		name  string
		value data.Value
	}{
		{data.NameProp, data.Str(RecordName(source.ID(), target.ID()))},
		{FieldSource, data.Reference(source.ID())},
		{FieldTarget, data.Reference(target.ID())},
		{FieldSourceType, data.Reference(source.Type())},
		{FieldTargetType, data.Reference(target.Type())},
		{FieldRelationNames, names},
	}

	for _, p := range props {
		if err := ctx.Store.SetProperty(id, p.name, p.value); err != nil {
			return data.NoID, err
		}
	}

	return id, nil
}

/*
records returns all valid records of a shadow namespace in creation order.
*/
func (ctx *Context) records(shadow data.ID) ([]*Record, error) {

	nodes, err := ctx.Store.NodesOf(shadow)
	if err != nil {
		return nil, err
	}

	var ret []*Record

	for _, n := range nodes {
		if !ctx.Schema.IsRecord(n) {
			continue
		}

		if r, ok := recordFromNode(n); ok {
			ret = append(ret, r)
		} else {
			ctx.Logger.LogError("Invalid reverse link record found: ", n.ID())
		}
	}

	return ret, nil
}

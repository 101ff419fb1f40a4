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
Report describes the result of a materialization of a single namespace.
*/
type Report struct {
	Namespace data.ID `json:"namespace"` // Materialized namespace
	Nodes     int     `json:"nodes"`     // Number of scanned nodes
	Records   int     `json:"records"`   // Number of created records
	Dangling  int     `json:"dangling"`  // Number of skipped groups with a target without namespace
	Failed    int     `json:"failed"`    // Number of groups which could not be written
}

/*
String returns a string representation of this report.
*/
func (r *Report) String() string {
	return fmt.Sprintf("Namespace %v - Nodes: %v Records: %v Dangling: %v Failed: %v",
		r.Namespace, r.Nodes, r.Records, r.Dangling, r.Failed)
}

/*
Builder materializes reverse-link records.
*/
type Builder struct {
	ctx *Context
}

/*
NewBuilder creates a new Builder.
*/
func NewBuilder(ctx *Context) *Builder {
	return &Builder{ctx}
}

/*
Materialize scans all nodes of a namespace and writes one reverse-link record
for every (node, target) pair into the shadow namespace of the target's
namespace. All reference properties of a node which point to the same target
are collapsed into one record. The namespace is marked as processed at the
end. Records are only ever added; calling Materialize twice on the same
namespace creates every record twice.
*/
func (b *Builder) Materialize(ns data.ID) (*Report, error) {

	n, ok, err := b.ctx.Store.Namespace(ns)
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, &Error{ErrNotFound, fmt.Sprintf("Namespace %v", ns)}
	}

	nodes, err := b.ctx.Store.NodesOf(ns)
	if err != nil {
		return nil, err
	}

	report := &Report{Namespace: ns, Nodes: len(nodes)}

	b.ctx.Logger.LogDebug("Materializing ", len(nodes), " nodes of ", n)

	for _, node := range nodes {
		targets, relNames := groupReferences(node)

		for _, t := range targets {
			b.materializeGroup(report, node, t, relNames[t])
		}
	}

	if err := b.ctx.Schema.MarkProcessed(ns); err != nil {
		return report, err
	}

	b.ctx.Logger.LogInfo("Materialized ", n, ": ", report)

	return report, nil
}

/*
materializeGroup writes the record of a single (source, target) group. Any
failure only affects this group.
*/
func (b *Builder) materializeGroup(report *Report, source *data.Node, target data.ID, relNames []string) {

	failed := func(msg string, err error) {
		report.Failed++
		b.ctx.Logger.LogError(fmt.Sprintf("Could not create reverse link %v->%v: %v %v",
			source.ID(), target, msg, err))
	}

	t, ok, err := b.ctx.Store.Node(target)
	if err != nil || !ok {
		failed("Target node lookup failed", err)
		return
	}

	if t.Namespace() == data.NoID {
		report.Dangling++
		b.ctx.Logger.LogDebug(&Error{ErrDanglingTarget,
			fmt.Sprintf("Skipping %v [%v]", RecordName(source.ID(), target), strings.Join(relNames, ","))})
		return
	}

	tns, ok, err := b.ctx.Store.Namespace(t.Namespace())
	if err != nil || !ok {
		failed("Target namespace lookup failed", err)
		return
	}

	defer b.ctx.shadowLock(tns.ID)()

	shadow, err := b.ctx.getOrCreateShadow(tns)
	if err != nil {
		failed("Shadow namespace not available", err)
		return
	}

	id, err := b.ctx.createRecord(shadow.ID, source, t, relNames)
	if err != nil {
		failed("Record not written", err)
		return
	}

	report.Records++

	b.ctx.Logger.LogDebug(fmt.Sprintf("Created reverse link %v: %v -> %v [%v]",
		id, source.ID(), target, strings.Join(relNames, ",")))
}

/*
groupReferences groups the reference properties of a node by target. Targets
are returned in the order they were first seen. Relation names keep the
order of the properties. Only properties which hold a single reference are
considered; the @opposite property is never indexed.
*/
func groupReferences(n *data.Node) ([]data.ID, map[data.ID][]string) {
	var targets []data.ID

	relNames := make(map[data.ID][]string)

	for _, name := range n.PropNames() {

		if name == OppositeProp {
			continue
		}

		v, _ := n.Prop(name)

		if ref, ok := v.(data.Reference); ok {
			t := ref.Target()

			if _, ok := relNames[t]; !ok {
				targets = append(targets, t)
			}

			relNames[t] = append(relNames[t], name)
		}
	}

	return targets, relNames
}

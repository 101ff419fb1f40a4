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
OppositeProp is the derived property which holds all distinct targets of
a node.
*/
const OppositeProp = "@opposite"

/*
Aggregator computes the @opposite property of nodes from materialized
reverse-link records.
*/
type Aggregator struct {
	ctx *Context
}

/*
NewAggregator creates a new Aggregator.
*/
func NewAggregator(ctx *Context) *Aggregator {
	return &Aggregator{ctx}
}

/*
ComputeOpposite collects the targets of all records which have the given
node as source. Targets are deduplicated and kept in the order they were
first seen. The result is stored in a new collection entity which replaces
the @opposite property of the node. The records must have been materialized
before; the forward properties of the node are not evaluated.
*/
func (a *Aggregator) ComputeOpposite(id data.ID) ([]data.ID, error) {

	n, ok, err := a.ctx.Store.Node(id)
	if err != nil {
		return nil, err
	} else if !ok {
		return nil, &Error{ErrNotFound, fmt.Sprintf("Node %v", id)}
	}

	shadows, err := a.candidateShadows(n)
	if err != nil {
		return nil, err
	}

	var targets []data.ID
	seen := make(map[data.ID]bool)

	for _, shadow := range shadows {

		records, err := a.ctx.records(shadow)
		if err != nil {
			return nil, err
		}

		for _, r := range records {
			if r.Source == id && !seen[r.Target] {
				seen[r.Target] = true
				targets = append(targets, r.Target)
			}
		}
	}

	cid, err := a.ctx.Store.CreateCollection(fmt.Sprintf("%v.opposites", id), n.Namespace())
	if err != nil {
		return nil, err
	}

	for _, t := range targets {
		if err := a.ctx.Store.AddToCollection(cid, data.Reference(t)); err != nil {
			return nil, err
		}
	}

	if err := a.ctx.Store.SetProperty(id, OppositeProp, data.Reference(cid)); err != nil {
		return nil, err
	}

	a.ctx.Logger.LogDebug(fmt.Sprintf("Set %v of %v referencing %v nodes", OppositeProp, id, len(targets)))

	return targets, nil
}

/*
candidateShadows returns the shadow namespaces which can hold records with
the given node as source. The shadow namespace of the node's own namespace
comes first, followed by all other shadow namespaces in id order.
*/
func (a *Aggregator) candidateShadows(n *data.Node) ([]data.ID, error) {
	var ret []data.ID

	own := data.NoID

	if n.Namespace() != data.NoID {
		shadow, ok, err := a.ctx.ShadowOf(n.Namespace())
		if err != nil {
			return nil, err
		} else if ok {
			own = shadow.ID
			ret = append(ret, own)
		}
	}

	nss, err := a.ctx.Store.Namespaces()
	if err != nil {
		return nil, err
	}

	for _, ns := range nss {
		if ns.ID != own && IsShadowName(ns.Name) {
			ret = append(ret, ns.ID)
		}
	}

	return ret, nil
}

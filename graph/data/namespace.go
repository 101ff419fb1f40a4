/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import "fmt"

/*
Namespace data structure
*/
type Namespace struct {
	ID     ID     // Unique id of the namespace
	Name   string // Name (unique among siblings)
	Parent ID     // Parent namespace (NoID for root level)
}

/*
String returns a string representation of this namespace.
*/
func (ns *Namespace) String() string {
	return fmt.Sprintf("%v (id=%v)", ns.Name, ns.ID)
}

/*
CollectionEntity data structure
*/
type CollectionEntity struct {
	ID        ID     // Unique id of the collection
	Name      string // Name of the collection
	Namespace ID     // Owning namespace
	Elements  []Value
}

/*
Copy returns a deep copy of this collection entity.
*/
func (ce *CollectionEntity) Copy() *CollectionEntity {
	els := make([]Value, len(ce.Elements))
	for i, e := range ce.Elements {
		els[i] = CopyValue(e)
	}
	return &CollectionEntity{ce.ID, ce.Name, ce.Namespace, els}
}

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
ShadowPrefix is the name prefix of all shadow namespaces
*/
const ShadowPrefix = "RL_"

/*
ShadowName returns the name of the shadow namespace of a given namespace.
*/
func ShadowName(ns *data.Namespace) string {
	return fmt.Sprintf("%v%v_%v", ShadowPrefix, ns.ID, ns.Name)
}

/*
IsShadowName checks if a namespace name is the name of a shadow namespace.
*/
func IsShadowName(name string) bool {
	return strings.HasPrefix(name, ShadowPrefix)
}

/*
IsInternal checks if a namespace holds reverse-link data (shadow namespaces
and the schema namespace). Internal namespaces are never indexed.
*/
func (ctx *Context) IsInternal(ns *data.Namespace) bool {
	return IsShadowName(ns.Name) || ns.ID == ctx.Schema.Namespace()
}

/*
ShadowOf looks up the shadow namespace of a given namespace. The shadow
namespace is not created if it does not exist.
*/
func (ctx *Context) ShadowOf(ns data.ID) (*data.Namespace, bool, error) {

	n, ok, err := ctx.Store.Namespace(ns)
	if !ok || err != nil {
		return nil, false, err
	}

	return ctx.Store.NamespaceByName(ShadowName(n), n.Parent)
}

/*
shadowLock locks the shadow namespace of a given namespace.
*/
func (ctx *Context) shadowLock(ns data.ID) func() {
	return ctx.locks.lock("shadow/" + ns.String())
}

/*
getOrCreateShadow returns the shadow namespace of a given namespace. It is
created under the same parent if it does not exist. The caller must hold
the shadow lock.
*/
func (ctx *Context) getOrCreateShadow(ns *data.Namespace) (*data.Namespace, error) {

	shadow, created, err := ctx.Store.GetOrCreateNamespace(ShadowName(ns), ns.Parent)

	if created {
		ctx.Logger.LogDebug("Created shadow namespace ", shadow, " for ", ns)
	}

	return shadow, err
}

/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package console

import (
	"fmt"
	"io"

	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/revlinks/revlink"
)

/*
LinkTable returns the cells of a link table for the given rows. Outgoing rows
are listed before incoming rows.
*/
func LinkTable(rows []revlink.LinkRow) []string {
	tab := []string{"Direction", "Relation", "Link"}

	for _, dir := range []string{revlink.DirectionOutgoing, revlink.DirectionIncoming} {
		for _, row := range rows {
			if row.Direction == dir {
				tab = append(tab, row.Direction, row.Relation, row.Label)
			}
		}
	}

	return tab
}

/*
PrintLinks writes the link table of an entity to the given writer.
*/
func PrintLinks(out io.Writer, name string, id interface{}, rows []revlink.LinkRow) {
	fmt.Fprintln(out, fmt.Sprintf("Links of %v (id=%v)", name, id))
	fmt.Fprint(out, stringutil.PrintStringTable(LinkTable(rows), 3))
}

/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package v1

import (
	"net/http"

	"devt.de/krotik/revlinks/api"
	"devt.de/krotik/revlinks/revlink"
)

/*
EndpointLinks is the links endpoint URL (rooted). Handles everything under links/...
*/
const EndpointLinks = api.APIRoot + APIv1 + "/links/"

/*
LinksEndpointInst creates a new endpoint handler.
*/
func LinksEndpointInst() api.RestEndpointHandler {
	return &linksEndpoint{}
}

/*
Handler object for link table queries.
*/
type linksEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET returns the outgoing and incoming links of a node.
*/
func (le *linksEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	id, ok := resourceID(w, resources, "Need a node id")
	if !ok {
		return
	}

	rows, ok, err := api.QS.Rows(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	} else if !ok {
		notFound(w, "node", id)
		return
	}

	name, _, err := api.QS.Name(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	outgoing := []revlink.LinkRow{}
	incoming := []revlink.LinkRow{}

	for _, row := range rows {
		if row.Direction == revlink.DirectionOutgoing {
			outgoing = append(outgoing, row)
		} else {
			incoming = append(incoming, row)
		}
	}

	writeJSON(w, map[string]interface{}{
		"id":       id,
		"name":     name,
		"outgoing": outgoing,
		"incoming": incoming,
	})
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (le *linksEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/links/{id}"] = getPath(
		"Return the link table of a node.",
		"Returns all outgoing references of a node and all materialized reverse links which point to it.",
		"id", "Node id.")

	errorDefinition(s)
}

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
EndpointRevLinks is the reverse links endpoint URL (rooted). Handles everything under revlinks/...
*/
const EndpointRevLinks = api.APIRoot + APIv1 + "/revlinks/"

/*
EndpointGrouped is the grouped reverse links endpoint URL (rooted). Handles everything under grouped/...
*/
const EndpointGrouped = api.APIRoot + APIv1 + "/grouped/"

/*
RevLinksEndpointInst creates a new endpoint handler.
*/
func RevLinksEndpointInst() api.RestEndpointHandler {
	return &revLinksEndpoint{}
}

/*
Handler object for reverse link queries.
*/
type revLinksEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET returns all reverse-link records of a node.
*/
func (re *revLinksEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	id, ok := resourceID(w, resources, "Need a node id")
	if !ok {
		return
	}

	records, ok, err := api.QS.ReverseLinks(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	} else if !ok {
		notFound(w, "node", id)
		return
	}

	if records == nil {
		records = []*revlink.Record{}
	}

	writeJSON(w, records)
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (re *revLinksEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/revlinks/{id}"] = getPath(
		"Return the reverse links of a node.",
		"Returns all materialized reverse-link records whose target is the given node.",
		"id", "Node id.")

	errorDefinition(s)
}

/*
GroupedEndpointInst creates a new endpoint handler.
*/
func GroupedEndpointInst() api.RestEndpointHandler {
	return &groupedEndpoint{}
}

/*
Handler object for grouped reverse link queries.
*/
type groupedEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET returns all reverse-link records of a namespace grouped by the
type of their source.
*/
func (ge *groupedEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	id, ok := resourceID(w, resources, "Need a namespace id")
	if !ok {
		return
	}

	grouped, ok, err := api.QS.ReverseLinksGrouped(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	} else if !ok {
		notFound(w, "namespace", id)
		return
	}

	// JSON object keys are the decimal source type ids

	writeJSON(w, grouped)
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ge *groupedEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/grouped/{namespace}"] = getPath(
		"Return the reverse links of a namespace grouped by source type.",
		"Returns all reverse-link records stored for a namespace as an object which maps source type ids to lists of records.",
		"namespace", "Namespace id.")

	errorDefinition(s)
}

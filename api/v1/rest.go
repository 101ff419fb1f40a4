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
Package v1 contains version 1 of the RevLinks REST API.

/namespaces

Lists all namespaces with their processed flag.

/links/<id>

Outgoing and incoming links of a node.

/revlinks/<id>

Reverse-link records of a node.

/grouped/<namespace id>

Reverse-link records of a namespace grouped by source type.

/name/<id>

Display name of a node, namespace or collection.

/materialize

Starts background indexing passes and reports their status.

/events

Websocket feed which sends a message for every finished pass.
*/
package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"devt.de/krotik/revlinks/api"
	"devt.de/krotik/revlinks/graph/data"
)

/*
APIv1 is the directory for version 1 of the API
*/
const APIv1 = "/v1"

/*
V1EndpointMap is a map of urls to endpoints for version 1 of the API
*/
var V1EndpointMap = map[string]api.RestEndpointInst{
	EndpointNamespaces:  NamespacesEndpointInst,
	EndpointLinks:       LinksEndpointInst,
	EndpointRevLinks:    RevLinksEndpointInst,
	EndpointGrouped:     GroupedEndpointInst,
	EndpointName:        NameEndpointInst,
	EndpointMaterialize: MaterializeEndpointInst,
	EndpointEvents:      EventsEndpointInst,
}

// Helper functions
// ================

/*
checkResources check given resources for a GET request.
*/
func checkResources(w http.ResponseWriter, resources []string, requiredMin int, requiredMax int, errorMsg string) bool {
	if len(resources) < requiredMin {
		http.Error(w, errorMsg, http.StatusBadRequest)
		return false
	} else if len(resources) > requiredMax {
		http.Error(w, "Invalid resource specification: "+strings.Join(resources[1:], "/"), http.StatusBadRequest)
		return false
	}
	return true
}

/*
resourceID parses the id of a single resource. Writes a bad request
response and returns false if the resource is missing or malformed.
*/
func resourceID(w http.ResponseWriter, resources []string, errorMsg string) (data.ID, bool) {

	if !checkResources(w, resources, 1, 1, errorMsg) {
		return data.NoID, false
	}

	id, err := api.QS.ResolveID(resources[0])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return data.NoID, false
	}

	return id, true
}

/*
writeJSON writes a JSON response.
*/
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("content-type", "application/json; charset=utf-8")

	ret := json.NewEncoder(w)
	ret.Encode(v)
}

/*
notFound writes a not found response for a given id.
*/
func notFound(w http.ResponseWriter, kind string, id data.ID) {
	http.Error(w, fmt.Sprintf("Unknown %v: %v", kind, id), http.StatusNotFound)
}

/*
errorDefinition adds the generic error object to a swagger definition.
*/
func errorDefinition(s map[string]interface{}) {
	s["definitions"].(map[string]interface{})["Error"] = map[string]interface{}{
		"description": "A human readable error mesage.",
		"type":        "string",
	}
}

/*
getPath builds a swagger definition for a GET path with an optional id
parameter.
*/
func getPath(summary string, description string, param string, paramDesc string) map[string]interface{} {

	get := map[string]interface{}{
		"summary":     summary,
		"description": description,
		"produces": []string{
			"text/plain",
			"application/json",
		},
		"responses": map[string]interface{}{
			"200": map[string]interface{}{
				"description": "A JSON object or list.",
			},
			"default": map[string]interface{}{
				"description": "Error response",
				"schema": map[string]interface{}{
					"$ref": "#/definitions/Error",
				},
			},
		},
	}

	if param != "" {
		get["parameters"] = []map[string]interface{}{
			{
				"name":        param,
				"in":          "path",
				"description": paramDesc,
				"required":    true,
				"type":        "integer",
			},
		}
	}

	return map[string]interface{}{"get": get}
}

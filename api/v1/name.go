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
)

/*
EndpointName is the name endpoint URL (rooted). Handles everything under name/...
*/
const EndpointName = api.APIRoot + APIv1 + "/name/"

/*
NameEndpointInst creates a new endpoint handler.
*/
func NameEndpointInst() api.RestEndpointHandler {
	return &nameEndpoint{}
}

/*
Handler object for name lookups.
*/
type nameEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET returns the display name of an entity.
*/
func (ne *nameEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	id, ok := resourceID(w, resources, "Need an id")
	if !ok {
		return
	}

	name, found, err := api.QS.Name(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"id":    id,
		"name":  name,
		"found": found,
	})
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ne *nameEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/name/{id}"] = getPath(
		"Return the name of an entity.",
		"Returns the display name of a node, namespace or collection. The found flag is false for unknown ids.",
		"id", "Entity id.")

	errorDefinition(s)
}

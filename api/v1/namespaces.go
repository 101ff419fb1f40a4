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

	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/revlinks/api"
)

/*
EndpointNamespaces is the namespaces endpoint URL (rooted). Handles everything under namespaces/...
*/
const EndpointNamespaces = api.APIRoot + APIv1 + "/namespaces/"

/*
NamespacesEndpointInst creates a new endpoint handler.
*/
func NamespacesEndpointInst() api.RestEndpointHandler {
	return &namespacesEndpoint{}
}

/*
Handler object for namespace queries.
*/
type namespacesEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET handles a namespace listing REST call.
*/
func (ne *namespacesEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 0, 0, "") {
		return
	}

	ctx := api.IX.Context()
	all := stringutil.IsTrueValue(r.URL.Query().Get("all"))

	nss, err := ctx.Store.Namespaces()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ret := []map[string]interface{}{}

	for _, ns := range nss {

		if !all && ctx.IsInternal(ns) {
			continue
		}

		processed, err := ctx.Schema.IsProcessed(ns.ID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		ret = append(ret, map[string]interface{}{
			"id":        ns.ID,
			"name":      ns.Name,
			"parent":    ns.Parent,
			"processed": processed,
		})
	}

	writeJSON(w, ret)
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ne *namespacesEndpoint) SwaggerDefs(s map[string]interface{}) {

	path := getPath("Return all namespaces.",
		"Lists all namespaces with their parent and processed flag. Shadow namespaces and the schema namespace are only included if the all parameter is set.",
		"", "")

	path["get"].(map[string]interface{})["parameters"] = []map[string]interface{}{
		{
			"name":        "all",
			"in":          "query",
			"description": "Include internal namespaces.",
			"required":    false,
			"type":        "boolean",
		},
	}

	s["paths"].(map[string]interface{})["/v1/namespaces"] = path

	errorDefinition(s)
}

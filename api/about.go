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
Package api contains general REST API definitions.

The REST API provides read access to forward and reverse links of the graph
and allows starting indexing passes. The API responds to GET, POST, PUT and
DELETE requests in JSON if the request was successful (Return code 200 OK)
and plain text in all other cases.

Common API definitions

/about

Endpoint which returns an object with version and index information.

	api_versions : List of available API versions e.g. [ "v1" ]
	product      : Name of the API provider (RevLinks)
	version      : Version of the API provider
	index        : State of the reverse-link index (only if an indexer is set)
	  schema     : Id of the schema namespace
	  processed  : Number of processed namespaces
	  shadows    : Number of shadow namespaces
	  running    : Number of running indexing passes

/swagger.json

Dynamically generated swagger definition file. See: http://swagger.io
*/
package api

import (
	"net/http"

	"devt.de/krotik/revlinks/config"
	"devt.de/krotik/revlinks/revlink"
)

/*
EndpointAbout is the about endpoint URL (rooted). Handles about/
*/
const EndpointAbout = APIRoot + "/about/"

/*
AboutEndpointInst creates a new endpoint handler.
*/
func AboutEndpointInst() RestEndpointHandler {
	return &aboutEndpoint{}
}

/*
Handler object for about operations.
*/
type aboutEndpoint struct {
	*DefaultEndpointHandler
}

/*
HandleGET returns about data for the REST API.
*/
func (a *aboutEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	data := map[string]interface{}{
		"api_versions": []string{"v1"},
		"product":      "RevLinks",
		"version":      config.ProductVersion,
	}

	if IX != nil {
		index, err := IndexInfo(IX)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data["index"] = index
	}

	writeJSON(w, data)
}

/*
IndexInfo summarizes the state of the reverse-link index of an indexer.
*/
func IndexInfo(ix *revlink.Indexer) (map[string]interface{}, error) {
	ctx := ix.Context()

	processed, err := ctx.Schema.Processed()
	if err != nil {
		return nil, err
	}

	nss, err := ctx.Store.Namespaces()
	if err != nil {
		return nil, err
	}

	shadows := 0

	for _, ns := range nss {
		if revlink.IsShadowName(ns.Name) {
			shadows++
		}
	}

	running := 0

	for _, t := range ix.Tasks() {
		if _, done := t.Finished(); !done {
			running++
		}
	}

	return map[string]interface{}{
		"schema":    uint64(ctx.Schema.Namespace()),
		"processed": len(processed),
		"shadows":   shadows,
		"running":   running,
	}, nil
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (a *aboutEndpoint) SwaggerDefs(s map[string]interface{}) {

	count := func(desc string) map[string]interface{} {
		return map[string]interface{}{"description": desc, "type": "integer"}
	}

	s["paths"].(map[string]interface{})["/about"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return information about the REST API provider and the index.",
			"description": "Returns available API versions, product name, product version and the state of the reverse-link index.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "About info object",
					"schema": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"api_versions": map[string]interface{}{
								"description": "List of available API versions.",
								"type":        "array",
								"items": map[string]interface{}{
									"type": "string",
								},
							},
							"product": map[string]interface{}{
								"description": "Product name of the REST API provider.",
								"type":        "string",
							},
							"version": map[string]interface{}{
								"description": "Version of the REST API provider.",
								"type":        "string",
							},
							"index": map[string]interface{}{
								"description": "State of the reverse-link index.",
								"type":        "object",
								"properties": map[string]interface{}{
									"schema":    count("Id of the schema namespace."),
									"processed": count("Number of processed namespaces."),
									"shadows":   count("Number of shadow namespaces."),
									"running":   count("Number of running indexing passes."),
								},
							},
						},
					},
				},
				"default": errorResponse,
			},
		},
	}
}

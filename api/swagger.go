/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package api

import (
	"net/http"
	"sort"
)

/*
EndpointSwagger is the swagger endpoint URL (rooted). Handles swagger.json/
*/
const EndpointSwagger = APIRoot + "/swagger.json/"

/*
errorResponse is the swagger response for all failed requests.
*/
var errorResponse = map[string]interface{}{
	"description": "Error response",
	"schema": map[string]interface{}{
		"$ref": "#/definitions/Error",
	},
}

/*
SwaggerEndpointInst creates a new endpoint handler.
*/
func SwaggerEndpointInst() RestEndpointHandler {
	return &swaggerEndpoint{}
}

/*
Handler object for swagger operations.
*/
type swaggerEndpoint struct {
	*DefaultEndpointHandler
}

/*
HandleGET returns the swagger definition of the REST API.
*/
func (a *swaggerEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {
	writeJSON(w, SwaggerDoc())
}

/*
SwaggerDoc builds the swagger definition of all registered endpoints.
Endpoints are visited in URL order.
*/
func SwaggerDoc() map[string]interface{} {

	doc := map[string]interface{}{
		"swagger":  "2.0",
		"host":     APIHost,
		"schemes":  APISchemes,
		"basePath": APIRoot,
		"produces": []string{"application/json"},
		"paths":    map[string]interface{}{},
		"definitions": map[string]interface{}{
			"Error": map[string]interface{}{
				"description": "A human readable error mesage.",
				"type":        "string",
			},
		},
	}

	(&swaggerEndpoint{}).SwaggerDefs(doc)

	var urls []string

	for url := range registered {
		urls = append(urls, url)
	}

	sort.Strings(urls)

	for _, url := range urls {
		registered[url]().SwaggerDefs(doc)
	}

	return doc
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (a *swaggerEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["info"] = map[string]interface{}{
		"title":       "RevLinks API",
		"description": "Query forward and reverse links of the graph and run indexing passes.",
		"version":     APIVersion,
	}
}

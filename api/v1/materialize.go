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
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"devt.de/krotik/revlinks/api"
	"devt.de/krotik/revlinks/revlink"
)

/*
EndpointMaterialize is the materialize endpoint URL (rooted). Handles everything under materialize/...
*/
const EndpointMaterialize = api.APIRoot + APIv1 + "/materialize/"

/*
MaterializeEndpointInst creates a new endpoint handler.
*/
func MaterializeEndpointInst() api.RestEndpointHandler {
	return &materializeEndpoint{}
}

/*
Handler object for indexing passes.
*/
type materializeEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
materializeRequest is the body of a pass request.
*/
type materializeRequest struct {
	Namespaces []string `json:"namespaces"` // Namespace names (empty for all)
	Force      bool     `json:"force"`      // Ignore the processed flag
}

/*
HandleGET returns the status of background passes.
*/
func (me *materializeEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 0, 1, "") {
		return
	}

	if len(resources) == 0 {
		ret := []map[string]interface{}{}

		for _, t := range api.IX.Tasks() {
			ret = append(ret, taskStatus(t))
		}

		writeJSON(w, ret)
		return
	}

	t, ok := api.IX.Task(resources[0])
	if !ok {
		http.Error(w, "Unknown task: "+resources[0], http.StatusNotFound)
		return
	}

	writeJSON(w, taskStatus(t))
}

/*
HandlePOST starts a background pass.
*/
func (me *materializeEndpoint) HandlePOST(w http.ResponseWriter, r *http.Request, resources []string) {
	var req materializeRequest

	if !checkResources(w, resources, 0, 0, "") {
		return
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	nss, err := api.IX.ResolveNamespaces(req.Namespaces)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, revlink.ErrNotFound) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}

	t := api.IX.Start(nss, revlink.Options{Force: req.Force})

	writeJSON(w, map[string]interface{}{
		"task": t.ID(),
	})
}

/*
taskStatus returns a JSON serializable status of a background pass.
*/
func taskStatus(t *revlink.Task) map[string]interface{} {

	ret := map[string]interface{}{
		"id":         t.ID(),
		"namespaces": t.Namespaces(),
		"force":      t.Options().Force,
		"started":    t.Started().Format(time.RFC3339),
		"done":       false,
	}

	if finished, ok := t.Finished(); ok {
		res, err := t.Result()

		ret["done"] = true
		ret["finished"] = finished.Format(time.RFC3339)
		ret["result"] = res

		if err != nil {
			ret["error"] = err.Error()
		}
	}

	return ret
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (me *materializeEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/materialize"] = map[string]interface{}{
		"get": getPath("Return all background passes.",
			"Returns the status of all background passes ordered by start time.", "", "")["get"],
		"post": map[string]interface{}{
			"summary":     "Start a background pass.",
			"description": "Materializes the reverse links of the given namespaces in the background. An empty list of namespaces selects all namespaces.",
			"consumes": []string{
				"application/json",
			},
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"parameters": []map[string]interface{}{
				{
					"name":        "request",
					"in":          "body",
					"description": "Namespace names and force flag.",
					"required":    true,
					"schema": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"namespaces": map[string]interface{}{
								"type": "array",
								"items": map[string]interface{}{
									"type": "string",
								},
							},
							"force": map[string]interface{}{
								"type": "boolean",
							},
						},
					},
				},
			},
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "Object with the id of the started task.",
				},
				"default": map[string]interface{}{
					"description": "Error response",
					"schema": map[string]interface{}{
						"$ref": "#/definitions/Error",
					},
				},
			},
		},
	}

	taskPath := getPath("Return the status of a background pass.",
		"Returns start and finish time, the reports of all materialized namespaces and any error of a background pass.",
		"task", "Task id.")
	taskPath["get"].(map[string]interface{})["parameters"].([]map[string]interface{})[0]["type"] = "string"

	s["paths"].(map[string]interface{})["/v1/materialize/{task}"] = taskPath

	errorDefinition(s)
}

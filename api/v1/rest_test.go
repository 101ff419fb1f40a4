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
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/httputil"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/revlinks/api"
	"devt.de/krotik/revlinks/graph"
	"devt.de/krotik/revlinks/graph/data"
	"devt.de/krotik/revlinks/graph/graphstorage"
	"devt.de/krotik/revlinks/revlink"
)

const TESTPORT = ":9091"

var testWS *graph.Workspace
var testKeys map[string]data.ID

// Main function for all tests in this package

func TestMain(m *testing.M) {
	flag.Parse()

	testWS, testKeys = carGraph()

	hs, wg := startServer()
	if hs == nil {
		return
	}

	// Register endpoints for version 1

	api.RegisterRestEndpoints(api.GeneralEndpointMap)
	api.RegisterRestEndpoints(V1EndpointMap)

	// Run the tests

	res := m.Run()

	// Teardown

	stopServer(hs, wg)

	os.Exit(res)
}

func TestSwaggerDefs(t *testing.T) {

	// Test we can build swagger defs from the endpoint

	data := map[string]interface{}{
		"paths":       map[string]interface{}{},
		"definitions": map[string]interface{}{},
	}

	for _, inst := range V1EndpointMap {
		inst().SwaggerDefs(data)
	}

	if len(data["paths"].(map[string]interface{})) != 7 {
		t.Error("Unexpected result:", data["paths"])
		return
	}
}

func TestSwaggerOutput(t *testing.T) {

	_, _, res := sendTestRequest("http://localhost"+TESTPORT+api.EndpointSwagger, "GET", nil)

	var doc map[string]interface{}
	decodeResponse(res, &doc)

	paths := doc["paths"].(map[string]interface{})

	for _, p := range []string{"/about", "/v1/links/{id}", "/v1/revlinks/{id}", "/v1/grouped/{namespace}",
		"/v1/name/{id}", "/v1/namespaces", "/v1/materialize", "/v1/materialize/{task}"} {

		if _, ok := paths[p]; !ok {
			t.Error("Missing path:", p, paths)
			return
		}
	}
}

func TestAboutIndex(t *testing.T) {

	_, _, res := sendTestRequest("http://localhost"+TESTPORT+api.EndpointAbout, "GET", nil)

	var about map[string]interface{}
	decodeResponse(res, &about)

	index, ok := about["index"].(map[string]interface{})

	if !ok || fmt.Sprint(index["schema"]) != fmt.Sprint(api.IX.Context().Schema.Namespace()) {
		t.Error("Unexpected result:", res)
		return
	}

	// The Cars namespace was processed and refers into three namespaces

	if processed := index["processed"].(float64); processed < 1 {
		t.Error("Unexpected result:", res)
		return
	}

	if shadows := index["shadows"].(float64); shadows < 3 {
		t.Error("Unexpected result:", res)
		return
	}
}

/*
carGraph imports the cars example and materializes the Cars namespace.
*/
func carGraph() (*graph.Workspace, map[string]data.ID) {

	mgs := graphstorage.NewMemoryGraphStorage("mystorage")
	ws := graph.NewWorkspace(graph.NewGraphManager(mgs))

	r, err := graph.Example("cars")
	errorutil.AssertOk(err)

	keys, err := graph.Import(ws, r)
	errorutil.AssertOk(err)

	ctx, err := revlink.NewContext(ws, "", util.NewMemoryLogger(100))
	errorutil.AssertOk(err)

	api.IX = revlink.NewIndexer(ctx)
	api.QS = revlink.NewQuery(ctx)

	nss, err := api.IX.ResolveNamespaces([]string{"Cars"})
	errorutil.AssertOk(err)

	_, err = api.IX.Run(nss, revlink.Options{})
	errorutil.AssertOk(err)

	return ws, keys
}

/*
namespaceID returns the id of a root or child namespace by name.
*/
func namespaceID(name string) data.ID {
	nss, err := testWS.Namespaces()
	errorutil.AssertOk(err)

	for _, ns := range nss {
		if ns.Name == name {
			return ns.ID
		}
	}

	return data.NoID
}

/*
Send a request to a HTTP test server
*/
func sendTestRequest(url string, method string, content []byte) (string, http.Header, string) {
	var req *http.Request
	var err error

	if content != nil {
		req, err = http.NewRequest(method, url, bytes.NewBuffer(content))
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	bodyStr := strings.Trim(string(body), " \n")

	// Try json decoding first

	out := bytes.Buffer{}
	err = json.Indent(&out, []byte(bodyStr), "", "  ")
	if err == nil {
		return resp.Status, resp.Header, out.String()
	}

	// Just return the body

	return resp.Status, resp.Header, bodyStr
}

/*
decodeResponse decodes a JSON response.
*/
func decodeResponse(res string, v interface{}) {
	errorutil.AssertOk(json.Unmarshal([]byte(res), v))
}

/*
formatJSONString formats a given JSON string.
*/
func formatJSONString(str string) string {
	out := bytes.Buffer{}
	errorutil.AssertOk(json.Indent(&out, []byte(str), "", "  "))
	return out.String()
}

/*
Start a HTTP test server.
*/
func startServer() (*httputil.HTTPServer, *sync.WaitGroup) {
	hs := &httputil.HTTPServer{}

	var wg sync.WaitGroup
	wg.Add(1)

	go hs.RunHTTPServer(TESTPORT, &wg)

	wg.Wait()

	// Server is started

	if hs.LastError != nil {
		panic(hs.LastError)
	}

	return hs, &wg
}

/*
Stop a started HTTP test server.
*/
func stopServer(hs *httputil.HTTPServer, wg *sync.WaitGroup) {

	if hs.Running == true {

		wg.Add(1)

		// Server is shut down

		hs.Shutdown()

		wg.Wait()

	} else {

		panic("Server was not running as expected")
	}
}

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
	"bytes"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/httputil"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/revlinks/api"
	v1 "devt.de/krotik/revlinks/api/v1"
	"devt.de/krotik/revlinks/config"
	"devt.de/krotik/revlinks/graph"
	"devt.de/krotik/revlinks/graph/data"
	"devt.de/krotik/revlinks/graph/graphstorage"
	"devt.de/krotik/revlinks/revlink"
)

const TESTPORT = ":9092"

const TESTURL = "http://localhost" + TESTPORT

var testWS *graph.Workspace
var testKeys map[string]data.ID

func TestMain(m *testing.M) {
	flag.Parse()

	// Initialise DB

	mgs := graphstorage.NewMemoryGraphStorage("mystorage")
	testWS = graph.NewWorkspace(graph.NewGraphManager(mgs))

	r, err := graph.Example("cars")
	errorutil.AssertOk(err)

	testKeys, err = graph.Import(testWS, r)
	errorutil.AssertOk(err)

	ctx, err := revlink.NewContext(testWS, "", util.NewMemoryLogger(100))
	errorutil.AssertOk(err)

	api.IX = revlink.NewIndexer(ctx)
	api.QS = revlink.NewQuery(ctx)

	nss, err := api.IX.ResolveNamespaces([]string{"Cars"})
	errorutil.AssertOk(err)

	_, err = api.IX.Run(nss, revlink.Options{})
	errorutil.AssertOk(err)

	// Start the server

	hs, wg := startServer()
	if hs == nil {
		return
	}

	api.RegisterRestEndpoints(api.GeneralEndpointMap)
	api.RegisterRestEndpoints(v1.V1EndpointMap)

	// Run the tests

	res := m.Run()

	// Stop the server

	stopServer(hs, wg)

	os.Exit(res)
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

/*
namespaceID returns the id of a namespace by name.
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

func TestDescriptions(t *testing.T) {
	var out bytes.Buffer

	c := NewConsole(TESTURL, &out, func(args []string, e *bytes.Buffer) error {
		return nil
	})

	for _, cmd := range c.Commands() {
		if ok, err := c.Run("help " + cmd.Name()); !ok || err != nil {
			t.Error(ok, err)
			return
		}
	}

	if res := out.String(); res != `
Exports the output of the previous command. Tables (e.g. link tables) are exported as CSV, task ids and names as plain text.
Shows all reverse links which point into a namespace grouped by the type of the referring node. Requires the namespace id as parameter.
Display descriptions for all available commands. Shows the full description of a single command if its name is given.
Shows the outgoing and incoming links of a node. Requires the node id as parameter. Incoming links are only shown once the namespace of the referring node was materialized.
Starts an indexing pass in the background. Takes a list of namespace names as parameters (all namespaces if no name is given). Processed namespaces are skipped unless the first parameter is --force.
Shows the display name of a node, namespace or collection. Requires the id as parameter.
Lists all namespaces with their parent and processed flag. Use 'ns all' to include shadow namespaces and the schema namespace.
Shows the status of all indexing passes or of a single pass if a task id is given.
Displays the server version, the schema namespace of the reverse-link index and the number of processed namespaces, shadow namespaces and running indexing passes.
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("help foo"); ok || err == nil || err.Error() != "Unknown command: foo" {
		t.Error(ok, err)
		return
	}
}

func TestBasicCommands(t *testing.T) {
	var out bytes.Buffer
	var export bytes.Buffer

	c := NewConsole(TESTURL, &out, func(args []string, e *bytes.Buffer) error {
		export = *e
		return nil
	})

	if ok, err := c.Run("ver"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	schema := api.IX.Context().Schema.Namespace()

	if res := out.String(); res != `
Connected to: `[1:]+TESTURL+`
RevLinks `+config.ProductVersion+` (REST versions: [v1])
Index in namespace `+schema.String()+`: 1 processed namespace, 3 shadow namespaces, 0 running passes
` {
		t.Error("Unexpected result:", res)
		return
	}

	// The index state can be exported

	if ok, err := c.Run("export"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := export.String(); res != "schema, processed, shadows, running\n"+schema.String()+", 1, 3, 0\n" {
		t.Error("Unexpected result:", res)
		return
	}

	out.Reset()

	if ok, err := c.Run("?"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != `
Command     Description
export      Exports the last output.
grouped     Shows the reverse links of a namespace grouped by source type.
help        Display descriptions for all available commands.
links       Shows the outgoing and incoming links of a node.
materialize Starts an indexing pass.
name        Shows the name of a node, namespace or collection.
ns          Lists all namespaces.
status      Shows the status of indexing passes.
ver         Displays server version and index information.
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	// Export the help table

	if ok, err := c.Run("export"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := export.String(); !strings.HasPrefix(res, "Command, Description\nexport, Exports the last output.\n") {
		t.Error("Unexpected result:", res)
		return
	}

	// Commands without output cannot be exported

	if ok, err := c.Run("foo"); ok || err == nil || err.Error() != "Unknown command" {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("export"); ok || err == nil || err.Error() != "Nothing to export" {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("foo"); ok || err == nil || err.Error() != "Unknown command" {
		t.Error(ok, err)
		return
	}

	// Commands without export function

	c = NewConsole(TESTURL, &out, nil)

	if ok, err := c.Run("export"); ok || err == nil || err.Error() != "Unknown command" {
		t.Error(ok, err)
		return
	}
}

func TestNamespacesCommand(t *testing.T) {
	var out bytes.Buffer

	c := NewConsole(TESTURL, &out, nil)

	if ok, err := c.Run("ns"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")

	if len(lines) != 8 || !strings.HasPrefix(lines[0], "ID") || !strings.Contains(lines[0], "Processed") {
		t.Error("Unexpected result:", lines)
		return
	}

	cars := fmt.Sprintf("%v", namespaceID("Cars"))
	vehicles := fmt.Sprintf("%v", namespaceID("Vehicles"))

	found := false
	for _, l := range lines[1:] {
		if fields := strings.Fields(l); fields[0] == cars {
			found = fields[1] == "Cars" && fields[2] == vehicles && fields[3] == "true"
		}
	}

	if !found {
		t.Error("Unexpected result:", lines)
		return
	}

	// Internal namespaces are listed on request

	out.Reset()

	if ok, err := c.Run("ns all"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); !strings.Contains(res, revlink.DefaultSchemaNamespace) ||
		!strings.Contains(res, fmt.Sprintf("RL_%v_Colors", namespaceID("Colors"))) {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestLinksCommand(t *testing.T) {
	var out bytes.Buffer
	var export bytes.Buffer

	c := NewConsole(TESTURL, &out, func(args []string, e *bytes.Buffer) error {
		export = *e
		return nil
	})

	black := testKeys["black"]
	blackHonda := testKeys["blackHonda"]

	if ok, err := c.Run(fmt.Sprint("links ", black)); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")

	if len(lines) != 6 || lines[0] != fmt.Sprintf("Links of Black (id=%v)", black) {
		t.Error("Unexpected result:", lines)
		return
	}

	if l := lines[2]; !strings.HasPrefix(l, "incoming") || !strings.Contains(l, "has_color") ||
		!strings.HasSuffix(l, fmt.Sprintf("My black Honda (id=%v) -has_color-> this", blackHonda)) {
		t.Error("Unexpected result:", l)
		return
	}

	if ok, err := c.Run("export"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := export.String(); !strings.HasPrefix(res, "Direction, Relation, Link\nincoming, has_color, ") {
		t.Error("Unexpected result:", res)
		return
	}

	// Errors

	if ok, err := c.Run("links"); ok || err == nil || err.Error() != "Please specify a node id" {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("links 9999"); ok || err == nil ||
		err.Error() != "GET request to /db/v1/links/9999 failed: Unknown node: 9999" {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("links abc"); ok || err == nil ||
		err.Error() != `GET request to /db/v1/links/abc failed: RevLinkError: Malformed input (Invalid id: "abc")` {
		t.Error(ok, err)
		return
	}
}

func TestGroupedCommand(t *testing.T) {
	var out bytes.Buffer

	c := NewConsole(TESTURL, &out, nil)

	if ok, err := c.Run(fmt.Sprint("grouped ", namespaceID("Colors"))); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")

	if len(lines) != 3 || !strings.HasPrefix(lines[0], "Source type") {
		t.Error("Unexpected result:", lines)
		return
	}

	if l := lines[1]; !strings.HasPrefix(l, fmt.Sprintf("Car (id=%v)", testKeys["Car"])) ||
		!strings.HasSuffix(l, "has_color, interior_color") {
		t.Error("Unexpected result:", l)
		return
	}

	// Nothing points into the cars namespace

	out.Reset()

	if ok, err := c.Run(fmt.Sprint("grouped ", namespaceID("Cars"))); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := strings.TrimSpace(out.String()); res != "Source type Source Target Relations" {
		t.Error("Unexpected result:", res)
		return
	}

	if ok, err := c.Run("grouped"); ok || err == nil || err.Error() != "Please specify a namespace id" {
		t.Error(ok, err)
		return
	}
}

func TestNameCommand(t *testing.T) {
	var out bytes.Buffer

	c := NewConsole(TESTURL, &out, nil)

	if ok, err := c.Run(fmt.Sprint("name ", testKeys["blackHonda"], "; name 9999")); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	if res := out.String(); res != `
My black Honda
Unknown id: 9999
`[1:] {
		t.Error("Unexpected result:", res)
		return
	}

	if ok, err := c.Run("name"); ok || err == nil || err.Error() != "Please specify an id" {
		t.Error(ok, err)
		return
	}
}

func TestMaterializeCommand(t *testing.T) {
	var out bytes.Buffer
	var export bytes.Buffer

	c := NewConsole(TESTURL, &out, func(args []string, e *bytes.Buffer) error {
		export = *e
		return nil
	})

	if ok, err := c.Run("materialize Brands; export"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	taskID := export.String()

	if res := out.String(); res != "Started pass "+taskID+"\n" {
		t.Error("Unexpected result:", res)
		return
	}

	task, ok := api.IX.Task(taskID)
	if !ok {
		t.Error("Task should be registered:", taskID)
		return
	}

	task.Wait()

	out.Reset()

	if ok, err := c.Run("status " + taskID); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")

	// Brands refer to two countries

	if len(lines) != 2 || strings.Join(strings.Fields(lines[1]), " ") != taskID+" true 2 0" {
		t.Error("Unexpected result:", lines)
		return
	}

	// A second pass skips the processed namespace

	out.Reset()

	if ok, err := c.Run("materialize Brands; export"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	taskID2 := export.String()
	task, _ = api.IX.Task(taskID2)
	task.Wait()

	out.Reset()

	if ok, err := c.Run("status"); !ok || err != nil {
		t.Error(ok, err)
		return
	}

	res := out.String()

	if !strings.Contains(res, taskID) || !strings.Contains(res, taskID2) {
		t.Error("Unexpected result:", res)
		return
	}

	for _, l := range strings.Split(res, "\n") {
		if strings.HasPrefix(l, taskID2) && strings.Join(strings.Fields(l), " ") != taskID2+" true 0 1" {
			t.Error("Unexpected result:", l)
			return
		}
	}

	// Errors

	if ok, err := c.Run("materialize Planes"); ok || err == nil ||
		err.Error() != "POST request to /db/v1/materialize/ failed: RevLinkError: Not found (Namespace Planes)" {
		t.Error(ok, err)
		return
	}

	if ok, err := c.Run("status foo"); ok || err == nil ||
		err.Error() != "GET request to /db/v1/materialize/foo failed: Unknown task: foo" {
		t.Error(ok, err)
		return
	}
}

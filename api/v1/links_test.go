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
	"fmt"
	"testing"
)

func TestNamespacesQuery(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointNamespaces

	st, _, res := sendTestRequest(queryURL, "GET", nil)
	if st != "200 OK" {
		t.Error("Unexpected response:", st, res)
		return
	}

	var nss []map[string]interface{}
	decodeResponse(res, &nss)

	// Vehicles, CarTypes, Cars, Brands, Parts, Colors and Countries

	if len(nss) != 7 {
		t.Error("Unexpected response:", res)
		return
	}

	for _, ns := range nss {
		if ns["name"] == "Cars" && ns["processed"] != true {
			t.Error("Cars should be processed:", ns)
			return
		} else if ns["name"] == "Colors" && ns["processed"] != false {
			t.Error("Colors should not be processed:", ns)
			return
		} else if ns["name"] == "Cars" && fmt.Sprint(ns["parent"]) != fmt.Sprint(namespaceID("Vehicles")) {
			t.Error("Unexpected parent:", ns)
			return
		}
	}

	// Internal namespaces are listed on request

	_, _, res = sendTestRequest(queryURL+"?all=true", "GET", nil)

	decodeResponse(res, &nss)

	if len(nss) <= 7 {
		t.Error("Unexpected response:", res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"foo", "GET", nil)
	if st != "400 Bad Request" || res != "Invalid resource specification:" {
		t.Error("Unexpected response:", st, res)
		return
	}
}

func TestLinksQuery(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointLinks

	st, _, res := sendTestRequest(queryURL, "GET", nil)
	if st != "400 Bad Request" || res != "Need a node id" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"abc", "GET", nil)
	if st != "400 Bad Request" || res != `RevLinkError: Malformed input (Invalid id: "abc")` {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"9999", "GET", nil)
	if st != "404 Not Found" || res != "Unknown node: 9999" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"1/2", "GET", nil)
	if st != "400 Bad Request" || res != "Invalid resource specification: 2" {
		t.Error("Unexpected response:", st, res)
		return
	}

	var links struct {
		ID       uint64
		Name     string
		Outgoing []map[string]interface{}
		Incoming []map[string]interface{}
	}

	_, _, res = sendTestRequest(queryURL+fmt.Sprint(testKeys["black"]), "GET", nil)
	decodeResponse(res, &links)

	// Both cars refer to the color twice

	if links.Name != "Black" || len(links.Outgoing) != 0 || len(links.Incoming) != 4 {
		t.Error("Unexpected response:", res)
		return
	}

	if l := links.Incoming[0]; l["label"] != fmt.Sprintf("My black Honda (id=%v) -has_color-> this",
		testKeys["blackHonda"]) || l["direction"] != "incoming" {
		t.Error("Unexpected response:", l)
		return
	}

	_, _, res = sendTestRequest(queryURL+fmt.Sprint(testKeys["blackHonda"]), "GET", nil)
	decodeResponse(res, &links)

	// Five references and the @opposite property

	if len(links.Outgoing) != 6 || len(links.Incoming) != 0 {
		t.Error("Unexpected response:", res)
		return
	}

	if l := links.Outgoing[1]; l["label"] != fmt.Sprintf("this -brand-> Honda (id=%v)", testKeys["honda"]) {
		t.Error("Unexpected response:", l)
		return
	}
}

func TestRevLinksQuery(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointRevLinks

	st, _, res := sendTestRequest(queryURL+fmt.Sprint(testKeys["black"]), "GET", nil)
	if st != "200 OK" {
		t.Error("Unexpected response:", st, res)
		return
	}

	var records []map[string]interface{}
	decodeResponse(res, &records)

	if len(records) != 2 || fmt.Sprint(records[0]["source"]) != fmt.Sprint(testKeys["blackHonda"]) ||
		fmt.Sprint(records[0]["relationNames"]) != "[has_color interior_color]" ||
		fmt.Sprint(records[1]["sourceType"]) != fmt.Sprint(testKeys["Car"]) {
		t.Error("Unexpected response:", res)
		return
	}

	if _, _, res = sendTestRequest(queryURL+fmt.Sprint(testKeys["blackHonda"]), "GET", nil); res != "[]" {
		t.Error("Unexpected response:", res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"9999", "GET", nil)
	if st != "404 Not Found" || res != "Unknown node: 9999" {
		t.Error("Unexpected response:", st, res)
		return
	}
}

func TestGroupedQuery(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointGrouped

	_, _, res := sendTestRequest(queryURL+fmt.Sprint(namespaceID("Colors")), "GET", nil)

	var grouped map[string][]map[string]interface{}
	decodeResponse(res, &grouped)

	if len(grouped) != 1 || len(grouped[fmt.Sprint(testKeys["Car"])]) != 2 {
		t.Error("Unexpected response:", res)
		return
	}

	if _, _, res = sendTestRequest(queryURL+fmt.Sprint(namespaceID("Cars")), "GET", nil); res != "{}" {
		t.Error("Unexpected response:", res)
		return
	}

	st, _, res := sendTestRequest(queryURL+"9999", "GET", nil)
	if st != "404 Not Found" || res != "Unknown namespace: 9999" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL, "GET", nil)
	if st != "400 Bad Request" || res != "Need a namespace id" {
		t.Error("Unexpected response:", st, res)
		return
	}
}

func TestNameQuery(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointName

	if _, _, res := sendTestRequest(queryURL+fmt.Sprint(testKeys["black"]), "GET", nil); res != fmt.Sprintf(`
{
  "found": true,
  "id": %v,
  "name": "Black"
}`[1:], testKeys["black"]) {
		t.Error("Unexpected response:", res)
		return
	}

	if _, _, res := sendTestRequest(queryURL+fmt.Sprint(namespaceID("Parts")), "GET", nil); res != fmt.Sprintf(`
{
  "found": true,
  "id": %v,
  "name": "Parts"
}`[1:], namespaceID("Parts")) {
		t.Error("Unexpected response:", res)
		return
	}

	if _, _, res := sendTestRequest(queryURL+"9999", "GET", nil); res != `
{
  "found": false,
  "id": 9999,
  "name": ""
}`[1:] {
		t.Error("Unexpected response:", res)
		return
	}

	if st, _, res := sendTestRequest(queryURL+"0", "GET", nil); st != "400 Bad Request" ||
		res != `RevLinkError: Malformed input (Invalid id: "0")` {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res := sendTestRequest(queryURL+"1", "POST", nil); st != "405 Method Not Allowed" ||
		res != "Method Not Allowed" {
		t.Error("Unexpected response:", st, res)
		return
	}
}

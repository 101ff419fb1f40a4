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
	"strings"
	"testing"

	"devt.de/krotik/revlinks/api"
	"github.com/gorilla/websocket"
)

func TestMaterialize(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointMaterialize

	st, _, res := sendTestRequest(queryURL, "POST", []byte("foo"))
	if st != "400 Bad Request" || !strings.HasPrefix(res, "Could not decode request body: ") {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL, "POST", []byte(`{"namespaces": ["Brands", "Planes"]}`))
	if st != "400 Bad Request" || res != "RevLinkError: Not found (Namespace Planes)" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL+"foo", "GET", nil)
	if st != "404 Not Found" || res != "Unknown task: foo" {
		t.Error("Unexpected response:", st, res)
		return
	}

	st, _, res = sendTestRequest(queryURL, "PUT", nil)
	if st != "405 Method Not Allowed" {
		t.Error("Unexpected response:", st, res)
		return
	}

	// Start a pass

	_, _, res = sendTestRequest(queryURL, "POST", []byte(`{"namespaces": ["Brands"]}`))

	var started map[string]string
	decodeResponse(res, &started)

	task, ok := api.IX.Task(started["task"])
	if !ok {
		t.Error("Unexpected response:", res)
		return
	}

	task.Wait()

	_, _, res = sendTestRequest(queryURL+task.ID(), "GET", nil)

	var status struct {
		ID         string
		Namespaces []uint64
		Force      bool
		Done       bool
		Finished   string
		Error      string
		Result     struct {
			Reports []map[string]interface{}
			Skipped []uint64
		}
	}

	decodeResponse(res, &status)

	// Both brands refer to a country

	if status.ID != task.ID() || !status.Done || status.Finished == "" || status.Error != "" ||
		len(status.Result.Reports) != 1 || fmt.Sprint(status.Result.Reports[0]["records"]) != "2" ||
		fmt.Sprint(status.Namespaces) != fmt.Sprintf("[%v]", namespaceID("Brands")) {
		t.Error("Unexpected response:", res)
		return
	}

	// A second pass skips the processed namespace

	_, _, res = sendTestRequest(queryURL, "POST", []byte(`{"namespaces": ["Brands"]}`))
	decodeResponse(res, &started)

	task, _ = api.IX.Task(started["task"])
	task.Wait()

	_, _, res = sendTestRequest(queryURL+task.ID(), "GET", nil)
	decodeResponse(res, &status)

	if len(status.Result.Reports) != 0 || len(status.Result.Skipped) != 1 {
		t.Error("Unexpected response:", res)
		return
	}

	// All passes are listed

	var tasks []map[string]interface{}

	_, _, res = sendTestRequest(queryURL, "GET", nil)
	decodeResponse(res, &tasks)

	if len(tasks) < 2 || tasks[len(tasks)-1]["id"] != task.ID() {
		t.Error("Unexpected response:", res)
		return
	}
}

func TestEventFeed(t *testing.T) {
	queryURL := "ws://localhost" + TESTPORT + EndpointEvents

	_, _, res := sendTestRequest("http://localhost"+TESTPORT+EndpointEvents, "GET", nil)
	if !strings.HasPrefix(res, "Bad Request") {
		t.Error("Unexpected response:", res)
		return
	}

	c, _, err := websocket.DefaultDialer.Dial(queryURL, nil)
	if err != nil {
		t.Error("Could not open websocket:", err)
		return
	}
	defer c.Close()

	var msg map[string]interface{}

	if err = c.ReadJSON(&msg); err != nil || msg["type"] != "init_success" || msg["commID"] == "" {
		t.Error("Unexpected response:", msg, err)
		return
	}

	commID := msg["commID"]

	// Invalid messages are answered with an error

	c.WriteMessage(websocket.TextMessage, []byte("buu"))

	if err = c.ReadJSON(&msg); err != nil || msg["type"] != "data" ||
		fmt.Sprint(msg["payload"]) != "map[error:invalid character 'b' looking for beginning of value]" {
		t.Error("Unexpected response:", msg, err)
		return
	}

	// A finished pass is announced

	_, _, res = sendTestRequest("http://localhost"+TESTPORT+EndpointMaterialize, "POST",
		[]byte(`{"namespaces": ["Countries"], "force": true}`))

	var started map[string]string
	decodeResponse(res, &started)

	if err = c.ReadJSON(&msg); err != nil || msg["commID"] != commID {
		t.Error("Unexpected response:", msg, err)
		return
	}

	payload := msg["payload"].(map[string]interface{})

	if payload["id"] != started["task"] || payload["done"] != true || payload["force"] != true {
		t.Error("Unexpected response:", payload)
		return
	}

	// Close the feed

	c.WriteMessage(websocket.TextMessage, []byte(`{"close": true}`))

	if _, _, err = c.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Error("Unexpected result:", err)
		return
	}
}

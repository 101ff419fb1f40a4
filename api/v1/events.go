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
	"net/http"

	"devt.de/krotik/common/cryptutil"
	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/revlinks/api"
	"devt.de/krotik/revlinks/revlink"
	"github.com/gorilla/websocket"
)

/*
EndpointEvents is the pass event endpoint URL (rooted). Handles everything under events/...
*/
const EndpointEvents = api.APIRoot + APIv1 + "/events/"

/*
eventsUpgrader can upgrade normal requests to websocket communications
*/
var eventsUpgrader = websocket.Upgrader{
	Subprotocols:    []string{"revlinks-events"},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

/*
EventsEndpointInst creates a new endpoint handler.
*/
func EventsEndpointInst() api.RestEndpointHandler {
	return &eventsEndpoint{}
}

/*
Handler object for the pass event feed.
*/
type eventsEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET upgrades the connection to a websocket and sends a message for
every finished background pass. The client can end the feed by sending
{"close": true}.
*/
func (ee *eventsEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	// If the upgrade fails then the client gets an HTTP error response.

	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {

		// We give details here on what went wrong

		w.Write([]byte(err.Error()))
		return
	}

	commID := fmt.Sprintf("%x", cryptutil.GenerateUUID())
	listener := "events-" + commID
	logger := api.IX.Context().Logger

	wc := NewWebsocketConnection(commID, conn)

	// The listener is registered before the client is told that the feed
	// is ready so no pass finishing after the init message is missed

	api.IX.AddListener(listener, func(t *revlink.Task) {
		if err := wc.WriteData(taskStatus(t)); err != nil {
			logger.LogDebug("Could not send event to ", commID, ": ", err)
		}
	})
	defer api.IX.RemoveListener(listener)

	if err = wc.Init(); err != nil {
		logger.LogDebug("Could not initialize event feed ", commID, ": ", err)
		conn.Close()
		return
	}

	logger.LogDebug("Opened event feed ", commID)

	for {
		var fatal bool
		var data map[string]interface{}

		if data, fatal, err = wc.ReadData(); err != nil {

			if fatal {
				break
			}

			wc.WriteData(map[string]interface{}{
				"error": err.Error(),
			})

			continue
		}

		if val, ok := data["close"]; ok && stringutil.IsTrueValue(fmt.Sprint(val)) {
			wc.Close("")
			break
		}
	}

	logger.LogDebug("Closed event feed ", commID)
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ee *eventsEndpoint) SwaggerDefs(s map[string]interface{}) {
	// No swagger definitions for this endpoint as it only handles websocket requests
}

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
Package server contains the code for the RevLinks server.
*/
package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/common/httputil"
	"devt.de/krotik/common/lockutil"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/revlinks/api"
	v1 "devt.de/krotik/revlinks/api/v1"
	"devt.de/krotik/revlinks/config"
	"devt.de/krotik/revlinks/graph"
	"devt.de/krotik/revlinks/graph/graphstorage"
	"devt.de/krotik/revlinks/revlink"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/*
Using custom consolelogger type so we can test log.Fatal calls with unit tests. Overwrite
these if the server should not call os.Exit on a fatal error.
*/
type consolelogger func(v ...interface{})

var fatal = consolelogger(log.Fatal)
var print = consolelogger(log.Print)

/*
Base path for all file (used by unit tests)
*/
var basepath = ""

/*
EndpointMetrics is the URL of the prometheus metrics
*/
const EndpointMetrics = "/metrics"

/*
StartServer runs the RevLinks server. The server uses config.Config for all its configuration
parameters.
*/
func StartServer() {
	StartServerWithSingleOp(nil)
}

/*
StartServerWithSingleOp runs the RevLinks server. If the singleOperation function is
not nil then the server executes the function and exists if the function returns true.
Pending changes are committed on exit unless the function returned an error.
*/
func StartServerWithSingleOp(singleOperation func(*revlink.Indexer) (bool, error)) {
	var err error
	var gs graphstorage.Storage

	print(fmt.Sprintf("RevLinks %v", config.ProductVersion))

	// Ensure we have a configuration - use the default configuration if nothing was set

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	// Create the logger for indexing passes

	logger, err := util.NewLogLevelLogger(util.NewStdOutLogger(), config.Str(config.LogLevel))
	if err != nil {
		fatal(err)
		return
	}

	// Create graph storage

	user := config.Str(config.WorkspaceUser)
	loc := filepath.Join(basepath, config.Str(config.LocationDatastore))

	switch config.Str(config.StorageBackend) {

	case config.BackendMemory:

		print("Starting memory only datastore")

		gs = graphstorage.NewMemoryGraphStorage(user)

	case config.BackendBadger:

		print("Starting badger datastore in ", loc)

		ensurePath(loc)

		gs, err = graphstorage.NewBadgerGraphStorage(user, loc)

	default:

		print("Starting datastore in ", loc)

		// Ensure path for database exists

		ensurePath(loc)

		gs, err = graphstorage.NewDiskGraphStorage(loc, false)
	}

	if err != nil {
		fatal("Failed to open graph storage: ", err)
		return
	}

	print("Creating workspace for user ", user)

	ws := graph.NewWorkspace(graph.NewGraphManager(gs))

	defer func() {

		if !ws.IsEmpty() {

			print("Committing pending changes")

			if err := ws.Commit(); err != nil {
				fatal(err)
			}
		}

		print("Closing datastore")

		if err := gs.Close(); err != nil {
			fatal(err)
			return
		}

		os.RemoveAll(filepath.Join(basepath, config.Str(config.LockFile)))
	}()

	// Create the reverse-link schema

	print("Opening reverse-link schema in namespace ", config.Str(config.SchemaNamespace))

	ctx, err := revlink.NewContext(ws, config.Str(config.SchemaNamespace), logger)
	if err == nil {
		err = ws.Commit()
	}

	if err != nil {
		fatal("Failed to create reverse-link schema: ", err)
		return
	}

	api.IX = revlink.NewIndexer(ctx)
	api.QS = revlink.NewQuery(ctx)

	// Handle single operation - these are operations which work on the Indexer
	// and then exit. Changes of a failed operation are not committed.

	if singleOperation != nil {
		exit, err := singleOperation(api.IX)

		if err != nil {
			print("Discarding pending changes: ", err)
			ws.Discard()
		}

		if exit {
			return
		}
	}

	api.APIHost = config.Str(config.HTTPHost) + ":" + config.Str(config.HTTPPort)

	// Register REST endpoints

	api.RegisterRestEndpoints(api.GeneralEndpointMap)
	api.RegisterRestEndpoints(v1.V1EndpointMap)

	if config.Bool(config.EnableMetrics) {

		print("Exposing metrics on ", EndpointMetrics)

		api.HandleFunc(EndpointMetrics, promhttp.Handler().ServeHTTP)
	}

	// Start HTTP server and enable REST API

	hs := &httputil.HTTPServer{}

	var wg sync.WaitGroup
	wg.Add(1)

	port := config.Str(config.HTTPPort)

	print("Starting server on: ", api.APIHost)

	go hs.RunHTTPServer(":"+port, &wg)

	// Wait until the server has started

	wg.Wait()

	// HTTP Server has started

	if hs.LastError != nil {
		fatal(hs.LastError)
		return
	}

	// Create a lockfile so the server can be shut down

	lf := lockutil.NewLockFile(basepath+config.Str(config.LockFile), time.Duration(2)*time.Second)

	lf.Start()

	go func() {

		// Check if the lockfile watcher is running and
		// call shutdown once it has finished

		for lf.WatcherRunning() {
			time.Sleep(time.Duration(1) * time.Second)
		}

		print("Lockfile was modified")

		hs.Shutdown()
	}()

	// Add to the wait group so we can wait for the shutdown

	wg.Add(1)

	print("Waiting for shutdown")
	wg.Wait()

	print("Shutting down")

	// Wait for running passes so their changes are committed

	for _, t := range api.IX.Tasks() {
		t.Wait()
	}
}

/*
ensurePath ensures that a given relative path exists.
*/
func ensurePath(path string) {
	if res, _ := fileutil.PathExists(path); !res {
		if err := os.Mkdir(path, 0770); err != nil {
			fatal("Could not create directory:", err.Error())
			return
		}
	}
}

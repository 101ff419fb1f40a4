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
Package config contains the configuration of RevLinks. The configuration is
a JSON file which is created with default values if it does not exist.
*/
package config

import (
	"fmt"
	"strconv"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/fileutil"
)

// Global variables
// ================

/*
ProductVersion is the current version of RevLinks
*/
const ProductVersion = "1.0.0"

/*
DefaultConfigFile is the default config file which will be used to configure RevLinks
*/
var DefaultConfigFile = "revlinks.config.json"

/*
Known configuration options for RevLinks
*/
const (
	StorageBackend    = "StorageBackend"
	LocationDatastore = "LocationDatastore"
	HTTPHost          = "HTTPHost"
	HTTPPort          = "HTTPPort"
	LockFile          = "LockFile"
	LogLevel          = "LogLevel"
	EnableMetrics     = "EnableMetrics"
	WorkspaceUser     = "WorkspaceUser"
	SchemaNamespace   = "SchemaNamespace"
)

/*
Known storage backends
*/
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendBadger = "badger"
)

/*
DefaultConfig is the defaut configuration
*/
var DefaultConfig = map[string]interface{}{
	StorageBackend:    BackendDisk,
	LocationDatastore: "db",
	HTTPHost:          "localhost",
	HTTPPort:          "9090",
	LockFile:          "revlinks.lck",
	LogLevel:          "info",
	EnableMetrics:     true,
	WorkspaceUser:     "RL_user",
	SchemaNamespace:   "RevLinks",
}

/*
Config is the actual config which is used
*/
var Config map[string]interface{}

/*
LoadConfigFile loads a given config file. If the config file does not exist it is
created with the default options.
*/
func LoadConfigFile(configfile string) error {
	var err error

	Config, err = fileutil.LoadConfig(configfile, DefaultConfig)

	if err == nil {
		err = Validate()
	}

	return err
}

/*
LoadDefaultConfig loads the default configuration.
*/
func LoadDefaultConfig() {
	data := make(map[string]interface{})
	for k, v := range DefaultConfig {
		data[k] = v
	}

	Config = data
}

/*
Validate checks the values of the current configuration.
*/
func Validate() error {
	errs := errorutil.NewCompositeError()

	switch backend := Str(StorageBackend); backend {
	case BackendMemory, BackendDisk, BackendBadger:
	default:
		errs.Add(fmt.Errorf("Unknown storage backend: %v", backend))
	}

	switch level := Str(LogLevel); level {
	case "debug", "info", "error":
	default:
		errs.Add(fmt.Errorf("Unknown log level: %v", level))
	}

	if _, err := strconv.ParseInt(Str(HTTPPort), 10, 64); err != nil {
		errs.Add(fmt.Errorf("Invalid HTTP port: %v", Str(HTTPPort)))
	}

	if errs.HasErrors() {
		return errs
	}

	return nil
}

// Helper functions
// ================

/*
Str reads a config value as a string value.
*/
func Str(key string) string {
	return fmt.Sprint(Config[key])
}

/*
Int reads a config value as an int value.
*/
func Int(key string) int64 {
	ret, err := strconv.ParseInt(fmt.Sprint(Config[key]), 10, 64)

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
Bool reads a config value as a boolean value.
*/
func Bool(key string) bool {
	ret, err := strconv.ParseBool(fmt.Sprint(Config[key]))

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

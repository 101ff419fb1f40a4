/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"testing"
)

const testconf = "testconfig"

func TestConfig(t *testing.T) {

	Config = nil

	ioutil.WriteFile(testconf, []byte(`{
    "StorageBackend": "memory",
    "EnableMetrics": false
}`), 0644)

	defer func() {
		if err := os.Remove(testconf); err != nil {
			fmt.Print("Could not remove test config file:", err.Error())
		}
	}()

	if err := LoadConfigFile(testconf); err != nil {
		t.Error(err)
		return
	}

	if res := Str(StorageBackend); res != BackendMemory {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Bool(EnableMetrics); res {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Int(HTTPPort); fmt.Sprint(res) != DefaultConfig[HTTPPort] {
		t.Error("Unexpected result:", res)
		return
	}

	if res := Str(SchemaNamespace); res != "RevLinks" {
		t.Error("Unexpected result:", res)
		return
	}

	LoadDefaultConfig()

	if res := Str(StorageBackend); res != BackendDisk {
		t.Error("Unexpected result:", res)
		return
	}

	Config[HTTPPort] = "123"

	if res := Int(HTTPPort); fmt.Sprint(res) == DefaultConfig[HTTPPort] {
		t.Error("Unexpected result:", res)
		return
	}

	// Defaults are not changed

	if res := DefaultConfig[HTTPPort]; res != "9090" {
		t.Error("Unexpected result:", res)
		return
	}
}

func TestValidate(t *testing.T) {

	ioutil.WriteFile(testconf, []byte(`{
    "StorageBackend": "tape",
    "LogLevel": "verbose",
    "HTTPPort": "http"
}`), 0644)

	defer func() {
		if err := os.Remove(testconf); err != nil {
			fmt.Print("Could not remove test config file:", err.Error())
		}
	}()

	err := LoadConfigFile(testconf)

	if err == nil {
		t.Error("Invalid config should not load")
		return
	}

	for _, expected := range []string{"Unknown storage backend: tape",
		"Unknown log level: verbose", "Invalid HTTP port: http"} {

		if !strings.Contains(err.Error(), expected) {
			t.Error("Unexpected result:", err)
			return
		}
	}

	LoadDefaultConfig()

	if err := Validate(); err != nil {
		t.Error(err)
		return
	}
}

func TestInvalidValues(t *testing.T) {
	LoadDefaultConfig()

	Config[HTTPPort] = "abc"

	defer func() {
		if r := recover(); r == nil {
			t.Error("Parsing an invalid int should panic")
		}
	}()

	Int(HTTPPort)
}

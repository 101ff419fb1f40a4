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
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/stringutil"
	v1 "devt.de/krotik/revlinks/api/v1"
	"devt.de/krotik/revlinks/revlink"
)

// Command: ns
// ===========

/*
CommandNamespaces is a command name.
*/
const CommandNamespaces = "ns"

/*
CmdNamespaces lists all namespaces.
*/
type CmdNamespaces struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdNamespaces) Name() string {
	return CommandNamespaces
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdNamespaces) ShortDescription() string {
	return "Lists all namespaces."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdNamespaces) LongDescription() string {
	return "Lists all namespaces with their parent and processed flag. " +
		"Use 'ns all' to include shadow namespaces and the schema namespace."
}

/*
Run executes the command.
*/
func (c *CmdNamespaces) Run(args []string, capi CommandConsoleAPI) error {

	endpoint := v1.EndpointNamespaces
	if len(args) > 0 && args[0] == "all" {
		endpoint += "?all=true"
	}

	res, err := capi.Req(endpoint, "GET", nil)

	if err == nil {
		tab := []string{"ID", "Name", "Parent", "Processed"}

		for _, ns := range res.([]interface{}) {
			nsm := ns.(map[string]interface{})

			tab = append(tab, idString(nsm["id"]), fmt.Sprint(nsm["name"]),
				idString(nsm["parent"]), fmt.Sprint(nsm["processed"]))
		}

		printTable(capi, tab, 4)
	}

	return err
}

// Command: links
// ==============

/*
CommandLinks is a command name.
*/
const CommandLinks = "links"

/*
CmdLinks shows the link table of a node.
*/
type CmdLinks struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdLinks) Name() string {
	return CommandLinks
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdLinks) ShortDescription() string {
	return "Shows the outgoing and incoming links of a node."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdLinks) LongDescription() string {
	return "Shows the outgoing and incoming links of a node. Requires the node id " +
		"as parameter. Incoming links are only shown once the namespace of the " +
		"referring node was materialized."
}

/*
Run executes the command.
*/
func (c *CmdLinks) Run(args []string, capi CommandConsoleAPI) error {

	if len(args) != 1 {
		return fmt.Errorf("Please specify a node id")
	}

	res, err := capi.Req(v1.EndpointLinks+args[0], "GET", nil)

	if err == nil {
		var rows []revlink.LinkRow

		lm := res.(map[string]interface{})

		for _, dir := range []string{"outgoing", "incoming"} {
			for _, row := range lm[dir].([]interface{}) {
				rm := row.(map[string]interface{})

				rows = append(rows, revlink.LinkRow{
					Direction: fmt.Sprint(rm["direction"]),
					Relation:  fmt.Sprint(rm["relation"]),
					Label:     fmt.Sprint(rm["label"]),
				})
			}
		}

		capi.ExportBuffer().WriteString(stringutil.PrintCSVTable(LinkTable(rows), 3))
		PrintLinks(capi.Out(), fmt.Sprint(lm["name"]), idString(lm["id"]), rows)
	}

	return err
}

// Command: grouped
// ================

/*
CommandGrouped is a command name.
*/
const CommandGrouped = "grouped"

/*
CmdGrouped shows the reverse links of a namespace grouped by source type.
*/
type CmdGrouped struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdGrouped) Name() string {
	return CommandGrouped
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdGrouped) ShortDescription() string {
	return "Shows the reverse links of a namespace grouped by source type."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdGrouped) LongDescription() string {
	return "Shows all reverse links which point into a namespace grouped by the " +
		"type of the referring node. Requires the namespace id as parameter."
}

/*
Run executes the command.
*/
func (c *CmdGrouped) Run(args []string, capi CommandConsoleAPI) error {

	if len(args) != 1 {
		return fmt.Errorf("Please specify a namespace id")
	}

	res, err := capi.Req(v1.EndpointGrouped+args[0], "GET", nil)

	if err == nil {
		grouped := res.(map[string]interface{})

		var types []string
		for t := range grouped {
			types = append(types, t)
		}

		sort.Slice(types, func(i, j int) bool {
			a, _ := strconv.ParseUint(types[i], 10, 64)
			b, _ := strconv.ParseUint(types[j], 10, 64)
			return a < b
		})

		tab := []string{"Source type", "Source", "Target", "Relations"}

		for _, t := range types {
			typeName := revlink.UnknownName

			if t != "0" {
				if nres, err := capi.Req(v1.EndpointName+t, "GET", nil); err == nil {
					if name := nres.(map[string]interface{})["name"]; name != "" {
						typeName = fmt.Sprint(name)
					}
				}
			}

			for _, r := range grouped[t].([]interface{}) {
				rm := r.(map[string]interface{})

				var rels []string
				for _, rel := range rm["relationNames"].([]interface{}) {
					rels = append(rels, fmt.Sprint(rel))
				}

				tab = append(tab, fmt.Sprintf("%v (id=%v)", typeName, t), idString(rm["source"]),
					idString(rm["target"]), strings.Join(rels, ", "))
			}
		}

		printTable(capi, tab, 4)
	}

	return err
}

// Command: name
// =============

/*
CommandName is a command name.
*/
const CommandName = "name"

/*
CmdName shows the display name of an entity.
*/
type CmdName struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdName) Name() string {
	return CommandName
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdName) ShortDescription() string {
	return "Shows the name of a node, namespace or collection."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdName) LongDescription() string {
	return "Shows the display name of a node, namespace or collection. Requires the id as parameter."
}

/*
Run executes the command.
*/
func (c *CmdName) Run(args []string, capi CommandConsoleAPI) error {

	if len(args) != 1 {
		return fmt.Errorf("Please specify an id")
	}

	res, err := capi.Req(v1.EndpointName+args[0], "GET", nil)

	if err == nil {
		nm := res.(map[string]interface{})

		if nm["found"] == true {
			fmt.Fprintln(capi.Out(), nm["name"])
			capi.ExportBuffer().WriteString(fmt.Sprint(nm["name"]))
		} else {
			fmt.Fprintln(capi.Out(), "Unknown id:", args[0])
		}
	}

	return err
}

// Command: materialize
// ====================

/*
CommandMaterialize is a command name.
*/
const CommandMaterialize = "materialize"

/*
CmdMaterialize starts an indexing pass on the server.
*/
type CmdMaterialize struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdMaterialize) Name() string {
	return CommandMaterialize
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdMaterialize) ShortDescription() string {
	return "Starts an indexing pass."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdMaterialize) LongDescription() string {
	return "Starts an indexing pass in the background. Takes a list of namespace " +
		"names as parameters (all namespaces if no name is given). Processed " +
		"namespaces are skipped unless the first parameter is --force."
}

/*
Run executes the command.
*/
func (c *CmdMaterialize) Run(args []string, capi CommandConsoleAPI) error {

	force := len(args) > 0 && args[0] == "--force"
	if force {
		args = args[1:]
	}

	content, err := json.Marshal(map[string]interface{}{
		"namespaces": args,
		"force":      force,
	})

	errorutil.AssertOk(err) // Json marshall should never fail

	res, err := capi.Req(v1.EndpointMaterialize, "POST", content)

	if err == nil {
		task := res.(map[string]interface{})["task"]

		fmt.Fprintln(capi.Out(), "Started pass", task)
		capi.ExportBuffer().WriteString(fmt.Sprint(task))
	}

	return err
}

// Command: status
// ===============

/*
CommandStatus is a command name.
*/
const CommandStatus = "status"

/*
CmdStatus shows the status of indexing passes.
*/
type CmdStatus struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdStatus) Name() string {
	return CommandStatus
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdStatus) ShortDescription() string {
	return "Shows the status of indexing passes."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdStatus) LongDescription() string {
	return "Shows the status of all indexing passes or of a single pass if a task id is given."
}

/*
Run executes the command.
*/
func (c *CmdStatus) Run(args []string, capi CommandConsoleAPI) error {
	var tasks []interface{}

	endpoint := v1.EndpointMaterialize
	if len(args) > 0 {
		endpoint += args[0]
	}

	res, err := capi.Req(endpoint, "GET", nil)

	if err == nil {

		if len(args) > 0 {
			tasks = []interface{}{res}
		} else {
			tasks = res.([]interface{})
		}

		tab := []string{"Task", "Done", "Records", "Skipped", "Error"}

		for _, t := range tasks {
			tm := t.(map[string]interface{})

			var records, skipped int

			if result, ok := tm["result"].(map[string]interface{}); ok {
				if reports, ok := result["reports"].([]interface{}); ok {
					for _, r := range reports {
						records += int(r.(map[string]interface{})["records"].(float64))
					}
				}
				if s, ok := result["skipped"].([]interface{}); ok {
					skipped = len(s)
				}
			}

			errMsg := ""
			if e, ok := tm["error"]; ok {
				errMsg = fmt.Sprint(e)
			}

			tab = append(tab, fmt.Sprint(tm["id"]), fmt.Sprint(tm["done"]),
				fmt.Sprint(records), fmt.Sprint(skipped), errMsg)
		}

		printTable(capi, tab, 5)
	}

	return err
}

// Util functions
// ==============

/*
printTable prints a table to the console and writes it as CSV into the
export buffer.
*/
func printTable(capi CommandConsoleAPI, tab []string, cols int) {
	capi.ExportBuffer().WriteString(stringutil.PrintCSVTable(tab, cols))
	fmt.Fprint(capi.Out(), stringutil.PrintStringTable(tab, cols))
}

/*
idString formats a JSON decoded id.
*/
func idString(v interface{}) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}

	return fmt.Sprint(v)
}

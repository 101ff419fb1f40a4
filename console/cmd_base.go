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
	"fmt"

	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/revlinks/api"
)

// Command: ver
// ============

/*
CommandVer is a command name.
*/
const CommandVer = "ver"

/*
CmdVer displays the server version and the state of the reverse-link index.
*/
type CmdVer struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdVer) Name() string {
	return CommandVer
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdVer) ShortDescription() string {
	return "Displays server version and index information."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdVer) LongDescription() string {
	return "Displays the server version, the schema namespace of the reverse-link index and " +
		"the number of processed namespaces, shadow namespaces and running indexing passes."
}

/*
Run executes the command.
*/
func (c *CmdVer) Run(args []string, capi CommandConsoleAPI) error {

	fmt.Fprintln(capi.Out(), fmt.Sprintf("Connected to: %v", capi.URL()))

	res, err := capi.Req(api.EndpointAbout, "GET", nil)
	if err != nil {
		return err
	}

	about := res.(map[string]interface{})

	fmt.Fprintln(capi.Out(), fmt.Sprintf("%v %v (REST versions: %v)",
		about["product"], about["version"], about["api_versions"]))

	index, ok := about["index"].(map[string]interface{})
	if !ok {
		return nil
	}

	count := func(key string) int {
		f, _ := index[key].(float64)
		return int(f)
	}

	processed, shadows, running := count("processed"), count("shadows"), count("running")

	fmt.Fprintln(capi.Out(), fmt.Sprintf("Index in namespace %v: %v processed namespace%s, "+
		"%v shadow namespace%s, %v running pass%s", idString(index["schema"]),
		processed, stringutil.Plural(processed), shadows, stringutil.Plural(shadows),
		running, pluralES(running)))

	capi.ExportBuffer().WriteString(stringutil.PrintCSVTable([]string{
		"schema", "processed", "shadows", "running",
		idString(index["schema"]), fmt.Sprint(processed), fmt.Sprint(shadows), fmt.Sprint(running),
	}, 4))

	return nil
}

// Command: export
// ===============

/*
CommandExport is a command name.
*/
const CommandExport = "export"

/*
CmdExport hands the output of the previous command to the export function
of the console.
*/
type CmdExport struct {
	exportFunc func([]string, *bytes.Buffer) error
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdExport) Name() string {
	return CommandExport
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdExport) ShortDescription() string {
	return "Exports the last output."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdExport) LongDescription() string {
	return "Exports the output of the previous command. Tables (e.g. link tables) are " +
		"exported as CSV, task ids and names as plain text."
}

/*
Run executes the command.
*/
func (c *CmdExport) Run(args []string, capi CommandConsoleAPI) error {
	if capi.ExportBuffer().Len() == 0 {
		return fmt.Errorf("Nothing to export")
	}

	return c.exportFunc(args, capi.ExportBuffer())
}

// Command: help
// =============

/*
CommandHelp is a command name.
*/
const CommandHelp = "help"

/*
CmdHelp displays descriptions of other commands.
*/
type CmdHelp struct {
}

/*
Name returns the command name (as it should be typed)
*/
func (c *CmdHelp) Name() string {
	return CommandHelp
}

/*
ShortDescription returns a short description of the command (single line)
*/
func (c *CmdHelp) ShortDescription() string {
	return "Display descriptions for all available commands."
}

/*
LongDescription returns an extensive description of the command (can be multiple lines)
*/
func (c *CmdHelp) LongDescription() string {
	return "Display descriptions for all available commands. Shows the full " +
		"description of a single command if its name is given."
}

/*
Run executes the command.
*/
func (c *CmdHelp) Run(args []string, capi CommandConsoleAPI) error {

	cmds := capi.Commands()

	if len(args) > 0 {
		for _, cmd := range cmds {
			if cmd.Name() == args[0] {
				capi.ExportBuffer().WriteString(cmd.LongDescription())
				fmt.Fprintln(capi.Out(), cmd.LongDescription())
				return nil
			}
		}

		return fmt.Errorf("Unknown command: %s", args[0])
	}

	tab := []string{"Command", "Description"}

	for _, cmd := range cmds {
		tab = append(tab, cmd.Name(), cmd.ShortDescription())
	}

	printTable(capi, tab, 2)

	return nil
}

/*
pluralES returns "es" if the given count is not 1.
*/
func pluralES(n int) string {
	if n == 1 {
		return ""
	}
	return "es"
}

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
RevLinks materializes reverse links of a graph store so that every node knows
which nodes refer to it.

Features:

- Reverse-link records are kept in shadow namespaces next to the namespace of
the referenced node.

- Each referring node gets an @opposite collection which holds all nodes it
refers to.

- Indexing passes can run from the command line or in the background of the
server.

- The server provides a REST API to browse forward and reverse links and a
websocket feed for finished passes.
*/
package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/common/termutil"
	"devt.de/krotik/revlinks/config"
	"devt.de/krotik/revlinks/console"
	"devt.de/krotik/revlinks/graph"
	"devt.de/krotik/revlinks/revlink"
	"devt.de/krotik/revlinks/server"
	"github.com/spf13/cobra"
)

var (
	configFile  string
	force       bool
	interactive bool
	example     string
	showAll     bool

	consoleHost string
	consolePort string
	consoleFile string
	consoleExec string

	rootCmd = &cobra.Command{
		Use:           "revlinks",
		Short:         "RevLinks reverse-link indexer for graph stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "console" {
				return nil
			}
			return config.LoadConfigFile(configFile)
		},
	}

	serverCmd = &cobra.Command{
		Use:   "server",
		Short: "Start the RevLinks server",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			server.StartServer()
		},
	}

	materializeCmd = &cobra.Command{
		Use:   "materialize [namespace...]",
		Short: "Materialize the reverse links of namespaces and exit",
		Long: `Materializes the reverse links of the given namespaces. All namespaces
are selected if no name is given. Processed namespaces are skipped unless
--force is set.`,
		Run: func(cmd *cobra.Command, args []string) {
			server.StartServerWithSingleOp(singleOp(func(ix *revlink.Indexer) error {
				return runMaterialize(ix, args)
			}))
		},
	}

	queryCmd = &cobra.Command{
		Use:   "query <id>",
		Short: "Show the forward and reverse links of a node",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server.StartServerWithSingleOp(singleOp(func(ix *revlink.Indexer) error {
				return runQuery(ix, args[0])
			}))
		},
	}

	importCmd = &cobra.Command{
		Use:   "import [file]",
		Short: "Import a graph document into the datastore",
		Long: fmt.Sprintf(`Imports a YAML or JSON graph document. Use --example to import one of
the embedded examples: %v`, strings.Join(graph.Examples(), ", ")),
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			server.StartServerWithSingleOp(singleOp(func(ix *revlink.Indexer) error {
				return runImport(ix, args)
			}))
		},
	}

	namespacesCmd = &cobra.Command{
		Use:   "namespaces",
		Short: "List all namespaces of the datastore",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			server.StartServerWithSingleOp(singleOp(func(ix *revlink.Indexer) error {
				return runNamespaces(ix)
			}))
		},
	}

	consoleCmd = &cobra.Command{
		Use:   "console",
		Short: "RevLinks server console",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			RunCliConsole()
		},
	}
)

func main() {
	chost, cport := getHostPortFromConfig()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultConfigFile, "Config file")

	materializeCmd.Flags().BoolVar(&force, "force", false, "Materialize processed namespaces again")
	materializeCmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Select namespaces interactively")
	importCmd.Flags().StringVar(&example, "example", "", "Import an embedded example")
	namespacesCmd.Flags().BoolVar(&showAll, "all", false, "Include shadow namespaces and the schema namespace")

	consoleCmd.Flags().StringVar(&consoleHost, "host", chost, "Host of the RevLinks server")
	consoleCmd.Flags().StringVar(&consolePort, "port", cport, "Port of the RevLinks server")
	consoleCmd.Flags().StringVar(&consoleFile, "file", "", "Read commands from a file and exit")
	consoleCmd.Flags().StringVar(&consoleExec, "exec", "", "Execute a single line and exit")

	rootCmd.AddCommand(serverCmd, materializeCmd, queryCmd, importCmd, namespacesCmd, consoleCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}

/*
singleOp wraps a command as single server operation. Errors are printed and
stop pending changes from being committed.
*/
func singleOp(op func(*revlink.Indexer) error) func(*revlink.Indexer) (bool, error) {
	return func(ix *revlink.Indexer) (bool, error) {
		err := op(ix)

		if err != nil {
			fmt.Println(err.Error())
		}

		return true, err
	}
}

/*
runMaterialize runs a synchronous indexing pass.
*/
func runMaterialize(ix *revlink.Indexer, names []string) error {

	if interactive && len(names) == 0 {
		clt, err := termutil.NewConsoleLineTerminal(os.Stdout)

		if err == nil {
			if err = clt.StartTerm(); err == nil {
				names, err = console.SelectNamespaces(
					func(prompt string) (string, error) {
						return clt.NextLinePrompt(prompt, 0x0)
					}, clt,
					func(name string) (bool, error) {
						_, err := ix.ResolveNamespaces([]string{name})
						if errors.Is(err, revlink.ErrNotFound) {
							return false, nil
						}
						return err == nil, err
					})

				clt.StopTerm()
			}
		}

		if err != nil {
			return err
		}
	}

	nss, err := ix.ResolveNamespaces(names)
	if err != nil {
		return err
	}

	fmt.Println(fmt.Sprintf("Materializing %v namespace%s", len(nss), stringutil.Plural(len(nss))))

	res, err := ix.Run(nss, revlink.Options{Force: force})

	if res != nil {
		fmt.Println(fmt.Sprintf("Created %v record%s, computed %v opposite%s, skipped %v namespace%s",
			res.Records(), stringutil.Plural(res.Records()),
			res.Opposites, stringutil.Plural(res.Opposites),
			len(res.Skipped), stringutil.Plural(len(res.Skipped))))
	}

	return err
}

/*
runQuery prints the link table of a node.
*/
func runQuery(ix *revlink.Indexer, raw string) error {
	q := revlink.NewQuery(ix.Context())

	id, err := q.ResolveID(raw)
	if err != nil {
		return err
	}

	rows, ok, err := q.Rows(id)
	if err == nil && !ok {
		err = fmt.Errorf("Unknown node: %v", id)
	}

	if err == nil {
		var name string

		if name, _, err = q.Name(id); err == nil {
			console.PrintLinks(os.Stdout, name, id, rows)
		}
	}

	return err
}

/*
runImport imports a graph document into the workspace of the indexer.
*/
func runImport(ix *revlink.Indexer, args []string) error {
	var err error

	ws, ok := ix.Context().Store.(*graph.Workspace)
	if !ok {
		return fmt.Errorf("Store does not support imports")
	}

	if example != "" {
		var r io.Reader

		fmt.Println("Importing example:", example)

		if r, err = graph.Example(example); err == nil {
			_, err = graph.Import(ws, r)
		}

	} else if len(args) == 1 {
		var f *os.File

		fmt.Println("Importing from:", args[0])

		if f, err = os.Open(args[0]); err == nil {
			defer f.Close()

			_, err = graph.Import(ws, f)
		}

	} else {
		err = fmt.Errorf("Please specify a file or an example")
	}

	if err == nil {
		err = ws.Commit()
	}

	return err
}

/*
runNamespaces prints all namespaces of the store.
*/
func runNamespaces(ix *revlink.Indexer) error {
	ctx := ix.Context()

	nss, err := ctx.Store.Namespaces()
	if err != nil {
		return err
	}

	tab := []string{"ID", "Name", "Parent", "Processed"}

	for _, ns := range nss {
		if !showAll && (revlink.IsShadowName(ns.Name) || ns.ID == ctx.Schema.Namespace()) {
			continue
		}

		processed, err := ctx.Schema.IsProcessed(ns.ID)
		if err != nil {
			return err
		}

		tab = append(tab, fmt.Sprint(ns.ID), ns.Name, fmt.Sprint(ns.Parent), fmt.Sprint(processed))
	}

	fmt.Print(stringutil.PrintStringTable(tab, 4))

	return nil
}

/*
RunCliConsole runs the server console on the commandline.
*/
func RunCliConsole() {
	var err error
	var clt termutil.ConsoleLineTerminal

	if consoleFile == "" && consoleExec == "" {
		fmt.Println(fmt.Sprintf("RevLinks %v - Console", config.ProductVersion))
	}

	isExitLine := func(s string) bool {
		return s == "exit" || s == "q" || s == "quit" || s == "bye" || s == "\x04"
	}

	clt, err = termutil.NewConsoleLineTerminal(os.Stdout)

	if consoleFile != "" {
		var file *os.File

		// Read commands from a file

		file, err = os.Open(consoleFile)
		if err == nil {
			defer file.Close()

			clt, err = termutil.AddFileReadingWrapper(clt, file, true)
		}

	} else if consoleExec != "" {
		var buf bytes.Buffer

		buf.WriteString(fmt.Sprintln(consoleExec))

		// Read commands from a single line

		clt, err = termutil.AddFileReadingWrapper(clt, &buf, true)

	} else {

		// Add history functionality

		histfile := filepath.Join(filepath.Dir(os.Args[0]), ".revlinks_console_history")
		clt, err = termutil.AddHistoryMixin(clt, histfile,
			func(s string) bool {
				return isExitLine(s)
			})
	}

	if err == nil {

		con := console.NewConsole(fmt.Sprintf("http://%s:%s", consoleHost, consolePort), os.Stdout,
			func(args []string, exportBuf *bytes.Buffer) error {

				// Export data to a chosen file

				filename := "export.out"

				if len(args) > 0 {
					filename = args[0]
				}

				return os.WriteFile(filename, exportBuf.Bytes(), 0666)
			})

		// Start the console

		if err = clt.StartTerm(); err == nil {
			var line string

			defer clt.StopTerm()

			if consoleFile == "" && consoleExec == "" {
				fmt.Println("Type 'q' or 'quit' to exit the shell and '?' to get help")
			}

			line, err = clt.NextLine()
			for err == nil && !isExitLine(line) {

				if _, cerr := con.Run(line); cerr != nil {

					// Output any error

					fmt.Fprintln(clt, cerr.Error())
				}

				line, err = clt.NextLine()
			}
		}
	}

	if err != nil {
		fmt.Println(err.Error())
	}
}

/*
getHostPortFromConfig gets the host and port from the config file or the
default config.
*/
func getHostPortFromConfig() (string, string) {
	host := fileutil.ConfStr(config.DefaultConfig, config.HTTPHost)
	port := fileutil.ConfStr(config.DefaultConfig, config.HTTPPort)

	if ok, _ := fileutil.PathExists(config.DefaultConfigFile); ok {
		cfg, _ := fileutil.LoadConfig(config.DefaultConfigFile, config.DefaultConfig)
		if cfg != nil {
			host = fileutil.ConfStr(cfg, config.HTTPHost)
			port = fileutil.ConfStr(cfg, config.HTTPPort)
		}
	}

	return host, port
}

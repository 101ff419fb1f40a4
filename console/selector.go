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
	"fmt"
	"io"
	"strings"
)

/*
SelectPrompt is the prompt which is shown when asking for a namespace name.
*/
const SelectPrompt = "Namespace name: "

/*
SelectNamespaces interactively collects a list of namespace names. Each name
is read with the nextLine function and checked with the exists function. An
empty line ends the selection. Unknown names are rejected and the user is
asked again. Names which were selected before are ignored.
*/
func SelectNamespaces(nextLine func(prompt string) (string, error), out io.Writer,
	exists func(name string) (bool, error)) ([]string, error) {

	var ret []string

	seen := make(map[string]bool)

	for {
		line, err := nextLine(SelectPrompt)
		if err != nil {
			return ret, err
		}

		name := strings.TrimSpace(line)

		if name == "" {
			break
		}

		ok, err := exists(name)
		if err != nil {
			return ret, err
		}

		if !ok {
			fmt.Fprintln(out, "Selected namespace does not exist. Please check your spelling.")
			continue
		}

		if !seen[name] {
			seen[name] = true
			ret = append(ret, name)
		}
	}

	return ret, nil
}

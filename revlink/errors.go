/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package revlink

import (
	"errors"
	"fmt"
)

/*
Error is a reverse-link related error
*/
type Error struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("RevLinkError: %v (%v)", e.Type, e.Detail)
	}

	return fmt.Sprintf("RevLinkError: %v", e.Type)
}

/*
Unwrap returns the error type so errors.Is can be used on a Error.
*/
func (e *Error) Unwrap() error {
	return e.Type
}

/*
Reverse-link related error types
*/
var (
	ErrDanglingTarget    = errors.New("Reference target has no namespace")
	ErrNotFound          = errors.New("Not found")
	ErrSchemaUncreatable = errors.New("Reverse-link schema could not be created")
	ErrCommitFailure     = errors.New("Commit failed")
	ErrMalformedInput    = errors.New("Malformed input")
)

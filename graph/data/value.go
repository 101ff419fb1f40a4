/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package data

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

/*
ID is the unique id of an entity in the graph store.
*/
type ID uint64

/*
NoID is the zero id which never identifies an entity.
*/
const NoID ID = 0

/*
ErrInvalidID is returned if a string cannot be parsed into an id.
*/
var ErrInvalidID = errors.New("Invalid id")

/*
ParseID parses a user supplied id. Only positive decimal numbers are valid.
*/
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return NoID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	return ID(v), nil
}

/*
String returns the decimal representation of this id.
*/
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

/*
Value is a property value. It is one of Scalar, Reference or Collection.
*/
type Value interface {
	fmt.Stringer
	value()
}

/*
Scalar is a string or a number.
*/
type Scalar struct {
	Text    string  // String value
	Number  float64 // Number value
	Numeric bool    // Flag if this scalar is a number
}

/*
Str creates a new string scalar.
*/
func Str(s string) Scalar {
	return Scalar{Text: s}
}

/*
Num creates a new number scalar.
*/
func Num(f float64) Scalar {
	return Scalar{Number: f, Numeric: true}
}

func (s Scalar) value() {}

/*
String returns the string representation of the scalar.
*/
func (s Scalar) String() string {
	if s.Numeric {
		return strconv.FormatFloat(s.Number, 'f', -1, 64)
	}
	return s.Text
}

/*
Reference points to another entity.
*/
type Reference ID

func (r Reference) value() {}

/*
Target returns the referenced id.
*/
func (r Reference) Target() ID {
	return ID(r)
}

/*
String returns the string representation of the reference.
*/
func (r Reference) String() string {
	return "->" + ID(r).String()
}

/*
Collection is an ordered sequence of values.
*/
type Collection []Value

func (c Collection) value() {}

/*
String returns the string representation of the collection.
*/
func (c Collection) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

/*
Strings returns all scalar members of this collection as strings.
*/
func (c Collection) Strings() []string {
	var ret []string
	for _, v := range c {
		if s, ok := v.(Scalar); ok {
			ret = append(ret, s.String())
		}
	}
	return ret
}

/*
CopyValue returns a deep copy of a value.
*/
func CopyValue(v Value) Value {
	if c, ok := v.(Collection); ok {
		ret := make(Collection, len(c))
		for i, e := range c {
			ret[i] = CopyValue(e)
		}
		return ret
	}
	return v
}

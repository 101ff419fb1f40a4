/*
 * EliasDB
 *
 * Copyright 2016 Matthias Ladkau. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package graph

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"

	"devt.de/krotik/revlinks/graph/data"
	"devt.de/krotik/revlinks/graph/util"
)

// Record encoding
// ===============

/*
Value kinds of encoded values
*/
const (
	valueKindScalar byte = iota
	valueKindReference
	valueKindCollection
)

/*
valueRecord is the storage form of a data.Value.
*/
type valueRecord struct {
	Kind    byte
	Text    string
	Number  float64
	Numeric bool
	Ref     uint64
	Elems   []valueRecord
}

/*
nodeRecord is the storage form of a data.Node.
*/
type nodeRecord struct {
	ID        uint64
	Type      uint64
	Namespace uint64
	Names     []string
	Values    []valueRecord
}

/*
namespaceRecord is the storage form of a data.Namespace.
*/
type namespaceRecord struct {
	ID     uint64
	Name   string
	Parent uint64
}

/*
collectionRecord is the storage form of a data.CollectionEntity.
*/
type collectionRecord struct {
	ID        uint64
	Name      string
	Namespace uint64
	Elems     []valueRecord
}

/*
idKey returns the storage key of an id. Keys sort in id order.
*/
func idKey(id data.ID) string {
	return fmt.Sprintf("%016x", uint64(id))
}

/*
keyID parses a storage key back into an id.
*/
func keyID(key string) (data.ID, error) {
	v, err := strconv.ParseUint(key, 16, 64)
	return data.ID(v), err
}

/*
encodeValue converts a value into its storage form.
*/
func encodeValue(v data.Value) valueRecord {
	switch t := v.(type) {
	case data.Scalar:
		return valueRecord{Kind: valueKindScalar, Text: t.Text, Number: t.Number, Numeric: t.Numeric}
	case data.Reference:
		return valueRecord{Kind: valueKindReference, Ref: uint64(t)}
	case data.Collection:
		elems := make([]valueRecord, len(t))
		for i, e := range t {
			elems[i] = encodeValue(e)
		}
		return valueRecord{Kind: valueKindCollection, Elems: elems}
	}

	panic(fmt.Sprintf("Unknown value type: %T", v))
}

/*
decodeValue converts a storage form back into a value.
*/
func decodeValue(vr valueRecord) data.Value {
	switch vr.Kind {
	case valueKindReference:
		return data.Reference(vr.Ref)
	case valueKindCollection:
		c := make(data.Collection, len(vr.Elems))
		for i, e := range vr.Elems {
			c[i] = decodeValue(e)
		}
		return c
	}

	return data.Scalar{Text: vr.Text, Number: vr.Number, Numeric: vr.Numeric}
}

/*
encode gob encodes a record.
*/
func encode(rec interface{}) ([]byte, error) {
	var buf bytes.Buffer

	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return nil, &util.GraphError{Type: util.ErrWriting, Detail: err.Error()}
	}

	return buf.Bytes(), nil
}

/*
decode gob decodes a record.
*/
func decode(b []byte, rec interface{}) error {
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(rec); err != nil {
		return &util.GraphError{Type: util.ErrReading, Detail: err.Error()}
	}
	return nil
}

/*
encodeNode encodes a node.
*/
func encodeNode(n *data.Node) ([]byte, error) {
	names := n.PropNames()
	values := make([]valueRecord, len(names))

	for i, name := range names {
		v, _ := n.Prop(name)
		values[i] = encodeValue(v)
	}

	return encode(&nodeRecord{uint64(n.ID()), uint64(n.Type()), uint64(n.Namespace()), names, values})
}

/*
decodeNode decodes a node.
*/
func decodeNode(b []byte) (*data.Node, error) {
	var rec nodeRecord

	if err := decode(b, &rec); err != nil {
		return nil, err
	}

	if len(rec.Names) != len(rec.Values) {
		return nil, &util.GraphError{Type: util.ErrInvalidData,
			Detail: fmt.Sprintf("Node %v has %v names but %v values", rec.ID, len(rec.Names), len(rec.Values))}
	}

	n := data.NewNode(data.ID(rec.ID), data.ID(rec.Type), data.ID(rec.Namespace))

	for i, name := range rec.Names {
		n.SetProp(name, decodeValue(rec.Values[i]))
	}

	return n, nil
}

/*
encodeCollection encodes a collection entity.
*/
func encodeCollection(ce *data.CollectionEntity) ([]byte, error) {
	elems := make([]valueRecord, len(ce.Elements))

	for i, e := range ce.Elements {
		elems[i] = encodeValue(e)
	}

	return encode(&collectionRecord{uint64(ce.ID), ce.Name, uint64(ce.Namespace), elems})
}

/*
decodeCollection decodes a collection entity.
*/
func decodeCollection(b []byte) (*data.CollectionEntity, error) {
	var rec collectionRecord

	if err := decode(b, &rec); err != nil {
		return nil, err
	}

	elems := make([]data.Value, len(rec.Elems))

	for i, e := range rec.Elems {
		elems[i] = decodeValue(e)
	}

	return &data.CollectionEntity{ID: data.ID(rec.ID), Name: rec.Name,
		Namespace: data.ID(rec.Namespace), Elements: elems}, nil
}

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
	"embed"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"

	"devt.de/krotik/revlinks/graph/data"
	"devt.de/krotik/revlinks/graph/util"
	"gopkg.in/yaml.v3"
)

/*
Document is a graph document which can be imported into a workspace. JSON
documents are accepted as well since JSON is a subset of YAML.

	namespaces:
	  - name: Cars
	    parent: Vehicles      # optional
	nodes:
	  - key: car1             # document local key
	    name: My black Honda  # stored as "name" property
	    type: Car             # key of the type node (optional)
	    namespace: Cars       # optional, nodes without namespace are allowed
	    props:
	      brand: {ref: honda} # reference to another node
	      doors: 5            # number scalar
	      tags: [a, b]        # collection
*/
type Document struct {
	Namespaces []NamespaceDef `yaml:"namespaces"`
	Nodes      []NodeDef      `yaml:"nodes"`
}

/*
NamespaceDef defines a namespace in a graph document.
*/
type NamespaceDef struct {
	Name   string `yaml:"name"`
	Parent string `yaml:"parent"`
}

/*
NodeDef defines a node in a graph document.
*/
type NodeDef struct {
	Key       string    `yaml:"key"`
	Name      string    `yaml:"name"`
	Type      string    `yaml:"type"`
	Namespace string    `yaml:"namespace"`
	Props     yaml.Node `yaml:"props"`
}

/*
Import reads a graph document and writes its content into a workspace.
Namespaces which already exist are reused. Returns a map of document keys
to created node ids. The document is checked completely before anything
is written so an invalid document leaves the workspace unchanged. The
workspace is not committed.

Namespaces are identified by their path (e.g. Vehicles/Parts). A bare name
refers to a root namespace of that name or, if there is none, to the only
namespace with that name.
*/
func Import(ws *Workspace, r io.Reader) (map[string]data.ID, error) {
	var doc Document

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, &util.GraphError{Type: util.ErrInvalidData, Detail: err.Error()}
	}

	nst, nodeNS, err := doc.check()
	if err != nil {
		return nil, err
	}

	return doc.write(ws, nst, nodeNS)
}

/*
check validates a document. Returns the namespace table of the document
and the namespace path of each node.
*/
func (doc *Document) check() (*namespaceTable, []string, error) {
	nst := &namespaceTable{make(map[string]data.ID), make(map[string][]string), nil}

	// Parents must be defined before their children

	for _, nsd := range doc.Namespaces {
		if err := nst.add(nsd); err != nil {
			return nil, nil, err
		}
	}

	keys := make(map[string]data.ID)
	nodeNS := make([]string, len(doc.Nodes))

	for i, nd := range doc.Nodes {
		if nd.Key == "" {
			return nil, nil, &util.GraphError{Type: util.ErrInvalidData, Detail: "Node is missing a key value"}
		} else if _, ok := keys[nd.Key]; ok {
			return nil, nil, &util.GraphError{Type: util.ErrInvalidData, Detail: "Duplicate node key " + nd.Key}
		}

		if nd.Namespace != "" {
			path, ok, err := nst.lookup(nd.Namespace)
			if err != nil {
				return nil, nil, err
			} else if !ok {
				return nil, nil, &util.GraphError{Type: util.ErrInvalidData,
					Detail: fmt.Sprintf("Unknown namespace %v of node %v", nd.Namespace, nd.Key)}
			}
			nodeNS[i] = path
		}

		keys[nd.Key] = data.NoID
	}

	for _, nd := range doc.Nodes {

		if nd.Type != "" {
			if _, ok := keys[nd.Type]; !ok {
				return nil, nil, &util.GraphError{Type: util.ErrInvalidData,
					Detail: fmt.Sprintf("Unknown type %v of node %v", nd.Type, nd.Key)}
			}
		}

		if nd.Props.Kind == 0 {
			continue
		} else if nd.Props.Kind != yaml.MappingNode {
			return nil, nil, &util.GraphError{Type: util.ErrInvalidData,
				Detail: fmt.Sprintf("Properties of node %v must be a mapping", nd.Key)}
		}

		for i := 0; i+1 < len(nd.Props.Content); i += 2 {
			if _, err := convertYAMLValue(nd.Props.Content[i+1], keys); err != nil {
				return nil, nil, &util.GraphError{Type: util.ErrInvalidData,
					Detail: fmt.Sprintf("Property %v of node %v: %v", nd.Props.Content[i].Value, nd.Key, err)}
			}
		}
	}

	return nst, nodeNS, nil
}

/*
write writes a checked document into a workspace.
*/
func (doc *Document) write(ws *Workspace, nst *namespaceTable, nodeNS []string) (map[string]data.ID, error) {

	for _, e := range nst.order {
		ns, _, err := ws.GetOrCreateNamespace(e.name, nst.paths[e.parent])
		if err != nil {
			return nil, err
		}

		nst.paths[e.path] = ns.ID
	}

	// Create all nodes first so references can point forward

	keys := make(map[string]data.ID)

	for i, nd := range doc.Nodes {
		id, err := ws.CreateNode(data.NoID, nst.paths[nodeNS[i]])
		if err != nil {
			return nil, err
		}

		keys[nd.Key] = id
	}

	for _, nd := range doc.Nodes {
		id := keys[nd.Key]

		// Nodes are created without type since type nodes may be
		// defined later in the document

		if nd.Type != "" {
			if err := ws.setType(id, keys[nd.Type]); err != nil {
				return nil, err
			}
		}

		if nd.Name != "" {
			if err := ws.SetProperty(id, data.NameProp, data.Str(nd.Name)); err != nil {
				return nil, err
			}
		}

		for i := 0; i+1 < len(nd.Props.Content); i += 2 {
			v, _ := convertYAMLValue(nd.Props.Content[i+1], keys)

			if err := ws.SetProperty(id, nd.Props.Content[i].Value, v); err != nil {
				return nil, err
			}
		}
	}

	return keys, nil
}

/*
namespaceTable holds the namespaces of a document by path.
*/
type namespaceTable struct {
	paths  map[string]data.ID  // Namespace path to id (NoID before writing)
	byName map[string][]string // Namespace name to paths
	order  []namespaceEntry    // Namespaces in definition order
}

/*
namespaceEntry is a single namespace of a document.
*/
type namespaceEntry struct {
	name   string
	path   string
	parent string
}

/*
add adds a namespace definition. A repeated definition is ignored.
*/
func (nst *namespaceTable) add(nsd NamespaceDef) error {
	if nsd.Name == "" {
		return &util.GraphError{Type: util.ErrInvalidData, Detail: "Namespace is missing a name"}
	}

	path, parent := nsd.Name, ""

	if nsd.Parent != "" {
		p, ok, err := nst.lookup(nsd.Parent)
		if err != nil {
			return err
		} else if !ok {
			return &util.GraphError{Type: util.ErrInvalidData,
				Detail: fmt.Sprintf("Unknown parent namespace %v of %v", nsd.Parent, nsd.Name)}
		}

		path, parent = p+"/"+nsd.Name, p
	}

	if _, ok := nst.paths[path]; !ok {
		nst.paths[path] = data.NoID
		nst.byName[nsd.Name] = append(nst.byName[nsd.Name], path)
		nst.order = append(nst.order, namespaceEntry{nsd.Name, path, parent})
	}

	return nil
}

/*
lookup resolves a namespace reference to a path.
*/
func (nst *namespaceTable) lookup(ref string) (string, bool, error) {
	if _, ok := nst.paths[ref]; ok {
		return ref, true, nil
	}

	paths := nst.byName[ref]

	if len(paths) > 1 {
		return "", false, &util.GraphError{Type: util.ErrInvalidData,
			Detail: fmt.Sprintf("Ambiguous namespace %v (%v)", ref, strings.Join(paths, ", "))}
	}

	return strings.Join(paths, ""), len(paths) == 1, nil
}

/*
setType sets the type of an uncommitted node.
*/
func (ws *Workspace) setType(id data.ID, typ data.ID) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	n, ok := ws.nodes[id]
	if !ok {
		return &util.GraphError{Type: util.ErrUnknownID, Detail: fmt.Sprintf("Node %v", id)}
	}

	c := data.NewNode(id, typ, n.Namespace())

	for _, name := range n.PropNames() {
		v, _ := n.Prop(name)
		c.SetProp(name, v)
	}

	ws.nodes[id] = c

	return nil
}

/*
convertYAMLValue converts a YAML node into a property value.
*/
func convertYAMLValue(n *yaml.Node, keys map[string]data.ID) (data.Value, error) {

	switch n.Kind {

	case yaml.ScalarNode:
		if n.Tag == "!!int" || n.Tag == "!!float" {
			if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
				return data.Num(f), nil
			}
		}
		return data.Str(n.Value), nil

	case yaml.SequenceNode:
		c := make(data.Collection, 0, len(n.Content))

		for _, e := range n.Content {
			v, err := convertYAMLValue(e, keys)
			if err != nil {
				return nil, err
			}
			c = append(c, v)
		}

		return c, nil

	case yaml.MappingNode:
		if len(n.Content) == 2 && n.Content[0].Value == "ref" {
			key := n.Content[1].Value

			id, ok := keys[key]
			if !ok {
				return nil, fmt.Errorf("Unknown reference %v", key)
			}

			return data.Reference(id), nil
		}
	}

	return nil, fmt.Errorf("Unsupported value at line %v", n.Line)
}

// Examples
// ========

//go:embed examples/*.yaml
var examples embed.FS

/*
Examples returns the names of all embedded example documents.
*/
func Examples() []string {
	var ret []string

	entries, _ := examples.ReadDir("examples")

	for _, e := range entries {
		ret = append(ret, strings.TrimSuffix(e.Name(), ".yaml"))
	}

	sort.Strings(ret)

	return ret
}

/*
Example returns an embedded example document.
*/
func Example(name string) (io.Reader, error) {
	b, err := examples.ReadFile(path.Join("examples", name+".yaml"))
	if err != nil {
		return nil, &util.GraphError{Type: util.ErrUnknownID, Detail: "Example " + name}
	}

	return strings.NewReader(string(b)), nil
}

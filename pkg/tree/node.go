// Package tree holds the selection and expansion state behind the category
// tree view.
//
// A tree is an ordered slice of root Nodes supplied by the caller and never
// modified afterwards. The Controller is the only writer of State; renderers
// read State and send user actions back through the Controller.
package tree

import (
	"errors"
	"fmt"
)

// Node is one entry in a category tree. Nodes with children render as
// folders, nodes without as files.
type Node struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	Selectable *bool  `yaml:"selectable,omitempty" json:"selectable,omitempty"` // nil means selectable
	Children   []Node `yaml:"children,omitempty" json:"children,omitempty"`
}

// Leaf returns a selectable node without children.
func Leaf(id, name string) Node {
	return Node{ID: id, Name: name}
}

// Folder returns a selectable node holding the given children.
func Folder(id, name string, children ...Node) Node {
	return Node{ID: id, Name: name, Children: children}
}

// Disabled returns a copy of n marked as not selectable.
func (n Node) Disabled() Node {
	selectable := false
	n.Selectable = &selectable
	return n
}

// IsSelectable reports whether the node accepts selection and expansion.
func (n Node) IsSelectable() bool {
	return n.Selectable == nil || *n.Selectable
}

// IsFolder reports whether the node has at least one child.
func (n Node) IsFolder() bool {
	return len(n.Children) > 0
}

// Walk visits every node depth-first in order. Returning false from fn skips
// the children of the node just visited.
func Walk(roots []Node, fn func(n Node, depth int) bool) {
	var visit func(n Node, depth int)
	visit = func(n Node, depth int) {
		if !fn(n, depth) {
			return
		}
		for _, child := range n.Children {
			visit(child, depth+1)
		}
	}
	for _, root := range roots {
		visit(root, 0)
	}
}

// Find returns the node with the given id anywhere in the tree.
func Find(roots []Node, id string) (Node, bool) {
	var found Node
	ok := false
	Walk(roots, func(n Node, _ int) bool {
		if ok {
			return false
		}
		if n.ID == id {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// Count returns the total number of nodes in the tree.
func Count(roots []Node) int {
	total := 0
	Walk(roots, func(Node, int) bool {
		total++
		return true
	})
	return total
}

// Validate reports empty and duplicate ids. The controller itself never
// calls it; it is meant for loaders that accept trees from files.
func Validate(roots []Node) error {
	var errs []error
	seen := make(map[string]bool)
	Walk(roots, func(n Node, _ int) bool {
		switch {
		case n.ID == "":
			errs = append(errs, fmt.Errorf("node %q has an empty id", n.Name))
		case seen[n.ID]:
			errs = append(errs, fmt.Errorf("duplicate node id %q", n.ID))
		}
		seen[n.ID] = true
		return true
	})
	return errors.Join(errs...)
}

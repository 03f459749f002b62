package syntax

import (
	"strings"
)

// Tree is the immutable application schema.
type Tree struct {
	roots []*Node
	paths map[*Node]string
	size  int
}

// NewTree builds a tree over the given top-level nodes. The nodes must not be
// modified once the tree has been created.
func NewTree(roots ...*Node) *Tree {
	t := &Tree{
		roots: roots,
		paths: make(map[*Node]string),
	}
	var index func(nodes []*Node, prefix string)
	index = func(nodes []*Node, prefix string) {
		for _, n := range nodes {
			path := prefix + "/" + n.Segment()
			t.paths[n] = path
			t.size++
			index(n.Subblocks, path)
		}
	}
	index(roots, "")
	return t
}

// Roots returns the top-level nodes in declaration order.
func (t *Tree) Roots() []*Node {
	return t.roots
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	return t.size
}

// Path returns the computed slash path of a node belonging to the tree. Nodes
// from elsewhere fall back to their normalised name.
func (t *Tree) Path(n *Node) string {
	if p, ok := t.paths[n]; ok {
		return p
	}
	return NormalizePath(n.Name)
}

// Find returns the node addressed by path, or nil.
func (t *Tree) Find(path string) *Node {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return nil
	}
	return find(t.roots, parts)
}

func find(nodes []*Node, parts []string) *Node {
	seg := parts[0]
	child := childBySegment(nodes, seg)
	if child == nil && seg == Wildcard {
		child = wildcardChild(nodes)
	}
	if child != nil {
		if len(parts) == 1 {
			return child
		}
		if n := find(child.Subblocks, parts[1:]); n != nil {
			return n
		}
	}

	// A wildcard in the query only ever matches literally.
	if isWildcardSegment(seg) {
		return nil
	}
	for _, child := range nodes {
		if !isWildcardSegment(child.Segment()) {
			continue
		}
		if n := find(child.Subblocks, parts); n != nil {
			return n
		}
	}
	return nil
}

// FindExact returns the node whose path matches every segment literally,
// without passing through "*" or "<type>" children.
func (t *Tree) FindExact(path string) *Node {
	parts := SplitPath(path)
	if len(parts) == 0 {
		return nil
	}
	nodes := t.roots
	var n *Node
	for _, seg := range parts {
		if n = childBySegment(nodes, seg); n == nil {
			return nil
		}
		nodes = n.Subblocks
	}
	return n
}

// wildcardChild returns the first child whose name ends in "*", such as
// "/Variables/*" or "/Functions/Parsed*".
func wildcardChild(nodes []*Node) *Node {
	for _, child := range nodes {
		if child.IsWildcard() {
			return child
		}
	}
	return nil
}

// Lookup resolves a syntax name whose style is not known up front: the exact
// path, then path/*, then path/<type>.
func (t *Tree) Lookup(path string) (*Node, bool) {
	for _, candidate := range []string{path, join(path, Wildcard), join(path, TypeDispatch)} {
		if n := t.Find(candidate); n != nil {
			return n, true
		}
	}
	return nil, false
}

// Walk visits every node depth-first in declaration order. Returning false
// from fn skips the node's subblocks.
func (t *Tree) Walk(fn func(n *Node, path string) bool) {
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			if fn(n, t.Path(n)) {
				walk(n.Subblocks)
			}
		}
	}
	walk(t.roots)
}

func join(path, seg string) string {
	return strings.TrimRight(path, "/") + "/" + seg
}

package syntax

import (
	"errors"
	"strings"
)

const (
	// Wildcard is the path component denoting any named instance.
	Wildcard = "*"
	// TypeDispatch is the path component denoting a type-dispatched variant.
	TypeDispatch = "<type>"
)

var (
	// ErrNoSchema is returned when no schema data is available.
	ErrNoSchema = errors.New("no schema data available")
)

// Parameter describes one input parameter of a schema node
type Parameter struct {
	Name        string `yaml:"name" json:"name"`
	CppType     string `yaml:"cpp_type" json:"cpp_type,omitempty"`
	Default     string `yaml:"default" json:"default,omitempty"`
	Description string `yaml:"description" json:"description,omitempty"`
	Group       string `yaml:"group_name" json:"group_name,omitempty"`
	Required    bool   `yaml:"required" json:"required"`
}

// Node is one entry of the application's object/system hierarchy
type Node struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description,omitempty"`
	Parameters  []*Parameter `yaml:"parameters" json:"parameters,omitempty"`
	Subblocks   []*Node      `yaml:"subblocks" json:"subblocks,omitempty"`
}

// Segment returns the last path component of the node name.
func (n *Node) Segment() string {
	return LastSegment(n.Name)
}

// IsWildcard reports whether the node stands for "any named instance".
func (n *Node) IsWildcard() bool {
	return strings.HasSuffix(strings.TrimSpace(n.Name), Wildcard)
}

// IsTypeDispatch reports whether the node is a <type> placeholder.
func (n *Node) IsTypeDispatch() bool {
	return n.Segment() == TypeDispatch
}

// HasWildcardChild reports whether any direct subblock is wildcard-suffixed.
func (n *Node) HasWildcardChild() bool {
	for _, child := range n.Subblocks {
		if child.IsWildcard() {
			return true
		}
	}
	return false
}

// Child returns the direct subblock whose segment equals seg.
func (n *Node) Child(seg string) *Node {
	return childBySegment(n.Subblocks, seg)
}

// ParameterGroups returns parameter group names in first-seen order. Required
// parameters form the "Required" group, ungrouped optional ones "Optional".
func (n *Node) ParameterGroups() ([]string, map[string][]*Parameter) {
	var order []string
	groups := make(map[string][]*Parameter)

	add := func(name string, p *Parameter) {
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], p)
	}

	for _, p := range n.Parameters {
		if p.Required {
			add("Required", p)
		}
	}
	for _, p := range n.Parameters {
		if p.Required {
			continue
		}
		group := p.Group
		if group == "" {
			group = "Optional"
		}
		add(group, p)
	}
	return order, groups
}

// LastSegment returns the final slash-separated component of name.
func LastSegment(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(strings.TrimRight(name, "/"), "/"); i >= 0 {
		name = name[i+1:]
	}
	return strings.TrimSpace(strings.Trim(name, "/"))
}

// SplitPath splits a slash path into non-empty trimmed components.
func SplitPath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// NormalizePath returns path in canonical "/a/b" form.
func NormalizePath(path string) string {
	return "/" + strings.Join(SplitPath(path), "/")
}

// StripWildcards removes "*" and "<type>" components from path and returns
// the remaining components.
func StripWildcards(path string) []string {
	var out []string
	for _, p := range SplitPath(path) {
		if isWildcardSegment(p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isWildcardSegment(seg string) bool {
	return seg == Wildcard || seg == TypeDispatch
}

func childBySegment(nodes []*Node, seg string) *Node {
	for _, child := range nodes {
		if child.Segment() == seg {
			return child
		}
	}
	return nil
}

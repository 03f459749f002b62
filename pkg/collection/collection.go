// Package collection renders cross-linked lists of schema entries, optionally
// grouped by documentation group.
package collection

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/platinummonkey/moosedocs/pkg/fragment"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// Class names shared with the site theme.
const (
	ItemClass       = "collection-item"
	NameClass       = "moose-collection-name"
	HeaderClass     = "collection-header"
	CollectionClass = "moose collection with-header"
)

// Builder creates collections over a fixed schema and registry bundle. It
// holds no mutable state and is safe for concurrent use.
type Builder struct {
	tree *syntax.Tree
	regs *syntax.Registries
}

// NewBuilder returns a Builder reading from tree and regs.
func NewBuilder(tree *syntax.Tree, regs *syntax.Registries) *Builder {
	return &Builder{tree: tree, regs: regs}
}

// Tree returns the schema the builder reads from.
func (b *Builder) Tree() *syntax.Tree {
	return b.tree
}

// Registries returns the registry bundle the builder reads from.
func (b *Builder) Registries() *syntax.Registries {
	return b.regs
}

// Items lists the direct subblocks of node that belong to group, in
// declaration order. Wildcard-suffixed subblocks are never listed.
func (b *Builder) Items(node *syntax.Node, group string, reg *syntax.Registry, action Action) []*html.Node {
	var items []*html.Node
	for _, child := range node.Subblocks {
		if child.IsWildcard() {
			continue
		}
		path := b.tree.Path(child)
		if !action.Has(reg, path) {
			continue
		}

		link := fragment.Append(
			fragment.Element("a", "href", action.Link(path, group)),
			fragment.Text(child.Segment()),
		)
		items = append(items, fragment.Append(
			fragment.Div(ItemClass),
			fragment.Append(fragment.Div(NameClass), link),
		))
	}
	return items
}

// Create builds the collection of node's subblocks for the given groups, or
// for every group when none are given. A header precedes each group's items
// only when more than one group is in play. A nil node is returned when no
// group contributes an item.
func (b *Builder) Create(node *syntax.Node, action Action, groups ...string) (*html.Node, error) {
	if !action.valid() {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown action %s", action)}
	}
	if node == nil {
		return nil, nil
	}

	if len(groups) == 0 {
		groups = b.regs.Names()
	}
	useHeader := len(groups) > 1

	var children []*html.Node
	for _, name := range groups {
		reg, ok := b.regs.Get(name)
		if !ok {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown syntax group %q", name)}
		}
		items := b.Items(node, name, reg, action)
		if len(items) > 0 && useHeader {
			header := fragment.Append(fragment.Div(HeaderClass), fragment.Text(HeaderText(name, action)))
			children = append(children, header)
		}
		children = append(children, items...)
	}

	if len(children) == 0 {
		return nil, nil
	}
	return fragment.Append(fragment.Div(CollectionClass), children...), nil
}

// CreateObjects is Create with the Object action.
func (b *Builder) CreateObjects(node *syntax.Node, groups ...string) (*html.Node, error) {
	return b.Create(node, Object, groups...)
}

// CreateSystems is Create with the System action.
func (b *Builder) CreateSystems(node *syntax.Node, groups ...string) (*html.Node, error) {
	return b.Create(node, System, groups...)
}

// HeaderText formats a group header, e.g. "phase_field" -> "Phase Field Objects".
func HeaderText(group string, action Action) string {
	return titleCase(strings.ReplaceAll(group, "_", " ")) + " " + action.Plural()
}

// titleCase upper-cases the first letter of every run of letters and
// lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

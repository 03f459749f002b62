package directives

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/platinummonkey/moosedocs/pkg/collection"
	"github.com/platinummonkey/moosedocs/pkg/fragment"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// SystemListClass is the class of the !systems wrapper.
const SystemListClass = "moose-system-list"

var systemsRE = regexp.MustCompile(`^!systems\s*(.*)$`)

// systemList renders "!systems [group ...]": a section per system of the
// whole schema with object collections wherever instances can be declared.
type systemList struct {
	builder *collection.Builder
}

func (h *systemList) Name() string            { return "systems" }
func (h *systemList) Pattern() *regexp.Regexp { return systemsRE }

func (h *systemList) Handle(m []string) (*html.Node, error) {
	groups := strings.Fields(m[1])

	el := fragment.Div(SystemListClass)
	if err := h.build(h.builder.Tree().Roots(), el, 0, groups); err != nil {
		return nil, err
	}
	prune(el)
	return el, nil
}

// build is the first phase: every system gets a section, whether or not
// anything below it ends up listed.
func (h *systemList) build(nodes []*syntax.Node, parent *html.Node, level int, groups []string) error {
	tree := h.builder.Tree()
	for _, n := range nodes {
		if n.IsTypeDispatch() || n.IsWildcard() {
			continue
		}

		short := n.Segment()
		id := strings.ToLower(strings.ReplaceAll(short, " ", "-"))

		div := fragment.Div("")
		if level == 0 {
			div = fragment.Element("div", "class", "section scrollspy", "id", id)
		}
		parent.AppendChild(div)

		icon := fragment.Append(fragment.Element("i", "class", "material-icons"), fragment.Text("input"))
		link := fragment.Append(fragment.Element("a", "href", collection.System.Link(tree.Path(n), "")), icon)
		fragment.Append(div, fragment.Append(fragment.Element(heading(level), "id", id), fragment.Text(short), link))

		if typed := typeDispatchChild(n); typed != nil {
			c, err := h.builder.CreateObjects(typed, groups...)
			if err != nil {
				return err
			}
			fragment.Append(div, c)
		}
		// Instance containers stop the descent; type-dispatched systems
		// still list their named sub-systems.
		if n.HasWildcardChild() {
			c, err := h.builder.CreateObjects(n, groups...)
			if err != nil {
				return err
			}
			fragment.Append(div, c)
			continue
		}
		if hasNamedChild(n) {
			inner := fragment.Div("")
			div.AppendChild(inner)
			if err := h.build(n.Subblocks, inner, level+1, groups); err != nil {
				return err
			}
		}
	}
	return nil
}

// prune is the second phase: it drops every section with no collection
// anywhere below it.
func prune(n *html.Node) {
	isCollection := fragment.ByClass(collection.CollectionClass)
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type != html.ElementNode || c.Data != "div":
		case isCollection(c):
		case !fragment.Contains(c, isCollection):
			n.RemoveChild(c)
		default:
			prune(c)
		}
		c = next
	}
}

func heading(level int) string {
	if level > 4 {
		level = 4
	}
	return fmt.Sprintf("h%d", level+2)
}

func typeDispatchChild(n *syntax.Node) *syntax.Node {
	for _, c := range n.Subblocks {
		if c.IsTypeDispatch() {
			return c
		}
	}
	return nil
}

func hasNamedChild(n *syntax.Node) bool {
	for _, c := range n.Subblocks {
		if !c.IsTypeDispatch() && !c.IsWildcard() {
			return true
		}
	}
	return false
}

package directives

import (
	"fmt"
	"regexp"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/platinummonkey/moosedocs/pkg/fragment"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

var referenceRE = regexp.MustCompile(`^!(description|parameters)\s+(\S+)\s*(.*)$`)

// crossReference renders details of one named syntax item.
type crossReference struct {
	tree *syntax.Tree
	log  *logrus.Logger
}

func (h *crossReference) Name() string            { return "reference" }
func (h *crossReference) Pattern() *regexp.Regexp { return referenceRE }

func (h *crossReference) Handle(m []string) (*html.Node, error) {
	kind, path := m[1], m[2]

	node, ok := h.tree.Lookup(path)
	if !ok {
		h.log.WithField("syntax", path).Warn("Syntax not found")
		return fragment.Error(fmt.Sprintf("Failed to locate syntax: %s", path)), nil
	}

	if kind == "description" {
		text := node.Description
		if text == "" {
			text = "No description available."
		}
		return fragment.Append(fragment.Element("p", "class", "moose-description"), fragment.Text(text)), nil
	}

	settings, attrs, err := ParseSettings(m[3], map[string]string{"title": "Input Parameters"})
	if err != nil {
		return fragment.Error(fmt.Sprintf("Invalid settings for !parameters %s: %v", path, err)), nil
	}
	return parameterTables(node, settings["title"], attrs), nil
}

func parameterTables(node *syntax.Node, title string, attrs []html.Attribute) *html.Node {
	el := fragment.Div("moose-parameters")
	el.Attr = append(el.Attr, attrs...)
	fragment.Append(el, fragment.Append(fragment.Element("h2"), fragment.Text(title)))

	order, groups := node.ParameterGroups()
	if len(order) == 0 {
		return fragment.Append(el, fragment.Append(fragment.Element("p"), fragment.Text("No input parameters.")))
	}

	for _, name := range order {
		thead := fragment.Element("thead")
		row := fragment.Element("tr")
		for _, col := range []string{"Name", "Type", "Default", "Description"} {
			fragment.Append(row, fragment.Append(fragment.Element("th"), fragment.Text(col)))
		}
		fragment.Append(thead, row)

		tbody := fragment.Element("tbody")
		for _, p := range groups[name] {
			tr := fragment.Element("tr", "id", node.Segment()+"-"+p.Name)
			for _, cell := range []string{p.Name, p.CppType, p.Default, p.Description} {
				fragment.Append(tr, fragment.Append(fragment.Element("td"), fragment.Text(cell)))
			}
			fragment.Append(tbody, tr)
		}

		fragment.Append(el,
			fragment.Append(fragment.Element("h3"), fragment.Text(name+" Parameters")),
			fragment.Append(fragment.Element("table", "class", "moose-parameter-table"), thead, tbody),
		)
	}
	return el
}

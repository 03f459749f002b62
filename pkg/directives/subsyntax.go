package directives

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/platinummonkey/moosedocs/pkg/collection"
	"github.com/platinummonkey/moosedocs/pkg/fragment"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

var subSyntaxRE = regexp.MustCompile(`^!(subobjects|subsystems)\s+(.*?)(?:$|\s+)(.*)$`)

// subSyntax renders "!subobjects <path>" and "!subsystems <path>".
type subSyntax struct {
	builder *collection.Builder
	log     *logrus.Logger
}

func (h *subSyntax) Name() string            { return "subsyntax" }
func (h *subSyntax) Pattern() *regexp.Regexp { return subSyntaxRE }

func (h *subSyntax) Handle(m []string) (*html.Node, error) {
	action, path := m[1], m[2]

	defaults := map[string]string{"title": "", "groups": ""}
	settings, attrs, err := ParseSettings(m[3], defaults)
	if err != nil {
		return fragment.Error(fmt.Sprintf("Invalid settings for !%s %s: %v", action, path, err)), nil
	}
	groups := strings.FieldsFunc(settings["groups"], func(r rune) bool { return r == ',' || r == ' ' })

	var (
		node  *syntax.Node
		title string
		kind  collection.Action
	)
	switch action {
	case "subobjects":
		node = h.resolveObjects(path)
		if node == nil {
			h.log.WithField("syntax", path).Warn("No sub-objects found")
			return fragment.Error(fmt.Sprintf("There are no sub-objects for the supplied syntax: %s", path)), nil
		}
		title, kind = "Available Sub-Objects", collection.Object
	default:
		node = h.builder.Tree().FindExact(path)
		if node == nil {
			h.log.WithField("syntax", path).Warn("No sub-systems found")
			return fragment.Error(fmt.Sprintf("There are no sub-systems for the supplied syntax: %s. You likely need to use '!subobjects' instead.", path)), nil
		}
		title, kind = "Available Sub-Systems", collection.System
	}
	if settings["title"] != "" {
		title = settings["title"]
	}

	c, err := h.builder.Create(node, kind, groups...)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}

	el := fragment.Div("")
	el.Attr = attrs
	return fragment.Append(el, fragment.Append(fragment.Element("h2"), fragment.Text(title)), c), nil
}

// resolveObjects prefers instance-style syntax over type-dispatched syntax:
// when path/* exists the collection is built at path itself, otherwise at
// path/<type>. A path declaring neither falls back to the exact node.
func (h *subSyntax) resolveObjects(path string) *syntax.Node {
	tree := h.builder.Tree()
	base := strings.TrimRight(path, "/")
	if tree.Find(base+"/"+syntax.Wildcard) != nil {
		return tree.Find(base)
	}
	if n := tree.Find(base + "/" + syntax.TypeDispatch); n != nil {
		return n
	}
	return tree.Find(base)
}

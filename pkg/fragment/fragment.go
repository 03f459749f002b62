// Package fragment builds and inspects the HTML element trees produced by
// directive handlers.
package fragment

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Element creates an element node. attrs are key/value pairs.
func Element(tag string, attrs ...string) *html.Node {
	if len(attrs)%2 != 0 {
		panic(fmt.Sprintf("fragment: odd attribute list for <%s>", tag))
	}
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
	for i := 0; i < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

// Div creates a div with the given class attribute (omitted when empty).
func Div(class string) *html.Node {
	if class == "" {
		return Element("div")
	}
	return Element("div", "class", class)
}

// Text creates a text node.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Append adds children to parent and returns parent. Nil children are skipped.
func Append(parent *html.Node, children ...*html.Node) *html.Node {
	for _, c := range children {
		if c != nil {
			parent.AppendChild(c)
		}
	}
	return parent
}

// Attr returns the value of attribute key, or "".
func Attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces attribute key.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// FindAll returns every element below and including n for which match is true,
// in document order.
func FindAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && match(c) {
			out = append(out, c)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

// ByClass matches elements whose class attribute equals class exactly.
func ByClass(class string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return Attr(n, "class") == class
	}
}

// ByTag matches elements with the given tag name.
func ByTag(tag string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Data == tag
	}
}

// Contains reports whether any element below and including n matches.
func Contains(n *html.Node, match func(*html.Node) bool) bool {
	if n == nil {
		return false
	}
	if n.Type == html.ElementNode && match(n) {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if Contains(c, match) {
			return true
		}
	}
	return false
}

// TextContent returns the concatenated, trimmed text below n.
func TextContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		for k := c.FirstChild; k != nil; k = k.NextSibling {
			walk(k)
		}
	}
	if n != nil {
		walk(n)
	}
	return strings.TrimSpace(b.String())
}

// Render serialises n. A nil node renders as the empty string.
func Render(n *html.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", fmt.Errorf("failed to render fragment: %w", err)
	}
	return buf.String(), nil
}

// ErrorClass is the class of inline diagnostic fragments.
const ErrorClass = "admonition error"

// Error builds the inline diagnostic shown in place of unresolved content.
func Error(msg string) *html.Node {
	title := Append(Element("p", "class", "admonition-title"), Text("ERROR"))
	body := Append(Element("p"), Text(msg))
	return Append(Div(ErrorClass), title, body)
}

// IsError reports whether n is an inline diagnostic.
func IsError(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && Attr(n, "class") == ErrorClass
}

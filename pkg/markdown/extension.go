// Package markdown wires the schema directives into goldmark.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/platinummonkey/moosedocs/pkg/directives"
)

// KindDirective is the node kind of an expanded directive line.
var KindDirective = ast.NewNodeKind("Directive")

// Directive is a block node holding one directive line.
type Directive struct {
	ast.BaseBlock
	Line string
}

// Kind implements ast.Node.
func (n *Directive) Kind() ast.NodeKind {
	return KindDirective
}

// Dump implements ast.Node.
func (n *Directive) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Line": n.Line}, nil)
}

// directiveParser claims lines starting with "!" that a handler recognises.
// Other "!" lines fall through to the paragraph parser.
type directiveParser struct {
	set *directives.Set
}

func (p *directiveParser) Trigger() []byte {
	return []byte{'!'}
}

func (p *directiveParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	src := strings.TrimSpace(string(line))
	if h, _ := p.set.Match(src); h == nil {
		return nil, parser.NoChildren
	}
	reader.Advance(segment.Len() - 1)
	return &Directive{Line: src}, parser.NoChildren
}

func (p *directiveParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	return parser.Close
}

func (p *directiveParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (p *directiveParser) CanInterruptParagraph() bool {
	return true
}

func (p *directiveParser) CanAcceptIndentedLine() bool {
	return false
}

// Extension adds directive parsing and rendering to a goldmark instance.
type Extension struct {
	Set     *directives.Set
	Cache   *FragmentCache
	Metrics DirectiveRecorder
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(&directiveParser{set: e.Set}, 50),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&directiveRenderer{set: e.Set, cache: e.Cache, metrics: e.Metrics}, 50),
	))
}

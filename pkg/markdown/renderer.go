package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/platinummonkey/moosedocs/pkg/directives"
	"github.com/platinummonkey/moosedocs/pkg/fragment"
)

// Directive outcomes reported to a DirectiveRecorder.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeCached   = "cached"
)

// DirectiveRecorder receives one call per expanded directive.
type DirectiveRecorder interface {
	RecordDirective(name, outcome string)
}

type directiveRenderer struct {
	set     *directives.Set
	cache   *FragmentCache
	metrics DirectiveRecorder
}

func (r *directiveRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindDirective, r.render)
}

func (r *directiveRenderer) render(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Directive)

	h, m := r.set.Match(n.Line)
	if h == nil {
		return ast.WalkStop, fmt.Errorf("no handler for directive %q", n.Line)
	}
	if out, ok := r.cache.Get(n.Line); ok {
		r.record(h.Name(), OutcomeCached)
		_, _ = w.WriteString(out)
		return ast.WalkContinue, nil
	}

	el, err := h.Handle(m)
	if err != nil {
		r.record(h.Name(), OutcomeError)
		return ast.WalkStop, fmt.Errorf("directive %q: %w", n.Line, err)
	}

	switch {
	case el == nil:
		r.record(h.Name(), OutcomeEmpty)
	case fragment.IsError(el):
		r.record(h.Name(), OutcomeNotFound)
	default:
		r.record(h.Name(), OutcomeOK)
	}

	out, err := fragment.Render(el)
	if err != nil {
		return ast.WalkStop, err
	}
	if out != "" {
		out += "\n"
	}
	r.cache.Add(n.Line, out)
	_, _ = w.WriteString(out)
	return ast.WalkContinue, nil
}

func (r *directiveRenderer) record(name, outcome string) {
	if r.metrics != nil {
		r.metrics.RecordDirective(name, outcome)
	}
}

// Page is a rendered document.
type Page struct {
	// Title is the text of the first level-one heading, if any.
	Title string
	HTML  string
}

// Renderer converts markdown documents that may contain directives.
type Renderer struct {
	ext *Extension
}

// NewRenderer returns a Renderer expanding directives with set. cache and
// metrics may be nil.
func NewRenderer(set *directives.Set, cache *FragmentCache, metrics DirectiveRecorder) *Renderer {
	return &Renderer{ext: &Extension{Set: set, Cache: cache, Metrics: metrics}}
}

func (r *Renderer) markdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM, r.ext),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
}

// Render converts source to HTML. A directive configuration error aborts the
// conversion.
func (r *Renderer) Render(source []byte) (string, error) {
	page, err := r.RenderPage(source)
	if err != nil {
		return "", err
	}
	return page.HTML, nil
}

// RenderPage converts source and extracts its title.
func (r *Renderer) RenderPage(source []byte) (*Page, error) {
	md := r.markdown()
	doc := md.Parser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, err
	}
	return &Page{Title: title(doc, source), HTML: buf.String()}, nil
}

func title(doc ast.Node, source []byte) string {
	var out string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 1 {
			return ast.WalkContinue, nil
		}
		out = plainText(h, source)
		return ast.WalkStop, nil
	})
	return out
}

func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			continue
		}
		b.WriteString(plainText(c, source))
	}
	return b.String()
}

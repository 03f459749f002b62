package site

import (
	"fmt"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/platinummonkey/moosedocs/pkg/fragment"
)

// linker rewrites ".md" hrefs of rendered content into site URLs relative to
// the page. A target resolves against the page directory when that page
// exists and against the content root otherwise, which is where collection
// links point.
type linker struct {
	pages map[string]struct{}
}

func newLinker(pages []*Page) *linker {
	l := &linker{pages: make(map[string]struct{}, len(pages))}
	for _, p := range pages {
		l.pages[p.Rel] = struct{}{}
	}
	return l
}

// resolve returns the site URL for href, and false when href is left alone.
func (l *linker) resolve(p *Page, href string) (string, bool) {
	if href == "" || strings.HasPrefix(href, "#") || strings.Contains(href, ":") {
		return href, false
	}
	target, anchor := href, ""
	if i := strings.IndexByte(target, '#'); i >= 0 {
		target, anchor = target[:i], target[i:]
	}
	if !strings.EqualFold(path.Ext(target), ".md") {
		return href, false
	}

	rel := path.Clean(strings.TrimPrefix(target, "/"))
	if !strings.HasPrefix(target, "/") {
		if local := path.Join(path.Dir(p.Rel), target); l.has(local) {
			rel = local
		}
	}

	out := relativeRoot(p.Output) + URLFor(rel) + anchor
	if out == "" {
		out = "./"
	}
	return out, true
}

func (l *linker) has(rel string) bool {
	_, ok := l.pages[rel]
	return ok
}

// rewrite resolves every ".md" anchor of content rendered for p.
func (l *linker) rewrite(p *Page, content string) (string, error) {
	if !strings.Contains(content, ".md") {
		return content, nil
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(content), body)
	if err != nil {
		return "", fmt.Errorf("parse content: %w", err)
	}

	changed := false
	for _, n := range nodes {
		for _, a := range fragment.FindAll(n, fragment.ByTag("a")) {
			if href, ok := l.resolve(p, fragment.Attr(a, "href")); ok {
				fragment.SetAttr(a, "href", href)
				changed = true
			}
		}
	}
	if !changed {
		return content, nil
	}

	var buf strings.Builder
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("render content: %w", err)
		}
	}
	return buf.String(), nil
}

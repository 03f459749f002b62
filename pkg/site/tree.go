package site

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Page is one markdown or html source file of the content directory.
type Page struct {
	// Source is the absolute source path.
	Source string
	// Rel is the slash-separated path relative to the content directory.
	Rel string
	// Output is the slash-separated output path relative to the site directory.
	Output string
	// Title is filled in when the page is rendered.
	Title  string
	Parent *NavNode
}

// Markdown reports whether the page is converted; html pages are wrapped as is.
func (p *Page) Markdown() bool {
	return strings.EqualFold(path.Ext(p.Rel), ".md")
}

// URL is the directory URL of the rendered page relative to the site root.
func (p *Page) URL() string {
	return URLFor(p.Rel)
}

// NavNode is a directory or a page in the navigation hierarchy.
type NavNode struct {
	Name     string
	Page     *Page
	Children []*NavNode
	Parent   *NavNode
}

// URL returns the node page URL, or "" for pure navigation nodes.
func (n *NavNode) URL() string {
	if n.Page == nil {
		return ""
	}
	return n.Page.URL()
}

// URLFor maps a content path to the directory URL of its output:
// "a/b.md" is served at "a/b/", "a/index.md" at "a/".
func URLFor(rel string) string {
	rel = filepath.ToSlash(rel)
	dir, file := path.Split(rel)
	name := strings.TrimSuffix(file, path.Ext(file))
	if name == "index" {
		return dir
	}
	return dir + name + "/"
}

// DisplayName turns a file or directory name into a navigation label.
func DisplayName(name string) string {
	name = strings.TrimSuffix(name, path.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func isPage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".html":
		return true
	}
	return false
}

func isIndex(name string) bool {
	switch strings.ToLower(name) {
	case "index.md", "index.html":
		return true
	}
	return false
}

// MakeTree scans contentDir. index.md or index.html becomes the page of its
// directory, other pages become leaves, and directories without an index are
// pure navigation nodes. Directories holding no page at all, hidden entries
// and skip directories (relative to contentDir) are left out. Pages are
// returned in walk order.
func MakeTree(contentDir string, skip ...string) (*NavNode, []*Page, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[filepath.ToSlash(filepath.Clean(s))] = true
	}

	root := &NavNode{Name: DisplayName(filepath.Base(contentDir))}
	var pages []*Page
	if err := scan(contentDir, "", root, skipped, &pages); err != nil {
		return nil, nil, err
	}
	return root, pages, nil
}

func scan(contentDir, rel string, node *NavNode, skipped map[string]bool, pages *[]*Page) error {
	entries, err := os.ReadDir(filepath.Join(contentDir, filepath.FromSlash(rel)))
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var indexes []fs.DirEntry
	var files, dirs []fs.DirEntry
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasPrefix(name, "."):
		case e.IsDir():
			if !skipped[path.Join(rel, name)] {
				dirs = append(dirs, e)
			}
		case isIndex(name):
			indexes = append(indexes, e)
		case isPage(name):
			files = append(files, e)
		}
	}

	newPage := func(name string, parent *NavNode) *Page {
		r := path.Join(rel, name)
		p := &Page{
			Source: filepath.Join(contentDir, filepath.FromSlash(r)),
			Rel:    r,
			Output: URLFor(r) + "index.html",
			Parent: parent,
		}
		*pages = append(*pages, p)
		return p
	}

	if len(indexes) > 0 {
		index := indexes[0]
		for _, e := range indexes {
			if strings.EqualFold(e.Name(), "index.md") {
				index = e
			}
		}
		node.Page = newPage(index.Name(), node)
	}
	for _, f := range files {
		child := &NavNode{Name: DisplayName(f.Name()), Parent: node}
		child.Page = newPage(f.Name(), child)
		node.Children = append(node.Children, child)
	}
	for _, d := range dirs {
		child := &NavNode{Name: DisplayName(d.Name()), Parent: node}
		if err := scan(contentDir, path.Join(rel, d.Name()), child, skipped, pages); err != nil {
			return err
		}
		if child.Page != nil || len(child.Children) > 0 {
			node.Children = append(node.Children, child)
		}
	}
	return nil
}

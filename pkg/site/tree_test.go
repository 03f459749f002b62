package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFor(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{rel: "index.md", want: ""},
		{rel: "about.md", want: "about/"},
		{rel: "a/index.html", want: "a/"},
		{rel: "a/b/Markers.md", want: "a/b/Markers/"},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, URLFor(tt.rel))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Getting Started", DisplayName("getting_started.md"))
	assert.Equal(t, "Phase Field", DisplayName("phase-field"))
	assert.Equal(t, "BoxMarker", DisplayName("BoxMarker.md"))
}

func TestMakeTree(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.md":              "",
		"about.md":              "",
		"docs/index.html":       "",
		"docs/index.md":         "",
		"docs/systems/mesh.md":  "",
		"guides/intro.md":       "",
		"guides/deep/empty.txt": "",
		"css/moose.css":         "",
		".git/HEAD":             "",
	})

	root, pages, err := MakeTree(dir, "css")
	require.NoError(t, err)

	var rels []string
	for _, p := range pages {
		rels = append(rels, p.Rel)
	}
	assert.Equal(t, []string{
		"index.md",
		"about.md",
		"docs/index.md",
		"docs/systems/mesh.md",
		"guides/intro.md",
	}, rels)

	require.NotNil(t, root.Page)
	assert.Equal(t, "index.html", root.Page.Output)

	require.Len(t, root.Children, 3)
	about, docs, guides := root.Children[0], root.Children[1], root.Children[2]
	assert.Equal(t, "About", about.Name)
	assert.Equal(t, "about/index.html", about.Page.Output)
	assert.Same(t, about, about.Page.Parent)

	assert.Equal(t, "Docs", docs.Name)
	assert.Equal(t, "docs/index.md", docs.Page.Rel, "index.md preferred over index.html")
	assert.Equal(t, "docs/", docs.URL())
	require.Len(t, docs.Children, 1)
	assert.Equal(t, "Systems", docs.Children[0].Name)
	assert.Nil(t, docs.Children[0].Page, "directory without index")

	assert.Equal(t, "", guides.URL())
	require.Len(t, guides.Children, 1, "deep holds no page")
	assert.True(t, guides.Children[0].Page.Markdown())
}

func TestLoadNavigation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "navigation.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
- Home: index.md
- Documentation:
    - Systems: /documentation/systems.md
    - Markers: documentation/markers/index.md
    - Forum: https://example.org/forum
- Raw: static/page
`), 0o644))

	items, err := LoadNavigation(path)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, &NavItem{Name: "Home", URL: "./"}, items[0])
	assert.Equal(t, "Documentation", items[1].Name)
	assert.Empty(t, items[1].URL)
	assert.Equal(t, []*NavItem{
		{Name: "Systems", URL: "documentation/systems/"},
		{Name: "Markers", URL: "documentation/markers/"},
		{Name: "Forum", URL: "https://example.org/forum", External: true},
	}, items[1].Children)
	assert.Equal(t, "static/page", items[2].URL)
}

func TestLoadNavigation_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "mapping", body: "Home: index.md\n", want: "expected a list"},
		{name: "scalar entry", body: "- index.md\n", want: `expected "name: link"`},
		{name: "nested mapping", body: "- Docs:\n    a: b\n", want: "must be a link or a list"},
		{name: "malformed", body: "- [", want: "parse navigation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nav.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o644))
			_, err := LoadNavigation(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	items, err := LoadNavigation(writeEmpty(t))
	require.NoError(t, err)
	assert.Empty(t, items)
}

func writeEmpty(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nav.yml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func TestNavFromTree(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"index.md":     "",
		"a.md":         "",
		"sub/index.md": "",
		"sub/child.md": "",
	})
	root, _, err := MakeTree(dir)
	require.NoError(t, err)

	assert.Equal(t, []*NavItem{
		{Name: "A", URL: "a/", Children: []*NavItem{}},
		{Name: "Sub", URL: "sub/", Children: []*NavItem{
			{Name: "Child", URL: "sub/child/", Children: []*NavItem{}},
		}},
	}, NavFromTree(root))
}

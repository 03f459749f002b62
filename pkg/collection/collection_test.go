package collection_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"pgregory.net/rapid"

	"github.com/platinummonkey/moosedocs/pkg/collection"
	"github.com/platinummonkey/moosedocs/pkg/fragment"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
	"github.com/platinummonkey/moosedocs/pkg/syntax/syntaxtest"
)

func markersTree() (*syntax.Tree, *syntax.Node) {
	m := &syntax.Node{
		Name: "Markers",
		Subblocks: []*syntax.Node{
			{Name: "Box"},
			{Name: "*"},
		},
	}
	return syntax.NewTree(m), m
}

func bundle(t *testing.T, tree *syntax.Tree, name string, loc syntax.Location) *syntax.Registries {
	t.Helper()
	reg, err := syntax.NewRegistry(name, tree, loc)
	require.NoError(t, err)
	regs, err := syntax.NewRegistries(reg)
	require.NoError(t, err)
	return regs
}

func labels(n *html.Node) []string {
	var out []string
	for _, a := range fragment.FindAll(n, fragment.ByTag("a")) {
		out = append(out, fragment.TextContent(a))
	}
	return out
}

func hrefs(n *html.Node) []string {
	var out []string
	for _, a := range fragment.FindAll(n, fragment.ByTag("a")) {
		out = append(out, fragment.Attr(a, "href"))
	}
	return out
}

func TestCreate_SingleGroup(t *testing.T) {
	tree, markers := markersTree()
	b := collection.NewBuilder(tree, bundle(t, tree, "Markers", syntax.Location{}))

	got, err := b.CreateObjects(markers)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, collection.CollectionClass, fragment.Attr(got, "class"))
	assert.Equal(t, []string{"Box"}, labels(got))
	assert.Equal(t, []string{"Markers/Markers/Box.md"}, hrefs(got))
	assert.Empty(t, fragment.FindAll(got, fragment.ByClass(collection.HeaderClass)))

	out, err := fragment.Render(got)
	require.NoError(t, err)
	assert.Equal(t,
		`<div class="moose collection with-header"><div class="collection-item"><div class="moose-collection-name"><a href="Markers/Markers/Box.md">Box</a></div></div></div>`,
		out)
}

func TestCreate_HiddenIsAbsent(t *testing.T) {
	tree, markers := markersTree()
	b := collection.NewBuilder(tree, bundle(t, tree, "Markers", syntax.Location{Hide: []string{"Markers/Box"}}))

	got, err := b.CreateObjects(markers)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreate_GroupHeaders(t *testing.T) {
	tree := syntaxtest.Tree(t)
	regs := syntaxtest.Registries(t, tree, true)
	b := collection.NewBuilder(tree, regs)
	markers := tree.Find("/Adaptivity/Markers")
	require.NotNil(t, markers)

	tests := []struct {
		name        string
		groups      []string
		wantHeaders []string
		wantLabels  []string
		wantHrefs   []string
	}{
		{
			name:        "all groups",
			wantHeaders: []string{"Framework Objects", "Phase Field Objects"},
			wantLabels:  []string{"BoxMarker", "ErrorFractionMarker", "BoxMarker"},
			wantHrefs: []string{
				"Adaptivity/Markers/framework/BoxMarker.md",
				"Adaptivity/Markers/framework/ErrorFractionMarker.md",
				"Adaptivity/Markers/phase_field/BoxMarker.md",
			},
		},
		{
			name:       "one group has no header",
			groups:     []string{"phase_field"},
			wantLabels: []string{"BoxMarker"},
			wantHrefs:  []string{"Adaptivity/Markers/phase_field/BoxMarker.md"},
		},
		{
			name:        "explicit order",
			groups:      []string{"phase_field", "framework"},
			wantHeaders: []string{"Phase Field Objects", "Framework Objects"},
			wantLabels:  []string{"BoxMarker", "BoxMarker", "ErrorFractionMarker"},
			wantHrefs: []string{
				"Adaptivity/Markers/phase_field/BoxMarker.md",
				"Adaptivity/Markers/framework/BoxMarker.md",
				"Adaptivity/Markers/framework/ErrorFractionMarker.md",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.CreateObjects(markers, tt.groups...)
			require.NoError(t, err)
			require.NotNil(t, got)

			var headers []string
			for _, h := range fragment.FindAll(got, fragment.ByClass(collection.HeaderClass)) {
				headers = append(headers, fragment.TextContent(h))
			}
			assert.Equal(t, tt.wantHeaders, headers)
			assert.Equal(t, tt.wantLabels, labels(got))
			assert.Equal(t, tt.wantHrefs, hrefs(got))
		})
	}
}

func TestCreate_HeaderSkippedForEmptyGroup(t *testing.T) {
	tree := syntaxtest.Tree(t)
	b := collection.NewBuilder(tree, syntaxtest.Registries(t, tree, true))

	indicators := tree.Find("/Adaptivity/Indicators")
	got, err := b.CreateObjects(indicators)
	require.NoError(t, err)
	require.NotNil(t, got)

	headers := fragment.FindAll(got, fragment.ByClass(collection.HeaderClass))
	require.Len(t, headers, 1)
	assert.Equal(t, "Framework Objects", fragment.TextContent(headers[0]))
}

func TestCreate_Systems(t *testing.T) {
	tree := syntaxtest.Tree(t)
	b := collection.NewBuilder(tree, syntaxtest.Registries(t, tree, false))

	got, err := b.CreateSystems(tree.Find("/Adaptivity"))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"Indicators", "Markers"}, labels(got))
	assert.Equal(t, []string{"Adaptivity/Indicators/index.md", "Adaptivity/Markers/index.md"}, hrefs(got))
}

func TestCreate_TypeDispatchedChildren(t *testing.T) {
	tree := syntaxtest.Tree(t)
	b := collection.NewBuilder(tree, syntaxtest.Registries(t, tree, false))

	got, err := b.CreateObjects(tree.Find("/Executioner/<type>"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Executioner/framework/Steady.md", "Executioner/framework/Transient.md"}, hrefs(got))
}

func TestCreate_Errors(t *testing.T) {
	tree, markers := markersTree()
	b := collection.NewBuilder(tree, bundle(t, tree, "Markers", syntax.Location{}))

	_, err := b.Create(markers, collection.Action(7))
	var cfgErr *collection.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, cfgErr.Error(), "unknown action")

	_, err = b.CreateObjects(markers, "Nope")
	require.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), `"Nope"`)

	got, err := b.CreateObjects(nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestActionLink(t *testing.T) {
	tests := []struct {
		action collection.Action
		path   string
		group  string
		want   string
	}{
		{collection.Object, "/Adaptivity/Markers/BoxMarker", "framework", "Adaptivity/Markers/framework/BoxMarker.md"},
		{collection.Object, "/Executioner/<type>/Steady", "framework", "Executioner/framework/Steady.md"},
		{collection.Object, "/Functions/*/x", "g", "Functions/g/x.md"},
		{collection.Object, "Box", "g", "g/Box.md"},
		{collection.System, "/Adaptivity/Markers", "ignored", "Adaptivity/Markers/index.md"},
		{collection.System, "/Adaptivity/Markers/*", "", "Adaptivity/Markers/index.md"},
		{collection.Object, "/*", "g", ""},
	}
	for _, tt := range tests {
		t.Run(tt.action.String()+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.action.Link(tt.path, tt.group))
		})
	}
}

func TestParseAction(t *testing.T) {
	a, err := collection.ParseAction("Object")
	require.NoError(t, err)
	assert.Equal(t, collection.Object, a)

	a, err = collection.ParseAction("system")
	require.NoError(t, err)
	assert.Equal(t, collection.System, a)

	_, err = collection.ParseAction("table")
	var cfgErr *collection.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestHeaderText(t *testing.T) {
	assert.Equal(t, "Phase Field Objects", collection.HeaderText("phase_field", collection.Object))
	assert.Equal(t, "Navier-Stokes Systems", collection.HeaderText("navier-STOKES", collection.System))
	assert.Equal(t, "Framework Systems", collection.HeaderText("framework", collection.System))
}

func TestCreate_Properties(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		names := rapid.SliceOfNDistinct(rapid.SampledFrom([]string{"A", "B", "C", "D", "E"}), 0, 5, rapid.ID[string]).Draw(r, "children")
		wildcards := rapid.IntRange(0, 2).Draw(r, "wildcards")

		root := &syntax.Node{Name: "Root"}
		for _, n := range names {
			root.Subblocks = append(root.Subblocks, &syntax.Node{Name: n})
		}
		for i := 0; i < wildcards; i++ {
			root.Subblocks = append(root.Subblocks, &syntax.Node{Name: "*"})
		}
		tree := syntax.NewTree(root)

		groupCount := rapid.IntRange(1, 3).Draw(r, "groups")
		var regs []*syntax.Registry
		for g := 0; g < groupCount; g++ {
			hide := rapid.SliceOfDistinct(rapid.SampledFrom([]string{"/Root/A", "/Root/B", "/Root/C", "/Root/D", "/Root/E"}), rapid.ID[string]).Draw(r, "hide")
			reg, err := syntax.NewRegistry(string(rune('a'+g)), tree, syntax.Location{Hide: hide})
			if err != nil {
				r.Fatalf("NewRegistry: %v", err)
			}
			regs = append(regs, reg)
		}
		bundle, err := syntax.NewRegistries(regs...)
		if err != nil {
			r.Fatalf("NewRegistries: %v", err)
		}

		expected := 0
		for _, reg := range regs {
			for _, n := range names {
				if reg.HasObject(n) {
					expected++
				}
			}
		}

		got, err := collection.NewBuilder(tree, bundle).CreateObjects(root)
		if err != nil {
			r.Fatalf("CreateObjects: %v", err)
		}
		if (got == nil) != (expected == 0) {
			r.Fatalf("absent=%v but %d items expected", got == nil, expected)
		}
		if got == nil {
			return
		}
		if items := len(fragment.FindAll(got, fragment.ByClass(collection.ItemClass))); items != expected {
			r.Fatalf("got %d items, want %d", items, expected)
		}
		headers := fragment.FindAll(got, fragment.ByClass(collection.HeaderClass))
		if groupCount == 1 && len(headers) != 0 {
			r.Fatalf("single group emitted %d headers", len(headers))
		}
		if groupCount > 1 && len(headers) == 0 {
			r.Fatalf("%d groups emitted no header", groupCount)
		}
	})
}

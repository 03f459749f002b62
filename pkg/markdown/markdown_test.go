package markdown_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/moosedocs/pkg/collection"
	"github.com/platinummonkey/moosedocs/pkg/directives"
	"github.com/platinummonkey/moosedocs/pkg/markdown"
	"github.com/platinummonkey/moosedocs/pkg/observability"
	"github.com/platinummonkey/moosedocs/pkg/syntax/syntaxtest"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) RecordDirective(name, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name+":"+outcome)
}

func newSet(t *testing.T) *directives.Set {
	t.Helper()
	tree := syntaxtest.Tree(t)
	logger, _ := test.NewNullLogger()
	return directives.NewSet(tree, syntaxtest.Registries(t, tree, false), logger)
}

func TestRenderer_Render(t *testing.T) {
	r := markdown.NewRenderer(newSet(t), nil, nil)

	tests := []struct {
		name     string
		source   string
		contains []string
		absent   []string
	}{
		{
			name:   "subobjects",
			source: "# Markers\n\n!subobjects /Adaptivity/Markers\n\nTrailing text.\n",
			contains: []string{
				`<div class="moose collection with-header">`,
				`href="Adaptivity/Markers/framework/BoxMarker.md"`,
				"<p>Trailing text.</p>",
			},
		},
		{
			name:     "systems",
			source:   "!systems\n",
			contains: []string{`class="moose-system-list"`, `id="adaptivity"`},
		},
		{
			name:     "interrupts paragraph",
			source:   "Some intro\n!description /Mesh\n",
			contains: []string{"<p>Some intro</p>", "The mesh."},
		},
		{
			name:     "unknown bang line stays text",
			source:   "!not a directive\n",
			contains: []string{"<p>!not a directive</p>"},
			absent:   []string{"moose"},
		},
		{
			name:     "missing syntax renders error",
			source:   "!subobjects /Nope\n",
			contains: []string{"admonition error", "There are no sub-objects for the supplied syntax: /Nope"},
		},
		{
			name:     "empty collection renders nothing",
			source:   "before\n\n!subsystems /Mesh\n\nafter\n",
			contains: []string{"<p>before</p>\n<p>after</p>"},
		},
		{
			name:     "indented code block is left alone",
			source:   "    !systems\n",
			contains: []string{"<pre><code>!systems"},
			absent:   []string{"moose-system-list"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render([]byte(tt.source))
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, unwanted := range tt.absent {
				assert.NotContains(t, out, unwanted)
			}
		})
	}
}

func TestRenderer_ConfigurationError(t *testing.T) {
	rec := &recorder{}
	r := markdown.NewRenderer(newSet(t), nil, rec)

	_, err := r.Render([]byte("# Page\n\n!systems nope\n"))
	require.Error(t, err)

	var cfgErr *collection.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Contains(t, err.Error(), "!systems nope")
	assert.Equal(t, []string{"systems:error"}, rec.calls)
}

func TestRenderer_RenderPage(t *testing.T) {
	r := markdown.NewRenderer(newSet(t), nil, nil)

	tests := []struct {
		source string
		title  string
	}{
		{source: "# Adaptivity *System*\n\ntext\n", title: "Adaptivity System"},
		{source: "## Sub\n\n# Later Title\n", title: "Later Title"},
		{source: "no heading\n", title: ""},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			page, err := r.RenderPage([]byte(tt.source))
			require.NoError(t, err)
			assert.Equal(t, tt.title, page.Title)
			assert.NotEmpty(t, page.HTML)
		})
	}
}

func TestRenderer_Outcomes(t *testing.T) {
	rec := &recorder{}
	r := markdown.NewRenderer(newSet(t), nil, rec)

	src := strings.Join([]string{
		"!subobjects /Adaptivity/Markers",
		"",
		"!subobjects /Nope",
		"",
		"!subsystems /Mesh",
		"",
	}, "\n")
	_, err := r.Render([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"subsyntax:" + markdown.OutcomeOK,
		"subsyntax:" + markdown.OutcomeNotFound,
		"subsyntax:" + markdown.OutcomeEmpty,
	}, rec.calls)
}

func TestRenderer_Cache(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	cache := markdown.NewFragmentCache(100, 0,
		metrics.CacheHitsTotal.WithLabelValues("fragment"),
		metrics.CacheMissesTotal.WithLabelValues("fragment"))
	r := markdown.NewRenderer(newSet(t), cache, metrics)

	src := []byte("!subobjects /Adaptivity/Markers\n")
	first, err := r.Render(src)
	require.NoError(t, err)
	second, err := r.Render(src)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := cache.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.ItemCount)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.CacheHitsTotal.WithLabelValues("fragment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DirectivesTotal.WithLabelValues("subsyntax", markdown.OutcomeCached)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.DirectivesTotal.WithLabelValues("subsyntax", markdown.OutcomeOK)))
}

func TestFragmentCache_Nil(t *testing.T) {
	var cache *markdown.FragmentCache

	cache.Add("!systems", "<div></div>")
	_, ok := cache.Get("!systems")
	assert.False(t, ok)
	assert.Equal(t, markdown.CacheStats{}, cache.Stats())
}

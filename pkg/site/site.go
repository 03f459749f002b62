// Package site renders a content directory into a static documentation site.
package site

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/moosedocs/pkg/markdown"
	"github.com/platinummonkey/moosedocs/pkg/observability"
)

//go:embed templates/default.html
var templates embed.FS

// Options configures a Builder.
type Options struct {
	ContentDir string
	SiteDir    string
	// Template is an html/template layout file; empty uses the built-in one.
	Template     string
	TemplateArgs map[string]string
	// Navigation is an optional menu file, see LoadNavigation. When it does
	// not exist the menu mirrors the content hierarchy.
	Navigation string
	// Assets are content subdirectories copied verbatim.
	Assets []string
	// EditBase prefixes a page's content path to form its edit link.
	EditBase string

	// Threads bounds concurrent page renders; 0 uses the CPU count.
	Threads        int
	DisableThreads bool
}

// Result summarises a build.
type Result struct {
	BuildID  string
	Pages    int
	Assets   int
	Duration time.Duration
}

// Builder renders pages with a markdown.Renderer.
type Builder struct {
	opts     Options
	renderer *markdown.Renderer
	metrics  *observability.Metrics
	log      *logrus.Logger
}

// NewBuilder returns a Builder. metrics and log may be nil.
func NewBuilder(opts Options, renderer *markdown.Renderer, metrics *observability.Metrics, log *logrus.Logger) *Builder {
	if log == nil {
		log = logrus.New()
	}
	if opts.TemplateArgs == nil {
		opts.TemplateArgs = map[string]string{}
	}
	return &Builder{opts: opts, renderer: renderer, metrics: metrics, log: log}
}

// Options returns the builder options.
func (b *Builder) Options() Options {
	return b.opts
}

type menuItem struct {
	Name     string
	Href     string
	Active   bool
	Children []menuItem
}

type pageData struct {
	Title   string
	Content template.HTML
	Root    string
	URL     string
	EditURL string
	Menu    []menuItem
	Args    map[string]string
	BuildID string
}

// Build renders every page under the site directory and copies the assets.
// The first page failure cancels the remaining renders and fails the build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	buildID := observability.NewBuildID()
	ctx = observability.WithLogger(observability.WithBuildID(ctx, buildID), b.log)

	ctx, span := observability.StartSpan(ctx, "site.build", attribute.String("content.dir", b.opts.ContentDir))
	defer span.End()

	log := observability.FromContext(ctx)
	log.WithField("content_dir", b.opts.ContentDir).Info("Building site")

	res, err := b.build(ctx, buildID)
	duration := time.Since(start)
	if b.metrics != nil {
		b.metrics.BuildDuration.Observe(duration.Seconds())
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if b.metrics != nil {
			b.metrics.BuildsTotal.WithLabelValues("failure").Inc()
		}
		log.WithError(err).Error("Site build failed")
		return nil, err
	}

	res.Duration = duration
	if b.metrics != nil {
		b.metrics.BuildsTotal.WithLabelValues("success").Inc()
	}
	span.SetAttributes(attribute.Int("build.pages", res.Pages))
	log.WithFields(logrus.Fields{
		"pages":    res.Pages,
		"assets":   res.Assets,
		"duration": duration.String(),
	}).Info("Site built")
	return res, nil
}

func (b *Builder) build(ctx context.Context, buildID string) (*Result, error) {
	tmpl, err := b.template()
	if err != nil {
		return nil, err
	}

	root, pages, err := MakeTree(b.opts.ContentDir, b.opts.Assets...)
	if err != nil {
		return nil, fmt.Errorf("scan content: %w", err)
	}

	nav, err := b.navigation(root)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(b.opts.SiteDir, 0o755); err != nil {
		return nil, err
	}

	links := newLinker(pages)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(b.threads())
	for _, p := range pages {
		p := p
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := b.renderPage(ctx, tmpl, nav, links, p, buildID); err != nil {
				return fmt.Errorf("page %s: %w", p.Rel, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	assets, err := b.copyAssets()
	if err != nil {
		return nil, err
	}
	return &Result{BuildID: buildID, Pages: len(pages), Assets: assets}, nil
}

func (b *Builder) threads() int {
	switch {
	case b.opts.DisableThreads:
		return 1
	case b.opts.Threads > 0:
		return b.opts.Threads
	default:
		return runtime.NumCPU()
	}
}

func (b *Builder) template() (*template.Template, error) {
	if b.opts.Template == "" {
		return template.ParseFS(templates, "templates/default.html")
	}
	tmpl, err := template.ParseFiles(b.opts.Template)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}
	return tmpl, nil
}

func (b *Builder) navigation(root *NavNode) ([]*NavItem, error) {
	if b.opts.Navigation != "" {
		nav, err := LoadNavigation(b.opts.Navigation)
		if err == nil {
			return nav, nil
		}
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	return NavFromTree(root), nil
}

// renderPage renders a single page into the site directory.
func (b *Builder) renderPage(ctx context.Context, tmpl *template.Template, nav []*NavItem, links *linker, p *Page, buildID string) (err error) {
	start := time.Now()
	_, span := observability.StartSpan(ctx, "site.page", attribute.String("page.source", p.Rel))
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if b.metrics != nil {
			b.metrics.PagesRenderedTotal.WithLabelValues(status).Inc()
			b.metrics.PageRenderDuration.Observe(time.Since(start).Seconds())
		}
		span.End()
	}()

	source, err := os.ReadFile(p.Source)
	if err != nil {
		return err
	}

	var content string
	if p.Markdown() {
		page, err := b.renderer.RenderPage(source)
		if err != nil {
			return err
		}
		if content, err = links.rewrite(p, page.HTML); err != nil {
			return err
		}
		p.Title = page.Title
	} else {
		content = string(source)
	}
	if p.Title == "" && p.Parent != nil {
		p.Title = p.Parent.Name
	}

	data := pageData{
		Title:   p.Title,
		Content: template.HTML(content),
		Root:    relativeRoot(p.Output),
		URL:     p.URL(),
		Menu:    menu(nav, relativeRoot(p.Output), p.URL()),
		Args:    b.opts.TemplateArgs,
		BuildID: buildID,
	}
	if b.opts.EditBase != "" {
		data.EditURL = b.opts.EditBase + p.Rel
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}

	out := filepath.Join(b.opts.SiteDir, filepath.FromSlash(p.Output))
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return err
	}

	observability.FromContext(ctx).WithField("page", p.Rel).Debug("Rendered page")
	return nil
}

// relativeRoot returns the "../" prefix leading from output back to the site root.
func relativeRoot(output string) string {
	depth := strings.Count(path.Dir(output), "/")
	if path.Dir(output) != "." {
		depth++
	}
	return strings.Repeat("../", depth)
}

func menu(items []*NavItem, root, current string) []menuItem {
	if current == "" {
		current = "./"
	}
	out := make([]menuItem, 0, len(items))
	for _, it := range items {
		m := menuItem{Name: it.Name, Children: menu(it.Children, root, current)}
		switch {
		case it.External:
			m.Href = it.URL
		case it.URL != "":
			m.Href = root + it.URL
			m.Active = it.URL == current
		}
		out = append(out, m)
	}
	return out
}

func (b *Builder) copyAssets() (int, error) {
	var copied int
	for _, dir := range b.opts.Assets {
		src := filepath.Join(b.opts.ContentDir, dir)
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(b.opts.ContentDir, p)
			if err != nil {
				return err
			}
			dst := filepath.Join(b.opts.SiteDir, rel)
			if d.IsDir() {
				return os.MkdirAll(dst, 0o755)
			}
			if err := copyFile(p, dst); err != nil {
				return err
			}
			copied++
			if b.metrics != nil {
				b.metrics.AssetsCopiedTotal.Inc()
			}
			return nil
		})
		if err != nil {
			return copied, fmt.Errorf("copy assets %s: %w", dir, err)
		}
	}
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

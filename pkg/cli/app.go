package cli

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/moosedocs/pkg/appsyntax"
	"github.com/platinummonkey/moosedocs/pkg/check"
	"github.com/platinummonkey/moosedocs/pkg/config"
	"github.com/platinummonkey/moosedocs/pkg/directives"
	"github.com/platinummonkey/moosedocs/pkg/markdown"
	"github.com/platinummonkey/moosedocs/pkg/observability"
	"github.com/platinummonkey/moosedocs/pkg/site"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// configFlags are shared by every command.
type configFlags struct {
	file     *string
	dir      *string
	logLevel *string
}

func addConfigFlags(fs *flag.FlagSet) *configFlags {
	return &configFlags{
		file:     fs.String("config", "", "Path to the configuration file (default: search -dir)"),
		dir:      fs.String("dir", ".", "Project directory"),
		logLevel: fs.String("log-level", "", "Override the configured log level"),
	}
}

func (f *configFlags) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *f.file != "" {
		cfg, err = config.Load(*f.file)
	} else {
		cfg, err = config.LoadFromDir(*f.dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if *f.logLevel != "" {
		cfg.Logging.Level = *f.logLevel
	}
	return cfg, nil
}

// app holds the components shared by the commands of one invocation.
type app struct {
	cfg      *config.Config
	log      *logrus.Logger
	registry *prometheus.Registry
	metrics  *observability.Metrics
	otel     *observability.OTelProviders
	cache    *appsyntax.RedisCache

	tree     *syntax.Tree
	regs     *syntax.Registries
	fragment *markdown.FragmentCache
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := observability.NewLogger(cfg.Logging.Level, cfg.Logging.Format, nil)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		registry: prometheus.NewRegistry(),
	}
	a.metrics = observability.NewMetrics(a.registry)

	a.otel, err = observability.InitOTel(ctx, cfg.Observability.OTel(), log)
	if err != nil {
		return nil, err
	}

	if cfg.Cache.RedisURL != "" {
		cache, err := appsyntax.NewRedisCache(cfg.Cache.RedisURL, cfg.Cache.RedisTTL)
		if err != nil {
			// The schema cache is optional.
			log.WithError(err).Warn("Schema cache unavailable")
		} else {
			a.cache = cache
		}
	}

	if cfg.Cache.FragmentSize > 0 {
		a.fragment = markdown.NewFragmentCache(cfg.Cache.FragmentSize, cfg.Cache.FragmentTTL,
			a.metrics.CacheHitsTotal.WithLabelValues("fragment"),
			a.metrics.CacheMissesTotal.WithLabelValues("fragment"))
	}
	return a, nil
}

// close releases the schema cache and flushes telemetry.
func (a *app) close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close schema cache")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := observability.ShutdownOTel(ctx, a.otel, a.log); err != nil {
		a.log.WithError(err).Warn("Failed to flush telemetry")
	}
}

// loadSchema runs the application and builds the location registries.
func (a *app) loadSchema(ctx context.Context) error {
	runner := &appsyntax.Runner{
		Executable: a.cfg.Executable,
		Args:       a.cfg.ExecutableArgs,
		Timeout:    a.cfg.ExecutableTimeout,
	}

	var cache appsyntax.Cache
	if a.cache != nil {
		cache = a.cache
	}

	start := time.Now()
	tree, err := appsyntax.Load(ctx, runner, cache, a.log)
	if err != nil {
		return err
	}
	a.metrics.SchemaLoadDuration.Observe(time.Since(start).Seconds())
	a.metrics.SchemaNodes.Set(float64(tree.Len()))

	regs, err := a.cfg.Registries(tree)
	if err != nil {
		return err
	}
	a.tree = tree
	a.regs = regs
	return nil
}

func (a *app) renderer() *markdown.Renderer {
	set := directives.NewSet(a.tree, a.regs, a.log)
	return markdown.NewRenderer(set, a.fragment, a.metrics)
}

func (a *app) builder() *site.Builder {
	return site.NewBuilder(site.Options{
		ContentDir:     a.cfg.ContentDir,
		SiteDir:        a.cfg.SiteDir,
		Template:       a.cfg.Template,
		TemplateArgs:   a.cfg.TemplateArgs,
		Navigation:     a.cfg.Navigation,
		Assets:         a.cfg.Assets,
		EditBase:       a.cfg.Repo,
		Threads:        a.cfg.Threads,
		DisableThreads: a.cfg.DisableThreads,
	}, a.renderer(), a.metrics, a.log)
}

func (a *app) checker() *check.Checker {
	return check.NewChecker(a.tree, a.regs, a.log)
}

// setup loads configuration, the application schema and the shared
// components. The caller must close the returned app.
func setup(ctx context.Context, flags *configFlags) (*app, error) {
	cfg, err := flags.load()
	if err != nil {
		return nil, err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := a.loadSchema(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"

	"github.com/platinummonkey/moosedocs/pkg/observability"
	"github.com/platinummonkey/moosedocs/pkg/server"
)

func newServeCommand() *Command {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	flags := addConfigFlags(fs)

	var (
		host    = fs.String("host", "", "Listen host (overrides config)")
		port    = fs.String("port", "", "Listen port (overrides config)")
		noWatch = fs.Bool("no-watch", false, "Do not rebuild when content changes")
	)

	return &Command{
		Name:        "serve",
		Description: "Build the site and serve it with live rebuilds",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.close()

			if *host != "" {
				a.cfg.Server.Host = *host
			}
			if *port != "" {
				a.cfg.Server.Port = *port
			}

			ln, err := net.Listen("tcp", a.cfg.Server.Addr())
			if err != nil {
				return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr(), err)
			}
			return runServer(ctx, a, ln, !*noWatch)
		},
	}
}

// runServer builds the site once, then serves it from ln until ctx is done.
func runServer(ctx context.Context, a *app, ln net.Listener, watch bool) error {
	builder := a.builder()
	if _, err := builder.Build(ctx); err != nil {
		ln.Close()
		return err
	}

	var redisClient *redis.Client
	if a.cache != nil {
		redisClient = a.cache.Client()
	}

	opts := server.Options{
		SiteDir: a.cfg.SiteDir,
		Tree:    a.tree,
		Metrics: a.metrics,
		Health:  observability.NewHealthChecker(a.cfg.SiteDir, redisClient, a.cfg.Observability.OTelServiceVersion),
		Rebuild: func(ctx context.Context) error {
			_, err := builder.Build(ctx)
			return err
		},
	}
	if a.cfg.Observability.MetricsEnabled {
		opts.Registry = a.registry
	}
	srv := server.New(opts, a.log)

	httpServer := &http.Server{
		Handler:      srv.Handler(),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	watchDone := make(chan struct{})
	if watch {
		go func() {
			defer close(watchDone)
			defer observability.RecoverPanic(a.log, "content watcher")
			if err := srv.Watch(ctx, a.cfg.ContentDir, a.cfg.Server.WatchDebounce); err != nil {
				a.log.WithError(err).Error("Content watcher stopped")
			}
		}()
	} else {
		close(watchDone)
	}

	sm := observability.NewShutdownManager(a.log, httpServer, a.cfg.Server.ShutdownTimeout)
	sm.RegisterShutdownFunc(func(ctx context.Context) error {
		select {
		case <-watchDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(ln)
	}()
	a.log.WithField("addr", ln.Addr().String()).Info("Serving site")
	fmt.Fprintf(stdout, "Serving %s at http://%s/\n", a.cfg.SiteDir, ln.Addr())

	select {
	case err := <-serveErr:
		cancel()
		<-watchDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	return sm.WaitForShutdown(ctx)
}

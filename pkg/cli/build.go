package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func newBuildCommand() *Command {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	flags := addConfigFlags(fs)

	var (
		clean   = fs.Bool("clean", false, "Remove the site directory before building")
		threads = fs.Int("threads", -1, "Number of render workers (0 uses the CPU count)")
		serial  = fs.Bool("disable-threads", false, "Render pages one at a time")
	)

	return &Command{
		Name:        "build",
		Description: "Render the content directory into a static site",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runBuild(ctx, flags, *clean, *threads, *serial)
		},
	}
}

func runBuild(ctx context.Context, flags *configFlags, clean bool, threads int, serial bool) error {
	a, err := setup(ctx, flags)
	if err != nil {
		return err
	}
	defer a.close()

	if threads >= 0 {
		a.cfg.Threads = threads
	}
	if serial {
		a.cfg.DisableThreads = true
	}
	if clean {
		if err := os.RemoveAll(a.cfg.SiteDir); err != nil {
			return fmt.Errorf("clean site: %w", err)
		}
	}

	res, err := a.builder().Build(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Built %d pages and %d assets into %s in %s\n",
		res.Pages, res.Assets, a.cfg.SiteDir, res.Duration.Round(time.Millisecond))
	return nil
}

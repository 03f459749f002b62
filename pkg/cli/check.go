package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/platinummonkey/moosedocs/pkg/check"
)

func newCheckCommand() *Command {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	flags := addConfigFlags(fs)

	var (
		locations = fs.String("locations", "", "Comma-separated locations to check (default: all)")
		stubs     = fs.Bool("stubs", false, "Write a stub page for every missing page")
		strict    = fs.Bool("strict", false, "Exit with an error when pages are missing")
	)

	return &Command{
		Name:        "check",
		Description: "Report objects and systems without documentation pages",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runCheck(ctx, flags, splitList(*locations), *stubs, *strict)
		},
	}
}

func runCheck(ctx context.Context, flags *configFlags, locations []string, stubs, strict bool) error {
	a, err := setup(ctx, flags)
	if err != nil {
		return err
	}
	defer a.close()

	report, err := a.checker().Check(ctx, check.Options{
		ContentDir: a.cfg.ContentDir,
		Locations:  locations,
		Stubs:      stubs,
	})
	if err != nil {
		return err
	}

	fmt.Fprint(stdout, report.String())

	if strict && !report.OK() {
		return fmt.Errorf("%d documentation pages missing", len(report.Missing))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

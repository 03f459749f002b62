package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

func newSyntaxCommand() *Command {
	fs := flag.NewFlagSet("syntax", flag.ContinueOnError)
	flags := addConfigFlags(fs)

	var (
		path      = fs.String("path", "", "Syntax path to show (default: whole schema)")
		format    = fs.String("format", "text", "Output format: text, json, yaml")
		locations = fs.Bool("locations", false, "List location membership counts instead")
	)

	return &Command{
		Name:        "syntax",
		Description: "Inspect the application syntax",
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSyntax(ctx, flags, *path, *format, *locations)
		},
	}
}

func runSyntax(ctx context.Context, flags *configFlags, path, format string, locations bool) error {
	switch format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	a, err := setup(ctx, flags)
	if err != nil {
		return err
	}
	defer a.close()

	if locations {
		for _, name := range a.regs.Names() {
			reg, _ := a.regs.Get(name)
			fmt.Fprintf(stdout, "%s: %d objects, %d systems\n", name, len(reg.Objects()), len(reg.Systems()))
		}
		return nil
	}

	nodes := a.tree.Roots()
	if path != "" {
		node, ok := a.tree.Lookup(path)
		if !ok {
			return fmt.Errorf("failed to locate syntax: %s", path)
		}
		nodes = []*syntax.Node{node}
	}

	switch format {
	case "json":
		data, err := json.MarshalIndent(nodes, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, string(data))
	case "yaml":
		data, err := yaml.Marshal(nodes)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, string(data))
	default:
		printTree(a.tree, nodes, 0)
	}
	return nil
}

func printTree(tree *syntax.Tree, nodes []*syntax.Node, depth int) {
	for _, n := range nodes {
		line := strings.Repeat("  ", depth) + tree.Path(n)
		if n.Description != "" {
			line += "  " + n.Description
		}
		fmt.Fprintln(stdout, line)
		printTree(tree, n.Subblocks, depth+1)
	}
}

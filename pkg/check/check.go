// Package check verifies that every documented object and system of the
// application has a content page, optionally writing stub pages for the
// missing ones.
package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/moosedocs/pkg/collection"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// Options selects what Check inspects.
type Options struct {
	ContentDir string
	// Locations restricts the check to the named groups; empty checks all.
	Locations []string
	// Stubs writes a stub page for every missing page.
	Stubs bool
}

// Missing is one entry without a page.
type Missing struct {
	Location string
	Kind     collection.Action
	Path     string
	// File is the expected page, relative to the content directory.
	File    string
	Stubbed bool
}

// Report lists the check outcome in schema order.
type Report struct {
	Checked int
	Missing []Missing
}

// OK reports whether every checked entry has a page or a stub.
func (r *Report) OK() bool {
	for _, m := range r.Missing {
		if !m.Stubbed {
			return false
		}
	}
	return true
}

// Checker inspects content pages against the schema.
type Checker struct {
	tree *syntax.Tree
	regs *syntax.Registries
	log  *logrus.Logger
}

// NewChecker returns a Checker. log may be nil.
func NewChecker(tree *syntax.Tree, regs *syntax.Registries, log *logrus.Logger) *Checker {
	if log == nil {
		log = logrus.New()
	}
	return &Checker{tree: tree, regs: regs, log: log}
}

type entry struct {
	node *syntax.Node
	path string
	kind collection.Action
}

// entries lists concrete nodes: children of instance or type-dispatched
// containers are objects, everything else is a system.
func (c *Checker) entries() []entry {
	var out []entry
	var visit func(nodes []*syntax.Node, parent *syntax.Node)
	visit = func(nodes []*syntax.Node, parent *syntax.Node) {
		for _, n := range nodes {
			if !n.IsWildcard() && !n.IsTypeDispatch() {
				kind := collection.System
				if parent != nil && (parent.HasWildcardChild() || parent.IsTypeDispatch()) {
					kind = collection.Object
				}
				out = append(out, entry{node: n, path: c.tree.Path(n), kind: kind})
			}
			visit(n.Subblocks, n)
		}
	}
	visit(c.tree.Roots(), nil)
	return out
}

// Check walks the selected locations and reports entries without a page.
func (c *Checker) Check(ctx context.Context, opts Options) (*Report, error) {
	names, err := c.locations(opts.Locations)
	if err != nil {
		return nil, err
	}

	entries := c.entries()
	report := &Report{}
	for _, name := range names {
		reg, _ := c.regs.Get(name)
		log := c.log.WithField("location", name)
		log.Info("Checking documentation")

		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !e.kind.Has(reg, e.path) {
				continue
			}
			report.Checked++

			rel := e.kind.Link(e.path, name)
			file := filepath.Join(opts.ContentDir, filepath.FromSlash(rel))
			if _, err := os.Stat(file); err == nil {
				continue
			} else if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}

			m := Missing{Location: name, Kind: e.kind, Path: e.path, File: rel}
			if opts.Stubs {
				if err := writeStub(file, e); err != nil {
					return nil, fmt.Errorf("write stub %s: %w", rel, err)
				}
				m.Stubbed = true
				log.WithField("file", rel).Info("Created stub page")
			} else {
				log.WithFields(logrus.Fields{"file": rel, "syntax": e.path}).
					Warnf("No documentation for %s", e.kind)
			}
			report.Missing = append(report.Missing, m)
		}
	}
	return report, nil
}

func (c *Checker) locations(requested []string) ([]string, error) {
	if len(requested) == 0 {
		return c.regs.Names(), nil
	}
	for _, name := range requested {
		if _, ok := c.regs.Get(name); !ok {
			return nil, &collection.ConfigurationError{Reason: fmt.Sprintf("unknown location %q", name)}
		}
	}
	return requested, nil
}

var stubTemplate = template.Must(template.New("stub").Parse(`<!-- MOOSE Documentation Stub: Remove this when content is added. -->

# {{.Title}}

!description {{.Path}}
{{if .SubObjects}}
!subobjects {{.Path}}
{{end}}{{if .SubSystems}}
!subsystems {{.Path}}
{{end}}
!parameters {{.Path}}
`))

func writeStub(file string, e entry) error {
	data := struct {
		Title      string
		Path       string
		SubObjects bool
		SubSystems bool
	}{Title: e.node.Segment(), Path: e.path}

	if e.kind == collection.System {
		data.Title += " System"
		for _, child := range e.node.Subblocks {
			switch {
			case child.IsWildcard(), child.IsTypeDispatch():
				data.SubObjects = true
			default:
				data.SubSystems = true
			}
		}
		if data.SubObjects {
			data.SubSystems = false
		}
	}

	var buf bytes.Buffer
	if err := stubTemplate.Execute(&buf, data); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	return os.WriteFile(file, buf.Bytes(), 0o644)
}

// String renders the report as a plain listing.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d checked, %d missing\n", r.Checked, len(r.Missing))
	for _, m := range r.Missing {
		state := "missing"
		if m.Stubbed {
			state = "stubbed"
		}
		fmt.Fprintf(&b, "  [%s] %s %s: %s (%s)\n", m.Location, m.Kind, m.Path, m.File, state)
	}
	return b.String()
}

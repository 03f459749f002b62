// Package directives implements the "!" block directives that pull schema
// information into documentation pages.
//
// Each handler owns an anchored regular expression. A source line matching
// the expression is replaced by the fragment the handler returns:
//
//	!systems [group ...]
//	!subobjects <path> [key=value ...]
//	!subsystems <path> [key=value ...]
//	!description <path>
//	!parameters <path> [key=value ...]
//
// Handlers only read the schema and registries they were built with, so a
// Set may be shared by concurrent page renders.
package directives

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/platinummonkey/moosedocs/pkg/collection"
	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// Handler expands one directive.
type Handler interface {
	// Name identifies the handler in logs and metrics.
	Name() string
	// Pattern is anchored at line start; its submatches are passed to Handle.
	Pattern() *regexp.Regexp
	// Handle returns the replacement fragment. A nil fragment renders
	// nothing. Unresolved syntax yields an inline error fragment, never an
	// error; errors are reserved for configuration mistakes.
	Handle(m []string) (*html.Node, error)
}

// Set dispatches directive lines to handlers in registration order.
type Set struct {
	handlers []Handler
	builder  *collection.Builder
	log      *logrus.Logger
}

// NewSet returns a Set holding the built-in handlers over tree and regs.
func NewSet(tree *syntax.Tree, regs *syntax.Registries, log *logrus.Logger) *Set {
	if log == nil {
		log = logrus.New()
	}

	b := collection.NewBuilder(tree, regs)
	s := &Set{builder: b, log: log}
	s.handlers = []Handler{
		&systemList{builder: b},
		&subSyntax{builder: b, log: log},
		&crossReference{tree: tree, log: log},
	}
	return s
}

// Register appends a handler; it is consulted after the built-in ones.
func (s *Set) Register(h Handler) {
	s.handlers = append(s.handlers, h)
}

// Handlers returns the registered handlers.
func (s *Set) Handlers() []Handler {
	return s.handlers
}

// Builder returns the collection builder shared by the handlers.
func (s *Set) Builder() *collection.Builder {
	return s.builder
}

// Match returns the first handler whose pattern matches line, with the
// submatches.
func (s *Set) Match(line string) (Handler, []string) {
	line = strings.TrimRight(line, " \t\r\n")
	if !strings.HasPrefix(line, "!") {
		return nil, nil
	}
	for _, h := range s.handlers {
		if m := h.Pattern().FindStringSubmatch(line); m != nil {
			return h, m
		}
	}
	return nil, nil
}

// Expand matches and handles line. ok is false when no handler matches.
func (s *Set) Expand(line string) (n *html.Node, ok bool, err error) {
	h, m := s.Match(line)
	if h == nil {
		return nil, false, nil
	}
	n, err = h.Handle(m)
	if err != nil {
		s.log.WithField("directive", h.Name()).Errorf("Failed to expand %q: %v", line, err)
		return nil, true, err
	}
	return n, true, nil
}

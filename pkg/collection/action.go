package collection

import (
	"fmt"
	"strings"

	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// Action selects which kind of catalog entry a collection lists.
type Action int

const (
	// Object collections list concrete objects, addressed by short name.
	Object Action = iota
	// System collections list systems, addressed by full path.
	System
)

// String returns the lower-case action keyword.
func (a Action) String() string {
	switch a {
	case Object:
		return "object"
	case System:
		return "system"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// Plural returns the label used in group headers, e.g. "Objects".
func (a Action) Plural() string {
	switch a {
	case Object:
		return "Objects"
	case System:
		return "Systems"
	default:
		return ""
	}
}

// ParseAction maps a keyword to an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "object":
		return Object, nil
	case "system":
		return System, nil
	default:
		return 0, &ConfigurationError{Reason: fmt.Sprintf("unknown action %q", s)}
	}
}

func (a Action) valid() bool {
	return a == Object || a == System
}

// Has tests membership of the child at path in reg.
func (a Action) Has(reg *syntax.Registry, path string) bool {
	switch a {
	case Object:
		return reg.HasObject(syntax.LastSegment(path))
	case System:
		return reg.HasSystem(path)
	default:
		return false
	}
}

// Link formats the page path of the entry at path. Wildcard components are
// dropped; systems link to "<path>/index.md" and objects to
// "<parent>/<group>/<leaf>.md".
func (a Action) Link(path, group string) string {
	parts := syntax.StripWildcards(path)
	switch a {
	case Object:
		if len(parts) == 0 {
			return ""
		}
		leaf := parts[len(parts)-1] + ".md"
		out := append([]string{}, parts[:len(parts)-1]...)
		out = append(out, group, leaf)
		return strings.Join(out, "/")
	case System:
		return strings.Join(append(parts, "index.md"), "/")
	default:
		return ""
	}
}

// ConfigurationError reports a programming or configuration mistake that must
// abort rendering of the current document.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

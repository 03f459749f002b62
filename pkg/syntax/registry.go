package syntax

import (
	"fmt"
	"sort"
	"strings"
)

// Location configures the part of the schema documented by one group.
type Location struct {
	// Paths are the schema roots walked by the registry; "/" is the whole tree.
	Paths []string `yaml:"paths"`
	// Hide lists paths (exact or subtree prefix) excluded from membership.
	Hide []string `yaml:"hide"`
}

// Registry is the membership index of one documentation group.
type Registry struct {
	name    string
	objects map[string]struct{}
	systems map[string]struct{}
	hide    []string
}

// NewRegistry walks the configured roots of loc in tree and records every
// concrete object short name and system path that is not hidden.
func NewRegistry(name string, tree *Tree, loc Location) (*Registry, error) {
	if tree == nil {
		return nil, ErrNoSchema
	}

	r := &Registry{
		name:    name,
		objects: make(map[string]struct{}),
		systems: make(map[string]struct{}),
	}
	for _, h := range loc.Hide {
		if parts := SplitPath(h); len(parts) > 0 {
			r.hide = append(r.hide, "/"+strings.Join(parts, "/"))
		}
	}

	paths := loc.Paths
	if len(paths) == 0 {
		paths = []string{"/"}
	}

	for _, p := range paths {
		var nodes []*Node
		if len(SplitPath(p)) == 0 {
			nodes = tree.Roots()
		} else {
			n := tree.Find(p)
			if n == nil {
				return nil, fmt.Errorf("location %q: path %q not found in schema", name, p)
			}
			nodes = []*Node{n}
		}
		for _, n := range nodes {
			r.add(tree, n)
		}
	}

	return r, nil
}

func (r *Registry) add(tree *Tree, n *Node) {
	path := tree.Path(n)
	if r.hidden(path) {
		return
	}
	if !n.IsWildcard() && !n.IsTypeDispatch() {
		r.objects[n.Segment()] = struct{}{}
		r.systems[path] = struct{}{}
	}
	for _, child := range n.Subblocks {
		r.add(tree, child)
	}
}

// hidden matches the raw and the wildcard-stripped form of path against the
// hide patterns, on whole path components.
func (r *Registry) hidden(path string) bool {
	stripped := "/" + strings.Join(StripWildcards(path), "/")
	for _, h := range r.hide {
		if prefixMatch(path, h) || prefixMatch(stripped, h) {
			return true
		}
	}
	return false
}

func prefixMatch(path, pattern string) bool {
	return path == pattern || strings.HasPrefix(path, pattern+"/")
}

// Name returns the group name.
func (r *Registry) Name() string {
	return r.name
}

// HasObject reports whether an object short name belongs to the group.
func (r *Registry) HasObject(shortName string) bool {
	_, ok := r.objects[strings.TrimSpace(shortName)]
	return ok
}

// HasSystem reports whether a system path belongs to the group.
func (r *Registry) HasSystem(path string) bool {
	_, ok := r.systems[NormalizePath(path)]
	return ok
}

// Objects returns the sorted object short names.
func (r *Registry) Objects() []string {
	return sortedKeys(r.objects)
}

// Systems returns the sorted system paths.
func (r *Registry) Systems() []string {
	return sortedKeys(r.systems)
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Registries is an ordered, read-only set of group registries.
type Registries struct {
	names  []string
	byName map[string]*Registry
}

// NewRegistries bundles registries, keeping the given order. A duplicate
// group name is an error.
func NewRegistries(regs ...*Registry) (*Registries, error) {
	b := &Registries{byName: make(map[string]*Registry, len(regs))}
	for _, r := range regs {
		if _, dup := b.byName[r.name]; dup {
			return nil, fmt.Errorf("duplicate syntax group %q", r.name)
		}
		b.names = append(b.names, r.name)
		b.byName[r.name] = r
	}
	return b, nil
}

// Names returns group names in insertion order.
func (b *Registries) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Get returns the registry of a group.
func (b *Registries) Get(name string) (*Registry, bool) {
	r, ok := b.byName[name]
	return r, ok
}

// Len returns the number of groups.
func (b *Registries) Len() int {
	return len(b.names)
}

// Package syntax models the self-describing configuration schema that an
// application prints when run with --yaml, and the per-location membership
// registries built from it.
//
// # Schema Tree
//
// A Tree is decoded once from the application dump and is read-only
// afterwards:
//
//	tree, err := syntax.Decode(dump)
//	node := tree.Find("/Adaptivity/Markers")
//	node, ok := tree.Lookup("/Executioner") // exact, then /*, then /<type>
//
// Two wildcard components appear in paths: "*" (any named instance) and
// "<type>" (type-dispatched variant). Find matches them literally, and also
// walks through them when the query omits them, so the wildcard-stripped path
// of a node is addressable as well.
//
// # Registries
//
// A Registry answers whether an object (by short name) or a system (by full
// path) belongs to a documented location:
//
//	reg, err := syntax.NewRegistry("framework", tree, syntax.Location{
//		Paths: []string{"/"},
//		Hide:  []string{"/Adaptivity/Markers/BoxMarker"},
//	})
//	reg.HasObject("ErrorFractionMarker")
//	reg.HasSystem("/Adaptivity/Markers")
//
// Registries bundles them in configuration order. None of these types are
// mutated after construction, so they are shared between concurrent page
// renders without locking.
package syntax

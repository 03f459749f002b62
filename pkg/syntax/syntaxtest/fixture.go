// Package syntaxtest provides a small application schema shared by tests.
package syntaxtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/moosedocs/pkg/syntax"
)

// SchemaYAML is a trimmed application dump covering instance-style systems
// (Markers, Indicators), a type-dispatched system (Executioner), a plain
// nested system (Outputs) and a leaf system (Mesh).
const SchemaYAML = `
- name: /Adaptivity
  description: Mesh adaptivity settings.
  parameters:
    - name: marker
      cpp_type: MarkerName
      description: The marker driving refinement.
      required: true
    - name: steps
      cpp_type: unsigned int
      default: 0
      description: Number of adaptivity steps.
      group_name: Advanced
    - name: max_h_level
      cpp_type: unsigned int
      default: 0
      description: Maximum refinement level.
  subblocks:
    - name: /Adaptivity/Indicators
      description: Error indicators.
      subblocks:
        - name: /Adaptivity/Indicators/*
        - name: /Adaptivity/Indicators/GradientJumpIndicator
          description: Jump in the gradient across element faces.
    - name: /Adaptivity/Markers
      description: Refinement markers.
      subblocks:
        - name: /Adaptivity/Markers/*
        - name: /Adaptivity/Markers/BoxMarker
          description: Marks elements inside a box.
        - name: /Adaptivity/Markers/ErrorFractionMarker
          description: Marks elements by error fraction.
- name: /Executioner
  description: Solve strategy.
  subblocks:
    - name: /Executioner/<type>
      subblocks:
        - name: /Executioner/<type>/Steady
          description: Steady solve.
        - name: /Executioner/<type>/Transient
          description: Transient solve.
- name: /Outputs
  description: Output settings.
  subblocks:
    - name: /Outputs/Checkpoint
      description: Checkpoint output.
- name: /Mesh
  description: The mesh.
`

// Tree decodes SchemaYAML.
func Tree(tb testing.TB) *syntax.Tree {
	tb.Helper()
	tree, err := syntax.Decode([]byte(SchemaYAML))
	require.NoError(tb, err)
	return tree
}

// Registries builds the registries used across tests: "framework" covering the
// whole schema and, when withPhaseField is set, "phase_field" covering only
// the markers system.
func Registries(tb testing.TB, tree *syntax.Tree, withPhaseField bool) *syntax.Registries {
	tb.Helper()

	framework, err := syntax.NewRegistry("framework", tree, syntax.Location{Paths: []string{"/"}})
	require.NoError(tb, err)
	regs := []*syntax.Registry{framework}

	if withPhaseField {
		pf, err := syntax.NewRegistry("phase_field", tree, syntax.Location{
			Paths: []string{"/Adaptivity/Markers"},
			Hide:  []string{"/Adaptivity/Markers/ErrorFractionMarker"},
		})
		require.NoError(tb, err)
		regs = append(regs, pf)
	}

	bundle, err := syntax.NewRegistries(regs...)
	require.NoError(tb, err)
	return bundle
}

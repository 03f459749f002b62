package syntax

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode parses an application schema dump. The dump is YAML (JSON is
// accepted as well) in one of three shapes: a sequence of top-level nodes, a
// single node mapping with a "name" key, or a mapping from name to node.
func Decode(data []byte) (*Tree, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrNoSchema
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrNoSchema
	}

	root := doc.Content[0]
	var roots []*Node

	switch root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&roots); err != nil {
			return nil, fmt.Errorf("failed to decode schema nodes: %w", err)
		}

	case yaml.MappingNode:
		if hasKey(root, "name") {
			var n Node
			if err := root.Decode(&n); err != nil {
				return nil, fmt.Errorf("failed to decode schema node: %w", err)
			}
			roots = []*Node{&n}
			break
		}
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, value := root.Content[i], root.Content[i+1]
			var n Node
			if err := value.Decode(&n); err != nil {
				return nil, fmt.Errorf("failed to decode schema node %q: %w", key.Value, err)
			}
			if n.Name == "" {
				n.Name = key.Value
			}
			roots = append(roots, &n)
		}

	default:
		return nil, fmt.Errorf("unexpected schema document kind %d", root.Kind)
	}

	roots = compact(roots)
	if len(roots) == 0 {
		return nil, ErrNoSchema
	}
	return NewTree(roots...), nil
}

func hasKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return true
		}
	}
	return false
}

// compact drops null entries, which the dump emits for empty subblock lists.
func compact(nodes []*Node) []*Node {
	out := nodes[:0]
	for _, n := range nodes {
		if n == nil {
			continue
		}
		n.Subblocks = compact(n.Subblocks)
		out = append(out, n)
	}
	return out
}

package site

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// NavItem is one entry of the rendered navigation menu.
type NavItem struct {
	Name string
	// URL is relative to the site root unless External is set.
	URL      string
	External bool
	Children []*NavItem
}

// LoadNavigation reads a navigation file of the form
//
//	# navigation.yml
//	- Getting Started: getting_started/index.md
//	- Documentation:
//	    - Systems: documentation/systems.md
//	    - Forum: https://example.org/forum
func LoadNavigation(path string) ([]*NavItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse navigation %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	items, err := navItems(doc.Content[0])
	if err != nil {
		return nil, fmt.Errorf("navigation %s: %w", path, err)
	}
	return items, nil
}

func navItems(n *yaml.Node) ([]*NavItem, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: expected a list of entries", n.Line)
	}
	var items []*NavItem
	for _, entry := range n.Content {
		if entry.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("line %d: expected \"name: link\"", entry.Line)
		}
		for i := 0; i+1 < len(entry.Content); i += 2 {
			key, value := entry.Content[i], entry.Content[i+1]
			item := &NavItem{Name: key.Value}
			switch value.Kind {
			case yaml.ScalarNode:
				item.URL, item.External = navLink(value.Value)
			case yaml.SequenceNode:
				children, err := navItems(value)
				if err != nil {
					return nil, err
				}
				item.Children = children
			default:
				return nil, fmt.Errorf("line %d: entry %q must be a link or a list", value.Line, key.Value)
			}
			items = append(items, item)
		}
	}
	return items, nil
}

func navLink(link string) (string, bool) {
	if strings.Contains(link, "://") {
		return link, true
	}
	link = strings.TrimPrefix(link, "/")
	if isPage(link) {
		link = URLFor(link)
	}
	if link == "" {
		link = "./"
	}
	return link, false
}

// NavFromTree derives the menu from the content hierarchy.
func NavFromTree(root *NavNode) []*NavItem {
	items := make([]*NavItem, 0, len(root.Children))
	for _, c := range root.Children {
		items = append(items, &NavItem{
			Name:     c.Name,
			URL:      c.URL(),
			Children: NavFromTree(c),
		})
	}
	return items
}

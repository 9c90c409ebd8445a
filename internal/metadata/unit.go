package metadata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ContentUnit is one entry of a product's files list. In YAML it is either a
// bare name (`- 01-intro`) or a single-key mapping carrying a title
// (`- 01-intro: "Introduction"`).
type ContentUnit struct {
	Name  string
	Title string
}

// FileName returns the unit's name with ext appended.
func (u ContentUnit) FileName(ext string) string { return u.Name + ext }

// UnmarshalYAML keeps scalar names verbatim so that entries like `01` stay "01".
func (u *ContentUnit) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			return fmt.Errorf("line %d: empty file entry", node.Line)
		}
		u.Name = node.Value
		u.Title = ""
		return nil
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: file entry must have exactly one key, got %d", node.Line, len(node.Content)/2)
		}
		key, val := node.Content[0], node.Content[1]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return fmt.Errorf("line %d: file entry key must be a name", node.Line)
		}
		u.Name = key.Value
		u.Title = ""
		if val.Kind == yaml.ScalarNode && val.Tag != "!!null" {
			u.Title = val.Value
		} else if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: title for %q must be a string", val.Line, key.Value)
		}
		return nil
	default:
		return fmt.Errorf("line %d: unsupported file entry", node.Line)
	}
}

// MarshalYAML writes the unit back in the shape it was read.
func (u ContentUnit) MarshalYAML() (any, error) {
	if u.Title == "" {
		return u.Name, nil
	}
	return map[string]string{u.Name: u.Title}, nil
}

package metadata

import (
	"fmt"
	"maps"

	"gopkg.in/yaml.v3"
)

// ProductSpec is the metadata for one output format of one edition.
type ProductSpec struct {
	Files []ContentUnit
	// HasFiles distinguishes an absent files key from an empty list.
	HasFiles bool
	// Settings holds every key of the product other than files.
	Settings map[string]any
}

// UnmarshalYAML splits the product mapping into files and settings.
func (p *ProductSpec) UnmarshalYAML(node *yaml.Node) error {
	*p = ProductSpec{}
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: product must be a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if key.Value == "files" {
			if val.Kind == yaml.ScalarNode && val.Tag == "!!null" {
				continue
			}
			if err := val.Decode(&p.Files); err != nil {
				return fmt.Errorf("files: %w", err)
			}
			if p.Files == nil {
				p.Files = []ContentUnit{}
			}
			p.HasFiles = true
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return fmt.Errorf("setting %s: %w", key.Value, err)
		}
		if p.Settings == nil {
			p.Settings = make(map[string]any)
		}
		p.Settings[key.Value] = v
	}
	return nil
}

// Document is one parsed metadata file. Top-level keys other than products
// belong to the site generator and are ignored.
type Document struct {
	Path     string                 `yaml:"-"`
	Products map[string]ProductSpec `yaml:"products"`
}

// Product returns the spec for format, if the document defines it.
func (d *Document) Product(format string) (ProductSpec, bool) {
	if d == nil || d.Products == nil {
		return ProductSpec{}, false
	}
	p, ok := d.Products[format]
	return p, ok
}

// Formats lists the formats the document defines.
func (d *Document) Formats() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.Products))
	for f := range d.Products {
		out = append(out, f)
	}
	return out
}

// ParseDocument decodes a metadata document. path is recorded for diagnostics.
func ParseDocument(path string, data []byte) (*Document, error) {
	doc := &Document{Path: path}
	if err := yaml.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, path, err)
	}
	doc.Path = path
	return doc, nil
}

func mergeSettings(dst, src map[string]any) map[string]any {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

package formats

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"polyglot/internal/domain/models"
)

// catalogFile is the on-disk shape of config/formats.yaml
type catalogFile struct {
	Formats []models.FormatDescriptor `yaml:"-"` // Ordered slice, populated by custom unmarshaler
	Aliases map[string]string         `yaml:"aliases"`
	Samples map[string]string         `yaml:"samples"`
}

// UnmarshalYAML implements custom YAML unmarshaling to preserve format order from the YAML file
func (c *catalogFile) UnmarshalYAML(node *yaml.Node) error {
	type rest struct {
		Formats map[string]models.FormatDescriptor `yaml:"formats"`
		Aliases map[string]string                  `yaml:"aliases"`
		Samples map[string]string                  `yaml:"samples"`
	}
	var r rest
	if err := node.Decode(&r); err != nil {
		return err
	}
	c.Aliases = r.Aliases
	c.Samples = r.Samples

	// Extract format keys in YAML order and build the slice
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value != "formats" {
			continue
		}
		formatsNode := node.Content[i+1]
		if formatsNode.Kind != yaml.MappingNode {
			return fmt.Errorf("formats must be a mapping, got kind %d", formatsNode.Kind)
		}
		// formatsNode.Content alternates: key, value, key, value...
		for j := 0; j+1 < len(formatsNode.Content); j += 2 {
			id := formatsNode.Content[j].Value
			desc, ok := r.Formats[id]
			if !ok {
				continue
			}
			desc.Value = models.FormatID(id)
			c.Formats = append(c.Formats, desc)
		}
		break
	}

	return nil
}

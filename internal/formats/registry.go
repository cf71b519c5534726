package formats

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"polyglot/internal/domain/models"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry is the static catalog of supported formats.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	formats     []models.FormatDescriptor
	byID        map[models.FormatID]int
	byExtension map[string]models.FormatID
	samples     map[models.FormatID]string
}

// NewRegistry creates a registry from the embedded format catalog
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/formats.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read format catalog: %w", err)
	}
	return NewRegistryFromYAML(data)
}

// MustNewRegistry is like NewRegistry but panics on error.
// The catalog is embedded, so an error here is a build defect.
func MustNewRegistry() *Registry {
	r, err := NewRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// NewRegistryFromYAML builds a registry from a catalog document
func NewRegistryFromYAML(data []byte) (*Registry, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal format catalog: %w", err)
	}
	if len(file.Formats) == 0 {
		return nil, fmt.Errorf("format catalog is empty")
	}

	r := &Registry{
		formats:     make([]models.FormatDescriptor, 0, len(file.Formats)),
		byID:        make(map[models.FormatID]int, len(file.Formats)),
		byExtension: make(map[string]models.FormatID),
		samples:     make(map[models.FormatID]string),
	}

	for _, desc := range file.Formats {
		if err := validateDescriptor(desc); err != nil {
			return nil, err
		}
		if _, dup := r.byID[desc.Value]; dup {
			return nil, fmt.Errorf("duplicate format id: %s", desc.Value)
		}
		r.byID[desc.Value] = len(r.formats)
		r.formats = append(r.formats, desc)

		ext := normalizeExtension(desc.FileExtension)
		if _, taken := r.byExtension[ext]; !taken {
			r.byExtension[ext] = desc.Value
		}
	}

	for alias, target := range file.Aliases {
		id := models.FormatID(target)
		if _, ok := r.byID[id]; !ok {
			return nil, fmt.Errorf("alias %q points to unknown format %q", alias, target)
		}
		ext := normalizeExtension(alias)
		if _, taken := r.byExtension[ext]; !taken {
			r.byExtension[ext] = id
		}
	}

	for id, sample := range file.Samples {
		fid := models.FormatID(id)
		if _, ok := r.byID[fid]; !ok {
			return nil, fmt.Errorf("sample for unknown format %q", id)
		}
		r.samples[fid] = sample
	}

	return r, nil
}

func validateDescriptor(desc models.FormatDescriptor) error {
	if desc.Label == "" {
		return fmt.Errorf("format %s: label is required", desc.Value)
	}
	if desc.FileExtension == "" {
		return fmt.Errorf("format %s: extension is required", desc.Value)
	}
	if desc.MimeType == "" {
		return fmt.Errorf("format %s: mime_type is required", desc.Value)
	}
	switch desc.Category {
	case models.CategoryData, models.CategoryDocument, models.CategoryCode:
	default:
		return fmt.Errorf("format %s: unknown category %q", desc.Value, desc.Category)
	}
	return nil
}

// normalizeExtension lowercases and strips a leading dot
func normalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// List returns all formats in declared order
func (r *Registry) List() []models.FormatDescriptor {
	out := make([]models.FormatDescriptor, len(r.formats))
	copy(out, r.formats)
	return out
}

// Find returns the descriptor for id
func (r *Registry) Find(id models.FormatID) (models.FormatDescriptor, bool) {
	i, ok := r.byID[id]
	if !ok {
		return models.FormatDescriptor{}, false
	}
	return r.formats[i], true
}

// FindByExtension returns the format for a file extension ("json", ".JSON", "yml").
// Lookup is case-insensitive.
func (r *Registry) FindByExtension(ext string) (models.FormatDescriptor, bool) {
	id, ok := r.byExtension[normalizeExtension(ext)]
	if !ok {
		return models.FormatDescriptor{}, false
	}
	return r.Find(id)
}

// Resolve accepts either a format id or a file extension
func (r *Registry) Resolve(s string) (models.FormatDescriptor, bool) {
	if desc, ok := r.Find(models.FormatID(strings.ToLower(strings.TrimSpace(s)))); ok {
		return desc, true
	}
	return r.FindByExtension(s)
}

// Grouped returns formats grouped by category, categories in first-appearance order
func (r *Registry) Grouped() []models.FormatGroup {
	var groups []models.FormatGroup
	index := make(map[models.FormatCategory]int)
	for _, desc := range r.formats {
		i, ok := index[desc.Category]
		if !ok {
			i = len(groups)
			index[desc.Category] = i
			groups = append(groups, models.FormatGroup{Category: desc.Category})
		}
		groups[i].Formats = append(groups[i].Formats, desc)
	}
	return groups
}

// Sample returns the sample document for id, if one exists
func (r *Registry) Sample(id models.FormatID) (string, bool) {
	s, ok := r.samples[id]
	return s, ok
}

// IDs returns all format ids in declared order
func (r *Registry) IDs() []models.FormatID {
	ids := make([]models.FormatID, len(r.formats))
	for i, desc := range r.formats {
		ids[i] = desc.Value
	}
	return ids
}

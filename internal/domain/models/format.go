package models

// FormatID identifies a supported content format (e.g., "json", "plain_text")
type FormatID string

// FormatCategory groups formats for presentation. It has no behavioral effect.
type FormatCategory string

const (
	CategoryData     FormatCategory = "Data"
	CategoryDocument FormatCategory = "Document"
	CategoryCode     FormatCategory = "Code"
)

// FormatDescriptor describes one supported content format
type FormatDescriptor struct {
	Value         FormatID       `yaml:"-" json:"value"`
	Label         string         `yaml:"label" json:"label"`
	Category      FormatCategory `yaml:"category" json:"category"`
	FileExtension string         `yaml:"extension" json:"file_extension"`
	MimeType      string         `yaml:"mime_type" json:"mime_type"`
}

// FormatGroup is a category with its formats in declared order
type FormatGroup struct {
	Category FormatCategory     `json:"category"`
	Formats  []FormatDescriptor `json:"formats"`
}

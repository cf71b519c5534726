package services

import (
	"context"

	"polyglot/internal/domain/models"
)

// ConversionService orchestrates a single format conversion.
//
// Validation (blank input, size limit, credentials, format ids) happens before any
// network call. Failures are *domain.ValidationError or *domain.ProviderError.
type ConversionService interface {
	Convert(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error)
}

// FormatCatalog is the read-only format registry used by services and handlers
type FormatCatalog interface {
	List() []models.FormatDescriptor
	Find(id models.FormatID) (models.FormatDescriptor, bool)
	FindByExtension(ext string) (models.FormatDescriptor, bool)
	// Resolve accepts a format id or a file extension
	Resolve(s string) (models.FormatDescriptor, bool)
	Grouped() []models.FormatGroup
	Sample(id models.FormatID) (string, bool)
}

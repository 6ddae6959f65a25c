package ports

import (
	"context"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// WorksheetRepository defines persistence operations for worksheets and their
// features.
type WorksheetRepository interface {
	// Exists reports whether a worksheet with the given id is already stored.
	Exists(ctx context.Context, id string) (bool, error)
	// Insert writes the parent worksheet record. A duplicate id yields
	// domain.ErrWorksheetExists.
	Insert(ctx context.Context, ws *domain.Worksheet) error
	// InsertFeatures writes all feature records of one worksheet in a single
	// all-or-nothing batch.
	InsertFeatures(ctx context.Context, features []domain.Feature) error
	FindByID(ctx context.Context, id string) (*domain.Worksheet, error)
	// List returns all worksheets ordered by creation time descending.
	List(ctx context.Context) ([]*domain.Worksheet, error)
	// FindFeatures returns a worksheet's features ordered by positional index.
	FindFeatures(ctx context.Context, worksheetID string) ([]domain.Feature, error)
	// UpdateMetadata applies the editable metadata fields plus audit stamps.
	UpdateMetadata(ctx context.Context, id string, upd domain.WorksheetUpdate, updatedBy string) error
	DeleteFeature(ctx context.Context, worksheetID string, index int) error
	// Delete removes the worksheet, its features, and any execution sheets
	// referencing it.
	Delete(ctx context.Context, id string) error
}

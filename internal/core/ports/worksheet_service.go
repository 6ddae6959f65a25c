package ports

import (
	"context"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// WorksheetDetail is the full worksheet view: the parent record plus its
// features, reconstituted with decoded coordinate payloads.
type WorksheetDetail struct {
	Worksheet domain.Worksheet
	Features  []FeatureView
}

// FeatureView is one feature with its coordinate payload decoded back from
// the stored textual encoding.
type FeatureView struct {
	Index        int            `json:"index"`
	Type         string         `json:"type"`
	GeometryType string         `json:"geometry_type,omitempty"`
	Coordinates  any            `json:"coordinates"`
	Properties   map[string]any `json:"properties"`
}

// WorksheetService implements worksheet import and management. Route-level
// middleware already restricts access to BACKOFFICE/ADMIN; the actor is
// carried for audit stamps only.
type WorksheetService interface {
	List(ctx context.Context) ([]*domain.Worksheet, error)
	// Import runs the received -> validated -> persisted -> committed
	// pipeline over an uploaded document. Any validation failure is a
	// terminal rejection with no partial write before persistence.
	Import(ctx context.Context, actor Actor, payload []byte) (*domain.Worksheet, error)
	Get(ctx context.Context, id string) (*WorksheetDetail, error)
	Edit(ctx context.Context, actor Actor, id string, upd domain.WorksheetUpdate) error
	DeleteFeature(ctx context.Context, worksheetID string, index int) error
	Delete(ctx context.Context, id string) error
}

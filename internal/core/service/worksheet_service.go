package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
	"github.com/geofield/worksheet-system/internal/geo"
)

// WorksheetService implements worksheet import and management.
type WorksheetService struct {
	repo   ports.WorksheetRepository
	logger zerolog.Logger
	now    func() time.Time
}

func NewWorksheetService(repo ports.WorksheetRepository, logger zerolog.Logger) *WorksheetService {
	return &WorksheetService{repo: repo, logger: logger, now: time.Now}
}

func (s *WorksheetService) List(ctx context.Context) ([]*domain.Worksheet, error) {
	sheets, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list worksheets: %w", err)
	}
	return sheets, nil
}

// Import runs the import pipeline: received -> validated -> persisted ->
// committed. Every validation failure is terminal with no partial write; the
// parent record write happens before the feature batch, and the batch itself
// is all-or-nothing.
func (s *WorksheetService) Import(ctx context.Context, actor ports.Actor, payload []byte) (*domain.Worksheet, error) {
	// received
	if len(payload) == 0 {
		return nil, domain.ErrMissingFile
	}

	// validated
	doc, err := geo.ParseImport(payload)
	if err != nil {
		return nil, err
	}
	if ops, ok := doc.Metadata["operations"].([]any); ok && len(ops) > domain.MaxWorksheetOperations {
		return nil, domain.ErrTooManyOperations
	}

	id := metadataID(doc.Metadata)
	if id != "" {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("import: check worksheet id: %w", err)
		}
		if exists {
			return nil, domain.ErrWorksheetExists
		}
	} else {
		id = uuid.NewString()
	}

	// persisted
	ws := &domain.Worksheet{
		ID:             id,
		OpCode:         domain.WorksheetOpCode,
		Operation:      domain.WorksheetOperation,
		Description:    domain.WorksheetDescription,
		Recommendation: domain.WorksheetRecommendation,
		Metadata:       doc.Metadata,
		CRS:            doc.CRS,
		CreatedAt:      s.now().UTC(),
		CreatedBy:      actor.ID,
		CreatedByRole:  actor.Role,
	}
	if err := s.repo.Insert(ctx, ws); err != nil {
		return nil, err
	}

	// committed
	features := make([]domain.Feature, 0, len(doc.Features))
	for idx, f := range doc.Features {
		geomType, coords, err := geo.EncodeGeometry(f.Geometry)
		if err != nil {
			return nil, fmt.Errorf("import: feature %d: %w", idx, err)
		}
		ftype := f.Type
		if ftype == "" {
			ftype = "Feature"
		}
		features = append(features, domain.Feature{
			WorksheetID:  id,
			Index:        idx,
			Type:         ftype,
			GeometryType: geomType,
			Coordinates:  coords,
			Properties:   map[string]any(f.Properties),
		})
	}
	if err := s.repo.InsertFeatures(ctx, features); err != nil {
		// The parent record is not rolled back here; a retry with the same
		// supplied id fails loudly on the duplicate check.
		return nil, fmt.Errorf("import: commit features: %w", err)
	}

	s.logger.Info().
		Str("worksheet_id", id).
		Int("features", len(features)).
		Str("imported_by", actor.Username).
		Msg("worksheet imported")
	return ws, nil
}

func (s *WorksheetService) Get(ctx context.Context, id string) (*ports.WorksheetDetail, error) {
	ws, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	features, err := s.repo.FindFeatures(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get worksheet: load features: %w", err)
	}

	views := make([]ports.FeatureView, 0, len(features))
	for _, f := range features {
		var coords any
		if f.Coordinates != "" {
			if err := json.Unmarshal([]byte(f.Coordinates), &coords); err != nil {
				return nil, fmt.Errorf("get worksheet: decode feature %d coordinates: %w", f.Index, err)
			}
		}
		views = append(views, ports.FeatureView{
			Index:        f.Index,
			Type:         f.Type,
			GeometryType: f.GeometryType,
			Coordinates:  coords,
			Properties:   f.Properties,
		})
	}

	return &ports.WorksheetDetail{Worksheet: *ws, Features: views}, nil
}

func (s *WorksheetService) Edit(ctx context.Context, actor ports.Actor, id string, upd domain.WorksheetUpdate) error {
	if err := s.repo.UpdateMetadata(ctx, id, upd, actor.ID); err != nil {
		return err
	}
	s.logger.Info().Str("worksheet_id", id).Str("actor", actor.Username).Msg("worksheet updated")
	return nil
}

func (s *WorksheetService) DeleteFeature(ctx context.Context, worksheetID string, index int) error {
	if err := s.repo.DeleteFeature(ctx, worksheetID, index); err != nil {
		return err
	}
	s.logger.Info().Str("worksheet_id", worksheetID).Int("feature", index).Msg("feature deleted")
	return nil
}

func (s *WorksheetService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("worksheet_id", id).Msg("worksheet deleted")
	return nil
}

// metadataID normalizes the optional caller-supplied worksheet identifier.
// JSON numbers are rendered the way they were written where possible.
func metadataID(md map[string]any) string {
	switch v := md["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

type stubWorksheetRepo struct {
	sheets   map[string]*domain.Worksheet
	features map[string][]domain.Feature

	insertFeaturesErr error
}

func newStubWorksheetRepo() *stubWorksheetRepo {
	return &stubWorksheetRepo{
		sheets:   make(map[string]*domain.Worksheet),
		features: make(map[string][]domain.Feature),
	}
}

func (r *stubWorksheetRepo) Exists(_ context.Context, id string) (bool, error) {
	_, ok := r.sheets[id]
	return ok, nil
}

func (r *stubWorksheetRepo) Insert(_ context.Context, ws *domain.Worksheet) error {
	if _, ok := r.sheets[ws.ID]; ok {
		return domain.ErrWorksheetExists
	}
	clone := *ws
	r.sheets[ws.ID] = &clone
	return nil
}

func (r *stubWorksheetRepo) InsertFeatures(_ context.Context, features []domain.Feature) error {
	if r.insertFeaturesErr != nil {
		return r.insertFeaturesErr
	}
	for _, f := range features {
		r.features[f.WorksheetID] = append(r.features[f.WorksheetID], f)
	}
	return nil
}

func (r *stubWorksheetRepo) FindByID(_ context.Context, id string) (*domain.Worksheet, error) {
	ws, ok := r.sheets[id]
	if !ok {
		return nil, domain.ErrWorksheetNotFound
	}
	clone := *ws
	return &clone, nil
}

func (r *stubWorksheetRepo) List(_ context.Context) ([]*domain.Worksheet, error) {
	out := make([]*domain.Worksheet, 0, len(r.sheets))
	for _, ws := range r.sheets {
		clone := *ws
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubWorksheetRepo) FindFeatures(_ context.Context, worksheetID string) ([]domain.Feature, error) {
	features := append([]domain.Feature(nil), r.features[worksheetID]...)
	sort.Slice(features, func(i, j int) bool { return features[i].Index < features[j].Index })
	return features, nil
}

func (r *stubWorksheetRepo) UpdateMetadata(_ context.Context, id string, upd domain.WorksheetUpdate, updatedBy string) error {
	ws, ok := r.sheets[id]
	if !ok {
		return domain.ErrWorksheetNotFound
	}
	apply := func(key string, v *string) {
		if v != nil {
			ws.Metadata[key] = *v
		}
	}
	apply("service_provider", upd.ServiceProvider)
	apply("issue_date", upd.IssueDate)
	apply("starting_date", upd.StartingDate)
	apply("finishing_date", upd.FinishingDate)
	ws.UpdatedBy = updatedBy
	return nil
}

func (r *stubWorksheetRepo) DeleteFeature(_ context.Context, worksheetID string, index int) error {
	features := r.features[worksheetID]
	for i, f := range features {
		if f.Index == index {
			r.features[worksheetID] = append(features[:i], features[i+1:]...)
			return nil
		}
	}
	return domain.ErrFeatureNotFound
}

func (r *stubWorksheetRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.sheets[id]; !ok {
		return domain.ErrWorksheetNotFound
	}
	delete(r.sheets, id)
	delete(r.features, id)
	return nil
}

func newWorksheetService(repo ports.WorksheetRepository) *WorksheetService {
	return NewWorksheetService(repo, zerolog.Nop())
}

func importActor() ports.Actor {
	return ports.Actor{ID: "uid-bo", Username: "backoffice", Role: domain.RoleBackoffice}
}

// importPayload builds a minimal valid upload: metadata with the given id and
// one point feature in the source planar CRS.
func importPayload(id string) []byte {
	return fmt.Appendf(nil, `{
		"type": "FeatureCollection",
		"metadata": {"id": %q, "posa_code": "PT-01"},
		"crs": {"type": "name", "properties": {"name": "EPSG:3763"}},
		"features": [
			{
				"type": "Feature",
				"geometry": {"type": "Point", "coordinates": [200000, 300000]},
				"properties": {"aigp": "AIGP-7"}
			},
			{
				"type": "Feature",
				"geometry": {
					"type": "Polygon",
					"coordinates": [[[199000, 299000], [201000, 299000], [201000, 301000], [199000, 299000]]]
				},
				"properties": {"rural_property_id": "RP-2"}
			}
		]
	}`, id)
}

func TestImport_RejectsEmptyPayload(t *testing.T) {
	svc := newWorksheetService(newStubWorksheetRepo())

	if _, err := svc.Import(context.Background(), importActor(), nil); !errors.Is(err, domain.ErrMissingFile) {
		t.Fatalf("got %v, want ErrMissingFile", err)
	}
}

func TestImport_RejectsStructurallyInvalidDocuments(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    error
	}{
		{"no metadata", `{"type": "FeatureCollection", "features": []}`, domain.ErrMissingMetadata},
		{"no features", `{"type": "FeatureCollection", "metadata": {"id": "ws-1"}}`, domain.ErrMissingFeatures},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubWorksheetRepo()
			svc := newWorksheetService(repo)

			if _, err := svc.Import(context.Background(), importActor(), []byte(tt.payload)); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
			if len(repo.sheets) != 0 {
				t.Error("rejected import left a worksheet record behind")
			}
		})
	}
}

func TestImport_RejectsTooManyOperations(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	payload := []byte(`{
		"metadata": {"id": "ws-ops", "operations": [1, 2, 3, 4, 5, 6]},
		"features": []
	}`)
	if _, err := svc.Import(context.Background(), importActor(), payload); !errors.Is(err, domain.ErrTooManyOperations) {
		t.Fatalf("got %v, want ErrTooManyOperations", err)
	}

	payload = []byte(`{
		"metadata": {"id": "ws-ops", "operations": [1, 2, 3, 4, 5]},
		"features": []
	}`)
	if _, err := svc.Import(context.Background(), importActor(), payload); err != nil {
		t.Fatalf("five operations must be accepted, got %v", err)
	}
}

func TestImport_RejectsDuplicateID(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	if _, err := svc.Import(context.Background(), importActor(), importPayload("ws-dup")); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := svc.Import(context.Background(), importActor(), importPayload("ws-dup")); !errors.Is(err, domain.ErrWorksheetExists) {
		t.Fatalf("got %v, want ErrWorksheetExists", err)
	}
	if len(repo.sheets) != 1 {
		t.Fatalf("got %d worksheet records, want 1", len(repo.sheets))
	}
	if got := len(repo.features["ws-dup"]); got != 2 {
		t.Fatalf("got %d feature records, want 2", got)
	}
}

func TestImport_PersistsWorksheetAndFeatures(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	ws, err := svc.Import(context.Background(), importActor(), importPayload("ws-1"))
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if ws.ID != "ws-1" {
		t.Errorf("got id %q, want metadata id", ws.ID)
	}
	if ws.OpCode != domain.WorksheetOpCode || ws.Operation != domain.WorksheetOperation {
		t.Errorf("fixed descriptive fields not stamped: %q / %q", ws.OpCode, ws.Operation)
	}
	if ws.CreatedBy != "uid-bo" || ws.CreatedByRole != domain.RoleBackoffice {
		t.Errorf("audit stamps wrong: %q / %q", ws.CreatedBy, ws.CreatedByRole)
	}
	if ws.Metadata["posa_code"] != "PT-01" {
		t.Error("source metadata not preserved")
	}

	features := repo.features["ws-1"]
	if len(features) != 2 {
		t.Fatalf("got %d features, want 2", len(features))
	}

	point := features[0]
	if point.Index != 0 || point.GeometryType != domain.GeometryPoint {
		t.Fatalf("first feature: index %d type %q", point.Index, point.GeometryType)
	}
	var coords [2]float64
	if err := json.Unmarshal([]byte(point.Coordinates), &coords); err != nil {
		t.Fatalf("decode point coordinates: %v", err)
	}
	// The false origin of the planar grid reprojects into central Portugal.
	if coords[0] > -6 || coords[0] < -10 || coords[1] < 37 || coords[1] > 42 {
		t.Errorf("point not reprojected to geographic coordinates: %v", coords)
	}
	if point.Properties["aigp"] != "AIGP-7" {
		t.Error("feature properties not preserved")
	}

	polygon := features[1]
	if polygon.Index != 1 || polygon.GeometryType != domain.GeometryPolygon {
		t.Fatalf("second feature: index %d type %q", polygon.Index, polygon.GeometryType)
	}
}

func TestImport_GeneratesIDWhenMetadataHasNone(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	payload := []byte(`{"metadata": {"posa_code": "PT-02"}, "features": []}`)
	ws, err := svc.Import(context.Background(), importActor(), payload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if ws.ID == "" {
		t.Fatal("no id generated")
	}
	if _, ok := repo.sheets[ws.ID]; !ok {
		t.Fatal("worksheet not stored under the generated id")
	}
}

func TestImport_NumericMetadataID(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	payload := []byte(`{"metadata": {"id": 42}, "features": []}`)
	ws, err := svc.Import(context.Background(), importActor(), payload)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if ws.ID != "42" {
		t.Fatalf("got id %q, want \"42\"", ws.ID)
	}
}

func TestImport_FeatureCommitFailureSurfaces(t *testing.T) {
	repo := newStubWorksheetRepo()
	repo.insertFeaturesErr = errors.New("transaction aborted")
	svc := newWorksheetService(repo)

	if _, err := svc.Import(context.Background(), importActor(), importPayload("ws-fail")); err == nil {
		t.Fatal("feature batch failure not surfaced")
	}
}

func TestGet_DecodesStoredCoordinates(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	if _, err := svc.Import(context.Background(), importActor(), importPayload("ws-get")); err != nil {
		t.Fatalf("import: %v", err)
	}

	detail, err := svc.Get(context.Background(), "ws-get")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if detail.Worksheet.ID != "ws-get" {
		t.Errorf("got worksheet %q", detail.Worksheet.ID)
	}
	if len(detail.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(detail.Features))
	}

	coords, ok := detail.Features[0].Coordinates.([]any)
	if !ok || len(coords) != 2 {
		t.Fatalf("point coordinates not decoded as a pair: %#v", detail.Features[0].Coordinates)
	}
	if _, ok := detail.Features[1].Coordinates.([]any); !ok {
		t.Fatalf("polygon coordinates not decoded: %#v", detail.Features[1].Coordinates)
	}
}

func TestGet_UnknownWorksheet(t *testing.T) {
	svc := newWorksheetService(newStubWorksheetRepo())

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrWorksheetNotFound) {
		t.Fatalf("got %v, want ErrWorksheetNotFound", err)
	}
}

func TestEdit_AppliesMetadataUpdate(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	if _, err := svc.Import(context.Background(), importActor(), importPayload("ws-edit")); err != nil {
		t.Fatalf("import: %v", err)
	}

	provider := "SP-9"
	finish := "2026-12-31"
	upd := domain.WorksheetUpdate{ServiceProvider: &provider, FinishingDate: &finish}
	if err := svc.Edit(context.Background(), importActor(), "ws-edit", upd); err != nil {
		t.Fatalf("edit: %v", err)
	}

	ws := repo.sheets["ws-edit"]
	if ws.Metadata["service_provider"] != "SP-9" || ws.Metadata["finishing_date"] != "2026-12-31" {
		t.Errorf("update not applied: %v", ws.Metadata)
	}
	if ws.UpdatedBy != "uid-bo" {
		t.Errorf("updated_by stamp: %q", ws.UpdatedBy)
	}

	if err := svc.Edit(context.Background(), importActor(), "missing", upd); !errors.Is(err, domain.ErrWorksheetNotFound) {
		t.Fatalf("got %v, want ErrWorksheetNotFound", err)
	}
}

func TestDeleteFeature(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	if _, err := svc.Import(context.Background(), importActor(), importPayload("ws-feat")); err != nil {
		t.Fatalf("import: %v", err)
	}

	if err := svc.DeleteFeature(context.Background(), "ws-feat", 0); err != nil {
		t.Fatalf("delete feature: %v", err)
	}
	if got := len(repo.features["ws-feat"]); got != 1 {
		t.Fatalf("got %d features after delete, want 1", got)
	}
	if err := svc.DeleteFeature(context.Background(), "ws-feat", 0); !errors.Is(err, domain.ErrFeatureNotFound) {
		t.Fatalf("got %v, want ErrFeatureNotFound", err)
	}
}

func TestDelete_CascadesFeatures(t *testing.T) {
	repo := newStubWorksheetRepo()
	svc := newWorksheetService(repo)

	if _, err := svc.Import(context.Background(), importActor(), importPayload("ws-del")); err != nil {
		t.Fatalf("import: %v", err)
	}

	if err := svc.Delete(context.Background(), "ws-del"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := repo.sheets["ws-del"]; ok {
		t.Error("worksheet record survived deletion")
	}
	if len(repo.features["ws-del"]) != 0 {
		t.Error("feature records survived deletion")
	}

	if err := svc.Delete(context.Background(), "ws-del"); !errors.Is(err, domain.ErrWorksheetNotFound) {
		t.Fatalf("got %v, want ErrWorksheetNotFound", err)
	}
}

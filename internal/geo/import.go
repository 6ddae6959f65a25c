package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/geofield/worksheet-system/internal/core/domain"
)

// ImportDocument is a parsed worksheet import file: a GeoJSON feature
// collection extended with a mandatory metadata object and an optional CRS tag.
type ImportDocument struct {
	Type     string
	Metadata map[string]any
	CRS      map[string]any
	Features []*geojson.Feature
}

// ParseImport decodes and structurally validates an uploaded worksheet
// document. A body that is not well formed JSON is rejected as an invalid
// document carrying the decoder's message; the document must also have a
// metadata object and a features sequence, and both absences are terminal
// rejections.
func ParseImport(data []byte) (*ImportDocument, error) {
	var raw struct {
		Type     string          `json:"type"`
		Metadata map[string]any  `json:"metadata"`
		CRS      map[string]any  `json:"crs"`
		Features json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}
	if raw.Metadata == nil {
		return nil, domain.ErrMissingMetadata
	}
	if raw.Features == nil {
		return nil, domain.ErrMissingFeatures
	}

	var features []*geojson.Feature
	if err := json.Unmarshal(raw.Features, &features); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDocument, err)
	}

	return &ImportDocument{
		Type:     raw.Type,
		Metadata: raw.Metadata,
		CRS:      raw.CRS,
		Features: features,
	}, nil
}

// EncodeGeometry reprojects a geometry and returns its type tag plus the
// textual coordinate encoding persisted on a feature record. Point and
// Polygon are transformed to WGS84; any other geometry type passes through
// with its original coordinate payload and type recorded as-is. A feature
// without geometry yields an empty type and an empty payload.
func EncodeGeometry(g orb.Geometry) (geometryType string, coordinates string, err error) {
	if g == nil {
		return "", "[]", nil
	}

	switch geom := g.(type) {
	case orb.Point:
		b, err := json.Marshal(ReprojectPoint(geom))
		if err != nil {
			return "", "", fmt.Errorf("encode point: %w", err)
		}
		return domain.GeometryPoint, string(b), nil

	case orb.Polygon:
		b, err := json.Marshal(ReprojectPolygon(geom))
		if err != nil {
			return "", "", fmt.Errorf("encode polygon: %w", err)
		}
		return domain.GeometryPolygon, string(b), nil

	default:
		raw, err := rawCoordinates(geom)
		if err != nil {
			return "", "", err
		}
		return g.GeoJSONType(), raw, nil
	}
}

// rawCoordinates extracts the untransformed coordinate payload of an
// unsupported geometry type.
func rawCoordinates(g orb.Geometry) (string, error) {
	b, err := json.Marshal(geojson.NewGeometry(g))
	if err != nil {
		return "", fmt.Errorf("encode geometry: %w", err)
	}
	var wrapper struct {
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return "", fmt.Errorf("encode geometry: %w", err)
	}
	if wrapper.Coordinates == nil {
		return "[]", nil
	}
	return string(wrapper.Coordinates), nil
}

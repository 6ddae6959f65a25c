package domain

import (
	"errors"
	"time"
)

// MaxWorksheetOperations bounds the operations list a worksheet's metadata may
// carry; imports with more are rejected outright.
const MaxWorksheetOperations = 5

// Fixed descriptive fields stamped on every imported worksheet.
const (
	WorksheetOpCode         = "IMP-FO"
	WorksheetOperation      = "IMPORTAÇÃO de uma folha de obra"
	WorksheetDescription    = "Importação de GeoJSON com uma folha de obra"
	WorksheetRecommendation = "MH"
)

var (
	ErrWorksheetNotFound = errors.New("worksheet not found")
	ErrWorksheetExists   = errors.New("worksheet already exists")
	ErrFeatureNotFound   = errors.New("feature not found")
	ErrMissingFile       = errors.New("geojson file not provided")
	ErrInvalidDocument   = errors.New("invalid worksheet document")
	ErrMissingMetadata   = errors.New("document has no metadata object")
	ErrMissingFeatures   = errors.New("document has no features sequence")
	ErrTooManyOperations = errors.New("metadata operations exceed the limit of 5")
)

// Geometry type tags as stored on a feature. Anything else encountered during
// import is recorded as-is and passes through untransformed.
const (
	GeometryPoint   = "Point"
	GeometryPolygon = "Polygon"
)

// Worksheet is an imported geospatial work-order document. Metadata is the
// free-form object carried by the source file; the descriptive fields above
// are fixed at import time.
type Worksheet struct {
	ID             string         `json:"id" bson:"_id"`
	OpCode         string         `json:"op_code" bson:"op_code"`
	Operation      string         `json:"operation" bson:"operation"`
	Description    string         `json:"description" bson:"description"`
	Recommendation string         `json:"ref_recom" bson:"ref_recom"`
	Metadata       map[string]any `json:"metadata" bson:"metadata"`
	CRS            map[string]any `json:"crs,omitempty" bson:"crs,omitempty"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
	CreatedBy      string         `json:"created_by" bson:"created_by"`
	CreatedByRole  Role           `json:"created_by_role" bson:"created_by_role"`
	UpdatedAt      time.Time      `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
	UpdatedBy      string         `json:"updated_by,omitempty" bson:"updated_by,omitempty"`
}

// Feature is one geometry + properties record belonging to a worksheet,
// keyed by its positional index in the imported feature sequence.
// Coordinates holds the textual JSON encoding of the (reprojected) coordinate
// payload: a single [lon, lat] pair for Point, rings of pairs for Polygon,
// the untouched source payload for any other geometry type.
type Feature struct {
	WorksheetID  string         `json:"worksheet_id" bson:"worksheet_id"`
	Index        int            `json:"index" bson:"index"`
	Type         string         `json:"type" bson:"type"`
	GeometryType string         `json:"geometry_type,omitempty" bson:"geometry_type,omitempty"`
	Coordinates  string         `json:"coordinates" bson:"coordinates"`
	Properties   map[string]any `json:"properties" bson:"properties"`
}

// WorksheetUpdate carries the editable metadata fields of a worksheet. Nil
// pointers mean "leave unchanged".
type WorksheetUpdate struct {
	ServiceProvider *string
	IssueDate       *string
	StartingDate    *string
	FinishingDate   *string
}

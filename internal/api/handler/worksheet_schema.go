package handler

import (
	"time"

	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// --- Request types ---

// updateWorksheetRequest carries the editable metadata fields. Absent fields
// are left unchanged.
type updateWorksheetRequest struct {
	ServiceProvider *string `json:"service_provider"`
	IssueDate       *string `json:"issue_date"`
	StartingDate    *string `json:"starting_date"`
	FinishingDate   *string `json:"finishing_date"`
}

func (r *updateWorksheetRequest) update() domain.WorksheetUpdate {
	return domain.WorksheetUpdate{
		ServiceProvider: r.ServiceProvider,
		IssueDate:       r.IssueDate,
		StartingDate:    r.StartingDate,
		FinishingDate:   r.FinishingDate,
	}
}

// --- Response types ---

type worksheetResponse struct {
	ID             string         `json:"id"`
	OpCode         string         `json:"op_code"`
	Operation      string         `json:"operation"`
	Description    string         `json:"description"`
	Recommendation string         `json:"ref_recom"`
	Metadata       map[string]any `json:"metadata"`
	CRS            map[string]any `json:"crs,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	CreatedBy      string         `json:"created_by"`
	CreatedByRole  string         `json:"created_by_role"`
}

func toWorksheetResponse(ws *domain.Worksheet) worksheetResponse {
	return worksheetResponse{
		ID:             ws.ID,
		OpCode:         ws.OpCode,
		Operation:      ws.Operation,
		Description:    ws.Description,
		Recommendation: ws.Recommendation,
		Metadata:       ws.Metadata,
		CRS:            ws.CRS,
		CreatedAt:      ws.CreatedAt,
		CreatedBy:      ws.CreatedBy,
		CreatedByRole:  string(ws.CreatedByRole),
	}
}

type worksheetDetailResponse struct {
	Worksheet worksheetResponse   `json:"worksheet"`
	Features  []ports.FeatureView `json:"features"`
}

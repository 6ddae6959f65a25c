package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/geofield/worksheet-system/internal/api/metrics"
	"github.com/geofield/worksheet-system/internal/core/domain"
	"github.com/geofield/worksheet-system/internal/core/ports"
)

// maxImportBytes caps uploaded worksheet documents at 5 MiB.
const maxImportBytes = 5 << 20

// WorksheetHandler handles worksheet import and management requests.
type WorksheetHandler struct {
	worksheets ports.WorksheetService
}

func NewWorksheetHandler(worksheets ports.WorksheetService) *WorksheetHandler {
	return &WorksheetHandler{worksheets: worksheets}
}

// List returns all worksheets, most recently imported first.
//
// @Summary      List worksheets
// @Tags         worksheets
// @Produce      json
// @Success      200  {array}   worksheetResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/worksheets [get]
func (h *WorksheetHandler) List(c echo.Context) error {
	sheets, err := h.worksheets.List(c.Request().Context())
	if err != nil {
		return err
	}

	out := make([]worksheetResponse, 0, len(sheets))
	for _, ws := range sheets {
		out = append(out, toWorksheetResponse(ws))
	}
	return c.JSON(http.StatusOK, out)
}

// Import ingests an uploaded worksheet document. The document travels as the
// "file" part of a multipart form.
//
// @Summary      Import a worksheet document
// @Tags         worksheets
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Worksheet document (GeoJSON)"
// @Success      201   {object}  worksheetResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      413   {object}  errorResponse
// @Router       /v1/worksheets/import [post]
func (h *WorksheetHandler) Import(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		metrics.ImportsTotal.WithLabelValues("rejected").Inc()
		return domain.ErrMissingFile
	}
	if fileHeader.Size > maxImportBytes {
		metrics.ImportsTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds the 5 MB limit")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	payload, err := io.ReadAll(io.LimitReader(file, maxImportBytes+1))
	if err != nil {
		return err
	}
	if len(payload) > maxImportBytes {
		metrics.ImportsTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file exceeds the 5 MB limit")
	}
	metrics.ImportPayloadBytes.Observe(float64(len(payload)))

	ws, err := h.worksheets.Import(c.Request().Context(), actor, payload)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrMissingFile),
			errors.Is(err, domain.ErrInvalidDocument),
			errors.Is(err, domain.ErrMissingMetadata),
			errors.Is(err, domain.ErrMissingFeatures),
			errors.Is(err, domain.ErrTooManyOperations),
			errors.Is(err, domain.ErrWorksheetExists):
			metrics.ImportsTotal.WithLabelValues("rejected").Inc()
		default:
			metrics.ImportsTotal.WithLabelValues("failed").Inc()
		}
		return err
	}

	metrics.ImportsTotal.WithLabelValues("committed").Inc()
	return c.JSON(http.StatusCreated, toWorksheetResponse(ws))
}

// Get returns one worksheet with its features.
//
// @Summary      Get a worksheet
// @Tags         worksheets
// @Produce      json
// @Param        id   path      string  true  "Worksheet id"
// @Success      200  {object}  worksheetDetailResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/worksheets/{id} [get]
func (h *WorksheetHandler) Get(c echo.Context) error {
	detail, err := h.worksheets.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, worksheetDetailResponse{
		Worksheet: toWorksheetResponse(&detail.Worksheet),
		Features:  detail.Features,
	})
}

// Update applies the editable metadata fields.
//
// @Summary      Edit a worksheet's metadata
// @Tags         worksheets
// @Accept       json
// @Produce      json
// @Param        id    path      string                  true  "Worksheet id"
// @Param        body  body      updateWorksheetRequest  true  "Fields to change"
// @Success      204   {object}  nil
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/worksheets/{id} [patch]
func (h *WorksheetHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req updateWorksheetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.worksheets.Edit(c.Request().Context(), actor, c.Param("id"), req.update()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete removes a worksheet, cascading to its features and execution sheets.
//
// @Summary      Delete a worksheet
// @Tags         worksheets
// @Produce      json
// @Param        id   path      string  true  "Worksheet id"
// @Success      204  {object}  nil
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/worksheets/{id} [delete]
func (h *WorksheetHandler) Delete(c echo.Context) error {
	if err := h.worksheets.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteFeature removes a single feature by positional index.
//
// @Summary      Delete one feature of a worksheet
// @Tags         worksheets
// @Produce      json
// @Param        id   path      string  true  "Worksheet id"
// @Param        fid  path      int     true  "Feature index"
// @Success      204  {object}  nil
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/worksheets/{id}/features/{fid} [delete]
func (h *WorksheetHandler) DeleteFeature(c echo.Context) error {
	index, err := strconv.Atoi(c.Param("fid"))
	if err != nil || index < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid feature index")
	}

	if err := h.worksheets.DeleteFeature(c.Request().Context(), c.Param("id"), index); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

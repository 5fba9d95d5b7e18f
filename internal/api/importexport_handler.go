package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// ImportExportHandler handles collection export, import and status endpoints
type ImportExportHandler struct {
	service simplecms.Service
	logger  zerolog.Logger
}

// NewImportExportHandler creates a new import/export handler
func NewImportExportHandler(service simplecms.Service, logger zerolog.Logger) *ImportExportHandler {
	return &ImportExportHandler{service: service, logger: logger}
}

// Routes returns the import/export routes
func (h *ImportExportHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/export", h.ExportCollection)
	r.Post("/export-template", h.ExportTemplate)
	r.Post("/import", h.ImportCollection)
	r.Get("/status", h.Status)

	return r
}

// ExportCollectionRequest is the request body for exporting a collection
type ExportCollectionRequest struct {
	Collection string `json:"collection" validate:"required"`
	Status     string `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	Limit      int    `json:"limit,omitempty" validate:"omitempty,min=1"`
	Depth      int    `json:"depth,omitempty" validate:"omitempty,min=0"`
}

// ExportTemplateRequest is the request body for exporting a template with its
// dependent documents
type ExportTemplateRequest struct {
	TemplateID string `json:"templateId" validate:"required"`
}

// ImportCollectionRequest is the request body for importing an envelope
type ImportCollectionRequest struct {
	Data         simplecms.ExportEnvelope `json:"data"`
	Overwrite    bool                     `json:"overwrite,omitempty"`
	SkipExisting bool                     `json:"skipExisting,omitempty"`
}

// ExportCollection streams a collection snapshot as a JSON attachment
func (h *ImportExportHandler) ExportCollection(w http.ResponseWriter, r *http.Request) {
	var req ExportCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, r, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	exportReq := simplecms.ExportRequest{
		Collection: req.Collection,
		Limit:      req.Limit,
		Depth:      req.Depth,
	}
	if req.Status != "" {
		st := simplecms.Status(req.Status)
		exportReq.Status = &st
	}

	envelope, err := h.service.ExportCollection(r.Context(), exportReq)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	filename := simplecms.ExportFileName(envelope.Collection, envelope.Timestamp)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	render.JSON(w, r, envelope)
}

// ExportTemplate exports a template together with the documents bound to it
func (h *ImportExportHandler) ExportTemplate(w http.ResponseWriter, r *http.Request) {
	var req ExportTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, r, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	envelope, err := h.service.ExportTemplateWithRelated(r.Context(), req.TemplateID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	filename := simplecms.ExportFileName(envelope.Collection, envelope.Timestamp)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	render.JSON(w, r, envelope)
}

// ImportCollection merges an uploaded envelope into the target store and
// reports per-record outcomes
func (h *ImportExportHandler) ImportCollection(w http.ResponseWriter, r *http.Request) {
	var req ImportCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, r, "invalid request body")
		return
	}

	result, err := h.service.ImportCollection(r.Context(), simplecms.ImportRequest{
		Envelope:     req.Data,
		Overwrite:    req.Overwrite,
		SkipExisting: req.SkipExisting,
		Actor:        actorFrom(r),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info().
		Str("collection", req.Data.Collection).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Msg("import completed")

	render.JSON(w, r, result)
}

// Status reports per-collection record counts
func (h *ImportExportHandler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.CollectionStats(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, map[string]any{"collections": stats})
}

package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// DocumentHandler handles HTTP requests for one content collection. The same
// handler serves pages, components and collection documents; the collection
// name is fixed at construction.
type DocumentHandler struct {
	collection string
	service    simplecms.Service
	logger     zerolog.Logger
}

// NewDocumentHandler creates a handler bound to a content collection
func NewDocumentHandler(collection string, service simplecms.Service, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{collection: collection, service: service, logger: logger}
}

// Routes returns the routes for the collection
func (h *DocumentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateDocument)
	r.Get("/", h.ListDocuments)
	r.Get("/{id}", h.GetDocument)
	r.Get("/slug/{slug}", h.GetDocumentBySlug)
	r.Put("/{id}", h.UpdateDocument)
	r.Post("/{id}/archive", h.ArchiveDocument)
	r.Delete("/{id}", h.DeleteDocument)

	return r
}

// CreateDocumentRequest is the request body for creating a content document
type CreateDocumentRequest struct {
	Slug        string                      `json:"slug" validate:"required"`
	Template    string                      `json:"template" validate:"required"`
	Status      string                      `json:"status" validate:"omitempty,oneof=draft published archived"`
	VersionNote string                      `json:"versionNote,omitempty"`
	FieldValues []simplecms.FieldValueBlock `json:"fieldValues"`
}

// UpdateDocumentRequest is the request body for updating a content document
type UpdateDocumentRequest struct {
	Slug        *string                     `json:"slug,omitempty"`
	Template    *string                     `json:"template,omitempty"`
	Status      *string                     `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	VersionNote *string                     `json:"versionNote,omitempty"`
	FieldValues []simplecms.FieldValueBlock `json:"fieldValues,omitempty"`
}

// CreateDocument creates a content document bound to a published template
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, r, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	doc, err := h.service.CreateDocument(r.Context(), simplecms.CreateDocumentRequest{
		Collection:  h.collection,
		Slug:        req.Slug,
		TemplateID:  req.Template,
		FieldValues: req.FieldValues,
		Status:      simplecms.Status(req.Status),
		VersionNote: req.VersionNote,
		Actor:       actorFrom(r),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, doc)
}

// GetDocument retrieves a document by ID
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.GetDocument(r.Context(), h.collection, chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, doc)
}

// GetDocumentBySlug retrieves a document by its slug
func (h *DocumentHandler) GetDocumentBySlug(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.GetDocumentBySlug(r.Context(), h.collection, chi.URLParam(r, "slug"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, doc)
}

// ListDocuments lists documents, optionally filtered by status and template
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	req := simplecms.ListDocumentsRequest{Collection: h.collection}
	if v := r.URL.Query().Get("status"); v != "" {
		st := simplecms.Status(v)
		req.Status = &st
	}
	if v := r.URL.Query().Get("template"); v != "" {
		req.TemplateID = &v
	}

	docs, err := h.service.ListDocuments(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, docs)
}

// UpdateDocument updates a content document
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req UpdateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, r, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	update := simplecms.UpdateDocumentRequest{
		Collection:  h.collection,
		ID:          chi.URLParam(r, "id"),
		Slug:        req.Slug,
		TemplateID:  req.Template,
		FieldValues: req.FieldValues,
		VersionNote: req.VersionNote,
		Actor:       actorFrom(r),
	}
	if req.Status != nil {
		st := simplecms.Status(*req.Status)
		update.Status = &st
	}

	doc, err := h.service.UpdateDocument(r.Context(), update)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, doc)
}

// ArchiveDocument moves a document to archived status
func (h *DocumentHandler) ArchiveDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.ArchiveDocument(r.Context(), h.collection, chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, doc)
}

// DeleteDocument permanently removes a document
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteDocument(r.Context(), h.collection, chi.URLParam(r, "id"), actorFrom(r)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.NoContent(w, r)
}

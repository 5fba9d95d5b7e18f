package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// TemplateHandler handles HTTP requests for templates
type TemplateHandler struct {
	service simplecms.Service
	logger  zerolog.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(service simplecms.Service, logger zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{service: service, logger: logger}
}

// Routes returns the routes for templates
func (h *TemplateHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.CreateTemplate)
	r.Get("/", h.ListTemplates)
	r.Get("/{id}", h.GetTemplate)
	r.Put("/{id}", h.UpdateTemplate)
	r.Post("/{id}/publish", h.PublishTemplate)
	r.Post("/{id}/archive", h.ArchiveTemplate)
	r.Get("/{id}/contract", h.GetFieldContract)

	return r
}

// CreateTemplateRequest is the request body for defining a template
type CreateTemplateRequest struct {
	Slug         string                      `json:"slug" validate:"required"`
	TemplateType string                      `json:"templateType" validate:"required,oneof=page component collection"`
	Status       string                      `json:"status" validate:"omitempty,oneof=draft published archived"`
	Fields       []simplecms.FieldDefinition `json:"fields" validate:"required,min=1"`
}

// UpdateTemplateRequest is the request body for updating a template
type UpdateTemplateRequest struct {
	Slug   *string                     `json:"slug,omitempty"`
	Status *string                     `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	Fields []simplecms.FieldDefinition `json:"fields,omitempty"`
}

// CreateTemplate defines a new template
func (h *TemplateHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, r, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	template, err := h.service.CreateTemplate(r.Context(), simplecms.CreateTemplateRequest{
		Slug:         req.Slug,
		TemplateType: simplecms.TemplateType(req.TemplateType),
		Status:       simplecms.Status(req.Status),
		Fields:       req.Fields,
		Actor:        actorFrom(r),
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, template)
}

// GetTemplate retrieves a template by ID
func (h *TemplateHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.service.GetTemplate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, template)
}

// ListTemplates lists templates, optionally filtered by type and status
func (h *TemplateHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	req := simplecms.ListTemplatesRequest{}
	if v := r.URL.Query().Get("templateType"); v != "" {
		tt := simplecms.TemplateType(v)
		req.TemplateType = &tt
	}
	if v := r.URL.Query().Get("status"); v != "" {
		st := simplecms.Status(v)
		req.Status = &st
	}

	templates, err := h.service.ListTemplates(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, templates)
}

// UpdateTemplate updates a template
func (h *TemplateHandler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var req UpdateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, r, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondBadRequest(w, r, err.Error())
		return
	}

	update := simplecms.UpdateTemplateRequest{
		ID:     chi.URLParam(r, "id"),
		Slug:   req.Slug,
		Fields: req.Fields,
		Actor:  actorFrom(r),
	}
	if req.Status != nil {
		st := simplecms.Status(*req.Status)
		update.Status = &st
	}

	template, err := h.service.UpdateTemplate(r.Context(), update)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, template)
}

// PublishTemplate moves a draft template to published
func (h *TemplateHandler) PublishTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.service.PublishTemplate(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, template)
}

// ArchiveTemplate soft-retires a template
func (h *TemplateHandler) ArchiveTemplate(w http.ResponseWriter, r *http.Request) {
	template, err := h.service.ArchiveTemplate(r.Context(), chi.URLParam(r, "id"), actorFrom(r))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, template)
}

// GetFieldContract returns the field definitions a bound document must satisfy
func (h *TemplateHandler) GetFieldContract(w http.ResponseWriter, r *http.Request) {
	fields, err := h.service.ResolveFieldContract(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	render.JSON(w, r, fields)
}

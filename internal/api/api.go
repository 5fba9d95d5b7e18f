package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/tendant/simple-cms/pkg/simplecms"
)

// validate checks request DTO struct tags.
var validate = validator.New()

type contextKey string

const identityKey contextKey = "identity"

// IdentityFromHeaders extracts the acting identity placed in the request
// headers by an upstream auth layer. No policy lives here; absent headers
// mean an unauthenticated request.
func IdentityFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get("X-User-ID"); id != "" {
			actor := &simplecms.Identity{
				ID:   id,
				Role: r.Header.Get("X-User-Role"),
			}
			r = r.WithContext(context.WithValue(r.Context(), identityKey, actor))
		}
		next.ServeHTTP(w, r)
	})
}

// actorFrom returns the identity attached to the request, or nil.
func actorFrom(r *http.Request) *simplecms.Identity {
	actor, _ := r.Context().Value(identityKey).(*simplecms.Identity)
	return actor
}

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// respondError maps core errors onto HTTP status codes and writes a JSON
// error body. Binding failures carry every field problem in details.
func respondError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	status := http.StatusInternalServerError
	resp := ErrorResponse{Error: err.Error()}

	var verr *simplecms.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		resp.Error = "validation failed"
		for _, fe := range verr.Errors {
			resp.Details = append(resp.Details, fe.Error())
		}
	case errors.Is(err, simplecms.ErrTemplateNotFound),
		errors.Is(err, simplecms.ErrDocumentNotFound),
		errors.Is(err, simplecms.ErrUnknownCollection):
		status = http.StatusNotFound
	case errors.Is(err, simplecms.ErrRecordExists):
		status = http.StatusConflict
	case errors.Is(err, simplecms.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, simplecms.ErrInvalidEnvelopeFormat),
		errors.Is(err, simplecms.ErrTemplateNotPublished),
		errors.Is(err, simplecms.ErrTemplateTypeMismatch),
		errors.Is(err, simplecms.ErrDuplicateFieldName),
		errors.Is(err, simplecms.ErrEmptyFieldList),
		errors.Is(err, simplecms.ErrUnknownFieldType):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}

// respondBadRequest writes a 400 with the given message.
func respondBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, ErrorResponse{Error: msg})
}

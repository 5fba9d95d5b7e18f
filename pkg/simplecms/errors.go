package simplecms

import (
	"errors"
	"fmt"
	"strings"
)

// Error types
var (
	// ErrTemplateNotFound indicates a template was not found
	ErrTemplateNotFound = errors.New("template not found")

	// ErrTemplateNotPublished indicates a template is not in the published state
	ErrTemplateNotPublished = errors.New("template not published")

	// ErrTemplateTypeMismatch indicates a document referenced a template of the wrong type
	ErrTemplateTypeMismatch = errors.New("template type mismatch")

	// ErrDuplicateFieldName indicates two field definitions share a field name
	ErrDuplicateFieldName = errors.New("duplicate field name")

	// ErrEmptyFieldList indicates a template was defined without fields
	ErrEmptyFieldList = errors.New("empty field list")

	// ErrDocumentNotFound indicates a content document was not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrUnknownCollection indicates an unknown collection name
	ErrUnknownCollection = errors.New("unknown collection")

	// ErrUnknownFieldType indicates a field type tag outside the registry
	ErrUnknownFieldType = errors.New("unknown field type")

	// ErrUnknownField indicates a value block naming a field absent from the template
	ErrUnknownField = errors.New("unknown field")

	// ErrMissingRequiredField indicates a required field has no value block
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrShapeMismatch indicates a value whose runtime shape does not match its field type
	ErrShapeMismatch = errors.New("value shape mismatch")

	// ErrConstraintViolation indicates a well-shaped value outside its constraints
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrInvalidEnvelopeFormat indicates an import payload failing the structural check
	ErrInvalidEnvelopeFormat = errors.New("invalid envelope format")

	// ErrRecordExists indicates an import record conflicting with an existing one
	ErrRecordExists = errors.New("record already exists")

	// ErrAccessDenied indicates the access check rejected the operation
	ErrAccessDenied = errors.New("access denied")
)

// FieldError describes one validation failure for one field.
type FieldError struct {
	FieldName string
	Err       error
	Detail    string
}

func (e *FieldError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("field %q: %v: %s", e.FieldName, e.Err, e.Detail)
	}
	return fmt.Sprintf("field %q: %v", e.FieldName, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError aggregates every field failure found during one bind so a
// caller can report all problems in a single response.
type ValidationError struct {
	Errors []*FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, "; "))
}

// For returns the failures recorded for fieldName.
func (e *ValidationError) For(fieldName string) []*FieldError {
	var out []*FieldError
	for _, fe := range e.Errors {
		if fe.FieldName == fieldName {
			out = append(out, fe)
		}
	}
	return out
}

// Is reports whether any aggregated failure matches target, so callers can use
// errors.Is against the sentinel binding errors.
func (e *ValidationError) Is(target error) bool {
	for _, fe := range e.Errors {
		if errors.Is(fe, target) {
			return true
		}
	}
	return false
}

// TemplateError represents an error related to template operations
type TemplateError struct {
	TemplateID string
	Op         string
	Err        error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template operation %s failed for template %s: %v", e.Op, e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}

// DocumentError represents an error related to content document operations
type DocumentError struct {
	Collection string
	DocumentID string
	Op         string
	Err        error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document operation %s failed for %s/%s: %v", e.Op, e.Collection, e.DocumentID, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}

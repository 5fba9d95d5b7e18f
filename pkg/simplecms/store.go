package simplecms

import (
	"context"
	"encoding/json"
	"fmt"
)

// RawDocument is the wire-level record shape the document store deals in.
// Typed entities are converted to and from this shape at the store boundary.
type RawDocument = map[string]any

// FindFilter narrows a Find to records whose fields equal the given values.
// Status is split out because it is by far the most common filter.
type FindFilter struct {
	Status *Status
	Equals map[string]any
}

// StatusFilter builds a filter matching one lifecycle status.
func StatusFilter(s Status) FindFilter {
	return FindFilter{Status: &s}
}

// EqualsFilter builds a filter matching one field value.
func EqualsFilter(field string, value any) FindFilter {
	return FindFilter{Equals: map[string]any{field: value}}
}

// Matches reports whether doc satisfies the filter.
func (f FindFilter) Matches(doc RawDocument) bool {
	if f.Status != nil {
		if s, _ := doc["status"].(string); s != string(*f.Status) {
			return false
		}
	}
	for field, want := range f.Equals {
		if fmt.Sprint(doc[field]) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// FindOptions bounds a Find. Limit <= 0 falls back to the store default.
type FindOptions struct {
	Limit int
	Depth int
}

// FindResult is one page of matching records.
type FindResult struct {
	Docs        []RawDocument `json:"docs"`
	TotalDocs   int           `json:"totalDocs"`
	HasNextPage bool          `json:"hasNextPage"`
}

// DocumentStore is the narrow persistence contract the core consumes. A single
// Create or Update call is assumed atomic; the core never takes multi-record
// transactions across it.
type DocumentStore interface {
	Find(ctx context.Context, collection string, filter FindFilter, opts FindOptions) (FindResult, error)
	FindByID(ctx context.Context, collection, id string) (RawDocument, error)
	Create(ctx context.Context, collection string, data RawDocument) (RawDocument, error)
	Update(ctx context.Context, collection, id string, data RawDocument) (RawDocument, error)
	Delete(ctx context.Context, collection, id string) error
}

// ErrNotFound is returned by stores when a record does not exist.
// It aliases ErrDocumentNotFound so store implementations need no extra sentinel.
var ErrNotFound = ErrDocumentNotFound

// encodeRaw converts a typed entity into the store's record shape via its JSON
// representation, so the stored form matches the export wire format exactly.
func encodeRaw(v any) (RawDocument, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var raw RawDocument
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return raw, nil
}

// decodeRaw converts a store record back into a typed entity.
func decodeRaw(raw RawDocument, v any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// rawString reads a string field from a raw record, tolerating absence.
func rawString(doc RawDocument, key string) string {
	s, _ := doc[key].(string)
	return s
}

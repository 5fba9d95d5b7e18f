package simplecms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EnvelopeFormatVersion is written into every export envelope.
const EnvelopeFormatVersion = "1.0.0"

// DefaultExportLimit bounds an export when the caller does not set a limit,
// so a collection export is never an unbounded read.
const DefaultExportLimit = 1000

// DefaultExportDepth is the relationship resolution depth passed to the store.
const DefaultExportDepth = 2

// CollectionTemplateWithRelated marks the template-plus-dependents envelope
// variant.
const CollectionTemplateWithRelated = "template-with-related"

// ExportEnvelope is a versioned, timestamped snapshot of one collection's
// records, or of a template plus its dependents. Envelopes are created on
// demand, never mutated.
type ExportEnvelope struct {
	FormatVersion string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Collection    string          `json:"collection"`
	Data          json.RawMessage `json:"data"`
}

// TemplateWithRelated is the envelope body for the template-plus-dependents
// variant.
type TemplateWithRelated struct {
	Template RawDocument   `json:"template"`
	Related  []RawDocument `json:"related"`
}

// NewExportEnvelope wraps records with the format version, a fresh timestamp
// and the source collection name.
func NewExportEnvelope(collection string, records []RawDocument, now time.Time) (*ExportEnvelope, error) {
	if records == nil {
		records = []RawDocument{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal export data: %w", err)
	}
	return &ExportEnvelope{
		FormatVersion: EnvelopeFormatVersion,
		Timestamp:     now,
		Collection:    collection,
		Data:          data,
	}, nil
}

// Records decodes the envelope body as a record sequence.
func (e *ExportEnvelope) Records() ([]RawDocument, error) {
	var records []RawDocument
	if err := json.Unmarshal(e.Data, &records); err != nil {
		return nil, fmt.Errorf("%w: data is not a record sequence", ErrInvalidEnvelopeFormat)
	}
	return records, nil
}

// TemplateWithRelated decodes the envelope body as the template-plus-dependents
// variant.
func (e *ExportEnvelope) TemplateWithRelated() (*TemplateWithRelated, error) {
	var body TemplateWithRelated
	if err := json.Unmarshal(e.Data, &body); err != nil {
		return nil, fmt.Errorf("%w: data is not a template-with-related body", ErrInvalidEnvelopeFormat)
	}
	return &body, nil
}

// ValidateEnvelope performs the structural check the import engine requires
// before processing any record: version, timestamp and collection present,
// data a sequence.
func ValidateEnvelope(e *ExportEnvelope) error {
	if e == nil {
		return fmt.Errorf("%w: missing envelope", ErrInvalidEnvelopeFormat)
	}
	if e.FormatVersion == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidEnvelopeFormat)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidEnvelopeFormat)
	}
	if e.Collection == "" {
		return fmt.Errorf("%w: missing collection", ErrInvalidEnvelopeFormat)
	}
	if _, err := e.Records(); err != nil {
		return err
	}
	return nil
}

// ExportFileName generates the attachment filename for an envelope download:
// <collection>-export-<YYYY-MM-DD>-<HH-MM-SS>.json
func ExportFileName(collection string, ts time.Time) string {
	return fmt.Sprintf("%s-export-%s.json", collection, ts.Format("2006-01-02-15-04-05"))
}

// ExportCollection snapshots one collection into an envelope. The read is
// bounded: a missing limit falls back to DefaultExportLimit.
func (s *service) ExportCollection(ctx context.Context, req ExportRequest) (*ExportEnvelope, error) {
	if req.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.exportLimit
	}
	depth := req.Depth
	if depth <= 0 {
		depth = DefaultExportDepth
	}

	res, err := s.store.Find(ctx, req.Collection, FindFilter{Status: req.Status}, FindOptions{Limit: limit, Depth: depth})
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", req.Collection, err)
	}

	s.logger.Debug().
		Str("collection", req.Collection).
		Int("records", len(res.Docs)).
		Msg("collection exported")

	return NewExportEnvelope(req.Collection, res.Docs, s.clock.Now())
}

// ExportTemplateWithRelated snapshots a template together with every content
// document bound to it, branching on the template's type to pick the matching
// collection.
func (s *service) ExportTemplateWithRelated(ctx context.Context, templateID string) (*ExportEnvelope, error) {
	raw, err := s.store.FindByID(ctx, CollectionTemplates, templateID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
		}
		return nil, fmt.Errorf("export template %s: %w", templateID, err)
	}

	var related []RawDocument
	def, ok := CollectionForTemplateType(TemplateType(rawString(raw, "templateType")))
	if ok {
		res, err := s.store.Find(ctx, def.Name, EqualsFilter("template", templateID),
			FindOptions{Limit: s.exportLimit, Depth: DefaultExportDepth})
		if err != nil {
			return nil, fmt.Errorf("export template %s: %w", templateID, err)
		}
		related = res.Docs
	}
	if related == nil {
		related = []RawDocument{}
	}

	data, err := json.Marshal(TemplateWithRelated{Template: raw, Related: related})
	if err != nil {
		return nil, fmt.Errorf("export template %s: %w", templateID, err)
	}
	return &ExportEnvelope{
		FormatVersion: EnvelopeFormatVersion,
		Timestamp:     s.clock.Now(),
		Collection:    CollectionTemplateWithRelated,
		Data:          data,
	}, nil
}

// CollectionStats reports totals plus published/draft counts for the
// templates collection and every content collection.
func (s *service) CollectionStats(ctx context.Context) (map[string]CollectionStats, error) {
	collections := append([]string{CollectionTemplates}, collectionNames()...)
	stats := make(map[string]CollectionStats, len(collections))
	for _, name := range collections {
		total, err := s.countDocs(ctx, name, nil)
		if err != nil {
			s.logger.Warn().Str("collection", name).Err(err).Msg("stats lookup failed")
			continue
		}
		published, err := s.countDocs(ctx, name, statusPtr(StatusPublished))
		if err != nil {
			return nil, err
		}
		draft, err := s.countDocs(ctx, name, statusPtr(StatusDraft))
		if err != nil {
			return nil, err
		}
		stats[name] = CollectionStats{Total: total, Published: published, Draft: draft}
	}
	return stats, nil
}

func (s *service) countDocs(ctx context.Context, collection string, status *Status) (int, error) {
	res, err := s.store.Find(ctx, collection, FindFilter{Status: status}, FindOptions{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return res.TotalDocs, nil
}

func collectionNames() []string {
	names := make([]string, 0, len(contentCollections))
	for _, def := range contentCollections {
		names = append(names, def.Name)
	}
	return names
}

func statusPtr(s Status) *Status { return &s }

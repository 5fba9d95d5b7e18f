package simplecms

import (
	"context"
	"errors"
	"fmt"
)

// ImportResult aggregates the outcome of one import batch.
type ImportResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// ImportCollection merges an export envelope into the target store,
// reconciling by natural key (slug, falling back to id). Records are applied
// independently: one record's failure never aborts the batch, so a bulk
// import is partially successful and fully diagnosable instead of
// all-or-nothing. Consistency is record-level; a partially applied batch is
// an accepted outcome.
func (s *service) ImportCollection(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if err := ValidateEnvelope(&req.Envelope); err != nil {
		return nil, err
	}
	collection := req.Envelope.Collection
	if err := s.checkAccess(req.Actor, collection, ActionCreate); err != nil {
		return nil, err
	}
	records, err := req.Envelope.Records()
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	for _, record := range records {
		key := naturalKey(record)

		existing, err := s.findByNaturalKey(ctx, collection, record)
		if err != nil {
			s.recordFailure(result, collection, key, err)
			continue
		}

		if existing != nil {
			if req.SkipExisting {
				continue
			}
			if !req.Overwrite {
				result.Errors = append(result.Errors, fmt.Sprintf("%v: %s", ErrRecordExists, key))
				result.Failed++
				continue
			}
			data, err := s.prepareImportRecord(ctx, collection, record, false, req.Actor)
			if err != nil {
				s.recordFailure(result, collection, key, err)
				continue
			}
			if _, err := s.store.Update(ctx, collection, rawString(existing, "id"), data); err != nil {
				s.recordFailure(result, collection, key, err)
				continue
			}
			result.Success++
			continue
		}

		data, err := s.prepareImportRecord(ctx, collection, record, true, req.Actor)
		if err != nil {
			s.recordFailure(result, collection, key, err)
			continue
		}
		if _, err := s.store.Create(ctx, collection, data); err != nil {
			s.recordFailure(result, collection, key, err)
			continue
		}
		result.Success++
	}

	s.logger.Info().
		Str("collection", collection).
		Int("success", result.Success).
		Int("failed", result.Failed).
		Msg("import completed")

	return result, nil
}

func (s *service) recordFailure(result *ImportResult, collection, key string, err error) {
	s.logger.Warn().Str("collection", collection).Str("key", key).Err(err).Msg("import record failed")
	result.Errors = append(result.Errors, fmt.Sprintf("import failed for %s: %v", key, err))
	result.Failed++
}

// naturalKey returns the reconciliation key of a record: slug when present,
// otherwise id, otherwise empty (no key means the record always creates).
func naturalKey(record RawDocument) string {
	if slug := rawString(record, "slug"); slug != "" {
		return slug
	}
	return rawString(record, "id")
}

// findByNaturalKey looks up an existing record by slug (preferred) or id.
// A missing record is not an error; it signals the create path.
func (s *service) findByNaturalKey(ctx context.Context, collection string, record RawDocument) (RawDocument, error) {
	if slug := rawString(record, "slug"); slug != "" {
		res, err := s.store.Find(ctx, collection, EqualsFilter("slug", slug), FindOptions{Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(res.Docs) > 0 {
			return res.Docs[0], nil
		}
		return nil, nil
	}
	if id := rawString(record, "id"); id != "" {
		existing, err := s.store.FindByID(ctx, collection, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return existing, nil
	}
	return nil, nil
}

// prepareImportRecord re-validates an incoming record against this store's
// own template contracts and runs the write pipeline over it. The incoming id
// is always discarded; the destination assigns its own identity.
func (s *service) prepareImportRecord(ctx context.Context, collection string, record RawDocument, isCreate bool, actor *Identity) (RawDocument, error) {
	data := make(RawDocument, len(record))
	for k, v := range record {
		data[k] = v
	}
	delete(data, "id")

	now := s.clock.Now()

	if collection == CollectionTemplates {
		var template Template
		if err := decodeRaw(data, &template); err != nil {
			return nil, err
		}
		if err := ValidateFieldDefinitions(template.Fields); err != nil {
			return nil, err
		}
		if isCreate {
			template.CreatedAt = now
		}
		template.UpdatedAt = now
		draft := &WriteDraft{
			Collection: collection,
			IsCreate:   isCreate,
			Actor:      actor,
			Base:       &template.ContentBase,
			Template:   &template,
		}
		if err := s.hooks.executeBeforeWrite(ctx, draft); err != nil {
			return nil, err
		}
		return encodeRaw(&template)
	}

	if def, ok := ContentCollectionByName(collection); ok {
		var doc ContentDocument
		if err := decodeRaw(data, &doc); err != nil {
			return nil, err
		}
		// Re-validate against the destination's schema engine: the template
		// reference must resolve here, and the values must bind.
		template, err := s.bindableTemplate(ctx, doc.Template, def)
		if err != nil {
			return nil, err
		}
		values, err := BindDocument(template, doc.FieldValues)
		if err != nil {
			return nil, err
		}
		doc.FieldValues = values
		if isCreate {
			doc.CreatedAt = now
		}
		doc.UpdatedAt = now
		draft := &WriteDraft{
			Collection: collection,
			IsCreate:   isCreate,
			Actor:      actor,
			Base:       &doc.ContentBase,
			Document:   &doc,
		}
		if err := s.hooks.executeBeforeWrite(ctx, draft); err != nil {
			return nil, err
		}
		return encodeRaw(&doc)
	}

	// Unknown collections pass through untouched; the store is generic.
	return data, nil
}

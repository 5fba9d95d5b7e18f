package simplecms

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// service implements the Service interface
type service struct {
	store       DocumentStore
	clock       Clock
	hooks       *Hooks
	access      AccessCheck
	logger      zerolog.Logger
	exportLimit int
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithStore sets the document store for the service
func WithStore(store DocumentStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithClock sets the clock used for timestamps
func WithClock(clock Clock) Option {
	return func(s *service) {
		s.clock = clock
	}
}

// WithHooks replaces the default lifecycle hook pipeline
func WithHooks(hooks *Hooks) Option {
	return func(s *service) {
		s.hooks = hooks
	}
}

// WithAccessCheck sets the access check consulted on mutations
func WithAccessCheck(check AccessCheck) Option {
	return func(s *service) {
		s.access = check
	}
}

// WithLogger sets the logger used for import/export progress
func WithLogger(logger zerolog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithExportLimit overrides the default record bound for exports
func WithExportLimit(limit int) Option {
	return func(s *service) {
		if limit > 0 {
			s.exportLimit = limit
		}
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		clock:       SystemClock(),
		access:      AllowAll,
		logger:      zerolog.Nop(),
		exportLimit: DefaultExportLimit,
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("document store is required")
	}
	if s.hooks == nil {
		s.hooks = DefaultHooks(s.clock)
	}

	return s, nil
}

func (s *service) checkAccess(actor *Identity, collection string, action Action) error {
	if s.access != nil && !s.access(actor, collection, action) {
		return fmt.Errorf("%w: %s on %s", ErrAccessDenied, action, collection)
	}
	return nil
}

// Template operations

func (s *service) CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error) {
	if err := s.checkAccess(req.Actor, CollectionTemplates, ActionCreate); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	switch req.TemplateType {
	case TemplateTypePage, TemplateTypeComponent, TemplateTypeCollection:
	default:
		return nil, fmt.Errorf("invalid template type: %s", req.TemplateType)
	}
	if err := ValidateFieldDefinitions(req.Fields); err != nil {
		return nil, err
	}

	slug := Slugify(req.Slug)
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	if err := s.ensureSlugFree(ctx, CollectionTemplates, slug, ""); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	template := &Template{
		ContentBase: ContentBase{
			ID:        uuid.NewString(),
			Slug:      slug,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		},
		TemplateType: req.TemplateType,
		Fields:       req.Fields,
		Version:      1,
	}

	if err := s.writeTemplate(ctx, template, true, req.Actor); err != nil {
		return nil, err
	}
	return template, nil
}

func (s *service) GetTemplate(ctx context.Context, id string) (*Template, error) {
	raw, err := s.store.FindByID(ctx, CollectionTemplates, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return nil, &TemplateError{TemplateID: id, Op: "get", Err: err}
	}
	var template Template
	if err := decodeRaw(raw, &template); err != nil {
		return nil, &TemplateError{TemplateID: id, Op: "get", Err: err}
	}
	return &template, nil
}

func (s *service) GetTemplateBySlug(ctx context.Context, slug string) (*Template, error) {
	res, err := s.store.Find(ctx, CollectionTemplates, EqualsFilter("slug", slug), FindOptions{Limit: 1})
	if err != nil {
		return nil, &TemplateError{TemplateID: slug, Op: "get_by_slug", Err: err}
	}
	if len(res.Docs) == 0 {
		return nil, fmt.Errorf("%w: slug %s", ErrTemplateNotFound, slug)
	}
	var template Template
	if err := decodeRaw(res.Docs[0], &template); err != nil {
		return nil, &TemplateError{TemplateID: slug, Op: "get_by_slug", Err: err}
	}
	return &template, nil
}

func (s *service) UpdateTemplate(ctx context.Context, req UpdateTemplateRequest) (*Template, error) {
	if err := s.checkAccess(req.Actor, CollectionTemplates, ActionUpdate); err != nil {
		return nil, err
	}

	template, err := s.GetTemplate(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Slug != nil {
		slug := Slugify(*req.Slug)
		if slug == "" {
			return nil, fmt.Errorf("slug is required")
		}
		if slug != template.Slug {
			if err := s.ensureSlugFree(ctx, CollectionTemplates, slug, template.ID); err != nil {
				return nil, err
			}
			template.Slug = slug
		}
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("invalid status: %s", *req.Status)
		}
		template.Status = *req.Status
	}
	if req.Fields != nil {
		if err := ValidateFieldDefinitions(req.Fields); err != nil {
			return nil, err
		}
		template.Fields = req.Fields
	}

	template.UpdatedAt = s.clock.Now()
	if err := s.writeTemplate(ctx, template, false, req.Actor); err != nil {
		return nil, err
	}
	return template, nil
}

// PublishTemplate moves a draft template to published. Publishing an already
// published template is a no-op; an archived template cannot be published.
func (s *service) PublishTemplate(ctx context.Context, id string, actor *Identity) (*Template, error) {
	template, err := s.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if template.Status == StatusPublished {
		return template, nil
	}
	if template.Status != StatusDraft {
		return nil, fmt.Errorf("%w: cannot publish template in status %s", ErrTemplateNotPublished, template.Status)
	}
	status := StatusPublished
	return s.UpdateTemplate(ctx, UpdateTemplateRequest{ID: id, Status: &status, Actor: actor})
}

func (s *service) ArchiveTemplate(ctx context.Context, id string, actor *Identity) (*Template, error) {
	status := StatusArchived
	return s.UpdateTemplate(ctx, UpdateTemplateRequest{ID: id, Status: &status, Actor: actor})
}

func (s *service) ListTemplates(ctx context.Context, req ListTemplatesRequest) ([]*Template, error) {
	filter := FindFilter{Status: req.Status}
	if req.TemplateType != nil {
		filter.Equals = map[string]any{"templateType": string(*req.TemplateType)}
	}
	res, err := s.store.Find(ctx, CollectionTemplates, filter, FindOptions{Limit: req.Limit})
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	templates := make([]*Template, 0, len(res.Docs))
	for _, raw := range res.Docs {
		var template Template
		if err := decodeRaw(raw, &template); err != nil {
			return nil, fmt.Errorf("list templates: %w", err)
		}
		templates = append(templates, &template)
	}
	return templates, nil
}

// ResolveFieldContract reads the template fresh from the store and returns
// its field contract. A template that is not published fails here, so a
// template edit takes effect on the very next bind.
func (s *service) ResolveFieldContract(ctx context.Context, templateID string) ([]FieldDefinition, error) {
	template, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return FieldContract(template, true)
}

// writeTemplate runs the hook pipeline and persists the template.
func (s *service) writeTemplate(ctx context.Context, template *Template, isCreate bool, actor *Identity) error {
	op := "update"
	if isCreate {
		op = "create"
	}
	draft := &WriteDraft{
		Collection: CollectionTemplates,
		IsCreate:   isCreate,
		Actor:      actor,
		Base:       &template.ContentBase,
		Template:   template,
	}
	if err := s.hooks.executeBeforeWrite(ctx, draft); err != nil {
		s.hooks.executeOnError(ctx, "template_"+op, err)
		return &TemplateError{TemplateID: template.ID, Op: op, Err: err}
	}

	raw, err := encodeRaw(template)
	if err != nil {
		return &TemplateError{TemplateID: template.ID, Op: op, Err: err}
	}
	if isCreate {
		_, err = s.store.Create(ctx, CollectionTemplates, raw)
	} else {
		_, err = s.store.Update(ctx, CollectionTemplates, template.ID, raw)
	}
	if err != nil {
		s.hooks.executeOnError(ctx, "template_"+op, err)
		return &TemplateError{TemplateID: template.ID, Op: op, Err: err}
	}

	if err := s.hooks.executeAfterWrite(ctx, draft); err != nil {
		return &TemplateError{TemplateID: template.ID, Op: op, Err: err}
	}
	return nil
}

// Content document operations

func (s *service) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*ContentDocument, error) {
	def, ok := ContentCollectionByName(req.Collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, req.Collection)
	}
	if err := s.checkAccess(req.Actor, req.Collection, ActionCreate); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	slug := Slugify(req.Slug)
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	if err := s.ensureSlugFree(ctx, req.Collection, slug, ""); err != nil {
		return nil, err
	}

	template, err := s.bindableTemplate(ctx, req.TemplateID, def)
	if err != nil {
		return nil, err
	}
	values, err := BindDocument(template, req.FieldValues)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	doc := &ContentDocument{
		ContentBase: ContentBase{
			ID:        uuid.NewString(),
			Slug:      slug,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Template:    template.ID,
		FieldValues: values,
		VersionNote: req.VersionNote,
	}

	if err := s.writeDocument(ctx, req.Collection, doc, true, req.Actor); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *service) GetDocument(ctx context.Context, collection, id string) (*ContentDocument, error) {
	if _, ok := ContentCollectionByName(collection); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	raw, err := s.store.FindByID(ctx, collection, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
		}
		return nil, &DocumentError{Collection: collection, DocumentID: id, Op: "get", Err: err}
	}
	var doc ContentDocument
	if err := decodeRaw(raw, &doc); err != nil {
		return nil, &DocumentError{Collection: collection, DocumentID: id, Op: "get", Err: err}
	}
	return &doc, nil
}

func (s *service) GetDocumentBySlug(ctx context.Context, collection, slug string) (*ContentDocument, error) {
	if _, ok := ContentCollectionByName(collection); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	res, err := s.store.Find(ctx, collection, EqualsFilter("slug", slug), FindOptions{Limit: 1})
	if err != nil {
		return nil, &DocumentError{Collection: collection, DocumentID: slug, Op: "get_by_slug", Err: err}
	}
	if len(res.Docs) == 0 {
		return nil, fmt.Errorf("%w: %s slug %s", ErrDocumentNotFound, collection, slug)
	}
	var doc ContentDocument
	if err := decodeRaw(res.Docs[0], &doc); err != nil {
		return nil, &DocumentError{Collection: collection, DocumentID: slug, Op: "get_by_slug", Err: err}
	}
	return &doc, nil
}

func (s *service) UpdateDocument(ctx context.Context, req UpdateDocumentRequest) (*ContentDocument, error) {
	def, ok := ContentCollectionByName(req.Collection)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, req.Collection)
	}
	if err := s.checkAccess(req.Actor, req.Collection, ActionUpdate); err != nil {
		return nil, err
	}

	doc, err := s.GetDocument(ctx, req.Collection, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Slug != nil {
		slug := Slugify(*req.Slug)
		if slug == "" {
			return nil, fmt.Errorf("slug is required")
		}
		if slug != doc.Slug {
			if err := s.ensureSlugFree(ctx, req.Collection, slug, doc.ID); err != nil {
				return nil, err
			}
			doc.Slug = slug
		}
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, fmt.Errorf("invalid status: %s", *req.Status)
		}
		doc.Status = *req.Status
	}
	if req.TemplateID != nil {
		doc.Template = *req.TemplateID
	}
	if req.VersionNote != nil {
		doc.VersionNote = *req.VersionNote
	}

	// Re-resolve the contract fresh and re-bind whenever the values or the
	// template reference change.
	if req.FieldValues != nil || req.TemplateID != nil {
		template, err := s.bindableTemplate(ctx, doc.Template, def)
		if err != nil {
			return nil, err
		}
		proposed := req.FieldValues
		if proposed == nil {
			proposed = doc.FieldValues
		}
		values, err := BindDocument(template, proposed)
		if err != nil {
			return nil, err
		}
		doc.FieldValues = values
	}

	doc.UpdatedAt = s.clock.Now()
	if err := s.writeDocument(ctx, req.Collection, doc, false, req.Actor); err != nil {
		return nil, err
	}
	return doc, nil
}

// ArchiveDocument soft-retires a document by status transition. Nothing is
// deleted.
func (s *service) ArchiveDocument(ctx context.Context, collection, id string, actor *Identity) (*ContentDocument, error) {
	status := StatusArchived
	return s.UpdateDocument(ctx, UpdateDocumentRequest{
		Collection: collection,
		ID:         id,
		Status:     &status,
		Actor:      actor,
	})
}

// DeleteDocument removes a document outright. Archive is the normal
// retirement path; delete is a distinct, access-gated operation.
func (s *service) DeleteDocument(ctx context.Context, collection, id string, actor *Identity) error {
	if _, ok := ContentCollectionByName(collection); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if err := s.checkAccess(actor, collection, ActionDelete); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, collection, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrDocumentNotFound, collection, id)
		}
		return &DocumentError{Collection: collection, DocumentID: id, Op: "delete", Err: err}
	}
	return nil
}

func (s *service) ListDocuments(ctx context.Context, req ListDocumentsRequest) ([]*ContentDocument, error) {
	if _, ok := ContentCollectionByName(req.Collection); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, req.Collection)
	}
	filter := FindFilter{Status: req.Status}
	if req.TemplateID != nil {
		filter.Equals = map[string]any{"template": *req.TemplateID}
	}
	res, err := s.store.Find(ctx, req.Collection, filter, FindOptions{Limit: req.Limit})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", req.Collection, err)
	}
	docs := make([]*ContentDocument, 0, len(res.Docs))
	for _, raw := range res.Docs {
		var doc ContentDocument
		if err := decodeRaw(raw, &doc); err != nil {
			return nil, fmt.Errorf("list %s: %w", req.Collection, err)
		}
		docs = append(docs, &doc)
	}
	return docs, nil
}

// bindableTemplate resolves a template reference for a document of the given
// collection: the template must exist, be published, and match the
// collection's template type.
func (s *service) bindableTemplate(ctx context.Context, templateID string, def CollectionDef) (*Template, error) {
	if templateID == "" {
		return nil, fmt.Errorf("%w: document requires a template reference", ErrTemplateNotFound)
	}
	template, err := s.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := FieldContract(template, true); err != nil {
		return nil, err
	}
	if template.TemplateType != def.TemplateType {
		return nil, fmt.Errorf("%w: template %s is %s, %s requires %s",
			ErrTemplateTypeMismatch, template.Slug, template.TemplateType, def.Name, def.TemplateType)
	}
	return template, nil
}

// writeDocument runs the hook pipeline and persists the document.
func (s *service) writeDocument(ctx context.Context, collection string, doc *ContentDocument, isCreate bool, actor *Identity) error {
	op := "update"
	if isCreate {
		op = "create"
	}
	draft := &WriteDraft{
		Collection: collection,
		IsCreate:   isCreate,
		Actor:      actor,
		Base:       &doc.ContentBase,
		Document:   doc,
	}
	if err := s.hooks.executeBeforeWrite(ctx, draft); err != nil {
		s.hooks.executeOnError(ctx, "document_"+op, err)
		return &DocumentError{Collection: collection, DocumentID: doc.ID, Op: op, Err: err}
	}

	raw, err := encodeRaw(doc)
	if err != nil {
		return &DocumentError{Collection: collection, DocumentID: doc.ID, Op: op, Err: err}
	}
	if isCreate {
		_, err = s.store.Create(ctx, collection, raw)
	} else {
		_, err = s.store.Update(ctx, collection, doc.ID, raw)
	}
	if err != nil {
		s.hooks.executeOnError(ctx, "document_"+op, err)
		return &DocumentError{Collection: collection, DocumentID: doc.ID, Op: op, Err: err}
	}

	if err := s.hooks.executeAfterWrite(ctx, draft); err != nil {
		return &DocumentError{Collection: collection, DocumentID: doc.ID, Op: op, Err: err}
	}
	return nil
}

// ensureSlugFree enforces slug uniqueness within one collection. excludeID
// skips the record being updated.
func (s *service) ensureSlugFree(ctx context.Context, collection, slug, excludeID string) error {
	res, err := s.store.Find(ctx, collection, EqualsFilter("slug", slug), FindOptions{Limit: 1})
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	for _, doc := range res.Docs {
		if rawString(doc, "id") != excludeID {
			return fmt.Errorf("%w: slug %q in %s", ErrRecordExists, slug, collection)
		}
	}
	return nil
}

package simplecms

import (
	"context"
)

// Service defines the main interface for the simple-cms library.
type Service interface {
	// Template operations
	CreateTemplate(ctx context.Context, req CreateTemplateRequest) (*Template, error)
	GetTemplate(ctx context.Context, id string) (*Template, error)
	GetTemplateBySlug(ctx context.Context, slug string) (*Template, error)
	UpdateTemplate(ctx context.Context, req UpdateTemplateRequest) (*Template, error)
	PublishTemplate(ctx context.Context, id string, actor *Identity) (*Template, error)
	ArchiveTemplate(ctx context.Context, id string, actor *Identity) (*Template, error)
	ListTemplates(ctx context.Context, req ListTemplatesRequest) ([]*Template, error)

	// ResolveFieldContract returns the ordered field definitions a bound
	// document must satisfy. Read fresh for every bind; never cached across a
	// request boundary.
	ResolveFieldContract(ctx context.Context, templateID string) ([]FieldDefinition, error)

	// Content document operations
	CreateDocument(ctx context.Context, req CreateDocumentRequest) (*ContentDocument, error)
	GetDocument(ctx context.Context, collection, id string) (*ContentDocument, error)
	GetDocumentBySlug(ctx context.Context, collection, slug string) (*ContentDocument, error)
	UpdateDocument(ctx context.Context, req UpdateDocumentRequest) (*ContentDocument, error)
	ArchiveDocument(ctx context.Context, collection, id string, actor *Identity) (*ContentDocument, error)
	DeleteDocument(ctx context.Context, collection, id string, actor *Identity) error
	ListDocuments(ctx context.Context, req ListDocumentsRequest) ([]*ContentDocument, error)

	// Export/import operations
	ExportCollection(ctx context.Context, req ExportRequest) (*ExportEnvelope, error)
	ExportTemplateWithRelated(ctx context.Context, templateID string) (*ExportEnvelope, error)
	ImportCollection(ctx context.Context, req ImportRequest) (*ImportResult, error)
	CollectionStats(ctx context.Context) (map[string]CollectionStats, error)
}

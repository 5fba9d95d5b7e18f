package simplecms

// Request/Response DTOs

// CreateTemplateRequest contains parameters for defining a new template.
type CreateTemplateRequest struct {
	Slug         string
	TemplateType TemplateType
	Fields       []FieldDefinition
	Status       Status // defaults to draft
	Actor        *Identity
}

// UpdateTemplateRequest contains parameters for updating a template.
// Nil pointer fields are left unchanged.
type UpdateTemplateRequest struct {
	ID     string
	Slug   *string
	Status *Status
	Fields []FieldDefinition // nil leaves the field list unchanged
	Actor  *Identity
}

// ListTemplatesRequest contains parameters for listing templates.
type ListTemplatesRequest struct {
	TemplateType *TemplateType
	Status       *Status
	Limit        int
}

// CreateDocumentRequest contains parameters for creating a content document.
type CreateDocumentRequest struct {
	Collection  string
	Slug        string
	TemplateID  string
	FieldValues []FieldValueBlock
	Status      Status // defaults to draft
	VersionNote string
	Actor       *Identity
}

// UpdateDocumentRequest contains parameters for updating a content document.
// Nil pointer fields are left unchanged.
type UpdateDocumentRequest struct {
	Collection  string
	ID          string
	Slug        *string
	Status      *Status
	TemplateID  *string
	FieldValues []FieldValueBlock // nil leaves values unchanged
	VersionNote *string
	Actor       *Identity
}

// ListDocumentsRequest contains parameters for listing content documents.
type ListDocumentsRequest struct {
	Collection string
	Status     *Status
	TemplateID *string
	Limit      int
}

// ExportRequest contains parameters for exporting one collection.
type ExportRequest struct {
	Collection string
	Status     *Status
	Limit      int // 0 falls back to DefaultExportLimit
	Depth      int
}

// ImportRequest contains an envelope plus the conflict policy for merging it
// into the target store.
type ImportRequest struct {
	Envelope     ExportEnvelope
	Overwrite    bool
	SkipExisting bool
	Actor        *Identity
}

// CollectionStats summarizes one collection for the import/export status view.
type CollectionStats struct {
	Total     int `json:"total"`
	Published int `json:"published"`
	Draft     int `json:"draft"`
}

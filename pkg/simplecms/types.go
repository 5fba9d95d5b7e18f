package simplecms

import (
	"time"
)

// Status is the domain type for content lifecycle states.
type Status string

// Content status constants (typed).
const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// TemplateType partitions templates by the kind of content that may bind them.
type TemplateType string

// Template type constants (typed).
const (
	TemplateTypePage       TemplateType = "page"
	TemplateTypeComponent  TemplateType = "component"
	TemplateTypeCollection TemplateType = "collection"
)

// Collection name constants. Three content collections share one shape; the
// templates collection holds the field contracts they bind to.
const (
	CollectionTemplates   = "templates"
	CollectionPages       = "pages"
	CollectionComponents  = "components"
	CollectionCollections = "collections"
)

// CollectionDef describes one content collection and the template type its
// documents must bind. The three content collections are variations of the
// same generic definition rather than three copies.
type CollectionDef struct {
	Name         string
	TemplateType TemplateType
}

var contentCollections = []CollectionDef{
	{Name: CollectionPages, TemplateType: TemplateTypePage},
	{Name: CollectionComponents, TemplateType: TemplateTypeComponent},
	{Name: CollectionCollections, TemplateType: TemplateTypeCollection},
}

// ContentCollections returns the content collection definitions in a stable order.
func ContentCollections() []CollectionDef {
	defs := make([]CollectionDef, len(contentCollections))
	copy(defs, contentCollections)
	return defs
}

// ContentCollectionByName returns the definition for a content collection name.
func ContentCollectionByName(name string) (CollectionDef, bool) {
	for _, def := range contentCollections {
		if def.Name == name {
			return def, true
		}
	}
	return CollectionDef{}, false
}

// CollectionForTemplateType returns the content collection whose documents
// bind templates of the given type.
func CollectionForTemplateType(tt TemplateType) (CollectionDef, bool) {
	for _, def := range contentCollections {
		if def.TemplateType == tt {
			return def, true
		}
	}
	return CollectionDef{}, false
}

// LocalizedString holds per-locale variants of a display string, keyed by
// locale code. A plain string is represented as a single entry under the
// default locale.
type LocalizedString map[string]string

// Get returns the value for locale, falling back to fallback, then to any
// entry, then to the empty string.
func (l LocalizedString) Get(locale, fallback string) string {
	if v, ok := l[locale]; ok {
		return v
	}
	if v, ok := l[fallback]; ok {
		return v
	}
	for _, v := range l {
		return v
	}
	return ""
}

// Role constants for the identity contract.
const (
	RoleAdmin = "admin"
	RoleVIP   = "vip"
	RoleUser  = "user"
)

// Identity describes the acting user. A nil *Identity means unauthenticated.
type Identity struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Action names a mutation class for access checks.
type Action string

// Action constants.
const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// AccessCheck decides whether actor may perform action on collection. Policy
// details live outside this module; the core only consults the verdict.
type AccessCheck func(actor *Identity, collection string, action Action) bool

// AllowAll is the default access check.
func AllowAll(*Identity, string, Action) bool { return true }

// Clock provides the current time. Injected so hooks and exports are
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by time.Now in UTC.
func SystemClock() Clock { return systemClock{} }

// MediaRef references an entry in the media library by identifier. Blob
// storage itself lives outside this module.
type MediaRef string

// ContentBase carries the sidebar fields shared by templates and content
// documents. The lifecycle hook pipeline operates on this shared shape.
type ContentBase struct {
	ID          string     `json:"id,omitempty"`
	Slug        string     `json:"slug"`
	Status      Status     `json:"status"`
	Author      string     `json:"author,omitempty"`
	UpdatedBy   string     `json:"updatedBy,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
	UpdatedAt   time.Time  `json:"updatedAt,omitempty"`
}

// Template is an ordered, named set of field definitions that content
// documents bind to. Field order is significant: it defines rendering and
// storage order for bound documents.
type Template struct {
	ContentBase

	TemplateType TemplateType      `json:"templateType"`
	Fields       []FieldDefinition `json:"fields"`
	Version      int               `json:"version,omitempty"`
}

// FieldDefinition is a single named, typed slot within a template.
type FieldDefinition struct {
	FieldType   FieldType        `json:"fieldType"`
	FieldName   string           `json:"fieldName"`
	Label       LocalizedString  `json:"fieldLabel,omitempty"`
	Required    bool             `json:"required,omitempty"`
	Localized   bool             `json:"localized,omitempty"`
	Constraints FieldConstraints `json:"constraints,omitempty"`
}

// FieldConstraints carries the type-specific validation configuration for one
// field definition. Only the entries relevant to the field's type are
// consulted; the rest are ignored.
type FieldConstraints struct {
	DefaultValue string          `json:"defaultValue,omitempty"`
	Placeholder  LocalizedString `json:"placeholder,omitempty"`
	Description  LocalizedString `json:"description,omitempty"`

	// Text-like fields.
	MinLength *int `json:"minLength,omitempty"`
	MaxLength *int `json:"maxLength,omitempty"`

	// Numeric fields.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// Select and radio-group fields.
	Options  []SelectOption `json:"options,omitempty"`
	Multiple bool           `json:"multiple,omitempty"`

	// File and image fields.
	Accept string `json:"accept,omitempty"`

	// Date fields.
	MinDate *time.Time `json:"minDate,omitempty"`
	MaxDate *time.Time `json:"maxDate,omitempty"`

	// Conditional requiredness evaluated against the sibling values of the
	// same document, independent of any admin-UI visibility rule.
	RequiredWhen *RequiredWhen `json:"requiredWhen,omitempty"`
}

// SelectOption is one selectable choice for select/radioGroup fields.
type SelectOption struct {
	Label LocalizedString `json:"label,omitempty"`
	Value string          `json:"value"`
}

// RequiredWhen makes a field required when a sibling field holds one of the
// listed values (e.g. answerMedia required only when answerType is image or
// video).
type RequiredWhen struct {
	Field  string   `json:"field"`
	Equals []string `json:"equals"`
}

// ContentDocument is a persisted page, component, or collection item bound to
// exactly one published template of the matching type.
type ContentDocument struct {
	ContentBase

	Template    string            `json:"template"`
	FieldValues []FieldValueBlock `json:"fieldValues,omitempty"`
	VersionNote string            `json:"versionNote,omitempty"`
}

// FieldValueBlock is the tagged value payload for one field within a content
// document. Value holds the canonical shape for the block's FieldType after a
// successful bind; before binding it may hold the raw decoded JSON form.
type FieldValueBlock struct {
	FieldName string    `json:"fieldName"`
	FieldType FieldType `json:"fieldType"`
	Value     any       `json:"value"`
}

// GalleryItem is one entry of a gallery field value.
type GalleryItem struct {
	Image   MediaRef `json:"image"`
	Caption string   `json:"caption,omitempty"`
}

// TableValue is the canonical shape of a table field value.
type TableValue struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// StatItem is one entry of a stats field value.
type StatItem struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit,omitempty"`
}

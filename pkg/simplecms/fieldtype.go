package simplecms

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// FieldType tags the value shape of one template field. The set is closed for
// a deployment; adding a type means adding a tag plus a validator here.
type FieldType string

// Field type constants (typed).
const (
	FieldTypeText       FieldType = "text"
	FieldTypeTextarea   FieldType = "textarea"
	FieldTypeRichText   FieldType = "richText"
	FieldTypeNumber     FieldType = "number"
	FieldTypeEmail      FieldType = "email"
	FieldTypeDate       FieldType = "date"
	FieldTypeSelect     FieldType = "select"
	FieldTypeCheckbox   FieldType = "checkbox"
	FieldTypeRadioGroup FieldType = "radioGroup"
	FieldTypeFile       FieldType = "file"
	FieldTypeImage      FieldType = "image"
	FieldTypeGallery    FieldType = "gallery"
	FieldTypeTable      FieldType = "table"
	FieldTypeList       FieldType = "list"
	FieldTypeStats      FieldType = "stats"
)

// fieldTypeSpec describes one registry entry: whether the type carries
// translatable text and how to validate and normalize a proposed value.
// Validators are pure; they return the canonical value shape on success.
type fieldTypeSpec struct {
	localizable bool
	validate    func(def FieldDefinition, value any) (any, error)
}

var fieldTypeRegistry = map[FieldType]fieldTypeSpec{
	FieldTypeText:       {localizable: true, validate: validateText},
	FieldTypeTextarea:   {localizable: true, validate: validateText},
	FieldTypeRichText:   {localizable: true, validate: validateRichText},
	FieldTypeNumber:     {validate: validateNumber},
	FieldTypeEmail:      {validate: validateEmail},
	FieldTypeDate:       {validate: validateDate},
	FieldTypeSelect:     {validate: validateSelect},
	FieldTypeCheckbox:   {validate: validateCheckbox},
	FieldTypeRadioGroup: {validate: validateRadioGroup},
	FieldTypeFile:       {validate: validateMedia},
	FieldTypeImage:      {validate: validateMedia},
	FieldTypeGallery:    {validate: validateGallery},
	FieldTypeTable:      {validate: validateTable},
	FieldTypeList:       {validate: validateList},
	FieldTypeStats:      {validate: validateStats},
}

// KnownFieldType reports whether ft is part of the registry.
func KnownFieldType(ft FieldType) bool {
	_, ok := fieldTypeRegistry[ft]
	return ok
}

// Localizable reports whether values of ft carry translatable text.
func Localizable(ft FieldType) bool {
	return fieldTypeRegistry[ft].localizable
}

// ValidateFieldValue checks value against def's type contract and constraints
// and returns the canonical value shape. Validating an already-canonical value
// returns it unchanged.
func ValidateFieldValue(def FieldDefinition, value any) (any, error) {
	spec, ok := fieldTypeRegistry[def.FieldType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFieldType, def.FieldType)
	}
	return spec.validate(def, value)
}

// requiredForValues reports whether def must have a value given the full set
// of sibling values in the same document. Conditional requiredness is a data
// rule, not a UI visibility rule.
func requiredForValues(def FieldDefinition, siblings map[string]any) bool {
	if def.Required {
		return true
	}
	rw := def.Constraints.RequiredWhen
	if rw == nil || rw.Field == "" {
		return false
	}
	actual, ok := siblings[rw.Field]
	if !ok {
		return false
	}
	for _, want := range rw.Equals {
		if fmt.Sprint(actual) == want {
			return true
		}
	}
	return false
}

// reshape converts value into T through its JSON form, accepting both the raw
// decoded form (maps, []any) and an already-typed value.
func reshape[T any](value any) (T, error) {
	var out T
	b, err := json.Marshal(value)
	if err != nil {
		return out, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	if err := dec.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func shapeErr(def FieldDefinition, want string, got any) error {
	return fmt.Errorf("%w: %s expects %s, got %T", ErrShapeMismatch, def.FieldType, want, got)
}

func constraintErr(constraint string, actual any) error {
	return fmt.Errorf("%w: %s (actual: %v)", ErrConstraintViolation, constraint, actual)
}

func validateText(def FieldDefinition, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, shapeErr(def, "string", value)
	}
	c := def.Constraints
	if c.MinLength != nil && len([]rune(s)) < *c.MinLength {
		return nil, constraintErr(fmt.Sprintf("minLength %d", *c.MinLength), len([]rune(s)))
	}
	if c.MaxLength != nil && len([]rune(s)) > *c.MaxLength {
		return nil, constraintErr(fmt.Sprintf("maxLength %d", *c.MaxLength), len([]rune(s)))
	}
	return s, nil
}

// Rich-text payloads are carried as opaque serialized strings; the document
// format itself is out of scope.
func validateRichText(def FieldDefinition, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, shapeErr(def, "string", value)
	}
	return s, nil
}

func validateNumber(def FieldDefinition, value any) (any, error) {
	var n float64
	switch v := value.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return nil, shapeErr(def, "number", value)
		}
		n = f
	default:
		return nil, shapeErr(def, "number", value)
	}
	c := def.Constraints
	if c.Min != nil && n < *c.Min {
		return nil, constraintErr(fmt.Sprintf("min %v", *c.Min), n)
	}
	if c.Max != nil && n > *c.Max {
		return nil, constraintErr(fmt.Sprintf("max %v", *c.Max), n)
	}
	return n, nil
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func validateEmail(def FieldDefinition, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, shapeErr(def, "string", value)
	}
	if !emailPattern.MatchString(s) {
		return nil, constraintErr("email format", s)
	}
	return s, nil
}

// Dates are carried as strings and normalized to RFC 3339 so repeated binds
// produce identical output.
func validateDate(def FieldDefinition, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, shapeErr(def, "date string", value)
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil, constraintErr("RFC 3339 or YYYY-MM-DD date", s)
		}
	}
	c := def.Constraints
	if c.MinDate != nil && t.Before(*c.MinDate) {
		return nil, constraintErr(fmt.Sprintf("minDate %s", c.MinDate.Format(time.RFC3339)), s)
	}
	if c.MaxDate != nil && t.After(*c.MaxDate) {
		return nil, constraintErr(fmt.Sprintf("maxDate %s", c.MaxDate.Format(time.RFC3339)), s)
	}
	return t.UTC().Format(time.RFC3339), nil
}

func optionValues(opts []SelectOption) []string {
	vals := make([]string, len(opts))
	for i, o := range opts {
		vals[i] = o.Value
	}
	return vals
}

func requireOption(c FieldConstraints, v string) error {
	if len(c.Options) == 0 {
		return nil
	}
	for _, o := range c.Options {
		if o.Value == v {
			return nil
		}
	}
	return constraintErr(fmt.Sprintf("one of %v", optionValues(c.Options)), v)
}

func validateSelect(def FieldDefinition, value any) (any, error) {
	c := def.Constraints
	if c.Multiple {
		vals, err := reshape[[]string](value)
		if err != nil {
			return nil, shapeErr(def, "string array", value)
		}
		for _, v := range vals {
			if err := requireOption(c, v); err != nil {
				return nil, err
			}
		}
		return vals, nil
	}
	s, ok := value.(string)
	if !ok {
		return nil, shapeErr(def, "string", value)
	}
	if err := requireOption(c, s); err != nil {
		return nil, err
	}
	return s, nil
}

func validateCheckbox(def FieldDefinition, value any) (any, error) {
	b, ok := value.(bool)
	if !ok {
		return nil, shapeErr(def, "bool", value)
	}
	return b, nil
}

func validateRadioGroup(def FieldDefinition, value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, shapeErr(def, "string", value)
	}
	if err := requireOption(def.Constraints, s); err != nil {
		return nil, err
	}
	return s, nil
}

func validateMedia(def FieldDefinition, value any) (any, error) {
	var ref string
	switch v := value.(type) {
	case string:
		ref = v
	case MediaRef:
		ref = string(v)
	default:
		return nil, shapeErr(def, "media reference", value)
	}
	if ref == "" {
		return nil, constraintErr("non-empty media reference", ref)
	}
	return MediaRef(ref), nil
}

func validateGallery(def FieldDefinition, value any) (any, error) {
	items, err := reshape[[]GalleryItem](value)
	if err != nil {
		return nil, shapeErr(def, "array of {image, caption}", value)
	}
	for i, item := range items {
		if item.Image == "" {
			return nil, constraintErr(fmt.Sprintf("gallery item %d requires an image", i), item)
		}
	}
	return items, nil
}

func validateTable(def FieldDefinition, value any) (any, error) {
	table, err := reshape[TableValue](value)
	if err != nil {
		return nil, shapeErr(def, "{headers, rows}", value)
	}
	if len(table.Headers) > 0 {
		for i, row := range table.Rows {
			if len(row) != len(table.Headers) {
				return nil, constraintErr(
					fmt.Sprintf("row %d width %d, want %d", i, len(row), len(table.Headers)), row)
			}
		}
	}
	return table, nil
}

func validateList(def FieldDefinition, value any) (any, error) {
	items, err := reshape[[]string](value)
	if err != nil {
		return nil, shapeErr(def, "string array", value)
	}
	for i, item := range items {
		if item == "" {
			return nil, constraintErr(fmt.Sprintf("list item %d must not be empty", i), item)
		}
	}
	return items, nil
}

func validateStats(def FieldDefinition, value any) (any, error) {
	items, err := reshape[[]StatItem](value)
	if err != nil {
		return nil, shapeErr(def, "array of {label, value, unit}", value)
	}
	for i, item := range items {
		if item.Label == "" {
			return nil, constraintErr(fmt.Sprintf("stat item %d requires a label", i), item)
		}
	}
	return items, nil
}

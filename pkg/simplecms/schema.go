package simplecms

import (
	"fmt"
)

// ValidateFieldDefinitions checks the field-list contract of a template:
// at least one field, unique field names, and registered field types.
func ValidateFieldDefinitions(fields []FieldDefinition) error {
	if len(fields) == 0 {
		return ErrEmptyFieldList
	}
	seen := make(map[string]struct{}, len(fields))
	for _, def := range fields {
		if def.FieldName == "" {
			return fmt.Errorf("%w: field name must not be empty", ErrDuplicateFieldName)
		}
		if _, dup := seen[def.FieldName]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateFieldName, def.FieldName)
		}
		seen[def.FieldName] = struct{}{}
		if !KnownFieldType(def.FieldType) {
			return fmt.Errorf("%w: %s (field %s)", ErrUnknownFieldType, def.FieldType, def.FieldName)
		}
	}
	return nil
}

// FieldContract returns the ordered field definitions a bound document must
// satisfy. In a strict context (a document bind) the template must be
// published.
func FieldContract(t *Template, strict bool) ([]FieldDefinition, error) {
	if t == nil {
		return nil, ErrTemplateNotFound
	}
	if strict && t.Status != StatusPublished {
		return nil, fmt.Errorf("%w: %s (status: %s)", ErrTemplateNotPublished, t.Slug, t.Status)
	}
	fields := make([]FieldDefinition, len(t.Fields))
	copy(fields, t.Fields)
	return fields, nil
}

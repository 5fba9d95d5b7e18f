package simplecms

// BindDocument is the single choke point through which a content document's
// field values are accepted. It validates proposed against template's field
// contract, accumulating every failure rather than failing fast, and returns
// the normalized value blocks re-ordered to match template field order.
//
// Binding is deterministic and idempotent: binding its own output again
// produces identical output. Ordering is a diff-stability guarantee for
// exports, not cosmetics.
func BindDocument(template *Template, proposed []FieldValueBlock) ([]FieldValueBlock, error) {
	defs := make(map[string]FieldDefinition, len(template.Fields))
	for _, def := range template.Fields {
		defs[def.FieldName] = def
	}

	var failures []*FieldError
	fail := func(name string, err error, detail string) {
		failures = append(failures, &FieldError{FieldName: name, Err: err, Detail: detail})
	}

	// First pass: reject blocks naming fields the template does not define,
	// and duplicates. Sibling values feed conditional requiredness below.
	byName := make(map[string]FieldValueBlock, len(proposed))
	siblings := make(map[string]any, len(proposed))
	for _, block := range proposed {
		def, ok := defs[block.FieldName]
		if !ok {
			fail(block.FieldName, ErrUnknownField, "")
			continue
		}
		if _, dup := byName[block.FieldName]; dup {
			fail(block.FieldName, ErrConstraintViolation, "duplicate value block")
			continue
		}
		if block.FieldType != "" && block.FieldType != def.FieldType {
			fail(block.FieldName, ErrShapeMismatch,
				"block type "+string(block.FieldType)+" does not match template type "+string(def.FieldType))
			continue
		}
		byName[block.FieldName] = block
		siblings[block.FieldName] = block.Value
	}

	// Second pass, in template order: required-field completeness, then
	// per-type validation through the registry.
	normalized := make([]FieldValueBlock, 0, len(byName))
	for _, def := range template.Fields {
		block, present := byName[def.FieldName]
		if !present {
			if requiredForValues(def, siblings) {
				fail(def.FieldName, ErrMissingRequiredField, "")
			}
			continue
		}
		value, err := ValidateFieldValue(def, block.Value)
		if err != nil {
			fail(def.FieldName, err, "")
			continue
		}
		normalized = append(normalized, FieldValueBlock{
			FieldName: def.FieldName,
			FieldType: def.FieldType,
			Value:     value,
		})
	}

	if len(failures) > 0 {
		return nil, &ValidationError{Errors: failures}
	}
	return normalized, nil
}

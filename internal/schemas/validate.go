// Package schemas provides JSON Schema validation for forward-compatible
// extension payloads carried on evaluations. Known fields enter the core as
// typed struct members; everything else rides in an extension map that is
// validated here at the boundary before entering the core.
package schemas

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// extensionSchema constrains evaluation extension payloads: flat string keys
// mapping to scalars or string lists, with a bounded entry count. Nested
// objects are rejected so extension data stays queryable.
const extensionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "maxProperties": 32,
  "propertyNames": {
    "pattern": "^[a-z][a-z0-9_]*$"
  },
  "additionalProperties": {
    "anyOf": [
      {"type": "string", "maxLength": 2048},
      {"type": "number"},
      {"type": "boolean"},
      {"type": "array", "items": {"type": "string", "maxLength": 256}, "maxItems": 64}
    ]
  }
}`

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateExtensions validates an evaluation extension payload against the
// extension schema. A nil or empty payload is valid.
func ValidateExtensions(payload map[string]any) error {
	if len(payload) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewStringLoader(extensionSchema)
	documentLoader := gojsonschema.NewGoLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate extensions: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

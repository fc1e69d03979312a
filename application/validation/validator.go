// Package validation checks configuration documents against the generated
// configuration JSON Schema.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/reglet-dev/sqlbridge/application/schema"
	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

const configSchemaURL = "sqlbridge-config.json"

// SchemaValidator implements DocumentValidator using JSON Schema.
// Documents may be YAML or JSON.
type SchemaValidator struct {
	schema  *jsonschema.Schema
	printer *message.Printer
}

// NewSchemaValidator compiles the configuration schema.
func NewSchemaValidator() (ports.DocumentValidator, error) {
	raw, err := schema.ConfigSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode config schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(configSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add config schema resource: %w", err)
	}
	sch, err := compiler.Compile(configSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid config schema: %w", err)
	}

	return &SchemaValidator{schema: sch, printer: message.NewPrinter(language.English)}, nil
}

// Validate checks data against the configuration schema. An empty document
// is valid.
func (v *SchemaValidator) Validate(data []byte) (*entities.ValidationResult, error) {
	result := &entities.ValidationResult{Valid: true}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode config document: %w", err)
	}
	if doc == nil {
		return result, nil
	}

	// Round trip through JSON so the instance holds only JSON types.
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}
	obj, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare validation object: %w", err)
	}

	if err := v.schema.Validate(obj); err != nil {
		result.Valid = false
		var ve *jsonschema.ValidationError
		if !errors.As(err, &ve) {
			result.Errors = append(result.Errors, entities.ValidationError{Field: "/", Message: err.Error()})
			return result, nil
		}
		v.collect(ve, result)
	}

	return result, nil
}

// collect appends the leaves of the error tree, the violations themselves.
func (v *SchemaValidator) collect(ve *jsonschema.ValidationError, result *entities.ValidationResult) {
	if len(ve.Causes) == 0 {
		result.Errors = append(result.Errors, entities.ValidationError{
			Field:   "/" + strings.Join(ve.InstanceLocation, "/"),
			Message: ve.ErrorKind.LocalizedString(v.printer),
		})
		return
	}
	for _, cause := range ve.Causes {
		v.collect(cause, result)
	}
}

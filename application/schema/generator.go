// Package schema generates JSON Schema documents for bridge configuration.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/errors"
)

// GenerateSchema creates a JSON schema from a Go struct.
// It uses the `invopop/jsonschema` library to reflect on the struct
// and generate a standard JSON Schema (Draft 2020-12).
func GenerateSchema(v interface{}) ([]byte, error) {
	return generate(&jsonschema.Reflector{
		ExpandedStruct: true, // Expand struct definitions inline
	}, v)
}

// ConfigSchema returns the JSON Schema of a configuration document, the
// input accepted by the config loader. Only fields tagged
// `jsonschema:"required"` are required; the rest have defaults.
func ConfigSchema() ([]byte, error) {
	return generate(&jsonschema.Reflector{
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
	}, entities.BridgeConfig{})
}

func generate(reflector *jsonschema.Reflector, v interface{}) ([]byte, error) {
	schema := reflector.Reflect(v)

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, &errors.SchemaError{Type: fmt.Sprintf("%T", v), Err: err}
	}

	return jsonBytes, nil
}

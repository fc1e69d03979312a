package validation_test

import (
	"testing"

	"github.com/reglet-dev/sqlbridge/application/validation"
	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(res *entities.ValidationResult) []string {
	out := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		out = append(out, e.Field)
	}
	return out
}

func TestSchemaValidator_Validate(t *testing.T) {
	v, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	tests := []struct {
		name   string
		doc    string
		valid  bool
		fields []string
	}{
		{
			name:  "Full YAML Document",
			doc:   "database: app.db\nlog_level: debug\nmax_objects: 100\nfunctions:\n  - name: add\n    module: math.wasm\n",
			valid: true,
		},
		{
			name:  "JSON Document",
			doc:   `{"database": "app.db", "deterministic": false}`,
			valid: true,
		},
		{
			name:  "Empty Document",
			doc:   "",
			valid: true,
		},
		{
			name:   "Unknown Log Level",
			doc:    "log_level: loud\n",
			fields: []string{"/log_level"},
		},
		{
			name:   "Negative Object Limit",
			doc:    "max_objects: -1\n",
			fields: []string{"/max_objects"},
		},
		{
			name:   "Wrong Type",
			doc:    "deterministic: sometimes\n",
			fields: []string{"/deterministic"},
		},
		{
			name:   "Function Without Module",
			doc:    "functions:\n  - name: add\n",
			fields: []string{"/functions/0"},
		},
		{
			name: "Unknown Key",
			doc:  "databse: app.db\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := v.Validate([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.valid {
				assert.Empty(t, res.Errors)
				return
			}
			require.NotEmpty(t, res.Errors)
			for _, e := range res.Errors {
				assert.NotEmpty(t, e.Message)
			}
			if tt.fields != nil {
				assert.Equal(t, tt.fields, fields(res))
			}
		})
	}
}

func TestSchemaValidator_MalformedDocument(t *testing.T) {
	v, err := validation.NewSchemaValidator()
	require.NoError(t, err)

	_, err = v.Validate([]byte("database: [unterminated"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode config document")
}

package entities

// ValidationResult represents the outcome of validating a configuration
// document against its schema.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError represents a specific validation error.
// Field is a JSON pointer into the document, "/" for the document itself.
type ValidationError struct {
	Field   string
	Message string
}

package ports

import "github.com/reglet-dev/sqlbridge/domain/entities"

// DocumentValidator checks a raw configuration document before it is parsed.
type DocumentValidator interface {
	// Validate reports every schema violation in data. An error means data
	// could not be read at all.
	Validate(data []byte) (*entities.ValidationResult, error)
}

package sqlbridge

import (
	"encoding/json"
	"fmt"

	"github.com/reglet-dev/sqlbridge/application/config"
	"github.com/reglet-dev/sqlbridge/binding"
	"github.com/reglet-dev/sqlbridge/domain/entities"
)

// Config is an untyped bridge configuration, as decoded from JSON or
// received from another program.
type Config map[string]interface{}

// ValidateConfig converts raw into a BridgeConfig over the defaults and
// validates it.
func ValidateConfig(raw Config) (entities.BridgeConfig, error) {
	cfg := entities.DefaultBridgeConfig()

	jsonBytes, err := json.Marshal(raw)
	if err != nil {
		return cfg, fmt.Errorf("failed to marshal config map: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to unmarshal config into struct: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ValidateSpec checks a function spec without registering it.
func ValidateSpec(spec entities.FunctionSpec) error {
	return binding.ValidateSpec(spec)
}

package ports

import "github.com/reglet-dev/sqlbridge/domain/entities"

// ConfigParser parses raw configuration bytes into a BridgeConfig.
type ConfigParser interface {
	// Parse unmarshals the bytes over the defaults already present in cfg.
	Parse(data []byte, cfg *entities.BridgeConfig) error
}

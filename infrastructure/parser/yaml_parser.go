package parser

import (
	"bytes"
	"fmt"

	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/ports"
	"gopkg.in/yaml.v3"
)

// YamlConfigParser implements ConfigParser for YAML.
type YamlConfigParser struct {
	// Strict rejects unknown keys.
	Strict bool
}

// NewYamlConfigParser creates a new YamlConfigParser that rejects unknown keys.
func NewYamlConfigParser() ports.ConfigParser {
	return &YamlConfigParser{Strict: true}
}

// Parse unmarshals YAML bytes over the values already in cfg.
// Keys absent from data keep their current value.
func (p *YamlConfigParser) Parse(data []byte, cfg *entities.BridgeConfig) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(p.Strict)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse yaml config: %w", err)
	}
	return nil
}

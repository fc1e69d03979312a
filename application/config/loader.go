// Package config loads and validates bridge configuration.
package config

import (
	stdErrors "errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/sqlbridge/domain/entities"
	"github.com/reglet-dev/sqlbridge/domain/errors"
	"github.com/reglet-dev/sqlbridge/domain/ports"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New(validator.WithRequiredStructEnabled())

// Loader builds a BridgeConfig from defaults, a config document and options,
// in that order.
type Loader struct {
	parser    ports.ConfigParser
	renderer  ports.TemplateEngine
	validator ports.DocumentValidator
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithRenderer sets the engine LoadTemplate renders documents with.
func WithRenderer(renderer ports.TemplateEngine) LoaderOption {
	return func(l *Loader) {
		l.renderer = renderer
	}
}

// WithDocumentValidator checks every document against v before parsing.
func WithDocumentValidator(v ports.DocumentValidator) LoaderOption {
	return func(l *Loader) {
		l.validator = v
	}
}

// NewLoader creates a Loader that reads documents with parser.
func NewLoader(parser ports.ConfigParser, opts ...LoaderOption) *Loader {
	l := &Loader{parser: parser}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load parses data over the defaults, applies opts and validates the result.
func (l *Loader) Load(data []byte, opts ...entities.ConfigOption) (entities.BridgeConfig, error) {
	if err := l.checkDocument(data); err != nil {
		return entities.BridgeConfig{}, err
	}
	cfg := entities.DefaultBridgeConfig()
	if err := l.parser.Parse(data, &cfg); err != nil {
		return entities.BridgeConfig{}, &errors.ConfigError{Err: err}
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := Validate(cfg); err != nil {
		return entities.BridgeConfig{}, err
	}
	return cfg, nil
}

func (l *Loader) checkDocument(data []byte) error {
	if l.validator == nil || len(data) == 0 {
		return nil
	}
	res, err := l.validator.Validate(data)
	if err != nil {
		return &errors.ConfigError{Err: err}
	}
	if !res.Valid && len(res.Errors) > 0 {
		first := res.Errors[0]
		return &errors.ConfigError{Field: first.Field, Err: stdErrors.New(first.Message)}
	}
	return nil
}

// LoadTemplate renders data with vars and loads the result. It fails when
// the Loader has no renderer.
func (l *Loader) LoadTemplate(data []byte, vars map[string]interface{}, opts ...entities.ConfigOption) (entities.BridgeConfig, error) {
	if l.renderer == nil {
		return entities.BridgeConfig{}, &errors.ConfigError{Err: stdErrors.New("no template renderer configured")}
	}
	rendered, err := l.renderer.Render(data, vars)
	if err != nil {
		return entities.BridgeConfig{}, &errors.ConfigError{Err: err}
	}
	return l.Load(rendered, opts...)
}

// LoadFile is Load for the contents of path.
func (l *Loader) LoadFile(path string, opts ...entities.ConfigOption) (entities.BridgeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.BridgeConfig{}, &errors.ConfigError{Err: fmt.Errorf("read %s: %w", path, err)}
	}
	return l.Load(data, opts...)
}

// Validate checks cfg against its validation tags and the constraints the
// tags cannot express. The first failing field is reported.
func Validate(cfg entities.BridgeConfig) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if stdErrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &errors.ConfigError{
				Field: fe.Namespace(),
				Err:   fmt.Errorf("failed on '%s' constraint (value: %v)", fe.Tag(), fe.Value()),
			}
		}
		return &errors.ConfigError{Err: err}
	}

	seen := make(map[string]struct{}, len(cfg.Functions))
	for i, fn := range cfg.Functions {
		if _, dup := seen[fn.Name]; dup {
			return &errors.ConfigError{
				Field: fmt.Sprintf("BridgeConfig.Functions[%d].Name", i),
				Err:   fmt.Errorf("duplicate function name %q", fn.Name),
			}
		}
		seen[fn.Name] = struct{}{}
	}
	return nil
}

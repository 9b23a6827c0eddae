package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a configuration document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath guesses the format from the file extension. YAML is the default.
func FormatFromPath(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Parser is responsible for converting raw bytes into a Configuration.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes the document into a generic tree first, then maps it onto the
// configuration model. Unknown keys are rejected.
func (p *Parser) Parse(data []byte, format Format) (domain.Configuration, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return domain.Configuration{}, fmt.Errorf("failed to parse configuration: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return domain.Configuration{}, fmt.Errorf("failed to parse configuration: %w", err)
		}
	}
	if raw == nil {
		return domain.Configuration{}, fmt.Errorf("configuration is empty")
	}

	var cfg domain.Configuration
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cfg,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return domain.Configuration{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return domain.Configuration{}, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if cfg.ID == "" {
		return domain.Configuration{}, fmt.Errorf("configuration missing id")
	}
	return cfg, nil
}

// ParseFile reads and parses a configuration file.
func (p *Parser) ParseFile(path string) (domain.Configuration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("failed to read configuration: %w", err)
	}
	return p.Parse(data, FormatFromPath(path))
}

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML run configuration. Explicit flags win over
// file values.
type Config struct {
	Database     string `yaml:"database"`
	Declarations string `yaml:"declarations"`
	Format       string `yaml:"format"`
	Verbose      *bool  `yaml:"verbose"`
}

// LoadConfig reads a config file, rejecting unknown keys.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cfg.Format != "" && !isValidFormat(cfg.Format) {
		return nil, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
	}
	return &cfg, nil
}

// applyConfig copies config values into options whose flags were not set
// on the command line.
func (o *RootOptions) applyConfig(cfg *Config, cmd *cobra.Command) {
	flags := cmd.Flags()
	if cfg.Database != "" && !flags.Changed("db") {
		o.Database = cfg.Database
	}
	if cfg.Declarations != "" && !flags.Changed("decls") {
		o.Declarations = cfg.Declarations
	}
	if cfg.Format != "" && !flags.Changed("format") {
		o.Format = cfg.Format
	}
	if cfg.Verbose != nil && !flags.Changed("verbose") {
		o.Verbose = *cfg.Verbose
	}
}

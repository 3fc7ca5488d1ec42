// Package config loads the optional YAML defaults for dump-diff.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// FileName is looked up in the working directory when no path is given.
	FileName = ".dumpdiff.yaml"
	// EnvPath overrides the lookup when --config is not set.
	EnvPath = "DUMPDIFF_CONFIG"
)

// Config holds defaults for command-line flags. Flags given explicitly win.
type Config struct {
	Arch       string `yaml:"arch,omitempty" json:"arch,omitempty" jsonschema:"title=Architecture,description=Instruction set to decode,enum=arm,enum=arm64,enum=loong64,enum=ppc64,enum=riscv64"`
	Mode       string `yaml:"mode,omitempty" json:"mode,omitempty" jsonschema:"title=Mode,description=Decode mode for the architecture"`
	Endianness string `yaml:"endianness,omitempty" json:"endianness,omitempty" jsonschema:"title=Endianness,description=Byte order of instruction words,enum=little,enum=big,default=little"`
	Addr       string `yaml:"addr,omitempty" json:"addr,omitempty" jsonschema:"title=Address,description=Base virtual address (hex with 0x prefix or decimal),example=0x80000000"`
	Length     string `yaml:"length,omitempty" json:"length,omitempty" jsonschema:"title=Length,description=Bytes to read from each input"`
	Format     string `yaml:"format,omitempty" json:"format,omitempty" jsonschema:"title=Format,description=Output format,enum=text,enum=json,enum=markdown,default=text"`
	Color      *bool  `yaml:"color,omitempty" json:"color,omitempty" jsonschema:"title=Color,description=Highlight the text report when writing to a terminal"`
	Debug      bool   `yaml:"debug,omitempty" json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
}

// Find returns the config file to use: explicit, then $DUMPDIFF_CONFIG,
// then FileName if it exists. An empty result means no config.
func Find(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvPath); env != "" {
		return env
	}
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	return ""
}

// Load reads the config at path. An empty path yields a zero Config.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	slog.Debug("Loaded config", "path", path)
	return cfg, nil
}

// Read decodes a config document. Unknown keys are rejected.
func Read(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return &cfg, nil
}

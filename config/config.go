// Package config loads pystub configuration from pystub.toml and PYSTUB_*
// environment variables.
package config

import (
	"path/filepath"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/registry"
	"github.com/teranos/pystub/stubtype"
)

// FileName is the project configuration file searched for.
const FileName = "pystub.toml"

// Config is the pystub configuration.
type Config struct {
	Python   PythonConfig   `mapstructure:"python" toml:"python"`
	Runtime  RuntimeConfig  `mapstructure:"runtime" toml:"runtime"`
	Generate GenerateConfig `mapstructure:"generate" toml:"generate"`

	// path of the file the configuration was read from, empty when none
	path string
}

// PythonConfig shapes the emitted annotations.
type PythonConfig struct {
	// ContainerInput is "abstract" (collections.abc inputs) or "concrete".
	ContainerInput string `mapstructure:"container_input" toml:"container_input"`
}

// RuntimeConfig describes the bridge the extension is built against.
type RuntimeConfig struct {
	LimitedAPI    bool   `mapstructure:"limited_api" toml:"limited_api"`
	BridgeVersion string `mapstructure:"bridge_version" toml:"bridge_version"`
}

// GenerateConfig selects inputs and outputs of a generation run.
type GenerateConfig struct {
	Descriptions []string `mapstructure:"descriptions" toml:"descriptions"` // doublestar globs, relative to the config directory
	Packages     []string `mapstructure:"packages" toml:"packages"`         // Go package patterns to extract
	Output       string   `mapstructure:"output" toml:"output"`             // stub root, relative to the config directory
	Workers      int      `mapstructure:"workers" toml:"workers"`
	FinalClasses bool     `mapstructure:"final_classes" toml:"final_classes"`
}

// Path returns the file the configuration was read from, or "" when only
// defaults and environment were used.
func (c *Config) Path() string {
	return c.path
}

// Dir is the directory relative paths are resolved from: the config file's
// directory, or the directory the search started in.
func (c *Config) Dir() string {
	if c.path == "" {
		return "."
	}
	return filepath.Dir(c.path)
}

// Resolve joins a config-relative path onto Dir.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir(), p)
}

// Policy returns the container input policy. Validate guarantees it parses.
func (c *Config) Policy() stubtype.Policy {
	p, _ := stubtype.ParsePolicy(c.Python.ContainerInput)
	return p
}

// Capabilities returns the registry capabilities the runtime section selects.
func (c *Config) Capabilities() (registry.Capabilities, error) {
	caps := registry.Capabilities{LimitedAPI: c.Runtime.LimitedAPI}
	if c.Runtime.BridgeVersion == "" {
		return caps, nil
	}
	v, err := semver.NewVersion(c.Runtime.BridgeVersion)
	if err != nil {
		return registry.Capabilities{}, errors.Wrapf(err, "runtime.bridge_version %q", c.Runtime.BridgeVersion)
	}
	caps.BridgeVersion = v
	return caps, nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, ok := stubtype.ParsePolicy(c.Python.ContainerInput); !ok {
		return errors.WithHint(
			errors.Newf("python.container_input must be abstract or concrete, got %q", c.Python.ContainerInput),
			"abstract annotates inputs with collections.abc types")
	}
	if c.Generate.Workers <= 0 {
		return errors.Newf("generate.workers must be > 0, got %d", c.Generate.Workers)
	}
	if c.Generate.Output == "" {
		return errors.New("generate.output cannot be empty")
	}
	if _, err := c.Capabilities(); err != nil {
		return errors.WithHint(err, "use a semantic version such as 0.25.0")
	}
	return nil
}

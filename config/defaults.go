package config

import (
	"github.com/spf13/viper"

	"github.com/teranos/pystub/stubgen"
)

// DefaultBridgeVersion is assumed when runtime.bridge_version is not set.
const DefaultBridgeVersion = "0.25.0"

// DefaultDescriptions are the description globs used without configuration.
var DefaultDescriptions = []string{"stubs/**/*.yaml", "stubs/**/*.toml", "stubs/**/*.json"}

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("python.container_input", "abstract")

	v.SetDefault("runtime.limited_api", false)
	v.SetDefault("runtime.bridge_version", DefaultBridgeVersion)

	v.SetDefault("generate.descriptions", DefaultDescriptions)
	v.SetDefault("generate.packages", []string{})
	v.SetDefault("generate.output", "python")
	v.SetDefault("generate.workers", stubgen.DefaultWorkers)
	v.SetDefault("generate.final_classes", false)
}

// Default returns the configuration SetDefaults describes.
func Default() *Config {
	return &Config{
		Python:  PythonConfig{ContainerInput: "abstract"},
		Runtime: RuntimeConfig{BridgeVersion: DefaultBridgeVersion},
		Generate: GenerateConfig{
			Descriptions: append([]string(nil), DefaultDescriptions...),
			Packages:     []string{},
			Output:       "python",
			Workers:      stubgen.DefaultWorkers,
		},
	}
}

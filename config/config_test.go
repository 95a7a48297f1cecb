package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pystub/registry"
	"github.com/teranos/pystub/stubtype"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, Default().Python, cfg.Python)
	assert.Equal(t, Default().Runtime, cfg.Runtime)
	assert.Equal(t, DefaultDescriptions, cfg.Generate.Descriptions)
	assert.Equal(t, "python", cfg.Generate.Output)
	assert.Equal(t, 4, cfg.Generate.Workers)
	assert.Empty(t, cfg.Path())
	assert.Equal(t, ".", cfg.Dir())
	assert.Equal(t, stubtype.PolicyAbstract, cfg.Policy())
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	path := writeConfig(t, root, `
[python]
container_input = "concrete"

[generate]
output = "typings"
packages = ["./ext/..."]
workers = 2
final_classes = true
`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := Load(nested)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, root, cfg.Dir())
	assert.Equal(t, filepath.Join(root, "typings"), cfg.Resolve(cfg.Generate.Output))
	assert.Equal(t, "/abs", cfg.Resolve("/abs"))
	assert.Equal(t, stubtype.PolicyConcrete, cfg.Policy())
	assert.Equal(t, []string{"./ext/..."}, cfg.Generate.Packages)
	assert.Equal(t, 2, cfg.Generate.Workers)
	assert.True(t, cfg.Generate.FinalClasses)
	assert.Equal(t, DefaultDescriptions, cfg.Generate.Descriptions, "unset keys keep defaults")
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[generate]\nworkers = 2\n")
	t.Setenv("PYSTUB_GENERATE_WORKERS", "9")
	t.Setenv("PYSTUB_RUNTIME_LIMITED_API", "true")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Generate.Workers)
	assert.True(t, cfg.Runtime.LimitedAPI)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		contains string
	}{
		{"policy", "[python]\ncontainer_input = \"loose\"\n", "python.container_input"},
		{"workers", "[generate]\nworkers = 0\n", "generate.workers"},
		{"output", "[generate]\noutput = \"\"\n", "generate.output"},
		{"bridge version", "[runtime]\nbridge_version = \"soon\"\n", "runtime.bridge_version"},
		{"syntax", "[generate\n", "failed to read config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name     string
		runtime  RuntimeConfig
		datetime bool
	}{
		{"full api", RuntimeConfig{BridgeVersion: "0.20.0"}, true},
		{"limited api, new bridge", RuntimeConfig{LimitedAPI: true, BridgeVersion: "0.25.0"}, true},
		{"limited api, old bridge", RuntimeConfig{LimitedAPI: true, BridgeVersion: "0.24.1"}, false},
		{"limited api, unknown bridge", RuntimeConfig{LimitedAPI: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Runtime = tt.runtime
			caps, err := cfg.Capabilities()
			require.NoError(t, err)
			assert.Equal(t, tt.datetime, caps.Allows(registry.GateDatetime))
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	want := Default()
	want.Generate.Packages = []string{"./..."}
	want.Runtime.LimitedAPI = true
	require.NoError(t, Write(path, want, false))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.Python, got.Python)
	assert.Equal(t, want.Runtime, got.Runtime)
	assert.Equal(t, want.Generate, got.Generate)

	err = Write(path, want, false)
	require.Error(t, err, "existing files are kept without overwrite")
	require.NoError(t, Write(path, want, true))
}

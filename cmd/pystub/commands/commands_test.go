package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pystub/config"
)

// execute runs the root command with args and returns what it wrote.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	pterm.DisableColor()
	pterm.DisableStyling()
	t.Cleanup(func() {
		configPath, jsonLogs = "", false
		initDir, initForce = ".", false
		pterm.EnableColor()
		pterm.EnableStyling()
	})

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	err := RootCmd.Execute()
	return out.String(), err
}

func TestInitWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)

	cfg, err := config.LoadFromFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Generate, cfg.Generate)
	assert.Equal(t, config.DefaultBridgeVersion, cfg.Runtime.BridgeVersion)
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0o644))

	_, err := execute(t, "init", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# mine\n", string(data))

	_, err = execute(t, "init", "--dir", dir, "--force")
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "bridge_version")
}

func TestTypesListsMappings(t *testing.T) {
	tests := []struct {
		name      string
		config    string
		available bool
	}{
		{
			name:      "current bridge",
			config:    "[runtime]\nbridge_version = \"0.25.0\"\n",
			available: true,
		},
		{
			name:      "limited api on old bridge",
			config:    "[runtime]\nlimited_api = true\nbridge_version = \"0.24.0\"\n",
			available: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), config.FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.config), 0o644))

			out, err := execute(t, "types", "--config", path)
			require.NoError(t, err)

			var timeRow string
			for _, line := range strings.Split(out, "\n") {
				if strings.Contains(line, "time.Time") {
					timeRow = line
				}
			}
			require.NotEmpty(t, timeRow, out)
			if tt.available {
				assert.Contains(t, timeRow, "datetime.datetime")
				assert.Contains(t, timeRow, "yes")
			} else {
				assert.Contains(t, timeRow, "no (limited API)")
			}
			assert.Contains(t, out, "Available")
		})
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"version"`)
	assert.Contains(t, out, `"go_version"`)
}

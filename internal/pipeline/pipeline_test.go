package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pystub/config"
)

const geometryYAML = `module: geometry
classes:
  - name: Point
    fields:
      - {name: x, type: float64}
      - {name: y, type: float64}
    methods:
      - name: distance
        params: [{name: other, type: Point}]
        returns: float64
`

const appTOML = `module = "app"

[[functions]]
name = "origin"
returns = "geometry.Point"
`

const geometryStub = `# This file is automatically generated by pystub
# ruff: noqa: E501, F401

__all__ = [
    "Point",
]

class Point:
    x: float
    y: float
    def distance(self, other: Point) -> float: ...
`

const appStub = `# This file is automatically generated by pystub
# ruff: noqa: E501, F401

import geometry

__all__ = [
    "origin",
]

def origin() -> geometry.Point: ...
`

func project(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	cfg, err := config.Load(dir)
	require.NoError(t, err)
	return cfg
}

func TestRunGeneratesDescribedModules(t *testing.T) {
	cfg := project(t, map[string]string{
		config.FileName:         "[generate]\noutput = \"typings\"\n",
		"stubs/geometry.yaml":   geometryYAML,
		"stubs/nested/app.toml": appTOML,
	})
	p := New(cfg, afero.NewOsFs())

	run, err := p.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	require.Len(t, run.Outputs, 2)

	// Descriptions are processed in path order
	assert.Equal(t, "geometry", run.Outputs[0].Module)
	assert.Equal(t, geometryStub, run.Outputs[0].Text)
	assert.Equal(t, "app", run.Outputs[1].Module)
	assert.Equal(t, appStub, run.Outputs[1].Text)

	w := p.Writer()
	written, err := w.Write(run.Outputs)
	require.NoError(t, err)
	assert.Len(t, written.Written, 2)

	data, err := os.ReadFile(filepath.Join(cfg.Dir(), "typings", "geometry.pyi"))
	require.NoError(t, err)
	assert.Equal(t, geometryStub, string(data))

	check, err := w.Compare(run.Outputs)
	require.NoError(t, err)
	assert.True(t, check.UpToDate)
}

func TestRunOverridesDescriptions(t *testing.T) {
	cfg := project(t, map[string]string{
		config.FileName:       "",
		"stubs/geometry.yaml": geometryYAML,
		"other/geometry.yaml": geometryYAML,
	})

	run, err := New(cfg, afero.NewOsFs()).Run(context.Background(), Options{Descriptions: []string{"other/*.yaml"}})
	require.NoError(t, err)
	require.Len(t, run.Outputs, 1)
	assert.Equal(t, geometryStub, run.Outputs[0].Text)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		contains string
	}{
		{
			name:     "nothing to generate",
			files:    map[string]string{config.FileName: ""},
			contains: "nothing to generate",
		},
		{
			name: "duplicate module",
			files: map[string]string{
				config.FileName:  "",
				"stubs/a.yaml":   geometryYAML,
				"stubs/b/a.yaml": "module: geometry\n",
			},
			contains: "geometry",
		},
		{
			name: "unmapped type",
			files: map[string]string{
				config.FileName: "",
				"stubs/a.yaml":  "module: events\nvariables:\n  - {name: queue, type: chan int}\n",
			},
			contains: "unmapped type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := project(t, tt.files)
			_, err := New(cfg, afero.NewOsFs()).Run(context.Background(), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestWatchDirs(t *testing.T) {
	cfg := project(t, map[string]string{
		config.FileName:       "[generate]\npackages = [\"./ext/...\", \"example.com/remote\"]\n",
		"stubs/geometry.yaml": geometryYAML,
		"ext/ext.go":          "package ext\n",
	})

	dirs := New(cfg, afero.NewOsFs()).WatchDirs(Options{})
	assert.Equal(t, []string{filepath.Join(cfg.Dir(), "ext"), filepath.Join(cfg.Dir(), "stubs")}, dirs)
}

package describe

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/registry"
	"github.com/teranos/pystub/stubgen"
)

const pointYAML = `module: geometry
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

const pointTOML = `module = "geometry"

[[classes]]
name = "Point"

[[classes.fields]]
name = "x"
type = "float64"

[[classes.fields]]
name = "y"
type = "float64"

[[classes.methods]]
name = "distance"
returns = "float64"

[[classes.methods.params]]
name = "other"
type = "Point"
`

const pointJSON = `{
  "module": "geometry",
  "classes": [{
    "name": "Point",
    "fields": [{"name": "x", "type": "float64"}, {"name": "y", "type": "float64"}],
    "methods": [{"name": "distance", "params": [{"name": "other", "type": "Point"}], "returns": "float64"}]
  }]
}`

const pointStub = `# This file is automatically generated by pystub
# ruff: noqa: E501, F401

__all__ = [
    "Point",
]

class Point:
    x: float
    y: float
    def distance(self, other: Point) -> float: ...
`

func newResolver(t *testing.T) *registry.Resolver {
	t.Helper()
	res, err := registry.NewResolver(registry.New(registry.Capabilities{}), registry.Options{})
	require.NoError(t, err)
	return res
}

func memFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestFormatsAgree(t *testing.T) {
	for _, name := range []string{"stubs/point.yaml", "stubs/point.toml", "stubs/point.json"} {
		t.Run(name, func(t *testing.T) {
			fs := memFS(t, map[string]string{
				"stubs/point.yaml": pointYAML,
				"stubs/point.toml": pointTOML,
				"stubs/point.json": pointJSON,
			})
			f, err := NewLoader(fs).LoadFile(name)
			require.NoError(t, err)
			assert.Equal(t, name, f.Path())

			modules, err := Build(newResolver(t), []*File{f}, Options{})
			require.NoError(t, err)
			require.Len(t, modules, 1)

			text, err := stubgen.Render(modules[0])
			require.NoError(t, err)
			assert.Equal(t, pointStub, text)
		})
	}
}

func TestDiscover(t *testing.T) {
	fs := memFS(t, map[string]string{
		"stubs/b.yaml":         pointYAML,
		"stubs/nested/a.toml":  pointTOML,
		"stubs/nested/c.json":  pointJSON,
		"stubs/readme.md":      "# not a description",
		"elsewhere/other.yaml": pointYAML,
	})
	l := NewLoader(fs)

	files, err := l.Discover([]string{"stubs/**/*.yaml", "stubs/**/*.toml", "stubs/**/*.json", "./stubs/*.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"stubs/b.yaml", "stubs/nested/a.toml", "stubs/nested/c.json"}, files)

	_, err = l.Discover([]string{"../secrets/*.yaml"})
	assert.Error(t, err)

	_, err = l.Discover([]string{"stubs/[.yaml"})
	assert.Error(t, err)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"unknown yaml key", "x.yaml", "module: m\nclassez: []\n", "classez"},
		{"unknown toml key", "x.toml", "module = \"m\"\nextra = 1\n", "extra"},
		{"unknown json key", "x.json", `{"module": "m", "extra": 1}`, "extra"},
		{"missing module", "x.yaml", "classes: []\n", "Module is required"},
		{"bad module name", "x.yaml", "module: 1bad\n", "Module must be a dotted Python name"},
		{"bad class name", "x.yaml", "module: m\nclasses: [{name: my-class}]\n", "Classes[0].Name must be a Python identifier"},
		{"missing field type", "x.yaml", "module: m\nclasses: [{name: C, fields: [{name: x}]}]\n", "Classes[0].Fields[0].Type is required"},
		{"bad param kind", "x.yaml", "module: m\nfunctions: [{name: f, params: [{name: a, type: int, kind: sideways}]}]\n", "Functions[0].Params[0].Kind must be one of"},
		{"unknown yaml param key", "x.yaml", "module: m\nfunctions: [{name: f, params: [{name: a, type: int, defualt: 1}]}]\n", "defualt"},
		{"unknown json param key", "x.json", `{"module": "m", "functions": [{"name": "f", "params": [{"name": "a", "type": "int", "defualt": 1}]}]}`, "defualt"},
		{"unsupported extension", "x.ini", "module = m", "unsupported extension"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFS(t, map[string]string{tt.file: tt.content})
			_, err := NewLoader(fs).LoadFile(tt.file)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidDescription), "got %v", err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestBuildResolvesAcrossModules(t *testing.T) {
	fs := memFS(t, map[string]string{
		"stubs/geometry.yaml": pointYAML,
		"stubs/app.yaml": `module: app
doc: Application entry points.
variables:
  - {name: VERSION, type: string}
enums:
  - name: Mode
    variants: [{name: FAST}, {name: SAFE, doc: Checks everything.}]
classes:
  - name: Canvas
    final: true
    fields:
      - {name: points, type: "[]geometry.Point"}
      - {name: created, type: time.Time, readonly: true}
    methods:
      - kind: new
        params: [{name: width, type: int, default: 640}]
      - name: nearest
        params:
          - {name: to, type: geometry.Point}
          - {name: mode, type: Mode, kind: keyword_only, default_expr: Mode.FAST}
        returns: py.Optional[geometry.Point]
functions:
  - name: open
    params:
      - {name: path, type: py.Path}
      - {name: tags, type: "map[string]struct{}", default_expr: "None"}
    returns: Canvas
`,
	})
	files, err := NewLoader(fs).Load([]string{"stubs/*.yaml"})
	require.NoError(t, err)
	require.Len(t, files, 2)

	modules, err := Build(newResolver(t), files, Options{})
	require.NoError(t, err)

	app := modules[0]
	require.Equal(t, "app", app.Name)
	assert.Equal(t, []string{"collections.abc", "datetime", "enum", "geometry", "os", "pathlib", "typing"}, stubgen.MergeImports(app))

	text, err := stubgen.Render(app)
	require.NoError(t, err)
	assert.Contains(t, text, "    points: list[geometry.Point]\n")
	assert.Contains(t, text, "    @property\n    def created(self) -> datetime.datetime: ...\n")
	assert.Contains(t, text, "    def __new__(cls, width: int = 640) -> Canvas: ...\n")
	assert.Contains(t, text, "    def nearest(self, to: geometry.Point, *, mode: Mode = Mode.FAST) -> geometry.Point | None: ...\n")
	assert.Contains(t, text, "def open(path: str | os.PathLike | pathlib.Path, tags: collections.abc.Set[str] = None) -> Canvas: ...\n")
	assert.Contains(t, text, "class Mode(enum.Enum):\n    FAST = ...\n    SAFE = ...\n")
	assert.Contains(t, text, "VERSION: str\n")
	assert.Contains(t, text, "@typing.final\nclass Canvas:\n")
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		isError error
	}{
		{
			name:    "unmapped field",
			content: "module: m\nclasses: [{name: C, fields: [{name: ch, type: chan int}]}]\n",
			want:    "C.ch",
			isError: errors.ErrUnmappedType,
		},
		{
			name:    "mutable borrow of frozen class",
			content: "module: m\nclasses: [{name: C, frozen: true}]\nfunctions: [{name: f, params: [{name: c, type: \"py.RefMut[C]\"}]}]\n",
			want:    "f(c)",
			isError: errors.ErrFrozenMutableRef,
		},
		{
			name:    "unqualified enum base",
			content: "module: m\nenums: [{name: E, base: IntEnum, variants: []}]\n",
			want:    "must be qualified",
			isError: errors.ErrInvalidDescription,
		},
		{
			name:    "nameless method",
			content: "module: m\nclasses: [{name: C, methods: [{kind: static}]}]\n",
			want:    "has no name",
			isError: errors.ErrInvalidDescription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memFS(t, map[string]string{"d.yaml": tt.content})
			f, err := NewLoader(fs).LoadFile("d.yaml")
			require.NoError(t, err)

			_, err = Build(newResolver(t), []*File{f}, Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "d.yaml")
			assert.True(t, errors.Is(err, tt.isError), "got %v", err)
		})
	}
}

func TestFinalClassesOption(t *testing.T) {
	fs := memFS(t, map[string]string{"p.yaml": pointYAML})
	f, err := NewLoader(fs).LoadFile("p.yaml")
	require.NoError(t, err)

	modules, err := Build(newResolver(t), []*File{f}, Options{FinalClasses: true})
	require.NoError(t, err)
	assert.True(t, modules[0].Classes[0].Final)
}

func TestJSONDefaultsKeepIntegers(t *testing.T) {
	fs := memFS(t, map[string]string{"f.json": `{"module": "m", "functions": [{"name": "f", "params": [
		{"name": "a", "type": "int", "default": 2},
		{"name": "b", "type": "float64", "default": 2.5},
		{"name": "c", "type": "[]int", "default": [1, 2]}
	]}]}`})
	f, err := NewLoader(fs).LoadFile("f.json")
	require.NoError(t, err)

	modules, err := Build(newResolver(t), []*File{f}, Options{})
	require.NoError(t, err)
	text, err := stubgen.Render(modules[0])
	require.NoError(t, err)
	assert.Contains(t, text, "def f(a: int = 2, b: float = 2.5, c: collections.abc.Sequence[int] = [1, 2]) -> None: ...")
}

func TestNullDefaultRendersNone(t *testing.T) {
	tests := []struct {
		file    string
		content string
	}{
		{"f.yaml", "module: m\nfunctions:\n  - name: f\n    params:\n      - {name: a, type: py.Optional[int], default: null}\n      - {name: b, type: int, default: 3}\n"},
		{"f.json", `{"module": "m", "functions": [{"name": "f", "params": [
			{"name": "a", "type": "py.Optional[int]", "default": null},
			{"name": "b", "type": "int", "default": 3}
		]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			f, err := NewLoader(memFS(t, map[string]string{tt.file: tt.content})).LoadFile(tt.file)
			require.NoError(t, err)

			modules, err := Build(newResolver(t), []*File{f}, Options{})
			require.NoError(t, err)
			text, err := stubgen.Render(modules[0])
			require.NoError(t, err)
			assert.Contains(t, text, "def f(a: int | None = None, b: int = 3) -> None: ...")
		})
	}
}

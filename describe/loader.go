package describe

import (
	"bytes"
	"encoding/json"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/teranos/pystub/errors"
)

var (
	pyIdent  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	pyModule = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)
)

// Loader reads description files from a filesystem.
type Loader struct {
	fs       afero.Fs
	validate *validator.Validate
}

// NewLoader creates a loader over fsys. Paths and glob patterns are relative
// to its root.
func NewLoader(fsys afero.Fs) *Loader {
	v := validator.New()
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("pyident", func(fl validator.FieldLevel) bool {
		return pyIdent.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("pymodule", func(fl validator.FieldLevel) bool {
		return pyModule.MatchString(fl.Field().String())
	})
	return &Loader{fs: fsys, validate: v}
}

// Discover expands doublestar patterns ("stubs/**/*.yaml") into a sorted,
// deduplicated file list.
func (l *Loader) Discover(patterns []string) ([]string, error) {
	fsys := afero.NewIOFS(l.fs)
	seen := make(map[string]bool)
	var files []string

	for _, pattern := range patterns {
		pattern = strings.TrimPrefix(path.Clean(pattern), "./")
		if !doublestar.ValidatePattern(pattern) {
			return nil, errors.Newf("invalid glob pattern %q", pattern)
		}
		if strings.HasPrefix(pattern, "/") || pattern == ".." || strings.HasPrefix(pattern, "../") {
			return nil, errors.Newf("glob pattern %q escapes the project root", pattern)
		}
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to expand %q", pattern)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Load discovers and loads every description matching patterns.
func (l *Loader) Load(patterns []string) ([]*File, error) {
	paths, err := l.Discover(patterns)
	if err != nil {
		return nil, err
	}
	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f, err := l.LoadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

// LoadFile decodes and validates one description. The format follows the
// extension: .yaml/.yml, .toml or .json. Unknown keys are errors.
func (l *Loader) LoadFile(name string) (*File, error) {
	data, err := afero.ReadFile(l.fs, name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", name)
	}

	var f File
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(errors.NewInvalidDescriptionError("%s: %v", name, err), "failed to parse YAML")
		}
	case ".toml":
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, errors.Wrap(errors.NewInvalidDescriptionError("%s: %v", name, err), "failed to parse TOML")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.NewInvalidDescriptionError("%s: unknown key %s", name, undecoded[0])
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		dec.UseNumber()
		if err := dec.Decode(&f); err != nil {
			return nil, errors.Wrap(errors.NewInvalidDescriptionError("%s: %v", name, err), "failed to parse JSON")
		}
	default:
		return nil, errors.WithHint(errors.NewInvalidDescriptionError("%s: unsupported extension %q", name, ext),
			"descriptions are .yaml, .yml, .toml or .json files")
	}

	if err := l.check(&f); err != nil {
		return nil, errors.Wrapf(err, "%s", name)
	}
	f.path = name
	normalizeDefaults(&f)
	return &f, nil
}

func (l *Loader) check(f *File) error {
	err := l.validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "failed to validate description")
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = fieldMessage(fe)
	}
	return errors.NewInvalidDescriptionError("%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "File.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "pyident":
		return field + " must be a Python identifier, got " + quoteValue(fe.Value())
	case "pymodule":
		return field + " must be a dotted Python name, got " + quoteValue(fe.Value())
	case "oneof":
		return field + " must be one of " + fe.Param() + ", got " + quoteValue(fe.Value())
	default:
		return field + " failed " + fe.Tag()
	}
}

func quoteValue(v any) string {
	s, _ := v.(string)
	return `"` + s + `"`
}

// normalizeDefaults turns JSON numbers into int64 or float64 so defaults
// render the same whichever format they were read from.
func normalizeDefaults(f *File) {
	fix := func(ps []Param) {
		for i := range ps {
			ps[i].Default = normalizeValue(ps[i].Default)
		}
	}
	for i := range f.Classes {
		for j := range f.Classes[i].Methods {
			fix(f.Classes[i].Methods[j].Params)
		}
	}
	for i := range f.Functions {
		fix(f.Functions[i].Params)
	}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalizeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = normalizeValue(item)
		}
		return out
	}
	return v
}

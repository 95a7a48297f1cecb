// Package writer places rendered stubs on a filesystem and checks existing
// stubs against freshly rendered ones.
package writer

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/logger"
	"github.com/teranos/pystub/stubgen"
)

const (
	// Ext is the stub file extension.
	Ext = ".pyi"
	// packageStub is the stub of a module that has submodules.
	packageStub = "__init__" + Ext
)

// Writer writes stubs under a root directory of fs.
type Writer struct {
	fs     afero.Fs
	root   string
	logger *zap.SugaredLogger
}

// New creates a writer rooted at root.
func New(fs afero.Fs, root string) *Writer {
	return &Writer{fs: fs, root: root, logger: logger.ComponentLogger("writer")}
}

// Paths maps each module name to its stub path relative to the root:
// a.b -> a/b.pyi, or a/b/__init__.pyi when a.b.c is also present.
func Paths(modules []string) map[string]string {
	parents := make(map[string]bool)
	for _, m := range modules {
		parts := strings.Split(m, ".")
		for i := 1; i < len(parts); i++ {
			parents[strings.Join(parts[:i], ".")] = true
		}
	}

	paths := make(map[string]string, len(modules))
	for _, m := range modules {
		dir := filepath.Join(strings.Split(m, ".")...)
		if parents[m] {
			paths[m] = filepath.Join(dir, packageStub)
		} else {
			paths[m] = dir + Ext
		}
	}
	return paths
}

func modulePaths(outputs []stubgen.Output) map[string]string {
	names := make([]string, len(outputs))
	for i, o := range outputs {
		names[i] = o.Module
	}
	return Paths(names)
}

// Result lists what a Write did, as root-relative paths.
type Result struct {
	Written   []string
	Unchanged []string
}

// Write writes every output. Files whose content already matches are not
// rewritten.
func (w *Writer) Write(outputs []stubgen.Output) (*Result, error) {
	paths := modulePaths(outputs)
	res := &Result{}

	for _, o := range outputs {
		rel := paths[o.Module]
		path := filepath.Join(w.root, rel)

		existing, err := afero.ReadFile(w.fs, path)
		if err == nil && bytes.Equal(existing, []byte(o.Text)) {
			res.Unchanged = append(res.Unchanged, rel)
			continue
		}
		if err != nil && !os.IsNotExist(err) {
			return res, errors.Wrapf(err, "failed to read %s", path)
		}

		if err := w.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return res, errors.Wrapf(err, "failed to create directory for %s", path)
		}
		if err := afero.WriteFile(w.fs, path, []byte(o.Text), 0o644); err != nil {
			return res, errors.Wrapf(err, "failed to write %s", path)
		}
		w.logger.Debugw("wrote stub", logger.FieldModule, o.Module, logger.FieldFile, path)
		res.Written = append(res.Written, rel)
	}
	return res, nil
}

// CheckResult holds the result of a stub check, as root-relative paths.
type CheckResult struct {
	UpToDate bool
	// Missing stubs have not been written yet.
	Missing []string
	// Different stubs exist with other content.
	Different []string
	// Orphaned stubs were generated earlier but no module produces them now.
	Orphaned []string
}

// Compare checks outputs against the stubs under the root. Line endings are
// ignored.
func (w *Writer) Compare(outputs []stubgen.Output) (*CheckResult, error) {
	paths := modulePaths(outputs)
	res := &CheckResult{}
	expected := make(map[string]bool, len(outputs))

	for _, o := range outputs {
		rel := paths[o.Module]
		expected[rel] = true

		existing, err := afero.ReadFile(w.fs, filepath.Join(w.root, rel))
		switch {
		case os.IsNotExist(err):
			res.Missing = append(res.Missing, rel)
		case err != nil:
			return nil, errors.Wrapf(err, "failed to read %s", rel)
		case normalizeLines(existing) != normalizeLines([]byte(o.Text)):
			res.Different = append(res.Different, rel)
		}
	}

	orphaned, err := w.generatedStubs()
	if err != nil {
		return nil, err
	}
	for _, rel := range orphaned {
		if !expected[rel] {
			res.Orphaned = append(res.Orphaned, rel)
		}
	}

	sort.Strings(res.Missing)
	sort.Strings(res.Different)
	sort.Strings(res.Orphaned)
	res.UpToDate = len(res.Missing) == 0 && len(res.Different) == 0 && len(res.Orphaned) == 0
	return res, nil
}

// generatedStubs lists the stubs under the root that carry the generated
// header, in walk order.
func (w *Writer) generatedStubs() ([]string, error) {
	exists, err := afero.DirExists(w.fs, w.root)
	if err != nil || !exists {
		return nil, err
	}

	var found []string
	err = afero.Walk(w.fs, w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || filepath.Ext(path) != Ext {
			return err
		}
		generated, err := hasMarker(w.fs, path)
		if err != nil {
			return err
		}
		if generated {
			rel, err := filepath.Rel(w.root, path)
			if err != nil {
				return err
			}
			found = append(found, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to scan %s", w.root)
	}
	return found, nil
}

func hasMarker(fs afero.Fs, path string) (bool, error) {
	f, err := fs.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return false, scanner.Err()
	}
	return strings.TrimRight(scanner.Text(), "\r") == stubgen.Marker, nil
}

// normalizeLines drops carriage returns so CRLF checkouts compare equal.
// Returns the empty string if the scanner fails, which makes the comparison
// report a difference.
func normalizeLines(content []byte) string {
	var result strings.Builder
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		result.WriteString(strings.TrimRight(scanner.Text(), "\r"))
		result.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return ""
	}
	return result.String()
}

package stubtype

import (
	"slices"
	"strings"
)

// ImportSet is an immutable, deduplicated set of Python module names.
// Members are kept sorted so equal sets compare equal and iterate the same way
// in every process.
type ImportSet struct {
	modules []string
}

// NewImportSet builds a set from module names; empty names are ignored.
func NewImportSet(modules ...string) ImportSet {
	var out []string
	for _, m := range modules {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return ImportSet{}
	}
	slices.Sort(out)
	return ImportSet{modules: slices.Compact(out)}
}

// Len returns the number of modules.
func (s ImportSet) Len() int { return len(s.modules) }

// Has reports whether module is in the set.
func (s ImportSet) Has(module string) bool {
	_, found := slices.BinarySearch(s.modules, module)
	return found
}

// Sorted returns the modules in lexicographic order. The caller owns the slice.
func (s ImportSet) Sorted() []string {
	return slices.Clone(s.modules)
}

// Union returns a new set holding the modules of s and other.
// Union is idempotent: s.Union(s) equals s.
func (s ImportSet) Union(other ImportSet) ImportSet {
	if other.Len() == 0 {
		return s
	}
	if s.Len() == 0 {
		return other
	}
	merged := make([]string, 0, len(s.modules)+len(other.modules))
	merged = append(merged, s.modules...)
	merged = append(merged, other.modules...)
	return NewImportSet(merged...)
}

// Without returns a copy of s lacking module.
func (s ImportSet) Without(module string) ImportSet {
	if !s.Has(module) {
		return s
	}
	var out []string
	for _, m := range s.modules {
		if m != module {
			out = append(out, m)
		}
	}
	return ImportSet{modules: out}
}

// MergeImports unions the imports of every TypeInfo given.
func MergeImports(types ...TypeInfo) ImportSet {
	var all []string
	for _, t := range types {
		all = append(all, t.imports.modules...)
	}
	return NewImportSet(all...)
}

// Package stubtype is the type-information model behind pystub.
//
// A TypeInfo pairs a Python annotation ("dict[str, datetime.datetime]") with
// the modules that annotation needs imported ({"datetime"}). Values are
// immutable; composite annotations are built by the constructors in
// composite.go, which only ever concatenate names and union imports.
package stubtype

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/teranos/pystub/errors"
)

// TypeInfo is a resolved Python type annotation plus its required imports.
// The zero value is invalid (empty name) and fails Validate.
type TypeInfo struct {
	name    string
	imports ImportSet
}

// New creates a TypeInfo from a literal annotation and the modules it needs.
func New(name string, modules ...string) TypeInfo {
	return TypeInfo{name: name, imports: NewImportSet(modules...)}
}

// Builtin creates a TypeInfo for a Python builtin that needs no import.
func Builtin(name string) TypeInfo {
	return TypeInfo{name: name}
}

// Qualified creates a TypeInfo for module.name, importing module.
func Qualified(module, name string) TypeInfo {
	return TypeInfo{name: module + "." + name, imports: NewImportSet(module)}
}

// ClassRef is the stub name of a declared class. References resolve to the
// name, never to the class structure, so self-referential classes terminate.
func ClassRef(module, class string) TypeInfo {
	if module == "" {
		return Builtin(class)
	}
	return Qualified(module, class)
}

// Common annotations.
var (
	None  = Builtin("None")
	Any   = Qualified("typing", "Any")
	Never = Qualified("typing", "Never")
)

// Name returns the Python annotation.
func (t TypeInfo) Name() string { return t.name }

// Imports returns the modules the annotation needs.
func (t TypeInfo) Imports() ImportSet { return t.imports }

// IsZero reports whether t was never constructed.
func (t TypeInfo) IsZero() bool { return t.name == "" && t.imports.Len() == 0 }

// String returns the annotation.
func (t TypeInfo) String() string { return t.name }

// WithImports returns a copy of t that also requires modules.
func (t TypeInfo) WithImports(modules ...string) TypeInfo {
	return TypeInfo{name: t.name, imports: t.imports.Union(NewImportSet(modules...))}
}

// dottedIdent matches qualified identifiers such as collections.abc.Iterator.
var dottedIdent = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)+`)

// Localize rewrites references qualified by module into bare names and drops
// module from the imports. Used when rendering a module's own classes.
func (t TypeInfo) Localize(module string) TypeInfo {
	if module == "" || !t.imports.Has(module) {
		return t
	}
	prefix := module + "."
	name := mapUnquoted(t.name, func(segment string) string {
		return dottedIdent.ReplaceAllStringFunc(segment, func(ident string) string {
			rest, ok := strings.CutPrefix(ident, prefix)
			if !ok || strings.Contains(rest, ".") && hasModulePrefix(ident, t.imports, module) {
				return ident
			}
			return rest
		})
	})
	return TypeInfo{name: name, imports: t.imports.Without(module)}
}

// hasModulePrefix reports whether ident is covered by an import longer than
// module (e.g. pkg.sub.Point under module pkg with pkg.sub imported).
func hasModulePrefix(ident string, imports ImportSet, module string) bool {
	for _, m := range imports.Sorted() {
		if len(m) > len(module) && strings.HasPrefix(ident, m+".") {
			return true
		}
	}
	return false
}

// Validate checks that the annotation can be rendered: the name is non-empty,
// brackets balance, and every dotted identifier is covered by an import.
func (t TypeInfo) Validate() error {
	if strings.TrimSpace(t.name) == "" {
		return errors.NewMalformedError("empty type name")
	}
	if err := checkBrackets(t.name); err != nil {
		return err
	}
	var missing []string
	mapUnquoted(t.name, func(segment string) string {
		for _, ident := range dottedIdent.FindAllString(segment, -1) {
			if !covered(ident, t.imports) {
				missing = append(missing, ident)
			}
		}
		return segment
	})
	if len(missing) > 0 {
		return errors.NewMalformedError("%q references %s without importing its module", t.name, strings.Join(missing, ", "))
	}
	return nil
}

func covered(ident string, imports ImportSet) bool {
	for _, m := range imports.Sorted() {
		if strings.HasPrefix(ident, m+".") {
			return true
		}
	}
	return false
}

func checkBrackets(name string) error {
	// subscript records, per open bracket, whether it follows a name.
	type open struct {
		r         rune
		subscript bool
	}
	var stack []open
	var quote, prev rune
	for _, r := range name {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case ' ':
			continue
		case '\'', '"':
			quote = r
		case '[', '(':
			stack = append(stack, open{r: r, subscript: r == '[' && (isIdentRune(prev) || prev == ']')})
		case ',':
			if prev == '[' || prev == '(' || prev == ',' {
				return errors.NewMalformedError("%q has an empty element", name)
			}
		case ']', ')':
			want := '['
			if r == ')' {
				want = '('
			}
			if len(stack) == 0 || stack[len(stack)-1].r != want {
				return errors.NewMalformedError("%q has unbalanced %q", name, r)
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if prev == ',' || (top.subscript && prev == '[') {
				return errors.NewMalformedError("%q has an empty element", name)
			}
		}
		prev = r
	}
	if quote != 0 {
		return errors.NewMalformedError("%q has an unterminated string literal", name)
	}
	if len(stack) > 0 {
		return errors.NewMalformedError("%q has unclosed %q", name, stack[len(stack)-1].r)
	}
	return nil
}

func isIdentRune(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// mapUnquoted applies fn to every segment of s outside string literals.
// Literal types (typing.Literal['a.b']) are left untouched.
func mapUnquoted(s string, fn func(string) string) string {
	var sb strings.Builder
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				sb.WriteString(s[start : i+1])
				start = i + 1
				quote = 0
			}
		case c == '\'' || c == '"':
			sb.WriteString(fn(s[start:i]))
			start = i
			quote = c
		}
	}
	if quote != 0 {
		sb.WriteString(s[start:])
	} else {
		sb.WriteString(fn(s[start:]))
	}
	return sb.String()
}

// unionMembers splits a top-level union ("a | b[c | d]") into its members.
func unionMembers(name string) []string {
	var members []string
	depth := 0
	var quote rune
	start := 0
	for i, r := range name {
		if quote != 0 {
			if r == quote {
				quote = 0
			}
			continue
		}
		switch r {
		case '\'', '"':
			quote = r
		case '[', '(':
			depth++
		case ']', ')':
			depth--
		case '|':
			if depth == 0 {
				members = append(members, strings.TrimSpace(name[start:i]))
				start = i + 1
			}
		}
	}
	return append(members, strings.TrimSpace(name[start:]))
}

// IsUnion reports whether the annotation is a top-level union.
func (t TypeInfo) IsUnion() bool {
	return len(unionMembers(t.name)) > 1
}

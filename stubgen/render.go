package stubgen

import (
	"fmt"
	"strings"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/stubtype"
)

// Marker is the first line of every generated stub.
const Marker = "# This file is automatically generated by pystub"

const (
	header = Marker + "\n# ruff: noqa: E501, F401\n"
	indent = "    "
)

var (
	enumBase   = stubtype.Qualified("enum", "Enum")
	finalDecor = stubtype.Qualified("typing", "final")
)

// MergeImports returns the sorted, deduplicated modules m's stub must import.
// The module's own name is never imported.
func MergeImports(m Module) []string {
	return collectTypes(m).Without(m.Name).Sorted()
}

func collectTypes(m Module) stubtype.ImportSet {
	var all []stubtype.TypeInfo
	params := func(ps []Param) {
		for _, p := range ps {
			all = append(all, p.Type)
		}
	}

	for _, v := range m.Variables {
		all = append(all, v.Type)
	}
	for _, c := range m.Classes {
		all = append(all, c.Bases...)
		if c.Final {
			all = append(all, finalDecor)
		}
		for _, f := range c.Fields {
			all = append(all, f.Type)
		}
		for _, meth := range c.Methods {
			params(meth.Params)
			all = append(all, meth.Return)
		}
	}
	for _, e := range m.Enums {
		all = append(all, enumBaseOf(e))
		for _, v := range e.Variants {
			if v.Type != nil {
				all = append(all, *v.Type)
			}
		}
	}
	for _, f := range m.Functions {
		params(f.Params)
		all = append(all, f.Return)
	}
	return stubtype.MergeImports(all...)
}

func enumBaseOf(e Enum) stubtype.TypeInfo {
	if e.Base.IsZero() {
		return enumBase
	}
	return e.Base
}

// Render produces the stub text of m. Every typed position is validated first;
// the first failure aborts rendering with an error naming the symbol.
func Render(m Module) (string, error) {
	if err := Validate(m); err != nil {
		return "", err
	}

	r := renderer{module: m.Name}
	var sb strings.Builder

	sb.WriteString(header)
	if m.Doc != "" {
		sb.WriteString("\n")
		writeDoc(&sb, "", m.Doc)
	}
	if imports := MergeImports(m); len(imports) > 0 {
		sb.WriteString("\n")
		for _, imp := range imports {
			fmt.Fprintf(&sb, "import %s\n", imp)
		}
	}

	sb.WriteString("\n")
	symbols := m.Symbols()
	if len(symbols) == 0 {
		sb.WriteString("__all__ = []\n")
	} else {
		sb.WriteString("__all__ = [\n")
		for _, name := range symbols {
			fmt.Fprintf(&sb, "%s%q,\n", indent, name)
		}
		sb.WriteString("]\n")
	}

	var blocks []string
	if len(m.Variables) > 0 {
		var vb strings.Builder
		for _, v := range m.Variables {
			fmt.Fprintf(&vb, "%s: %s\n", pythonIdent(v.Name), r.typ(v.Type))
			writeDoc(&vb, "", v.Doc)
		}
		blocks = append(blocks, vb.String())
	}
	for _, c := range m.Classes {
		block, err := r.class(c)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}
	for _, e := range m.Enums {
		blocks = append(blocks, r.enum(e))
	}
	for _, f := range m.Functions {
		block, err := r.function(f)
		if err != nil {
			return "", err
		}
		blocks = append(blocks, block)
	}

	for _, block := range blocks {
		sb.WriteString("\n")
		sb.WriteString(block)
	}
	return sb.String(), nil
}

// renderer writes annotations relative to the module being rendered.
type renderer struct {
	module string
}

func (r renderer) typ(t stubtype.TypeInfo) string {
	return t.Localize(r.module).Name()
}

func (r renderer) returns(t stubtype.TypeInfo) string {
	if t.IsZero() {
		return stubtype.None.Name()
	}
	return r.typ(t)
}

func (r renderer) class(c Class) (string, error) {
	var sb strings.Builder

	if c.Final {
		fmt.Fprintf(&sb, "@%s\n", finalDecor.Name())
	}
	sb.WriteString("class " + pythonIdent(c.Name))
	if len(c.Bases) > 0 {
		bases := make([]string, len(c.Bases))
		for i, b := range c.Bases {
			bases[i] = r.typ(b)
		}
		sb.WriteString("(" + strings.Join(bases, ", ") + ")")
	}

	if c.Doc == "" && len(c.Fields) == 0 && len(c.Methods) == 0 {
		sb.WriteString(": ...\n")
		return sb.String(), nil
	}
	sb.WriteString(":\n")
	writeDoc(&sb, indent, c.Doc)

	for _, f := range c.Fields {
		if f.ReadOnly {
			sb.WriteString(indent + "@property\n")
			r.def(&sb, indent, pythonIdent(f.Name), "self", nil, f.Type, f.Doc)
			continue
		}
		fmt.Fprintf(&sb, "%s%s: %s\n", indent, pythonIdent(f.Name), r.typ(f.Type))
		writeDoc(&sb, indent, f.Doc)
	}
	for _, m := range c.Methods {
		if err := r.method(&sb, c, m); err != nil {
			return "", err
		}
	}
	return sb.String(), nil
}

func (r renderer) method(sb *strings.Builder, c Class, m Method) error {
	name, receiver := pythonIdent(m.Name), m.Kind.receiver()
	ret := m.Return
	switch m.Kind {
	case MethodStatic:
		sb.WriteString(indent + "@staticmethod\n")
	case MethodClass:
		sb.WriteString(indent + "@classmethod\n")
	case MethodNew:
		name = "__new__"
		if ret.IsZero() {
			ret = stubtype.Builtin(c.Name)
		}
	}
	params, err := r.params(m.Params)
	if err != nil {
		return errors.Wrapf(err, "%s.%s", c.Name, name)
	}
	r.def(sb, indent, name, receiver, params, ret, m.Doc)
	return nil
}

func (r renderer) function(f Function) (string, error) {
	params, err := r.params(f.Params)
	if err != nil {
		return "", errors.Wrapf(err, "%s", f.Name)
	}
	var sb strings.Builder
	r.def(&sb, "", pythonIdent(f.Name), "", params, f.Return, f.Doc)
	return sb.String(), nil
}

// def writes a function definition. A docstring replaces the "..." body.
func (r renderer) def(sb *strings.Builder, prefix, name, receiver string, params []string, ret stubtype.TypeInfo, doc string) {
	if receiver != "" {
		params = append([]string{receiver}, params...)
	}
	fmt.Fprintf(sb, "%sdef %s(%s) -> %s:", prefix, name, strings.Join(params, ", "), r.returns(ret))
	if doc == "" {
		sb.WriteString(" ...\n")
		return
	}
	sb.WriteString("\n")
	writeDoc(sb, prefix+indent, doc)
}

// params renders a parameter list, inserting "/" after positional-only
// parameters and "*" before keyword-only ones when no *args precedes them.
func (r renderer) params(ps []Param) ([]string, error) {
	var out []string
	hasPositionalOnly, starred := false, false

	for i, p := range ps {
		if hasPositionalOnly && p.Kind != ParamPositionalOnly {
			out = append(out, "/")
			hasPositionalOnly = false
		}
		switch p.Kind {
		case ParamPositionalOnly:
			hasPositionalOnly = true
		case ParamVarPositional:
			starred = true
		case ParamKeywordOnly:
			if !starred {
				out = append(out, "*")
				starred = true
			}
		}

		var sb strings.Builder
		switch p.Kind {
		case ParamVarPositional:
			sb.WriteString("*")
		case ParamVarKeyword:
			sb.WriteString("**")
		}
		fmt.Fprintf(&sb, "%s: %s", pythonIdent(p.Name), r.typ(p.Type))
		if p.Default != nil {
			lit, err := Literal(p.Default)
			if err != nil {
				return nil, errors.Wrapf(err, "parameter %d (%s)", i, p.Name)
			}
			sb.WriteString(" = " + lit)
		}
		out = append(out, sb.String())
	}
	if hasPositionalOnly {
		out = append(out, "/")
	}
	return out, nil
}

func (r renderer) enum(e Enum) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "class %s(%s)", pythonIdent(e.Name), r.typ(enumBaseOf(e)))
	if e.Doc == "" && len(e.Variants) == 0 {
		sb.WriteString(": ...\n")
		return sb.String()
	}
	sb.WriteString(":\n")
	writeDoc(&sb, indent, e.Doc)
	for _, v := range e.Variants {
		if v.Type != nil {
			fmt.Fprintf(&sb, "%s%s: %s = ...\n", indent, pythonIdent(v.Name), r.typ(*v.Type))
		} else {
			fmt.Fprintf(&sb, "%s%s = ...\n", indent, pythonIdent(v.Name))
		}
		writeDoc(&sb, indent, v.Doc)
	}
	return sb.String()
}

// writeDoc writes a raw docstring block at the given indentation.
func writeDoc(sb *strings.Builder, prefix, doc string) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return
	}
	doc = strings.ReplaceAll(doc, `"""`, `\"\"\"`)
	sb.WriteString(prefix + "r\"\"\"\n")
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(prefix + line + "\n")
	}
	sb.WriteString(prefix + "\"\"\"\n")
}

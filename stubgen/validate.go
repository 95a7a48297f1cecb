package stubgen

import (
	"fmt"
	"strings"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/stubtype"
)

// Validate checks that m can be rendered: names are identifiers and unique,
// parameter lists are well formed and every annotation passes
// stubtype.TypeInfo.Validate. Errors carry the path of the offending symbol,
// e.g. "Point.distance(other)".
func Validate(m Module) error {
	if m.Name == "" {
		return errors.NewInvalidDescriptionError("module has no name")
	}
	for _, part := range strings.Split(m.Name, ".") {
		if !isIdentifier(part) {
			return errors.NewInvalidDescriptionError("module name %q is not a dotted Python identifier", m.Name)
		}
	}

	seen := make(map[string]bool)
	declare := func(name string) error {
		if !isIdentifier(name) {
			return errors.NewInvalidDescriptionError("%s.%s: not a Python identifier", m.Name, name)
		}
		if seen[pythonIdent(name)] {
			return errors.NewInvalidDescriptionError("%s.%s: declared more than once", m.Name, name)
		}
		seen[pythonIdent(name)] = true
		return nil
	}

	for _, v := range m.Variables {
		if err := declare(v.Name); err != nil {
			return err
		}
		if err := checkType(v.Type, v.Name); err != nil {
			return err
		}
	}
	for _, c := range m.Classes {
		if err := declare(c.Name); err != nil {
			return err
		}
		if err := validateClass(c); err != nil {
			return err
		}
	}
	for _, e := range m.Enums {
		if err := declare(e.Name); err != nil {
			return err
		}
		if err := validateEnum(e); err != nil {
			return err
		}
	}
	for _, f := range m.Functions {
		if err := declare(f.Name); err != nil {
			return err
		}
		if err := validateSignature(f.Name, "", f.Params, f.Return); err != nil {
			return err
		}
	}
	return nil
}

func checkType(t stubtype.TypeInfo, path string) error {
	if err := t.Validate(); err != nil {
		return errors.Wrapf(err, "%s", path)
	}
	return nil
}

func validateClass(c Class) error {
	for i, b := range c.Bases {
		if err := checkType(b, fmt.Sprintf("%s(base %d)", c.Name, i)); err != nil {
			return err
		}
	}

	members := make(map[string]bool)
	member := func(name string) error {
		path := c.Name + "." + name
		if !isIdentifier(name) {
			return errors.NewInvalidDescriptionError("%s: not a Python identifier", path)
		}
		if members[pythonIdent(name)] {
			return errors.NewInvalidDescriptionError("%s: declared more than once", path)
		}
		members[pythonIdent(name)] = true
		return nil
	}

	for _, f := range c.Fields {
		if err := member(f.Name); err != nil {
			return err
		}
		if err := checkType(f.Type, c.Name+"."+f.Name); err != nil {
			return err
		}
	}
	for _, m := range c.Methods {
		name := m.Name
		if m.Kind == MethodNew {
			name = "__new__"
		}
		if err := member(name); err != nil {
			return err
		}
		if err := validateSignature(c.Name+"."+name, m.Kind.receiver(), m.Params, m.Return); err != nil {
			return err
		}
	}
	return nil
}

func validateEnum(e Enum) error {
	if !e.Base.IsZero() {
		if err := checkType(e.Base, e.Name+"(base)"); err != nil {
			return err
		}
	}
	seen := make(map[string]bool)
	for _, v := range e.Variants {
		path := e.Name + "." + v.Name
		if !isIdentifier(v.Name) {
			return errors.NewInvalidDescriptionError("%s: not a Python identifier", path)
		}
		if seen[pythonIdent(v.Name)] {
			return errors.NewInvalidDescriptionError("%s: declared more than once", path)
		}
		seen[pythonIdent(v.Name)] = true
		if v.Type != nil {
			if err := checkType(*v.Type, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// validateSignature enforces Python's parameter order: positional-only,
// positional, *args, keyword-only, **kwargs, with no defaultless positional
// parameter after a defaulted one. receiver names the implicit first
// parameter, if any.
func validateSignature(path, receiver string, params []Param, ret stubtype.TypeInfo) error {
	names := make(map[string]bool)
	if receiver != "" {
		names[receiver] = true
	}
	rank, defaulted := -1, false
	var varPositional, varKeyword bool

	for _, p := range params {
		at := fmt.Sprintf("%s(%s)", path, p.Name)
		if !isIdentifier(p.Name) {
			return errors.NewInvalidDescriptionError("%s: not a Python identifier", at)
		}
		if names[pythonIdent(p.Name)] {
			return errors.NewInvalidDescriptionError("%s: duplicate parameter", at)
		}
		names[pythonIdent(p.Name)] = true

		if p.Kind.rank() < rank {
			return errors.NewInvalidDescriptionError("%s: %s parameter out of order", at, p.Kind)
		}
		rank = p.Kind.rank()

		switch p.Kind {
		case ParamVarPositional:
			if varPositional {
				return errors.NewInvalidDescriptionError("%s: more than one *args parameter", at)
			}
			varPositional = true
		case ParamVarKeyword:
			if varKeyword {
				return errors.NewInvalidDescriptionError("%s: more than one **kwargs parameter", at)
			}
			varKeyword = true
		}

		switch p.Kind {
		case ParamVarPositional, ParamVarKeyword:
			if p.Default != nil {
				return errors.NewInvalidDescriptionError("%s: %s parameter cannot have a default", at, p.Kind)
			}
		case ParamPositionalOnly, ParamPositional:
			if p.Default != nil {
				defaulted = true
			} else if defaulted {
				return errors.NewInvalidDescriptionError("%s: parameter without default follows a parameter with one", at)
			}
		}

		if p.Default != nil {
			if _, err := Literal(p.Default); err != nil {
				return errors.Wrapf(err, "%s", at)
			}
		}
		if err := checkType(p.Type, at); err != nil {
			return err
		}
	}

	if !ret.IsZero() {
		return checkType(ret, path+"(return)")
	}
	return nil
}

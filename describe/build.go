package describe

import (
	"strings"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/registry"
	"github.com/teranos/pystub/stubgen"
	"github.com/teranos/pystub/stubtype"
)

// Options tunes how descriptions become modules.
type Options struct {
	// FinalClasses marks every class final.
	FinalClasses bool
}

var paramKinds = map[string]stubgen.ParamKind{
	"":                stubgen.ParamPositional,
	"positional":      stubgen.ParamPositional,
	"positional_only": stubgen.ParamPositionalOnly,
	"keyword_only":    stubgen.ParamKeywordOnly,
	"var_positional":  stubgen.ParamVarPositional,
	"var_keyword":     stubgen.ParamVarKeyword,
}

var methodKinds = map[string]stubgen.MethodKind{
	"":         stubgen.MethodInstance,
	"instance": stubgen.MethodInstance,
	"static":   stubgen.MethodStatic,
	"class":    stubgen.MethodClass,
	"new":      stubgen.MethodNew,
}

// Declare registers every class and enum of files with res, so type
// expressions anywhere in the run can refer to them by name.
func Declare(res *registry.Resolver, files []*File) error {
	for _, f := range files {
		for _, c := range f.Classes {
			if err := res.Declare(registry.ClassDecl{Module: f.Module, Name: c.Name, Frozen: c.Frozen}); err != nil {
				return errors.Wrapf(err, "%s", f.path)
			}
		}
		for _, e := range f.Enums {
			if err := res.Declare(registry.ClassDecl{Module: f.Module, Name: e.Name, Frozen: true}); err != nil {
				return errors.Wrapf(err, "%s", f.path)
			}
		}
	}
	return nil
}

// Build declares the classes of files and resolves every description into a
// module. Parameters resolve at the input position; fields, variables and
// returns at the output position.
func Build(res *registry.Resolver, files []*File, opts Options) ([]stubgen.Module, error) {
	if err := Declare(res, files); err != nil {
		return nil, err
	}
	modules := make([]stubgen.Module, 0, len(files))
	for _, f := range files {
		m, err := BuildModule(res, f, opts)
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// BuildModule resolves one description. Its classes must already be declared.
func BuildModule(res *registry.Resolver, f *File, opts Options) (stubgen.Module, error) {
	b := builder{res: res, module: f.Module}
	m := stubgen.Module{Name: f.Module, Doc: f.Doc}

	for _, v := range f.Variables {
		t, err := b.resolve(v.Type, stubtype.Output, v.Name)
		if err != nil {
			return stubgen.Module{}, b.fail(f, err)
		}
		m.Variables = append(m.Variables, stubgen.Variable{Name: v.Name, Doc: v.Doc, Type: t})
	}
	for _, c := range f.Classes {
		class, err := b.class(c, opts)
		if err != nil {
			return stubgen.Module{}, b.fail(f, err)
		}
		m.Classes = append(m.Classes, class)
	}
	for _, e := range f.Enums {
		enum, err := b.enum(e)
		if err != nil {
			return stubgen.Module{}, b.fail(f, err)
		}
		m.Enums = append(m.Enums, enum)
	}
	for _, fn := range f.Functions {
		params, err := b.params(fn.Name, fn.Params)
		if err != nil {
			return stubgen.Module{}, b.fail(f, err)
		}
		ret, err := b.returns(fn.Returns, fn.Name)
		if err != nil {
			return stubgen.Module{}, b.fail(f, err)
		}
		m.Functions = append(m.Functions, stubgen.Function{Name: fn.Name, Doc: fn.Doc, Params: params, Return: ret})
	}
	return m, nil
}

type builder struct {
	res    *registry.Resolver
	module string
}

func (b builder) fail(f *File, err error) error {
	if f.path == "" {
		return errors.Wrapf(err, "module %s", f.Module)
	}
	return errors.Wrapf(err, "%s (module %s)", f.path, f.Module)
}

func (b builder) resolve(expr string, pos stubtype.Position, path string) (stubtype.TypeInfo, error) {
	t, err := b.res.Resolve(b.module, expr, pos)
	if err != nil {
		return stubtype.TypeInfo{}, errors.Wrapf(err, "%s", path)
	}
	return t, nil
}

func (b builder) returns(expr, path string) (stubtype.TypeInfo, error) {
	if strings.TrimSpace(expr) == "" {
		return stubtype.TypeInfo{}, nil
	}
	return b.resolve(expr, stubtype.Output, path+"(return)")
}

func (b builder) class(c Class, opts Options) (stubgen.Class, error) {
	out := stubgen.Class{
		Name:   c.Name,
		Doc:    c.Doc,
		Frozen: c.Frozen,
		Final:  c.Final || opts.FinalClasses,
	}
	for _, base := range c.Bases {
		t, err := b.resolve(base, stubtype.Output, c.Name+"(base)")
		if err != nil {
			return stubgen.Class{}, err
		}
		out.Bases = append(out.Bases, t)
	}
	for _, f := range c.Fields {
		t, err := b.resolve(f.Type, stubtype.Output, c.Name+"."+f.Name)
		if err != nil {
			return stubgen.Class{}, err
		}
		out.Fields = append(out.Fields, stubgen.Field{Name: f.Name, Doc: f.Doc, Type: t, ReadOnly: f.ReadOnly})
	}
	for _, m := range c.Methods {
		kind := methodKinds[m.Kind]
		if kind != stubgen.MethodNew && m.Name == "" {
			return stubgen.Class{}, errors.NewInvalidDescriptionError("%s: %s method has no name", c.Name, kind)
		}
		path := c.Name + "." + m.Name
		if kind == stubgen.MethodNew {
			path = c.Name + ".__new__"
		}
		params, err := b.params(path, m.Params)
		if err != nil {
			return stubgen.Class{}, err
		}
		ret, err := b.returns(m.Returns, path)
		if err != nil {
			return stubgen.Class{}, err
		}
		out.Methods = append(out.Methods, stubgen.Method{Name: m.Name, Doc: m.Doc, Kind: kind, Params: params, Return: ret})
	}
	return out, nil
}

func (b builder) params(path string, ps []Param) ([]stubgen.Param, error) {
	out := make([]stubgen.Param, 0, len(ps))
	for _, p := range ps {
		t, err := b.resolve(p.Type, stubtype.Input, path+"("+p.Name+")")
		if err != nil {
			return nil, err
		}
		param := stubgen.Param{Name: p.Name, Type: t, Kind: paramKinds[p.Kind], Default: p.Default}
		if p.Default == nil && p.HasDefault {
			param.Default = stubgen.Expr("None")
		}
		if p.DefaultExpr != "" {
			param.Default = stubgen.Expr(p.DefaultExpr)
		}
		out = append(out, param)
	}
	return out, nil
}

func (b builder) enum(e Enum) (stubgen.Enum, error) {
	out := stubgen.Enum{Name: e.Name, Doc: e.Doc}
	if e.Base != "" {
		module, name, ok := cutLast(e.Base, ".")
		if !ok {
			return stubgen.Enum{}, errors.NewInvalidDescriptionError("%s: enum base %q must be qualified, e.g. enum.IntEnum", e.Name, e.Base)
		}
		out.Base = stubtype.Qualified(module, name)
	}
	for _, v := range e.Variants {
		variant := stubgen.Variant{Name: v.Name, Doc: v.Doc}
		if v.Type != "" {
			t, err := b.resolve(v.Type, stubtype.Output, e.Name+"."+v.Name)
			if err != nil {
				return stubgen.Enum{}, err
			}
			variant.Type = &t
		}
		out.Variants = append(out.Variants, variant)
	}
	return out, nil
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

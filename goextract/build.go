package goextract

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"strings"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/registry"
	"github.com/teranos/pystub/stubgen"
	"github.com/teranos/pystub/stubtype"
)

var (
	errorType = types.Universe.Lookup("error").Type()
	intEnum   = stubtype.Qualified("enum", "IntEnum")
)

type builder struct {
	res    *registry.Resolver
	scan   *scan
	owners map[*types.TypeName]registry.ClassDecl
	final  bool
}

func (b *builder) module() (stubgen.Module, error) {
	s := b.scan
	m := stubgen.Module{Name: s.module, Doc: s.doc}

	for _, c := range s.classes {
		class, err := b.class(c)
		if err != nil {
			return stubgen.Module{}, err
		}
		m.Classes = append(m.Classes, class)
	}
	for _, en := range s.enums {
		m.Enums = append(m.Enums, b.enum(en))
	}
	for _, fn := range s.functions {
		params, ret, err := b.signature(fn.name, fn.decl)
		if err != nil {
			return stubgen.Module{}, err
		}
		m.Functions = append(m.Functions, stubgen.Function{
			Name:   fn.name,
			Doc:    fn.decl.Doc.Text(),
			Params: params,
			Return: ret,
		})
	}
	return m, nil
}

func (b *builder) class(c *classSpec) (stubgen.Class, error) {
	out := stubgen.Class{
		Name:   c.name,
		Doc:    c.doc,
		Frozen: c.frozen,
		Final:  c.final || b.final,
	}

	for _, field := range c.fields.List {
		// Embedded fields are not exposed
		if len(field.Names) == 0 {
			continue
		}
		tags := parseFieldTags(field.Tag)
		if tags.skip {
			continue
		}
		for _, ident := range field.Names {
			if !ident.IsExported() {
				continue
			}
			name := tags.name
			if name == "" {
				name = ToSnakeCase(ident.Name)
			}
			path := c.name + "." + name

			var (
				t   stubtype.TypeInfo
				err error
			)
			if tags.typeExpr != "" {
				t, err = b.res.Resolve(b.scan.module, tags.typeExpr, stubtype.Output)
			} else {
				t, err = b.resolve(b.scan.pkg.TypesInfo.TypeOf(field.Type), stubtype.Output)
			}
			if err != nil {
				return stubgen.Class{}, b.fail(err, path, ident.Pos())
			}

			doc := field.Doc.Text()
			if doc == "" {
				doc = field.Comment.Text()
			}
			out.Fields = append(out.Fields, stubgen.Field{Name: name, Doc: doc, Type: t, ReadOnly: tags.readOnly})
		}
	}

	for _, ctor := range c.ctors {
		params, ret, err := b.signature(c.name+".__new__", ctor)
		if err != nil {
			return stubgen.Class{}, err
		}
		out.Methods = append(out.Methods, stubgen.Method{
			Kind:   stubgen.MethodNew,
			Doc:    ctor.Doc.Text(),
			Params: params,
			Return: ret,
		})
	}
	for _, fn := range c.methods {
		name := ToSnakeCase(fn.Name.Name)
		params, ret, err := b.signature(c.name+"."+name, fn)
		if err != nil {
			return stubgen.Class{}, err
		}
		out.Methods = append(out.Methods, stubgen.Method{
			Name:   name,
			Doc:    fn.Doc.Text(),
			Kind:   stubgen.MethodInstance,
			Params: params,
			Return: ret,
		})
	}
	return out, nil
}

func (b *builder) enum(en *enumSpec) stubgen.Enum {
	out := stubgen.Enum{Name: en.name, Doc: en.doc}
	if basic, ok := en.obj.Type().Underlying().(*types.Basic); ok && basic.Info()&types.IsInteger != 0 {
		out.Base = intEnum
	}
	for _, v := range en.variants {
		out.Variants = append(out.Variants, stubgen.Variant{
			Name: ToScreamingSnake(v.ident.Name, en.obj.Name()),
			Doc:  v.doc,
		})
	}
	return out
}

// signature converts a function's parameters and results. context.Context
// parameters are supplied by the bridge and omitted; a trailing error result
// becomes a raised exception.
func (b *builder) signature(path string, fn *ast.FuncDecl) ([]stubgen.Param, stubtype.TypeInfo, error) {
	obj, ok := b.scan.pkg.TypesInfo.Defs[fn.Name].(*types.Func)
	if !ok {
		return nil, stubtype.TypeInfo{}, errors.AssertionFailedf("no type information for %s", fn.Name.Name)
	}
	sig := obj.Type().(*types.Signature)

	var params []stubgen.Param
	for i := 0; i < sig.Params().Len(); i++ {
		v := sig.Params().At(i)
		if isContext(v.Type()) {
			continue
		}
		name := v.Name()
		if name == "" || name == "_" {
			name = fmt.Sprintf("arg%d", i)
		}
		name = ToSnakeCase(name)

		t, kind := v.Type(), stubgen.ParamPositional
		if sig.Variadic() && i == sig.Params().Len()-1 {
			t, kind = t.(*types.Slice).Elem(), stubgen.ParamVarPositional
		}
		info, err := b.resolve(t, stubtype.Input)
		if err != nil {
			return nil, stubtype.TypeInfo{}, b.fail(err, path+"("+name+")", v.Pos())
		}
		params = append(params, stubgen.Param{Name: name, Type: info, Kind: kind})
	}

	n := sig.Results().Len()
	if n > 0 && types.Identical(sig.Results().At(n-1).Type(), errorType) {
		n--
	}
	results := make([]stubtype.TypeInfo, 0, n)
	for i := 0; i < n; i++ {
		info, err := b.resolve(sig.Results().At(i).Type(), stubtype.Output)
		if err != nil {
			return nil, stubtype.TypeInfo{}, b.fail(err, path+"(return)", fn.Pos())
		}
		results = append(results, info)
	}

	switch len(results) {
	case 0:
		return params, stubtype.TypeInfo{}, nil
	case 1:
		return params, results[0], nil
	default:
		return params, stubtype.TupleOf(results...), nil
	}
}

func (b *builder) fail(err error, path string, pos token.Pos) error {
	return errors.Wrapf(err, "%s: %s", b.scan.position(pos), path)
}

func (b *builder) resolve(t types.Type, pos stubtype.Position) (stubtype.TypeInfo, error) {
	return b.res.Resolve(b.scan.module, b.expr(t), pos)
}

func isContext(t types.Type) bool {
	named, ok := types.Unalias(t).(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == "context" && obj.Name() == "Context"
}

// expr writes t as a type expression the resolver understands. Declared
// classes become their (module-qualified) Python names, names the resolver
// knows are kept, and other named types are replaced by their underlying
// type.
func (b *builder) expr(t types.Type) string {
	switch t := types.Unalias(t).(type) {
	case *types.Named:
		obj := t.Origin().Obj()
		if c, ok := b.owners[obj]; ok {
			if c.Module == b.scan.module {
				return c.Name
			}
			return c.Module + "." + c.Name
		}
		if obj.Pkg() == nil {
			return obj.Name()
		}
		name := obj.Pkg().Name() + "." + obj.Name()
		if b.res.Known(b.scan.module, name) {
			return name + b.typeArgs(t)
		}
		switch t.Underlying().(type) {
		case *types.Struct, *types.Interface:
			// Left for the resolver to report as unmapped
			return name + b.typeArgs(t)
		}
		return b.expr(t.Underlying())

	case *types.Pointer:
		return "*" + b.expr(t.Elem())
	case *types.Slice:
		return "[]" + b.expr(t.Elem())
	case *types.Array:
		return fmt.Sprintf("[%d]%s", t.Len(), b.expr(t.Elem()))
	case *types.Map:
		return "map[" + b.expr(t.Key()) + "]" + b.expr(t.Elem())
	case *types.Basic:
		return t.Name()
	case *types.Interface:
		if t.Empty() {
			return "any"
		}
	case *types.Struct:
		if t.NumFields() == 0 {
			return "struct{}"
		}
	case *types.Signature:
		return b.funcExpr(t)
	}
	return types.TypeString(t, func(p *types.Package) string { return p.Name() })
}

func (b *builder) typeArgs(t *types.Named) string {
	args := t.TypeArgs()
	if args.Len() == 0 {
		return ""
	}
	parts := make([]string, args.Len())
	for i := range parts {
		parts[i] = b.expr(args.At(i))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (b *builder) funcExpr(sig *types.Signature) string {
	params := make([]string, sig.Params().Len())
	for i := range params {
		params[i] = b.expr(sig.Params().At(i).Type())
	}
	results := make([]string, sig.Results().Len())
	for i := range results {
		results[i] = b.expr(sig.Results().At(i).Type())
	}

	s := "func(" + strings.Join(params, ", ") + ")"
	switch len(results) {
	case 0:
		return s
	case 1:
		return s + " " + results[0]
	default:
		return s + " (" + strings.Join(results, ", ") + ")"
	}
}

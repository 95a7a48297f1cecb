// Package goextract builds module descriptions from annotated Go packages.
//
// Types and functions opt in with comment directives:
//
//	//pystub:module geometry          (package doc) Python module name
//	//pystub:class [Name] [frozen] [final]
//	//pystub:enum [Name]              named type whose constants are members
//	//pystub:function [name]
//	//pystub:new                      constructor of the class it returns
//	//pystub:skip                     exclude an exported method
//
// Exported fields and methods of a class are exposed under snake_case names.
// Struct tags refine fields: json:"name" renames, pystub:"-" skips,
// pystub:"readonly" makes a property, pytype:"expr" overrides the type.
package goextract

import (
	"go/ast"
	"go/token"
	"go/types"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/registry"
	"github.com/teranos/pystub/stubgen"
)

const directivePrefix = "//pystub:"

// Options configures extraction.
type Options struct {
	// Dir is the directory patterns are resolved from.
	Dir string
	// FinalClasses marks every class final.
	FinalClasses bool
}

// Extractor turns annotated Go packages into stubgen modules.
type Extractor struct {
	res  *registry.Resolver
	opts Options
}

// New creates an extractor that resolves types with res.
func New(res *registry.Resolver, opts Options) *Extractor {
	return &Extractor{res: res, opts: opts}
}

// Extract loads the packages matching patterns, declares their classes and
// enums with the resolver, and returns one module per package that exposes
// anything. Modules are ordered by package path.
func (e *Extractor) Extract(patterns ...string) ([]stubgen.Module, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
		Dir:  e.opts.Dir,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load packages %s", strings.Join(patterns, " "))
	}
	if len(pkgs) == 0 {
		return nil, errors.Newf("no packages found for %s", strings.Join(patterns, " "))
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].PkgPath < pkgs[j].PkgPath })

	var scans []*scan
	for _, pkg := range pkgs {
		if len(pkg.Errors) > 0 {
			return nil, errors.Newf("package %s: %v", pkg.PkgPath, pkg.Errors[0])
		}
		s, err := scanPackage(pkg)
		if err != nil {
			return nil, err
		}
		if !s.empty() {
			scans = append(scans, s)
		}
	}

	owners := make(map[*types.TypeName]registry.ClassDecl)
	for _, s := range scans {
		for _, c := range s.classes {
			decl := registry.ClassDecl{Module: s.module, Name: c.name, Frozen: c.frozen}
			if err := e.res.Declare(decl); err != nil {
				return nil, errors.Wrapf(err, "%s", s.position(c.pos))
			}
			owners[c.obj] = decl
		}
		for _, en := range s.enums {
			decl := registry.ClassDecl{Module: s.module, Name: en.name, Frozen: true}
			if err := e.res.Declare(decl); err != nil {
				return nil, errors.Wrapf(err, "%s", s.position(en.pos))
			}
			owners[en.obj] = decl
		}
	}

	modules := make([]stubgen.Module, 0, len(scans))
	for _, s := range scans {
		b := &builder{res: e.res, scan: s, owners: owners, final: e.opts.FinalClasses}
		m, err := b.module()
		if err != nil {
			return nil, errors.Wrapf(err, "package %s", s.pkg.PkgPath)
		}
		modules = append(modules, m)
	}
	return modules, nil
}

type directive struct {
	verb string
	args []string
}

func parseDirectives(groups ...*ast.CommentGroup) []directive {
	var out []directive
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			rest, ok := strings.CutPrefix(c.Text, directivePrefix)
			if !ok {
				continue
			}
			fields := strings.Fields(rest)
			if len(fields) == 0 {
				continue
			}
			out = append(out, directive{verb: fields[0], args: fields[1:]})
		}
	}
	return out
}

func findDirective(ds []directive, verb string) (directive, bool) {
	for _, d := range ds {
		if d.verb == verb {
			return d, true
		}
	}
	return directive{}, false
}

type classSpec struct {
	obj     *types.TypeName
	pos     token.Pos
	name    string
	doc     string
	frozen  bool
	final   bool
	fields  *ast.FieldList
	methods []*ast.FuncDecl
	ctors   []*ast.FuncDecl
}

type enumSpec struct {
	obj      *types.TypeName
	pos      token.Pos
	name     string
	doc      string
	variants []constSpec
}

type constSpec struct {
	ident *ast.Ident
	doc   string
}

type funcSpec struct {
	decl *ast.FuncDecl
	name string
}

// scan is what one package exposes, in source order.
type scan struct {
	pkg       *packages.Package
	module    string
	doc       string
	classes   []*classSpec
	enums     []*enumSpec
	functions []funcSpec
}

func (s *scan) empty() bool {
	return len(s.classes) == 0 && len(s.enums) == 0 && len(s.functions) == 0
}

func (s *scan) position(pos token.Pos) string {
	return s.pkg.Fset.Position(pos).String()
}

func scanPackage(pkg *packages.Package) (*scan, error) {
	s := &scan{pkg: pkg, module: pkg.Name}

	files := append([]*ast.File(nil), pkg.Syntax...)
	sort.Slice(files, func(i, j int) bool {
		return pkg.Fset.Position(files[i].Pos()).Filename < pkg.Fset.Position(files[j].Pos()).Filename
	})

	classesByObj := make(map[*types.TypeName]*classSpec)
	enumsByObj := make(map[*types.TypeName]*enumSpec)
	var methods, ctors []*ast.FuncDecl
	var consts []constSpec

	for _, file := range files {
		if d, ok := findDirective(parseDirectives(file.Doc), "module"); ok && len(d.args) > 0 {
			s.module = d.args[0]
		}
		if s.doc == "" && file.Doc != nil {
			s.doc = file.Doc.Text()
		}

		for _, decl := range file.Decls {
			switch decl := decl.(type) {
			case *ast.GenDecl:
				switch decl.Tok {
				case token.TYPE:
					for _, spec := range decl.Specs {
						ts := spec.(*ast.TypeSpec)
						doc := ts.Doc
						if doc == nil && len(decl.Specs) == 1 {
							doc = decl.Doc
						}
						obj, _ := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
						if obj == nil {
							continue
						}
						ds := parseDirectives(doc)
						if d, ok := findDirective(ds, "class"); ok {
							st, isStruct := ts.Type.(*ast.StructType)
							if !isStruct {
								return nil, errors.NewInvalidDescriptionError("%s: pystub:class on non-struct type %s",
									pkg.Fset.Position(ts.Pos()), ts.Name.Name)
							}
							c := &classSpec{obj: obj, pos: ts.Pos(), name: ts.Name.Name, doc: doc.Text(), fields: st.Fields}
							for _, arg := range d.args {
								switch arg {
								case "frozen":
									c.frozen = true
								case "final":
									c.final = true
								default:
									c.name = arg
								}
							}
							s.classes = append(s.classes, c)
							classesByObj[obj] = c
						}
						if d, ok := findDirective(ds, "enum"); ok {
							en := &enumSpec{obj: obj, pos: ts.Pos(), name: ts.Name.Name, doc: doc.Text()}
							if len(d.args) > 0 {
								en.name = d.args[0]
							}
							s.enums = append(s.enums, en)
							enumsByObj[obj] = en
						}
					}
				case token.CONST:
					for _, spec := range decl.Specs {
						vs := spec.(*ast.ValueSpec)
						doc := vs.Doc.Text()
						if doc == "" {
							doc = vs.Comment.Text()
						}
						for _, name := range vs.Names {
							consts = append(consts, constSpec{ident: name, doc: doc})
						}
					}
				}

			case *ast.FuncDecl:
				ds := parseDirectives(decl.Doc)
				if _, skip := findDirective(ds, "skip"); skip {
					continue
				}
				switch {
				case decl.Recv != nil:
					if decl.Name.IsExported() {
						methods = append(methods, decl)
					}
				case hasDirective(ds, "new"):
					ctors = append(ctors, decl)
				default:
					if d, ok := findDirective(ds, "function"); ok {
						name := ToSnakeCase(decl.Name.Name)
						if len(d.args) > 0 {
							name = d.args[0]
						}
						s.functions = append(s.functions, funcSpec{decl: decl, name: name})
					}
				}
			}
		}
	}

	for _, m := range methods {
		if c := classesByObj[receiverType(pkg, m)]; c != nil {
			c.methods = append(c.methods, m)
		}
	}
	for _, ctor := range ctors {
		c := classesByObj[resultClass(pkg, ctor)]
		if c == nil {
			return nil, errors.NewInvalidDescriptionError("%s: pystub:new on %s, which does not return a class of this package",
				pkg.Fset.Position(ctor.Pos()), ctor.Name.Name)
		}
		c.ctors = append(c.ctors, ctor)
	}
	for _, c := range consts {
		obj, ok := pkg.TypesInfo.Defs[c.ident].(*types.Const)
		if !ok {
			continue
		}
		if named, ok := obj.Type().(*types.Named); ok {
			if en := enumsByObj[named.Obj()]; en != nil {
				en.variants = append(en.variants, c)
			}
		}
	}
	return s, nil
}

func hasDirective(ds []directive, verb string) bool {
	_, ok := findDirective(ds, verb)
	return ok
}

// receiverType returns the named type a method is declared on.
func receiverType(pkg *packages.Package, fn *ast.FuncDecl) *types.TypeName {
	obj, ok := pkg.TypesInfo.Defs[fn.Name].(*types.Func)
	if !ok {
		return nil
	}
	recv := obj.Type().(*types.Signature).Recv()
	if recv == nil {
		return nil
	}
	return namedObj(recv.Type())
}

// resultClass returns the named type of a constructor's first result.
func resultClass(pkg *packages.Package, fn *ast.FuncDecl) *types.TypeName {
	obj, ok := pkg.TypesInfo.Defs[fn.Name].(*types.Func)
	if !ok {
		return nil
	}
	results := obj.Type().(*types.Signature).Results()
	if results.Len() == 0 {
		return nil
	}
	return namedObj(results.At(0).Type())
}

func namedObj(t types.Type) *types.TypeName {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	if named, ok := types.Unalias(t).(*types.Named); ok {
		return named.Origin().Obj()
	}
	return nil
}

// fieldTags is what a struct field's tags say about its Python attribute.
type fieldTags struct {
	name     string
	skip     bool
	readOnly bool
	typeExpr string
}

func parseFieldTags(tag *ast.BasicLit) fieldTags {
	var info fieldTags
	if tag == nil {
		return info
	}
	raw, err := strconv.Unquote(tag.Value)
	if err != nil {
		return info
	}
	st := reflect.StructTag(raw)

	if jsonTag := st.Get("json"); jsonTag != "" {
		name, _, _ := strings.Cut(jsonTag, ",")
		if name == "-" {
			info.skip = true
			return info
		}
		info.name = name
	}
	for _, opt := range strings.Split(st.Get("pystub"), ",") {
		switch strings.TrimSpace(opt) {
		case "-":
			info.skip = true
			return info
		case "readonly":
			info.readOnly = true
		}
	}
	info.typeExpr = st.Get("pytype")
	return info
}

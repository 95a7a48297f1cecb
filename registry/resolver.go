package registry

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"reflect"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/stubtype"
)

// DefaultCacheSize bounds the number of resolved expressions kept.
const DefaultCacheSize = 4096

// ClassDecl declares a class so references to it resolve to its stub name.
type ClassDecl struct {
	// Module is the dotted Python module the class lives in.
	Module string
	// Name is the class's stub name.
	Name string
	// Frozen classes reject py.RefMut.
	Frozen bool
	// GoType, when set, lets ResolveType recognise the class.
	GoType reflect.Type
}

func (c ClassDecl) qualifiedName() string {
	return qualify(c.Module, c.Name)
}

func qualify(module, name string) string {
	if module == "" {
		return name
	}
	return module + "." + name
}

// Options configures a Resolver.
type Options struct {
	Policy    stubtype.Policy
	CacheSize int
}

type cacheKey struct {
	module string
	expr   string
	pos    stubtype.Position
}

// Resolver resolves type expressions and reflect types to TypeInfo.
// It is safe for concurrent use once all classes are declared.
type Resolver struct {
	reg    *Registry
	policy stubtype.Policy

	mu      sync.RWMutex
	classes map[string]ClassDecl
	goTypes map[reflect.Type]ClassDecl

	cache *lru.Cache[cacheKey, stubtype.TypeInfo]
}

// NewResolver freezes reg and returns a resolver over it.
func NewResolver(reg *Registry, opts Options) (*Resolver, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, stubtype.TypeInfo](size)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create resolver cache")
	}
	reg.Freeze()
	return &Resolver{
		reg:     reg,
		policy:  opts.Policy,
		classes: make(map[string]ClassDecl),
		goTypes: make(map[reflect.Type]ClassDecl),
		cache:   cache,
	}, nil
}

// Policy returns the container input policy.
func (r *Resolver) Policy() stubtype.Policy {
	return r.policy
}

// Declare registers a class. Declaring the same qualified name twice is an error.
func (r *Resolver) Declare(c ClassDecl) error {
	if c.Name == "" {
		return errors.NewInvalidDescriptionError("class declared without a name in module %q", c.Module)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := c.qualifiedName()
	if _, exists := r.classes[key]; exists {
		return errors.NewInvalidDescriptionError("class %s declared twice", key)
	}
	r.classes[key] = c
	if c.GoType != nil {
		r.goTypes[c.GoType] = c
	}
	r.cache.Purge()
	return nil
}

func (r *Resolver) class(module, name string) (ClassDecl, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.classes[qualify(module, name)]; ok {
		return c, true
	}
	c, ok := r.classes[name]
	return c, ok
}

// Resolve parses expr as a Go type expression and resolves it for pos.
// Unqualified class names are looked up in module first.
func (r *Resolver) Resolve(module, expr string, pos stubtype.Position) (stubtype.TypeInfo, error) {
	key := cacheKey{module: module, expr: expr, pos: pos}
	if info, ok := r.cache.Get(key); ok {
		return info, nil
	}

	node, err := parser.ParseExpr(expr)
	if err != nil {
		return stubtype.TypeInfo{}, errors.NewInvalidDescriptionError("cannot parse type expression %q: %v", expr, err)
	}
	info, err := r.resolveExpr(module, node, pos)
	if err != nil {
		return stubtype.TypeInfo{}, err
	}
	r.cache.Add(key, info)
	return info, nil
}

// Known reports whether name resolves without structure: a declared class, a
// registered mapping or generic, or a reference wrapper.
func (r *Resolver) Known(module, name string) bool {
	if _, ok := r.class(module, name); ok {
		return true
	}
	if _, ok := r.reg.Generic(name); ok {
		return true
	}
	return r.reg.Has(name) || transparentWrappers[name] || name == mutableWrapper
}

func (r *Resolver) lookup(name string, pos stubtype.Position) (stubtype.TypeInfo, error) {
	s, err := r.reg.Lookup(name)
	if err != nil {
		return stubtype.TypeInfo{}, err
	}
	return stubtype.At(s, pos), nil
}

func (r *Resolver) resolveExpr(module string, e ast.Expr, pos stubtype.Position) (stubtype.TypeInfo, error) {
	switch t := e.(type) {
	case *ast.ParenExpr:
		return r.resolveExpr(module, t.X, pos)

	case *ast.Ident, *ast.SelectorExpr:
		name, ok := dottedName(t)
		if !ok {
			return stubtype.TypeInfo{}, errors.NewUnmappedTypeError(types.ExprString(e))
		}
		if c, ok := r.class(module, name); ok {
			return stubtype.ClassRef(c.Module, c.Name), nil
		}
		return r.lookup(name, pos)

	case *ast.StarExpr:
		// Pointers are references: transparent.
		return r.resolveExpr(module, t.X, pos)

	case *ast.ArrayType:
		return r.resolveArray(module, t, pos)

	case *ast.MapType:
		key, err := r.resolveExpr(module, t.Key, pos)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		if isEmptyStruct(t.Value) {
			return stubtype.SetOf(pos, key, r.policy), nil
		}
		value, err := r.resolveExpr(module, t.Value, pos)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		return stubtype.MappingOf(pos, key, value, r.policy), nil

	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return r.lookup("any", pos)
		}

	case *ast.FuncType:
		return r.resolveFunc(module, t, pos)

	case *ast.IndexExpr:
		return r.resolveGeneric(module, t.X, []ast.Expr{t.Index}, pos)

	case *ast.IndexListExpr:
		return r.resolveGeneric(module, t.X, t.Indices, pos)
	}

	return stubtype.TypeInfo{}, errors.NewUnmappedTypeError(types.ExprString(e))
}

func (r *Resolver) resolveArray(module string, t *ast.ArrayType, pos stubtype.Position) (stubtype.TypeInfo, error) {
	if isByte(t.Elt) {
		return r.lookup("[]byte", pos)
	}
	elem, err := r.resolveExpr(module, t.Elt, pos)
	if err != nil {
		return stubtype.TypeInfo{}, err
	}
	switch n := t.Len.(type) {
	case nil:
		return stubtype.SequenceOf(pos, elem, r.policy), nil
	case *ast.Ellipsis:
		return stubtype.VarTupleOf(elem), nil
	case *ast.BasicLit:
		if n.Kind == token.INT {
			length, err := strconv.Atoi(n.Value)
			if err == nil {
				return repeatTuple(elem, length), nil
			}
		}
	}
	return stubtype.TypeInfo{}, errors.WithHint(errors.NewUnmappedTypeError(types.ExprString(t)),
		"array lengths must be integer literals")
}

func repeatTuple(elem stubtype.TypeInfo, n int) stubtype.TypeInfo {
	elems := make([]stubtype.TypeInfo, n)
	for i := range elems {
		elems[i] = elem
	}
	return stubtype.TupleOf(elems...)
}

// flip swaps positions for callable parameters: a callback the module accepts
// is called with values the module produces.
func flip(pos stubtype.Position) stubtype.Position {
	if pos == stubtype.Input {
		return stubtype.Output
	}
	return stubtype.Input
}

func (r *Resolver) resolveFunc(module string, t *ast.FuncType, pos stubtype.Position) (stubtype.TypeInfo, error) {
	var params []stubtype.TypeInfo
	if t.Params != nil {
		for _, field := range t.Params.List {
			info, err := r.resolveExpr(module, field.Type, flip(pos))
			if err != nil {
				return stubtype.TypeInfo{}, err
			}
			for range max(1, len(field.Names)) {
				params = append(params, info)
			}
		}
	}

	var resultExprs []ast.Expr
	if t.Results != nil {
		for _, field := range t.Results.List {
			for range max(1, len(field.Names)) {
				resultExprs = append(resultExprs, field.Type)
			}
		}
	}
	// A trailing error surfaces as a raised exception.
	if n := len(resultExprs); n > 0 && isError(resultExprs[n-1]) {
		resultExprs = resultExprs[:n-1]
	}
	results := make([]stubtype.TypeInfo, 0, len(resultExprs))
	for _, e := range resultExprs {
		info, err := r.resolveExpr(module, e, pos)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		results = append(results, info)
	}
	return stubtype.CallableOf(params, resultType(results)), nil
}

func isError(e ast.Expr) bool {
	ident, ok := e.(*ast.Ident)
	return ok && ident.Name == "error"
}

func resultType(results []stubtype.TypeInfo) stubtype.TypeInfo {
	switch len(results) {
	case 0:
		return stubtype.None
	case 1:
		return results[0]
	default:
		return stubtype.TupleOf(results...)
	}
}

func (r *Resolver) resolveGeneric(module string, base ast.Expr, argExprs []ast.Expr, pos stubtype.Position) (stubtype.TypeInfo, error) {
	name, ok := dottedName(base)
	if !ok {
		return stubtype.TypeInfo{}, errors.NewUnmappedTypeError(types.ExprString(base))
	}

	if transparentWrappers[name] || name == mutableWrapper {
		if len(argExprs) != 1 {
			return stubtype.TypeInfo{}, errors.WithHintf(errors.NewUnmappedTypeError(name), "%s takes exactly one type argument", name)
		}
		if name == mutableWrapper {
			if err := r.checkMutable(module, argExprs[0]); err != nil {
				return stubtype.TypeInfo{}, err
			}
		}
		return r.resolveExpr(module, argExprs[0], pos)
	}

	g, ok := r.reg.Generic(name)
	if !ok {
		return stubtype.TypeInfo{}, errors.NewUnmappedTypeError(name + "[...]")
	}
	args := make([]stubtype.TypeInfo, len(argExprs))
	for i, a := range argExprs {
		info, err := r.resolveExpr(module, a, pos)
		if err != nil {
			return stubtype.TypeInfo{}, err
		}
		args[i] = info
	}
	return g(pos, r.policy, args)
}

// checkMutable enforces that py.RefMut only wraps classes that are not frozen.
func (r *Resolver) checkMutable(module string, arg ast.Expr) error {
	for {
		star, ok := arg.(*ast.StarExpr)
		if !ok {
			break
		}
		arg = star.X
	}
	name, ok := dottedName(arg)
	if !ok {
		return errors.WithHint(errors.NewUnmappedTypeError("py.RefMut["+types.ExprString(arg)+"]"),
			"py.RefMut wraps a declared class")
	}
	c, ok := r.class(module, name)
	if !ok {
		return errors.WithHint(errors.NewUnmappedTypeError("py.RefMut["+name+"]"),
			"py.RefMut wraps a declared class")
	}
	if c.Frozen {
		return errors.WithHintf(errors.Wrapf(errors.ErrFrozenMutableRef, "%s", c.qualifiedName()),
			"use py.Ref[%s] or drop frozen from the class", c.Name)
	}
	return nil
}

// dottedName flattens an identifier or selector chain into "a.b.c".
func dottedName(e ast.Expr) (string, bool) {
	switch t := e.(type) {
	case *ast.Ident:
		return t.Name, true
	case *ast.SelectorExpr:
		prefix, ok := dottedName(t.X)
		if !ok {
			return "", false
		}
		return prefix + "." + t.Sel.Name, true
	default:
		return "", false
	}
}

func isByte(e ast.Expr) bool {
	ident, ok := e.(*ast.Ident)
	return ok && (ident.Name == "byte" || ident.Name == "uint8")
}

func isEmptyStruct(e ast.Expr) bool {
	st, ok := e.(*ast.StructType)
	return ok && (st.Fields == nil || len(st.Fields.List) == 0)
}

// Package py declares the Go-side handle types of Python objects.
//
// Every handle implements stubtype.Stub, so a Go signature written in terms of
// these types resolves to its Python annotation statically:
//
//	func (p *Point) Neighbours() py.Seq[py.Ref[Point]]
//
// resolves to list[Point] on return. The reference wrappers (Py, Bound, Ref,
// RefMut) never change the annotation of what they wrap.
package py

import (
	"github.com/teranos/pystub/registry"
	"github.com/teranos/pystub/stubtype"
)

func builtin(name string) stubtype.TypeInfo {
	return stubtype.OutputOf(registry.MustBuiltin(name))
}

// Handle types for Python builtins.
type (
	Any         struct{}
	Int         struct{}
	Float       struct{}
	Bool        struct{}
	List        struct{}
	Tuple       struct{}
	Slice       struct{}
	Dict        struct{}
	Set         struct{}
	Str         struct{}
	BackedStr   struct{}
	ByteArray   struct{}
	Bytes       struct{}
	BackedBytes struct{}
	Type        struct{}
	CompareOp   struct{}
	Iterator    struct{}
	Date        struct{}
	DateTime    struct{}
	Delta       struct{}
	Time        struct{}
	TzInfo      struct{}
)

func (Any) TypeOutput() stubtype.TypeInfo         { return builtin("py.Any") }
func (Int) TypeOutput() stubtype.TypeInfo         { return builtin("py.Int") }
func (Float) TypeOutput() stubtype.TypeInfo       { return builtin("py.Float") }
func (Bool) TypeOutput() stubtype.TypeInfo        { return builtin("py.Bool") }
func (List) TypeOutput() stubtype.TypeInfo        { return builtin("py.List") }
func (Tuple) TypeOutput() stubtype.TypeInfo       { return builtin("py.Tuple") }
func (Slice) TypeOutput() stubtype.TypeInfo       { return builtin("py.Slice") }
func (Dict) TypeOutput() stubtype.TypeInfo        { return builtin("py.Dict") }
func (Set) TypeOutput() stubtype.TypeInfo         { return builtin("py.Set") }
func (Str) TypeOutput() stubtype.TypeInfo         { return builtin("py.Str") }
func (BackedStr) TypeOutput() stubtype.TypeInfo   { return builtin("py.BackedStr") }
func (ByteArray) TypeOutput() stubtype.TypeInfo   { return builtin("py.ByteArray") }
func (Bytes) TypeOutput() stubtype.TypeInfo       { return builtin("py.Bytes") }
func (BackedBytes) TypeOutput() stubtype.TypeInfo { return builtin("py.BackedBytes") }
func (Type) TypeOutput() stubtype.TypeInfo        { return builtin("py.Type") }
func (CompareOp) TypeOutput() stubtype.TypeInfo   { return builtin("py.CompareOp") }
func (Iterator) TypeOutput() stubtype.TypeInfo    { return builtin("py.Iterator") }
func (Date) TypeOutput() stubtype.TypeInfo        { return builtin("py.Date") }
func (DateTime) TypeOutput() stubtype.TypeInfo    { return builtin("py.DateTime") }
func (Delta) TypeOutput() stubtype.TypeInfo       { return builtin("py.Delta") }
func (Time) TypeOutput() stubtype.TypeInfo        { return builtin("py.Time") }
func (TzInfo) TypeOutput() stubtype.TypeInfo      { return builtin("py.TzInfo") }

// Path accepts str | os.PathLike | pathlib.Path and returns pathlib.Path.
type Path struct{}

func (Path) TypeOutput() stubtype.TypeInfo { return stubtype.OutputOf(registry.MustBuiltin("py.Path")) }
func (Path) TypeInput() stubtype.TypeInfo  { return stubtype.InputOf(registry.MustBuiltin("py.Path")) }

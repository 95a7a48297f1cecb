// Package stubgen renders Python stub files (.pyi) from module descriptions.
//
// A Module is built once by a collaborator (the describe loader or the Go
// source extractor) with every type already resolved to a stubtype.TypeInfo.
// Render turns it into stub text; Generator renders many modules at once.
package stubgen

import "github.com/teranos/pystub/stubtype"

// Module describes one Python module.
type Module struct {
	// Name is the dotted module name, e.g. "geometry" or "geometry.shapes".
	Name      string
	Doc       string
	Variables []Variable
	Classes   []Class
	Enums     []Enum
	Functions []Function
}

// Class describes a class and its members.
type Class struct {
	Name  string
	Doc   string
	Bases []stubtype.TypeInfo
	// Frozen classes have no mutable borrows; it does not change rendering.
	Frozen  bool
	Final   bool
	Fields  []Field
	Methods []Method
}

// Field is a class attribute. ReadOnly fields render as a property getter.
type Field struct {
	Name     string
	Doc      string
	Type     stubtype.TypeInfo
	ReadOnly bool
}

// MethodKind selects how a method is bound.
type MethodKind int

const (
	MethodInstance MethodKind = iota
	MethodStatic
	MethodClass
	MethodNew
)

func (k MethodKind) String() string {
	switch k {
	case MethodInstance:
		return "instance"
	case MethodStatic:
		return "static"
	case MethodClass:
		return "class"
	case MethodNew:
		return "new"
	default:
		return "unknown"
	}
}

// receiver is the implicit first parameter the method is rendered with.
func (k MethodKind) receiver() string {
	switch k {
	case MethodStatic:
		return ""
	case MethodClass, MethodNew:
		return "cls"
	default:
		return "self"
	}
}

// Method is a class member function. For MethodNew the name is ignored and a
// zero Return defaults to the class itself.
type Method struct {
	Name   string
	Doc    string
	Kind   MethodKind
	Params []Param
	// Return is None when zero.
	Return stubtype.TypeInfo
}

// Function is a module-level function.
type Function struct {
	Name   string
	Doc    string
	Params []Param
	// Return is None when zero.
	Return stubtype.TypeInfo
}

// ParamKind is the Python parameter kind.
type ParamKind int

const (
	ParamPositional ParamKind = iota
	ParamPositionalOnly
	ParamKeywordOnly
	ParamVarPositional
	ParamVarKeyword
)

func (k ParamKind) String() string {
	switch k {
	case ParamPositional:
		return "positional"
	case ParamPositionalOnly:
		return "positional-only"
	case ParamKeywordOnly:
		return "keyword-only"
	case ParamVarPositional:
		return "var-positional"
	case ParamVarKeyword:
		return "var-keyword"
	default:
		return "unknown"
	}
}

// rank orders parameter kinds the way Python requires them in a signature.
func (k ParamKind) rank() int {
	switch k {
	case ParamPositionalOnly:
		return 0
	case ParamPositional:
		return 1
	case ParamVarPositional:
		return 2
	case ParamKeywordOnly:
		return 3
	default:
		return 4
	}
}

// Param is a function or method parameter.
type Param struct {
	Name string
	Type stubtype.TypeInfo
	Kind ParamKind
	// Default is rendered as a Python literal; nil means no default. Use Expr
	// for anything that is not a plain value.
	Default any
}

// Expr is a default value rendered verbatim, e.g. Expr("...") or
// Expr("math.inf").
type Expr string

// Ellipsis renders as "...", the conventional stub default.
const Ellipsis Expr = "..."

// Enum describes an enum.Enum subclass.
type Enum struct {
	Name string
	Doc  string
	// Base defaults to enum.Enum when zero.
	Base     stubtype.TypeInfo
	Variants []Variant
}

// Variant is an enum member. Type, when set, annotates the member's value.
type Variant struct {
	Name string
	Doc  string
	Type *stubtype.TypeInfo
}

// Variable is a module-level constant.
type Variable struct {
	Name string
	Doc  string
	Type stubtype.TypeInfo
}

// Symbols returns the public names of m in emission order.
func (m Module) Symbols() []string {
	names := make([]string, 0, len(m.Variables)+len(m.Classes)+len(m.Enums)+len(m.Functions))
	for _, v := range m.Variables {
		names = append(names, pythonIdent(v.Name))
	}
	for _, c := range m.Classes {
		names = append(names, pythonIdent(c.Name))
	}
	for _, e := range m.Enums {
		names = append(names, pythonIdent(e.Name))
	}
	for _, f := range m.Functions {
		names = append(names, pythonIdent(f.Name))
	}
	return names
}

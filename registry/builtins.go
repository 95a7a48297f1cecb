package registry

import (
	"github.com/Masterminds/semver/v3"

	"github.com/teranos/pystub/stubtype"
)

// Gate names an optional capability a mapping depends on.
type Gate int

const (
	// GateNone mappings are always registered.
	GateNone Gate = iota
	// GateDatetime mappings need the bridge's datetime API, which is missing
	// under the limited API before bridge 0.25.
	GateDatetime
)

func (g Gate) String() string {
	switch g {
	case GateNone:
		return "none"
	case GateDatetime:
		return "datetime"
	default:
		return "unknown"
	}
}

// datetimeLimitedAPI is the first bridge release exposing datetime handles
// under the limited API.
var datetimeLimitedAPI = mustConstraint(">= 0.25.0")

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// Capabilities selects which optional mappings are registered.
type Capabilities struct {
	// LimitedAPI is set when the extension targets the stable ABI.
	LimitedAPI bool
	// BridgeVersion is the version of the Go/Python bridge runtime.
	// Nil means unknown, which only matters under LimitedAPI.
	BridgeVersion *semver.Version
}

// Allows reports whether mappings behind g are available.
func (c Capabilities) Allows(g Gate) bool {
	switch g {
	case GateDatetime:
		return !c.LimitedAPI || (c.BridgeVersion != nil && datetimeLimitedAPI.Check(c.BridgeVersion))
	default:
		return true
	}
}

// Builtin is one row of the built-in mapping table.
type Builtin struct {
	// Names are the source type names resolving to this row.
	Names []string
	// Output annotation and its imports.
	Output        string
	OutputImports []string
	// Input annotation; empty means "same as Output".
	Input        string
	InputImports []string
	Gate         Gate
}

// Stub returns the mapping described by the row.
func (b Builtin) Stub() stubtype.Stub {
	out := stubtype.New(b.Output, b.OutputImports...)
	if b.Input == "" {
		return stubtype.Simple(out)
	}
	return stubtype.Mapped{In: stubtype.New(b.Input, b.InputImports...), Out: out}
}

func builtin(name string, sources ...string) Builtin {
	return Builtin{Names: sources, Output: name}
}

func qualified(module, name string, sources ...string) Builtin {
	return Builtin{Names: sources, Output: module + "." + name, OutputImports: []string{module}}
}

func datetime(name string, sources ...string) Builtin {
	b := qualified("datetime", name, sources...)
	b.Gate = GateDatetime
	return b
}

// Builtins is the table of built-in mappings. Names prefixed with "py." are
// the bridge's handle types; the rest are native Go types.
var Builtins = []Builtin{
	qualified("typing", "Any", "py.Any", "any", "interface{}"),
	builtin("int", "py.Int", "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "byte", "rune"),
	builtin("float", "py.Float", "float32", "float64"),
	builtin("bool", "py.Bool", "bool"),
	builtin("complex", "py.Complex", "complex64", "complex128"),
	builtin("list", "py.List"),
	builtin("tuple", "py.Tuple"),
	builtin("slice", "py.Slice"),
	builtin("dict", "py.Dict"),
	builtin("set", "py.Set"),
	builtin("str", "py.Str", "py.BackedStr", "string"),
	builtin("bytearray", "py.ByteArray"),
	builtin("bytes", "py.Bytes", "py.BackedBytes", "[]byte"),
	builtin("type", "py.Type"),
	builtin("int", "py.CompareOp"),
	builtin("None", "py.None"),
	qualified("collections.abc", "Iterator", "py.Iterator"),
	datetime("date", "py.Date"),
	datetime("datetime", "py.DateTime", "time.Time"),
	datetime("timedelta", "py.Delta", "time.Duration"),
	datetime("time", "py.Time"),
	datetime("tzinfo", "py.TzInfo", "time.Location"),
	{
		Names:         []string{"py.Path"},
		Output:        "pathlib.Path",
		OutputImports: []string{"pathlib"},
		Input:         "str | os.PathLike | pathlib.Path",
		InputImports:  []string{"os", "pathlib"},
	},
}

// MustBuiltin returns the table mapping for name regardless of capabilities.
// It is meant for handle types whose mapping is fixed at compile time.
func MustBuiltin(name string) stubtype.Stub {
	for _, b := range Builtins {
		for _, n := range b.Names {
			if n == name {
				return b.Stub()
			}
		}
	}
	panic("registry: no builtin mapping for " + name)
}

package registry

import (
	"github.com/teranos/pystub/errors"
	"github.com/teranos/pystub/stubtype"
)

// Reference wrappers are transparent: the annotation depends on what a value
// is, never on how it is held.
var transparentWrappers = map[string]bool{
	"py.Py":       true,
	"py.Bound":    true,
	"py.Ref":      true,
	"py.Borrowed": true,
}

// mutableWrapper may only wrap classes that are not frozen.
const mutableWrapper = "py.RefMut"

var defaultGenerics = map[string]Generic{
	"py.Optional": arity("py.Optional", 1, func(_ stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.Optional(args[0])
	}),
	"py.Union": func(_ stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) (stubtype.TypeInfo, error) {
		if len(args) == 0 {
			return stubtype.TypeInfo{}, errors.WithHint(errors.NewUnmappedTypeError("py.Union[]"), "py.Union needs at least one member")
		}
		return stubtype.Union(args...), nil
	},
	"py.Tuple": func(_ stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) (stubtype.TypeInfo, error) {
		return stubtype.TupleOf(args...), nil
	},
	"py.Iterator": arity("py.Iterator", 1, func(_ stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.IteratorOf(args[0])
	}),
	"py.Sequence": arity("py.Sequence", 1, func(pos stubtype.Position, policy stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.SequenceOf(pos, args[0], policy)
	}),
	"py.Mapping": arity("py.Mapping", 2, func(pos stubtype.Position, policy stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.MappingOf(pos, args[0], args[1], policy)
	}),
	"py.Set": arity("py.Set", 1, func(pos stubtype.Position, policy stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.SetOf(pos, args[0], policy)
	}),
	"py.List": arity("py.List", 1, func(_ stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.SequenceOf(stubtype.Output, args[0], stubtype.PolicyConcrete)
	}),
	"py.Dict": arity("py.Dict", 2, func(_ stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.MappingOf(stubtype.Output, args[0], args[1], stubtype.PolicyConcrete)
	}),
	"py.Seq": arity("py.Seq", 1, func(pos stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.SequenceOf(pos, args[0], stubtype.PolicyAbstract)
	}),
	"py.Map": arity("py.Map", 2, func(pos stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.MappingOf(pos, args[0], args[1], stubtype.PolicyAbstract)
	}),
	"iter.Seq": arity("iter.Seq", 1, func(_ stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.IteratorOf(args[0])
	}),
	"iter.Seq2": arity("iter.Seq2", 2, func(_ stubtype.Position, _ stubtype.Policy, args []stubtype.TypeInfo) stubtype.TypeInfo {
		return stubtype.IteratorOf(stubtype.TupleOf(args[0], args[1]))
	}),
}

// arity wraps fn with a type-argument count check.
func arity(name string, n int, fn func(stubtype.Position, stubtype.Policy, []stubtype.TypeInfo) stubtype.TypeInfo) Generic {
	return func(pos stubtype.Position, policy stubtype.Policy, args []stubtype.TypeInfo) (stubtype.TypeInfo, error) {
		if len(args) != n {
			return stubtype.TypeInfo{}, errors.WithHintf(errors.NewUnmappedTypeError(name),
				"%s takes %d type argument(s), got %d", name, n, len(args))
		}
		return fn(pos, policy, args), nil
	}
}

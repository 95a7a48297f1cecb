package stubtype

import "strings"

// Policy decides how container parameters are annotated. Outputs always
// commit to the concrete container.
type Policy int

const (
	// PolicyAbstract accepts the collections.abc capability for inputs:
	// collections.abc.Sequence[T], collections.abc.Mapping[K, V].
	PolicyAbstract Policy = iota
	// PolicyConcrete annotates inputs with the same concrete container as outputs.
	PolicyConcrete
)

// ParsePolicy maps a configuration value to a Policy.
func ParsePolicy(s string) (Policy, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abstract":
		return PolicyAbstract, true
	case "concrete":
		return PolicyConcrete, true
	default:
		return 0, false
	}
}

func (p Policy) String() string {
	if p == PolicyConcrete {
		return "concrete"
	}
	return "abstract"
}

const abcModule = "collections.abc"

// Subscript builds base[arg1, arg2, ...] with imports unioned across all parts.
func Subscript(base TypeInfo, args ...TypeInfo) TypeInfo {
	names := make([]string, len(args))
	for i, a := range args {
		names[i] = a.name
	}
	return TypeInfo{
		name:    base.name + "[" + strings.Join(names, ", ") + "]",
		imports: MergeImports(append([]TypeInfo{base}, args...)...),
	}
}

// Union joins members with " | ". Nested unions are flattened and repeated
// members dropped, keeping first-seen order.
func Union(members ...TypeInfo) TypeInfo {
	if len(members) == 0 {
		return Never
	}
	var names []string
	seen := make(map[string]bool)
	for _, m := range members {
		for _, part := range unionMembers(m.name) {
			if !seen[part] {
				seen[part] = true
				names = append(names, part)
			}
		}
	}
	return TypeInfo{
		name:    strings.Join(names, " | "),
		imports: MergeImports(members...),
	}
}

// Optional returns "T | None". An annotation already admitting None is
// returned unchanged.
func Optional(t TypeInfo) TypeInfo {
	for _, part := range unionMembers(t.name) {
		if part == None.name {
			return t
		}
	}
	return Union(t, None)
}

// SequenceOf annotates a homogeneous sequence.
func SequenceOf(pos Position, elem TypeInfo, policy Policy) TypeInfo {
	if pos == Input && policy == PolicyAbstract {
		return Subscript(Qualified(abcModule, "Sequence"), elem)
	}
	return Subscript(Builtin("list"), elem)
}

// MappingOf annotates a mapping from key to value.
func MappingOf(pos Position, key, value TypeInfo, policy Policy) TypeInfo {
	if pos == Input && policy == PolicyAbstract {
		return Subscript(Qualified(abcModule, "Mapping"), key, value)
	}
	return Subscript(Builtin("dict"), key, value)
}

// SetOf annotates a set of unique elements.
func SetOf(pos Position, elem TypeInfo, policy Policy) TypeInfo {
	if pos == Input && policy == PolicyAbstract {
		return Subscript(Qualified(abcModule, "Set"), elem)
	}
	return Subscript(Builtin("set"), elem)
}

// TupleOf annotates a fixed-arity tuple. The empty tuple is tuple[()].
func TupleOf(elems ...TypeInfo) TypeInfo {
	if len(elems) == 0 {
		return Builtin("tuple[()]")
	}
	return Subscript(Builtin("tuple"), elems...)
}

// VarTupleOf annotates a homogeneous tuple of any length.
func VarTupleOf(elem TypeInfo) TypeInfo {
	return Subscript(Builtin("tuple"), elem, Builtin("..."))
}

// IteratorOf annotates an iterator yielding elem.
func IteratorOf(elem TypeInfo) TypeInfo {
	return Subscript(Qualified(abcModule, "Iterator"), elem)
}

// CallableOf annotates a callable taking params and returning ret.
func CallableOf(params []TypeInfo, ret TypeInfo) TypeInfo {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.name
	}
	callable := Qualified(abcModule, "Callable")
	return TypeInfo{
		name:    callable.name + "[[" + strings.Join(names, ", ") + "], " + ret.name + "]",
		imports: MergeImports(append([]TypeInfo{callable, ret}, params...)...),
	}
}

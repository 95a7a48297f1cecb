package stubtype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/pystub/errors"
)

var (
	intT      = Builtin("int")
	strT      = Builtin("str")
	floatT    = Builtin("float")
	datetimeT = Qualified("datetime", "datetime")
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name        string
		info        TypeInfo
		wantName    string
		wantImports []string
	}{
		{"builtin", Builtin("int"), "int", nil},
		{"qualified", Qualified("collections.abc", "Iterator"), "collections.abc.Iterator", []string{"collections.abc"}},
		{"new with duplicate modules", New("os.PathLike | pathlib.Path", "pathlib", "os", "pathlib"), "os.PathLike | pathlib.Path", []string{"os", "pathlib"}},
		{"class ref in module", ClassRef("geometry", "Point"), "geometry.Point", []string{"geometry"}},
		{"class ref without module", ClassRef("", "Point"), "Point", nil},
		{"any", Any, "typing.Any", []string{"typing"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, tt.info.Name())
			assert.Equal(t, tt.wantImports, tt.info.Imports().Sorted())
			assert.NoError(t, tt.info.Validate())
		})
	}
}

func TestCompositeRoundTrip(t *testing.T) {
	opt := Optional(intT)
	assert.Equal(t, "int | None", opt.Name())
	assert.Zero(t, opt.Imports().Len())

	list := SequenceOf(Output, strT, PolicyAbstract)
	assert.Equal(t, "list[str]", list.Name())
	assert.Zero(t, list.Imports().Len())

	dict := MappingOf(Output, strT, Optional(datetimeT), PolicyAbstract)
	assert.Equal(t, "dict[str, datetime.datetime | None]", dict.Name())
	assert.Equal(t, []string{"datetime"}, dict.Imports().Sorted())
}

func TestContainerPolicy(t *testing.T) {
	tests := []struct {
		name   string
		got    TypeInfo
		want   string
		module []string
	}{
		{"sequence input abstract", SequenceOf(Input, intT, PolicyAbstract), "collections.abc.Sequence[int]", []string{"collections.abc"}},
		{"sequence input concrete", SequenceOf(Input, intT, PolicyConcrete), "list[int]", nil},
		{"sequence output abstract", SequenceOf(Output, intT, PolicyAbstract), "list[int]", nil},
		{"mapping input abstract", MappingOf(Input, strT, intT, PolicyAbstract), "collections.abc.Mapping[str, int]", []string{"collections.abc"}},
		{"mapping input concrete", MappingOf(Input, strT, intT, PolicyConcrete), "dict[str, int]", nil},
		{"set input abstract", SetOf(Input, strT, PolicyAbstract), "collections.abc.Set[str]", []string{"collections.abc"}},
		{"set output", SetOf(Output, strT, PolicyAbstract), "set[str]", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got.Name())
			assert.Equal(t, tt.module, tt.got.Imports().Sorted())
		})
	}
}

func TestTuplesIteratorsCallables(t *testing.T) {
	assert.Equal(t, "tuple[int, str, datetime.datetime]", TupleOf(intT, strT, datetimeT).Name())
	assert.Equal(t, []string{"datetime"}, TupleOf(intT, datetimeT).Imports().Sorted())
	assert.Equal(t, "tuple[()]", TupleOf().Name())
	assert.Equal(t, "tuple[float, ...]", VarTupleOf(floatT).Name())

	it := IteratorOf(datetimeT)
	assert.Equal(t, "collections.abc.Iterator[datetime.datetime]", it.Name())
	assert.Equal(t, []string{"collections.abc", "datetime"}, it.Imports().Sorted())

	fn := CallableOf([]TypeInfo{intT, strT}, None)
	assert.Equal(t, "collections.abc.Callable[[int, str], None]", fn.Name())
	require.NoError(t, fn.Validate())
}

func TestOptionalIsIdempotent(t *testing.T) {
	once := Optional(intT)
	twice := Optional(once)
	assert.Equal(t, once, twice)

	nested := SequenceOf(Output, Optional(intT), PolicyAbstract)
	assert.Equal(t, "list[int | None] | None", Optional(nested).Name())
}

func TestUnionFlattensAndDeduplicates(t *testing.T) {
	u := Union(Union(intT, strT), strT, Optional(floatT))
	assert.Equal(t, "int | str | float | None", u.Name())
	assert.True(t, u.IsUnion())
	assert.False(t, SequenceOf(Output, Union(intT, strT), PolicyAbstract).IsUnion())
	assert.Equal(t, Never, Union())
}

func TestImportIdempotence(t *testing.T) {
	set := NewImportSet("typing", "datetime")
	merged := set
	for i := 0; i < 5; i++ {
		merged = merged.Union(set)
	}
	assert.Equal(t, set, merged)
	assert.Equal(t, []string{"datetime", "typing"}, merged.Sorted())
}

func TestImportSetOperations(t *testing.T) {
	set := NewImportSet("typing", "", " datetime ", "typing")
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Has("datetime"))
	assert.False(t, set.Has("enum"))

	without := set.Without("typing")
	assert.Equal(t, []string{"datetime"}, without.Sorted())
	assert.Equal(t, 2, set.Len(), "Without must not mutate the receiver")
	assert.Zero(t, without.Without("datetime").Len())
}

func TestMappedFallsBackToOutput(t *testing.T) {
	m := Simple(intT)
	assert.Equal(t, intT, InputOf(m))
	assert.Equal(t, intT, OutputOf(m))

	path := Mapped{In: New("str | os.PathLike", "os"), Out: Qualified("pathlib", "Path")}
	assert.Equal(t, "str | os.PathLike", At(path, Input).Name())
	assert.Equal(t, "pathlib.Path", At(path, Output).Name())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		info    TypeInfo
		wantErr bool
	}{
		{"zero value", TypeInfo{}, true},
		{"blank name", Builtin("  "), true},
		{"missing import", Builtin("datetime.date"), true},
		{"partial import", New("collections.abc.Iterator", "collections"), false},
		{"wrong import", New("datetime.date", "typing"), true},
		{"unbalanced bracket", Builtin("list[int"), true},
		{"mismatched bracket", Builtin("list[int)"), true},
		{"literal with dots", New("typing.Literal['a.b']", "typing"), false},
		{"unterminated literal", New("typing.Literal['a]", "typing"), true},
		{"ellipsis", VarTupleOf(intT), false},
		{"empty tuple", TupleOf(), false},
		{"no-arg callable", CallableOf(nil, intT), false},
		{"empty leading element", TupleOf(TypeInfo{}, intT), true},
		{"empty trailing element", TupleOf(intT, TypeInfo{}), true},
		{"empty middle element", TupleOf(intT, TypeInfo{}, intT), true},
		{"empty callable result", CallableOf(nil, TypeInfo{}), true},
		{"empty subscript", Builtin("tuple[]"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.info.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsMalformedTypeInfo(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLocalize(t *testing.T) {
	point := ClassRef("geometry", "Point")
	info := MappingOf(Output, strT, Optional(point), PolicyAbstract).WithImports("datetime")

	local := info.Localize("geometry")
	assert.Equal(t, "dict[str, Point | None]", local.Name())
	assert.Equal(t, []string{"datetime"}, local.Imports().Sorted())
	require.NoError(t, local.Validate())

	assert.Equal(t, info, info.Localize("other"))

	sub := Union(ClassRef("pkg.sub", "Line"), ClassRef("pkg", "Point"))
	assert.Equal(t, "pkg.sub.Line | Point", sub.Localize("pkg").Name())
	assert.Equal(t, []string{"pkg.sub"}, sub.Localize("pkg").Imports().Sorted())
}

func TestParsePolicy(t *testing.T) {
	p, ok := ParsePolicy("Concrete")
	require.True(t, ok)
	assert.Equal(t, PolicyConcrete, p)

	p, ok = ParsePolicy("")
	require.True(t, ok)
	assert.Equal(t, PolicyAbstract, p)

	_, ok = ParsePolicy("covariant")
	assert.False(t, ok)
}

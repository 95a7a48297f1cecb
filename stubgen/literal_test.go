package stubgen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteral(t *testing.T) {
	var nilPtr *int
	seven := 7

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "None"},
		{"nil pointer", nilPtr, "None"},
		{"pointer", &seven, "7"},
		{"true", true, "True"},
		{"false", false, "False"},
		{"int", -42, "-42"},
		{"uint", uint16(8), "8"},
		{"float whole", 2.0, "2.0"},
		{"float fraction", 0.25, "0.25"},
		{"float large", 1e20, "1e+20"},
		{"float small", 0.00001, "1e-05"},
		{"float million", 1e6, "1000000.0"},
		{"negative zero", math.Copysign(0, -1), "-0.0"},
		{"inf", math.Inf(1), `float("inf")`},
		{"string", "hello", "'hello'"},
		{"string with single quote", "it's", `"it's"`},
		{"string with both quotes", `it's "x"`, `'it\'s "x"'`},
		{"string escapes", "a\\b\n\t", `'a\\b\n\t'`},
		{"control char", "\x01", `'\x01'`},
		{"unicode", "café", "'café'"},
		{"bytes", []byte("ab"), "b'ab'"},
		{"list", []int{1, 2}, "[1, 2]"},
		{"empty list", []string{}, "[]"},
		{"nested", []any{"a", nil, []bool{true}}, "['a', None, [True]]"},
		{"dict sorted", map[string]int{"b": 2, "a": 1}, "{'a': 1, 'b': 2}"},
		{"tuple", Tuple{1, "x"}, "(1, 'x')"},
		{"single tuple", Tuple{1}, "(1,)"},
		{"empty tuple", Tuple{}, "()"},
		{"expr", Expr("math.pi"), "math.pi"},
		{"ellipsis", Ellipsis, "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Literal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLiteralUnsupported(t *testing.T) {
	for _, v := range []any{make(chan int), func() {}, struct{ X int }{1}} {
		_, err := Literal(v)
		assert.Error(t, err)
	}
}

func TestPythonIdent(t *testing.T) {
	assert.Equal(t, "lambda_", pythonIdent("lambda"))
	assert.Equal(t, "None_", pythonIdent("None"))
	assert.Equal(t, "value", pythonIdent("value"))
	assert.True(t, isIdentifier("_private1"))
	assert.False(t, isIdentifier("1st"))
	assert.False(t, isIdentifier("a.b"))
	assert.False(t, isIdentifier(""))
}

package stubgen

import (
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/teranos/pystub/errors"
)

// pythonKeywords are reserved words in Python that need special handling
var pythonKeywords = map[string]bool{
	"False": true, "None": true, "True": true, "and": true, "as": true,
	"assert": true, "async": true, "await": true, "break": true, "class": true,
	"continue": true, "def": true, "del": true, "elif": true, "else": true,
	"except": true, "finally": true, "for": true, "from": true, "global": true,
	"if": true, "import": true, "in": true, "is": true, "lambda": true,
	"nonlocal": true, "not": true, "or": true, "pass": true, "raise": true,
	"return": true, "try": true, "while": true, "with": true, "yield": true,
}

// pythonIdent adds an underscore suffix to Python keywords.
func pythonIdent(s string) string {
	if pythonKeywords[s] {
		return s + "_"
	}
	return s
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// Literal renders v as a Python literal: nil pointers are None, bools are
// True/False, strings use Python repr quoting, slices and arrays are lists,
// maps are dicts with sorted keys, and Expr is written verbatim.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "None", nil
	case Expr:
		return string(x), nil
	case Tuple:
		return tupleLiteral(x)
	}
	return reflectLiteral(reflect.ValueOf(v))
}

// Tuple renders as a Python tuple literal.
type Tuple []any

func tupleLiteral(t Tuple) (string, error) {
	items := make([]string, len(t))
	for i, item := range t {
		s, err := Literal(item)
		if err != nil {
			return "", err
		}
		items[i] = s
	}
	if len(items) == 1 {
		return "(" + items[0] + ",)", nil
	}
	return "(" + strings.Join(items, ", ") + ")", nil
}

func reflectLiteral(v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.Invalid:
		return "None", nil
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return "None", nil
		}
		return Literal(v.Elem().Interface())
	case reflect.Bool:
		if v.Bool() {
			return "True", nil
		}
		return "False", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return floatLiteral(v.Float())
	case reflect.String:
		return quote(v.String()), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return "b" + quote(string(v.Bytes())), nil
		}
		fallthrough
	case reflect.Array:
		items := make([]string, v.Len())
		for i := range items {
			s, err := Literal(v.Index(i).Interface())
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	case reflect.Map:
		entries := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			key, err := Literal(iter.Key().Interface())
			if err != nil {
				return "", err
			}
			val, err := Literal(iter.Value().Interface())
			if err != nil {
				return "", err
			}
			entries = append(entries, key+": "+val)
		}
		sort.Strings(entries)
		return "{" + strings.Join(entries, ", ") + "}", nil
	}
	return "", errors.NewInvalidDescriptionError("no Python literal for default of type %s", v.Type())
}

// floatLiteral follows Python's float repr: positional notation between 1e-4
// and 1e16, always with a fractional part or exponent.
func floatLiteral(f float64) (string, error) {
	switch {
	case math.IsNaN(f):
		return `float("nan")`, nil
	case math.IsInf(f, 1):
		return `float("inf")`, nil
	case math.IsInf(f, -1):
		return `-float("inf")`, nil
	}
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0", nil
		}
		return "0.0", nil
	}
	abs := math.Abs(f)
	if abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(f, 'e', -1, 64), nil
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s, nil
}

// quote renders s like Python's repr: single quotes unless s contains a single
// quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		q = '"'
	}
	var sb strings.Builder
	sb.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(q):
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case unicode.IsPrint(r):
			sb.WriteRune(r)
		case r < 0x100:
			sb.WriteString(`\x` + pad(strconv.FormatInt(int64(r), 16), 2))
		case r < 0x10000:
			sb.WriteString(`\u` + pad(strconv.FormatInt(int64(r), 16), 4))
		default:
			sb.WriteString(`\U` + pad(strconv.FormatInt(int64(r), 16), 8))
		}
	}
	sb.WriteByte(q)
	return sb.String()
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return strings.Repeat("0", n-len(s)) + s
}

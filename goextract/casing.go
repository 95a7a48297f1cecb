package goextract

import (
	"strings"
	"unicode"
)

// ToSnakeCase converts PascalCase or camelCase to snake_case.
// Handles acronyms properly (e.g., "HTTPSConnection" -> "https_connection")
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if i > 0 && unicode.IsUpper(r) {
			// Acronyms stay together until the last capital before a lowercase run
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if !prevUpper || nextLower {
				result.WriteRune('_')
			}
		}

		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// ToScreamingSnake converts a Go constant name to an enum member name,
// dropping the type-name prefix: ColorDarkRed of type Color -> DARK_RED.
func ToScreamingSnake(name, typeName string) string {
	if rest, ok := strings.CutPrefix(name, typeName); ok && rest != "" && unicode.IsUpper([]rune(rest)[0]) {
		name = rest
	}
	return strings.ToUpper(ToSnakeCase(name))
}

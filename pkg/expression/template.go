// Package expression provides template interpolation and constrained predicate
// evaluation over execution contexts. It is deliberately not Turing-complete:
// CODE nodes are the only place arbitrary user logic runs, inside the sandbox.
package expression

import (
	"fmt"
	"strings"

	"github.com/zapflowhq/zapflow/pkg/models"
)

// Render substitutes every {{dotted.path}} token in input with the value found
// in the execution context. Unresolvable tokens render as the empty string;
// Render never fails on missing keys.
func Render(input string, execCtx *models.ExecutionContext) string {
	if !strings.Contains(input, "{{") {
		return input
	}

	var result strings.Builder

	result.Grow(len(input))

	i := 0
	for i < len(input) {
		idx := strings.Index(input[i:], "{{")
		if idx == -1 {
			result.WriteString(input[i:])

			break
		}

		result.WriteString(input[i : i+idx])

		start := i + idx + 2

		end := strings.Index(input[start:], "}}")
		if end == -1 {
			// Unclosed token, keep the rest verbatim.
			result.WriteString(input[i+idx:])

			break
		}

		end += start
		path := strings.TrimSpace(input[start:end])

		if value, ok := execCtx.Get(path); ok {
			result.WriteString(Stringify(value))
		}

		i = end + 2
	}

	return result.String()
}

// ResolveValue resolves a template side to its raw value: a string that is
// exactly one {{token}} keeps the underlying type, anything else renders to a
// string. Used by EDIT_FIELDS and the sandbox where types matter.
func ResolveValue(input string, execCtx *models.ExecutionContext) any {
	trimmed := strings.TrimSpace(input)

	if strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") {
		inner := strings.TrimSpace(trimmed[2 : len(trimmed)-2])
		if !strings.Contains(inner, "{{") && !strings.Contains(inner, "}}") {
			if value, ok := execCtx.Get(inner); ok {
				return value
			}

			return ""
		}
	}

	return Render(input, execCtx)
}

// Stringify renders a context value the way templates embed it.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; print integers without the decimal point.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}

		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

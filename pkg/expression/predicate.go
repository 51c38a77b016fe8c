package expression

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zapflowhq/zapflow/pkg/models"
)

// ErrMalformedPredicate is returned when an expression does not match the
// value1 operator value2 grammar.
var ErrMalformedPredicate = errors.New("malformed predicate expression")

// operators ordered so that two-character operators are tried before their
// one-character prefixes.
var operators = []models.SwitchOperator{
	models.OperatorEquals,
	models.OperatorNotEquals,
	models.OperatorGreaterEqual,
	models.OperatorLessEqual,
	models.OperatorGreater,
	models.OperatorLess,
	models.OperatorContains,
}

// EvaluatePredicate parses and evaluates a constrained boolean expression of
// the form "value1 operator value2". Both sides may be template expressions,
// quoted literals, or bare context paths. Missing context paths resolve to the
// empty string, so "variables.x == '1'" with no variables.x is simply false.
func EvaluatePredicate(input string, execCtx *models.ExecutionContext) (bool, error) {
	value1, op, value2, err := splitPredicate(input)
	if err != nil {
		return false, err
	}

	return Compare(resolveSide(value1, execCtx), op, resolveSide(value2, execCtx)), nil
}

// EvaluateRule evaluates one switch rule against the context.
func EvaluateRule(rule models.SwitchRule, execCtx *models.ExecutionContext) (bool, error) {
	if !validOperator(rule.Operator) {
		return false, fmt.Errorf("%w: unknown operator %q", ErrMalformedPredicate, rule.Operator)
	}

	return Compare(resolveSide(rule.Value1, execCtx), rule.Operator, resolveSide(rule.Value2, execCtx)), nil
}

// Compare applies the operator with numeric coercion: when both sides parse as
// numbers they compare numerically, otherwise as strings.
func Compare(left string, op models.SwitchOperator, right string) bool {
	leftNum, leftErr := strconv.ParseFloat(left, 64)
	rightNum, rightErr := strconv.ParseFloat(right, 64)
	numeric := leftErr == nil && rightErr == nil

	switch op {
	case models.OperatorEquals:
		if numeric {
			return leftNum == rightNum
		}

		return left == right
	case models.OperatorNotEquals:
		if numeric {
			return leftNum != rightNum
		}

		return left != right
	case models.OperatorGreater:
		if numeric {
			return leftNum > rightNum
		}

		return left > right
	case models.OperatorLess:
		if numeric {
			return leftNum < rightNum
		}

		return left < right
	case models.OperatorGreaterEqual:
		if numeric {
			return leftNum >= rightNum
		}

		return left >= right
	case models.OperatorLessEqual:
		if numeric {
			return leftNum <= rightNum
		}

		return left <= right
	case models.OperatorContains:
		return strings.Contains(left, right)
	default:
		return false
	}
}

func validOperator(op models.SwitchOperator) bool {
	for _, known := range operators {
		if op == known {
			return true
		}
	}

	return false
}

// splitPredicate finds the operator outside of quotes and template tokens and
// splits the expression around it.
func splitPredicate(input string) (string, models.SwitchOperator, string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", "", "", fmt.Errorf("%w: empty expression", ErrMalformedPredicate)
	}

	for _, op := range operators {
		idx := indexOutsideQuotes(trimmed, string(op))
		if idx <= 0 {
			continue
		}

		left := strings.TrimSpace(trimmed[:idx])
		right := strings.TrimSpace(trimmed[idx+len(op):])

		if left == "" || right == "" {
			return "", "", "", fmt.Errorf("%w: %q", ErrMalformedPredicate, input)
		}

		return left, op, right, nil
	}

	return "", "", "", fmt.Errorf("%w: no operator in %q", ErrMalformedPredicate, input)
}

// indexOutsideQuotes returns the index of the first occurrence of needle that
// is not inside single or double quotes, or -1.
func indexOutsideQuotes(s, needle string) int {
	var quote byte

	for i := 0; i+len(needle) <= len(s); i++ {
		c := s[i]

		if quote != 0 {
			if c == quote {
				quote = 0
			}

			continue
		}

		if c == '\'' || c == '"' {
			quote = c

			continue
		}

		if strings.HasPrefix(s[i:], needle) {
			// "contains" must be a standalone word, not part of a path segment.
			if needle == string(models.OperatorContains) {
				if (i > 0 && !isSpace(s[i-1])) || (i+len(needle) < len(s) && !isSpace(s[i+len(needle)])) {
					continue
				}
			}

			return i
		}
	}

	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// resolveSide turns one side of a predicate into its comparable string form:
// quoted literals are unquoted, templates render, bare dotted paths resolve
// against the context (missing paths become the empty string).
func resolveSide(side string, execCtx *models.ExecutionContext) string {
	side = strings.TrimSpace(side)

	if len(side) >= 2 {
		if (side[0] == '\'' && side[len(side)-1] == '\'') || (side[0] == '"' && side[len(side)-1] == '"') {
			return side[1 : len(side)-1]
		}
	}

	if strings.Contains(side, "{{") {
		return Render(side, execCtx)
	}

	if isContextPath(side) {
		if value, ok := execCtx.Get(side); ok {
			return Stringify(value)
		}

		return ""
	}

	return side
}

func isContextPath(s string) bool {
	scope, _, found := strings.Cut(s, ".")
	if !found {
		return false
	}

	switch scope {
	case models.ScopeGlobals, models.ScopeInput, models.ScopeOutput, models.ScopeVariables:
		return true
	default:
		return false
	}
}

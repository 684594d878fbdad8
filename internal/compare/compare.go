// Package compare implements the engine's 17 named comparators
// (plus aliases) over (actual, expected) pairs, per the assertion
// semantics table in the engine specification.
package compare

import (
	"fmt"
	"strconv"
	"strings"
)

// Name identifies one of the canonical comparator names. Aliases are
// resolved to a canonical name by Canonicalize before lookup.
type Name string

const (
	Eq           Name = "eq"
	Neq          Name = "neq"
	Gt           Name = "gt"
	Gte          Name = "gte"
	Lt           Name = "lt"
	Lte          Name = "lte"
	Contains     Name = "contains"
	NotContains  Name = "not_contains"
	StartsWith   Name = "startswith"
	EndsWith     Name = "endswith"
	Matches      Name = "matches"
	TypeMatch    Name = "type_match"
	LengthEq     Name = "length_eq"
	LengthGt     Name = "length_gt"
	LengthLt     Name = "length_lt"
	IsNull       Name = "is_null"
	IsNotNull    Name = "is_not_null"
)

var aliases = map[string]Name{
	"ge":     Gte,
	"le":     Lte,
	"in":     Contains,
	"not_in": NotContains,
}

// Canonicalize resolves a comparator name (including the documented
// aliases ge→gte, le→lte, in→contains, not_in→not_contains) to its
// canonical Name.
func Canonicalize(name string) Name {
	name = strings.ToLower(strings.TrimSpace(name))
	if canon, ok := aliases[name]; ok {
		return canon
	}
	return Name(name)
}

// Compare applies the named comparator to (actual, expected). An
// unknown comparator name is a caller bug; it returns false rather
// than panicking, matching the original engine's fail-closed behavior.
func Compare(name string, actual, expected any) bool {
	switch Canonicalize(name) {
	case Eq:
		return compareEq(actual, expected)
	case Neq:
		return !compareEq(actual, expected)
	case Gt:
		return numericCompare(actual, expected, func(a, b float64) bool { return a > b })
	case Gte:
		if actual == nil || expected == nil {
			return compareEq(actual, expected)
		}
		return numericCompare(actual, expected, func(a, b float64) bool { return a >= b })
	case Lt:
		return numericCompare(actual, expected, func(a, b float64) bool { return a < b })
	case Lte:
		if actual == nil || expected == nil {
			return compareEq(actual, expected)
		}
		return numericCompare(actual, expected, func(a, b float64) bool { return a <= b })
	case Contains:
		return compareContains(actual, expected)
	case NotContains:
		return !compareContains(actual, expected)
	case StartsWith:
		if actual == nil || expected == nil {
			return false
		}
		return strings.HasPrefix(stringify(actual), stringify(expected))
	case EndsWith:
		if actual == nil || expected == nil {
			return false
		}
		return strings.HasSuffix(stringify(actual), stringify(expected))
	case Matches:
		return compareMatches(actual, expected)
	case TypeMatch:
		return compareTypeMatch(actual, expected)
	case LengthEq:
		n, ok := expectedLength(expected)
		return ok && lengthOf(actual) == n
	case LengthGt:
		n, ok := expectedLength(expected)
		return ok && lengthOf(actual) > n
	case LengthLt:
		n, ok := expectedLength(expected)
		return ok && lengthOf(actual) < n
	case IsNull:
		return compareIsNull(actual)
	case IsNotNull:
		return !compareIsNull(actual)
	default:
		return false
	}
}

func compareEq(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}
	_, aStr := actual.(string)
	_, eStr := expected.(string)
	if !aStr && !eStr {
		if af, aok := toFloat(actual); aok {
			if ef, eok := toFloat(expected); eok {
				return af == ef
			}
		}
	}
	return fmt.Sprintf("%v", actual) == fmt.Sprintf("%v", expected) && sameKind(actual, expected)
}

// sameKind guards against eq treating the string "1" and the number 1
// as equal (the numeric path above only runs when neither side is a
// string); strings compare exactly, not by loose stringification, per
// VLD-001.
func sameKind(a, b any) bool {
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr || bIsStr {
		return aIsStr && bIsStr && as == bs
	}
	return true
}

func numericCompare(actual, expected any, op func(a, b float64) bool) bool {
	if actual == nil || expected == nil {
		return false
	}
	af, aok := toFloat(actual)
	ef, eok := toFloat(expected)
	if !aok || !eok {
		return false
	}
	return op(af, ef)
}

func compareContains(actual, expected any) bool {
	if actual == nil {
		return false
	}
	switch a := actual.(type) {
	case string:
		return strings.Contains(a, stringify(expected))
	case []any:
		for _, e := range a {
			if compareEq(e, expected) {
				return true
			}
		}
		return false
	case map[string]any:
		_, ok := a[stringify(expected)]
		return ok
	default:
		return strings.Contains(stringify(actual), stringify(expected))
	}
}

func compareTypeMatch(actual, expected any) bool {
	name := strings.ToLower(strings.TrimSpace(stringify(expected)))
	if name == "" || name == "null" {
		return actual == nil
	}
	switch name {
	case "int":
		f, ok := actual.(float64)
		return ok && f == float64(int64(f))
	case "str":
		_, ok := actual.(string)
		return ok
	case "list":
		_, ok := actual.([]any)
		return ok
	case "dict":
		_, ok := actual.(map[string]any)
		return ok
	case "bool":
		_, ok := actual.(bool)
		return ok
	default:
		return false
	}
}

func lengthOf(v any) int {
	switch t := v.(type) {
	case string:
		return len(t)
	case []any:
		return len(t)
	case map[string]any:
		return len(t)
	default:
		return 0
	}
}

func expectedLength(v any) (int, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func compareIsNull(actual any) bool {
	if actual == nil {
		return true
	}
	switch t := actual.(type) {
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

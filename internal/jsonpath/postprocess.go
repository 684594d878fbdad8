package jsonpath

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// applyPostProcessor applies one chained function call (length(),
// sort(), split(sep), ...) to a value produced by path evaluation.
// Chains apply left to right: path.f().g() computes g(f(path)).
func applyPostProcessor(fn funcCall, v any) (any, error) {
	switch fn.name {
	case "length", "size", "count":
		return lengthOf(v), nil
	case "first":
		return firstOf(v)
	case "last":
		return lastOf(v)
	case "sum":
		return reduceNumeric(v, 0, func(acc, x float64) float64 { return acc + x })
	case "avg":
		nums, err := toNumericSlice(v)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return 0.0, nil
		}
		var sum float64
		for _, n := range nums {
			sum += n
		}
		return sum / float64(len(nums)), nil
	case "min":
		nums, err := toNumericSlice(v)
		if err != nil || len(nums) == 0 {
			return nil, ErrNotFound
		}
		m := nums[0]
		for _, n := range nums[1:] {
			if n < m {
				m = n
			}
		}
		return m, nil
	case "max":
		nums, err := toNumericSlice(v)
		if err != nil || len(nums) == 0 {
			return nil, ErrNotFound
		}
		m := nums[0]
		for _, n := range nums[1:] {
			if n > m {
				m = n
			}
		}
		return m, nil
	case "reverse":
		arr, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		out := make([]any, len(arr))
		for i, e := range arr {
			out[len(arr)-1-i] = e
		}
		return out, nil
	case "sort":
		arr, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		out := append([]any(nil), arr...)
		sort.Slice(out, func(i, j int) bool {
			return fmt.Sprintf("%v", out[i]) < fmt.Sprintf("%v", out[j])
		})
		return out, nil
	case "unique":
		arr, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		var out []any
		for _, e := range arr {
			key := fmt.Sprintf("%v", e)
			if !seen[key] {
				seen[key] = true
				out = append(out, e)
			}
		}
		return out, nil
	case "flatten":
		arr, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		var out []any
		var walk func(any)
		walk = func(x any) {
			if sub, ok := x.([]any); ok {
				for _, e := range sub {
					walk(e)
				}
			} else {
				out = append(out, x)
			}
		}
		for _, e := range arr {
			walk(e)
		}
		return out, nil
	case "keys":
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("jsonpath: keys() requires a map")
		}
		keys := sortedKeys(m)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out, nil
	case "values":
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("jsonpath: values() requires a map")
		}
		keys := sortedKeys(m)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = m[k]
		}
		return out, nil
	case "upper":
		return strings.ToUpper(toString(v)), nil
	case "lower":
		return strings.ToLower(toString(v)), nil
	case "trim":
		return strings.TrimSpace(toString(v)), nil
	case "split":
		sep := ","
		if len(fn.args) > 0 {
			sep = fn.args[0]
		}
		parts := strings.Split(toString(v), sep)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	case "join":
		sep := ","
		if len(fn.args) > 0 {
			sep = fn.args[0]
		}
		arr, err := toSlice(v)
		if err != nil {
			return nil, err
		}
		parts := make([]string, len(arr))
		for i, e := range arr {
			parts[i] = toString(e)
		}
		return strings.Join(parts, sep), nil
	case "contains":
		if len(fn.args) == 0 {
			return false, nil
		}
		return containsValue(v, fn.args[0]), nil
	case "starts_with":
		if len(fn.args) == 0 {
			return false, nil
		}
		return strings.HasPrefix(toString(v), fn.args[0]), nil
	case "ends_with":
		if len(fn.args) == 0 {
			return false, nil
		}
		return strings.HasSuffix(toString(v), fn.args[0]), nil
	case "matches":
		if len(fn.args) == 0 {
			return false, nil
		}
		re, err := regexp.Compile(fn.args[0])
		if err != nil {
			return false, nil
		}
		return re.MatchString(toString(v)), nil
	default:
		return nil, fmt.Errorf("jsonpath: unknown function %q", fn.name)
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

func firstOf(v any) (any, error) {
	arr, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, ErrNotFound
	}
	return arr[0], nil
}

func lastOf(v any) (any, error) {
	arr, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	if len(arr) == 0 {
		return nil, ErrNotFound
	}
	return arr[len(arr)-1], nil
}

func toSlice(v any) ([]any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("jsonpath: expected a list, got %T", v)
	}
	return arr, nil
}

func toNumericSlice(v any) ([]float64, error) {
	arr, err := toSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(arr))
	for _, e := range arr {
		f, ok := toFloat(e)
		if !ok {
			return nil, fmt.Errorf("jsonpath: non-numeric element %v", e)
		}
		out = append(out, f)
	}
	return out, nil
}

func reduceNumeric(v any, init float64, f func(acc, x float64) float64) (float64, error) {
	nums, err := toNumericSlice(v)
	if err != nil {
		return 0, err
	}
	acc := init
	for _, n := range nums {
		acc = f(acc, n)
	}
	return acc, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func containsValue(v any, target string) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(t, target)
	case []any:
		for _, e := range t {
			if toString(e) == target {
				return true
			}
		}
		return false
	case map[string]any:
		_, ok := t[target]
		return ok
	default:
		return false
	}
}

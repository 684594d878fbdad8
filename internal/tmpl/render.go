// Package tmpl implements the `{{expr}}` template renderer: recursive
// substitution over strings/maps/lists, nested variable lookups, and the
// built-in function set (random, random_uuid, timestamp*, datetime).
package tmpl

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// exprRe finds the next {{...}} token; expressions do not nest.
var exprRe = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Renderer expands {{expr}} tokens against a Store using injectable
// clock/random providers so built-in output is deterministic under test.
type Renderer struct {
	Clock  Clock
	Random RandomSource
}

// New builds a Renderer wired to the real system clock and entropy source.
func New() *Renderer {
	return &Renderer{Clock: SystemClock{}, Random: SystemRandom{}}
}

// builtinNames is the set of zero/one-arg function names recognized inside
// {{...}}; anything else is treated as a variable lookup.
var builtinNames = map[string]bool{
	"random":       true,
	"random_uuid":  true,
	"timestamp":    true,
	"timestamp_ms": true,
	"timestamp_us": true,
	"datetime":     true,
}

// Render walks value recursively: strings are expanded, maps/lists are
// walked, other leaves pass through unchanged.
func (r *Renderer) Render(value any, store *vars.Store) (any, error) {
	switch v := value.(type) {
	case string:
		return r.renderString(v, store)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			rv, err := r.Render(e, store)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			rv, err := r.Render(e, store)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return value, nil
	}
}

// RenderString is a convenience wrapper for string-typed fields (URLs,
// headers, SQL, etc.) that always need a string result.
func (r *Renderer) RenderString(s string, store *vars.Store) (string, error) {
	v, err := r.renderString(s, store)
	if err != nil {
		return "", err
	}
	return stringifyResult(v), nil
}

// renderString implements the single-expression-returns-native-type rule:
// when the ENTIRE string is one {{expr}}, the expression's native value
// (int/float/bool/list/map) is returned; otherwise every match is
// stringified and substituted in place.
func (r *Renderer) renderString(s string, store *vars.Store) (any, error) {
	matches := exprRe.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		expr := s[matches[0][2]:matches[0][3]]
		return r.evalExpr(expr, store)
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		expr := s[m[2]:m[3]]
		v, err := r.evalExpr(expr, store)
		if err != nil {
			return nil, err
		}
		b.WriteString(stringifyResult(v))
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

// evalExpr evaluates one {{...}} payload: a built-in call, a dotted
// variable path, or a bare variable name.
func (r *Renderer) evalExpr(expr string, store *vars.Store) (any, error) {
	expr = strings.TrimSpace(expr)

	if name, args, isCall := parseCall(expr); isCall {
		if builtinNames[name] {
			return r.callBuiltin(name, args)
		}
	}

	if builtinNames[expr] {
		return r.callBuiltin(expr, nil)
	}

	if strings.Contains(expr, ".") {
		v, ok := store.GetPath(expr)
		if !ok {
			return nil, &errs.StepError{
				Kind:    errs.VariableNotFound,
				Message: fmt.Sprintf("variable %q not found", expr),
			}
		}
		return v, nil
	}

	v, ok := store.Get(expr)
	if !ok {
		return nil, &errs.StepError{
			Kind:    errs.VariableNotFound,
			Message: fmt.Sprintf("variable %q not found", expr),
		}
	}
	return v, nil
}

// parseCall splits `fn(a, b)` into its name and literal, comma-split,
// trimmed arguments. No nested function calls are supported, per §4.3.
func parseCall(expr string) (name string, args []string, ok bool) {
	open := strings.IndexByte(expr, '(')
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return "", nil, false
	}
	name = strings.TrimSpace(expr[:open])
	inner := expr[open+1 : len(expr)-1]
	if strings.TrimSpace(inner) == "" {
		return name, nil, true
	}
	for _, a := range strings.Split(inner, ",") {
		args = append(args, strings.TrimSpace(a))
	}
	return name, args, true
}

func (r *Renderer) callBuiltin(name string, args []string) (any, error) {
	switch name {
	case "random":
		n := 8
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil {
				n = v
			}
		}
		return r.Random.HexString(n), nil
	case "random_uuid":
		return r.Random.UUID(), nil
	case "timestamp":
		return r.Clock.Now().Unix(), nil
	case "timestamp_ms":
		return r.Clock.Now().UnixMilli(), nil
	case "timestamp_us":
		return r.Clock.Now().UnixMicro(), nil
	case "datetime":
		layout := "2006-01-02 15:04:05"
		if len(args) > 0 {
			layout = strftimeToGo(strings.Trim(args[0], `"'`))
		}
		return r.Clock.Now().Format(layout), nil
	default:
		return nil, fmt.Errorf("tmpl: unknown built-in %q", name)
	}
}

// strftimeToGo translates the common strftime directives used in scenario
// files into Go's reference-time layout.
func strftimeToGo(f string) string {
	repl := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
		"%z", "-0700", "%Z", "MST",
	)
	return repl.Replace(f)
}

func stringifyResult(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Package extract pulls values out of an HTTP response, a named prior
// variable, or DB result rows, and writes them into the variable store.
package extract

import (
	"strings"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/jsonpath"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// Source is the set of values an ExtractRule may read from: the last HTTP
// response (or one named by sourceVariable) and/or DB result rows.
type Source struct {
	Body       any // decoded JSON body, or a string when it did not parse as JSON
	Headers    map[string][]string
	Cookies    map[string]string
	DBRows     []map[string]any
	StatusCode int
}

// Result is one ExtractRule's outcome, attached to the owning StepResult.
type Result struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Value   any    `json:"value,omitempty"`
	Error   *errs.Info `json:"error,omitempty"`
}

// Resolver looks up a named prior source variable (typically last_response
// captured under a different name via sourceVariable) for rules that do
// not read the current step's own Source.
type Resolver func(name string) (Source, bool)

// Run applies every rule in order against src (or whatever sourceVariable
// resolves to), writing successes into store and collecting per-rule
// results. A failed extraction alone never fails the owning step (§4.6).
func Run(rules []scenario.ExtractRule, src Source, store *vars.Store, resolve Resolver) []Result {
	out := make([]Result, 0, len(rules))
	for _, rule := range rules {
		out = append(out, runOne(rule, src, store, resolve))
	}
	return out
}

func runOne(rule scenario.ExtractRule, src Source, store *vars.Store, resolve Resolver) Result {
	effective := src
	if rule.SourceVariable != "" && resolve != nil {
		if s, ok := resolve(rule.SourceVariable); ok {
			effective = s
		}
	}

	value, err := extractOne(rule, effective)
	if err != nil {
		if rule.HasDefault {
			writeExtracted(store, rule, rule.Default)
			return Result{Name: rule.Name, Success: true, Value: rule.Default}
		}
		return Result{
			Name:    rule.Name,
			Success: false,
			Error:   (&errs.StepError{Kind: errs.ExtractFailed, Message: err.Error()}).Info(true),
		}
	}

	writeExtracted(store, rule, value)
	return Result{Name: rule.Name, Success: true, Value: value}
}

func extractOne(rule scenario.ExtractRule, src Source) (any, error) {
	switch rule.SourceKind {
	case scenario.SourceJSON:
		return jsonpath.Eval(src.Body, rule.Expression)
	case scenario.SourceHeader:
		return lookupHeader(src.Headers, rule.Expression)
	case scenario.SourceCookie:
		v, ok := lookupCookie(src.Cookies, rule.Expression)
		if !ok {
			return nil, jsonpath.ErrNotFound
		}
		return v, nil
	case scenario.SourceDBResult:
		return jsonpath.EvalRows(src.DBRows, rule.Expression)
	default:
		return nil, jsonpath.ErrNotFound
	}
}

func lookupHeader(headers map[string][]string, name string) (any, error) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			if len(v) == 0 {
				return "", nil
			}
			return v[0], nil
		}
	}
	return nil, jsonpath.ErrNotFound
}

// lookupCookie matches name case-insensitively, the same as lookupHeader.
func lookupCookie(cookies map[string]string, name string) (string, bool) {
	for k, v := range cookies {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func writeExtracted(store *vars.Store, rule scenario.ExtractRule, value any) {
	layer := vars.LayerGlobal
	if rule.Scope == scenario.ScopeEnvironment {
		layer = vars.LayerEnvironment
	}
	store.Set(layer, rule.Name, value)
}

// Package validate applies a comparator to a target-derived actual value
// against a templated expected value, producing an AssertionResult.
package validate

import (
	"strings"

	"github.com/wesleyorama2/sisyphus/internal/compare"
	"github.com/wesleyorama2/sisyphus/internal/extract"
	"github.com/wesleyorama2/sisyphus/internal/jsonpath"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/tmpl"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// Status is an AssertionResult's outcome.
type Status string

const (
	StatusPassed Status = "passed"
	StatusFailed Status = "failed"
)

// Result is one ValidateRule's outcome, attached to the owning StepResult.
type Result struct {
	Target     scenario.ValidateTarget `json:"target"`
	Expression string                  `json:"expression,omitempty"`
	Comparator string                  `json:"comparator"`
	Expected   any                     `json:"expected"`
	Actual     any                     `json:"actual"`
	Status     Status                  `json:"status"`
	Message    string                  `json:"message,omitempty"`
}

// Context carries everything a rule's target might resolve against.
type Context struct {
	Source       extract.Source
	ResponseTime int64 // milliseconds
	Store        *vars.Store
	Renderer     *tmpl.Renderer
}

// Run applies every rule in order; a failing assertion never short-circuits
// the remaining rules of the same step (§4.7).
func Run(rules []scenario.ValidateRule, ctx Context) []Result {
	out := make([]Result, 0, len(rules))
	for _, rule := range rules {
		out = append(out, runOne(rule, ctx))
	}
	return out
}

func runOne(rule scenario.ValidateRule, ctx Context) Result {
	// A "not found" path is a distinguished signal, not null (§4.4); the
	// comparator itself (is_null vs. everything else) decides whether
	// that absence passes or fails, so the error is not special-cased here.
	actual, _ := resolveActual(rule, ctx)

	expected, err := ctx.Renderer.Render(rule.Expected, ctx.Store)
	if err != nil {
		expected = rule.Expected
	}

	res := Result{
		Target:     rule.Target,
		Expression: rule.Expression,
		Comparator: rule.Comparator,
		Expected:   expected,
		Actual:     actual,
		Status:     StatusFailed,
		Message:    rule.Message,
	}

	if compare.Compare(rule.Comparator, actual, expected) {
		res.Status = StatusPassed
	}
	return res
}

func resolveActual(rule scenario.ValidateRule, ctx Context) (any, error) {
	switch rule.Target {
	case scenario.TargetStatusCode:
		return ctx.Source.StatusCode, nil
	case scenario.TargetResponseTime:
		return ctx.ResponseTime, nil
	case scenario.TargetJSON:
		v, err := jsonpath.Eval(ctx.Source.Body, rule.Expression)
		if err != nil {
			return nil, err
		}
		return v, nil
	case scenario.TargetHeader:
		for k, v := range ctx.Source.Headers {
			if strings.EqualFold(k, rule.Expression) {
				if len(v) == 0 {
					return "", nil
				}
				return v[0], nil
			}
		}
		return nil, jsonpath.ErrNotFound
	case scenario.TargetCookie:
		for k, v := range ctx.Source.Cookies {
			if strings.EqualFold(k, rule.Expression) {
				return v, nil
			}
		}
		return nil, jsonpath.ErrNotFound
	case scenario.TargetEnvVariable:
		v, ok := ctx.Store.Get(rule.Expression)
		if !ok {
			return nil, jsonpath.ErrNotFound
		}
		return v, nil
	case scenario.TargetDBResult:
		v, err := jsonpath.EvalRows(ctx.Source.DBRows, rule.Expression)
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, jsonpath.ErrNotFound
	}
}

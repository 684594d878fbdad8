package scheduler

import (
	"context"
	"fmt"

	"github.com/wesleyorama2/sisyphus/internal/dbexec"
	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/extract"
	"github.com/wesleyorama2/sisyphus/internal/poll"
	"github.com/wesleyorama2/sisyphus/internal/result"
	"github.com/wesleyorama2/sisyphus/internal/retry"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/validate"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// execRequestStep sends the rendered request (once, under a retry policy,
// or under a poll config), then runs its extract/validate rules against
// the resulting response (§4.8).
func (s *Scheduler) execRequestStep(ctx context.Context, step *scenario.Step, store *vars.Store, sources map[string]extract.Source) (result.Status, *result.StepDetail, *errs.Info, []validate.Result, []extract.Result) {
	spec := step.Request
	detail := &result.StepDetail{}

	var reqURL, method string
	var respBody any
	var respHeaders map[string][]string
	var respCookies map[string]string
	var statusCode, bodySize int
	var responseTime int64
	var stepErr *errs.StepError

	attempt := func(int) (errs.Kind, error) {
		rendered, rerr := renderRequest(spec, s.Renderer, store)
		if rerr != nil {
			stepErr = toStepError(rerr)
			return stepErr.Kind, stepErr
		}
		reqDetail, respDetail, serr := s.HTTP.Execute(ctx, rendered, s.env)
		method, reqURL = reqDetail.Method, reqDetail.URL
		statusCode, bodySize, responseTime = respDetail.StatusCode, respDetail.BodySize, respDetail.ResponseTime
		respBody, respHeaders, respCookies = respDetail.Body, respDetail.Headers, respDetail.Cookies
		stepErr = serr
		if serr != nil {
			return serr.Kind, serr
		}
		return "", nil
	}

	var outcomeErr error
	switch {
	case step.PollConfig != nil:
		outcome := poll.Run(*step.PollConfig, s.Jitter, s.Sleep, func(n int) (any, int, error) {
			if _, err := attempt(n); err != nil {
				return nil, 0, err
			}
			return respBody, statusCode, nil
		})
		detail.Poll = &result.PollDetail{Attempts: len(outcome.Attempts), TimedOut: outcome.TimedOut}
		if outcome.Status != "passed" {
			outcomeErr = fmt.Errorf("%s", outcome.Message)
		}
	case step.RetryPolicy != nil:
		history, rerr := retry.Run(*step.RetryPolicy, s.Jitter, s.Sleep, attempt)
		detail.Retry = toRetryAttempts(history)
		outcomeErr = rerr
	default:
		_, outcomeErr = attempt(0)
	}

	detail.Request = &result.RequestDetail{
		Method: method, URL: reqURL, StatusCode: statusCode,
		BodySize: bodySize, ResponseTime: responseTime, Body: respBody,
	}

	if outcomeErr != nil {
		if stepErr != nil {
			return result.StatusError, detail, stepErr.Info(true), nil, nil
		}
		return result.StatusFailed, detail, nil, nil, nil
	}

	src := extract.Source{Body: respBody, Headers: respHeaders, Cookies: respCookies, StatusCode: statusCode}
	sources["last_response"] = src
	if step.Name != "" {
		sources[step.Name] = src
	}

	extractRules, _ := renderExtractRules(spec.Extract, s.Renderer, store)
	extractResults := extract.Run(extractRules, src, store, resolverFrom(sources))

	validateRules, _ := renderValidateRules(spec.Validate, s.Renderer, store)
	assertionResults := validate.Run(validateRules, validate.Context{
		Source: src, ResponseTime: responseTime, Store: store, Renderer: s.Renderer,
	})

	return statusFromAssertions(assertionResults), detail, nil, assertionResults, extractResults
}

// execDBStep runs the step's SQL through the named datasource, then its
// extract/validate rules against the returned rows (§4.9).
func (s *Scheduler) execDBStep(ctx context.Context, step *scenario.Step, store *vars.Store, sources map[string]extract.Source) (result.Status, *result.StepDetail, *errs.Info, []validate.Result, []extract.Result) {
	spec := step.DB
	detail := &result.StepDetail{}

	var res dbexec.Result
	var stepErr *errs.StepError

	attempt := func(int) (errs.Kind, error) {
		rendered, rerr := s.Renderer.RenderString(spec.SQL, store)
		if rerr != nil {
			stepErr = toStepError(rerr)
			return stepErr.Kind, stepErr
		}
		r, serr := s.DB.Execute(ctx, spec.Datasource, spec.SQL, rendered)
		res, stepErr = r, serr
		if serr != nil {
			return serr.Kind, serr
		}
		return "", nil
	}

	var outcomeErr error
	if step.RetryPolicy != nil {
		history, rerr := retry.Run(*step.RetryPolicy, s.Jitter, s.Sleep, attempt)
		detail.Retry = toRetryAttempts(history)
		outcomeErr = rerr
	} else {
		_, outcomeErr = attempt(0)
	}

	detail.DB = &result.DBDetail{
		Datasource: res.Datasource, SQL: res.SQL, SQLRendered: res.SQLRendered, Rows: res.Rows,
	}

	if outcomeErr != nil {
		return result.StatusError, detail, stepErr.Info(true), nil, nil
	}

	src := extract.Source{DBRows: res.Rows}
	if step.Name != "" {
		sources[step.Name] = src
	}

	extractRules, _ := renderExtractRules(spec.Extract, s.Renderer, store)
	extractResults := extract.Run(extractRules, src, store, resolverFrom(sources))

	validateRules, _ := renderValidateRules(spec.Validate, s.Renderer, store)
	assertionResults := validate.Run(validateRules, validate.Context{Source: src, Store: store, Renderer: s.Renderer})

	return statusFromAssertions(assertionResults), detail, nil, assertionResults, extractResults
}

// execAssertionStep applies one rule against the current or a named prior
// source (§4.7); it never executes a request or query of its own.
func (s *Scheduler) execAssertionStep(step *scenario.Step, store *vars.Store, sources map[string]extract.Source) (result.Status, *result.StepDetail, *errs.Info, []validate.Result, []extract.Result) {
	spec := step.Assertion
	rule := spec.Rule
	if expr, err := s.Renderer.RenderString(rule.Expression, store); err == nil {
		rule.Expression = expr
	}

	results := validate.Run([]scenario.ValidateRule{rule}, validate.Context{
		Source: resolveSource(spec.SourceVariable, sources), Store: store, Renderer: s.Renderer,
	})
	return statusFromAssertions(results), nil, nil, results, nil
}

// execExtractStep applies its rules against the current or a named prior
// source. A failed extraction alone never fails the step (§4.6).
func (s *Scheduler) execExtractStep(step *scenario.Step, store *vars.Store, sources map[string]extract.Source) (result.Status, *result.StepDetail, *errs.Info, []validate.Result, []extract.Result) {
	spec := step.Extract
	src := resolveSource(spec.SourceVariable, sources)
	rules, _ := renderExtractRules(spec.Rules, s.Renderer, store)
	results := extract.Run(rules, src, store, resolverFrom(sources))
	return result.StatusPassed, nil, nil, nil, results
}

// execCustomStep invokes the registered keyword function with rendered
// parameters, then runs its extract rules against whatever Source it
// returned.
func (s *Scheduler) execCustomStep(ctx context.Context, step *scenario.Step, store *vars.Store, sources map[string]extract.Source) (result.Status, *result.StepDetail, *errs.Info, []validate.Result, []extract.Result) {
	spec := step.Custom
	fn, ok := s.Custom[spec.KeywordName]
	if !ok {
		return result.StatusError, nil, (&errs.StepError{
			Kind:    errs.KeywordNotFound,
			Message: fmt.Sprintf("custom keyword %q is not registered", spec.KeywordName),
		}).Info(true), nil, nil
	}

	rendered, rerr := s.Renderer.Render(spec.Parameters, store)
	if rerr != nil {
		return result.StatusError, nil, toStepError(rerr).Info(true), nil, nil
	}
	params, _ := rendered.(map[string]any)

	src, err := fn(ctx, params, store)
	if err != nil {
		return result.StatusError, nil, (&errs.StepError{
			Kind:    errs.KeywordExecutionErr,
			Message: err.Error(),
		}).Info(true), nil, nil
	}
	if step.Name != "" {
		sources[step.Name] = src
	}

	extractResults := extract.Run(spec.Extract, src, store, resolverFrom(sources))
	return result.StatusPassed, nil, nil, nil, extractResults
}

func statusFromAssertions(results []validate.Result) result.Status {
	for _, a := range results {
		if a.Status == validate.StatusFailed {
			return result.StatusFailed
		}
	}
	return result.StatusPassed
}

func resolveSource(sourceVariable string, sources map[string]extract.Source) extract.Source {
	name := sourceVariable
	if name == "" {
		name = "last_response"
	}
	return sources[name]
}

func resolverFrom(sources map[string]extract.Source) extract.Resolver {
	return func(name string) (extract.Source, bool) {
		src, ok := sources[name]
		return src, ok
	}
}

func toStepError(err error) *errs.StepError {
	if se, ok := err.(*errs.StepError); ok {
		return se
	}
	return &errs.StepError{Kind: errs.VariableRenderError, Message: err.Error()}
}

func toRetryAttempts(history []retry.Attempt) []result.RetryAttempt {
	out := make([]result.RetryAttempt, len(history))
	for i, a := range history {
		out[i] = result.RetryAttempt{Number: a.Number, Outcome: a.Outcome, DelayMs: int64(a.Delay), Error: a.Error}
	}
	return out
}

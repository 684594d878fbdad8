// Package scheduler walks a case's ordered steps, applying the
// enabled/skip_if/only_if/dependsOn gates, setup/teardown sub-steps, and
// dispatching each step to its keyword executor under the step's retry
// policy, poll config, or loop spec (§4.13).
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/wesleyorama2/sisyphus/internal/dbexec"
	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/extract"
	"github.com/wesleyorama2/sisyphus/internal/httpexec"
	"github.com/wesleyorama2/sisyphus/internal/result"
	"github.com/wesleyorama2/sisyphus/internal/retry"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/tmpl"
	"github.com/wesleyorama2/sisyphus/internal/validate"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// CustomFunc is a registered `custom` keyword implementation. It returns
// an extract.Source so the step's own `extract` rules can pull values out
// of whatever the function produced.
type CustomFunc func(ctx context.Context, params map[string]any, store *vars.Store) (extract.Source, error)

// CustomRegistry resolves a step's keywordName to its CustomFunc.
type CustomRegistry map[string]CustomFunc

// Scheduler executes a case's step tree against one VariableStore.
type Scheduler struct {
	Renderer *tmpl.Renderer
	HTTP     *httpexec.Executor
	DB       *dbexec.Registry
	Custom   CustomRegistry
	Jitter   retry.JitterSource
	Sleep    func(time.Duration)
	Now      func() time.Time
	Log      func(level result.LogLevel, message string, stepIndex *int)

	env *scenario.Environment
}

// New builds a Scheduler wired to the system clock and sleeper; Log is a
// no-op until the caller assigns one (the engine wires it to the case's
// log stream).
func New(renderer *tmpl.Renderer, httpExec *httpexec.Executor, db *dbexec.Registry, custom CustomRegistry, jitter retry.JitterSource) *Scheduler {
	return &Scheduler{
		Renderer: renderer,
		HTTP:     httpExec,
		DB:       db,
		Custom:   custom,
		Jitter:   jitter,
		Sleep:    time.Sleep,
		Now:      time.Now,
		Log:      func(result.LogLevel, string, *int) {},
	}
}

// Run executes cfg's pre_sql block (if any), walks steps in order, then
// runs post_sql. A pre_sql failure aborts the case before step 0 and is
// returned as an EngineError; post_sql failures are logged but do not
// retroactively change a case that otherwise completed.
func (s *Scheduler) Run(ctx context.Context, cfg *scenario.Config, steps []scenario.Step, store *vars.Store) ([]result.StepResult, *errs.EngineError) {
	if cfg != nil {
		s.env = cfg.Environment
	}
	sources := map[string]extract.Source{}

	if cfg != nil && cfg.PreSQL != nil {
		if eerr := s.runSQLBlock(ctx, "pre_sql", cfg.PreSQL, store); eerr != nil {
			return nil, eerr
		}
	}

	results := s.runStepList(ctx, steps, store, sources)

	if cfg != nil && cfg.PostSQL != nil {
		_ = s.runSQLBlock(ctx, "post_sql", cfg.PostSQL, store)
	}

	return results, nil
}

func (s *Scheduler) runSQLBlock(ctx context.Context, name string, block *scenario.SqlBlock, store *vars.Store) *errs.EngineError {
	for _, stmt := range block.Statements {
		rendered, rerr := s.Renderer.RenderString(stmt, store)
		if rerr != nil {
			s.log(result.LogError, fmt.Sprintf("%s: %v", name, rerr), nil)
			return &errs.EngineError{Kind: errs.VariableRenderError, Message: rerr.Error(), Path: name}
		}
		if _, stepErr := s.DB.Execute(ctx, block.Datasource, stmt, rendered); stepErr != nil {
			s.log(result.LogError, fmt.Sprintf("%s: %v", name, stepErr), nil)
			return &errs.EngineError{Kind: stepErr.Kind, Message: stepErr.Message, Path: name}
		}
	}
	s.log(result.LogInfo, name+" completed", nil)
	return nil
}

// runStepList executes steps in order against one local dependsOn
// namespace; used for the top-level case, setup/teardown sub-steps, and
// loop bodies alike (§4.13's "each obeys the same rules").
func (s *Scheduler) runStepList(ctx context.Context, steps []scenario.Step, store *vars.Store, sources map[string]extract.Source) []result.StepResult {
	statusByName := map[string]result.Status{}
	out := make([]result.StepResult, 0, len(steps))
	for i := range steps {
		step := &steps[i]
		res := s.runStep(ctx, step, store, statusByName, sources)
		if step.Name != "" {
			statusByName[step.Name] = res.Status
		}
		out = append(out, res)
	}
	return out
}

func (s *Scheduler) runStep(ctx context.Context, step *scenario.Step, store *vars.Store, statusByName map[string]result.Status, sources map[string]extract.Source) result.StepResult {
	res := result.StepResult{
		Index:       step.Index,
		Name:        step.Name,
		KeywordType: step.Type,
		KeywordName: step.KeywordName,
		StartTime:   s.Now(),
	}

	if skipped, reason := s.shouldSkip(step, store, statusByName); skipped {
		res.Status = result.StatusSkipped
		res.SkipReason = reason
		res.EndTime = s.Now()
		return res
	}

	setupFailed := false
	if len(step.Setup) > 0 {
		for _, sr := range s.runStepList(ctx, step.Setup, store, sources) {
			if sr.Status == result.StatusError || sr.Status == result.StatusFailed {
				setupFailed = true
			}
		}
	}

	if setupFailed {
		res.Status = result.StatusError
		res.Error = &errs.Info{Code: errs.KeywordExecutionErr, Message: "a setup sub-step failed"}
	} else {
		res.Status, res.Detail, res.Error, res.AssertionResults, res.ExtractResults = s.executeCore(ctx, step, store, sources)
	}

	if len(step.Teardown) > 0 {
		s.runStepList(ctx, step.Teardown, store, sources)
	}

	res.EndTime = s.Now()
	res.DurationMs = res.EndTime.Sub(res.StartTime).Milliseconds()
	return res
}

// shouldSkip implements §4.13 steps 1-3: disabled, skip_if/only_if, and
// dependsOn cascade.
func (s *Scheduler) shouldSkip(step *scenario.Step, store *vars.Store, statusByName map[string]result.Status) (bool, string) {
	if !step.IsEnabled() {
		return true, "disabled"
	}
	if step.SkipIf != "" && evaluateCondition(step.SkipIf, s.Renderer, store) {
		return true, "skip_if"
	}
	if step.OnlyIf != "" && !evaluateCondition(step.OnlyIf, s.Renderer, store) {
		return true, "only_if"
	}
	for _, dep := range step.DependsOn {
		if st, ok := statusByName[dep]; ok && (st == result.StatusFailed || st == result.StatusError) {
			return true, "dependency_failed"
		}
	}
	return false, ""
}

func (s *Scheduler) executeCore(ctx context.Context, step *scenario.Step, store *vars.Store, sources map[string]extract.Source) (result.Status, *result.StepDetail, *errs.Info, []validate.Result, []extract.Result) {
	if step.Loop != nil {
		return s.execLoopStep(ctx, step, store, sources)
	}
	switch step.Type {
	case scenario.KeywordRequest:
		return s.execRequestStep(ctx, step, store, sources)
	case scenario.KeywordDB:
		return s.execDBStep(ctx, step, store, sources)
	case scenario.KeywordAssertion:
		return s.execAssertionStep(step, store, sources)
	case scenario.KeywordExtract:
		return s.execExtractStep(step, store, sources)
	case scenario.KeywordCustom:
		return s.execCustomStep(ctx, step, store, sources)
	default:
		return result.StatusError, nil, (&errs.StepError{
			Kind:    errs.KeywordExecutionErr,
			Message: "step has no executable keywordType or loop",
		}).Info(true), nil, nil
	}
}

func (s *Scheduler) log(level result.LogLevel, message string, stepIndex *int) {
	if s.Log != nil {
		s.Log(level, message, stepIndex)
	}
}

// Package engine wires the loader, sidecar config, scheduler, and
// data-driven driver into the single top-level Run a CLI command invokes,
// producing the CaseResult document described in §3/§4.15.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/sisyphus/internal/dbexec"
	"github.com/wesleyorama2/sisyphus/internal/ddt"
	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/httpexec"
	"github.com/wesleyorama2/sisyphus/internal/logs"
	"github.com/wesleyorama2/sisyphus/internal/result"
	"github.com/wesleyorama2/sisyphus/internal/retry"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/scheduler"
	"github.com/wesleyorama2/sisyphus/internal/sconfig"
	"github.com/wesleyorama2/sisyphus/internal/tmpl"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// dataDrivenConcurrency is the "implementation default" bound named by
// §4.14 for parallel data-driven rows.
const dataDrivenConcurrency = 4

// Engine holds the components a Run call shares across every case: the
// HTTP/DB executors, custom keyword registry, jitter source, and the
// sidecar config resolved once at startup.
type Engine struct {
	HTTP         *httpexec.Executor
	DB           *dbexec.Registry
	Custom       scheduler.CustomRegistry
	Jitter       retry.JitterSource
	Sidecar      *sconfig.Config
	Verbose      bool
	Profile      string
	CaseDeadline time.Duration // 0 means no overall deadline
}

// New builds an Engine with sane defaults; callers override fields (DB
// adapters, custom keywords, sidecar config) before calling Run.
func New() *Engine {
	return &Engine{
		HTTP:    httpexec.New(nil),
		DB:      dbexec.NewRegistry(),
		Custom:  scheduler.CustomRegistry{},
		Jitter:  retry.SystemJitter{},
		Sidecar: &sconfig.Config{},
	}
}

// RunFile loads path, resolves its sidecar-injected environment, and
// executes it, returning the full CaseResult document.
func (e *Engine) RunFile(ctx context.Context, path string) (*result.CaseResult, error) {
	cs, err := scenario.Load(path)
	if err != nil {
		return e.errorResult(nil, err), nil
	}
	return e.Run(ctx, cs)
}

// Run executes an already-parsed Case.
func (e *Engine) Run(ctx context.Context, cs *scenario.Case) (*result.CaseResult, error) {
	if e.Sidecar != nil {
		if err := e.Sidecar.ApplyDefaults(cs, e.Profile); err != nil {
			return e.errorResult(cs, &errs.EngineError{Kind: errs.EngineInternalError, Message: err.Error()}), nil
		}
	}

	if e.CaseDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.CaseDeadline)
		defer cancel()
	}

	collector := logs.NewCollector(e.Verbose)
	store := vars.New()
	store.SetMany(vars.LayerConfig, cs.Config.Variables)
	if cs.Config.Environment != nil {
		store.SetMany(vars.LayerEnvironment, cs.Config.Environment.Variables)
	}

	sched := scheduler.New(tmpl.New(), e.HTTP, e.DB, e.Custom, e.Jitter)
	sched.Log = collector.Log

	start := time.Now()

	var steps []result.StepResult
	var dataDriven *result.DataDrivenReport
	var runErr *errs.EngineError

	switch {
	case cs.Ddts != nil:
		report, derr := ddt.Run(ctx, store, cs.Ddts.Parameters, dataDrivenConcurrency, func(ctx context.Context, rowStore *vars.Store) ([]result.StepResult, *errs.EngineError) {
			return sched.Run(ctx, &cs.Config, cs.Steps, rowStore)
		})
		dataDriven, runErr = report, derr

	case cs.Config.CSVDatasource != "":
		rows, lerr := ddt.LoadCSV(cs.Config.CSVDatasource)
		if lerr != nil {
			runErr = toEngineError(lerr)
			break
		}
		report, derr := ddt.Run(ctx, store, rows, dataDrivenConcurrency, func(ctx context.Context, rowStore *vars.Store) ([]result.StepResult, *errs.EngineError) {
			return sched.Run(ctx, &cs.Config, cs.Steps, rowStore)
		})
		dataDriven, runErr = report, derr

	default:
		steps, runErr = sched.Run(ctx, &cs.Config, cs.Steps, store)
	}

	if ctx.Err() == context.DeadlineExceeded && runErr == nil {
		runErr = &errs.EngineError{Kind: errs.TimeoutError, Message: "case exceeded its overall deadline"}
	}

	end := time.Now()

	totalDataDrivenRuns := 0
	summarySteps := steps
	if dataDriven != nil {
		totalDataDrivenRuns = dataDriven.TotalRuns
		summarySteps = nil
		for _, run := range dataDriven.Runs {
			summarySteps = append(summarySteps, run.Steps...)
		}
	}

	summary := result.BuildSummary(summarySteps, totalDataDrivenRuns)

	status := result.DeriveStatus(summarySteps, runErr != nil)
	if dataDriven != nil && runErr == nil {
		status = dataDriven.Status
	}

	var errInfo *errs.Info
	if runErr != nil {
		errInfo = runErr.Info(e.Verbose)
	}

	return &result.CaseResult{
		ExecutionID:  uuid.NewString(),
		ScenarioID:   cs.Config.ScenarioID,
		ScenarioName: cs.Config.Name,
		ProjectID:    cs.Config.ProjectID,
		Status:       status,
		StartTime:    start,
		EndTime:      end,
		DurationMs:   end.Sub(start).Milliseconds(),
		Summary:      summary,
		Environment:  environmentSnapshot(cs.Config.Environment),
		Steps:        steps,
		DataDriven:   dataDriven,
		Variables:    store.FlattenForResult(),
		Logs:         collector.Entries(),
		Error:        errInfo,
	}, nil
}

func environmentSnapshot(env *scenario.Environment) result.EnvironmentSnapshot {
	if env == nil {
		return result.EnvironmentSnapshot{}
	}
	return result.EnvironmentSnapshot{Name: env.Name, BaseURL: env.BaseURL}
}

func toEngineError(err error) *errs.EngineError {
	if eerr, ok := err.(*errs.EngineError); ok {
		return eerr
	}
	return &errs.EngineError{Kind: errs.EngineInternalError, Message: err.Error()}
}

// errorResult builds a minimal CaseResult for a failure that occurred
// before any step could run (load/parse/validation/sidecar failure).
func (e *Engine) errorResult(cs *scenario.Case, err error) *result.CaseResult {
	eerr := toEngineError(err)
	res := &result.CaseResult{
		ExecutionID: uuid.NewString(),
		Status:      result.StatusError,
		StartTime:   time.Now(),
		EndTime:     time.Now(),
		Error:       eerr.Info(e.Verbose),
		Variables:   map[string]any{},
	}
	if cs != nil {
		res.ScenarioID = cs.Config.ScenarioID
		res.ScenarioName = cs.Config.Name
		res.ProjectID = cs.Config.ProjectID
	}
	return res
}

package scheduler

import (
	"context"
	"fmt"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/extract"
	"github.com/wesleyorama2/sisyphus/internal/loopdriver"
	"github.com/wesleyorama2/sisyphus/internal/result"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/tmpl"
	"github.com/wesleyorama2/sisyphus/internal/validate"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// execLoopStep dispatches a step's Loop block to the for/while/concurrent
// driver; the loop's own status is a reduction of its iterations'
// statuses, never a single executor's result (§4.12).
func (s *Scheduler) execLoopStep(ctx context.Context, step *scenario.Step, store *vars.Store, sources map[string]extract.Source) (result.Status, *result.StepDetail, *errs.Info, []validate.Result, []extract.Result) {
	l := step.Loop

	runBody := func(overlay *vars.Store, srcs map[string]extract.Source) (bool, []any) {
		results := s.runStepList(ctx, l.Steps, overlay, srcs)
		passed := true
		for _, r := range results {
			if r.Status == result.StatusFailed || r.Status == result.StatusError {
				passed = false
			}
		}
		out := make([]any, len(results))
		for i, r := range results {
			out[i] = r
		}
		return passed, out
	}

	var iterations []loopdriver.IterationResult
	var loopErr error

	switch l.Mode {
	case scenario.LoopFor:
		items, ierr := resolveItems(l.Items, s.Renderer, store)
		if ierr != nil {
			loopErr = ierr
			break
		}
		iterations = loopdriver.RunFor(items, store, func(overlay *vars.Store, item any, index int) (bool, []any) {
			return runBody(overlay, cloneSources(sources))
		})

	case scenario.LoopWhile:
		iterations, loopErr = loopdriver.RunWhile(store, func(st *vars.Store) bool {
			return evaluateCondition(l.Condition, s.Renderer, st)
		}, func(overlay *vars.Store, index int) (bool, []any) {
			return runBody(overlay, cloneSources(sources))
		})

	case scenario.LoopConcurrent:
		items, ierr := resolveItems(l.Items, s.Renderer, store)
		if ierr != nil {
			loopErr = ierr
			break
		}
		// Each worker gets its own sources clone: RunConcurrent invokes
		// this closure from real goroutines, and a shared map would take
		// concurrent writes from execRequestStep/execDBStep/execCustomStep
		// the moment two workers' bodies both hit a step that records a
		// source (§4.12 per-iteration isolation).
		iterations = loopdriver.RunConcurrent(len(items), l.Concurrency, store, func(overlay *vars.Store, index int) (bool, []any) {
			overlay.Set(vars.LayerEphemeral, "item", items[index])
			overlay.Set(vars.LayerEphemeral, "index", index)
			return runBody(overlay, cloneSources(sources))
		})

	default:
		loopErr = fmt.Errorf("unknown loop mode %q", l.Mode)
	}

	passedCount := 0
	for _, it := range iterations {
		if it.Passed {
			passedCount++
		}
	}
	detail := &result.StepDetail{Loop: &result.LoopDetail{
		Mode:       string(l.Mode),
		Iterations: len(iterations),
		Passed:     passedCount,
	}}

	if loopErr != nil {
		return result.StatusError, detail, toStepError(loopErr).Info(true), nil, nil
	}
	if !loopdriver.AllPassed(iterations) {
		return result.StatusFailed, detail, nil, nil, nil
	}
	return result.StatusPassed, detail, nil, nil, nil
}

// cloneSources returns a shallow copy of sources, seeded with whatever
// the loop's enclosing steps already recorded, so each iteration/worker
// mutates its own map instead of the parent's.
func cloneSources(sources map[string]extract.Source) map[string]extract.Source {
	out := make(map[string]extract.Source, len(sources))
	for k, v := range sources {
		out[k] = v
	}
	return out
}

// resolveItems accepts a literal list or a `{{var}}` reference rendering
// to one, per LoopSpec.Items' documented shape.
func resolveItems(items any, r *tmpl.Renderer, store *vars.Store) ([]any, error) {
	v := items
	if s, ok := items.(string); ok {
		rendered, err := r.Render(s, store)
		if err != nil {
			return nil, err
		}
		v = rendered
	}
	switch t := v.(type) {
	case []any:
		return t, nil
	case nil:
		return nil, fmt.Errorf("loop items resolved to nil")
	default:
		return nil, fmt.Errorf("loop items must resolve to a list, got %T", t)
	}
}

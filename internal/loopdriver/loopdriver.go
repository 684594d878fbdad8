// Package loopdriver implements the `for`/`while` sequential loop and the
// bounded-concurrency fan-out described in §4.12.
package loopdriver

import (
	"sync"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// whileIterationCeiling bounds `while` loops that never see their
// condition go false, per §4.12's "implementation-defined ceiling".
const whileIterationCeiling = 10000

// IterationResult is one loop/fan-out iteration's outcome.
type IterationResult struct {
	Index   int    `json:"index"`
	Passed  bool   `json:"passed"`
	Results []any  `json:"results"`
}

// RunFor executes body once per element of items; item and index are
// published into the overlay store's ephemeral layer before each call.
func RunFor(items []any, store *vars.Store, body func(overlay *vars.Store, item any, index int) (bool, []any)) []IterationResult {
	out := make([]IterationResult, 0, len(items))
	for i, item := range items {
		overlay := store.Overlay()
		overlay.Set(vars.LayerEphemeral, "item", item)
		overlay.Set(vars.LayerEphemeral, "index", i)

		passed, results := body(overlay, item, i)
		out = append(out, IterationResult{Index: i, Passed: passed, Results: results})
		store.MergeGlobalFrom(overlay)
	}
	return out
}

// RunWhile executes body while cond(store) holds, capped at
// whileIterationCeiling. Exceeding the cap is reported as a step error
// (*errs.StepError of kind ENGINE_INTERNAL_ERROR) per §4.12.
func RunWhile(store *vars.Store, cond func(*vars.Store) bool, body func(overlay *vars.Store, index int) (bool, []any)) ([]IterationResult, error) {
	var out []IterationResult
	i := 0
	for cond(store) {
		if i >= whileIterationCeiling {
			return out, &errs.StepError{
				Kind:    errs.EngineInternalError,
				Message: "while loop exceeded the iteration ceiling",
			}
		}
		overlay := store.Overlay()
		overlay.Set(vars.LayerEphemeral, "index", i)

		passed, results := body(overlay, i)
		out = append(out, IterationResult{Index: i, Passed: passed, Results: results})
		store.MergeGlobalFrom(overlay)
		i++
	}
	return out, nil
}

// RunConcurrent executes n iterations across a bounded worker pool of at
// most concurrency workers. Each worker gets its own overlay (layers 2-3
// isolated); on join, results are appended in start-order (iteration
// index) and global-scope writes are merged by that same deterministic
// order, never completion order.
func RunConcurrent(n, concurrency int, store *vars.Store, body func(overlay *vars.Store, index int) (bool, []any)) []IterationResult {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > n {
		concurrency = n
	}

	out := make([]IterationResult, n)
	overlays := make([]*vars.Store, n)

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		overlay := store.Overlay()
		overlay.Set(vars.LayerEphemeral, "index", i)
		overlays[i] = overlay

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, overlay *vars.Store) {
			defer wg.Done()
			defer func() { <-sem }()
			passed, results := body(overlay, i)
			out[i] = IterationResult{Index: i, Passed: passed, Results: results}
		}(i, overlay)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		store.MergeGlobalFrom(overlays[i])
	}
	return out
}

// AllPassed reports whether every iteration's result passed, matching the
// step's own status rule for concurrent fan-out (§4.12).
func AllPassed(results []IterationResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

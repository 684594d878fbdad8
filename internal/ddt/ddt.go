// Package ddt implements the Data-Driven Driver (§4.14): running a
// case's scheduler once per row of an inline `ddts.parameters` dataset or
// an external CSV datasource, each row isolated in its own variable
// store overlay, with bounded parallelism and logical-row-order output.
package ddt

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/result"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

// defaultConcurrency bounds parallel row runs when the caller does not
// override it, per §4.14's "implementation default".
const defaultConcurrency = 4

// RunFunc executes one row's full scheduler pass against its isolated
// store and returns that row's steps.
type RunFunc func(ctx context.Context, store *vars.Store) ([]result.StepResult, *errs.EngineError)

// LoadCSV reads a CSV datasource into the same `[]map[string]any` row
// shape as an inline `ddts.parameters` list: the header row supplies
// column names, and every other row's cells are type-sniffed into
// bool/int64/float64, falling back to the raw string, the way apirun's
// csv_parser coerces cell values.
func LoadCSV(path string) ([]map[string]any, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.EngineError{Kind: errs.CSVFileNotFound, Message: "CSV datasource not found", Detail: path}
		}
		return nil, &errs.EngineError{Kind: errs.CSVFileNotFound, Message: "CSV datasource could not be read", Detail: err.Error()}
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, &errs.EngineError{Kind: errs.CSVParseError, Message: "failed to parse CSV datasource", Detail: err.Error()}
	}
	if len(records) == 0 {
		return nil, &errs.EngineError{Kind: errs.CSVParseError, Message: "CSV datasource has no header row", Detail: path}
	}

	header := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = sniffCSVValue(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// sniffCSVValue tries int, then float, then bool, in that order, before
// falling back to the original string. Int/float are tried ahead of
// bool so a "0"/"1" cell lands as a number rather than strconv.ParseBool's
// accepted numeric spellings of false/true.
func sniffCSVValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return s
}

// Run executes run once per row of params against an overlay of base
// seeded with that row at vars.LayerRow, up to concurrency rows at a
// time (concurrency <= 0 falls back to defaultConcurrency). The returned
// report's Runs slice is always in row order, never completion order,
// and its aggregate Status is passed iff every row passed.
func Run(ctx context.Context, base *vars.Store, params []map[string]any, concurrency int, run RunFunc) (*result.DataDrivenReport, *errs.EngineError) {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	if concurrency > len(params) {
		concurrency = len(params)
	}

	runs := make([]result.DataDrivenRun, len(params))
	overlays := make([]*vars.Store, len(params))
	var firstEngineErr *errs.EngineError
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, row := range params {
		overlay := base.Overlay()
		overlay.SetMany(vars.LayerRow, row)
		overlays[i] = overlay

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, row map[string]any, overlay *vars.Store) {
			defer wg.Done()
			defer func() { <-sem }()

			steps, eerr := run(ctx, overlay)
			status := result.StatusPassed
			if eerr != nil {
				status = result.StatusError
				mu.Lock()
				if firstEngineErr == nil {
					firstEngineErr = eerr
				}
				mu.Unlock()
			} else {
				for _, st := range steps {
					if st.Status == result.StatusFailed || st.Status == result.StatusError {
						status = result.StatusFailed
					}
				}
			}
			runs[i] = result.DataDrivenRun{RowIndex: i, Parameters: row, Status: status, Steps: steps}
		}(i, row, overlay)
	}
	wg.Wait()

	for _, overlay := range overlays {
		base.MergeGlobalFrom(overlay)
	}

	if firstEngineErr != nil {
		return nil, firstEngineErr
	}

	passedRuns := 0
	overallStatus := result.StatusPassed
	for _, r := range runs {
		if r.Status == result.StatusPassed {
			passedRuns++
		} else {
			overallStatus = result.StatusFailed
		}
	}

	return &result.DataDrivenReport{
		TotalRuns:  len(runs),
		PassedRuns: passedRuns,
		Status:     overallStatus,
		Runs:       runs,
	}, nil
}

// ValidateRows checks every row shares the same key set as the first,
// per scenario.Ddts's documented invariant.
func ValidateRows(rows []map[string]any) error {
	if len(rows) == 0 {
		return fmt.Errorf("dataset has no rows")
	}
	want := keySet(rows[0])
	for i, row := range rows[1:] {
		got := keySet(row)
		if !sameKeys(want, got) {
			return fmt.Errorf("row %d has a different parameter key set than row 0", i+1)
		}
	}
	return nil
}

func keySet(m map[string]any) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

func sameKeys(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

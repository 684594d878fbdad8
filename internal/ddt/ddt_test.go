package ddt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/result"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

func TestLoadCSV_ParsesHeaderAndRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "users.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,alice\n2,bob\n"), 0o644))

	rows, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, "alice", rows[0]["name"])
	assert.Equal(t, "bob", rows[1]["name"])
}

func TestLoadCSV_SniffsNumericAndBoolCells(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mixed.csv")
	require.NoError(t, os.WriteFile(path, []byte("count,ratio,active,label\n3,1.5,true,hello\n"), 0o644))

	rows, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0]["count"])
	assert.Equal(t, 1.5, rows[0]["ratio"])
	assert.Equal(t, true, rows[0]["active"])
	assert.Equal(t, "hello", rows[0]["label"])
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV("/does/not/exist.csv")
	require.Error(t, err)
	eerr, ok := err.(*errs.EngineError)
	require.True(t, ok)
	assert.Equal(t, errs.CSVFileNotFound, eerr.Kind)
}

func TestValidateRows_RejectsMismatchedKeySets(t *testing.T) {
	rows := []map[string]any{{"a": 1, "b": 2}, {"a": 1}}
	assert.Error(t, ValidateRows(rows))
}

func TestValidateRows_AcceptsMatchingKeySets(t *testing.T) {
	rows := []map[string]any{{"a": 1, "b": 2}, {"a": 3, "b": 4}}
	assert.NoError(t, ValidateRows(rows))
}

func TestRun_RowOrderPreservedUnderConcurrency(t *testing.T) {
	params := []map[string]any{{"n": 1}, {"n": 2}, {"n": 3}, {"n": 4}}

	report, eerr := Run(context.Background(), vars.New(), params, 2, func(ctx context.Context, store *vars.Store) ([]result.StepResult, *errs.EngineError) {
		return []result.StepResult{{Name: "noop", Status: result.StatusPassed}}, nil
	})
	require.Nil(t, eerr)
	require.NotNil(t, report)
	require.Len(t, report.Runs, 4)
	for i, run := range report.Runs {
		assert.Equal(t, i, run.RowIndex)
	}
	assert.Equal(t, result.StatusPassed, report.Status)
	assert.Equal(t, 4, report.PassedRuns)
}

func TestRun_AnyFailedRowFailsAggregate(t *testing.T) {
	params := []map[string]any{{"n": 1}, {"n": 2}}

	report, eerr := Run(context.Background(), vars.New(), params, 2, func(ctx context.Context, store *vars.Store) ([]result.StepResult, *errs.EngineError) {
		n, _ := store.Get("n")
		status := result.StatusPassed
		if n == 2 {
			status = result.StatusFailed
		}
		return []result.StepResult{{Name: "step", Status: status}}, nil
	})
	require.Nil(t, eerr)
	assert.Equal(t, result.StatusFailed, report.Status)
	assert.Equal(t, 1, report.PassedRuns)
}

func TestRun_EngineErrorAbortsWithoutReport(t *testing.T) {
	params := []map[string]any{{"n": 1}}
	report, eerr := Run(context.Background(), vars.New(), params, 1, func(ctx context.Context, store *vars.Store) ([]result.StepResult, *errs.EngineError) {
		return nil, &errs.EngineError{Kind: errs.TimeoutError, Message: "deadline exceeded"}
	})
	assert.Nil(t, report)
	require.NotNil(t, eerr)
	assert.Equal(t, errs.TimeoutError, eerr.Kind)
}

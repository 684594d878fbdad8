package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/extract"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/tmpl"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

func newCtx(src extract.Source) Context {
	return Context{
		Source:   src,
		Store:    vars.New(),
		Renderer: tmpl.New(),
	}
}

func TestRun_StatusCode(t *testing.T) {
	ctx := newCtx(extract.Source{StatusCode: 200})
	results := Run([]scenario.ValidateRule{
		{Target: scenario.TargetStatusCode, Comparator: "eq", Expected: 200},
	}, ctx)
	require.Len(t, results, 1)
	assert.Equal(t, StatusPassed, results[0].Status)
}

func TestRun_JSONTarget(t *testing.T) {
	ctx := newCtx(extract.Source{Body: map[string]any{"status": "ACTIVE"}})
	results := Run([]scenario.ValidateRule{
		{Target: scenario.TargetJSON, Expression: "$.status", Comparator: "eq", Expected: "ACTIVE"},
	}, ctx)
	assert.Equal(t, StatusPassed, results[0].Status)
}

func TestRun_DoesNotShortCircuit(t *testing.T) {
	ctx := newCtx(extract.Source{StatusCode: 201})
	results := Run([]scenario.ValidateRule{
		{Target: scenario.TargetStatusCode, Comparator: "eq", Expected: 200},
		{Target: scenario.TargetStatusCode, Comparator: "gt", Expected: 0},
	}, ctx)
	require.Len(t, results, 2)
	assert.Equal(t, StatusFailed, results[0].Status)
	assert.Equal(t, StatusPassed, results[1].Status)
}

func TestRun_HeaderCaseInsensitive(t *testing.T) {
	ctx := newCtx(extract.Source{Headers: map[string][]string{"X-Trace-Id": {"abc"}}})
	results := Run([]scenario.ValidateRule{
		{Target: scenario.TargetHeader, Expression: "x-trace-id", Comparator: "eq", Expected: "abc"},
	}, ctx)
	assert.Equal(t, StatusPassed, results[0].Status)
}

func TestRun_EnvVariableTarget(t *testing.T) {
	ctx := newCtx(extract.Source{})
	ctx.Store.Set(vars.LayerGlobal, "region", "eu")
	results := Run([]scenario.ValidateRule{
		{Target: scenario.TargetEnvVariable, Expression: "region", Comparator: "eq", Expected: "eu"},
	}, ctx)
	assert.Equal(t, StatusPassed, results[0].Status)
}

func TestRun_ExpectedIsTemplated(t *testing.T) {
	ctx := newCtx(extract.Source{StatusCode: 200})
	ctx.Store.Set(vars.LayerGlobal, "want", 200)
	results := Run([]scenario.ValidateRule{
		{Target: scenario.TargetStatusCode, Comparator: "eq", Expected: "{{want}}"},
	}, ctx)
	assert.Equal(t, StatusPassed, results[0].Status)
}

func TestRun_JSONPathNotFoundIsNull(t *testing.T) {
	ctx := newCtx(extract.Source{Body: map[string]any{}})
	results := Run([]scenario.ValidateRule{
		{Target: scenario.TargetJSON, Expression: "$.missing", Comparator: "is_null", Expected: nil},
	}, ctx)
	assert.Equal(t, StatusPassed, results[0].Status)
}

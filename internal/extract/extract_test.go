package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/vars"
)

func TestRun_JSONExtractWritesGlobal(t *testing.T) {
	store := vars.New()
	src := Source{Body: map[string]any{"token": "T"}}

	results := Run([]scenario.ExtractRule{
		{Name: "auth_token", SourceKind: scenario.SourceJSON, Expression: "$.token", Scope: scenario.ScopeGlobal},
	}, src, store, nil)

	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	v, ok := store.Get("auth_token")
	require.True(t, ok)
	assert.Equal(t, "T", v)
}

func TestRun_HeaderIsCaseInsensitive(t *testing.T) {
	store := vars.New()
	src := Source{Headers: map[string][]string{"Content-Type": {"application/json"}}}

	results := Run([]scenario.ExtractRule{
		{Name: "ct", SourceKind: scenario.SourceHeader, Expression: "content-type", Scope: scenario.ScopeGlobal},
	}, src, store, nil)

	assert.True(t, results[0].Success)
	assert.Equal(t, "application/json", results[0].Value)
}

func TestRun_FailureWithoutDefault(t *testing.T) {
	store := vars.New()
	src := Source{Body: map[string]any{}}

	results := Run([]scenario.ExtractRule{
		{Name: "missing", SourceKind: scenario.SourceJSON, Expression: "$.nope", Scope: scenario.ScopeGlobal},
	}, src, store, nil)

	assert.False(t, results[0].Success)
	require.NotNil(t, results[0].Error)
	_, ok := store.Get("missing")
	assert.False(t, ok)
}

func TestRun_FailureWithDefaultWrites(t *testing.T) {
	store := vars.New()
	src := Source{Body: map[string]any{}}

	results := Run([]scenario.ExtractRule{
		{Name: "fallback", SourceKind: scenario.SourceJSON, Expression: "$.nope", Scope: scenario.ScopeGlobal, Default: "d", HasDefault: true},
	}, src, store, nil)

	assert.True(t, results[0].Success)
	v, ok := store.Get("fallback")
	require.True(t, ok)
	assert.Equal(t, "d", v)
}

func TestRun_EnvironmentScopeWritesLayerFive(t *testing.T) {
	store := vars.New()
	src := Source{Body: map[string]any{"region": "eu"}}

	Run([]scenario.ExtractRule{
		{Name: "region", SourceKind: scenario.SourceJSON, Expression: "$.region", Scope: scenario.ScopeEnvironment},
	}, src, store, nil)

	flat := store.FlattenForResult()
	assert.Equal(t, "eu", flat["region"])
}

func TestRun_SourceVariableResolver(t *testing.T) {
	store := vars.New()
	named := Source{Body: map[string]any{"id": float64(7)}}
	resolve := func(name string) (Source, bool) {
		if name == "last_response" {
			return named, true
		}
		return Source{}, false
	}

	results := Run([]scenario.ExtractRule{
		{Name: "id", SourceKind: scenario.SourceJSON, Expression: "$.id", Scope: scenario.ScopeGlobal, SourceVariable: "last_response"},
	}, Source{}, store, resolve)

	assert.True(t, results[0].Success)
	assert.Equal(t, float64(7), results[0].Value)
}

func TestRun_DBResultExtraction(t *testing.T) {
	store := vars.New()
	src := Source{DBRows: []map[string]any{{"id": float64(1)}, {"id": float64(2)}}}

	results := Run([]scenario.ExtractRule{
		{Name: "row_count", SourceKind: scenario.SourceDBResult, Expression: "$.length", Scope: scenario.ScopeGlobal},
	}, src, store, nil)

	assert.True(t, results[0].Success)
	assert.Equal(t, 2, results[0].Value)
}

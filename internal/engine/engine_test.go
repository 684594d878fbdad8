package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/result"
	"github.com/wesleyorama2/sisyphus/internal/retry"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
)

func newTestEngine(baseURL string) *Engine {
	e := New()
	e.Jitter = retry.FixedJitter{Value: 1}
	return e
}

func TestRun_SimpleRequestCasePasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	cs := &scenario.Case{
		Config: scenario.Config{
			Name:        "smoke",
			Environment: &scenario.Environment{Name: "test", BaseURL: srv.URL},
		},
		Steps: []scenario.Step{
			{
				Name: "ping",
				Type: scenario.KeywordRequest,
				Request: &scenario.RequestSpec{
					Method: "GET",
					URL:    "/ping",
					Validate: []scenario.ValidateRule{
						{Target: scenario.TargetStatusCode, Comparator: "eq", Expected: 200},
					},
				},
			},
		},
	}

	res, err := e.Run(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, result.StatusPassed, res.Status)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, result.StatusPassed, res.Steps[0].Status)
	assert.Equal(t, 1, res.Summary.TotalRequests)
}

func TestRun_FailingAssertionFailsCaseNotEngineError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(404)
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	cs := &scenario.Case{
		Config: scenario.Config{Environment: &scenario.Environment{BaseURL: srv.URL}},
		Steps: []scenario.Step{
			{
				Name: "ping",
				Type: scenario.KeywordRequest,
				Request: &scenario.RequestSpec{
					Method: "GET",
					URL:    "/ping",
					Validate: []scenario.ValidateRule{
						{Target: scenario.TargetStatusCode, Comparator: "eq", Expected: 200},
					},
				},
			},
		},
	}

	res, err := e.Run(context.Background(), cs)
	require.NoError(t, err)
	assert.Equal(t, result.StatusFailed, res.Status)
	assert.Nil(t, res.Error)
}

func TestRun_DataDrivenCaseAggregatesAllRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	e := newTestEngine(srv.URL)
	cs := &scenario.Case{
		Config: scenario.Config{Environment: &scenario.Environment{BaseURL: srv.URL}},
		Ddts: &scenario.Ddts{
			Name: "users",
			Parameters: []map[string]any{
				{"id": "1"},
				{"id": "2"},
			},
		},
		Steps: []scenario.Step{
			{
				Name: "fetch",
				Type: scenario.KeywordRequest,
				Request: &scenario.RequestSpec{
					Method: "GET",
					URL:    "/users/{{id}}",
					Validate: []scenario.ValidateRule{
						{Target: scenario.TargetStatusCode, Comparator: "eq", Expected: 200},
					},
				},
			},
		},
	}

	res, err := e.Run(context.Background(), cs)
	require.NoError(t, err)
	require.NotNil(t, res.DataDriven)
	assert.Equal(t, 2, res.DataDriven.TotalRuns)
	assert.Equal(t, result.StatusPassed, res.DataDriven.Status)
	assert.Equal(t, result.StatusPassed, res.Status)
}

func TestRunFile_MissingFileReturnsErrorResult(t *testing.T) {
	e := New()
	res, err := e.RunFile(context.Background(), "/does/not/exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, result.StatusError, res.Status)
	require.NotNil(t, res.Error)
}

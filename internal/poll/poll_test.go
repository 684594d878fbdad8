package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/retry"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
)

func TestRun_PassesOnThirdAttempt(t *testing.T) {
	cfg := scenario.PollConfig{
		Condition:         scenario.PollCondition{Kind: scenario.PollJSONPath, Path: "$.status", Operator: scenario.OpEq, Expected: "ACTIVE"},
		MaxAttempts:       5,
		IntervalMs:        1,
		TimeoutMs:         60000,
		Backoff:           scenario.StrategyFixed,
		OnTimeoutBehavior: scenario.OnTimeoutFail,
	}

	bodies := []string{"PENDING", "PENDING", "ACTIVE"}
	var slept int
	outcome := Run(cfg, retry.FixedJitter{Value: 1}, func(time.Duration) { slept++ }, func(n int) (any, int, error) {
		return map[string]any{"status": bodies[n]}, 200, nil
	})

	require.Equal(t, "passed", outcome.Status)
	assert.Len(t, outcome.Attempts, 3)
	assert.Equal(t, 2, slept)
}

func TestRun_TimeoutFailBehavior(t *testing.T) {
	cfg := scenario.PollConfig{
		Condition:         scenario.PollCondition{Kind: scenario.PollJSONPath, Path: "$.status", Operator: scenario.OpEq, Expected: "ACTIVE"},
		MaxAttempts:       1,
		IntervalMs:        1,
		TimeoutMs:         1000,
		Backoff:           scenario.StrategyFixed,
		OnTimeoutBehavior: scenario.OnTimeoutFail,
	}

	outcome := Run(cfg, retry.FixedJitter{Value: 1}, func(time.Duration) {}, func(n int) (any, int, error) {
		return map[string]any{"status": "PENDING"}, 200, nil
	})

	assert.Equal(t, "failed", outcome.Status)
	assert.True(t, outcome.TimedOut)
	assert.Len(t, outcome.Attempts, 1)
}

func TestRun_TimeoutContinueBehaviorPasses(t *testing.T) {
	cfg := scenario.PollConfig{
		Condition:         scenario.PollCondition{Kind: scenario.PollStatusCode, Operator: scenario.OpEq, Expected: 200},
		MaxAttempts:       1,
		IntervalMs:        1,
		TimeoutMs:         1000,
		Backoff:           scenario.StrategyFixed,
		OnTimeoutBehavior: scenario.OnTimeoutContinue,
	}

	outcome := Run(cfg, retry.FixedJitter{Value: 1}, func(time.Duration) {}, func(n int) (any, int, error) {
		return nil, 500, nil
	})

	assert.Equal(t, "passed", outcome.Status)
	assert.True(t, outcome.TimedOut)
}

func TestRun_ExistsOperator(t *testing.T) {
	cfg := scenario.PollConfig{
		Condition:   scenario.PollCondition{Kind: scenario.PollJSONPath, Path: "$.token", Operator: scenario.OpExists},
		MaxAttempts: 2,
		IntervalMs:  1,
		TimeoutMs:   1000,
		Backoff:     scenario.StrategyFixed,
	}

	outcome := Run(cfg, retry.FixedJitter{Value: 1}, func(time.Duration) {}, func(n int) (any, int, error) {
		return map[string]any{"token": "abc"}, 200, nil
	})

	assert.Equal(t, "passed", outcome.Status)
	assert.Len(t, outcome.Attempts, 1)
}

func TestRun_StatusCodeCondition(t *testing.T) {
	cfg := scenario.PollConfig{
		Condition:   scenario.PollCondition{Kind: scenario.PollStatusCode, Operator: scenario.OpEq, Expected: 200},
		MaxAttempts: 3,
		IntervalMs:  1,
		TimeoutMs:   1000,
		Backoff:     scenario.StrategyFixed,
	}

	codes := []int{500, 500, 200}
	outcome := Run(cfg, retry.FixedJitter{Value: 1}, func(time.Duration) {}, func(n int) (any, int, error) {
		return nil, codes[n], nil
	})

	assert.Equal(t, "passed", outcome.Status)
	assert.Len(t, outcome.Attempts, 3)
}

// Package poll implements the condition-based wait loop with backoff and
// timeout described in §4.11.
package poll

import (
	"time"

	"github.com/wesleyorama2/sisyphus/internal/compare"
	"github.com/wesleyorama2/sisyphus/internal/jsonpath"
	"github.com/wesleyorama2/sisyphus/internal/retry"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
)

// AttemptResult is one poll attempt's evaluated condition state, used
// both to decide whether to keep polling and to populate the detail.
type AttemptResult struct {
	Number    int  `json:"number"`
	Satisfied bool `json:"satisfied"`
}

// Outcome is the Poll Controller's final verdict.
type Outcome struct {
	Status   string          `json:"status"` // passed | failed
	Attempts []AttemptResult `json:"attempts"`
	TimedOut bool            `json:"timeout,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// AttemptFn executes one request/poll attempt and returns the body to
// evaluate the condition against, plus the response's status code.
type AttemptFn func(n int) (body any, statusCode int, err error)

// Run executes attempts until the condition holds, maxAttempts is reached,
// or timeoutMs elapses, per the RunPoll state machine in §4.11.
func Run(cfg scenario.PollConfig, jitter retry.JitterSource, sleep func(time.Duration), attempt AttemptFn) Outcome {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	policy := scenario.RetryPolicy{
		Strategy:    cfg.Backoff,
		BaseDelayMs: cfg.IntervalMs,
		MaxDelayMs:  cfg.TimeoutMs,
	}

	deadline := time.Now().Add(time.Duration(cfg.TimeoutMs) * time.Millisecond)
	var attempts []AttemptResult

	for k := 0; k < maxAttempts; k++ {
		if cfg.TimeoutMs > 0 && time.Now().After(deadline) {
			return timeoutOutcome(cfg, attempts)
		}

		body, statusCode, err := attempt(k)
		satisfied := false
		if err == nil {
			satisfied = evaluateCondition(cfg.Condition, body, statusCode)
		}
		attempts = append(attempts, AttemptResult{Number: k + 1, Satisfied: satisfied})

		if satisfied {
			return Outcome{Status: "passed", Attempts: attempts}
		}

		if k < maxAttempts-1 {
			d := retry.Delay(policy, k, jitter)
			if sleep != nil {
				sleep(d)
			}
		}
	}

	return timeoutOutcome(cfg, attempts)
}

func timeoutOutcome(cfg scenario.PollConfig, attempts []AttemptResult) Outcome {
	if cfg.OnTimeoutBehavior == scenario.OnTimeoutContinue {
		return Outcome{Status: "passed", Attempts: attempts, TimedOut: true, Message: cfg.OnTimeoutMessage}
	}
	msg := cfg.OnTimeoutMessage
	if msg == "" {
		msg = "poll condition did not hold before the deadline"
	}
	return Outcome{Status: "failed", Attempts: attempts, TimedOut: true, Message: msg}
}

// evaluateCondition implements §4.11's two condition kinds, reducing
// `exists` to a JSONPath-found check and everything else to the shared
// comparator set (§4.5).
func evaluateCondition(cond scenario.PollCondition, body any, statusCode int) bool {
	switch cond.Kind {
	case scenario.PollStatusCode:
		return compareOperator(cond.Operator, statusCode, cond.Expected)
	case scenario.PollJSONPath:
		if cond.Operator == scenario.OpExists {
			return jsonpath.Exists(body, cond.Path)
		}
		v, err := jsonpath.Eval(body, cond.Path)
		if err != nil {
			return false
		}
		return compareOperator(cond.Operator, v, cond.Expected)
	default:
		return false
	}
}

func compareOperator(op scenario.PollOperator, actual, expected any) bool {
	switch op {
	case scenario.OpEq:
		return compare.Compare("eq", actual, expected)
	case scenario.OpNe:
		return compare.Compare("neq", actual, expected)
	case scenario.OpGt:
		return compare.Compare("gt", actual, expected)
	case scenario.OpLt:
		return compare.Compare("lt", actual, expected)
	case scenario.OpGe:
		return compare.Compare("gte", actual, expected)
	case scenario.OpLe:
		return compare.Compare("lte", actual, expected)
	case scenario.OpContains:
		return compare.Compare("contains", actual, expected)
	case scenario.OpExists:
		return actual != nil
	default:
		return false
	}
}

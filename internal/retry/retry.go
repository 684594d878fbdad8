// Package retry implements the per-step retry/backoff state machine and
// its delay formulas (§4.10).
package retry

import (
	"math"
	"math/rand"
	"time"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
)

// JitterSource abstracts the jitter random draw so tests can replay
// deterministic delays; it returns a value in [0.5, 1.5).
type JitterSource interface {
	Factor() float64
}

// SystemJitter draws from math/rand.
type SystemJitter struct{}

func (SystemJitter) Factor() float64 { return 0.5 + rand.Float64() }

// FixedJitter always returns the same factor, for deterministic tests.
type FixedJitter struct{ Value float64 }

func (f FixedJitter) Factor() float64 { return f.Value }

// Delay computes the backoff delay for 0-based attempt k under policy.
func Delay(policy scenario.RetryPolicy, k int, jitter JitterSource) time.Duration {
	return delay(policy.Strategy, policy.BaseDelayMs, policy.MaxDelayMs, policy.Multiplier, policy.Jitter, k, jitter)
}

func delay(strategy scenario.RetryStrategy, baseMs, maxMs int, multiplier float64, useJitter bool, k int, jitter JitterSource) time.Duration {
	b := float64(baseMs)
	m := float64(maxMs)
	if m <= 0 {
		m = math.MaxFloat64
	}

	var d float64
	switch strategy {
	case scenario.StrategyLinear:
		d = math.Min(m, b*float64(k+1))
	case scenario.StrategyExponential:
		mult := multiplier
		if mult <= 0 {
			mult = 2
		}
		d = math.Min(m, b*math.Pow(mult, float64(k)))
	default: // fixed
		d = b
	}

	if useJitter {
		d = d * jitter.Factor()
		d = math.Max(0, math.Min(m, d))
	}
	return time.Duration(d) * time.Millisecond
}

// Outcome is one attempt's classification.
type Outcome int

const (
	Success Outcome = iota
	RetryableError
	TerminalError
)

// Classify decides whether err is retryable under policy: its kind must
// be in retryOn and not in stopOn. Assertion failures are never routed
// through this function — they are not errors (§4.10).
func Classify(policy scenario.RetryPolicy, kind errs.Kind) Outcome {
	if kind == "" {
		return Success
	}
	if containsKind(policy.StopOn, kind) {
		return TerminalError
	}
	if containsKind(policy.RetryOn, kind) {
		return RetryableError
	}
	return TerminalError
}

func containsKind(set []string, kind errs.Kind) bool {
	for _, s := range set {
		if s == string(kind) {
			return true
		}
	}
	return false
}

// Attempt is one retry-loop iteration's bookkeeping, collected for the
// StepResult detail.
type Attempt struct {
	Number   int           `json:"number"`
	Outcome  string        `json:"outcome"`
	Error    *errs.Info    `json:"error,omitempty"`
	Delay    time.Duration `json:"delayMs"`
}

// Run drives attempt() up to policy.MaxAttempts times, sleeping between
// retryable failures per the policy's backoff formula, and returns the
// full attempt history plus the final error (nil on eventual success).
func Run(policy scenario.RetryPolicy, jitter JitterSource, sleep func(time.Duration), attempt func(n int) (errs.Kind, error)) ([]Attempt, error) {
	max := policy.MaxAttempts
	if max < 1 {
		max = 1
	}

	var history []Attempt
	var lastErr error

	for k := 0; k < max; k++ {
		kind, err := attempt(k)
		if err == nil {
			history = append(history, Attempt{Number: k + 1, Outcome: "success"})
			return history, nil
		}
		lastErr = err

		outcome := Classify(policy, kind)
		rec := Attempt{Number: k + 1, Error: (&errs.StepError{Kind: kind, Message: err.Error()}).Info(true)}

		if outcome == RetryableError && k < max-1 {
			d := Delay(policy, k, jitter)
			rec.Outcome = "retryable-error"
			rec.Delay = d / time.Millisecond
			history = append(history, rec)
			if sleep != nil {
				sleep(d)
			}
			continue
		}

		rec.Outcome = "terminal-error"
		history = append(history, rec)
		return history, lastErr
	}
	return history, lastErr
}

package result

import (
	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/wesleyorama2/sisyphus/internal/scenario"
)

// BuildSummary computes the §4.15 aggregate counters from a completed
// step list, including the StepResults a skipped step (disabled,
// skip_if/only_if, dependency_failed) still produces. Response-time
// statistics are tracked through an HdrHistogram so avg/min/max stay
// cheap to compute even over long runs; no percentiles are read from it.
func BuildSummary(steps []StepResult, dataDrivenRuns int) Summary {
	hist := hdrhistogram.New(0, 3_600_000, 3)

	summary := Summary{
		TotalSteps:          len(steps),
		TotalDataDrivenRuns: dataDrivenRuns,
	}

	for _, s := range steps {
		switch s.Status {
		case StatusPassed:
			summary.Passed++
		case StatusFailed:
			summary.Failed++
		case StatusError:
			summary.Error++
		case StatusSkipped:
			summary.Skipped++
		}

		for _, a := range s.AssertionResults {
			summary.TotalAssertions++
			if a.Status == "passed" {
				summary.PassedAssertions++
			} else {
				summary.FailedAssertions++
			}
		}
		summary.TotalExtractions += len(s.ExtractResults)

		if s.KeywordType == scenario.KeywordRequest && s.Detail != nil && s.Detail.Request != nil {
			summary.TotalRequests++
			_ = hist.RecordValue(s.Detail.Request.ResponseTime)
		}
		if s.KeywordType == scenario.KeywordDB && s.Detail != nil && s.Detail.DB != nil {
			summary.TotalDBOperations++
		}
	}

	if summary.TotalAssertions > 0 {
		summary.PassRate = round1(float64(summary.PassedAssertions) / float64(summary.TotalAssertions) * 100)
	} else {
		summary.PassRate = round1(float64(0) / 1 * 100)
	}

	if hist.TotalCount() > 0 {
		summary.AvgResponseTimeMs = hist.Mean()
		summary.MinResponseTimeMs = hist.Min()
		summary.MaxResponseTimeMs = hist.Max()
	}

	return summary
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}

// DeriveStatus implements §7's aggregate-status rule: error beats
// failed beats passed.
func DeriveStatus(steps []StepResult, anyEngineError bool) Status {
	if anyEngineError {
		return StatusError
	}
	for _, s := range steps {
		if s.Status == StatusError {
			return StatusError
		}
	}
	for _, s := range steps {
		if s.Status == StatusFailed {
			return StatusFailed
		}
	}
	return StatusPassed
}

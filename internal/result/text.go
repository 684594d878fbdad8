package result

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/wesleyorama2/sisyphus/internal/validate"
)

// TextOptions mirrors the teacher formatter's Verbose/NoColor pair: Verbose
// prints per-step detail and log lines, NoColor strips ANSI codes for
// non-terminal output (redirected to a file, piped into another tool).
type TextOptions struct {
	Verbose bool
	NoColor bool
}

// TextReporter renders a CaseResult as the human-facing console report:
// one line per step followed by a summary block, in the spirit of the
// teacher's suite-summary printer.
type TextReporter struct {
	opts   TextOptions
	status *color.Color
	fail   *color.Color
	dim    *color.Color
}

func NewTextReporter(opts TextOptions) *TextReporter {
	statusColor := color.New(color.FgGreen, color.Bold)
	failColor := color.New(color.FgRed, color.Bold)
	dimColor := color.New(color.FgYellow)
	if opts.NoColor {
		statusColor.DisableColor()
		failColor.DisableColor()
		dimColor.DisableColor()
	}
	return &TextReporter{opts: opts, status: statusColor, fail: failColor, dim: dimColor}
}

func (r *TextReporter) icon(ok bool) string {
	if ok {
		return r.status.Sprint("✓")
	}
	return r.fail.Sprint("✗")
}

func (r *TextReporter) Report(w io.Writer, res *CaseResult) error {
	fmt.Fprintf(w, "▶ CASE: %s\n\n", caseLabel(res))

	if res.DataDriven != nil {
		for _, run := range res.DataDriven.Runs {
			fmt.Fprintf(w, "  ROW %d %s\n", run.RowIndex, describeParams(run.Parameters))
			r.reportSteps(w, run.Steps, "  ")
		}
	} else {
		r.reportSteps(w, res.Steps, "")
	}

	if r.opts.Verbose {
		for _, l := range res.Logs {
			fmt.Fprintf(w, "  [%s] %s\n", l.Level, l.Message)
		}
	}

	r.reportSummary(w, res)

	if res.Error != nil {
		fmt.Fprintf(w, "\n%s ENGINE ERROR: %s\n", r.fail.Sprint("✗"), res.Error.Message)
	}
	return nil
}

func (r *TextReporter) reportSteps(w io.Writer, steps []StepResult, indent string) {
	for _, s := range steps {
		switch s.Status {
		case StatusPassed:
			fmt.Fprintf(w, "%s%s STEP %d: %s (%dms)\n", indent, r.icon(true), s.Index, s.Name, s.DurationMs)
		case StatusSkipped:
			fmt.Fprintf(w, "%s%s STEP %d: %s (skipped: %s)\n", indent, r.dim.Sprint("○"), s.Index, s.Name, s.SkipReason)
		default:
			fmt.Fprintf(w, "%s%s STEP %d: %s (%dms)\n", indent, r.icon(false), s.Index, s.Name, s.DurationMs)
			if s.Error != nil {
				fmt.Fprintf(w, "%s    %s\n", indent, s.Error.Message)
			}
		}
		if r.opts.Verbose {
			for _, a := range s.AssertionResults {
				fmt.Fprintf(w, "%s    %s %s\n", indent, r.icon(a.Status == validate.StatusPassed), a.Message)
			}
		}
	}
}

func (r *TextReporter) reportSummary(w io.Writer, res *CaseResult) {
	sum := res.Summary
	statusIcon := r.icon(res.Status == StatusPassed)
	fmt.Fprintf(w, "\n%s CASE %s (%dms)\n", statusIcon, upper(string(res.Status)), res.DurationMs)
	fmt.Fprintf(w, "  Steps: %d passed, %d failed, %d error, %d skipped\n", sum.Passed, sum.Failed, sum.Error, sum.Skipped)
	fmt.Fprintf(w, "  Assertions: %d/%d passed (%.1f%%)\n", sum.PassedAssertions, sum.TotalAssertions, sum.PassRate)
	if sum.TotalDataDrivenRuns > 0 {
		fmt.Fprintf(w, "  Data-driven runs: %d\n", sum.TotalDataDrivenRuns)
	}
}

func caseLabel(res *CaseResult) string {
	if res.ScenarioName != "" {
		return res.ScenarioName
	}
	return res.ScenarioID
}

func describeParams(params map[string]any) string {
	if len(params) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", params)
}

func upper(s string) string {
	b := []byte(s)
	if len(b) > 0 && b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

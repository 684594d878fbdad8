package result

import (
	"fmt"
	"io"
)

// Reporter renders a CaseResult to w in a specific output format. The
// CLI's -O flag selects an implementation by name.
type Reporter interface {
	Report(w io.Writer, res *CaseResult) error
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(w io.Writer, res *CaseResult) error

func (f ReporterFunc) Report(w io.Writer, res *CaseResult) error { return f(w, res) }

// unsupportedReporter always errors; allure and html rendering are
// out-of-scope collaborators, but the -O flag still needs a name to
// resolve to so the contract stays intact.
type unsupportedReporter struct {
	format string
}

func (u unsupportedReporter) Report(io.Writer, *CaseResult) error {
	return fmt.Errorf("result: %s reporter is not implemented in core", u.format)
}

// NewReporter resolves an -O flag value to a Reporter. text and json are
// implemented in full; allure and html return a Reporter whose Report
// call always errors, so the flag's set of accepted values doesn't
// silently shrink.
func NewReporter(format string, opts TextOptions) (Reporter, error) {
	switch format {
	case "", "text":
		return NewTextReporter(opts), nil
	case "json":
		return JSONReporter{}, nil
	case "allure":
		return unsupportedReporter{format: "allure"}, nil
	case "html":
		return unsupportedReporter{format: "html"}, nil
	default:
		return nil, fmt.Errorf("result: unknown output format %q", format)
	}
}

package result

import (
	"encoding/json"
	"io"
)

// JSONReporter writes the CaseResult document verbatim as indented JSON,
// matching the field set and ordering already fixed by CaseResult's own
// json tags (§4.15).
type JSONReporter struct{}

func (JSONReporter) Report(w io.Writer, res *CaseResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

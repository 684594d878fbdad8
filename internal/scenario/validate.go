package scenario

import (
	"fmt"

	"github.com/wesleyorama2/sisyphus/internal/errs"
)

// Validate runs the structural validation invariants from §3 over a parsed
// Case: dependsOn ordering, required keyword payload fields, known
// bodyKind values, loop shape, Ddts key-set consistency, and the
// csvDatasource/Ddts exclusion. A relative request URL without an
// environment baseUrl is not checked here. The first
// violation is reported with a human-readable path, e.g. teststeps[2].request.body.
func Validate(c *Case) error {
	if c.Config.CSVDatasource != "" && c.Ddts != nil {
		return validationErr("config", "csvDatasource and ddts are mutually exclusive")
	}

	if c.Ddts != nil {
		if err := validateDdts(c.Ddts); err != nil {
			return err
		}
	}

	names := make(map[string]int, len(c.Steps))
	for i, s := range c.Steps {
		if s.Name != "" {
			names[s.Name] = i
		}
	}

	for i, s := range c.Steps {
		path := fmt.Sprintf("teststeps[%d]", i)
		if err := validateStep(&s, path, names, i); err != nil {
			return err
		}
	}
	return nil
}

func validateDdts(d *Ddts) error {
	if len(d.Parameters) == 0 {
		return validationErr("ddts.parameters", "must be non-empty")
	}
	want := keySet(d.Parameters[0])
	for i, row := range d.Parameters[1:] {
		if got := keySet(row); !sameKeys(want, got) {
			return validationErr(fmt.Sprintf("ddts.parameters[%d]", i+1), "row key set does not match row 0")
		}
	}
	return nil
}

func keySet(m map[string]any) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}

func sameKeys(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func validateStep(s *Step, path string, names map[string]int, index int) error {
	for _, dep := range s.DependsOn {
		depIdx, ok := names[dep]
		if !ok {
			return validationErr(path+".dependsOn", fmt.Sprintf("references unknown step %q", dep))
		}
		if depIdx >= index {
			return validationErr(path+".dependsOn", fmt.Sprintf("%q must appear earlier in teststeps", dep))
		}
	}

	switch s.Type {
	case KeywordRequest:
		if s.Request == nil {
			return validationErr(path+".request", "required for keywordType request")
		}
		if err := validateRequest(s.Request, path+".request"); err != nil {
			return err
		}
	case KeywordDB:
		if s.DB == nil || s.DB.Datasource == "" || s.DB.SQL == "" {
			return validationErr(path+".db", "datasource and sql are required")
		}
	case KeywordAssertion:
		if s.Assertion == nil {
			return validationErr(path+".assertion", "required for keywordType assertion")
		}
	case KeywordExtract:
		if s.Extract == nil || len(s.Extract.Rules) == 0 {
			return validationErr(path+".extract", "at least one rule is required")
		}
	case KeywordCustom:
		if s.Custom == nil || s.Custom.KeywordName == "" {
			return validationErr(path+".custom", "keywordName is required")
		}
	case "":
		if s.Loop == nil {
			return validationErr(path+".keywordType", "missing keywordType")
		}
	}

	if s.Loop != nil {
		if err := validateLoop(s.Loop, path+".loop", names, index); err != nil {
			return err
		}
	}

	for i, sub := range s.Setup {
		if err := validateStep(&sub, fmt.Sprintf("%s.setup[%d]", path, i), names, index); err != nil {
			return err
		}
	}
	for i, sub := range s.Teardown {
		if err := validateStep(&sub, fmt.Sprintf("%s.teardown[%d]", path, i), names, index); err != nil {
			return err
		}
	}

	if s.RetryPolicy != nil && s.RetryPolicy.MaxAttempts < 1 {
		return validationErr(path+".retryPolicy.maxAttempts", "must be >= 1")
	}

	return nil
}

func validateLoop(l *LoopSpec, path string, names map[string]int, index int) error {
	switch l.Mode {
	case LoopFor:
		if l.Items == nil {
			return validationErr(path+".items", "required for mode for")
		}
	case LoopWhile:
		if l.Condition == "" {
			return validationErr(path+".condition", "required for mode while")
		}
	case LoopConcurrent:
		if l.Items == nil {
			return validationErr(path+".items", "required for mode concurrent")
		}
		if l.Concurrency < 1 {
			return validationErr(path+".concurrency", "must be >= 1 for mode concurrent")
		}
	default:
		return validationErr(path+".mode", fmt.Sprintf("unknown loop mode %q", l.Mode))
	}

	if len(l.Steps) == 0 {
		return validationErr(path+".steps", "must be non-empty")
	}
	for i, sub := range l.Steps {
		if err := validateStep(&sub, fmt.Sprintf("%s.steps[%d]", path, i), names, index); err != nil {
			return err
		}
	}
	return nil
}

func validateRequest(r *RequestSpec, path string) error {
	if r.Method == "" {
		return validationErr(path+".method", "required")
	}
	if r.URL == "" {
		return validationErr(path+".url", "required")
	}

	switch r.BodyKind {
	case "", BodyNone, BodyJSON, BodyForm, BodyMultipart, BodyRaw:
	default:
		return validationErr(path+".bodyKind", fmt.Sprintf("unknown bodyKind %q", r.BodyKind))
	}
	if r.TimeoutSeconds < 0 {
		return validationErr(path+".timeoutSeconds", "must not be negative")
	}
	return nil
}

func validationErr(path, message string) error {
	return &errs.EngineError{
		Kind:    errs.YAMLValidationError,
		Message: message,
		Path:    path,
	}
}

package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/sisyphus/internal/errs"
)

// Load reads a scenario file from disk, parses it, assigns stable step
// indices, and runs structural validation. Missing file, parse, and
// validation failures are all reported as *errs.EngineError.
func Load(path string) (*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &errs.EngineError{
				Kind:    errs.FileNotFound,
				Message: "scenario file not found",
				Detail:  path,
			}
		}
		return nil, &errs.EngineError{
			Kind:    errs.FileNotFound,
			Message: "scenario file could not be read",
			Detail:  err.Error(),
		}
	}
	return Parse(data)
}

// Parse parses scenario YAML bytes into a Case, assigning step indices and
// running structural validation.
func Parse(data []byte) (*Case, error) {
	var c Case
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, &errs.EngineError{
			Kind:    errs.YAMLParseError,
			Message: "failed to parse scenario YAML",
			Detail:  err.Error(),
		}
	}

	assignIndices(c.Steps)

	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// assignIndices sets each top-level step's stable 0-based Index reflecting
// source order. Setup/teardown sub-steps are not indexed; they are not
// addressable by dependsOn.
func assignIndices(steps []Step) {
	for i := range steps {
		steps[i].Index = i
	}
}

// UnmarshalYAML implements the Step tagged-variant discriminator: the
// keywordType field selects which single typed payload is decoded,
// mirroring the "duck-typed step dispatch" re-architecture into an
// explicit discriminator table rather than dynamic attribute probing.
func (s *Step) UnmarshalYAML(value *yaml.Node) error {
	type rawStep struct {
		Name        string       `yaml:"name"`
		Type        KeywordType  `yaml:"keywordType"`
		KeywordName string       `yaml:"keywordName,omitempty"`
		Enabled     *bool        `yaml:"enabled,omitempty"`
		SkipIf      string       `yaml:"skipIf,omitempty"`
		OnlyIf      string       `yaml:"onlyIf,omitempty"`
		DependsOn   []string     `yaml:"dependsOn,omitempty"`
		Setup       []Step       `yaml:"setup,omitempty"`
		Teardown    []Step       `yaml:"teardown,omitempty"`
		RetryPolicy *RetryPolicy `yaml:"retryPolicy,omitempty"`
		PollConfig  *PollConfig  `yaml:"pollConfig,omitempty"`
		Loop        *LoopSpec    `yaml:"loop,omitempty"`

		Request   *RequestSpec   `yaml:"request,omitempty"`
		Assertion *AssertionSpec `yaml:"assertion,omitempty"`
		Extract   *ExtractSpec   `yaml:"extract,omitempty"`
		DB        *DBSpec        `yaml:"db,omitempty"`
		Custom    *CustomSpec    `yaml:"custom,omitempty"`
	}

	var raw rawStep
	if err := value.Decode(&raw); err != nil {
		return err
	}

	*s = Step{
		Name:        raw.Name,
		Type:        raw.Type,
		KeywordName: raw.KeywordName,
		Enabled:     raw.Enabled,
		SkipIf:      raw.SkipIf,
		OnlyIf:      raw.OnlyIf,
		DependsOn:   raw.DependsOn,
		Setup:       raw.Setup,
		Teardown:    raw.Teardown,
		RetryPolicy: raw.RetryPolicy,
		PollConfig:  raw.PollConfig,
		Loop:        raw.Loop,
		Request:     raw.Request,
		Assertion:   raw.Assertion,
		Extract:     raw.Extract,
		DB:          raw.DB,
		Custom:      raw.Custom,
	}

	switch raw.Type {
	case KeywordRequest:
		if s.Request == nil {
			return fmt.Errorf("step %q: keywordType request requires a request block", raw.Name)
		}
	case KeywordAssertion:
		if s.Assertion == nil {
			return fmt.Errorf("step %q: keywordType assertion requires an assertion block", raw.Name)
		}
	case KeywordExtract:
		if s.Extract == nil {
			return fmt.Errorf("step %q: keywordType extract requires an extract block", raw.Name)
		}
	case KeywordDB:
		if s.DB == nil {
			return fmt.Errorf("step %q: keywordType db requires a db block", raw.Name)
		}
	case KeywordCustom:
		if s.Custom == nil {
			return fmt.Errorf("step %q: keywordType custom requires a custom block", raw.Name)
		}
	case "":
		if raw.Loop == nil {
			return fmt.Errorf("step %q: missing keywordType", raw.Name)
		}
	default:
		return fmt.Errorf("step %q: unknown keywordType %q", raw.Name, raw.Type)
	}

	return nil
}

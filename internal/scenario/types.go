// Package scenario defines the typed schema for a scenario (case) file:
// config, environment, steps of every keyword type, retry/poll policies,
// and data-driven datasets.
package scenario

// Priority is the case's declared importance tag.
type Priority string

const (
	P0 Priority = "P0"
	P1 Priority = "P1"
	P2 Priority = "P2"
	P3 Priority = "P3"
)

// KeywordType discriminates the Step tagged variant.
type KeywordType string

const (
	KeywordRequest   KeywordType = "request"
	KeywordAssertion KeywordType = "assertion"
	KeywordExtract   KeywordType = "extract"
	KeywordDB        KeywordType = "db"
	KeywordCustom    KeywordType = "custom"
)

// BodyKind selects which of the mutually-exclusive request body carriers
// is populated on a RequestSpec.
type BodyKind string

const (
	BodyNone      BodyKind = "none"
	BodyJSON      BodyKind = "json"
	BodyForm      BodyKind = "form"
	BodyMultipart BodyKind = "multipart"
	BodyRaw       BodyKind = "raw"
)

// SourceKind selects where an ExtractRule pulls its value from.
type SourceKind string

const (
	SourceJSON     SourceKind = "json"
	SourceHeader   SourceKind = "header"
	SourceCookie   SourceKind = "cookie"
	SourceDBResult SourceKind = "dbResult"
)

// ExtractScope selects which VariableStore layer an extraction writes to.
type ExtractScope string

const (
	ScopeGlobal      ExtractScope = "global"
	ScopeEnvironment ExtractScope = "environment"
)

// ValidateTarget selects what a ValidateRule's `actual` is resolved from.
type ValidateTarget string

const (
	TargetJSON         ValidateTarget = "json"
	TargetHeader       ValidateTarget = "header"
	TargetCookie       ValidateTarget = "cookie"
	TargetStatusCode   ValidateTarget = "statusCode"
	TargetResponseTime ValidateTarget = "responseTime"
	TargetEnvVariable  ValidateTarget = "envVariable"
	TargetDBResult     ValidateTarget = "dbResult"
)

// RetryStrategy selects the backoff formula used by a RetryPolicy or
// PollConfig (§4.10 of the engine design).
type RetryStrategy string

const (
	StrategyFixed       RetryStrategy = "fixed"
	StrategyLinear      RetryStrategy = "linear"
	StrategyExponential RetryStrategy = "exponential"
)

// PollConditionKind selects how a PollConfig's condition is evaluated.
type PollConditionKind string

const (
	PollJSONPath   PollConditionKind = "jsonpath"
	PollStatusCode PollConditionKind = "statusCode"
)

// PollOperator is the reduced comparator set usable inside a poll condition.
type PollOperator string

const (
	OpEq       PollOperator = "eq"
	OpNe       PollOperator = "ne"
	OpGt       PollOperator = "gt"
	OpLt       PollOperator = "lt"
	OpGe       PollOperator = "ge"
	OpLe       PollOperator = "le"
	OpContains PollOperator = "contains"
	OpExists   PollOperator = "exists"
)

// OnTimeoutBehavior selects what a PollConfig does when its deadline is hit
// without the condition holding.
type OnTimeoutBehavior string

const (
	OnTimeoutFail     OnTimeoutBehavior = "fail"
	OnTimeoutContinue OnTimeoutBehavior = "continue"
)

// Environment names a base URL and a set of variables injected into
// layer 5 of the VariableStore (§4.2).
type Environment struct {
	Name      string            `yaml:"name"`
	BaseURL   string            `yaml:"baseUrl"`
	Variables map[string]any    `yaml:"variables,omitempty"`
}

// SqlBlock is a named datasource plus an ordered list of statements, used
// for Config.PreSQL and Config.PostSQL.
type SqlBlock struct {
	Datasource string   `yaml:"datasource"`
	Statements []string `yaml:"statements"`
}

// Config carries the case-level metadata, default variables, and the
// optional pre/post SQL blocks and CSV data source.
type Config struct {
	Name           string          `yaml:"name"`
	ScenarioID     string          `yaml:"scenarioId"`
	ProjectID      string          `yaml:"projectId"`
	Priority       Priority        `yaml:"priority"`
	Tags           []string        `yaml:"tags,omitempty"`
	Environment    *Environment    `yaml:"environment,omitempty"`
	Variables      map[string]any  `yaml:"variables,omitempty"`
	PreSQL         *SqlBlock       `yaml:"preSql,omitempty"`
	PostSQL        *SqlBlock       `yaml:"postSql,omitempty"`
	CSVDatasource  string          `yaml:"csvDatasource,omitempty"`
}

// RetryPolicy configures the per-step retry/backoff state machine (§4.10).
type RetryPolicy struct {
	MaxAttempts int           `yaml:"maxAttempts"`
	Strategy    RetryStrategy `yaml:"strategy"`
	BaseDelayMs int           `yaml:"baseDelayMs"`
	MaxDelayMs  int           `yaml:"maxDelayMs"`
	Multiplier  float64       `yaml:"multiplier"`
	Jitter      bool          `yaml:"jitter"`
	RetryOn     []string      `yaml:"retryOn,omitempty"`
	StopOn      []string      `yaml:"stopOn,omitempty"`
}

// PollCondition is the predicate a PollConfig waits on.
type PollCondition struct {
	Kind     PollConditionKind `yaml:"kind"`
	Path     string            `yaml:"path,omitempty"`
	Operator PollOperator      `yaml:"operator"`
	Expected any               `yaml:"expected"`
}

// PollConfig configures the condition-based wait loop (§4.11).
type PollConfig struct {
	Condition         PollCondition     `yaml:"condition"`
	MaxAttempts       int               `yaml:"maxAttempts"`
	IntervalMs        int               `yaml:"intervalMs"`
	TimeoutMs         int               `yaml:"timeoutMs"`
	Backoff           RetryStrategy     `yaml:"backoff"`
	OnTimeoutBehavior OnTimeoutBehavior `yaml:"onTimeoutBehavior"`
	OnTimeoutMessage  string            `yaml:"onTimeoutMessage,omitempty"`
}

// ExtractRule pulls a value out of a response, a named prior variable, or
// DB result rows, and writes it into the VariableStore.
type ExtractRule struct {
	Name           string       `yaml:"name"`
	SourceKind     SourceKind   `yaml:"sourceKind"`
	Expression     string       `yaml:"expression"`
	Scope          ExtractScope `yaml:"scope"`
	Default        any          `yaml:"default,omitempty"`
	HasDefault     bool         `yaml:"-"`
	SourceVariable string       `yaml:"sourceVariable,omitempty"`
}

// ValidateRule compares a target-derived actual value against a templated
// expected value using a named comparator.
type ValidateRule struct {
	Target     ValidateTarget `yaml:"target"`
	Expression string         `yaml:"expression,omitempty"`
	Comparator string         `yaml:"comparator"`
	Expected   any            `yaml:"expected"`
	Message    string         `yaml:"message,omitempty"`
}

// RequestSpec is the `request` keyword's payload: an HTTP call plus its
// extract/validate rules.
type RequestSpec struct {
	Method         string            `yaml:"method"`
	URL            string            `yaml:"url"`
	Headers        map[string]string `yaml:"headers,omitempty"`
	Params         map[string]string `yaml:"params,omitempty"`
	BodyKind       BodyKind          `yaml:"bodyKind,omitempty"`
	Body           any               `yaml:"body,omitempty"`
	Cookies        map[string]string `yaml:"cookies,omitempty"`
	TimeoutSeconds int               `yaml:"timeoutSeconds,omitempty"`
	AllowRedirects *bool             `yaml:"allowRedirects,omitempty"`
	VerifySSL      *bool             `yaml:"verifySsl,omitempty"`
	Extract        []ExtractRule     `yaml:"extract,omitempty"`
	Validate       []ValidateRule    `yaml:"validate,omitempty"`
}

// AssertionSpec is the `assertion` keyword's payload: one rule against an
// optionally named prior source variable.
type AssertionSpec struct {
	Rule           ValidateRule `yaml:"rule"`
	SourceVariable string       `yaml:"sourceVariable,omitempty"`
}

// ExtractSpec is the `extract` keyword's payload: extraction rules against
// an optionally named prior source variable.
type ExtractSpec struct {
	Rules          []ExtractRule `yaml:"rules"`
	SourceVariable string        `yaml:"sourceVariable,omitempty"`
}

// DBSpec is the `db` keyword's payload: a query against a named datasource
// plus its extract/validate rules.
type DBSpec struct {
	Datasource string         `yaml:"datasource"`
	SQL        string         `yaml:"sql"`
	Extract    []ExtractRule  `yaml:"extract,omitempty"`
	Validate   []ValidateRule `yaml:"validate,omitempty"`
}

// CustomSpec is the `custom` keyword's payload: a named registered function
// invoked with literal parameters.
type CustomSpec struct {
	KeywordName string         `yaml:"keywordName"`
	Parameters  map[string]any `yaml:"parameters,omitempty"`
	Extract     []ExtractRule  `yaml:"extract,omitempty"`
}

// LoopMode selects which of the Loop/Concurrent Driver's three execution
// modes a step's Loop block uses (§4.12).
type LoopMode string

const (
	LoopFor        LoopMode = "for"
	LoopWhile      LoopMode = "while"
	LoopConcurrent LoopMode = "concurrent"
)

// LoopSpec wraps an inner step sequence in one of the for/while/concurrent
// execution modes. `Items` may be a literal list or a `{{var}}` reference
// resolved to one; `Condition` uses the same predicate grammar as
// skip_if/only_if; `Concurrency` bounds the `concurrent` worker pool.
type LoopSpec struct {
	Mode        LoopMode `yaml:"mode"`
	Items       any      `yaml:"items,omitempty"`
	Condition   string   `yaml:"condition,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
	Steps       []Step   `yaml:"steps"`
}

// Step is the tagged variant over KeywordType. Exactly one of the typed
// payload fields is populated, matching Type.
type Step struct {
	Index       int         `yaml:"-"`
	Name        string      `yaml:"name"`
	Type        KeywordType `yaml:"keywordType"`
	KeywordName string      `yaml:"keywordName,omitempty"`
	Enabled     *bool       `yaml:"enabled,omitempty"`
	SkipIf      string      `yaml:"skipIf,omitempty"`
	OnlyIf      string      `yaml:"onlyIf,omitempty"`
	DependsOn   []string    `yaml:"dependsOn,omitempty"`
	Setup       []Step      `yaml:"setup,omitempty"`
	Teardown    []Step      `yaml:"teardown,omitempty"`
	RetryPolicy *RetryPolicy `yaml:"retryPolicy,omitempty"`
	PollConfig  *PollConfig  `yaml:"pollConfig,omitempty"`
	Loop        *LoopSpec    `yaml:"loop,omitempty"`

	Request   *RequestSpec   `yaml:"request,omitempty"`
	Assertion *AssertionSpec `yaml:"assertion,omitempty"`
	Extract   *ExtractSpec   `yaml:"extract,omitempty"`
	DB        *DBSpec        `yaml:"db,omitempty"`
	Custom    *CustomSpec    `yaml:"custom,omitempty"`
}

// IsEnabled reports the step's effective enabled flag; absent means true.
func (s *Step) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// Ddts is the data-driven dataset: a name plus a non-empty list of
// parameter rows, each sharing the same key set (checked at load).
type Ddts struct {
	Name       string           `yaml:"name"`
	Parameters []map[string]any `yaml:"parameters"`
}

// Case is the top-level parsed scenario: config, ordered steps, and an
// optional data-driven dataset.
type Case struct {
	Config Config `yaml:"config"`
	Steps  []Step `yaml:"teststeps"`
	Ddts   *Ddts  `yaml:"ddts,omitempty"`
}

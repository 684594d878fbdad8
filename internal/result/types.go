// Package result defines the JSON output document (CaseResult) and
// builds it from a scheduler run: summaries, logs, and deterministic
// key ordering (§4.15).
package result

import (
	"time"

	"github.com/wesleyorama2/sisyphus/internal/errs"
	"github.com/wesleyorama2/sisyphus/internal/extract"
	"github.com/wesleyorama2/sisyphus/internal/scenario"
	"github.com/wesleyorama2/sisyphus/internal/validate"
)

// Status is a step or case's aggregate outcome.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// LogLevel names a log entry's severity.
type LogLevel string

const (
	LogDebug   LogLevel = "DEBUG"
	LogInfo    LogLevel = "INFO"
	LogWarning LogLevel = "WARNING"
	LogError   LogLevel = "ERROR"
)

// LogEntry is one append-only entry of the case's log stream (§4.15).
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	StepIndex *int      `json:"stepIndex,omitempty"`
}

// StepDetail carries the keyword-specific payload of a StepResult:
// Request, DB or Loop matching the step's kind, plus Retry or Poll when
// the step ran under a retry policy or poll config.
type StepDetail struct {
	Request  *RequestDetail  `json:"request,omitempty"`
	DB       *DBDetail       `json:"db,omitempty"`
	Retry    []RetryAttempt  `json:"retry,omitempty"`
	Poll     *PollDetail     `json:"poll,omitempty"`
	Loop     *LoopDetail     `json:"loop,omitempty"`
}

// RequestDetail mirrors the httpexec request/response pair recorded for a
// `request` step.
type RequestDetail struct {
	Method       string         `json:"method"`
	URL          string         `json:"url"`
	StatusCode   int            `json:"statusCode"`
	BodySize     int            `json:"bodySize"`
	ResponseTime int64          `json:"responseTimeMs"`
	Body         any            `json:"body,omitempty"`
}

// DBDetail mirrors a `db` step's rendered SQL and rows.
type DBDetail struct {
	Datasource  string           `json:"datasource"`
	SQL         string           `json:"sql"`
	SQLRendered string           `json:"sqlRendered"`
	Rows        []map[string]any `json:"rows,omitempty"`
}

// RetryAttempt is one retry-loop attempt recorded for a step that carries
// a RetryPolicy.
type RetryAttempt struct {
	Number  int        `json:"number"`
	Outcome string     `json:"outcome"`
	DelayMs int64      `json:"delayMs,omitempty"`
	Error   *errs.Info `json:"error,omitempty"`
}

// PollDetail is a polling step's attempt history and verdict.
type PollDetail struct {
	Attempts int  `json:"attempts"`
	TimedOut bool `json:"timeout,omitempty"`
}

// LoopDetail is a for/while/concurrent step's per-iteration outcomes.
type LoopDetail struct {
	Mode       string `json:"mode"`
	Iterations int    `json:"iterations"`
	Passed     int    `json:"passed"`
}

// StepResult is one step's recorded outcome (§3).
type StepResult struct {
	Index             int                     `json:"index"`
	Name              string                  `json:"name"`
	KeywordType       scenario.KeywordType    `json:"keywordType"`
	KeywordName       string                  `json:"keywordName,omitempty"`
	Status            Status                  `json:"status"`
	StartTime         time.Time               `json:"startTime"`
	EndTime           time.Time               `json:"endTime"`
	DurationMs        int64                   `json:"durationMs"`
	Error             *errs.Info              `json:"error,omitempty"`
	Detail            *StepDetail             `json:"detail,omitempty"`
	AssertionResults  []validate.Result       `json:"assertionResults,omitempty"`
	ExtractResults    []extract.Result        `json:"extractResults,omitempty"`
	SkipReason        string                  `json:"skipReason,omitempty"`
}

// Summary carries the aggregate counters described in §4.15.
type Summary struct {
	TotalSteps           int     `json:"totalSteps"`
	Passed                int     `json:"passed"`
	Failed                int     `json:"failed"`
	Error                 int     `json:"error"`
	Skipped               int     `json:"skipped"`
	TotalAssertions       int     `json:"totalAssertions"`
	PassedAssertions      int     `json:"passedAssertions"`
	FailedAssertions      int     `json:"failedAssertions"`
	PassRate              float64 `json:"passRate"`
	AvgResponseTimeMs     float64 `json:"avgResponseTimeMs"`
	MinResponseTimeMs     int64   `json:"minResponseTimeMs"`
	MaxResponseTimeMs     int64   `json:"maxResponseTimeMs"`
	TotalRequests         int     `json:"totalRequests"`
	TotalDBOperations     int     `json:"totalDbOperations"`
	TotalExtractions      int     `json:"totalExtractions"`
	TotalDataDrivenRuns   int     `json:"totalDataDrivenRuns"`
}

// DataDrivenRun is one row's full scheduler run under a data-driven case.
type DataDrivenRun struct {
	RowIndex   int            `json:"rowIndex"`
	Parameters map[string]any `json:"parameters"`
	Status     Status         `json:"status"`
	Steps      []StepResult   `json:"steps"`
}

// DataDrivenReport is the aggregate data-driven sub-report (§4.14).
type DataDrivenReport struct {
	TotalRuns  int             `json:"totalRuns"`
	PassedRuns int             `json:"passedRuns"`
	Status     Status          `json:"status"`
	Runs       []DataDrivenRun `json:"runs"`
}

// EnvironmentSnapshot is a snapshot of the active environment taken at
// case end.
type EnvironmentSnapshot struct {
	Name    string `json:"name,omitempty"`
	BaseURL string `json:"baseUrl,omitempty"`
}

// CaseResult is the single structured JSON document the engine emits.
type CaseResult struct {
	ExecutionID   string               `json:"executionId"`
	ScenarioID    string               `json:"scenarioId"`
	ScenarioName  string               `json:"scenarioName"`
	ProjectID     string               `json:"projectId"`
	Status        Status               `json:"status"`
	StartTime     time.Time            `json:"startTime"`
	EndTime       time.Time            `json:"endTime"`
	DurationMs    int64                `json:"durationMs"`
	Summary       Summary              `json:"summary"`
	Environment   EnvironmentSnapshot  `json:"environment"`
	Steps         []StepResult         `json:"steps"`
	DataDriven    *DataDrivenReport    `json:"dataDriven,omitempty"`
	Variables     map[string]any       `json:"variables"`
	Logs          []LogEntry           `json:"logs"`
	Error         *errs.Info           `json:"error,omitempty"`
}

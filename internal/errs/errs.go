// Package errs defines the engine's error-kind taxonomy.
//
// Three classes of failure exist in the engine, and each follows a
// distinct result path rather than a shared exception hierarchy:
// engine errors abort the case, step errors are recorded on the step
// and execution continues, and assertion failures are recorded but
// never abort anything.
package errs

// Kind identifies a specific error code from the engine's taxonomy.
type Kind string

const (
	YAMLParseError      Kind = "YAML_PARSE_ERROR"
	YAMLValidationError Kind = "YAML_VALIDATION_ERROR"
	FileNotFound        Kind = "FILE_NOT_FOUND"
	CSVParseError       Kind = "CSV_PARSE_ERROR"
	CSVFileNotFound     Kind = "CSV_FILE_NOT_FOUND"

	EngineInternalError Kind = "ENGINE_INTERNAL_ERROR"
	TimeoutError        Kind = "TIMEOUT_ERROR"

	RequestTimeout         Kind = "REQUEST_TIMEOUT"
	RequestConnectionError Kind = "REQUEST_CONNECTION_ERROR"
	RequestSSLError        Kind = "REQUEST_SSL_ERROR"

	DBConnectionError    Kind = "DB_CONNECTION_ERROR"
	DBQueryError         Kind = "DB_QUERY_ERROR"
	DBDatasourceNotFound Kind = "DB_DATASOURCE_NOT_FOUND"

	AssertionFailed Kind = "ASSERTION_FAILED"
	ExtractFailed   Kind = "EXTRACT_FAILED"

	KeywordNotFound      Kind = "KEYWORD_NOT_FOUND"
	KeywordExecutionErr  Kind = "KEYWORD_EXECUTION_ERROR"
	VariableNotFound     Kind = "VARIABLE_NOT_FOUND"
	VariableRenderError  Kind = "VARIABLE_RENDER_ERROR"
)

// Info is the user-visible error object shape: { code, message, detail? }.
// Detail is only populated when the caller asks for verbose output.
type Info struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// EngineError aborts the whole case. It is returned from the loader,
// the scheduler's deadline check, and any other component whose
// failure cannot be attributed to a single step.
type EngineError struct {
	Kind    Kind
	Message string
	Path    string // e.g. teststeps[2].request.body
	Detail  string
}

func (e *EngineError) Error() string {
	if e.Path != "" {
		return string(e.Kind) + ": " + e.Message + " (" + e.Path + ")"
	}
	return string(e.Kind) + ": " + e.Message
}

// Info converts the engine error into the user-visible error object.
// Detail is only included when verbose is true.
func (e *EngineError) Info(verbose bool) *Info {
	info := &Info{Code: e.Kind, Message: e.Message}
	if verbose {
		info.Detail = e.Detail
	}
	return info
}

// StepError is attached to a StepResult; it never aborts the case.
type StepError struct {
	Kind    Kind
	Message string
	Detail  string
}

func (e *StepError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Info converts the step error into the user-visible error object.
func (e *StepError) Info(verbose bool) *Info {
	info := &Info{Code: e.Kind, Message: e.Message}
	if verbose {
		info.Detail = e.Detail
	}
	return info
}

// Retryable reports whether this error kind may be matched against a
// RetryPolicy's retryOn/stopOn sets (§4.10 of the engine spec).
func (k Kind) Retryable() bool {
	switch k {
	case RequestTimeout, RequestConnectionError, RequestSSLError,
		DBConnectionError, DBQueryError:
		return true
	default:
		return false
	}
}

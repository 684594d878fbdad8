// Package dbexec runs a `db` step's SQL via a named datasource adapter,
// serializing rows into an ordered list of column-name→value maps.
package dbexec

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/wesleyorama2/sisyphus/internal/errs"
)

// Adapter is the small query interface a datasource must satisfy; the
// adapter itself owns pooling and thread-safety (§5).
type Adapter interface {
	Query(ctx context.Context, sqlText string) (columns []string, rows []map[string]any, err error)
}

// Registry resolves a Case's `datasource` names to Adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: map[string]Adapter{}}
}

// Register binds a datasource name to an Adapter.
func (r *Registry) Register(name string, a Adapter) {
	r.adapters[name] = a
}

// Result is a `db` step's outcome: the raw and rendered SQL plus the rows.
type Result struct {
	Datasource  string           `json:"datasource"`
	SQL         string           `json:"sql"`
	SQLRendered string           `json:"sqlRendered"`
	Columns     []string         `json:"columns,omitempty"`
	Rows        []map[string]any `json:"rows,omitempty"`
}

// denylist guards against obviously unsafe rendered SQL — stacked queries
// and comment-based truncation — per §4.9's safety requirement. It is not
// a substitute for parameterized binding, only a fail-closed backstop for
// templated SQL the executor cannot itself parameterize.
var denylistPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*(drop|delete|update|insert|alter|truncate)\b`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`/\*`),
}

// Execute takes sqlRendered (sqlRaw already template-substituted by the
// caller; Execute renders nothing itself), checks it against the
// denylist, runs it through the named datasource's Adapter, and records
// both forms in the Result.
func (r *Registry) Execute(ctx context.Context, datasource, sqlRaw, sqlRendered string) (Result, *errs.StepError) {
	adapter, ok := r.adapters[datasource]
	if !ok {
		return Result{}, &errs.StepError{
			Kind:    errs.DBDatasourceNotFound,
			Message: fmt.Sprintf("datasource %q is not registered", datasource),
		}
	}

	if violation := firstDenylistMatch(sqlRendered); violation != "" {
		return Result{}, &errs.StepError{
			Kind:    errs.DBQueryError,
			Message: fmt.Sprintf("rendered SQL rejected by safety denylist: %s", violation),
		}
	}

	columns, rows, err := adapter.Query(ctx, sqlRendered)
	if err != nil {
		kind := errs.DBQueryError
		if isConnectionErr(err) {
			kind = errs.DBConnectionError
		}
		return Result{}, &errs.StepError{Kind: kind, Message: err.Error()}
	}

	return Result{
		Datasource:  datasource,
		SQL:         sqlRaw,
		SQLRendered: sqlRendered,
		Columns:     columns,
		Rows:        rows,
	}, nil
}

func firstDenylistMatch(s string) string {
	for _, re := range denylistPatterns {
		if re.MatchString(s) {
			return re.String()
		}
	}
	return ""
}

func isConnectionErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection") || strings.Contains(msg, "refused") || strings.Contains(msg, "unreachable")
}

// SQLAdapter is the reference Adapter implementation over database/sql,
// usable with any driver registered via a blank import. This module
// imports no SQL driver itself, and the engine registers no adapter by
// default.
type SQLAdapter struct {
	DB *sql.DB
}

func (a *SQLAdapter) Query(ctx context.Context, sqlText string) ([]string, []map[string]any, error) {
	rows, err := a.DB.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = normalizeSQLValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return columns, out, nil
}

// normalizeSQLValue coerces driver-specific scan types ([]byte in
// particular) into JSON-friendly values so the result serializes the same
// way decoded HTTP JSON bodies do.
func normalizeSQLValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

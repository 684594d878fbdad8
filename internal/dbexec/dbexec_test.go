package dbexec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/errs"
)

type stubAdapter struct {
	columns []string
	rows    []map[string]any
	err     error
}

func (s *stubAdapter) Query(ctx context.Context, sqlText string) ([]string, []map[string]any, error) {
	return s.columns, s.rows, s.err
}

func TestExecute_UnknownDatasource(t *testing.T) {
	r := NewRegistry()
	_, stepErr := r.Execute(context.Background(), "missing", "SELECT 1", "SELECT 1")
	require.NotNil(t, stepErr)
	assert.Equal(t, errs.DBDatasourceNotFound, stepErr.Kind)
}

func TestExecute_DenylistRejectsStackedQuery(t *testing.T) {
	r := NewRegistry()
	r.Register("db1", &stubAdapter{})
	_, stepErr := r.Execute(context.Background(), "db1", "SELECT 1", "SELECT 1; DROP TABLE users")
	require.NotNil(t, stepErr)
	assert.Equal(t, errs.DBQueryError, stepErr.Kind)
}

func TestExecute_Success(t *testing.T) {
	r := NewRegistry()
	r.Register("db1", &stubAdapter{
		columns: []string{"id", "name"},
		rows:    []map[string]any{{"id": int64(1), "name": "ada"}},
	})
	result, stepErr := r.Execute(context.Background(), "db1", "SELECT * FROM users", "SELECT * FROM users")
	require.Nil(t, stepErr)
	assert.Equal(t, []string{"id", "name"}, result.Columns)
	assert.Len(t, result.Rows, 1)
}

func TestNormalizeSQLValue_BytesToString(t *testing.T) {
	assert.Equal(t, "hi", normalizeSQLValue([]byte("hi")))
	assert.Equal(t, 5, normalizeSQLValue(5))
}

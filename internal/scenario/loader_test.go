package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesleyorama2/sisyphus/internal/errs"
)

const minimalCase = `
config:
  name: ping case
  scenarioId: SC-1
  projectId: P-1
  priority: P1
  environment:
    name: default
    baseUrl: http://mock
teststeps:
  - name: ping
    keywordType: request
    request:
      method: GET
      url: /ping
      validate:
        - target: statusCode
          comparator: eq
          expected: 200
`

func TestParse_Minimal(t *testing.T) {
	c, err := Parse([]byte(minimalCase))
	require.NoError(t, err)
	require.Len(t, c.Steps, 1)
	assert.Equal(t, 0, c.Steps[0].Index)
	assert.Equal(t, KeywordRequest, c.Steps[0].Type)
	require.NotNil(t, c.Steps[0].Request)
	assert.Equal(t, "GET", c.Steps[0].Request.Method)
}

func TestParse_AssignsStableIndices(t *testing.T) {
	doc := `
config:
  name: c
  scenarioId: s
  projectId: p
  priority: P1
teststeps:
  - name: a
    keywordType: assertion
    assertion:
      rule: {target: statusCode, comparator: eq, expected: 200}
  - name: b
    keywordType: assertion
    assertion:
      rule: {target: statusCode, comparator: eq, expected: 200}
`
	c, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, c.Steps, 2)
	assert.Equal(t, 0, c.Steps[0].Index)
	assert.Equal(t, 1, c.Steps[1].Index)
}

func TestParse_MissingKeywordType(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: bad
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestParse_UnknownKeywordType(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: bad
    keywordType: bogus
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/to/case.yaml")
	require.Error(t, err)
	var engErr *errs.EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, errs.FileNotFound, engErr.Kind)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("not: [valid: yaml"))
	require.Error(t, err)
	var engErr *errs.EngineError
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, errs.YAMLParseError, engErr.Kind)
}

package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_DependsOnMustBeEarlier(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: a
    keywordType: assertion
    dependsOn: [b]
    assertion:
      rule: {target: statusCode, comparator: eq, expected: 200}
  - name: b
    keywordType: assertion
    assertion:
      rule: {target: statusCode, comparator: eq, expected: 200}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestValidate_DependsOnUnknown(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: a
    keywordType: assertion
    dependsOn: [ghost]
    assertion:
      rule: {target: statusCode, comparator: eq, expected: 200}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestValidate_RequestRequiresMethodAndURL(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: a
    keywordType: request
    request: {method: "", url: ""}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestValidate_CSVAndDdtsMutuallyExclusive(t *testing.T) {
	c := &Case{
		Config: Config{Name: "c", ScenarioID: "s", ProjectID: "p", Priority: P1, CSVDatasource: "data.csv"},
		Ddts:   &Ddts{Name: "d", Parameters: []map[string]any{{"a": 1}}},
	}
	err := Validate(c)
	require.Error(t, err)
}

func TestValidate_DdtsKeySetConsistency(t *testing.T) {
	c := &Case{
		Config: Config{Name: "c", ScenarioID: "s", ProjectID: "p", Priority: P1},
		Ddts: &Ddts{
			Name: "d",
			Parameters: []map[string]any{
				{"a": 1, "b": 2},
				{"a": 1},
			},
		},
	}
	err := Validate(c)
	require.Error(t, err)
}

func TestValidate_DdtsEmptyParameters(t *testing.T) {
	c := &Case{
		Config: Config{Name: "c", ScenarioID: "s", ProjectID: "p", Priority: P1},
		Ddts:   &Ddts{Name: "d", Parameters: nil},
	}
	require.Error(t, Validate(c))
}

func TestValidate_LoopForRequiresItems(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: a
    loop:
      mode: for
      steps:
        - name: inner
          keywordType: assertion
          assertion:
            rule: {target: statusCode, comparator: eq, expected: 200}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestValidate_LoopConcurrentRequiresConcurrency(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: a
    loop:
      mode: concurrent
      items: [1, 2, 3]
      steps:
        - name: inner
          keywordType: assertion
          assertion:
            rule: {target: statusCode, comparator: eq, expected: 200}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestValidate_LoopForOK(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: a
    loop:
      mode: for
      items: [1, 2, 3]
      steps:
        - name: inner
          keywordType: assertion
          assertion:
            rule: {target: statusCode, comparator: eq, expected: 200}
`
	_, err := Parse([]byte(doc))
	require.NoError(t, err)
}

func TestValidate_LoopEmptyStepsRejected(t *testing.T) {
	doc := `
config: {name: c, scenarioId: s, projectId: p, priority: P1}
teststeps:
  - name: a
    loop:
      mode: while
      condition: "count < 3"
      steps: []
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)
}

func TestValidate_OKCase(t *testing.T) {
	c := &Case{
		Config: Config{Name: "c", ScenarioID: "s", ProjectID: "p", Priority: P1},
		Ddts: &Ddts{
			Name: "d",
			Parameters: []map[string]any{
				{"a": 1},
				{"a": 2},
			},
		},
	}
	assert.NoError(t, Validate(c))
}

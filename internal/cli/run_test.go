package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRunFlags restores runCmd's flags to their defaults between tests;
// pflag.FlagSet.Parse never clears a flag that the next invocation's
// argument list omits, so reusing the package-level command across tests
// would otherwise leak state from whichever test ran first.
func resetRunFlags(t *testing.T) {
	t.Helper()
	runCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
}

func TestResolvePaths_SingleCase(t *testing.T) {
	paths, err := resolvePaths("a.yaml", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.yaml"}, paths)
}

func TestResolvePaths_WalksDirectoryForYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.yml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte("x"), 0o644))

	paths, err := resolvePaths("", []string{dir})
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestResolvePaths_MissingPathErrors(t *testing.T) {
	_, err := resolvePaths("", []string{"/does/not/exist"})
	assert.Error(t, err)
}

func TestRunCmd_TextReporterExitsCleanOnPassingCase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	}))
	defer srv.Close()

	dir := t.TempDir()
	caseFile := filepath.Join(dir, "smoke.yaml")
	yaml := `
config:
  name: smoke
  environment:
    baseUrl: ` + srv.URL + `
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
	require.NoError(t, os.WriteFile(caseFile, []byte(yaml), 0o644))

	resetRunFlags(t)
	var out bytes.Buffer
	runCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"run", "--case", caseFile, "--config", filepath.Join(dir, "missing.yaml")})
	err := RootCmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "ping")
}

func TestRunCmd_RequiresCaseOrCases(t *testing.T) {
	resetRunFlags(t)
	var out bytes.Buffer
	runCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"run", "--config", "/does/not/matter.yaml"})
	err := RootCmd.Execute()
	assert.Error(t, err)
}

package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/sisyphus/internal/engine"
	"github.com/wesleyorama2/sisyphus/internal/result"
	"github.com/wesleyorama2/sisyphus/internal/sconfig"
)

var runCmd = &cobra.Command{
	Use:           "run",
	Short:         "Run one or more scenario files",
	RunE:          runRun,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	runCmd.Flags().String("case", "", "run a single scenario file")
	runCmd.Flags().StringSlice("cases", nil, "run multiple scenario files or directories (directories are walked recursively for *.yaml and *.yml)")
	runCmd.Flags().StringP("output", "O", "text", "reporter: text|json|allure|html")
	runCmd.Flags().String("allure-dir", "", "output directory for the allure reporter")
	runCmd.Flags().String("html-dir", "", "output directory for the html reporter")
	runCmd.Flags().BoolP("verbose", "v", false, "include DEBUG logs")
	runCmd.Flags().String("profile", "", "override active_profile")
	runCmd.Flags().Bool("no-color", false, "disable colored text output")
	runCmd.Flags().String("config", ".sisyphus/config.yaml", "sidecar config path")
	runCmd.Flags().Duration("case-timeout", 0, "overall deadline per case (0 means none)")
}

func runRun(cmd *cobra.Command, args []string) error {
	caseFlag, _ := cmd.Flags().GetString("case")
	casesFlag, _ := cmd.Flags().GetStringSlice("cases")
	output, _ := cmd.Flags().GetString("output")
	allureDir, _ := cmd.Flags().GetString("allure-dir")
	htmlDir, _ := cmd.Flags().GetString("html-dir")
	verbose, _ := cmd.Flags().GetBool("verbose")
	profile, _ := cmd.Flags().GetString("profile")
	noColor, _ := cmd.Flags().GetBool("no-color")
	configPath, _ := cmd.Flags().GetString("config")
	caseTimeout, _ := cmd.Flags().GetDuration("case-timeout")

	paths, err := resolvePaths(caseFlag, casesFlag)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("either --case or --cases is required")
	}

	sidecar, err := sconfig.Load(configPath)
	if err != nil {
		return err
	}

	reporter, err := result.NewReporter(output, result.TextOptions{Verbose: verbose, NoColor: noColor})
	if err != nil {
		return err
	}
	if (output == "allure" && allureDir == "") || (output == "html" && htmlDir == "") {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: -O %s without an output directory; the reporter will still error\n", output)
	}

	eng := engine.New()
	eng.Sidecar = sidecar
	eng.Verbose = verbose
	eng.Profile = profile
	eng.CaseDeadline = caseTimeout

	engineErrored := false
	for _, p := range paths {
		res, err := eng.RunFile(cmd.Context(), p)
		if err != nil {
			return err
		}
		if res.Status == result.StatusError {
			engineErrored = true
		}
		if rerr := reporter.Report(cmd.OutOrStdout(), res); rerr != nil {
			return rerr
		}
	}

	if engineErrored {
		return errExitOne
	}
	return nil
}

// errExitOne signals "exit 1, no extra message" — the engine-error path
// already reported structured detail via the reporter (§6: assertion
// failures never trigger a non-zero exit, only engine errors do).
var errExitOne = silentError{}

type silentError struct{}

func (silentError) Error() string { return "" }

// resolvePaths expands --case/--cases into a flat list of scenario file
// paths: the --case path first, then each --cases entry in the order
// given, with directories walked recursively (in lexical order) for
// *.yaml and *.yml. The list is not otherwise sorted.
func resolvePaths(single string, many []string) ([]string, error) {
	var out []string
	if single != "" {
		out = append(out, single)
	}
	for _, p := range many {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
				out = append(out, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

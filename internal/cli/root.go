// Package cli wires the engine into a cobra command tree: run and
// version, mirroring the teacher's RootCmd/init()/Execute() shape.
package cli

import (
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "sisyphus",
	Short:   "A YAML-driven API test orchestration engine",
	Version: version,
	Long: `sisyphus executes declarative YAML test cases against HTTP APIs:
templated requests, JSONPath assertions and extraction, retry/poll
policies, data-driven re-runs, and bounded concurrent fan-out.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and runs it. It
// only needs to happen once from main.main().
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(versionCmd)
}

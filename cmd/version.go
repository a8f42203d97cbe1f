package cmd

import (
	"fmt"

	"confluence-mcp/config"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd)
	},
}

// printVersion writes to stdout; version runs never enter the stdio loop.
func printVersion(cmd *cobra.Command) {
	fmt.Fprintln(stdout, "confluence-mcp")
	fmt.Fprintln(stdout, "Version:", config.Version)
	fmt.Fprintln(stdout, "Commit:", config.Commit)
	fmt.Fprintln(stdout, "Build Date:", config.BuildDate)
}

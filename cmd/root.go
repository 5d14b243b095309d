package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgproc/tgproc/output"
)

var (
	noBannerFlag bool
	Version      = "0.1.0"
	GitCommit    = "HEAD"
)

var rootCmd = &cobra.Command{
	Use:   "tgproc",
	Short: "Taint-log post-processor: source-to-sink chains from a taintgrind execution log",
	Long: `tgproc reconstructs a directed taint-flow graph from a taintgrind
execution log, classifies every node Green/Blue/Red, detects sinks, and
extracts the source-to-sink chains that explain how tainted data reached
each one.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		noBannerFlag, _ = cmd.Flags().GetBool("no-banner") //nolint:all

		if cmd.Name() == "help" || (len(os.Args) == 1 || (len(os.Args) == 2 && (os.Args[1] == "--help" || os.Args[1] == "-h"))) {
			logger := output.NewLogger(output.VerbosityDefault)
			if output.ShouldShowBanner(logger.IsTTY(), noBannerFlag) {
				output.PrintBanner(logger.GetWriter(), Version, output.DefaultBannerOptions())
			} else if logger.IsTTY() && !noBannerFlag {
				fmt.Fprintln(os.Stderr, output.GetCompactBanner(Version))
				fmt.Fprintln(os.Stderr)
			}
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("no-banner", false, "Disable startup banner")
}

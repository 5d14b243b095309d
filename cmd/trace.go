package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tgproc/tgproc/config"
	"github.com/tgproc/tgproc/graph"
	"github.com/tgproc/tgproc/output"
	"github.com/tgproc/tgproc/trace"
)

var traceCmd = &cobra.Command{
	Use:   "trace <taintgrind-log>",
	Short: "Reconstruct source-to-sink taint chains from a taintgrind log",
	Long: `trace ingests a taintgrind execution log, builds the directed
taint-flow graph, detects sinks, and prints the source-to-sink chains
that explain how tainted data reached each one.

Examples:
  # Default source-trace rendering
  tgproc trace run.log

  # Only print the source node of each chain
  tgproc trace run.log --src-only

  # Reprint the original log line for every node in the trace
  tgproc trace run.log --taintgrind-trace

  # Reprint the entire log, highlighting the lines that belong to a trace
  tgproc trace run.log --mark-trace

  # Print every accepted line's index and taint color as it is ingested
  tgproc trace run.log --mark-taint

  # Treat specific line numbers as the only sinks
  tgproc trace run.log --sink-line 42 --sink-line 108

  # SARIF export for CI/CD integration
  tgproc trace run.log --format sarif`,
	Args: cobra.ExactArgs(1),
	RunE: runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().Bool("src-only", false, "Print only the source node of each chain")
	traceCmd.Flags().Bool("taintgrind-trace", false, "Reprint the original log line for each node in the trace")
	traceCmd.Flags().Bool("mark-trace", false, "Reprint the entire log, highlighting trace lines")
	traceCmd.Flags().Bool("mark-taint", false, "Print every accepted line's index and taint color as it is ingested")
	traceCmd.Flags().Bool("no-libs", false, "Hide frames in files considered 3rd-party libraries")
	traceCmd.Flags().Bool("no-tmp-instr", false, "Hide instrumentation-temporary nodes")
	traceCmd.Flags().Bool("unique-locs", false, "Collapse nodes that repeat a previously seen address")
	traceCmd.Flags().Bool("no-color", false, "Disable ANSI color output")
	traceCmd.Flags().IntSlice("sink-line", nil, "Manual sink line number (1-based); replaces automatic sink detection. May repeat.")
	traceCmd.Flags().String("format", "text", "Output format: text or sarif")
	traceCmd.Flags().String("allowlist", "", "Path to a .tgproc.yaml instrumentation allowlist")
	traceCmd.Flags().CountP("verbose", "v", "Enable debug-trace output")
	traceCmd.Flags().BoolP("quiet", "q", false, "Suppress progress and statistic output")
}

func runTrace(cmd *cobra.Command, args []string) error {
	if parent := cmd.Parent(); parent != nil {
		noBanner, _ := parent.PersistentFlags().GetBool("no-banner")
		bannerLogger := output.NewLogger(output.VerbosityDefault)
		if output.ShouldShowBanner(bannerLogger.IsTTY(), noBanner) {
			output.PrintBanner(bannerLogger.GetWriter(), Version, output.DefaultBannerOptions())
		}
	}

	return runTraceWithArgs(cmd, args[0])
}

// runTraceWithArgs implements the trace command's core logic, separated
// from runTrace so tests can drive it without a fully wired cobra
// command tree.
func runTraceWithArgs(cmd *cobra.Command, logPath string) error {
	opts, err := optionsFromFlags(cmd, logPath)
	if err != nil {
		return err
	}

	logger := output.NewLogger(opts.Verbosity)

	allowlist, err := config.LoadAllowlist(opts.AllowlistPath)
	if err != nil {
		return fmt.Errorf("loading allowlist: %w", err)
	}

	logf, err := os.Open(opts.LogPath)
	if err != nil {
		return fmt.Errorf("opening taintgrind log: %w", err)
	}
	defer logf.Close()

	colorize := opts.Color && !noColorEnv()

	hooks := graph.Hooks{}
	if opts.MarkTaint {
		hooks.OnLine = output.RenderMarkTaint(os.Stdout, colorize)
	}
	if opts.Verbosity >= output.VerbosityDefault {
		logger.Progress("Ingesting %s...", opts.LogPath)
	}

	g, err := graph.Build(logf, graph.FilterOptions{
		Allowlist:  allowlist,
		NoTmpInstr: opts.NoTmpInstr,
		NoLibs:     opts.NoLibs,
		UniqueLocs: opts.UniqueLocs,
		SinkLines:  opts.SinkLines,
	}, hooks)
	if err != nil {
		return fmt.Errorf("ingesting taintgrind log: %w", err)
	}

	logger.Statistic("Graph built: %d nodes, %d sinks (%d folded, %d dropped, %d skipped)",
		len(g.Nodes), len(g.Sinks), g.Folded, g.Dropped, g.Skipped)

	var detLogger trace.DetectionLogger
	if logger.IsDebug() {
		detLogger = &debugDetectionLogger{logger: logger}
	}

	var chainsBySink [][][]*graph.Node
	for _, sink := range g.Sinks {
		chainsBySink = append(chainsBySink, trace.Extract(sink, detLogger))
	}

	if opts.Format == config.FormatSARIF {
		return output.WriteSARIF(os.Stdout, g.Meta, g.Sinks, chainsBySink)
	}

	if opts.MarkTrace {
		output.RenderMarkTrace(os.Stdout, g, chainsBySink, colorize)
		return nil
	}

	renderer := output.NewRenderer(os.Stdout, opts.RenderMode(), g.Meta, colorize)
	for i, sink := range g.Sinks {
		if i > 0 {
			renderer.RenderSinkSeparator()
		}
		renderer.RenderSink(sink, chainsBySink[i])
	}

	return nil
}

func optionsFromFlags(cmd *cobra.Command, logPath string) (config.Options, error) {
	srcOnly, _ := cmd.Flags().GetBool("src-only")
	taintgrindTrace, _ := cmd.Flags().GetBool("taintgrind-trace")
	markTrace, _ := cmd.Flags().GetBool("mark-trace")
	markTaint, _ := cmd.Flags().GetBool("mark-taint")
	noLibs, _ := cmd.Flags().GetBool("no-libs")
	noTmpInstr, _ := cmd.Flags().GetBool("no-tmp-instr")
	uniqueLocs, _ := cmd.Flags().GetBool("unique-locs")
	noColor, _ := cmd.Flags().GetBool("no-color")
	sinkLines, _ := cmd.Flags().GetIntSlice("sink-line")
	formatStr, _ := cmd.Flags().GetString("format")
	allowlistPath, _ := cmd.Flags().GetString("allowlist")
	verboseCount, _ := cmd.Flags().GetCount("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	format := config.Format(formatStr)
	if format != config.FormatText && format != config.FormatSARIF {
		return config.Options{}, fmt.Errorf("--format must be 'text' or 'sarif', got %q", formatStr)
	}

	verbosity := output.VerbosityDefault
	switch {
	case quiet:
		verbosity = output.VerbosityQuiet
	case verboseCount > 0:
		verbosity = output.VerbosityDebug
	}

	return config.Options{
		LogPath:         logPath,
		TaintgrindTrace: taintgrindTrace,
		MarkTaint:       markTaint,
		MarkTrace:       markTrace,
		SrcOnly:         srcOnly,
		NoLibs:          noLibs,
		NoTmpInstr:      noTmpInstr,
		UniqueLocs:      uniqueLocs,
		Color:           !noColor,
		Verbosity:       verbosity,
		SinkLines:       sinkLines,
		Format:          format,
		AllowlistPath:   allowlistPath,
	}, nil
}

func noColorEnv() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

// debugDetectionLogger adapts output.Logger's debug-trace channel to
// trace.DetectionLogger, mirroring original_source's print_detection
// output at verbosity 20.
type debugDetectionLogger struct {
	logger *output.Logger
}

func (d *debugDetectionLogger) Detecting(queued []int, idx int, fromIdx int, hasFrom bool) {
	if hasFrom {
		d.logger.Debug("detecting #%d (from #%d), queue=%v", idx, fromIdx, queued)
	} else {
		d.logger.Debug("detecting #%d (root), queue=%v", idx, queued)
	}
}

func (d *debugDetectionLogger) AddingPreds(kept, skipped []int) {
	d.logger.Debug("adding preds kept=%v skipped=%v", kept, skipped)
}

func (d *debugDetectionLogger) FoundSource(idx int) {
	d.logger.Debug("found source #%d", idx)
}

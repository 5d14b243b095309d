// Package config holds the CLI-facing options the trace command builds
// from its flags, and the YAML-configurable instrumentation allowlist.
package config

import "github.com/tgproc/tgproc/output"

// Format selects the output encoding for a trace run.
type Format string

const (
	FormatText  Format = "text"
	FormatSARIF Format = "sarif"
)

// Options mirrors original_source's cli::Options field for field, plus
// the supplemental --format flag tgproc adds for SARIF export.
type Options struct {
	// LogPath is the required positional path to the taintgrind log.
	LogPath string

	// TaintgrindTrace selects the taintgrind-trace render mode: reprint
	// the original log line for every node in the trace.
	TaintgrindTrace bool
	// MarkTaint enables the ingestion-time side effect that prints every
	// accepted line's index and taint color as it is read.
	MarkTaint bool
	// MarkTrace selects the mark-trace render mode: reprint the entire
	// log and highlight the lines that belong to a trace.
	MarkTrace bool
	// SrcOnly selects the source-only render mode.
	SrcOnly bool

	// NoLibs hides frames in files the library-file heuristic matches.
	NoLibs bool
	// NoTmpInstr hides instrumentation-temporary nodes.
	NoTmpInstr bool
	// UniqueLocs collapses nodes that repeat a previously seen address.
	UniqueLocs bool

	// Color enables ANSI SGR output; defaults on.
	Color bool
	// Verbosity is one of output.VerbosityQuiet/Default/Debug.
	Verbosity output.VerbosityLevel

	// SinkLines holds manual sink line numbers (1-based) that replace
	// automatic sink detection when non-empty.
	SinkLines []int

	// Format selects text (the documented default) or sarif export.
	Format Format

	// AllowlistPath, when set, points at a YAML file listing the
	// instrumentation wrapper function names to fold/drop; a non-empty
	// list there replaces the built-in default list. Empty means use the
	// built-in default list.
	AllowlistPath string
}

// RenderMode reports which Renderer mode opts selects: ModeSrcOnly,
// then ModeTaintgrindTrace, in that priority, defaulting to the
// source-trace mode spec.md §6 documents when neither flag is set.
// MarkTrace and MarkTaint are not consulted: mark-trace is printed by
// output.RenderMarkTrace, and mark-taint is an ingestion-time hook.
func (o Options) RenderMode() output.Mode {
	switch {
	case o.SrcOnly:
		return output.ModeSrcOnly
	case o.TaintgrindTrace:
		return output.ModeTaintgrindTrace
	default:
		return output.ModeDefault
	}
}

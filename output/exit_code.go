package output

// ExitCode represents the exit code for the CLI.
type ExitCode int

const (
	// ExitCodeSuccess indicates the trace command ran to completion.
	ExitCodeSuccess ExitCode = 0

	// ExitCodeError indicates a startup, ingestion, or rendering error.
	ExitCodeError ExitCode = 1
)

// DetermineExitCode reports the process exit code for a trace run.
// Unlike a pass/fail scanner, tgproc has no findings-vs-no-findings
// distinction to encode: its product is the trace chains printed to
// stdout, so the exit code only needs to report whether the run
// completed without a fatal error.
func DetermineExitCode(hadErrors bool) ExitCode {
	if hadErrors {
		return ExitCodeError
	}
	return ExitCodeSuccess
}

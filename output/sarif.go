package output

import (
	"encoding/json"
	"fmt"
	"io"

	sarif "github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/tgproc/tgproc/graph"
	"github.com/tgproc/tgproc/meta"
)

// ruleID is the single SARIF rule tgproc reports under: every sink it
// finds is an instance of the same taint-reaches-a-dangerous-use rule,
// since tgproc classifies flows, not named vulnerability types.
const ruleID = "tainted-sink-reached"

// WriteSARIF implements the supplemental `--format sarif` export: one
// SARIF result per sink, with every source-to-sink chain reaching it
// folded into a code flow and related locations. It is additive to the
// five text render modes and never replaces them.
func WriteSARIF(w io.Writer, store *meta.Store, sinks []*graph.Node, chainsBySink [][][]*graph.Node) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("building sarif report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("tgproc", "https://github.com/tgproc/tgproc")
	run.AddRule(ruleID).
		WithDescription("A value derived from a taint source reaches a dangerous use without being sanitized.").
		WithName("TaintedSinkReached").
		WithDefaultConfiguration(sarif.NewReportingConfiguration().WithLevel("error"))

	for i, sink := range sinks {
		buildSinkResult(run, store, sink, chainsBySink[i])
	}

	report.AddRun(run)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

func buildSinkResult(run *sarif.Run, store *meta.Store, sink *graph.Node, chains [][]*graph.Node) {
	message := "tainted value reaches a dangerous use"

	result := run.CreateResultForRule(ruleID).
		WithMessage(sarif.NewTextMessage(message))

	result.AddLocation(locationFor(store, sink))

	var codeFlows []*sarif.CodeFlow
	var related []*sarif.Location

	for _, chain := range chains {
		if len(chain) == 0 {
			continue
		}
		var flowLocations []*sarif.ThreadFlowLocation
		for _, n := range chain {
			flowLocations = append(flowLocations, sarif.NewThreadFlowLocation().WithLocation(locationFor(store, n)))
		}
		threadFlow := sarif.NewThreadFlow().WithLocations(flowLocations)
		codeFlows = append(codeFlows, sarif.NewCodeFlow().WithThreadFlows([]*sarif.ThreadFlow{threadFlow}))

		src := chain[0]
		related = append(related, locationFor(store, src))
	}

	if len(codeFlows) > 0 {
		result.WithCodeFlows(codeFlows)
	}
	if len(related) > 0 {
		result.WithRelatedLocations(related)
	}
}

func locationFor(store *meta.Store, n *graph.Node) *sarif.Location {
	path := "[file not found]"
	line := 0

	if entry, ok := store.Get(n.Idx); ok {
		if entry.Loc.File != "" {
			path = entry.Loc.File
		}
		line = entry.Loc.Lineno
	}

	region := sarif.NewRegion().WithStartLine(line)

	return sarif.NewLocation().
		WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(path)).
				WithRegion(region),
		)
}

package graph

import (
	"bufio"
	"fmt"
	"io"

	"github.com/tgproc/tgproc/meta"
	"github.com/tgproc/tgproc/taint"
)

// Graph is the result of ingesting a taintgrind log: every node the
// filter did not drop, in log order, the live variable table at EOF, and
// the set of detected sinks in encounter order.
type Graph struct {
	Nodes []*Node
	Sinks []*Node
	Vars  VariableTable
	Meta  *meta.Store

	// Skipped counts lines that were silently dropped for having fewer
	// than five pipe-separated fields.
	Skipped int
	// Folded and Dropped count filter decisions, for the trace command's
	// statistics line.
	Folded  int
	Dropped int
}

// Progress is called after every accepted line, with the 1-based line
// number processed so far. Callers wire this to a progress bar; nil is
// a valid no-op.
type Progress func(lines int)

// Hooks bundles the optional side effects ingestion can report as it
// goes, so Build's signature does not grow a parameter per feature.
type Hooks struct {
	// Progress is invoked after every accepted line.
	Progress Progress
	// OnLine implements the "mark-taint" output mode: it is invoked for
	// every accepted (non-skipped) line, independent of whether that
	// line's node ends up committed, folded, or dropped, mirroring
	// original_source's unconditional per-line mark_taint print.
	OnLine func(idx int, t taint.Color, line string)
}

// Build ingests a taintgrind log from r, applying opts' fold/drop and
// manual-sink-override rules, and returns the resulting graph.
//
// It implements spec.md §4.D bis end to end: for every line, parse location
// and flow, build the node, apply the manual sink override, detect
// duplicate definitions, then commit through the filter. Unparseable
// LOC fields, conflicting flow definitions, duplicate definitions, and
// Sub-of-undefined-predecessor are all fatal and abort ingestion; lines
// with fewer than five fields are skipped.
func Build(r io.Reader, opts FilterOptions, hooks Hooks) (*Graph, error) {
	vars := make(VariableTable)
	builder := NewBuilder(vars)
	filter := NewFilter(opts)
	seenAddrs := make(map[uint64]bool)
	store := meta.NewStore()

	g := &Graph{Vars: vars, Meta: store}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)

	idx := 0
	for scanner.Scan() {
		line := scanner.Text()

		parts, ok := ParseLine(line)
		if !ok {
			g.Skipped++
			idx++
			continue
		}

		loc, err := ParseLocation(parts.Loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", idx+1, err)
		}

		definedVar, n, err := builder.Build(parts, loc, idx)
		if err != nil {
			return nil, err
		}

		filter.ApplyManualSinkOverride(n)

		if hooks.OnLine != nil {
			hooks.OnLine(idx, n.Taint, line)
		}

		if definedVar != "" {
			if existing, dup := vars[definedVar]; dup {
				return nil, &ErrDuplicateDefinition{Var: definedVar, FirstIdx: existing.Idx, SecondIdx: idx}
			}

			switch filter.Commit(n, definedVar, loc, vars, seenAddrs) {
			case CommitFolded:
				g.Folded++
			case CommitDropped:
				g.Dropped++
				idx++
				if hooks.Progress != nil {
					hooks.Progress(idx)
				}
				continue
			}
		}

		g.Nodes = append(g.Nodes, n)
		store.Insert(idx, &meta.Entry{
			Line: line,
			Func: loc.Func,
			Loc: meta.SrcLoc{
				Addr:    loc.Addr,
				File:    loc.File,
				Lineno:  loc.Lineno,
				HasLine: loc.HasLine,
			},
		})

		if n.IsSink() {
			g.Sinks = append(g.Sinks, n)
		}

		idx++
		if hooks.Progress != nil {
			hooks.Progress(idx)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log: %w", err)
	}

	return g, nil
}

package graph

import (
	"os"
	"regexp"
	"strings"
)

// tmpInstrPattern recognizes instrumentation temporaries: synthetic
// variables inserted by the tracer.
var tmpInstrPattern = regexp.MustCompile(`^t\d+_\d+$`)

// VariableTable maps a live variable name to the owning node that
// currently defines it. At most one node may define a given variable
// during ingestion.
type VariableTable map[string]*Node

// FilterOptions configures the fold/drop rules and the manual sink
// override applied by Filter. It is built from config.Options by the
// caller, keeping this package free of a dependency on the config
// package (graph is a lower-level package than config/cmd).
type FilterOptions struct {
	// Allowlist is the set of instrumentation wrapper function names
	// (e.g. "__wrap_write", "__wrap_malloc") whose nodes are eligible
	// for folding/dropping regardless of the other options below.
	Allowlist []string

	NoTmpInstr bool
	NoLibs     bool
	UniqueLocs bool

	// SinkLines holds 1-based line numbers that replace automatic sink
	// detection entirely when non-empty.
	SinkLines []int
}

// Filter decides, for each built node, whether it is committed to the
// variable table, folded into a predecessor, or dropped, and whether it
// is recorded as a sink. Per spec.md's design notes, Filter holds only
// its (immutable) options: the variable table, locations-seen set, and
// sink list are the mutable state of ingestion and are passed in
// explicitly rather than stored on Filter.
type Filter struct {
	opts      FilterOptions
	allowlist map[string]bool
	sinkLines map[int]bool
}

// NewFilter builds a Filter from opts.
func NewFilter(opts FilterOptions) *Filter {
	allow := make(map[string]bool, len(opts.Allowlist))
	for _, f := range opts.Allowlist {
		allow[f] = true
	}
	sinkLines := make(map[int]bool, len(opts.SinkLines))
	for _, l := range opts.SinkLines {
		sinkLines[l] = true
	}
	return &Filter{opts: opts, allowlist: allow, sinkLines: sinkLines}
}

// ApplyManualSinkOverride implements spec.md §4.D bis step 1. It runs for
// every accepted line, whether or not it defines a variable.
func (f *Filter) ApplyManualSinkOverride(n *Node) {
	if len(f.sinkLines) == 0 {
		return
	}
	if f.sinkLines[n.Idx+1] {
		for _, e := range n.Preds {
			if e.Dest != nil {
				n.SinkReasons = append(n.SinkReasons, e.Dest)
			}
		}
	} else {
		n.SinkReasons = nil
	}
}

// CommitResult reports what the filter decided to do with a node that
// defines a variable.
type CommitResult int

const (
	// CommitKept means the node was recorded as the variable's new
	// definition.
	CommitKept CommitResult = iota
	// CommitFolded means the variable now resolves to a predecessor
	// node instead of the new node.
	CommitFolded
	// CommitDropped means the node carries no new information and the
	// variable's prior definition (if any) is left untouched.
	CommitDropped
)

// Commit implements spec.md §4.D bis steps 2 and 3 for a node that
// defines variable v. It mutates vars and seenAddrs. The caller is
// responsible for the duplicate-definition check before calling Commit.
func (f *Filter) Commit(n *Node, v string, loc Location, vars VariableTable, seenAddrs map[uint64]bool) CommitResult {
	if matched := f.matchesFoldRule(n, v, loc, seenAddrs); matched {
		drop, fold := genericFoldOrDrop(n)
		switch {
		case drop:
			return CommitDropped
		case fold != nil:
			vars[v] = fold
			return CommitFolded
		default:
			vars[v] = n
			return CommitKept
		}
	}

	vars[v] = n
	return CommitKept
}

// matchesFoldRule evaluates the four fold/drop gating conditions in
// order, first match wins. As a side effect (when unique_locs is set) it
// records newly-seen addresses in seenAddrs.
func (f *Filter) matchesFoldRule(n *Node, v string, loc Location, seenAddrs map[uint64]bool) bool {
	if f.allowlist[loc.Func] {
		return true
	}

	if f.opts.NoTmpInstr && tmpInstrPattern.MatchString(v) {
		return true
	}

	if f.opts.NoLibs && isLibraryFile(loc.File) {
		return true
	}

	if f.opts.UniqueLocs {
		if seenAddrs[loc.Addr] {
			return true
		}
		seenAddrs[loc.Addr] = true
	}

	return false
}

// genericFoldOrDrop implements the shared drop/fold rule body used by
// every fold/drop gate: drop a node with zero predecessors, fold a node
// with exactly one same-colored resolved predecessor into that
// predecessor, or otherwise leave it as a normal commit.
func genericFoldOrDrop(n *Node) (drop bool, fold *Node) {
	if len(n.Preds) == 0 {
		return true, nil
	}
	if len(n.Preds) == 1 && n.Preds[0].Dest != nil && n.Preds[0].Dest.Taint == n.Taint {
		return false, n.Preds[0].Dest
	}
	return false, nil
}

// isLibraryFile reports whether file should be considered 3rd-party
// library code: either it does not exist relative to the current
// working directory tree, or it ends in ".so". Linux-centric and
// brittle by spec's own description (spec.md §9 open question ii) —
// left as-is, not generalized.
func isLibraryFile(file string) bool {
	if strings.HasSuffix(file, ".so") {
		return true
	}
	_, err := os.Stat(file)
	return err != nil
}

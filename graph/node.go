package graph

import "github.com/tgproc/tgproc/taint"

// Edge is a predecessor reference reached through variable name Via. Dest
// is nil when the predecessor variable was never defined earlier (e.g.
// the literal "undef" or a variable folded away by the filter).
type Edge struct {
	Via  string
	Dest *Node
}

// Node is one taint-graph node, built from a single accepted log line.
//
// Only the fields needed for graph traversal live here; presentation
// data (the raw line, resolved file/lineno/source text) lives in the
// meta package's side table so a caller can drop it after ingestion
// under memory pressure without touching the graph itself.
type Node struct {
	// Idx is the 0-based line ordinal in the input log. Identity,
	// equality, and hashing use only this field.
	Idx int

	Preds       []Edge
	SinkReasons []*Node
	Taint       taint.Color
}

// IsSource reports whether n has no recorded provenance: no sink reasons
// and no edge with a present Dest.
func (n *Node) IsSource() bool {
	if len(n.SinkReasons) != 0 {
		return false
	}
	for _, e := range n.Preds {
		if e.Dest != nil {
			return false
		}
	}
	return true
}

// IsSink reports whether n is a sink: its sink reasons are non-empty.
func (n *Node) IsSink() bool {
	return len(n.SinkReasons) != 0
}

func (n *Node) IsGreen() bool { return n.Taint.IsGreen() }
func (n *Node) IsBlue() bool  { return n.Taint.IsBlue() }
func (n *Node) IsRed() bool   { return n.Taint.IsRed() }

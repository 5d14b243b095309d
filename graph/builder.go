package graph

import (
	"fmt"
	"strings"

	"github.com/tgproc/tgproc/taint"
)

// ErrDuplicateDefinition is returned when a line defines a variable that
// already has an owning node in the variable table.
type ErrDuplicateDefinition struct {
	Var        string
	FirstIdx   int
	SecondIdx  int
}

func (e *ErrDuplicateDefinition) Error() string {
	return fmt.Sprintf("duplicated definition of %q in lines %d and %d", e.Var, e.FirstIdx+1, e.SecondIdx+1)
}

// ErrUnsupportedSubUndef is returned when a Sub command's sole non-green
// operand has no resolved predecessor node (its variable was never
// defined, e.g. the literal "undef"). original_source leaves this case
// unimplemented; tgproc surfaces it as an explicit fatal error instead of
// silently guessing the resulting taint. See SPEC_FULL.md §9.
type ErrUnsupportedSubUndef struct {
	Idx int
	Via string
}

func (e *ErrUnsupportedSubUndef) Error() string {
	return fmt.Sprintf("line %d: Sub command's sole non-green operand %q has no defining predecessor; cannot determine taint", e.Idx+1, e.Via)
}

// Builder constructs graph nodes from parsed log lines, resolving
// predecessors against a live variable table.
type Builder struct {
	vars VariableTable
}

// NewBuilder creates a node builder that resolves predecessors against
// vars.
func NewBuilder(vars VariableTable) *Builder {
	return &Builder{vars: vars}
}

// Build constructs the node for line idx given its parsed parts. It
// returns the variable the node defines (if any) and the new node, or an
// error if the line is malformed in a way that must abort ingestion.
func (b *Builder) Build(parts LineParts, loc Location, idx int) (string, *Node, error) {
	n := &Node{Idx: idx}

	definedVar, err := b.analyzeTaintFlow(n, parts.Flow)
	if err != nil {
		return "", nil, err
	}

	if err := b.calcTaint(n, parts.Cmd); err != nil {
		return "", nil, err
	}

	b.calcSink(n, parts.Loc, parts.Cmd)

	return definedVar, n, nil
}

// analyzeTaintFlow implements spec.md §4.B/§4.C step 1: populate Preds
// and SinkReasons, and return the variable this node defines (if any).
func (b *Builder) analyzeTaintFlow(n *Node, flow string) (string, error) {
	var definedVar string
	haveVar := false

	for _, clause := range parseFlow(flow) {
		switch clause.op {
		case opPlain:
			if haveVar {
				if definedVar != clause.lhs {
					return "", fmt.Errorf("line %d: conflicting defined variables %q and %q in the same flow", n.Idx+1, definedVar, clause.lhs)
				}
			} else {
				definedVar = clause.lhs
				haveVar = true
			}
			for _, via := range clause.rhs {
				n.Preds = append(n.Preds, Edge{Via: via, Dest: b.vars[via]})
			}

		case opDerefOrStore:
			for _, via := range clause.rhs {
				if dest, ok := b.vars[via]; ok && dest.IsRed() {
					n.SinkReasons = append(n.SinkReasons, dest)
				}
			}

		case opBare:
			for _, via := range clause.rhs {
				n.Preds = append(n.Preds, Edge{Via: via, Dest: b.vars[via]})
			}
		}
	}

	return definedVar, nil
}

// calcTaint implements spec.md §4.C steps 2 and 3: inherit taint from
// predecessors, then refine it from the command when still Blue.
func (b *Builder) calcTaint(n *Node, cmd string) error {
	b.inheritTaint(n)

	if !n.IsBlue() {
		return nil
	}

	fields := strings.Split(cmd, " = ")
	if len(fields) < 2 {
		return nil
	}
	if len(fields) != 2 {
		return fmt.Errorf("line %d: command %q has more than one ' = '", n.Idx+1, cmd)
	}
	op := fields[1]

	switch {
	case hasAnyPrefix(op, "Mul", "Div", "Mod", "And", "Or", "Xor", "Shl", "Sar"):
		n.Taint = taint.Red

	case strings.HasPrefix(op, "Add"):
		if countNonGreen(n.Preds) >= 2 {
			n.Taint = taint.Red
		}

	case strings.HasPrefix(op, "Cmp"):
		// Comparing two tainted values is benign; one tainted vs one
		// untainted leaks a bit of the tainted value. A predecessor
		// with no resolved destination is optimistically treated as
		// blue here (mirrors the pessimistic-elsewhere, optimistic-here
		// asymmetry of the reference implementation).
		if countBlueOrUnresolved(n.Preds) >= 2 {
			n.Taint = taint.Green
		} else {
			n.Taint = taint.Red
		}

	default:
		if m := subCmd.FindStringSubmatch(op); m != nil {
			subtrahend := m[1]
			nonGreen := nonGreenPreds(n.Preds)
			switch len(nonGreen) {
			case 0:
				// unchanged
			case 1:
				e := nonGreen[0]
				if e.Dest == nil {
					return &ErrUnsupportedSubUndef{Idx: n.Idx, Via: e.Via}
				}
				if e.Via == subtrahend {
					n.Taint = taint.Red
				}
			default:
				n.Taint = taint.Red
			}
		}
	}

	return nil
}

// calcSink implements spec.md §4.D: process-exit and branch/ternary sink
// detection, applied only to non-Green nodes.
func (b *Builder) calcSink(n *Node, loc, cmd string) {
	if n.IsGreen() {
		return
	}

	if strings.Contains(loc, " _Exit ") {
		for _, e := range n.Preds {
			if e.Dest != nil {
				n.SinkReasons = append(n.SinkReasons, e.Dest)
			}
		}
		return
	}

	m := ifCmd.FindStringSubmatch(cmd)
	if m == nil {
		m = ternaryCmd.FindStringSubmatch(cmd)
	}
	if m == nil {
		return
	}
	cond := m[1]

	for _, e := range n.Preds {
		if e.Via == cond && e.Dest != nil && e.Dest.IsRed() {
			n.SinkReasons = append(n.SinkReasons, e.Dest)
		}
	}
}

func (b *Builder) inheritTaint(n *Node) {
	if n.IsSource() {
		n.Taint = taint.Blue
	} else {
		n.Taint = taint.Green
	}

	for _, e := range n.Preds {
		if e.Dest == nil {
			continue
		}
		if e.Dest.IsRed() {
			n.Taint = taint.Red
			return
		}
		if e.Dest.IsBlue() {
			n.Taint = taint.Blue
		}
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// countNonGreen treats a predecessor with no resolved destination as
// non-green (pessimistic: we cannot prove it benign).
func countNonGreen(preds []Edge) int {
	count := 0
	for _, e := range preds {
		if e.Dest == nil || !e.Dest.IsGreen() {
			count++
		}
	}
	return count
}

func nonGreenPreds(preds []Edge) []Edge {
	var out []Edge
	for _, e := range preds {
		if e.Dest == nil || !e.Dest.IsGreen() {
			out = append(out, e)
		}
	}
	return out
}

func countBlueOrUnresolved(preds []Edge) int {
	count := 0
	for _, e := range preds {
		if e.Dest == nil || e.Dest.IsBlue() {
			count++
		}
	}
	return count
}

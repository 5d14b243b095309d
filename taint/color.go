// Package taint implements the three-valued taint color lattice used
// throughout the graph, trace, and output packages.
package taint

import "github.com/fatih/color"

// Color is the taint classification of a graph node.
type Color int

const (
	// Green is untainted/benign.
	Green Color = iota
	// Blue carries taint but the current use is harmless.
	Blue
	// Red carries taint and the current use is dangerous.
	Red
)

// String returns the full name of the color.
func (c Color) String() string {
	switch c {
	case Red:
		return "Red"
	case Blue:
		return "Blue"
	default:
		return "Green"
	}
}

// Abbrv returns the single-character abbreviation used in trace output.
func (c Color) Abbrv() string {
	switch c {
	case Red:
		return "R"
	case Blue:
		return "B"
	default:
		return "G"
	}
}

// Attr returns the fatih/color attribute used to present this color in a
// terminal.
func (c Color) Attr() color.Attribute {
	switch c {
	case Red:
		return color.FgRed
	case Blue:
		return color.FgBlue
	default:
		return color.FgGreen
	}
}

// Join returns the least upper bound of two colors under the monotone
// order Green <= Blue <= Red.
func Join(a, b Color) Color {
	if a > b {
		return a
	}
	return b
}

// IsGreen, IsBlue, IsRed are convenience predicates mirroring the
// is_green/is_blue/is_red helpers the graph package's node builder and
// the trace package's extractor both need.
func (c Color) IsGreen() bool { return c == Green }
func (c Color) IsBlue() bool  { return c == Blue }
func (c Color) IsRed() bool   { return c == Red }

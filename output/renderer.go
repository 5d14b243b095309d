// Package output renders extracted trace chains to a writer, and
// carries the CLI's ambient presentation concerns: the startup banner,
// structured logging, TTY detection, and process exit codes.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/tgproc/tgproc/graph"
	"github.com/tgproc/tgproc/meta"
	"github.com/tgproc/tgproc/taint"
)

// Mode selects how a Renderer prints trace chains. The mark-taint output
// is not a Mode: it is produced during ingestion by RenderMarkTaint.
type Mode int

const (
	// ModeDefault prints each source's location line, as spec.md §6
	// describes: taint-abbreviated, color-coded, right-aligned fields.
	ModeDefault Mode = iota
	// ModeSrcOnly prints only the source node of each chain, suppressing
	// intermediate trace nodes.
	ModeSrcOnly
	// ModeTaintgrindTrace reprints the original log line verbatim for
	// every node in the trace, instead of the resolved source line.
	ModeTaintgrindTrace
	// ModeMarkTrace names the mark-trace style. A Renderer given this
	// mode prints chains as ModeDefault does; the log reprint with trace
	// lines highlighted is done by RenderMarkTrace.
	ModeMarkTrace
)

const headerLine = ">>>> The origin of the taint should be just here <<<<"

// separatorWidth is the fixed width of the yellow/green rule lines spec.md
// §6 places between sources and between sinks.
const separatorWidth = 80

// Renderer prints extracted trace chains to w in one of Mode's styles.
type Renderer struct {
	w        io.Writer
	mode     Mode
	meta     *meta.Store
	colorize bool
}

// NewRenderer builds a Renderer. When colorize is false, SGR escapes are
// suppressed entirely (the --no-color / non-TTY case).
func NewRenderer(w io.Writer, mode Mode, store *meta.Store, colorize bool) *Renderer {
	return &Renderer{w: w, mode: mode, meta: store, colorize: colorize}
}

// RenderSink prints every chain ending at sink, preceded by the "origin
// of the taint" header and separated by spec.md §6's yellow source rule.
// Chains run source-first; only the source end is ever labeled "source"
// for mode purposes, but ModeDefault and ModeTaintgrindTrace print every
// node the chain passes through.
func (r *Renderer) RenderSink(sink *graph.Node, chains [][]*graph.Node) {
	for i, chain := range chains {
		if i > 0 {
			r.printRule(color.FgYellow, '-')
		}
		fmt.Fprintln(r.w, headerLine)
		r.renderChain(chain)
	}
}

// RenderSinkSeparator prints the green rule spec.md §6 places between
// distinct sinks. Callers invoke this between successive RenderSink
// calls, never before the first or after the last.
func (r *Renderer) RenderSinkSeparator() {
	r.printRule(color.FgGreen, '=')
}

func (r *Renderer) printRule(attr color.Attribute, ch rune) {
	rule := strings.Repeat(string(ch), separatorWidth)
	if r.colorize {
		color.New(attr).Fprintln(r.w, rule)
		return
	}
	fmt.Fprintln(r.w, rule)
}

func (r *Renderer) renderChain(chain []*graph.Node) {
	switch r.mode {
	case ModeSrcOnly:
		if len(chain) > 0 {
			r.renderNode(chain[0])
		}
	case ModeTaintgrindTrace:
		for _, n := range chain {
			r.renderRawLine(n)
		}
	default:
		var lastFile string
		var lastLine int
		havePrev := false
		for i, n := range chain {
			entry, ok := r.meta.Get(n.Idx)
			loc := entry.Loc
			same := ok && havePrev && loc.File == lastFile && loc.Lineno == lastLine
			// Consecutive nodes resolving to the same source location are
			// collapsed, except the chain's final node always prints so the
			// sink's own line is never swallowed by a dedup run.
			if same && i != len(chain)-1 {
				continue
			}
			r.renderNode(n)
			if ok {
				lastFile, lastLine, havePrev = loc.File, loc.Lineno, true
			}
		}
	}
}

// renderNode prints one source-trace line: "PATH:LINENO: FUNC:  SRC-LINE",
// path right-aligned to 29 columns, lineno zero-padded to 4, func
// right-aligned to 20, taint-abbreviated and colored, bold when n is a
// sink. The source line is read on first use through meta.CompleteInfo
// with no address resolver, so a location parsed without a line number
// prints "[file not found]".
func (r *Renderer) renderNode(n *graph.Node) {
	entry, ok := r.meta.Get(n.Idx)

	var path, funcName, content string
	var lineno int
	if ok {
		if !entry.Loc.HasSrcLine {
			meta.CompleteInfo(&entry.Loc, nil)
		}
		path = entry.Loc.File
		funcName = entry.Func
		lineno = entry.Loc.Lineno
		if entry.Loc.HasSrcLine {
			content = entry.Loc.SrcLine
		} else {
			content = "[file not found]"
		}
	} else {
		content = "[file not found]"
	}

	line := fmt.Sprintf("%29s:%04d: %20s:  %s", path, lineno, funcName, content)
	prefix := n.Taint.Abbrv() + " "

	if !r.colorize {
		fmt.Fprintln(r.w, prefix+line)
		return
	}

	c := color.New(n.Taint.Attr())
	if n.IsSink() {
		c.Add(color.Bold)
	}
	c.Fprintln(r.w, prefix+line)
}

// renderRawLine reprints the original log line for n, used by
// ModeTaintgrindTrace.
func (r *Renderer) renderRawLine(n *graph.Node) {
	entry, ok := r.meta.Get(n.Idx)
	if !ok {
		return
	}
	if !r.colorize {
		fmt.Fprintln(r.w, entry.Line)
		return
	}
	color.New(n.Taint.Attr()).Fprintln(r.w, entry.Line)
}

// RenderMarkTrace reprints, in log order, the raw line of every node in
// g.Nodes, highlighting (bold, taint-colored) the ones whose node index
// appears in any of chains. Non-trace lines print unmodified. Lines
// skipped as malformed or dropped by the filter are not stored in the
// graph and are not reprinted.
func RenderMarkTrace(w io.Writer, g *graph.Graph, chains [][][]*graph.Node, colorize bool) {
	marked := make(map[int]*graph.Node)
	for _, perSink := range chains {
		for _, chain := range perSink {
			for _, n := range chain {
				marked[n.Idx] = n
			}
		}
	}

	for _, node := range g.Nodes {
		entry, ok := g.Meta.Get(node.Idx)
		if !ok {
			continue
		}
		n, isMarked := marked[node.Idx]
		if !isMarked || !colorize {
			fmt.Fprintln(w, entry.Line)
			continue
		}
		color.New(n.Taint.Attr(), color.Bold).Fprintln(w, entry.Line)
	}
}

// RenderMarkTaint implements the --mark-taint ingestion-time side effect:
// for every accepted log line it prints the 1-based index, the taint
// color, and the raw line, independent of that line's commit/drop/fold
// outcome. Wire this as a graph.Hooks.OnLine callback.
func RenderMarkTaint(w io.Writer, colorize bool) func(idx int, t taint.Color, line string) {
	return func(idx int, t taint.Color, line string) {
		text := fmt.Sprintf("%5d [%s] %s", idx+1, t.Abbrv(), line)
		if !colorize {
			fmt.Fprintln(w, text)
			return
		}
		color.New(t.Attr()).Fprintln(w, text)
	}
}

package graph

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Compiled once at package init and reused for the lifetime of the
// process, mirroring original_source's lazy_static! regex blocks.
var (
	// e.g. 0x40080D: main (two-taints.c:10)
	locAddrFile = regexp.MustCompile(`^(0x[0-9a-fA-F]+): (.+?) \((.+):(\d+)\)$`)

	// e.g. 0x40080D: main (in /tmp/a.out)
	locObject = regexp.MustCompile(`^(0x[0-9a-fA-F]+): (.+?) \(in (.+)\)$`)

	// e.g. t54_1741 <- t42_1773, t29_4179   or   t78_744 <*- t72_268
	flowClause = regexp.MustCompile(`^(.+?) <(-?\*?)- (.+?)$`)

	// Sub32 t1 t2  ->  subtrahend = t2
	subCmd = regexp.MustCompile(`^Sub\d{1,2} .+ (.+)$`)

	ifCmd      = regexp.MustCompile(`^IF ([\w]+) `)
	ternaryCmd = regexp.MustCompile(`[\w]+ = ([\w]+) \? [\w]+ : [\w]+`)
)

// LineParts holds the three fields of an accepted log line that matter
// to the rest of the pipeline. The other two pipe-separated fields are
// opaque to this spec and are discarded.
type LineParts struct {
	Loc  string
	Cmd  string
	Flow string
}

// ParseLine splits a taintgrind log line into its structural parts. It
// returns false if the line does not produce a fifth pipe-separated
// field — such lines are skipped silently by the caller, per spec.
func ParseLine(line string) (LineParts, bool) {
	fields := strings.Split(line, " | ")
	if len(fields) < 5 {
		return LineParts{}, false
	}
	return LineParts{
		Loc:  fields[0],
		Cmd:  fields[1],
		Flow: fields[4],
	}, true
}

// Location is the parsed LOC field: an instrumentation address, a
// function name, and either a (file, lineno) pair or a fallback object
// path with no line number.
type Location struct {
	Addr    uint64
	Func    string
	File    string
	Lineno  int  // 0 when unknown
	HasLine bool
}

// ErrUnparseableLoc is returned when the LOC field matches neither of
// the two recognized shapes. Ingestion treats this as fatal, per spec.
type ErrUnparseableLoc struct {
	Loc string
}

func (e *ErrUnparseableLoc) Error() string {
	return fmt.Sprintf("could not parse loc part: %s", e.Loc)
}

// ParseLocation parses the LOC field of a log line.
func ParseLocation(loc string) (Location, error) {
	if m := locAddrFile.FindStringSubmatch(loc); m != nil {
		addr, err := strconv.ParseUint(m[1][2:], 16, 64)
		if err != nil {
			return Location{}, fmt.Errorf("parsing address %q: %w", m[1], err)
		}
		lineno, err := strconv.Atoi(m[4])
		if err != nil {
			return Location{}, fmt.Errorf("parsing line number %q: %w", m[4], err)
		}
		return Location{
			Addr:    addr,
			Func:    m[2],
			File:    m[3],
			Lineno:  lineno,
			HasLine: true,
		}, nil
	}

	if m := locObject.FindStringSubmatch(loc); m != nil {
		addr, err := strconv.ParseUint(m[1][2:], 16, 64)
		if err != nil {
			return Location{}, fmt.Errorf("parsing address %q: %w", m[1], err)
		}
		return Location{
			Addr: addr,
			Func: m[2],
			File: m[3],
		}, nil
	}

	return Location{}, &ErrUnparseableLoc{Loc: loc}
}

// flowOp distinguishes the three clause shapes recognized in the FLOW
// field's "; "-separated clause list.
type flowOp int

const (
	opPlain flowOp = iota
	opDerefOrStore
	opBare
)

type flowClauseParts struct {
	op  flowOp
	lhs string // defined variable, only set for opPlain
	rhs []string
}

// parseFlow splits the FLOW field into its clauses.
func parseFlow(flow string) []flowClauseParts {
	clauses := strings.Split(flow, "; ")
	parts := make([]flowClauseParts, 0, len(clauses))

	for _, clause := range clauses {
		if m := flowClause.FindStringSubmatch(clause); m != nil {
			rhs := strings.Split(m[3], ", ")
			if m[2] == "" {
				parts = append(parts, flowClauseParts{op: opPlain, lhs: m[1], rhs: rhs})
			} else {
				parts = append(parts, flowClauseParts{op: opDerefOrStore, rhs: rhs})
			}
			continue
		}
		// bare variable names, e.g. "t54_1741" with no arrow operator
		parts = append(parts, flowClauseParts{op: opBare, rhs: strings.Split(clause, ", ")})
	}

	return parts
}

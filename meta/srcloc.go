// Package meta implements the side table from node index to parsed
// location metadata (component E of the taint-graph pipeline): address,
// function, file, line number, and a lazily cached source-line text.
package meta

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SrcLoc is the resolved location of one graph node: the instrumentation
// address it came from, the file and line it maps to (once resolved),
// and a cached copy of the offending source line.
type SrcLoc struct {
	Addr    uint64
	File    string
	Lineno  int
	HasLine bool

	SrcLine    string
	HasSrcLine bool
}

// DebugInfoResolver resolves a raw instruction address in a binary to a
// (file, lineno) pair. The concrete Addr2LineResolver shells out to an
// addr2line-style DWARF tool; tests substitute a stub.
type DebugInfoResolver interface {
	Resolve(binary string, addr uint64) (file string, lineno int, ok bool)
}

// CompleteInfo implements spec.md §4.E's complete_info operation: it
// resolves Lineno from (File, Addr) via resolver when no line number was
// parsed from the log, then locates an actual source file by walking the
// working directory when the parsed file path does not exist, and reads
// and caches the offending source line. Soft failures (file not found,
// resolution failure) are absorbed here and never propagate — per
// spec.md §7 they are rendered as "[file not found]" / an absent
// lineno by the caller.
func CompleteInfo(loc *SrcLoc, resolver DebugInfoResolver) {
	if !loc.HasLine && resolver != nil {
		if file, lineno, ok := resolver.Resolve(loc.File, loc.Addr); ok {
			loc.File = file
			loc.Lineno = lineno
			loc.HasLine = true
		}
	}

	if !loc.HasLine {
		return
	}

	path := loc.File
	if _, err := os.Stat(path); err != nil {
		found, line, ok := locateAndRead(loc.File, loc.Lineno)
		if ok {
			loc.File = found
			loc.SrcLine = line
			loc.HasSrcLine = true
		}
		return
	}

	if line, ok := readLine(path, loc.Lineno); ok {
		loc.SrcLine = line
		loc.HasSrcLine = true
	}
}

// locateAndRead walks the current working directory looking for a file
// whose path ends with want (matching the original file's basename and
// suffix), and reads lineno from the first match it can open.
func locateAndRead(want string, lineno int) (file string, line string, ok bool) {
	base := filepath.Base(want)

	var foundFile, foundLine string
	found := false

	_ = filepath.WalkDir(".", func(path string, d fs.DirEntry, err error) error {
		if found || err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() != base {
			return nil
		}
		if !strings.HasSuffix(path, want) {
			return nil
		}
		if l, ok := readLine(path, lineno); ok {
			foundFile, foundLine, found = path, l, true
		}
		return nil
	})

	return foundFile, foundLine, found
}

func readLine(path string, lineno int) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if n == lineno {
			return strings.TrimSpace(scanner.Text()), true
		}
	}
	return "", false
}

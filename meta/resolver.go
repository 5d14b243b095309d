package meta

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// addrKey is the memoization key for a resolved (binary, address) pair,
// per spec.md §5: "the external addr2line-style resolver is invoked one
// (binary, address) pair at a time and its results are memoized keyed by
// (binary, address) for the lifetime of the rendering phase."
type addrKey struct {
	binary string
	addr   uint64
}

type addrResult struct {
	file   string
	lineno int
	ok     bool
}

// Addr2LineResolver resolves addresses by shelling out to an
// addr2line-style binary, memoizing results in an LRU cache.
type Addr2LineResolver struct {
	bin   string
	cache *lru.Cache[addrKey, addrResult]
}

// NewAddr2LineResolver creates a resolver that invokes the named tool
// (typically "addr2line") and memoizes up to size results.
func NewAddr2LineResolver(bin string, size int) (*Addr2LineResolver, error) {
	cache, err := lru.New[addrKey, addrResult](size)
	if err != nil {
		return nil, fmt.Errorf("creating debug-info resolver cache: %w", err)
	}
	return &Addr2LineResolver{bin: bin, cache: cache}, nil
}

// Resolve implements DebugInfoResolver.
func (r *Addr2LineResolver) Resolve(binary string, addr uint64) (string, int, bool) {
	key := addrKey{binary: binary, addr: addr}
	if cached, ok := r.cache.Get(key); ok {
		return cached.file, cached.lineno, cached.ok
	}

	result := r.run(binary, addr)
	r.cache.Add(key, result)
	return result.file, result.lineno, result.ok
}

func (r *Addr2LineResolver) run(binary string, addr uint64) addrResult {
	out, err := exec.Command(r.bin, "-e", binary, fmt.Sprintf("0x%x", addr)).Output()
	if err != nil {
		return addrResult{}
	}

	parts := strings.SplitN(strings.TrimSpace(string(out)), ":", 2)
	if len(parts) != 2 {
		return addrResult{}
	}

	lineno, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return addrResult{}
	}

	return addrResult{file: parts[0], lineno: lineno, ok: true}
}

package meta

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	file   string
	lineno int
	ok     bool
}

func (s stubResolver) Resolve(binary string, addr uint64) (string, int, bool) {
	return s.file, s.lineno, s.ok
}

func TestCompleteInfoResolvesLinenoViaResolver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "real.c")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\nthree\n"), 0644))

	loc := &SrcLoc{Addr: 0x10, File: path}
	CompleteInfo(loc, stubResolver{file: path, lineno: 2, ok: true})

	assert.True(t, loc.HasLine)
	assert.Equal(t, 2, loc.Lineno)
	assert.True(t, loc.HasSrcLine)
	assert.Equal(t, "two", loc.SrcLine)
}

func TestCompleteInfoSkipsResolverWhenLinenoAlreadyKnown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "real.c")
	require.NoError(t, os.WriteFile(path, []byte("one\ntwo\n"), 0644))

	loc := &SrcLoc{File: path, Lineno: 1, HasLine: true}
	CompleteInfo(loc, stubResolver{file: "wrong.c", lineno: 99, ok: true})

	assert.Equal(t, 1, loc.Lineno)
	assert.True(t, loc.HasSrcLine)
	assert.Equal(t, "one", loc.SrcLine)
}

func TestCompleteInfoLeavesLinenoAbsentWhenResolverFails(t *testing.T) {
	loc := &SrcLoc{File: "missing.c"}
	CompleteInfo(loc, stubResolver{ok: false})

	assert.False(t, loc.HasLine)
	assert.False(t, loc.HasSrcLine)
}

func TestCompleteInfoNilResolverLeavesUnresolvedLinenoAlone(t *testing.T) {
	loc := &SrcLoc{File: "missing.c"}
	CompleteInfo(loc, nil)

	assert.False(t, loc.HasLine)
	assert.False(t, loc.HasSrcLine)
}

func TestCompleteInfoLocatesFileUnderCWDWhenParsedPathMissing(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "obj", "build")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "real.c"), []byte("alpha\nbeta\n"), 0644))

	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldwd)

	// "build/real.c" does not exist directly under cwd, but a file
	// ending in that relative path does, one level deeper.
	loc := &SrcLoc{File: filepath.Join("build", "real.c"), Lineno: 2, HasLine: true}
	CompleteInfo(loc, nil)

	assert.True(t, loc.HasSrcLine)
	assert.Equal(t, "beta", loc.SrcLine)
	assert.Equal(t, filepath.Join("obj", "build", "real.c"), loc.File)
}

func TestCompleteInfoSoftFailsWhenFileNeverFound(t *testing.T) {
	dir := t.TempDir()
	oldwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(oldwd)

	loc := &SrcLoc{File: "nowhere.c", Lineno: 1, HasLine: true}
	CompleteInfo(loc, nil)

	assert.False(t, loc.HasSrcLine)
}

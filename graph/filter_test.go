package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgproc/tgproc/taint"
)

func TestApplyManualSinkOverrideNoOpWhenUnset(t *testing.T) {
	f := NewFilter(FilterOptions{})
	n := &Node{Idx: 0, SinkReasons: []*Node{{Idx: 9}}}
	f.ApplyManualSinkOverride(n)
	assert.Len(t, n.SinkReasons, 1, "no sink lines configured: override must not run")
}

func TestApplyManualSinkOverrideMarksConfiguredLine(t *testing.T) {
	f := NewFilter(FilterOptions{SinkLines: []int{2}})
	pred := &Node{Idx: 0}
	n := &Node{Idx: 1, Preds: []Edge{{Via: "t1_1", Dest: pred}}}
	f.ApplyManualSinkOverride(n)
	require.Len(t, n.SinkReasons, 1)
	assert.Same(t, pred, n.SinkReasons[0])
}

func TestApplyManualSinkOverrideClearsOthers(t *testing.T) {
	f := NewFilter(FilterOptions{SinkLines: []int{5}})
	n := &Node{Idx: 1, SinkReasons: []*Node{{Idx: 9}}}
	f.ApplyManualSinkOverride(n)
	assert.Empty(t, n.SinkReasons)
}

func TestCommitAllowlistedFunctionDrops(t *testing.T) {
	f := NewFilter(FilterOptions{Allowlist: []string{"__wrap_malloc"}})
	vars := make(VariableTable)
	n := &Node{Idx: 0}
	loc := Location{Func: "__wrap_malloc", File: "a.c"}
	result := f.Commit(n, "t1_1", loc, vars, map[uint64]bool{})
	assert.Equal(t, CommitDropped, result)
	assert.NotContains(t, vars, "t1_1")
}

func TestCommitFoldsSingleSameColorPred(t *testing.T) {
	f := NewFilter(FilterOptions{NoTmpInstr: true})
	vars := make(VariableTable)
	pred := &Node{Idx: 0, Taint: taint.Blue}
	n := &Node{Idx: 1, Taint: taint.Blue, Preds: []Edge{{Via: "t1_1", Dest: pred}}}
	loc := Location{Func: "f", File: "a.c"}
	result := f.Commit(n, "t2_2", loc, vars, map[uint64]bool{})
	assert.Equal(t, CommitFolded, result)
	assert.Same(t, pred, vars["t2_2"])
}

func TestCommitKeepsWhenNoRuleMatches(t *testing.T) {
	f := NewFilter(FilterOptions{})
	vars := make(VariableTable)
	n := &Node{Idx: 0}
	loc := Location{Func: "main", File: "a.c"}
	result := f.Commit(n, "t1_1", loc, vars, map[uint64]bool{})
	assert.Equal(t, CommitKept, result)
	assert.Same(t, n, vars["t1_1"])
}

func TestCommitUniqueLocsDropsRepeatAddress(t *testing.T) {
	f := NewFilter(FilterOptions{UniqueLocs: true})
	vars := make(VariableTable)
	seen := map[uint64]bool{}
	loc := Location{Func: "main", File: "a.c", Addr: 0x10}

	n1 := &Node{Idx: 0}
	assert.Equal(t, CommitKept, f.Commit(n1, "t1_1", loc, vars, seen))

	n2 := &Node{Idx: 1}
	assert.Equal(t, CommitDropped, f.Commit(n2, "t2_1", loc, vars, seen))
}

func TestIsLibraryFileMissingPath(t *testing.T) {
	assert.True(t, isLibraryFile("/no/such/file-xyz.c"))
	assert.True(t, isLibraryFile("libfoo.so"))
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	line := "0x40080D: main (two-taints.c:10) | Add32 t1 t2 | junk | junk | t3_100 <- t1_1, t2_2"
	parts, ok := ParseLine(line)
	require.True(t, ok)
	assert.Equal(t, "0x40080D: main (two-taints.c:10)", parts.Loc)
	assert.Equal(t, "Add32 t1 t2", parts.Cmd)
	assert.Equal(t, "t3_100 <- t1_1, t2_2", parts.Flow)
}

func TestParseLineTooFewFields(t *testing.T) {
	_, ok := ParseLine("0x40080D: main (a.c:1) | Add32 | junk")
	assert.False(t, ok)
}

func TestParseLocationWithFile(t *testing.T) {
	loc, err := ParseLocation("0x40080D: main (two-taints.c:10)")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x40080D), loc.Addr)
	assert.Equal(t, "main", loc.Func)
	assert.Equal(t, "two-taints.c", loc.File)
	assert.Equal(t, 10, loc.Lineno)
	assert.True(t, loc.HasLine)
}

func TestParseLocationInObject(t *testing.T) {
	loc, err := ParseLocation("0x40080D: memcpy (in /lib/x86_64-linux-gnu/libc.so.6)")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x40080D), loc.Addr)
	assert.Equal(t, "memcpy", loc.Func)
	assert.Equal(t, "/lib/x86_64-linux-gnu/libc.so.6", loc.File)
	assert.False(t, loc.HasLine)
}

func TestParseLocationUnparseable(t *testing.T) {
	_, err := ParseLocation("garbage")
	require.Error(t, err)
	var target *ErrUnparseableLoc
	assert.ErrorAs(t, err, &target)
}

func TestParseFlowPlain(t *testing.T) {
	clauses := parseFlow("t3_100 <- t1_1, t2_2")
	require.Len(t, clauses, 1)
	assert.Equal(t, opPlain, clauses[0].op)
	assert.Equal(t, "t3_100", clauses[0].lhs)
	assert.Equal(t, []string{"t1_1", "t2_2"}, clauses[0].rhs)
}

func TestParseFlowDerefAndStore(t *testing.T) {
	deref := parseFlow("t78_744 <*- t72_268")
	require.Len(t, deref, 1)
	assert.Equal(t, opDerefOrStore, deref[0].op)
	assert.Equal(t, []string{"t72_268"}, deref[0].rhs)

	store := parseFlow("t78_744 <-*- t72_268")
	require.Len(t, store, 1)
	assert.Equal(t, opDerefOrStore, store[0].op)
}

func TestParseFlowBare(t *testing.T) {
	clauses := parseFlow("t54_1741")
	require.Len(t, clauses, 1)
	assert.Equal(t, opBare, clauses[0].op)
	assert.Equal(t, []string{"t54_1741"}, clauses[0].rhs)
}

func TestParseFlowMultipleClauses(t *testing.T) {
	clauses := parseFlow("t3_100 <- t1_1; t78_744 <*- t72_268")
	require.Len(t, clauses, 2)
	assert.Equal(t, opPlain, clauses[0].op)
	assert.Equal(t, opDerefOrStore, clauses[1].op)
}

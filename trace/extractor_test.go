package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgproc/tgproc/graph"
	"github.com/tgproc/tgproc/taint"
)

func TestExtractSingleSourceToSink(t *testing.T) {
	src := &graph.Node{Idx: 0, Taint: taint.Blue}
	mid := &graph.Node{Idx: 1, Taint: taint.Red, Preds: []graph.Edge{{Via: "t1_1", Dest: src}}}
	sink := &graph.Node{Idx: 2, Taint: taint.Red, SinkReasons: []*graph.Node{mid}}

	paths := Extract(sink, nil)
	require.Len(t, paths, 1)
	path := paths[0]
	assert.Same(t, src, path[0], "path must start at the source")
	assert.Same(t, sink, path[len(path)-1], "path must end at the sink")
	assert.Equal(t, []*graph.Node{src, mid, sink}, path)
}

func TestExtractSkipsGreenPredecessors(t *testing.T) {
	benign := &graph.Node{Idx: 0, Taint: taint.Green}
	src := &graph.Node{Idx: 1, Taint: taint.Blue}
	sink := &graph.Node{
		Idx:   2,
		Taint: taint.Red,
		SinkReasons: []*graph.Node{
			src,
			benign,
		},
	}

	paths := Extract(sink, nil)
	require.Len(t, paths, 1)
	for _, p := range paths[0] {
		assert.False(t, p.IsGreen(), "no non-terminal green node should appear in a trace")
	}
}

func TestExtractExploresRedBeforeBlue(t *testing.T) {
	blueSrc := &graph.Node{Idx: 0, Taint: taint.Blue}
	redSrc := &graph.Node{Idx: 1, Taint: taint.Red}
	sink := &graph.Node{Idx: 2, Taint: taint.Red, SinkReasons: []*graph.Node{blueSrc, redSrc}}

	logger := &recordingLogger{}
	Extract(sink, logger)
	order := logger.foundOrder

	require.Len(t, order, 2)
	assert.Equal(t, redSrc.Idx+1, order[0], "red predecessor must be visited before blue")
	assert.Equal(t, blueSrc.Idx+1, order[1])
}

func TestExtractMultipleSourcesProduceSeparatePaths(t *testing.T) {
	srcA := &graph.Node{Idx: 0, Taint: taint.Blue}
	srcB := &graph.Node{Idx: 1, Taint: taint.Blue}
	sink := &graph.Node{Idx: 2, Taint: taint.Red, SinkReasons: []*graph.Node{srcA, srcB}}

	paths := Extract(sink, nil)
	require.Len(t, paths, 2)
	assert.NotEqual(t, paths[0][0], paths[1][0])
}

func TestExtractPathsAreDuplicateFree(t *testing.T) {
	shared := &graph.Node{Idx: 0, Taint: taint.Blue}
	mid1 := &graph.Node{Idx: 1, Taint: taint.Blue, Preds: []graph.Edge{{Via: "x", Dest: shared}}}
	mid2 := &graph.Node{Idx: 2, Taint: taint.Blue, Preds: []graph.Edge{{Via: "x", Dest: shared}}}
	sink := &graph.Node{Idx: 3, Taint: taint.Red, SinkReasons: []*graph.Node{mid1, mid2}}

	paths := Extract(sink, nil)
	for _, p := range paths {
		seen := map[*graph.Node]bool{}
		for _, n := range p {
			assert.False(t, seen[n], "a node must not appear twice in the same trace")
			seen[n] = true
		}
	}
}

type recordingLogger struct {
	foundOrder []int
}

func (l *recordingLogger) Detecting(queued []int, idx int, fromIdx int, hasFrom bool) {}
func (l *recordingLogger) AddingPreds(kept, skipped []int)                            {}
func (l *recordingLogger) FoundSource(idx int)                                        { l.foundOrder = append(l.foundOrder, idx+1) }

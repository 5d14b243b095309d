// Package trace extracts source-to-sink chains from a taint graph by
// walking backward from a sink node, as spec.md §4.F describes.
package trace

import (
	"sort"

	"github.com/tgproc/tgproc/graph"
)

// DetectionLogger receives one line per queue pop when debug-trace
// verbosity is enabled, mirroring original_source's print_detection
// output. A nil logger disables the notifications entirely.
type DetectionLogger interface {
	Detecting(queued []int, idx int, fromIdx int, hasFrom bool)
	AddingPreds(kept, skipped []int)
	FoundSource(idx int)
}

// Extract performs an iterative backward breadth-first search from sink
// to every reachable source, exactly as spec.md §4.F specifies: a plain
// queue plus a parent-pointer map, never recursion, so it scales to
// graphs with millions of nodes. Predecessors that already have a
// Red-tainted match are explored ahead of merely Blue ones, so chains
// through the most dangerous path are discovered first.
//
// Returned paths run from source to sink, inclusive of both endpoints.
func Extract(sink *graph.Node, logger DetectionLogger) [][]*graph.Node {
	queue := []*graph.Node{sink}

	// detected maps a discovered node to the successor it was reached
	// from. The sink maps to itself, used as the "no successor" sentinel
	// so a plain map lookup miss still means "never enqueued".
	detected := map[*graph.Node]*graph.Node{sink: sink}

	var sources []*graph.Node

	for len(queue) > 0 {
		op := queue[0]
		queue = queue[1:]

		if logger != nil {
			successor := detected[op]
			hasFrom := successor != op
			logger.Detecting(indices(queue), op.Idx, idxOrZero(successor), hasFrom)
		}

		if op.IsSource() {
			if logger != nil {
				logger.FoundSource(op.Idx)
			}
			sources = append(sources, op)
			continue
		}

		var all []*graph.Node
		if op.IsSink() {
			all = op.SinkReasons
		} else {
			for _, e := range op.Preds {
				if e.Dest != nil {
					all = append(all, e.Dest)
				}
			}
		}

		var preds []*graph.Node
		for _, p := range all {
			if p.IsGreen() {
				continue
			}
			if _, ok := detected[p]; ok {
				continue
			}
			preds = append(preds, p)
		}

		sort.SliceStable(preds, func(i, j int) bool {
			return preds[i].IsRed() && !preds[j].IsRed()
		})

		if logger != nil {
			logger.AddingPreds(indices(preds), indices(skippedOf(all, preds)))
		}

		for _, p := range preds {
			queue = append(queue, p)
			detected[p] = op
		}
	}

	paths := make([][]*graph.Node, 0, len(sources))
	for _, src := range sources {
		var path []*graph.Node
		cur := src
		for {
			path = append(path, cur)
			next := detected[cur]
			if next == cur {
				break
			}
			cur = next
		}
		paths = append(paths, path)
	}

	return paths
}

func indices(nodes []*graph.Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.Idx + 1
	}
	return out
}

func idxOrZero(n *graph.Node) int {
	if n == nil {
		return 0
	}
	return n.Idx + 1
}

// skippedOf reports the members of all that are not present in kept, for
// debug-trace logging purposes only.
func skippedOf(all, kept []*graph.Node) []*graph.Node {
	keptSet := make(map[*graph.Node]bool, len(kept))
	for _, k := range kept {
		keptSet[k] = true
	}
	var skipped []*graph.Node
	for _, n := range all {
		if !keptSet[n] {
			skipped = append(skipped, n)
		}
	}
	return skipped
}

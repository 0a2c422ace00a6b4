package dag

import (
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/vk/pipegraph/internal/bitmatrix"
	"github.com/vk/pipegraph/internal/edge"
)

// DAG is an immutable directed acyclic graph. Nodes are addressed by value;
// internally each node also has a position, its index in Nodes(), which is
// the row and column it occupies in the adjacency matrix.
type DAG[T comparable] struct {
	// nodes holds every node in discovery order.
	nodes []T
	// index maps a node to its position in nodes.
	index map[T]int
	// edges holds the validated, deduplicated edges in insertion order.
	edges []edge.Edge[T]
	// heads holds, per position, the direct successors in edge order.
	heads [][]T
	// tails holds, per position, the direct predecessors in edge order.
	tails [][]T
	// noIncoming and noOutgoing are the sources and sinks in discovery order.
	noIncoming []T
	noOutgoing []T
	// order is the default topological order.
	order []T
	// adjacency has (i, j) set for every edge nodes[i] -> nodes[j].
	adjacency *bitmatrix.Matrix
	// reach holds, per position, every position reachable from it. It is
	// built on the first IsAncestor call.
	reachOnce sync.Once
	reach     []*bitset.BitSet
}

package dag

import (
	"slices"

	"github.com/vk/pipegraph/internal/bitmatrix"
	"github.com/vk/pipegraph/internal/edge"
	"github.com/vk/pipegraph/internal/graph"
)

// Slices returned by DAG queries are shared with the DAG and must not be
// modified by the caller.

// Len returns the number of nodes.
func (d *DAG[T]) Len() int { return len(d.nodes) }

// Nodes returns every node in discovery order.
func (d *DAG[T]) Nodes() []T { return slices.Clip(d.nodes) }

// Edges returns the distinct edges in insertion order.
func (d *DAG[T]) Edges() []edge.Edge[T] { return slices.Clip(d.edges) }

// Contains reports whether n is a node of the DAG.
func (d *DAG[T]) Contains(n T) bool {
	_, ok := d.index[n]
	return ok
}

// NoIncomingEdges returns the nodes without predecessors, in discovery order.
func (d *DAG[T]) NoIncomingEdges() []T { return slices.Clip(d.noIncoming) }

// NoOutgoingEdges returns the nodes without successors, in discovery order.
func (d *DAG[T]) NoOutgoingEdges() []T { return slices.Clip(d.noOutgoing) }

// HeadsOf returns the direct successors of n in edge-insertion order. It
// returns nil for a node the DAG does not contain.
func (d *DAG[T]) HeadsOf(n T) []T {
	i, ok := d.index[n]
	if !ok {
		return nil
	}
	return slices.Clip(d.heads[i])
}

// TailsOf returns the direct predecessors of n in edge-insertion order. It
// returns nil for a node the DAG does not contain.
func (d *DAG[T]) TailsOf(n T) []T {
	i, ok := d.index[n]
	if !ok {
		return nil
	}
	return slices.Clip(d.tails[i])
}

// TopologicalOrder returns the order computed at construction, using the
// default discovery-order tie-break.
func (d *DAG[T]) TopologicalOrder() []T { return slices.Clip(d.order) }

// TopologicalOrderFunc orders the DAG with cmp choosing among ready nodes.
// The DAG is known to be acyclic, so this cannot fail.
func (d *DAG[T]) TopologicalOrderFunc(cmp func(a, b T) int) []T {
	order, err := graph.Sort(d.nodes, d.edges, cmp)
	if err != nil {
		// Create already proved the edges acyclic.
		panic(err)
	}
	return order
}

// IsAncestor reports whether a path leads from a to b.
func (d *DAG[T]) IsAncestor(a, b T) bool {
	i, ok := d.index[a]
	if !ok {
		return false
	}
	j, ok := d.index[b]
	if !ok {
		return false
	}
	return d.reachability()[i].Test(uint(j))
}

// Position returns the row and column index of n in Adjacency.
func (d *DAG[T]) Position(n T) (int, bool) {
	i, ok := d.index[n]
	return i, ok
}

// Adjacency returns a copy of the square adjacency matrix, or nil for an
// empty DAG.
func (d *DAG[T]) Adjacency() *bitmatrix.Matrix {
	if d.adjacency == nil {
		return nil
	}
	return d.adjacency.Clone()
}

package dag

import (
	"errors"
	"fmt"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/vk/pipegraph/internal/bitmatrix"
	"github.com/vk/pipegraph/internal/graph"
)

// Builder accumulates nodes and edges for a DAG.
//
// Builder is NOT safe for concurrent use. Build the DAG in a single goroutine.
type Builder[T comparable] struct {
	g *graph.Graph[T]
}

// NewBuilder creates an empty builder.
func NewBuilder[T comparable]() *Builder[T] {
	return &Builder[T]{g: graph.New[T]()}
}

// AddNode registers a node that may have no edges at all.
func (b *Builder[T]) AddNode(n T) *Builder[T] {
	b.g.AddNode(n)
	return b
}

// AddEdge records that `from` must precede `to`. A self-referential edge is
// rejected immediately with an error wrapping edge.ErrSelfLoop.
func (b *Builder[T]) AddEdge(from, to T) error {
	return b.g.AddEdge(from, to)
}

// Create validates the accumulated graph and freezes it. If the edges contain
// a cycle it returns nil and an error that matches errors.ErrUnsupported and
// unwraps to the *graph.CycleError describing the unresolved nodes.
func (b *Builder[T]) Create() (*DAG[T], error) {
	nodes := b.g.Nodes()
	edges := b.g.Edges()

	order, err := graph.Sort(nodes, edges, nil)
	if err != nil {
		return nil, fmt.Errorf("cannot create DAG: %w: %w", errors.ErrUnsupported, err)
	}

	d := &DAG[T]{
		nodes: nodes,
		index: make(map[T]int, len(nodes)),
		edges: edges,
		heads: make([][]T, len(nodes)),
		tails: make([][]T, len(nodes)),
		order: order,
	}
	for i, n := range nodes {
		d.index[n] = i
	}
	for _, e := range edges {
		from, to := d.index[e.From], d.index[e.To]
		d.heads[from] = append(d.heads[from], e.To)
		d.tails[to] = append(d.tails[to], e.From)
	}

	if len(nodes) == 0 {
		return d, nil
	}

	if err := d.buildMatrices(); err != nil {
		return nil, fmt.Errorf("cannot create DAG: %w", err)
	}
	return d, nil
}

// buildMatrices fills the adjacency matrix and derives the sources and sinks
// from the per-node edge lists.
func (d *DAG[T]) buildMatrices() error {
	n := len(d.nodes)
	adj, err := bitmatrix.New(n, n)
	if err != nil {
		return err
	}
	for _, e := range d.edges {
		if err := adj.Set(d.index[e.From], d.index[e.To], true); err != nil {
			return err
		}
	}
	for i, node := range d.nodes {
		if len(d.tails[i]) == 0 {
			d.noIncoming = append(d.noIncoming, node)
		}
		if len(d.heads[i]) == 0 {
			d.noOutgoing = append(d.noOutgoing, node)
		}
	}
	d.adjacency = adj
	return nil
}

// reachability returns, per position, the set of positions reachable from it.
// Rows are filled in reverse topological order so every successor row is
// complete before it is merged.
func (d *DAG[T]) reachability() []*bitset.BitSet {
	d.reachOnce.Do(func() {
		n := uint(len(d.nodes))
		reach := make([]*bitset.BitSet, len(d.nodes))
		for _, node := range slices.Backward(d.order) {
			i := d.index[node]
			row := bitset.New(n)
			for _, next := range d.heads[i] {
				j := d.index[next]
				row.Set(uint(j))
				row.InPlaceUnion(reach[j])
			}
			reach[i] = row
		}
		d.reach = reach
	})
	return d.reach
}

package edge

import (
	"errors"
	"fmt"
	"iter"
)

// ErrSelfLoop is returned when an edge would connect a node to itself.
var ErrSelfLoop = errors.New("self-referential edge not allowed")

// Edge is an ordered pair of nodes. From must come before To.
type Edge[T comparable] struct {
	From T
	To   T
}

// New creates an edge from `from` to `to`. It never fails; use Validate before
// inserting the edge into a graph.
func New[T comparable](from, to T) Edge[T] {
	return Edge[T]{From: from, To: to}
}

// Validate reports ErrSelfLoop if both endpoints are the same node.
func (e Edge[T]) Validate() error {
	if e.From == e.To {
		return fmt.Errorf("%w: %v -> %v", ErrSelfLoop, e.From, e.To)
	}
	return nil
}

// String implements fmt.Stringer.
func (e Edge[T]) String() string {
	return fmt.Sprintf("%v -> %v", e.From, e.To)
}

// All yields every edge in the collection.
func All[T comparable](edges []Edge[T]) iter.Seq[Edge[T]] {
	return func(yield func(Edge[T]) bool) {
		for _, e := range edges {
			if !yield(e) {
				return
			}
		}
	}
}

// Into yields the edges directed at node, in collection order.
func Into[T comparable](node T, edges []Edge[T]) iter.Seq[Edge[T]] {
	return func(yield func(Edge[T]) bool) {
		for _, e := range edges {
			if e.To == node && !yield(e) {
				return
			}
		}
	}
}

// OutOf yields the edges directed from node, in collection order.
func OutOf[T comparable](node T, edges []Edge[T]) iter.Seq[Edge[T]] {
	return func(yield func(Edge[T]) bool) {
		for _, e := range edges {
			if e.From == node && !yield(e) {
				return
			}
		}
	}
}

// CollectInto drains seq into a container created by newC. add must return
// the (possibly reallocated) container, which lets the same helper fill a
// slice, a set map or any custom collection.
func CollectInto[E any, C any](seq iter.Seq[E], newC func() C, add func(C, E) C) C {
	c := newC()
	for e := range seq {
		c = add(c, e)
	}
	return c
}

// EdgesInto returns the edges directed at node. The result is empty, never
// nil, when node has no incoming edges.
func EdgesInto[T comparable](node T, edges []Edge[T]) []Edge[T] {
	return CollectInto(Into(node, edges), newSlice[T], appendEdge[T])
}

// EdgesOutOf returns the edges directed from node. The result is empty, never
// nil, when node has no outgoing edges.
func EdgesOutOf[T comparable](node T, edges []Edge[T]) []Edge[T] {
	return CollectInto(OutOf(node, edges), newSlice[T], appendEdge[T])
}

// Nodes returns every node that appears as From or To, in order of first
// appearance.
func Nodes[T comparable](edges []Edge[T]) []T {
	seen := make(map[T]struct{}, len(edges))
	nodes := make([]T, 0, len(edges))
	visit := func(n T) {
		if _, ok := seen[n]; ok {
			return
		}
		seen[n] = struct{}{}
		nodes = append(nodes, n)
	}
	for _, e := range edges {
		visit(e.From)
		visit(e.To)
	}
	return nodes
}

// NodeSet returns the same nodes as Nodes as a set.
func NodeSet[T comparable](edges []Edge[T]) map[T]struct{} {
	set := make(map[T]struct{}, len(edges))
	for _, e := range edges {
		set[e.From] = struct{}{}
		set[e.To] = struct{}{}
	}
	return set
}

// SourcesWithNoIncoming returns the nodes that never appear as a To endpoint,
// in order of first appearance.
func SourcesWithNoIncoming[T comparable](edges []Edge[T]) []T {
	targets := make(map[T]struct{}, len(edges))
	for _, e := range edges {
		targets[e.To] = struct{}{}
	}
	sources := make([]T, 0)
	for _, n := range Nodes(edges) {
		if _, ok := targets[n]; !ok {
			sources = append(sources, n)
		}
	}
	return sources
}

func newSlice[T comparable]() []Edge[T] { return []Edge[T]{} }

func appendEdge[T comparable](s []Edge[T], e Edge[T]) []Edge[T] { return append(s, e) }

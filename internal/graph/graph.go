package graph

import (
	"slices"
	"sync"

	"github.com/vk/pipegraph/internal/edge"
)

// Graph is a growable set of directed edges over comparable nodes.
// All operations on the graph are concurrency-safe.
type Graph[T comparable] struct {
	// mutex protects every field below.
	mutex sync.RWMutex
	// nodes holds each node once, in order of first appearance.
	nodes []T
	// known indexes nodes for membership checks.
	known map[T]struct{}
	// edges holds each distinct edge once, in insertion order.
	edges []edge.Edge[T]
	// seen indexes edges for idempotent insertion.
	seen map[edge.Edge[T]]struct{}
}

// New creates and returns an initialized, empty Graph.
func New[T comparable]() *Graph[T] {
	return &Graph[T]{
		known: make(map[T]struct{}),
		seen:  make(map[edge.Edge[T]]struct{}),
	}
}

// AddNode registers n without connecting it to anything. Adding a node that
// is already known does nothing.
func (g *Graph[T]) AddNode(n T) {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	g.addNodeLocked(n)
}

// AddEdge records that `from` must come before `to`. A self-referential edge
// returns an error wrapping edge.ErrSelfLoop; repeating an edge does nothing.
func (g *Graph[T]) AddEdge(from, to T) error {
	e := edge.New(from, to)
	if err := e.Validate(); err != nil {
		return err
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.seen[e]; ok {
		return nil
	}
	g.addNodeLocked(from)
	g.addNodeLocked(to)
	g.seen[e] = struct{}{}
	g.edges = append(g.edges, e)
	return nil
}

// Contains reports whether n is a node of the graph.
func (g *Graph[T]) Contains(n T) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.known[n]
	return ok
}

// Nodes returns the nodes in order of first appearance.
func (g *Graph[T]) Nodes() []T {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return slices.Clone(g.nodes)
}

// Edges returns the distinct edges in insertion order.
func (g *Graph[T]) Edges() []edge.Edge[T] {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return slices.Clone(g.edges)
}

// TopologicalSort orders every node so that each edge's From precedes its To,
// breaking ties in discovery order. It returns a *CycleError if the graph
// cannot be fully ordered.
func (g *Graph[T]) TopologicalSort() ([]T, error) {
	return g.TopologicalSortFunc(nil)
}

// TopologicalSortFunc is TopologicalSort with cmp deciding which ready node is
// emitted next: the smallest under cmp wins. A nil cmp uses discovery order.
func (g *Graph[T]) TopologicalSortFunc(cmp func(a, b T) int) ([]T, error) {
	g.mutex.RLock()
	nodes := slices.Clone(g.nodes)
	edges := slices.Clone(g.edges)
	g.mutex.RUnlock()

	return Sort(nodes, edges, cmp)
}

func (g *Graph[T]) addNodeLocked(n T) {
	if _, ok := g.known[n]; ok {
		return
	}
	g.known[n] = struct{}{}
	g.nodes = append(g.nodes, n)
}

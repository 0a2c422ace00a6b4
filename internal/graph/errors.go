package graph

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCycle is matched by every *CycleError via errors.Is.
var ErrCycle = errors.New("cycle detected")

// CycleError reports the nodes a topological sort could not order. This is
// the full residual set, which includes nodes that merely depend on a cycle.
type CycleError[T comparable] struct {
	nodes []T
}

// NewCycleError creates a CycleError over the given unresolved nodes.
func NewCycleError[T comparable](nodes []T) *CycleError[T] {
	return &CycleError[T]{nodes: slices.Clone(nodes)}
}

func (e *CycleError[T]) Error() string {
	return fmt.Sprintf("%s: %d unresolved node(s) %v", ErrCycle, len(e.nodes), e.nodes)
}

func (e *CycleError[T]) Unwrap() error { return ErrCycle }

// Nodes returns the unresolved nodes in discovery order.
func (e *CycleError[T]) Nodes() []T {
	return slices.Clone(e.nodes)
}

// Contains reports whether n is part of the unresolved set.
func (e *CycleError[T]) Contains(n T) bool {
	return slices.Contains(e.nodes, n)
}

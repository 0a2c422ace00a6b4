// Package graph provides the mutable dependency graph used while a pipeline is
// being declared, and the topological sort that turns it into an order.
//
// # Why Graph Package Exists
//
// Work items are declared one at a time, each adding "must run before" edges.
// The graph package accumulates those edges and answers a single question on
// demand: in what order can the items run without violating any edge?
//
//   - **Incremental:** edges are added one by one; duplicates are ignored.
//   - **Fail early:** a self-referential edge is rejected at insertion.
//   - **Repeatable:** sorting never mutates the graph and can be called again.
//
// # How It Works
//
// TopologicalSort is a variant of Kahn's algorithm:
//
//  1. Compute the in-degree of every node from the current edge set.
//  2. Seed a ready set with every node whose in-degree is zero.
//  3. Remove one ready node, emit it, and decrement the in-degree of each node
//     it points to; nodes that reach zero join the ready set.
//  4. Stop when the ready set is empty.
//
// Without a comparator the ready set is a FIFO queue: initial ready nodes are
// taken in the order the nodes were first seen (AddNode, or the From then To
// endpoint of each AddEdge), and released nodes are queued in the insertion
// order of the edges that released them. With a comparator the smallest ready
// node is removed at every step.
//
// # Cycles
//
// If nodes remain un-emitted when the ready set runs dry, the sort fails with
// a *CycleError holding exactly that residual set. The residual can be larger
// than the cycle itself: a node that only depends on a cycle can never become
// ready either, so it is reported too.
//
//	C -> D -> B -> L -> D   (cycle D, B, L)
//	     D -> A, B -> A     (A waits on the cycle)
//
// Sorting the graph above emits C and reports {D, B, L, A}.
package graph

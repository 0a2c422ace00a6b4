// Package dag provides the frozen, validated form of a dependency graph.
//
// A DAG is built once through a Builder. Create validates acyclicity eagerly
// and either returns a complete DAG or an error; a caller never observes a
// partially built graph. The derived indices (sources, sinks, direct
// predecessors and successors) are computed during Create, so those queries
// are lookups. Reachability is only needed by IsAncestor and is built once on
// its first call. The DAG can be shared by concurrent readers.
package dag

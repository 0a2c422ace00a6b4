// Package edge defines the directed edge used by every graph in pipegraph and
// a small set of pure queries over edge collections.
//
// An Edge{From, To} means From must be ordered (or executed) before To. Edges
// are plain comparable values, so two edges with the same endpoints are equal
// and hash identically when used as map keys.
package edge

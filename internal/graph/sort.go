package graph

import (
	"container/heap"

	"github.com/vk/pipegraph/internal/edge"
)

// Sort runs the Kahn ordering over an explicit node list and edge list. nodes
// fixes the discovery order used for tie-breaking; edge endpoints missing from
// nodes are appended in edge order. Duplicate edges are counted once.
func Sort[T comparable](nodes []T, edges []edge.Edge[T], cmp func(a, b T) int) ([]T, error) {
	idx := make(map[T]int, len(nodes))
	all := make([]T, 0, len(nodes))
	add := func(n T) int {
		if i, ok := idx[n]; ok {
			return i
		}
		idx[n] = len(all)
		all = append(all, n)
		return len(all) - 1
	}
	for _, n := range nodes {
		add(n)
	}

	inDegree := make([]int, len(all))
	successors := make([][]int, len(all))
	seen := make(map[edge.Edge[T]]struct{}, len(edges))
	for _, e := range edges {
		if err := e.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		from, to := add(e.From), add(e.To)
		if len(inDegree) < len(all) {
			inDegree = append(inDegree, make([]int, len(all)-len(inDegree))...)
			successors = append(successors, make([][]int, len(all)-len(successors))...)
		}
		successors[from] = append(successors[from], to)
		inDegree[to]++
	}

	var ready readySet
	if cmp == nil {
		ready = &fifo{}
	} else {
		ready = &ordered{less: func(a, b int) bool {
			if c := cmp(all[a], all[b]); c != 0 {
				return c < 0
			}
			return a < b
		}}
	}
	for i := range all {
		if inDegree[i] == 0 {
			ready.push(i)
		}
	}

	order := make([]T, 0, len(all))
	emitted := make([]bool, len(all))
	for ready.len() > 0 {
		i := ready.pop()
		emitted[i] = true
		order = append(order, all[i])
		for _, s := range successors[i] {
			inDegree[s]--
			if inDegree[s] == 0 {
				ready.push(s)
			}
		}
	}

	if len(order) == len(all) {
		return order, nil
	}

	residual := make([]T, 0, len(all)-len(order))
	for i, done := range emitted {
		if !done {
			residual = append(residual, all[i])
		}
	}
	return nil, &CycleError[T]{nodes: residual}
}

// readySet holds indices of nodes whose in-degree has dropped to zero.
type readySet interface {
	push(i int)
	pop() int
	len() int
}

type fifo struct {
	items []int
}

func (q *fifo) push(i int) { q.items = append(q.items, i) }

func (q *fifo) pop() int {
	i := q.items[0]
	q.items = q.items[1:]
	return i
}

func (q *fifo) len() int { return len(q.items) }

// ordered is a min-heap under less.
type ordered struct {
	items []int
	less  func(a, b int) bool
}

func (q *ordered) push(i int) { heap.Push((*heapAdapter)(q), i) }
func (q *ordered) pop() int   { return heap.Pop((*heapAdapter)(q)).(int) }
func (q *ordered) len() int   { return len(q.items) }

type heapAdapter ordered

func (h *heapAdapter) Len() int           { return len(h.items) }
func (h *heapAdapter) Less(i, j int) bool { return h.less(h.items[i], h.items[j]) }
func (h *heapAdapter) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *heapAdapter) Push(x any)         { h.items = append(h.items, x.(int)) }

func (h *heapAdapter) Pop() any {
	n := len(h.items)
	x := h.items[n-1]
	h.items = h.items[:n-1]
	return x
}

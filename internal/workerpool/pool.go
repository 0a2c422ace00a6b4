// Package workerpool provides a bounded pool of goroutines used to run
// pipeline items concurrently.
package workerpool

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Pool runs submitted functions on at most Size goroutines at once. Go blocks
// while every worker is busy, so a caller submitting faster than the pool
// drains is slowed down instead of spawning unbounded goroutines.
//
// A Pool can be shared by several pipelines and reused after Wait returns.
type Pool struct {
	size  int
	group errgroup.Group
}

// New creates a pool with the given number of workers.
func New(size int) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("worker pool size must be at least 1, got %d", size)
	}
	p := &Pool{size: size}
	p.group.SetLimit(size)
	return p, nil
}

// Size returns the maximum number of concurrently running functions.
func (p *Pool) Size() int { return p.size }

// Go schedules fn on a free worker, waiting for one if necessary.
func (p *Pool) Go(fn func()) {
	p.group.Go(func() error {
		fn()
		return nil
	})
}

// Wait blocks until every function submitted so far has returned.
func (p *Pool) Wait() {
	_ = p.group.Wait()
}

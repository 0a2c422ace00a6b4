package pipeline

import (
	"fmt"
	"reflect"

	"github.com/vk/pipegraph/internal/dag"
	"github.com/vk/pipegraph/internal/edge"
)

// Executor runs functions on some pool of goroutines. Go may block until a
// worker is available. *workerpool.Pool satisfies it.
type Executor interface {
	Go(fn func())
}

// Builder collects task registrations and compiles them into a Pipeline.
//
// Builder is NOT safe for concurrent use.
type Builder struct {
	graph    *dag.Builder[Task]
	executor Executor
	err      error
}

// New returns an empty Builder. Without an Executor the resulting pipeline
// runs sequentially.
func New() *Builder {
	return &Builder{graph: dag.NewBuilder[Task]()}
}

// Task starts the registration of t.
func (b *Builder) Task(t Task) *Registration {
	return &Registration{builder: b, item: t}
}

// Action starts the registration of a. Refer to it from other registrations
// with AsTask(a).
func (b *Builder) Action(a Action) *Registration {
	if a == nil {
		return &Registration{builder: b}
	}
	return b.Task(AsTask(a))
}

// Executor selects concurrent execution on e. Passing nil restores
// sequential execution.
func (b *Builder) Executor(e Executor) *Builder {
	b.executor = e
	return b
}

// Create compiles the registered tasks. It fails if any registration failed
// or if the declarations form a cycle.
func (b *Builder) Create() (*Pipeline, error) {
	if b.err != nil {
		return nil, fmt.Errorf("cannot create pipeline: %w", b.err)
	}
	d, err := b.graph.Create()
	if err != nil {
		return nil, fmt.Errorf("cannot create pipeline: %w", err)
	}
	return &Pipeline{dag: d, executor: b.executor}, nil
}

// Registration accumulates the declarations of one task until Add commits them.
type Registration struct {
	builder      *Builder
	item         Task
	dependencies []Task
	dependent    Task
}

// AddDependencies declares tasks that must complete before this one starts.
func (r *Registration) AddDependencies(ts ...Task) *Registration {
	r.dependencies = append(r.dependencies, ts...)
	return r
}

// Dependent declares the task that must not start before this one
// completes. A later call replaces an earlier one.
func (r *Registration) Dependent(t Task) *Registration {
	r.dependent = t
	return r
}

// Add commits the registration. Either every declaration is recorded or,
// on error, none is. The builder remembers the first error and Create
// reports it as well.
func (r *Registration) Add() error {
	err := r.commit()
	if err != nil && r.builder.err == nil {
		r.builder.err = err
	}
	return err
}

func (r *Registration) commit() error {
	if err := checkTask(r.item); err != nil {
		return err
	}
	name := nameOf(r.item)
	for _, d := range r.dependencies {
		if err := checkTask(d); err != nil {
			return fmt.Errorf("dependency of %q: %w", name, err)
		}
		if d == r.item {
			return fmt.Errorf("task %q cannot depend on itself: %w", name, edge.ErrSelfLoop)
		}
	}
	if r.dependent != nil {
		if err := checkTask(r.dependent); err != nil {
			return fmt.Errorf("dependent of %q: %w", name, err)
		}
		if r.dependent == r.item {
			return fmt.Errorf("task %q cannot be its own dependent: %w", name, edge.ErrSelfLoop)
		}
	}

	g := r.builder.graph
	g.AddNode(r.item)
	for _, d := range r.dependencies {
		if err := g.AddEdge(d, r.item); err != nil {
			return err
		}
	}
	if r.dependent != nil {
		if err := g.AddEdge(r.item, r.dependent); err != nil {
			return err
		}
	}
	return nil
}

func checkTask(t Task) error {
	if t == nil {
		return ErrNilTask
	}
	if a, ok := t.(actionTask); ok {
		if a.action == nil {
			return ErrNilTask
		}
		return checkComparable(a.action)
	}
	return checkComparable(t)
}

// checkComparable inspects the dynamic value, so a struct whose interface
// field holds a slice is rejected even though its type is comparable.
func checkComparable(v any) error {
	if !reflect.ValueOf(v).Comparable() {
		return fmt.Errorf("%w: %T", ErrUncomparableTask, v)
	}
	return nil
}

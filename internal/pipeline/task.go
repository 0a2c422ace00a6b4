package pipeline

import (
	"context"
	"fmt"
)

// Task is a unit of work. Tasks are graph nodes, so the dynamic value must be
// comparable; pointer types always are.
type Task interface {
	Run(ctx context.Context) error
}

// Action is a unit of work that cannot fail.
type Action interface {
	Do()
}

// Named is implemented by tasks that want a readable name in logs and spans.
type Named interface {
	Name() string
}

// FuncTask adapts a function to Task.
type FuncTask struct {
	name string
	fn   func(ctx context.Context) error
}

// NewTask returns a Task that calls fn.
func NewTask(name string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{name: name, fn: fn}
}

func (t *FuncTask) Run(ctx context.Context) error { return t.fn(ctx) }
func (t *FuncTask) Name() string                  { return t.name }
func (t *FuncTask) String() string                { return t.name }

// FuncAction adapts a function to both Action and Task.
type FuncAction struct {
	name string
	fn   func()
}

// NewAction returns an Action that calls fn. The result can also be used
// wherever a Task is expected, e.g. as a dependency of another task.
func NewAction(name string, fn func()) *FuncAction {
	return &FuncAction{name: name, fn: fn}
}

func (a *FuncAction) Do() { a.fn() }

func (a *FuncAction) Run(context.Context) error {
	a.fn()
	return nil
}

func (a *FuncAction) Name() string   { return a.name }
func (a *FuncAction) String() string { return a.name }

// actionTask lifts an Action that is not itself a Task.
type actionTask struct {
	action Action
}

func (a actionTask) Run(context.Context) error {
	a.action.Do()
	return nil
}

func (a actionTask) Name() string { return nameOf(a.action) }

// AsTask returns the Task a registered Action is stored as, for use in
// AddDependencies or Dependent.
func AsTask(a Action) Task {
	if t, ok := a.(Task); ok {
		return t
	}
	return actionTask{action: a}
}

func nameOf(v any) string {
	switch n := v.(type) {
	case Named:
		return n.Name()
	case fmt.Stringer:
		return n.String()
	default:
		return fmt.Sprintf("%T", v)
	}
}

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

var (
	// ErrDuplicateTask is returned when two tasks share a name.
	ErrDuplicateTask = errors.New("duplicate task name")
	// ErrUnknownTask is returned when a task references an undefined task.
	ErrUnknownTask = errors.New("reference to undefined task")
	// ErrMissingKind is returned for a task without a kind.
	ErrMissingKind = errors.New("task kind is required")
)

// Model is the unified representation of a pipeline definition.
type Model struct {
	// Variables holds the resolved value of every declared variable.
	Variables map[string]cty.Value
	// Tasks are kept in declaration order.
	Tasks []*Task
}

// Task is one task declaration.
type Task struct {
	Name      string
	Kind      string
	DependsOn []string
	// Dependent names the single task that must run after this one, if any.
	Dependent string
	Arguments Arguments
	// Source is a human readable location used in error messages.
	Source string
}

// Validate checks that names are unique and every reference resolves.
func (m *Model) Validate() error {
	var errs []error
	byName := make(map[string]*Task, len(m.Tasks))
	for _, t := range m.Tasks {
		if prev, ok := byName[t.Name]; ok {
			errs = append(errs, fmt.Errorf("%w %q at %s (first declared at %s)", ErrDuplicateTask, t.Name, t.Source, prev.Source))
			continue
		}
		byName[t.Name] = t
	}
	for _, t := range m.Tasks {
		if t.Kind == "" {
			errs = append(errs, fmt.Errorf("task %q at %s: %w", t.Name, t.Source, ErrMissingKind))
		}
		for _, dep := range t.DependsOn {
			if _, ok := byName[dep]; !ok {
				errs = append(errs, fmt.Errorf("task %q depends_on %q: %w", t.Name, dep, ErrUnknownTask))
			}
		}
		if t.Dependent != "" {
			if _, ok := byName[t.Dependent]; !ok {
				errs = append(errs, fmt.Errorf("task %q dependent %q: %w", t.Name, t.Dependent, ErrUnknownTask))
			}
		}
	}
	return errors.Join(errs...)
}

// Merge appends the tasks and variables of other into m.
func (m *Model) Merge(other *Model) {
	if m.Variables == nil {
		m.Variables = make(map[string]cty.Value, len(other.Variables))
	}
	for k, v := range other.Variables {
		m.Variables[k] = v
	}
	m.Tasks = append(m.Tasks, other.Tasks...)
}

// NoArguments is used for tasks declared without an `arguments` section.
type NoArguments struct{}

func (NoArguments) Decode(context.Context, any) error { return nil }

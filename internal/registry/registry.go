package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/vk/pipegraph/internal/config"
	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/pipeline"
)

// ErrUnknownKind is returned when a task names a kind nobody registered.
var ErrUnknownKind = errors.New("unknown task kind")

// Module is the interface that all task kind modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Factory builds the runnable task for one declaration.
type Factory func(ctx context.Context, spec Spec) (pipeline.Task, error)

// Registry holds the task factories of a single application instance.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	validate  *validator.Validate
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register binds kind to f. Registering the same kind twice is a programming
// error and panics.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		panic(fmt.Sprintf("task kind '%s' already registered", kind))
	}
	slog.Debug("Registering task kind.", "kind", kind)
	r.factories[kind] = f
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Build creates the task declared by t.
func (r *Registry) Build(ctx context.Context, t *config.Task) (pipeline.Task, error) {
	r.mu.RLock()
	f, ok := r.factories[t.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("task %q at %s: %w %q", t.Name, t.Source, ErrUnknownKind, t.Kind)
	}

	ctxlog.FromContext(ctx).Debug("Building task.", "task", t.Name, "kind", t.Kind)
	args := t.Arguments
	if args == nil {
		args = config.NoArguments{}
	}
	task, err := f(ctx, Spec{Name: t.Name, Kind: t.Kind, args: args, validate: r.validate})
	if err != nil {
		return nil, fmt.Errorf("task %q at %s: %w", t.Name, t.Source, err)
	}
	if task == nil {
		return nil, fmt.Errorf("task %q at %s: factory for kind %q returned no task", t.Name, t.Source, t.Kind)
	}
	return task, nil
}

// Spec is what a factory receives: the declared name and the still-encoded
// arguments of the task.
type Spec struct {
	Name string
	Kind string

	args     config.Arguments
	validate *validator.Validate
}

// Decode populates target from the task's arguments and checks its
// `validate` struct tags.
func (s Spec) Decode(ctx context.Context, target any) error {
	if err := s.args.Decode(ctx, target); err != nil {
		return err
	}
	if err := s.validate.StructCtx(ctx, target); err != nil {
		return fmt.Errorf("invalid arguments of task %q: %w", s.Name, err)
	}
	return nil
}

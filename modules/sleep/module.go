// Package sleep provides the "sleep" task kind, which waits for a fixed
// duration or until the run is cancelled.
package sleep

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/registry"
)

// Kind is the name used in pipeline definitions.
const Kind = "sleep"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments of a sleep task.
type Input struct {
	// Duration uses time.ParseDuration syntax, e.g. "250ms".
	Duration string `hcl:"duration" yaml:"duration" validate:"required"`
}

// Register registers the sleep kind.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Kind, newTask)
}

func newTask(ctx context.Context, spec registry.Spec) (pipeline.Task, error) {
	var in Input
	if err := spec.Decode(ctx, &in); err != nil {
		return nil, err
	}
	d, err := time.ParseDuration(in.Duration)
	if err != nil {
		return nil, fmt.Errorf("invalid duration: %w", err)
	}
	if d < 0 {
		return nil, fmt.Errorf("invalid duration: %s is negative", d)
	}
	return pipeline.NewTask(spec.Name, func(ctx context.Context) error {
		ctxlog.FromContext(ctx).Debug("Sleeping.", "task", spec.Name, "duration", d)
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}), nil
}

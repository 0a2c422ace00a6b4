// Package print provides the "print" task kind, which writes a message to
// the application's output.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/registry"
)

// Kind is the name used in pipeline definitions.
const Kind = "print"

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives printed messages. Defaults to os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// Input defines the arguments of a print task.
type Input struct {
	Message string `hcl:"message" yaml:"message" validate:"required"`
}

// Register registers the print kind.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Kind, m.newTask)
}

func (m *Module) newTask(ctx context.Context, spec registry.Spec) (pipeline.Task, error) {
	var in Input
	if err := spec.Decode(ctx, &in); err != nil {
		return nil, err
	}
	return pipeline.NewTask(spec.Name, func(ctx context.Context) error {
		ctxlog.FromContext(ctx).Debug("Printing message.", "task", spec.Name)
		return m.write(in.Message)
	}), nil
}

// write serializes output so concurrent tasks never interleave lines.
func (m *Module) write(msg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.Out
	if out == nil {
		out = os.Stdout
	}
	_, err := fmt.Fprintln(out, msg)
	return err
}

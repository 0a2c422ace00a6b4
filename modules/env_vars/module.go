// Package env_vars provides the "env_vars" task kind, which logs selected
// environment variables.
package env_vars

import (
	"context"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/registry"
)

// Kind is the name used in pipeline definitions.
const Kind = "env_vars"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input selects variables by exact name or by prefix. With neither set,
// every variable is logged.
type Input struct {
	Names  []string `hcl:"names,optional" yaml:"names" validate:"dive,required"`
	Prefix string   `hcl:"prefix,optional" yaml:"prefix"`
	// Required fails the task when a named variable is unset.
	Required bool `hcl:"required,optional" yaml:"required"`
}

// Register registers the env_vars kind.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Kind, newTask)
}

func newTask(ctx context.Context, spec registry.Spec) (pipeline.Task, error) {
	var in Input
	if err := spec.Decode(ctx, &in); err != nil {
		return nil, err
	}
	return pipeline.NewTask(spec.Name, func(ctx context.Context) error {
		vars, err := Select(in)
		if err != nil {
			return err
		}
		logger := ctxlog.FromContext(ctx)
		for _, k := range slices.Sorted(maps.Keys(vars)) {
			logger.Info("Environment variable.", "task", spec.Name, "name", k, "value", vars[k])
		}
		return nil
	}), nil
}

// Select returns the environment variables matched by in.
func Select(in Input) (map[string]string, error) {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}

	out := make(map[string]string)
	for _, name := range in.Names {
		v, ok := env[name]
		if !ok {
			if in.Required {
				return nil, fmt.Errorf("environment variable %q is not set", name)
			}
			continue
		}
		out[name] = v
	}
	if in.Prefix != "" || len(in.Names) == 0 {
		for k, v := range env {
			if strings.HasPrefix(k, in.Prefix) {
				out[k] = v
			}
		}
	}
	return out, nil
}

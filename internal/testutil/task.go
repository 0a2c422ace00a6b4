package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/pipegraph/internal/hcl"
	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/registry"
)

// BuildTask registers mod, declares a single task of kind whose arguments
// block holds argumentsHCL, and returns what the registry builds for it.
func BuildTask(t *testing.T, mod registry.Module, kind, argumentsHCL string) (pipeline.Task, error) {
	t.Helper()

	src := fmt.Sprintf("task %q {\n  kind = %q\n  arguments {\n%s\n  }\n}\n", "under_test", kind, Unindent(argumentsHCL))
	path := filepath.Join(t.TempDir(), "task.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	model, err := hcl.NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Tasks, 1)

	reg := registry.New()
	mod.Register(reg)
	return reg.Build(context.Background(), model.Tasks[0])
}

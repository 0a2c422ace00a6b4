package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/pipegraph/internal/app"
	"github.com/vk/pipegraph/internal/config"
	"github.com/vk/pipegraph/internal/hcl"
	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/registry"
	"github.com/vk/pipegraph/internal/yamlconfig"
)

// HarnessResult holds the outcome of an integration test run.
type HarnessResult struct {
	LogOutput string
	Output    *SafeBuffer
	Result    *pipeline.Result
	Err       error
	App       *app.App
}

// HarnessOptions tune RunIntegrationTest.
type HarnessOptions struct {
	// Workers is the pool size; 0 runs sequentially.
	Workers   int
	Variables map[string]string
	// Modules replace the built-in task kinds when set.
	Modules []registry.Module
}

// RunIntegrationTest writes files into a temporary directory, loads that
// directory as one pipeline and runs it. Files ending in .yaml or .yml are
// loaded with the YAML loader, everything else with the HCL loader; a test
// should not mix the two.
func RunIntegrationTest(t *testing.T, files map[string]string, opts HarnessOptions) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, opts)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller-provided context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, opts HarnessOptions) *HarnessResult {
	t.Helper()

	dir := t.TempDir()
	useYAML := false
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(Unindent(content)), 0o644))
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			useYAML = true
		}
	}

	cfg, err := app.NewConfig(app.Config{
		PipelinePath: dir,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  opts.Workers,
		Variables:    opts.Variables,
	})
	require.NoError(t, err)

	var loader config.Loader = hcl.NewLoader(opts.Variables)
	if useYAML {
		loader = yamlconfig.NewLoader(opts.Variables)
	}

	out := &SafeBuffer{}
	testApp := app.NewApp(out, cfg, loader, opts.Modules...)
	res, runErr := testApp.Execute(ctx)

	if os.Getenv("PIPEGRAPH_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), out.String())
	}
	return &HarnessResult{
		LogOutput: out.String(),
		Output:    out,
		Result:    res,
		Err:       runErr,
		App:       testApp,
	}
}

// Unindent removes common leading whitespace from a multi-line string,
// allowing for readable, indented snippets in Go tests.
func Unindent(s string) string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}
	if minIndent <= 0 {
		return strings.Join(lines, "\n") + "\n"
	}

	var b strings.Builder
	for _, line := range lines {
		if len(line) >= minIndent {
			b.WriteString(line[minIndent:])
		} else {
			b.WriteString(strings.TrimSpace(line))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

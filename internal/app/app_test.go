package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/pipegraph/internal/config"
	"github.com/vk/pipegraph/internal/hcl"
	"github.com/vk/pipegraph/internal/pipeline"
	"github.com/vk/pipegraph/internal/registry"
	"github.com/vk/pipegraph/internal/workerpool"
)

func TestNewConfig(t *testing.T) {
	cfg, err := NewConfig(Config{PipelinePath: "p.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "pipegraph", cfg.Telemetry.ServiceName)

	tests := []struct {
		name  string
		cfg   Config
		field string
	}{
		{"missing path", Config{}, "PipelinePath"},
		{"bad format", Config{PipelinePath: "p", LogFormat: "xml"}, "LogFormat"},
		{"bad level", Config{PipelinePath: "p", LogLevel: "trace"}, "LogLevel"},
		{"negative workers", Config{PipelinePath: "p", WorkerCount: -1}, "WorkerCount"},
		{"port out of range", Config{PipelinePath: "p", HealthcheckPort: 70000}, "HealthcheckPort"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.cfg)
			var verrs validator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger("warn", "json", &buf)
	l.Info("hidden")
	l.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	buf.Reset()
	l = newLogger("nonsense", "text", &buf)
	l.Debug("hidden")
	l.Info("shown")
	assert.Equal(t, 1, strings.Count(buf.String(), "msg=shown"))
}

func TestHealthMux(t *testing.T) {
	a := NewApp(&bytes.Buffer{}, &Config{LogLevel: "info"}, nil)

	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("metrics"))
	})
	srv := httptest.NewServer(a.newHealthMux(metrics))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bare := httptest.NewServer(a.newHealthMux(nil))
	defer bare.Close()
	resp, err = http.Get(bare.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// fakeBuilder builds tasks that append their name to a shared log.
type fakeBuilder struct {
	ran  *[]string
	fail string
}

func (f fakeBuilder) Build(_ context.Context, t *config.Task) (pipeline.Task, error) {
	if t.Name == f.fail {
		return nil, errors.New("cannot build " + t.Name)
	}
	name := t.Name
	return pipeline.NewTask(name, func(context.Context) error {
		*f.ran = append(*f.ran, name)
		return nil
	}), nil
}

func TestBuildPipeline(t *testing.T) {
	model := &config.Model{Tasks: []*config.Task{
		{Name: "publish"},
		{Name: "build", DependsOn: []string{"fetch"}, Dependent: "publish"},
		{Name: "fetch"},
	}}

	var ran []string
	p, err := BuildPipeline(context.Background(), model, fakeBuilder{ran: &ran}, nil)
	require.NoError(t, err)
	assert.False(t, p.Concurrent())
	require.NoError(t, p.Execute(context.Background()))
	assert.Equal(t, []string{"fetch", "build", "publish"}, ran)

	pool, err := workerpool.New(2)
	require.NoError(t, err)
	p, err = BuildPipeline(context.Background(), model, fakeBuilder{ran: &ran}, pool)
	require.NoError(t, err)
	assert.True(t, p.Concurrent())

	_, err = BuildPipeline(context.Background(), model, fakeBuilder{ran: &ran, fail: "build"}, nil)
	assert.ErrorContains(t, err, "cannot build build")
}

func TestBuildPipeline_Cycle(t *testing.T) {
	model := &config.Model{Tasks: []*config.Task{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	}}
	var ran []string
	_, err := BuildPipeline(context.Background(), model, fakeBuilder{ran: &ran}, nil)
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}

func TestApp_Execute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
task "second" {
  kind       = "print"
  depends_on = ["first"]
  arguments { message = "two" }
}
task "first" {
  kind = "print"
  arguments { message = "one" }
}
`), 0o644))

	var out bytes.Buffer
	cfg, err := NewConfig(Config{PipelinePath: path, LogLevel: "error"})
	require.NoError(t, err)
	a := NewApp(&out, cfg, hcl.NewLoader(nil))
	assert.Equal(t, []string{"env_vars", "http_request", "print", "sleep"}, a.Registry().Kinds())

	res, err := a.Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "one\ntwo\n", out.String())
}

func TestApp_UnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`task "a" { kind = "teleport" }`), 0o644))

	cfg, err := NewConfig(Config{PipelinePath: path, LogLevel: "error"})
	require.NoError(t, err)
	err = NewApp(&bytes.Buffer{}, cfg, hcl.NewLoader(nil)).Run(context.Background())
	assert.ErrorIs(t, err, registry.ErrUnknownKind)
}

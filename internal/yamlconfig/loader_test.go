package yamlconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/pipegraph/internal/config"
)

type printInput struct {
	Message string `yaml:"message"`
	Count   int    `yaml:"count"`
	Loud    bool   `yaml:"loud"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const pipelineYAML = `variables:
  target: linux
  times: 2
  loud: true
tasks:
  - name: fetch
    kind: print
    arguments:
      message: fetching
  - name: build
    kind: print
    depends_on: [fetch]
    dependent: publish
    arguments:
      message: "building ${var.target}"
      count: "${var.times}"
      loud: "${var.loud}"
  - name: publish
    kind: env_vars
`

func TestLoader_Load(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pipeline.yaml", pipelineYAML)

	model, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, model.Tasks, 3)

	build := model.Tasks[1]
	assert.Equal(t, "build", build.Name)
	assert.Equal(t, "print", build.Kind)
	assert.Equal(t, []string{"fetch"}, build.DependsOn)
	assert.Equal(t, "publish", build.Dependent)
	assert.Equal(t, path+":10", build.Source)

	var in printInput
	require.NoError(t, build.Arguments.Decode(context.Background(), &in))
	assert.Equal(t, printInput{Message: "building linux", Count: 2, Loud: true}, in)

	assert.Equal(t, cty.StringVal("linux"), model.Variables["target"])

	var none printInput
	require.NoError(t, model.Tasks[2].Arguments.Decode(context.Background(), &none))
	assert.Zero(t, none)
}

func TestLoader_Overrides(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pipeline.yml", pipelineYAML)

	model, err := NewLoader(map[string]string{"target": "darwin", "times": "7"}).Load(context.Background(), path)
	require.NoError(t, err)

	var in printInput
	require.NoError(t, model.Tasks[1].Arguments.Decode(context.Background(), &in))
	assert.Equal(t, "building darwin", in.Message)
	assert.Equal(t, 7, in.Count)

	_, err = NewLoader(map[string]string{"times": "lots"}).Load(context.Background(), path)
	assert.ErrorContains(t, err, `variable "times"`)
}

func TestLoader_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", `variables:
  who: world
tasks:
  - name: hello
    kind: print
    arguments:
      message: "hello ${var.who}"
`)
	writeFile(t, dir, "nested/b.yml", `tasks:
  - name: bye
    kind: print
    depends_on: [hello]
    arguments:
      message: "bye ${var.who}"
`)
	writeFile(t, dir, "empty.yaml", "")
	writeFile(t, dir, "notes.txt", "ignored")

	model, err := NewLoader(nil).Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, model.Tasks, 2)

	bye := model.Tasks[1]
	assert.Equal(t, "bye", bye.Name)

	var in printInput
	require.NoError(t, bye.Arguments.Decode(context.Background(), &in))
	assert.Equal(t, "bye world", in.Message)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
		is      error
	}{
		{name: "syntax error", content: "tasks: [", wantErr: "failed to decode YAML file"},
		{name: "unknown top-level key", content: "steps: []", wantErr: "failed to decode YAML file"},
		{name: "unknown task field", content: "tasks:\n  - name: a\n    kind: print\n    color: red\n", wantErr: `unknown task field "color"`},
		{name: "missing kind", content: "tasks:\n  - name: a\n", is: config.ErrMissingKind},
		{name: "unknown dependency", content: "tasks:\n  - name: a\n    kind: print\n    depends_on: [ghost]\n", is: config.ErrUnknownTask},
		{name: "duplicate task", content: "tasks:\n  - {name: a, kind: print}\n  - {name: a, kind: print}\n", is: config.ErrDuplicateTask},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "p.yaml", tt.content)
			_, err := NewLoader(nil).Load(context.Background(), path)
			require.Error(t, err)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			}
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestArguments_DecodeErrors(t *testing.T) {
	path := writeFile(t, t.TempDir(), "p.yaml", `tasks:
  - name: a
    kind: print
    arguments:
      message: x
      bogus: true
  - name: b
    kind: print
    arguments:
      message: "${var.missing}"
`)
	model, err := NewLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)

	var in printInput
	err = model.Tasks[0].Arguments.Decode(context.Background(), &in)
	assert.ErrorContains(t, err, `decoding arguments of task "a"`)
	assert.ErrorContains(t, err, "bogus")

	err = model.Tasks[1].Arguments.Decode(context.Background(), &in)
	assert.ErrorContains(t, err, "missing")
}

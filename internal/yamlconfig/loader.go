// Package yamlconfig provides a YAML implementation of config.Loader.
//
// The document mirrors the HCL format:
//
//	variables:
//	  target: linux
//	tasks:
//	  - name: build
//	    kind: print
//	    depends_on: [fetch]
//	    dependent: publish
//	    arguments:
//	      message: "building ${var.target}"
//
// String arguments may use HCL template syntax to reference variables.
package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/vk/pipegraph/internal/config"
	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/fsutil"
)

// Extensions lists the file suffixes the loader reads from directories.
var Extensions = []string{".yaml", ".yml"}

type fileDoc struct {
	Variables map[string]any `yaml:"variables"`
	Tasks     []taskDoc      `yaml:"tasks"`
}

type taskDoc struct {
	Name      string    `yaml:"name"`
	Kind      string    `yaml:"kind"`
	DependsOn []string  `yaml:"depends_on"`
	Dependent string    `yaml:"dependent"`
	Arguments yaml.Node `yaml:"arguments"`

	line int
}

var taskKeys = []string{"name", "kind", "depends_on", "dependent", "arguments"}

// UnmarshalYAML records the task's line and rejects unknown keys.
func (t *taskDoc) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: task must be a mapping", n.Line)
	}
	for i := 0; i < len(n.Content); i += 2 {
		if key := n.Content[i].Value; !slices.Contains(taskKeys, key) {
			return fmt.Errorf("line %d: unknown task field %q", n.Content[i].Line, key)
		}
	}
	type plain taskDoc
	if err := n.Decode((*plain)(t)); err != nil {
		return err
	}
	t.line = n.Line
	return nil
}

// Loader is the YAML implementation of the config.Loader interface.
type Loader struct {
	overrides map[string]string
}

// NewLoader creates a loader. overrides replace declared variables and are
// converted to each variable's type.
func NewLoader(overrides map[string]string) *Loader {
	return &Loader{overrides: overrides}
}

// Load reads every YAML file found at paths into one model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "path_count", len(paths))

	var files []string
	for _, p := range paths {
		found, err := fsutil.ResolvePath(p, Extensions...)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	type loaded struct {
		path string
		doc  fileDoc
	}
	docs := make([]loaded, 0, len(files))
	declared := make(map[string]cty.Value)
	declaredAt := make(map[string]string)

	for _, path := range files {
		doc, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		for name, raw := range doc.Variables {
			if prev, ok := declaredAt[name]; ok {
				return nil, fmt.Errorf("variable %q declared in %s was already declared in %s", name, path, prev)
			}
			val, err := toCty(raw)
			if err != nil {
				return nil, fmt.Errorf("variable %q in %s: %w", name, path, err)
			}
			declared[name] = val
			declaredAt[name] = path
		}
		docs = append(docs, loaded{path: path, doc: doc})
	}

	vars, err := config.ResolveVariables(declared, l.overrides)
	if err != nil {
		return nil, err
	}
	evalCtx := config.NewEvalContext(vars)

	model := &config.Model{Variables: vars}
	for _, d := range docs {
		for _, td := range d.doc.Tasks {
			model.Tasks = append(model.Tasks, &config.Task{
				Name:      td.Name,
				Kind:      td.Kind,
				DependsOn: td.DependsOn,
				Dependent: td.Dependent,
				Arguments: &arguments{task: td.Name, node: td.Arguments, evalCtx: evalCtx},
				Source:    fmt.Sprintf("%s:%d", d.path, td.line),
			})
		}
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline definition: %w", err)
	}
	logger.Debug("YAML loading complete.", "tasks", len(model.Tasks), "variables", len(vars))
	return model, nil
}

func decodeFile(path string) (fileDoc, error) {
	var doc fileDoc
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("failed to read YAML file %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return doc, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}
	return doc, nil
}

// toCty converts a decoded YAML value into a cty value.
func toCty(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case string:
		return cty.StringVal(val), nil
	case bool:
		return cty.BoolVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case uint64:
		return cty.NumberUIntVal(val), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case []any:
		if len(val) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(val))
		for i, e := range val {
			c, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			elems[i] = c
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		if len(val) == 0 {
			return cty.EmptyObjectVal, nil
		}
		attrs := make(map[string]cty.Value, len(val))
		for k, e := range val {
			c, err := toCty(e)
			if err != nil {
				return cty.NilVal, err
			}
			attrs[k] = c
		}
		return cty.ObjectVal(attrs), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
	}
}

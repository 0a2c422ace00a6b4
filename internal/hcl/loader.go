package hcl

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/pipegraph/internal/config"
	"github.com/vk/pipegraph/internal/ctxlog"
	"github.com/vk/pipegraph/internal/fsutil"
)

// Extensions lists the file suffixes the loader reads from directories.
var Extensions = []string{".hcl", ".hcl.json"}

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	overrides map[string]string
}

// NewLoader creates a loader. overrides replace the defaults of declared
// variables and are converted to each variable's type.
func NewLoader(overrides map[string]string) *Loader {
	return &Loader{overrides: overrides}
}

type parsedFile struct {
	path string
	file *hcl.File
	root fileRoot
}

// Load parses every pipeline file found at paths and translates them into
// one model. Variables from all files share a single namespace.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	var files []string
	for _, p := range paths {
		found, err := fsutil.ResolvePath(p, Extensions...)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	parsed := make([]*parsedFile, 0, len(files))
	declared := make(map[string]cty.Value)
	declaredAt := make(map[string]string)

	for _, path := range files {
		var (
			file  *hcl.File
			diags hcl.Diagnostics
		)
		if strings.HasSuffix(path, ".json") {
			file, diags = parser.ParseJSONFile(path)
		} else {
			file, diags = parser.ParseHCLFile(path)
		}
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}

		pf := &parsedFile{path: path, file: file}
		if diags := gohcl.DecodeBody(file.Body, nil, &pf.root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
		}

		for _, v := range pf.root.Variables {
			if prev, ok := declaredAt[v.Name]; ok {
				return nil, fmt.Errorf("variable %q declared in %s was already declared in %s", v.Name, path, prev)
			}
			val, diags := variableValue(v)
			if diags.HasErrors() {
				return nil, fmt.Errorf("variable %q in %s: %w", v.Name, path, diags)
			}
			declared[v.Name] = val
			declaredAt[v.Name] = path
		}
		parsed = append(parsed, pf)
	}

	vars, err := config.ResolveVariables(declared, l.overrides)
	if err != nil {
		return nil, err
	}
	evalCtx := config.NewEvalContext(vars)

	model := &config.Model{Variables: vars}
	for _, pf := range parsed {
		sources := taskSources(pf)
		for i, tb := range pf.root.Tasks {
			// An empty native body still reports missing required arguments.
			var body hcl.Body = &hclsyntax.Body{SrcRange: hcl.Range{Filename: pf.path}}
			if tb.Arguments != nil {
				body = tb.Arguments.Body
			}
			model.Tasks = append(model.Tasks, &config.Task{
				Name:      tb.Name,
				Kind:      tb.Kind,
				DependsOn: tb.DependsOn,
				Dependent: tb.Dependent,
				Arguments: &arguments{task: tb.Name, body: body, evalCtx: evalCtx},
				Source:    sources[i],
			})
		}
	}

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline definition: %w", err)
	}
	logger.Debug("HCL loading complete.", "tasks", len(model.Tasks), "variables", len(vars))
	return model, nil
}

// variableValue evaluates a variable's default and converts it to the
// declared type. A variable without a default is null of its type.
func variableValue(v *variableBlock) (cty.Value, hcl.Diagnostics) {
	ty := cty.DynamicPseudoType
	if present(v.Type) {
		var diags hcl.Diagnostics
		ty, diags = typeexpr.TypeConstraint(v.Type)
		if diags.HasErrors() {
			return cty.NilVal, diags
		}
	}
	if !present(v.Default) {
		return cty.NullVal(ty), nil
	}

	val, diags := v.Default.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	converted, err := convert.Convert(val, ty)
	if err != nil {
		return cty.NilVal, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid default value",
			Detail:   fmt.Sprintf("default does not match type %s: %s", ty.FriendlyName(), err),
			Subject:  v.Default.Range().Ptr(),
		}}
	}
	return converted, nil
}

// present reports whether an optional attribute was set. gohcl fills a
// missing optional expression with a static null.
func present(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	val, diags := expr.Value(nil)
	return diags.HasErrors() || !val.IsNull()
}

// taskSources returns "file:line" for each task block, in declaration order.
func taskSources(pf *parsedFile) []string {
	out := make([]string, len(pf.root.Tasks))
	for i := range out {
		out[i] = pf.path
	}
	body, ok := pf.file.Body.(*hclsyntax.Body)
	if !ok {
		return out
	}
	i := 0
	for _, b := range body.Blocks {
		if b.Type != "task" || i >= len(out) {
			continue
		}
		out[i] = fmt.Sprintf("%s:%d", pf.path, b.DefRange().Start.Line)
		i++
	}
	return out
}

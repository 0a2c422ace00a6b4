package yamlconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"gopkg.in/yaml.v3"

	"github.com/vk/pipegraph/internal/ctxlog"
)

// arguments implements config.Arguments for a task's `arguments` mapping.
type arguments struct {
	task    string
	node    yaml.Node
	evalCtx *hcl.EvalContext
}

// Decode expands variable templates in string scalars and populates target
// through its `yaml` struct tags. Unknown keys are rejected.
func (a *arguments) Decode(ctx context.Context, target any) error {
	ctxlog.FromContext(ctx).Debug("Decoding YAML arguments.", "task", a.task, "target", fmt.Sprintf("%T", target))
	if a.node.Kind == 0 {
		return nil
	}

	node := clone(&a.node)
	if err := expand(node, a.evalCtx); err != nil {
		return fmt.Errorf("decoding arguments of task %q: %w", a.task, err)
	}

	raw, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("decoding arguments of task %q: %w", a.task, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding arguments of task %q: %w", a.task, err)
	}
	return nil
}

func clone(n *yaml.Node) *yaml.Node {
	c := *n
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = clone(child)
		}
	}
	return &c
}

// expand rewrites every string scalar containing "${" with its rendered
// template. A template made of a single number or bool interpolation keeps
// that type.
func expand(n *yaml.Node, evalCtx *hcl.EvalContext) error {
	if n.Kind == yaml.ScalarNode {
		if n.Tag != "!!str" || !strings.Contains(n.Value, "${") {
			return nil
		}
		return render(n, evalCtx)
	}
	for _, child := range n.Content {
		if err := expand(child, evalCtx); err != nil {
			return err
		}
	}
	return nil
}

func render(n *yaml.Node, evalCtx *hcl.EvalContext) error {
	expr, diags := hclsyntax.ParseTemplate([]byte(n.Value), "arguments", hcl.Pos{Line: n.Line, Column: n.Column, Byte: 0})
	if diags.HasErrors() {
		return fmt.Errorf("line %d: %w", n.Line, diags)
	}
	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return fmt.Errorf("line %d: %w", n.Line, diags)
	}
	if val.IsNull() || !val.IsKnown() {
		return fmt.Errorf("line %d: template %q evaluated to null", n.Line, n.Value)
	}

	switch val.Type() {
	case cty.Bool:
		n.Tag = "!!bool"
	case cty.Number:
		if val.AsBigFloat().IsInt() {
			n.Tag = "!!int"
		} else {
			n.Tag = "!!float"
		}
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return fmt.Errorf("line %d: template %q: %w", n.Line, n.Value, err)
	}
	n.Value = str.AsString()
	n.Style = 0
	return nil
}

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"

	"github.com/vk/pipegraph/internal/ctxlog"
)

// arguments implements config.Arguments for an HCL `arguments` block.
type arguments struct {
	task    string
	body    hcl.Body
	evalCtx *hcl.EvalContext
}

// Decode evaluates the block against the loader's variables and populates
// target through its `hcl` struct tags.
func (a *arguments) Decode(ctx context.Context, target any) error {
	ctxlog.FromContext(ctx).Debug("Decoding HCL arguments.", "task", a.task, "target", fmt.Sprintf("%T", target))
	if diags := gohcl.DecodeBody(a.body, a.evalCtx, target); diags.HasErrors() {
		return fmt.Errorf("decoding arguments of task %q: %w", a.task, diags)
	}
	return nil
}

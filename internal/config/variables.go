package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// NewEvalContext exposes vars to expressions as `var.<name>`.
func NewEvalContext(vars map[string]cty.Value) *hcl.EvalContext {
	obj := cty.EmptyObjectVal
	if len(vars) > 0 {
		obj = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": obj},
	}
}

// ResolveVariables merges string overrides, typically from the command line,
// into declared variables. An override is converted to the type of the
// declared value; overriding an undeclared variable is an error.
func ResolveVariables(declared map[string]cty.Value, overrides map[string]string) (map[string]cty.Value, error) {
	out := maps.Clone(declared)
	if out == nil {
		out = make(map[string]cty.Value, len(overrides))
	}
	for _, name := range slices.Sorted(maps.Keys(overrides)) {
		current, ok := declared[name]
		if !ok {
			return nil, fmt.Errorf("variable %q is not declared", name)
		}
		raw := cty.StringVal(overrides[name])
		if current.Type() == cty.DynamicPseudoType {
			out[name] = raw
			continue
		}
		converted, err := convert.Convert(raw, current.Type())
		if err != nil {
			return nil, fmt.Errorf("variable %q: cannot use %q as %s: %w", name, overrides[name], current.Type().FriendlyName(), err)
		}
		out[name] = converted
	}
	return out, nil
}

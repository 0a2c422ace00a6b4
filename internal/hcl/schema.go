package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes every top-level block a pipeline file may contain.
// Unknown blocks and attributes are rejected.
type fileRoot struct {
	Variables []*variableBlock `hcl:"variable,block"`
	Tasks     []*taskBlock     `hcl:"task,block"`
}

type variableBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

type taskBlock struct {
	Name      string          `hcl:"name,label"`
	Kind      string          `hcl:"kind"`
	DependsOn []string        `hcl:"depends_on,optional"`
	Dependent string          `hcl:"dependent,optional"`
	Arguments *argumentsBlock `hcl:"arguments,block"`
}

// argumentsBlock keeps the raw body so it can be decoded later by the task kind.
type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

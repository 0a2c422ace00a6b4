package testutil

import "github.com/vk/pipegraph/internal/registry"

// SimpleModule is a test helper for registering a single task kind.
type SimpleModule struct {
	Kind    string
	Factory registry.Factory
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.Kind != "" && m.Factory != nil {
		r.Register(m.Kind, m.Factory)
	}
}

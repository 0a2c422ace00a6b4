package config

import "context"

// Loader is the interface for a format-specific pipeline definition loader.
type Loader interface {
	// Load reads every definition file found at the given paths and
	// translates them into a single Model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Arguments is the still-encoded `arguments` section of a task. Decoding is
// deferred until the task kind is known, because only the kind knows the
// shape of its input.
type Arguments interface {
	// Decode populates target, a pointer to a struct, from the arguments.
	// Variable references are resolved during decoding.
	Decode(ctx context.Context, target any) error
}

package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/pipegraph/internal/config"
	"github.com/vk/pipegraph/internal/ctxlog"
)

// ValidateModel checks that every task in model names a registered kind,
// reporting all mismatches at once.
func (r *Registry) ValidateModel(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	var errs []string
	for _, t := range model.Tasks {
		if !r.Has(t.Kind) {
			errs = append(errs, fmt.Sprintf("task '%s' at %s: kind '%s' is not registered", t.Name, t.Source, t.Kind))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s\nregistered kinds: %s", ErrUnknownKind, strings.Join(errs, "\n- "), strings.Join(r.Kinds(), ", "))
	}
	logger.Debug("Registry validation passed.", "tasks", len(model.Tasks))
	return nil
}

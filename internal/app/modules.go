package app

import (
	"io"

	"github.com/vk/pipegraph/internal/registry"
	"github.com/vk/pipegraph/modules/env_vars"
	"github.com/vk/pipegraph/modules/http_request"
	"github.com/vk/pipegraph/modules/print"
	"github.com/vk/pipegraph/modules/sleep"
)

// coreModules is the definitive list of all modules that are compiled into
// the pipegraph binary. print writes to out.
func coreModules(out io.Writer) []registry.Module {
	return []registry.Module{
		&env_vars.Module{},
		&print.Module{Out: out},
		&sleep.Module{},
		&http_request.Module{},
	}
}

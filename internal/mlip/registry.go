package mlip

import (
	"sort"

	"mlipens/pkg/types"
)

// Factory constructs a loaded adapter from model-specific params. Loading
// is expensive (seconds to minutes, possibly accelerator memory); factories
// run once per configured model at startup.
type Factory func(params map[string]any) (*Adapter, error)

var factories = map[string]Factory{}

// Register adds a model factory under its configuration name. Adding a new
// model to the ensemble means registering a factory, not editing a branch
// chain.
func Register(name string, f Factory) {
	factories[name] = f
}

// Names lists the registered model names in sorted order.
func Names() []string {
	out := make([]string, 0, len(factories))
	for name := range factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// New builds one adapter from a configuration entry, failing fast with an
// unsupported-model error when the name is unrecognized.
func New(cfg types.ModelConfig) (*Adapter, error) {
	f, ok := factories[cfg.Name]
	if !ok {
		return nil, ErrUnsupportedModel(cfg.Name)
	}
	return f(cfg.Params)
}

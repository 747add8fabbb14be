package env_vars

import (
	"context"
	"os"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input is empty: this runner takes no arguments.
type Input struct{}

// Deps is an empty struct because this runner does not use any resources.
type Deps struct{}

// OnRunEnvVars exposes the process environment as a step output, letting
// pipelines thread credentials and endpoints into resource arguments.
func OnRunEnvVars(ctx context.Context, deps *Deps, input *Input) (cty.Value, error) {
	envMap := make(map[string]cty.Value)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = cty.StringVal(pair[1])
		}
	}

	all := cty.MapValEmpty(cty.String)
	if len(envMap) > 0 {
		all = cty.MapVal(envMap)
	}
	return cty.ObjectVal(map[string]cty.Value{"all": all}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunEnvVars", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunEnvVars,
	})
}

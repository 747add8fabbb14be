package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/stayops/pricegrid/internal/ctxlog"
)

// ValidateRegistry performs a strict parity check between manifests and Go
// code: every input declared in a manifest must have a matching tagged field
// on the handler's input struct, and vice versa. Lifecycle handler names
// that resolve to nothing are also reported.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Validating registry parity.")

	for runnerType, def := range r.DefinitionRegistry {
		if def.Lifecycle == nil || def.Lifecycle.OnRun == "" {
			errs = append(errs, fmt.Sprintf("runner '%s': manifest declares no on_run handler", runnerType))
			continue
		}
		handler, ok := r.HandlerRegistry[def.Lifecycle.OnRun]
		if !ok {
			errs = append(errs, fmt.Sprintf("runner '%s': handler '%s' is not registered", runnerType, def.Lifecycle.OnRun))
			continue
		}

		if handler.InputType == nil {
			if len(def.Inputs) > 0 {
				errs = append(errs, fmt.Sprintf("runner '%s': manifest declares inputs, but Go handler has no input struct", runnerType))
			}
			continue
		}

		manifestInputs := make(map[string]struct{})
		for name := range def.Inputs {
			manifestInputs[name] = struct{}{}
		}

		goInputs := make(map[string]struct{})
		for i := 0; i < handler.InputType.NumField(); i++ {
			field := handler.InputType.Field(i)
			if !field.IsExported() {
				continue
			}
			tagName := strings.Split(field.Tag.Get("pg"), ",")[0]
			if tagName != "" && tagName != "-" {
				goInputs[tagName] = struct{}{}
			}
		}

		for name := range goInputs {
			if _, ok := manifestInputs[name]; !ok {
				errs = append(errs, fmt.Sprintf("runner '%s': Go struct has field for input '%s' which is not declared in manifest", runnerType, name))
			}
		}
		for name := range manifestInputs {
			if _, ok := goInputs[name]; !ok {
				errs = append(errs, fmt.Sprintf("runner '%s': manifest declares input '%s' which is not found in Go struct", runnerType, name))
			}
		}
	}

	for assetType, def := range r.AssetDefinitionRegistry {
		if def.Lifecycle == nil {
			errs = append(errs, fmt.Sprintf("asset '%s': manifest declares no lifecycle block", assetType))
			continue
		}
		if h, ok := r.AssetHandlerRegistry[def.Lifecycle.Create]; !ok || h.CreateFn == nil {
			errs = append(errs, fmt.Sprintf("asset '%s': create handler '%s' is not registered", assetType, def.Lifecycle.Create))
		}
		if h, ok := r.AssetHandlerRegistry[def.Lifecycle.Destroy]; !ok || h.DestroyFn == nil {
			errs = append(errs, fmt.Sprintf("asset '%s': destroy handler '%s' is not registered", assetType, def.Lifecycle.Destroy))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// AssetInterfaceFor returns the registered Go contract for an asset type,
// or nil when none was registered.
func (r *Registry) AssetInterfaceFor(assetType string) reflect.Type {
	return r.AssetInterfaceRegistry[assetType]
}

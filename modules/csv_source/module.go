package csv_source

import (
	"context"
	"fmt"
	"os"
	"reflect"

	"github.com/zclconf/go-cty/cty"

	"github.com/stayops/pricegrid/internal/ctxlog"
	"github.com/stayops/pricegrid/internal/dataset"
	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the csv_source runner.
type Input struct {
	Path string `pg:"path"`
	Name string `pg:"name"`
}

// Deps declares the resources used by this runner.
type Deps struct {
	Store *dataset.Store `pg:"store"`
}

// OnRunCSVSource loads a local CSV file into the dataset store.
func OnRunCSVSource(ctx context.Context, deps *Deps, input *Input) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("dataset", input.Name)
	logger.Info("Loading CSV file", "path", input.Path)

	file, err := os.Open(input.Path)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to open CSV file %q: %w", input.Path, err)
	}
	defer file.Close()

	frame, err := dataset.ParseCSV(file, input.Name)
	if err != nil {
		return cty.NilVal, err
	}
	deps.Store.Put(input.Name, frame)

	logger.Info("Dataset loaded", "rows", frame.NumRows(), "columns", frame.NumCols())
	return cty.ObjectVal(map[string]cty.Value{
		"name":    cty.StringVal(input.Name),
		"rows":    cty.NumberIntVal(int64(frame.NumRows())),
		"columns": cty.NumberIntVal(int64(frame.NumCols())),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunCSVSource", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunCSVSource,
	})
}

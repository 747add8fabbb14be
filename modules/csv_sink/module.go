package csv_sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/zclconf/go-cty/cty"

	"github.com/stayops/pricegrid/internal/ctxlog"
	"github.com/stayops/pricegrid/internal/dataset"
	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the csv_sink runner.
type Input struct {
	Dataset string `pg:"dataset"`
	Path    string `pg:"path"`
}

// Deps declares the resources used by this runner.
type Deps struct {
	Store *dataset.Store `pg:"store"`
}

// OnRunCSVSink writes a stored dataset back out as a CSV file.
func OnRunCSVSink(ctx context.Context, deps *Deps, input *Input) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("dataset", input.Dataset)

	frame, err := deps.Store.Get(input.Dataset)
	if err != nil {
		return cty.NilVal, err
	}

	if err := os.MkdirAll(filepath.Dir(input.Path), 0o755); err != nil {
		return cty.NilVal, fmt.Errorf("failed to create directory for %q: %w", input.Path, err)
	}
	file, err := os.Create(input.Path)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to create %q: %w", input.Path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(frame.ColumnNames()); err != nil {
		return cty.NilVal, fmt.Errorf("failed to write header to %q: %w", input.Path, err)
	}
	for i := 0; i < frame.NumRows(); i++ {
		if err := writer.Write(frame.Row(i)); err != nil {
			return cty.NilVal, fmt.Errorf("failed to write row %d to %q: %w", i, input.Path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return cty.NilVal, fmt.Errorf("failed to flush %q: %w", input.Path, err)
	}

	logger.Info("Dataset written as CSV", "path", input.Path, "rows", frame.NumRows())
	return cty.ObjectVal(map[string]cty.Value{
		"path": cty.StringVal(input.Path),
		"rows": cty.NumberIntVal(int64(frame.NumRows())),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunCSVSink", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunCSVSink,
	})
}

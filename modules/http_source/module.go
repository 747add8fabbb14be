package http_source

import (
	"bytes"
	"context"
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"resty.dev/v3"

	"github.com/stayops/pricegrid/internal/ctxlog"
	"github.com/stayops/pricegrid/internal/dataset"
	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the http_source runner.
type Input struct {
	URL  string `pg:"url"`
	Name string `pg:"name"`
}

// Deps declares the resources used by this runner.
type Deps struct {
	Client *resty.Client  `pg:"client"`
	Store  *dataset.Store `pg:"store"`
}

// OnRunHTTPSource downloads a CSV document over HTTP and loads it into the
// dataset store.
func OnRunHTTPSource(ctx context.Context, deps *Deps, input *Input) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("dataset", input.Name)
	logger.Info("Fetching CSV over HTTP", "url", input.URL)

	resp, err := deps.Client.R().SetContext(ctx).Get(input.URL)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to fetch %q: %w", input.URL, err)
	}
	if resp.IsError() {
		return cty.NilVal, fmt.Errorf("fetch of %q returned status %s", input.URL, resp.Status())
	}

	frame, err := dataset.ParseCSV(bytes.NewReader(resp.Bytes()), input.Name)
	if err != nil {
		return cty.NilVal, err
	}
	deps.Store.Put(input.Name, frame)

	logger.Info("Dataset loaded", "rows", frame.NumRows(), "columns", frame.NumCols(), "status", resp.Status())
	return cty.ObjectVal(map[string]cty.Value{
		"name":    cty.StringVal(input.Name),
		"rows":    cty.NumberIntVal(int64(frame.NumRows())),
		"columns": cty.NumberIntVal(int64(frame.NumCols())),
		"status":  cty.StringVal(resp.Status()),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunHTTPSource", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunHTTPSource,
	})
}

package quality_report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/stayops/pricegrid/internal/ctxlog"
	"github.com/stayops/pricegrid/internal/dataset"
	"github.com/stayops/pricegrid/internal/htmlreport"
	"github.com/stayops/pricegrid/internal/quality"
	"github.com/stayops/pricegrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the quality_report runner.
type Input struct {
	Dataset   string `pg:"dataset"`
	OutputDir string `pg:"output_dir"`
}

// Deps declares the resources used by this runner.
type Deps struct {
	Store *dataset.Store `pg:"store"`
}

// OnRunQualityReport analyzes a stored dataset and writes the report as both
// plain text and HTML into the output directory.
func OnRunQualityReport(ctx context.Context, deps *Deps, input *Input) (cty.Value, error) {
	logger := ctxlog.FromContext(ctx).With("dataset", input.Dataset)
	logger.Info("Analyzing dataset quality")

	frame, err := deps.Store.Get(input.Dataset)
	if err != nil {
		return cty.NilVal, err
	}

	report := quality.Analyze(frame, time.Now())

	if err := os.MkdirAll(input.OutputDir, 0o755); err != nil {
		return cty.NilVal, fmt.Errorf("failed to create output directory %q: %w", input.OutputDir, err)
	}

	textPath := filepath.Join(input.OutputDir, fmt.Sprintf("data_quality_%s.txt", input.Dataset))
	if err := os.WriteFile(textPath, []byte(report.Text()), 0o644); err != nil {
		return cty.NilVal, fmt.Errorf("failed to write text report: %w", err)
	}

	htmlPath := filepath.Join(input.OutputDir, fmt.Sprintf("data_quality_%s.html", input.Dataset))
	htmlFile, err := os.Create(htmlPath)
	if err != nil {
		return cty.NilVal, fmt.Errorf("failed to create HTML report: %w", err)
	}
	defer htmlFile.Close()
	if err := htmlreport.Render(htmlFile, report); err != nil {
		return cty.NilVal, err
	}

	warnings := report.CountBySeverity(quality.SeverityWarning)
	criticals := report.CountBySeverity(quality.SeverityCritical)
	logger.Info("Quality report written",
		"text_path", textPath, "html_path", htmlPath,
		"warnings", warnings, "criticals", criticals)

	return cty.ObjectVal(map[string]cty.Value{
		"text_path": cty.StringVal(textPath),
		"html_path": cty.StringVal(htmlPath),
		"warnings":  cty.NumberIntVal(int64(warnings)),
		"criticals": cty.NumberIntVal(int64(criticals)),
	}), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterRunner("OnRunQualityReport", &registry.RegisteredRunner{
		NewInput:  func() any { return new(Input) },
		InputType: reflect.TypeOf(Input{}),
		NewDeps:   func() any { return new(Deps) },
		Fn:        OnRunQualityReport,
	})
}

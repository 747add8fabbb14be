package htmlreport

import (
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/stayops/pricegrid/internal/quality"
)

//go:embed report.html.tmpl
var reportTemplate string

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// Render writes a quality report as a standalone HTML document.
func Render(w io.Writer, report *quality.Report) error {
	data := struct {
		*quality.Report
		Warnings  int
		Criticals int
	}{
		Report:    report,
		Warnings:  report.CountBySeverity(quality.SeverityWarning),
		Criticals: report.CountBySeverity(quality.SeverityCritical),
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML report: %w", err)
	}
	return nil
}

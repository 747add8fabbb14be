package htmlreport

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayops/pricegrid/internal/quality"
)

func sampleReport() *quality.Report {
	r := &quality.Report{
		Dataset:     "bookings",
		GeneratedAt: time.Date(2025, 8, 24, 9, 30, 0, 0, time.UTC),
		Rows:        120,
		Cols:        14,
	}
	s := &quality.Section{Title: "DUPLICATE RECORDS ANALYSIS"}
	s.Add(quality.SeverityInfo, "Complete duplicate rows: 0 (0.00%%)")
	s.Add(quality.SeverityWarning, "3 duplicate Booking IDs")
	s.Add(quality.SeverityCritical, "column %q has a critical missing rate: %.2f%%", "Promo Code", 42.5)
	r.Sections = append(r.Sections, s)
	return r
}

func TestRenderProducesHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport()))
	out := buf.String()

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "bookings")
	assert.Contains(t, out, "120 rows, 14 columns")
	assert.Contains(t, out, "1 warnings")
	assert.Contains(t, out, "1 critical")
	assert.Contains(t, out, "DUPLICATE RECORDS ANALYSIS")
	assert.Contains(t, out, "3 duplicate Booking IDs")
}

func TestRenderEscapesContent(t *testing.T) {
	r := &quality.Report{Dataset: "<script>alert(1)</script>", GeneratedAt: time.Now()}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	assert.NotContains(t, buf.String(), "<script>alert(1)</script>")
}

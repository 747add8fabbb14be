package quality

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayops/pricegrid/internal/dataset"
)

// messyCSV exercises most checks at once: a duplicated row, a duplicated
// Booking ID, a sparse promo column, a channel with case variants, a future
// date, and one row whose total does not reconcile.
const messyCSV = `Booking ID,Created At,Party Size,Reservation Cost ($),Packages Cost ($),Add Ons Cost ($),Promo Code Discount ($),Total Cost ($),Packages,Channel
B-1,2025-06-01,2,100.00,20.00,5.00,0.00,125.00,Spa,Web
B-2,2025-06-02,4,200.00,0.00,0.00,10.00,190.00,,Phone
B-3,2025-06-03,3,150.00,30.00,0.00,0.00,999.00,Golf,web
B-4,2030-01-01,2,80.00,0.00,0.00,0.00,80.00,,Web
B-4,2025-06-05,5,120.00,10.00,5.00,0.00,135.00,Dinner,Phone
B-6,2025-06-06,2,90.00,0.00,10.00,0.00,100.00,,WEB
B-6,2025-06-06,2,90.00,0.00,10.00,0.00,100.00,,WEB
`

func parseFixture(t *testing.T) *dataset.Frame {
	t.Helper()
	frame, err := dataset.ParseCSV(strings.NewReader(messyCSV), "bookings")
	require.NoError(t, err)
	return frame
}

func analyzeFixture(t *testing.T) *Report {
	t.Helper()
	now := time.Date(2025, 8, 24, 12, 0, 0, 0, time.UTC)
	return Analyze(parseFixture(t), now)
}

func findingMessages(r *Report) []string {
	var out []string
	for _, s := range r.Sections {
		for _, f := range s.Findings {
			out = append(out, f.Message)
		}
	}
	return out
}

func assertAnyContains(t *testing.T, messages []string, substr string) {
	t.Helper()
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return
		}
	}
	t.Errorf("no finding contains %q; findings:\n%s", substr, strings.Join(messages, "\n"))
}

func TestAnalyzeSectionCount(t *testing.T) {
	report := analyzeFixture(t)
	require.Len(t, report.Sections, 10)
	assert.Equal(t, 7, report.Rows)
	assert.Equal(t, 10, report.Cols)
}

func TestAnalyzeDetectsDuplicates(t *testing.T) {
	report := analyzeFixture(t)
	messages := findingMessages(report)

	assertAnyContains(t, messages, "1 complete duplicate rows")
	// B-4 and B-6 each occur twice.
	assertAnyContains(t, messages, "2 duplicate Booking IDs")
}

func TestAnalyzeDetectsCaseVariants(t *testing.T) {
	report := analyzeFixture(t)
	messages := findingMessages(report)
	assertAnyContains(t, messages, `case/spacing variants`)
}

func TestAnalyzeDetectsFutureDates(t *testing.T) {
	report := analyzeFixture(t)
	messages := findingMessages(report)
	assertAnyContains(t, messages, "1 future dates detected")
}

func TestAnalyzeDetectsCostMismatch(t *testing.T) {
	report := analyzeFixture(t)
	messages := findingMessages(report)
	// Only B-3's stated total (999.00 vs 180.00) fails to reconcile.
	assertAnyContains(t, messages, "1 reservations have inconsistent total costs")
}

func TestAnalyzeCriticalMissingRate(t *testing.T) {
	report := analyzeFixture(t)
	messages := findingMessages(report)
	// The Packages column is empty on 4 of 7 rows.
	assertAnyContains(t, messages, `column "Packages" has a critical missing rate`)
	assert.Greater(t, report.CountBySeverity(SeverityCritical), 0)
}

func TestAnalyzeCleanDataset(t *testing.T) {
	src := "Booking ID,Party Size\nB-1,2\nB-2,4\n"
	frame, err := dataset.ParseCSV(strings.NewReader(src), "clean")
	require.NoError(t, err)

	report := Analyze(frame, time.Date(2025, 8, 24, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0, report.CountBySeverity(SeverityWarning))
	assert.Equal(t, 0, report.CountBySeverity(SeverityCritical))

	last := report.Sections[len(report.Sections)-1]
	require.NotEmpty(t, last.Findings)
	assert.Contains(t, last.Findings[0].Message, "No significant data quality issues")
}

func TestReportText(t *testing.T) {
	report := analyzeFixture(t)
	text := report.Text()

	assert.Contains(t, text, "BOOKING DATA QUALITY ANALYSIS")
	assert.Contains(t, text, "1. BASIC DATASET INFORMATION")
	assert.Contains(t, text, "10. DATA QUALITY SUMMARY")
	assert.Contains(t, text, "DATA QUALITY ANALYSIS COMPLETE")
}

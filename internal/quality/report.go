package quality

import (
	"fmt"
	"strings"
	"time"
)

// Severity classifies a finding.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityCritical
)

// String returns a human-readable name for the severity.
func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "INFO"
	}
}

// Finding is a single observation produced by a check.
type Finding struct {
	Severity Severity
	Message  string
}

// Section groups the findings of one check.
type Section struct {
	Title    string
	Findings []Finding
}

// Add appends a finding to the section.
func (s *Section) Add(sev Severity, format string, args ...any) {
	s.Findings = append(s.Findings, Finding{Severity: sev, Message: fmt.Sprintf(format, args...)})
}

// Report is the full result of a quality analysis over one dataset.
type Report struct {
	Dataset     string
	GeneratedAt time.Time
	Rows        int
	Cols        int
	Sections    []*Section
}

// addSection creates, registers, and returns a new section.
func (r *Report) addSection(title string) *Section {
	s := &Section{Title: title}
	r.Sections = append(r.Sections, s)
	return s
}

// CountBySeverity returns the number of findings at the given severity.
func (r *Report) CountBySeverity(sev Severity) int {
	n := 0
	for _, section := range r.Sections {
		for _, f := range section.Findings {
			if f.Severity == sev {
				n++
			}
		}
	}
	return n
}

// Issues returns all warning and critical findings across sections.
func (r *Report) Issues() []Finding {
	var out []Finding
	for _, section := range r.Sections {
		for _, f := range section.Findings {
			if f.Severity != SeverityInfo {
				out = append(out, f)
			}
		}
	}
	return out
}

// Text renders the report as a banner-delimited plain text document.
func (r *Report) Text() string {
	var b strings.Builder
	wide := strings.Repeat("=", 80)
	narrow := strings.Repeat("=", 40)

	fmt.Fprintln(&b, wide)
	fmt.Fprintln(&b, "BOOKING DATA QUALITY ANALYSIS")
	fmt.Fprintln(&b, wide)
	fmt.Fprintf(&b, "\nDataset: %s (%d rows, %d columns)\n", r.Dataset, r.Rows, r.Cols)

	for i, section := range r.Sections {
		fmt.Fprintf(&b, "\n%s\n%d. %s\n%s\n", narrow, i+1, section.Title, narrow)
		for _, f := range section.Findings {
			if f.Severity == SeverityInfo {
				fmt.Fprintln(&b, f.Message)
			} else {
				fmt.Fprintf(&b, "%s: %s\n", f.Severity, f.Message)
			}
		}
	}

	fmt.Fprintf(&b, "\n%s\nDATA QUALITY ANALYSIS COMPLETE\n%s\n", wide, wide)
	return b.String()
}

// Package runmeta carries the identity of a single pipeline run: the run
// date that keys all produced artifacts, and a unique run ID for logs and
// object-store prefixes.
package runmeta

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zclconf/go-cty/cty"
)

// DateLayout is the wire format for run dates, matching the documented
// operator convention (e.g. master_dataset_2025-05-04.csv).
const DateLayout = "2006-01-02"

// Run identifies one execution of a pipeline.
type Run struct {
	ID   string
	Date string
}

// New builds a Run for the given date string. An empty date defaults to
// yesterday, which is the daily-batch convention: a run processes the
// previous day's bookings.
func New(date string) (*Run, error) {
	if date == "" {
		date = time.Now().AddDate(0, 0, -1).Format(DateLayout)
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid run date %q (want YYYY-MM-DD): %w", date, err)
	}
	return &Run{
		ID:   uuid.NewString(),
		Date: date,
	}, nil
}

// CtyValue exposes the run identity to HCL expressions as the `run` variable.
func (r *Run) CtyValue() cty.Value {
	return cty.ObjectVal(map[string]cty.Value{
		"id":   cty.StringVal(r.ID),
		"date": cty.StringVal(r.Date),
	})
}

package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/stayops/pricegrid/internal/dataset"
)

const (
	// criticalMissingPct is the missing-rate threshold above which a column
	// is flagged as critical.
	criticalMissingPct = 20.0

	// maxCategoryCardinality bounds which string columns get consistency
	// checks; columns with this many or more distinct values are skipped.
	maxCategoryCardinality = 20

	// minValidYear is the earliest plausible year for a booking date.
	minValidYear = 2000

	// costEpsilon is the rounding tolerance when reconciling cost totals.
	costEpsilon = 0.01
)

// keyNumericColumns are the columns checked for outliers when present.
var keyNumericColumns = []string{
	"Party Size",
	"Search Days Ahead",
	"Reservation Days Ahead",
	"Total Cost ($)",
	"Reservation Cost ($)",
}

// Analyze runs the full quality analysis over a frame. The reference time is
// used for future-date detection so runs are reproducible.
func Analyze(f *dataset.Frame, now time.Time) *Report {
	r := &Report{
		Dataset:     f.Name,
		GeneratedAt: now,
		Rows:        f.NumRows(),
		Cols:        f.NumCols(),
	}

	checkBasicInfo(r, f)
	checkDataTypes(r, f)
	checkMissingValues(r, f)
	checkDuplicates(r, f)
	checkOutliers(r, f)
	checkValueConsistency(r, f)
	checkDateRanges(r, f, now)
	checkNumericFields(r, f)
	checkLogicalConsistency(r, f)
	summarize(r, f)

	return r
}

func checkBasicInfo(r *Report, f *dataset.Frame) {
	s := r.addSection("BASIC DATASET INFORMATION")
	s.Add(SeverityInfo, "Number of records: %d", f.NumRows())
	s.Add(SeverityInfo, "Number of columns: %d", f.NumCols())
}

// checkDataTypes reports the inferred type of every column, plus columns
// whose name suggests a type the values did not support.
func checkDataTypes(r *Report, f *dataset.Frame) {
	s := r.addSection("DATA TYPES ANALYSIS")
	for _, col := range f.Columns {
		s.Add(SeverityInfo, "Column %q: %s", col.Name, col.Kind)
	}
	for _, col := range f.Columns {
		suggested := dataset.KindForName(col.Name)
		if suggested != dataset.KindString && col.Kind == dataset.KindString {
			s.Add(SeverityWarning, "column %q might be %s but is stored as string", col.Name, suggested)
		}
	}
}

func checkMissingValues(r *Report, f *dataset.Frame) {
	s := r.addSection("MISSING VALUES ANALYSIS")

	type missing struct {
		name    string
		count   int
		percent float64
	}
	var cols []missing
	totalMissing := 0
	for _, col := range f.Columns {
		n := col.NullCount()
		totalMissing += n
		if n > 0 {
			cols = append(cols, missing{
				name:    col.Name,
				count:   n,
				percent: float64(n) / float64(f.NumRows()) * 100,
			})
		}
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].count > cols[j].count })

	totalCells := f.TotalCells()
	pct := 0.0
	if totalCells > 0 {
		pct = float64(totalMissing) / float64(totalCells) * 100
	}
	s.Add(SeverityInfo, "Total missing values: %d out of %d cells (%.2f%%)", totalMissing, totalCells, pct)

	if len(cols) == 0 {
		s.Add(SeverityInfo, "No missing values found in any column.")
		return
	}
	for _, m := range cols {
		s.Add(SeverityInfo, "Column %q: %d missing (%.2f%%)", m.name, m.count, m.percent)
	}
	for _, m := range cols {
		if m.percent > criticalMissingPct {
			s.Add(SeverityCritical, "column %q has a critical missing rate: %.2f%%", m.name, m.percent)
		}
	}
}

func checkDuplicates(r *Report, f *dataset.Frame) {
	s := r.addSection("DUPLICATE RECORDS ANALYSIS")

	dupes := f.DuplicateRowCount()
	pct := 0.0
	if f.NumRows() > 0 {
		pct = float64(dupes) / float64(f.NumRows()) * 100
	}
	if dupes > 0 {
		s.Add(SeverityWarning, "%d complete duplicate rows (%.2f%%)", dupes, pct)
	} else {
		s.Add(SeverityInfo, "Complete duplicate rows: 0 (0.00%%)")
	}

	for _, idCol := range []string{"Booking ID", "Reservation ID"} {
		col, ok := f.Column(idCol)
		if !ok {
			continue
		}
		idDupes := duplicateValueCount(col)
		if idDupes > 0 {
			s.Add(SeverityWarning, "%d duplicate %ss", idDupes, idCol)
		} else {
			s.Add(SeverityInfo, "Duplicate %ss: 0", idCol)
		}
	}
}

// duplicateValueCount counts non-null cells whose value occurred earlier in
// the column.
func duplicateValueCount(col *dataset.Column) int {
	seen := make(map[string]bool)
	dupes := 0
	for i, v := range col.Raw {
		if col.Null[i] {
			continue
		}
		if seen[v] {
			dupes++
		} else {
			seen[v] = true
		}
	}
	return dupes
}

func checkOutliers(r *Report, f *dataset.Frame) {
	s := r.addSection("OUTLIER DETECTION")

	for _, name := range keyNumericColumns {
		col, ok := f.Column(name)
		if !ok || col.Kind != dataset.KindNumber {
			continue
		}
		values := col.NumberValues()
		if len(values) == 0 {
			continue
		}
		lower, upper := dataset.IQRBounds(values)

		var outliers []float64
		for _, v := range values {
			if v < lower || v > upper {
				outliers = append(outliers, v)
			}
		}
		pct := float64(len(outliers)) / float64(f.NumRows()) * 100

		s.Add(SeverityInfo, "Outliers in %q: bounds [%.2f, %.2f], %d outliers (%.2f%%)",
			name, lower, upper, len(outliers), pct)
		if len(outliers) > 0 && len(outliers) < 10 {
			s.Add(SeverityWarning, "sample outlier values in %q: %s", name, formatSample(outliers, 5))
		} else if len(outliers) >= 10 {
			s.Add(SeverityWarning, "%d outliers detected in %q", len(outliers), name)
		}
	}
}

func formatSample(values []float64, limit int) string {
	if len(values) > limit {
		values = values[:limit]
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// checkValueConsistency looks for case and spacing variants inside
// low-cardinality string columns.
func checkValueConsistency(r *Report, f *dataset.Frame) {
	s := r.addSection("VALUE CONSISTENCY CHECKS")

	for _, col := range f.Columns {
		if col.Kind != dataset.KindString {
			continue
		}
		unique := col.UniqueCount()
		if unique <= 1 || unique >= maxCategoryCardinality {
			continue
		}
		s.Add(SeverityInfo, "Column %q has %d unique values: %s", col.Name, unique, formatValueCounts(col.ValueCounts()))

		groups := variantGroups(col)
		for _, variants := range groups {
			s.Add(SeverityWarning, "column %q has case/spacing variants of the same value: %v", col.Name, variants)
		}
	}
}

// variantGroups buckets distinct raw values by their lower-cased, trimmed
// form and returns the buckets holding more than one variant, ordered by
// normalized key.
func variantGroups(col *dataset.Column) [][]string {
	byNorm := make(map[string][]string)
	seen := make(map[string]bool)
	for i, v := range col.Raw {
		if col.Null[i] || seen[v] {
			continue
		}
		seen[v] = true
		norm := strings.ToLower(strings.TrimSpace(v))
		byNorm[norm] = append(byNorm[norm], v)
	}

	var keys []string
	for norm, variants := range byNorm {
		if len(variants) > 1 {
			keys = append(keys, norm)
		}
	}
	sort.Strings(keys)

	out := make([][]string, 0, len(keys))
	for _, k := range keys {
		variants := byNorm[k]
		sort.Strings(variants)
		out = append(out, variants)
	}
	return out
}

func formatValueCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%q: %d", k, counts[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func checkDateRanges(r *Report, f *dataset.Frame, now time.Time) {
	s := r.addSection("DATE RANGE VALIDATION")

	for _, col := range f.Columns {
		if col.Kind != dataset.KindDate {
			continue
		}
		times := col.TimeValues()
		if len(times) == 0 {
			s.Add(SeverityWarning, "column %q holds no parseable dates", col.Name)
			continue
		}
		minDate, maxDate := times[0], times[0]
		future := 0
		preModern := 0
		for _, t := range times {
			if t.Before(minDate) {
				minDate = t
			}
			if t.After(maxDate) {
				maxDate = t
			}
			if t.After(now) {
				future++
			}
			if t.Year() < minValidYear {
				preModern++
			}
		}

		s.Add(SeverityInfo, "Date range for %q: %s to %s",
			col.Name, minDate.Format("2006-01-02"), maxDate.Format("2006-01-02"))
		if future > 0 {
			s.Add(SeverityWarning, "%d future dates detected in %q (%.2f%%)",
				future, col.Name, float64(future)/float64(f.NumRows())*100)
		}
		if preModern > 0 {
			s.Add(SeverityWarning, "%d dates before year %d detected in %q (possible errors)",
				preModern, minValidYear, col.Name)
		}
	}
}

func checkNumericFields(r *Report, f *dataset.Frame) {
	s := r.addSection("NUMERIC FIELDS VALIDATION")

	for _, col := range f.Columns {
		if col.Kind != dataset.KindNumber {
			continue
		}
		values := col.NumberValues()
		if len(values) == 0 {
			continue
		}
		stats := dataset.Describe(values)
		s.Add(SeverityInfo,
			"Statistics for %q: count=%d mean=%.2f std=%.2f min=%.2f q25=%.2f median=%.2f q75=%.2f max=%.2f",
			col.Name, stats.Count, stats.Mean, stats.StdDev, stats.Min, stats.Q25, stats.Median, stats.Q75, stats.Max)

		if shouldBePositive(col.Name) {
			negatives := 0
			for _, v := range values {
				if v < 0 {
					negatives++
				}
			}
			if negatives > 0 {
				s.Add(SeverityWarning, "%d negative values detected in %q (%.2f%%)",
					negatives, col.Name, float64(negatives)/float64(f.NumRows())*100)
			}
		}

		zeros := 0
		for _, v := range values {
			if v == 0 {
				zeros++
			}
		}
		if zeros > 0 {
			s.Add(SeverityInfo, "Zero values in %q: %d (%.2f%%)",
				col.Name, zeros, float64(zeros)/float64(f.NumRows())*100)
		}
	}
}

// shouldBePositive reports whether a numeric column is expected to carry
// non-negative values.
func shouldBePositive(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range []string{"cost", "price", "amount", "size"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func checkLogicalConsistency(r *Report, f *dataset.Frame) {
	s := r.addSection("LOGICAL CONSISTENCY CHECKS")

	// A row with packages listed should carry a non-zero package cost.
	packagesCol, hasPackages := f.Column("Packages")
	packagesCost, hasPackagesCost := f.Column("Packages Cost ($)")
	if hasPackages && hasPackagesCost {
		zeroCost := 0
		for i := 0; i < f.NumRows(); i++ {
			if packagesCol.Null[i] || strings.TrimSpace(packagesCol.Raw[i]) == "" {
				continue
			}
			if v, ok := packagesCost.NumberAt(i); ok && v == 0 {
				zeroCost++
			}
		}
		if zeroCost > 0 {
			s.Add(SeverityWarning, "%d reservations have packages but zero package cost", zeroCost)
		} else {
			s.Add(SeverityInfo, "All reservations with packages carry a package cost.")
		}
	}

	// The stated total should reconcile with its components.
	total, hasTotal := f.Column("Total Cost ($)")
	reservation, hasReservation := f.Column("Reservation Cost ($)")
	addOns, hasAddOns := f.Column("Add Ons Cost ($)")
	promo, hasPromo := f.Column("Promo Code Discount ($)")
	if hasTotal && hasReservation && hasPackagesCost && hasAddOns {
		inconsistent := 0
		var discrepancySum float64
		for i := 0; i < f.NumRows(); i++ {
			t, ok1 := total.NumberAt(i)
			res, ok2 := reservation.NumberAt(i)
			pkg, ok3 := packagesCost.NumberAt(i)
			add, ok4 := addOns.NumberAt(i)
			if !ok1 || !ok2 || !ok3 || !ok4 {
				continue
			}
			calculated := res + pkg + add
			if hasPromo {
				if d, ok := promo.NumberAt(i); ok {
					calculated -= d
				}
			}
			diff := math.Abs(t - calculated)
			if diff > costEpsilon {
				inconsistent++
				discrepancySum += diff
			}
		}
		if inconsistent > 0 {
			s.Add(SeverityWarning, "%d reservations have inconsistent total costs (average discrepancy $%.2f)",
				inconsistent, discrepancySum/float64(inconsistent))
		} else {
			s.Add(SeverityInfo, "All totals reconcile with their cost components.")
		}
	}
}

func summarize(r *Report, f *dataset.Frame) {
	s := r.addSection("DATA QUALITY SUMMARY")

	warnings := r.CountBySeverity(SeverityWarning)
	criticals := r.CountBySeverity(SeverityCritical)
	if warnings == 0 && criticals == 0 {
		s.Add(SeverityInfo, "No significant data quality issues were identified.")
		return
	}
	s.Add(SeverityInfo, "The following data quality issues were identified:")
	for _, issue := range r.Issues() {
		s.Add(SeverityInfo, "- %s", issue.Message)
	}
}

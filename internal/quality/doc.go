// Package quality analyzes booking datasets for data quality problems:
// suspicious column types, missing values, duplicates, outliers, value
// inconsistencies, implausible dates, and cost totals that fail to
// reconcile. The result is a sectioned Report that downstream modules
// render as text or HTML.
package quality

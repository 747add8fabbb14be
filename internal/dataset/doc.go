// Package dataset provides the column-oriented table model shared by all
// pipeline modules: CSV parsing with keyword-driven type inference,
// descriptive statistics, and a concurrency-safe named store for passing
// tables between steps.
package dataset

// Package testutil provides the shared harness for end-to-end pipeline
// tests: temp-dir HCL fixtures, a thread-safe log buffer, and panic-safe
// application startup.
package testutil

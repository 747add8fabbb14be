// Package config defines the format-agnostic configuration model for the
// engine. Loaders (e.g. the HCL loader) translate their native syntax into
// this model; everything downstream of loading (registry, DAG, executor)
// depends only on this package, never on a concrete file format.
package config

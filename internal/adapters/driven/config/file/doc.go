// Package file provides file-backed configuration: the YAML pipeline
// config (sources, routes, pipeline tuning) and a TOML settings store
// for operator-level defaults.
package file

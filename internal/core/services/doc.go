// Package services contains the pipeline core: the phase orchestrator
// and the ingest, transform, build, and cleanup phases it sequences.
// Services depend only on domain types and driven ports; adapters are
// injected at startup.
package services

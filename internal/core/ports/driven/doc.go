// Package driven defines the outbound ports of the pipeline core:
// connectors, the content store, the state repository, format handlers
// and the publisher. Adapters implement these interfaces; the core
// depends only on the contracts.
package driven

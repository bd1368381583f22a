// Package domain contains the core entities of the harvesting pipeline:
// sources, ingested files, records, routes and the format taxonomy.
// It has no dependencies on adapters or services.
package domain

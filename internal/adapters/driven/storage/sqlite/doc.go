// Package sqlite implements the state repository on SQLite. One
// database file holds the four pipeline tables (sources, seen_files,
// records, published_artifacts); the store hands out typed wrappers
// for each port interface. WAL mode keeps concurrent readers safe and
// a bounded busy timeout serializes writers without blocking forever.
package sqlite

// Package formats implements the closed set of format handlers: three
// line-based formats (config lines, proxy URI text, subscription
// files) and the opaque container family bundled into zip archives at
// build time. Handlers are pure functions over bytes; they never touch
// the network or the state repository.
package formats

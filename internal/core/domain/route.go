package domain

import "time"

// Destination is one publish target of a route.
type Destination struct {
	// ChatID addresses the delivery target.
	ChatID string

	// Mode selects publish behaviour: "always" re-posts every run,
	// "on_change" posts only when the artifact hash moved.
	Mode string

	// CaptionTemplate is an optional caption for published documents.
	CaptionTemplate string

	// Token optionally overrides the publisher credential per
	// destination.
	Token string
}

// Route is a named aggregation policy: which sources feed it, which
// formats it builds, and where the results go.
type Route struct {
	Name         string
	FromSources  []string
	Formats      []FormatID
	Destinations []Destination
}

// Artifact is the built output of one route/format pair, plus the
// change-detection verdict the publisher consults.
type Artifact struct {
	RouteName string
	Format    FormatID

	// Name is the artifact filename (e.g. "main.npvt"). Secondary
	// outputs derived from it (decoded JSON, base64 subscription) are
	// written under Name plus a suffix and never published outbound.
	Name string

	// Data is the finished artifact bytes.
	Data []byte

	// Hash is the content hash of Data.
	Hash string

	// RecordCount is the number of deduplicated records merged in.
	RecordCount int

	// Changed is false when Hash equals the route's last published
	// artifact hash. The artifact is still produced; only outbound
	// publication is skipped.
	Changed bool
}

// PublishedArtifact is the last known published state of a route
// output, historized by insertion order.
type PublishedArtifact struct {
	RouteName    string
	ArtifactHash string
	PublishedAt  time.Time
	Metadata     map[string]any
}

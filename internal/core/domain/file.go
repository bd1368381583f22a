package domain

// FileStatus is the processing state of an ingested file. A file is
// created pending and moves to exactly one terminal status during the
// transform phase; terminal rows are never mutated again.
type FileStatus string

const (
	// StatusPending marks a file awaiting transformation.
	StatusPending FileStatus = "pending"

	// StatusProcessed marks a file whose records were extracted.
	StatusProcessed FileStatus = "processed"

	// StatusRejected marks a file refused by the router or the
	// source's format selector. The reason is kept for diagnostics.
	StatusRejected FileStatus = "rejected"

	// StatusError marks a file whose handler failed. The captured
	// error is kept; the batch it belonged to continues.
	StatusError FileStatus = "error"
)

// IngestedFile is one fetched unit of content from a source. The
// (SourceID, ExternalID) pair is unique: re-fetching the same external
// item is a no-op.
type IngestedFile struct {
	ID          int64
	SourceID    string
	ExternalID  string
	ContentHash string
	Size        int64
	Filename    string
	Status      FileStatus
	Error       string
}

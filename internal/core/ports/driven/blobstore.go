package driven

// BlobStore is content-addressed blob storage. Put is idempotent:
// storing identical bytes from any number of callers yields exactly
// one object and the same hash.
type BlobStore interface {
	// Put stores data and returns its content hash. Storing bytes that
	// already exist is a no-op.
	Put(data []byte) (string, error)

	// Get returns the bytes for a hash, or domain.ErrNotFound.
	Get(hash string) ([]byte, error)

	// Exists reports whether a blob with the given hash is stored.
	Exists(hash string) bool

	// Delete removes a blob. Missing blobs are not an error.
	Delete(hash string) error

	// List returns the hashes of all stored blobs.
	List() ([]string, error)
}

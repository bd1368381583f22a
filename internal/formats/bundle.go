package formats

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/zip"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/hashing"
	"github.com/mergehub/mergebot/internal/logger"
)

// Ensure Opaque implements the interface.
var _ driven.FormatHandler = (*Opaque)(nil)

// Opaque handles whole-file container formats. Parse never decomposes
// the content: it emits one descriptor deduplicated by content hash.
// Build bundles all descriptors for a route into a single zip archive.
type Opaque struct {
	id domain.FormatID
}

// NewOpaque creates an opaque handler for the given format id. The
// catch-all bundle and the named container formats (.ehi, .hc, ...)
// share this behaviour and differ only in routing.
func NewOpaque(id domain.FormatID) *Opaque {
	return &Opaque{id: id}
}

// FormatID returns the format this handler serves.
func (h *Opaque) FormatID() domain.FormatID {
	return h.id
}

// Parse emits a single artifact descriptor for the whole file.
func (h *Opaque) Parse(content []byte, meta driven.FileMeta) ([]driven.ParseOutput, error) {
	contentHash := meta.ContentHash
	if contentHash == "" {
		contentHash = hashing.Bytes(content)
	}
	filename := meta.Filename
	if filename == "" {
		filename = contentHash[:12] + ".bin"
	}
	return []driven.ParseOutput{{
		UniqueHash: contentHash,
		Payload: map[string]any{
			"filename":  filename,
			"blob_hash": contentHash,
			"size":      len(content),
		},
	}}, nil
}

// Build packs every descriptor's blob into one zip archive. Filename
// collisions get a numeric prefix; descriptors whose blob has gone
// missing are skipped with a warning rather than failing the route.
func (h *Opaque) Build(records []domain.Record, blobs driven.BlobStore) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	seenNames := make(map[string]bool)
	for _, r := range records {
		blobHash := r.BlobHash()
		if blobHash == "" {
			continue
		}
		content, err := blobs.Get(blobHash)
		if err != nil {
			logger.Warn("bundle %s: blob %.12s missing, skipping", h.id, blobHash)
			continue
		}

		base := r.DescriptorFilename()
		if base == "" {
			base = blobHash[:12] + ".bin"
		}
		name := base
		for i := 1; seenNames[name]; i++ {
			name = fmt.Sprintf("%d_%s", i, base)
		}
		seenNames[name] = true

		f, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("creating archive entry %s: %w", name, err)
		}
		if _, err := f.Write(content); err != nil {
			return nil, fmt.Errorf("writing archive entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

package formats

import (
	"strings"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/hashing"
)

// Ensure ProxyText implements the interface.
var _ driven.FormatHandler = (*ProxyText)(nil)

// ProxyText handles proxy URI text: one URI per line, possibly wrapped
// in a whole-blob base64 envelope, possibly with URIs embedded
// mid-line in channel decoration. It serves both the proxy text and
// the subscription format ids, which share wire shape.
type ProxyText struct {
	id domain.FormatID
}

// NewProxyText creates a handler for one of the proxy URI format ids.
func NewProxyText(id domain.FormatID) *ProxyText {
	return &ProxyText{id: id}
}

// FormatID returns the format this handler serves.
func (h *ProxyText) FormatID() domain.FormatID {
	return h.id
}

// Parse extracts proxy URIs from content. Lines starting with a known
// scheme are taken whole; other lines are scanned for embedded URIs.
// Non-empty lines with no recognizable URI are preserved verbatim as
// generic records so unknown future schemes degrade gracefully instead
// of being lost.
func (h *ProxyText) Parse(content []byte, _ driven.FileMeta) ([]driven.ParseOutput, error) {
	text := maybeUnwrapBase64(string(content))

	var out []driven.ParseOutput
	seen := make(map[string]bool)

	emit := func(line string) {
		uh := hashing.String(line)
		if seen[uh] {
			return
		}
		seen[uh] = true
		out = append(out, driven.ParseOutput{
			UniqueHash: uh,
			Payload:    map[string]any{"line": line},
		})
	}

	for _, raw := range strings.Split(text, "\n") {
		clean := CanonicalLine(raw)
		if clean == "" {
			continue
		}

		if IsProxyLine(clean) {
			emit(clean)
			continue
		}

		if uris := ExtractProxyURIs(clean); len(uris) > 0 {
			for _, uri := range uris {
				emit(CanonicalLine(uri))
			}
			continue
		}

		// Unknown scheme or free text: keep it rather than drop it.
		emit(clean)
	}
	return out, nil
}

// Build concatenates deduplicated URIs in first-seen order.
func (h *ProxyText) Build(records []domain.Record, _ driven.BlobStore) ([]byte, error) {
	return buildLineArtifact(records), nil
}

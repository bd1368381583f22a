package formats

import (
	"strings"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
	"github.com/mergehub/mergebot/internal/hashing"
)

// Ensure ConfLines implements the interface.
var _ driven.FormatHandler = (*ConfLines)(nil)

// ConfLines handles plain line-oriented config text. Each non-empty,
// non-comment line becomes one record; the line is passed through
// verbatim after canonicalization.
type ConfLines struct{}

// NewConfLines creates the config line handler.
func NewConfLines() *ConfLines {
	return &ConfLines{}
}

// FormatID returns the format this handler serves.
func (h *ConfLines) FormatID() domain.FormatID {
	return domain.FormatConfLines
}

// Parse splits content into trimmed lines, dropping blanks and
// comments. The unique hash is computed over the canonical line.
func (h *ConfLines) Parse(content []byte, _ driven.FileMeta) ([]driven.ParseOutput, error) {
	var out []driven.ParseOutput
	for _, line := range strings.Split(string(content), "\n") {
		clean := CanonicalLine(line)
		if clean == "" || strings.HasPrefix(clean, "#") {
			continue
		}
		out = append(out, driven.ParseOutput{
			UniqueHash: hashing.String(clean),
			Payload:    map[string]any{"line": clean},
		})
	}
	return out, nil
}

// Build concatenates deduplicated lines in first-seen order.
func (h *ConfLines) Build(records []domain.Record, _ driven.BlobStore) ([]byte, error) {
	return buildLineArtifact(records), nil
}

// buildLineArtifact joins record lines, dropping duplicates while
// preserving insertion order.
func buildLineArtifact(records []domain.Record) []byte {
	seen := make(map[string]bool, len(records))
	lines := make([]string, 0, len(records))
	for _, r := range records {
		line := r.Line()
		if line == "" || seen[line] {
			continue
		}
		seen[line] = true
		lines = append(lines, line)
	}
	return []byte(strings.Join(lines, "\n"))
}

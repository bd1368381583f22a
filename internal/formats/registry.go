package formats

import (
	"fmt"
	"sort"

	"github.com/mergehub/mergebot/internal/core/domain"
	"github.com/mergehub/mergebot/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.HandlerRegistry = (*Registry)(nil)

// Registry maps format ids to handlers. It is an explicit value built
// once at startup and passed to the phases that need it.
type Registry struct {
	handlers map[domain.FormatID]driven.FormatHandler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[domain.FormatID]driven.FormatHandler)}
}

// Register adds a handler, replacing any earlier handler for the same
// format id.
func (r *Registry) Register(handler driven.FormatHandler) {
	r.handlers[handler.FormatID()] = handler
}

// Get returns the handler for a format id.
func (r *Registry) Get(id domain.FormatID) (driven.FormatHandler, error) {
	h, ok := r.handlers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownFormat, id)
	}
	return h, nil
}

// Formats returns all registered format ids, sorted for stable output.
func (r *Registry) Formats() []domain.FormatID {
	ids := make([]domain.FormatID, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NewDefaultRegistry builds a registry with every built-in handler
// registered: the three line-based handlers plus one opaque handler
// per container format and the catch-all bundle.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewConfLines())
	r.Register(NewProxyText(domain.FormatProxyText))
	r.Register(NewProxyText(domain.FormatSubscription))
	for _, id := range []domain.FormatID{
		domain.FormatOVPN, domain.FormatNPV4, domain.FormatEHI,
		domain.FormatHC, domain.FormatHAT, domain.FormatSIP,
		domain.FormatNM, domain.FormatDark, domain.FormatOpaqueBundle,
	} {
		r.Register(NewOpaque(id))
	}
	return r
}

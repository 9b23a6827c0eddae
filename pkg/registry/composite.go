package registry

import (
	"context"

	"github.com/aretw0/tick/pkg/domain"
	"github.com/aretw0/tick/pkg/ports"
)

var (
	_ ports.HandlerRepository = (*Composite)(nil)
	_ ports.HandlerCatalog    = (*Composite)(nil)
)

// Composite routes each handler to the first repository declaring it.
// Repositories that are not a ports.HandlerCatalog declare every handler.
type Composite struct {
	repos []ports.HandlerRepository
}

// NewComposite chains the repositories in priority order.
func NewComposite(repos ...ports.HandlerRepository) *Composite {
	return &Composite{repos: repos}
}

func (c *Composite) route(handler string) (ports.HandlerRepository, bool) {
	for _, r := range c.repos {
		cat, ok := r.(ports.HandlerCatalog)
		if !ok || cat.Has(handler) {
			return r, true
		}
	}
	return nil, false
}

// Has implements ports.HandlerCatalog.
func (c *Composite) Has(handler string) bool {
	_, ok := c.route(handler)
	return ok
}

// Invoke implements ports.HandlerRepository.
func (c *Composite) Invoke(ctx context.Context, handler string, contexts map[string]any) (map[string]any, error) {
	r, ok := c.route(handler)
	if !ok {
		return nil, &domain.HandlerError{Handler: handler, Err: domain.ErrHandlerNotFound}
	}
	return r.Invoke(ctx, handler, contexts)
}

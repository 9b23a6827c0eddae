// Package registry provides an in-process ports.HandlerRepository.
//
// Handlers are addressed as "namespace:name". A namespace is usually contributed
// by a Provider, the unit in which business logic is packaged and registered.
package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/tick/pkg/domain"
)

// Handler defines the signature for a handler implementation.
// It receives a snapshot of the session contexts and returns the produced values.
type Handler func(ctx context.Context, contexts map[string]any) (map[string]any, error)

// Provider contributes a set of handlers under one namespace.
type Provider interface {
	Namespace() string
	Handlers() map[string]Handler
}

// Registry manages the available handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates a new registry populated with the given providers.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{
		handlers: make(map[string]Handler),
	}
	for _, p := range providers {
		if err := r.RegisterProvider(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a handler under its full "namespace:name" id.
// Registering the same id twice is an error.
func (r *Registry) Register(id string, fn Handler) error {
	if ns, name, ok := strings.Cut(id, ":"); !ok || ns == "" || name == "" {
		return fmt.Errorf("handler id %q must be namespace:name", id)
	}
	if fn == nil {
		return fmt.Errorf("handler %q is nil", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[id]; dup {
		return fmt.Errorf("handler %q already registered", id)
	}
	r.handlers[id] = fn
	return nil
}

// RegisterProvider registers every handler of the provider in its namespace.
func (r *Registry) RegisterProvider(p Provider) error {
	handlers := p.Handlers()
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.Register(p.Namespace()+":"+name, handlers[name]); err != nil {
			return err
		}
	}
	return nil
}

// Has implements ports.HandlerCatalog.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[id]
	return ok
}

// Names returns the registered handler ids, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		names = append(names, id)
	}
	sort.Strings(names)
	return names
}

// Invoke implements ports.HandlerRepository.
// An unregistered id fails with a *domain.HandlerError wrapping domain.ErrHandlerNotFound.
func (r *Registry) Invoke(ctx context.Context, id string, contexts map[string]any) (map[string]any, error) {
	r.mu.RLock()
	fn, ok := r.handlers[id]
	r.mu.RUnlock()

	if !ok {
		return nil, &domain.HandlerError{Handler: id, Err: domain.ErrHandlerNotFound}
	}

	return fn(ctx, contexts)
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tick/pkg/domain"
)

// Loader implements ports.ConfigurationLoader over configurations held in memory.
type Loader struct {
	mu      sync.RWMutex
	configs map[string]domain.Configuration
}

// NewLoader creates a loader serving the given configurations by id.
func NewLoader(configs ...domain.Configuration) (*Loader, error) {
	l := &Loader{configs: make(map[string]domain.Configuration, len(configs))}
	for _, cfg := range configs {
		if err := l.Put(cfg); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Put adds or replaces a configuration.
func (l *Loader) Put(cfg domain.Configuration) error {
	if cfg.ID == "" {
		return fmt.Errorf("configuration missing id")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.configs[cfg.ID] = cfg
	return nil
}

// Load returns the configuration of the story.
func (l *Loader) Load(_ context.Context, storyID string) (domain.Configuration, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	cfg, ok := l.configs[storyID]
	if !ok {
		return domain.Configuration{}, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	return cfg, nil
}

// List returns the story ids, sorted.
func (l *Loader) List(_ context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.configs))
	for id := range l.configs {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}

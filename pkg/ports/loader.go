package ports

import (
	"context"

	"github.com/aretw0/tick/pkg/domain"
)

// ConfigurationLoader reads story configurations.
type ConfigurationLoader interface {
	// Load returns the configuration of the story.
	Load(ctx context.Context, storyID string) (domain.Configuration, error)

	// List returns the available story ids.
	List(ctx context.Context) ([]string, error)
}

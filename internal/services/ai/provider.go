package ai

import (
	"context"
	"time"

	"github.com/ganderhq/gander/internal/models"
)

// DraftProvider is the interface for language-model backends that turn
// a raw utterance into a best-effort draft command. The draft is a
// hint for the normalizer, never a trusted result.
type DraftProvider interface {
	// DraftUtterance interprets an utterance against the caller's
	// reference time and zone and returns a draft command.
	DraftUtterance(ctx context.Context, utterance string, now time.Time, zone string) (*models.DraftCommand, error)
}

// ProviderFactory creates a draft provider based on the provider type
type ProviderFactory func(config map[string]string) (DraftProvider, error)

// ProviderRegistry stores available draft providers
type ProviderRegistry struct {
	providers map[string]ProviderFactory
}

// NewProviderRegistry creates a new provider registry
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers: make(map[string]ProviderFactory),
	}
}

// Register registers a provider factory
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) {
	r.providers[name] = factory
}

// GetProvider gets a provider by name
func (r *ProviderRegistry) GetProvider(name string, config map[string]string) (DraftProvider, error) {
	factory, ok := r.providers[name]
	if !ok {
		return nil, &ErrProviderNotFound{Name: name}
	}

	return factory(config)
}

// ErrProviderNotFound is returned when a provider is not found
type ErrProviderNotFound struct {
	Name string
}

func (e *ErrProviderNotFound) Error() string {
	return "draft provider not found: " + e.Name
}

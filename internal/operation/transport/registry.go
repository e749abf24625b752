package transport

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// TransportConfig is the base interface for transport configuration.
// Each transport type implements this interface with its specific configuration fields.
type TransportConfig interface {
	// TransportType returns the transport type identifier ("http", "aws_sigv4", "oauth2")
	TransportType() string

	// Validate checks if the configuration is valid
	Validate() error
}

// TransportFactory creates a transport instance with the given configuration.
type TransportFactory func(ctx context.Context, config TransportConfig) (Transport, error)

// Registry manages transport registration and creation.
type Registry struct {
	mu         sync.RWMutex
	transports map[string]TransportFactory
}

// NewRegistry creates an empty transport registry.
func NewRegistry() *Registry {
	return &Registry{
		transports: make(map[string]TransportFactory),
	}
}

// NewDefaultRegistry returns a registry with the http, oauth2 and
// aws_sigv4 transports registered.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register("http", func(_ context.Context, cfg TransportConfig) (Transport, error) {
		c, ok := cfg.(*HTTPTransportConfig)
		if !ok {
			return nil, fmt.Errorf("expected *HTTPTransportConfig, got %T", cfg)
		}
		return NewHTTPTransport(c)
	})
	_ = r.Register("oauth2", func(_ context.Context, cfg TransportConfig) (Transport, error) {
		c, ok := cfg.(*OAuth2TransportConfig)
		if !ok {
			return nil, fmt.Errorf("expected *OAuth2TransportConfig, got %T", cfg)
		}
		return NewOAuth2Transport(c)
	})
	_ = r.Register("aws_sigv4", func(ctx context.Context, cfg TransportConfig) (Transport, error) {
		c, ok := cfg.(*AWSTransportConfig)
		if !ok {
			return nil, fmt.Errorf("expected *AWSTransportConfig, got %T", cfg)
		}
		return NewAWSTransport(ctx, c)
	})
	return r
}

// Register adds a transport factory to the registry.
// Returns an error if a transport with the same name is already registered.
func (r *Registry) Register(name string, factory TransportFactory) error {
	if name == "" {
		return fmt.Errorf("transport name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("transport factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.transports[name]; exists {
		return fmt.Errorf("transport %q is already registered", name)
	}

	r.transports[name] = factory
	return nil
}

// Create validates config and instantiates the transport registered under
// its type.
func (r *Registry) Create(ctx context.Context, config TransportConfig) (Transport, error) {
	if config == nil {
		return nil, fmt.Errorf("transport configuration cannot be nil")
	}

	name := config.TransportType()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for transport %q: %w", name, err)
	}

	r.mu.RLock()
	factory, exists := r.transports[name]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("transport %q is not registered", name)
	}

	return factory(ctx, config)
}

// List returns the names of all registered transports, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.transports))
	for name := range r.transports {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has returns true if a transport with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.transports[name]
	return exists
}

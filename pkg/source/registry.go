package source

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/textreader/pkg/errors"
	"github.com/ajitpratap0/textreader/pkg/logger"
)

// Opener opens a URI of a registered scheme
type Opener func(ctx context.Context, uri string, opts Options) (Source, error)

// Registry maps URI schemes to openers
type Registry struct {
	openers map[string]Opener
	mu      sync.RWMutex
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{openers: make(map[string]Opener)}
}

// Register adds an opener for scheme
func (r *Registry) Register(scheme string, opener Opener) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.openers[scheme]; exists {
		return errors.Newf(errors.ErrorTypeConfiguration, "source scheme %s already registered", scheme)
	}
	r.openers[scheme] = opener
	logger.Debug("source scheme registered", zap.String("scheme", scheme))
	return nil
}

// Opener returns the opener for scheme
func (r *Registry) Opener(scheme string) (Opener, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opener, ok := r.openers[scheme]
	if !ok {
		return nil, errors.Wrap(errors.ErrInvalidOption, errors.ErrorTypeConfiguration,
			"no source registered for scheme "+scheme+"://").WithDetail("scheme", scheme)
	}
	return opener, nil
}

// Schemes lists the registered schemes in order
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.openers))
	for s := range r.openers {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Register adds an opener to the global registry
func Register(scheme string, opener Opener) error {
	return globalRegistry.Register(scheme, opener)
}

// Schemes lists the schemes of the global registry
func Schemes() []string {
	return globalRegistry.Schemes()
}

package backend

import (
	"sync"

	"github.com/fnkit/fnkit/errors"
)

// Registry holds providers in priority order plus the mutable threshold
// table. Providers are registered at startup; thresholds and the enabled
// set may change at runtime and are read fresh at every dispatch.
type Registry struct {
	mu         sync.RWMutex
	providers  []Provider
	byName     map[string]Provider
	thresholds map[string]int
	disabled   map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:     make(map[string]Provider),
		thresholds: make(map[string]int),
		disabled:   make(map[string]bool),
	}
}

// Register appends a provider at the lowest priority. Registering a name
// twice replaces the earlier provider in place, keeping its priority.
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, ok := r.byName[name]; ok {
		for i, existing := range r.providers {
			if existing.Name() == name {
				r.providers[i] = p
				break
			}
		}
	} else {
		r.providers = append(r.providers, p)
	}
	r.byName[name] = p
	if _, ok := r.thresholds[name]; !ok {
		r.thresholds[name] = p.Capability().DefaultThreshold
	}
}

// SetThreshold sets the minimum element count for automatic selection of
// the named backend. Negative thresholds and unknown names are
// configuration errors.
func (r *Registry) SetThreshold(name string, threshold int) error {
	if threshold < 0 {
		return errors.InvalidThreshold(name, threshold)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return errors.UnknownBackend(name)
	}
	r.thresholds[name] = threshold
	return nil
}

// Threshold returns the current threshold for the named backend.
func (r *Registry) Threshold(name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.byName[name]; !ok {
		return 0, errors.UnknownBackend(name)
	}
	return r.thresholds[name], nil
}

// Enable makes the named backend eligible for automatic selection again.
func (r *Registry) Enable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return errors.UnknownBackend(name)
	}
	delete(r.disabled, name)
	return nil
}

// Disable removes the named backend from automatic selection. Explicit
// variants also refuse a disabled backend.
func (r *Registry) Disable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; !ok {
		return errors.UnknownBackend(name)
	}
	r.disabled[name] = true
	return nil
}

// IsAvailable reports whether the named backend is registered and enabled.
func (r *Registry) IsAvailable(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[name]
	return ok && !r.disabled[name]
}

// Provider returns the named backend for explicit-variant calls. Unknown
// or disabled backends fail loudly: the caller opted out of fallback.
func (r *Registry) Provider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byName[name]
	if !ok || r.disabled[name] {
		return nil, errors.BackendUnavailable(name)
	}
	return p, nil
}

// Names returns registered backend names in priority order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.providers))
	for i, p := range r.providers {
		names[i] = p.Name()
	}
	return names
}

// snapshot returns the provider list and per-provider eligibility data
// under one read lock.
func (r *Registry) snapshot() ([]Provider, map[string]int, map[string]bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	providers := make([]Provider, len(r.providers))
	copy(providers, r.providers)
	thresholds := make(map[string]int, len(r.thresholds))
	for k, v := range r.thresholds {
		thresholds[k] = v
	}
	disabled := make(map[string]bool, len(r.disabled))
	for k, v := range r.disabled {
		disabled[k] = v
	}
	return providers, thresholds, disabled
}

// --- Default registry ---

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry with the built-in providers
// registered. Pipelines use it unless another registry is injected.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		defaultReg.Register(NewNative())
		defaultReg.Register(NewBitwise())
	})
	return defaultReg
}

// SetThreshold configures the default registry.
func SetThreshold(name string, threshold int) error {
	return Default().SetThreshold(name, threshold)
}

// Enable configures the default registry.
func Enable(name string) error { return Default().Enable(name) }

// Disable configures the default registry.
func Disable(name string) error { return Default().Disable(name) }

// IsAvailable queries the default registry.
func IsAvailable(name string) bool { return Default().IsAvailable(name) }

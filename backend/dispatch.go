package backend

import (
	"context"

	"github.com/fnkit/fnkit/logger"
	"github.com/fnkit/fnkit/observability"
)

// Dispatcher selects a provider for one bulk operation, or none, in which
// case the interpreted path runs.
type Dispatcher struct {
	reg     *Registry
	log     *logger.Logger
	metrics *observability.Metrics
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithLogger sets the diagnostic logger.
func WithLogger(l *logger.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.log = l }
}

// WithMetrics sets the dispatch counter set.
func WithMetrics(m *observability.Metrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher over a registry.
func NewDispatcher(reg *Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{reg: reg, log: logger.Nop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry this dispatcher selects from.
func (d *Dispatcher) Registry() *Registry { return d.reg }

// Select iterates registered capabilities in priority order and returns
// the first provider whose capability lists the (kind, operator) pair,
// whose element constraint admits the hint, and whose current threshold
// the element count meets. Nil means the interpreted path.
func (d *Dispatcher) Select(desc Descriptor) Provider {
	providers, thresholds, disabled := d.reg.snapshot()
	for _, p := range providers {
		name := p.Name()
		if disabled[name] {
			continue
		}
		if !p.Capability().Supports(desc) {
			continue
		}
		if desc.Size < thresholds[name] {
			continue
		}
		d.noteDispatch(name, desc)
		return p
	}
	d.noteDispatch("interpreted", desc)
	return nil
}

// Named returns the named provider for explicit-variant calls, failing
// loudly when it is unregistered or disabled.
func (d *Dispatcher) Named(name string) (Provider, error) {
	return d.reg.Provider(name)
}

// NoteFallback records a native-path failure that degraded to the
// interpreted path. Fallback is silent toward the caller; this is the
// only trace it leaves.
func (d *Dispatcher) NoteFallback(name string, desc Descriptor, err error) {
	d.log.Debug("native path failed, restarting on interpreted path", logger.Fields(
		logger.FieldBackend, name,
		logger.FieldKind, string(desc.Kind),
		logger.FieldOperation, string(desc.Op),
		logger.FieldElements, desc.Size,
		logger.FieldError, err.Error(),
	))
	d.metrics.RecordFallback(context.Background(), name, string(desc.Op))
}

func (d *Dispatcher) noteDispatch(name string, desc Descriptor) {
	d.log.Trace("dispatch", logger.Fields(
		logger.FieldBackend, name,
		logger.FieldKind, string(desc.Kind),
		logger.FieldOperation, string(desc.Op),
		logger.FieldElements, desc.Size,
	))
	d.metrics.RecordDispatch(context.Background(), name, string(desc.Kind), string(desc.Op))
}

// --- Default dispatcher ---

var defaultDispatcher *Dispatcher

func init() {
	defaultDispatcher = NewDispatcher(Default(), WithLogger(logger.Nop()))
}

// DefaultDispatcher returns the dispatcher over the default registry.
func DefaultDispatcher() *Dispatcher { return defaultDispatcher }

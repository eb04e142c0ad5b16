package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/fnkit/fnkit"

// Metrics records engine-level counters against the global meter provider.
type Metrics struct {
	dispatches metric.Int64Counter
	fallbacks  metric.Int64Counter
}

// NewMetrics creates the fnkit instrument set. Instrument creation only
// fails on malformed names, so errors surface immediately.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)

	dispatches, err := meter.Int64Counter("fnkit.dispatch.count",
		metric.WithDescription("Bulk operations routed per backend"))
	if err != nil {
		return nil, err
	}
	fallbacks, err := meter.Int64Counter("fnkit.dispatch.fallback",
		metric.WithDescription("Native-path failures degraded to the interpreted path"))
	if err != nil {
		return nil, err
	}

	return &Metrics{dispatches: dispatches, fallbacks: fallbacks}, nil
}

// RecordDispatch counts one bulk operation routed to a backend. The
// interpreted path records with backend "interpreted".
func (m *Metrics) RecordDispatch(ctx context.Context, backend, kind, op string) {
	if m == nil {
		return
	}
	m.dispatches.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrBackend, backend),
		attribute.String(AttrKind, kind),
		attribute.String(AttrOperation, op),
	))
}

// RecordFallback counts one native-path failure that restarted on the
// interpreted path.
func (m *Metrics) RecordFallback(ctx context.Context, backend, op string) {
	if m == nil {
		return
	}
	m.fallbacks.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrBackend, backend),
		attribute.String(AttrOperation, op),
	))
}

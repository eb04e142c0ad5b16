package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fnkit/fnkit/version"
)

const tracerName = "github.com/fnkit/fnkit"

// Span attribute keys recorded by the engine.
const (
	AttrPipelineID = "fnkit.pipeline_id"
	AttrBackend    = "fnkit.backend"
	AttrKind       = "fnkit.kind"
	AttrOperation  = "fnkit.operation"
	AttrElements   = "fnkit.elements"
	AttrOutcome    = "fnkit.outcome"
	AttrLabel      = "fnkit.label"
)

// Tracer returns a named tracer from the global provider, stamped with
// the library version.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name, trace.WithInstrumentationVersion(version.Short()))
}

// StartSpan starts a new span using the fnkit tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, name, opts...)
}

// SetSpanAttribute sets a string attribute on the current span.
func SetSpanAttribute(ctx context.Context, key, value string) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String(key, value))
}

// SetSpanInt sets an integer attribute on the current span.
func SetSpanInt(ctx context.Context, key string, value int64) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.Int64(key, value))
}

// SetSpanError records an error on the current span and marks it failed.
func SetSpanError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

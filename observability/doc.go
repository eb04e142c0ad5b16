// Package observability provides OpenTelemetry instrumentation hooks for
// fnkit.
//
// The package uses only the otel API: spans and metrics are recorded against
// the globally registered providers, so they are no-ops unless the embedding
// application installs an SDK. fnkit never initializes exporters itself.
//
//	ctx, span := observability.StartSpan(ctx, "fnkit.dispatch")
//	defer span.End()
package observability

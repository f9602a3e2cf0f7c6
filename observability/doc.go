// Package observability provides OpenTelemetry tracing and metrics for
// provider selection and store lifecycle.
//
// Spans and instruments go through the global otel providers. Export
// replaces them with OTLP/HTTP providers:
//
//	exp, err := observability.Export(ctx, "cachekit", observability.ExportConfig{
//		Endpoint: "localhost:4318",
//		Insecure: true,
//	}, true, true)
//	defer exp.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("cachekit"))
//	metrics.RecordSelection(ctx, "selected", "heap", 3, duration)
package observability

// Package observability provides logrus logging, Prometheus metrics, and OpenTelemetry tracing.
//
// # Logging
//
// Create a logger:
//
//	logger, err := observability.NewLogger("info", observability.FormatText, os.Stderr)
//	logger.WithField("page", "index.md").Info("Rendered page")
//
// Attach a build ID and recover it downstream:
//
//	ctx = observability.WithBuildID(ctx, observability.NewBuildID())
//	observability.FromContext(ctx).Debug("Copying assets")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.PagesRenderedTotal.WithLabelValues("success").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(siteDir, redisClient, version)
//	status := checker.Check(ctx)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "moosedocs",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Related Packages
//
//   - pkg/config: Observability configuration
//   - pkg/server: Metrics and health endpoints
package observability

package observability

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pawpack/backend/internal/config"
	"github.com/pawpack/backend/internal/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	tracingOnce     sync.Once
	tracingShutdown = func(context.Context) error { return nil }
)

// InitTracing installs a tracer provider that writes spans to stdout when tracing is
// enabled. Without it the global no-op provider stays in place. The returned function
// flushes and stops the provider.
func InitTracing(ctx context.Context, cfg config.TracingConfig, env string) func(context.Context) error {
	tracingOnce.Do(func() {
		if !cfg.Enabled {
			return
		}

		serviceName := strings.TrimSpace(cfg.ServiceName)
		if serviceName == "" {
			serviceName = "pawpack-backend"
		}

		res, err := resource.New(ctx, resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("deployment.environment", env),
		))
		if err != nil {
			logger.Warn("Tracing resource init failed (continuing)", map[string]interface{}{"error": err.Error()})
		}

		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
		if err != nil {
			logger.Warn("Tracing exporter init failed, tracing disabled", map[string]interface{}{"error": err.Error()})
			return
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(5*time.Second)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		tracingShutdown = tp.Shutdown

		logger.Info("Tracing initialized", map[string]interface{}{"service": serviceName, "exporter": "stdout"})
	})
	return tracingShutdown
}

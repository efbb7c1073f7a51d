package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/eslsoft/kanaplay/internal/infrastructure/config"
)

const serviceName = "kanaplay"

// Tracing reports whether spans are exported.
type Tracing struct {
	Enabled bool
}

// InitTracing installs a global tracer provider exporting spans as JSON lines.
// When tracing is disabled the otel no-op provider stays in place and the
// returned shutdown does nothing.
func InitTracing(cfg *config.Config, logger *logrus.Logger) (*Tracing, func(), error) {
	if !cfg.Trace.Enabled {
		return &Tracing{}, func() {}, nil
	}

	out, closeOut, err := traceOutput(cfg.Trace.Output)
	if err != nil {
		return nil, nil, err
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		closeOut()
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res := resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(clampRatio(cfg.Trace.SampleRatio)))),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	logger.WithField("output", cfg.Trace.Output).Debug("tracing initialized")

	return &Tracing{Enabled: true}, func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Warn("trace provider shutdown failed")
		}
		closeOut()
	}, nil
}

func traceOutput(target string) (io.Writer, func(), error) {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case "", "stderr":
		return os.Stderr, func() {}, nil
	case "stdout":
		return os.Stdout, func() {}, nil
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func clampRatio(r float64) float64 {
	if r <= 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

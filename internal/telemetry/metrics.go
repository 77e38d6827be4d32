package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const defaultMetricExportInterval = 60 * time.Second

var (
	metricsMutex        sync.RWMutex
	globalMeterProvider *sdkmetric.MeterProvider
	metricsEnabled      bool

	toolCallsCounter      metric.Int64Counter
	toolDurationHistogram metric.Float64Histogram
	toolErrorsCounter     metric.Int64Counter

	backendRequestsCounter   metric.Int64Counter
	backendDurationHistogram metric.Float64Histogram
)

// InitMetrics configures the meter provider. It shares OTEL_EXPORTER_OTLP_ENDPOINT with tracing
// and stays a noop when that is unset.
func InitMetrics(logger *logrus.Logger, version string) (func() error, error) {
	noopShutdown := func() error { return nil }

	if strings.EqualFold(os.Getenv("OTEL_SDK_DISABLED"), "true") || os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") == "" {
		logger.Debug("OTEL Metrics: Not configured, using noop meter")
		return noopShutdown, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	protocol := getOTLPProtocol()
	var exporter sdkmetric.Exporter
	var err error
	switch protocol {
	case "grpc":
		exporter, err = otlpmetricgrpc.New(ctx)
	default:
		exporter, err = otlpmetrichttp.New(ctx)
	}
	if err != nil {
		logger.WithError(err).Warn("OTEL Metrics: Failed to create exporter, falling back to noop meter")
		return noopShutdown, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(getMetricExportInterval(logger)),
		)),
		sdkmetric.WithResource(newResource(ctx, logger, version)),
	)
	otel.SetMeterProvider(mp)

	if err := useMeterProvider(mp); err != nil {
		return noopShutdown, err
	}
	logger.WithField("protocol", protocol).Info("OTEL Metrics: Meter initialised")

	return func() error {
		metricsMutex.Lock()
		defer metricsMutex.Unlock()

		if globalMeterProvider == nil {
			return nil
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		err := globalMeterProvider.Shutdown(shutdownCtx)
		globalMeterProvider = nil
		metricsEnabled = false
		return err
	}, nil
}

// useMeterProvider creates the instruments on mp and turns recording on
func useMeterProvider(mp *sdkmetric.MeterProvider) error {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()

	meter := mp.Meter(instrumentationName)
	var err error

	if toolCallsCounter, err = meter.Int64Counter(
		"mcp.tool.calls",
		metric.WithDescription("Total tool invocations"),
		metric.WithUnit("{call}"),
	); err != nil {
		return fmt.Errorf("failed to create tool calls counter: %w", err)
	}
	if toolDurationHistogram, err = meter.Float64Histogram(
		"mcp.tool.duration",
		metric.WithDescription("Tool execution duration"),
		metric.WithUnit("ms"),
	); err != nil {
		return fmt.Errorf("failed to create tool duration histogram: %w", err)
	}
	if toolErrorsCounter, err = meter.Int64Counter(
		"mcp.tool.errors",
		metric.WithDescription("Tool errors by category"),
		metric.WithUnit("{error}"),
	); err != nil {
		return fmt.Errorf("failed to create tool errors counter: %w", err)
	}
	if backendRequestsCounter, err = meter.Int64Counter(
		"searxng.requests",
		metric.WithDescription("Requests sent to the SearXNG backend"),
		metric.WithUnit("{request}"),
	); err != nil {
		return fmt.Errorf("failed to create backend requests counter: %w", err)
	}
	if backendDurationHistogram, err = meter.Float64Histogram(
		"searxng.request.duration",
		metric.WithDescription("SearXNG round trip duration"),
		metric.WithUnit("ms"),
	); err != nil {
		return fmt.Errorf("failed to create backend duration histogram: %w", err)
	}

	globalMeterProvider = mp
	metricsEnabled = true
	return nil
}

// MetricsEnabled reports whether metric instruments are recording
func MetricsEnabled() bool {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return metricsEnabled
}

// RecordToolCall records one tool invocation and its duration
func RecordToolCall(ctx context.Context, toolName, transport string, success bool, duration time.Duration) {
	if !MetricsEnabled() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrMCPToolName, toolName),
		attribute.String(AttrMCPTransport, transport),
		attribute.Bool(AttrMCPToolSuccess, success),
	)
	toolCallsCounter.Add(ctx, 1, attrs)
	toolDurationHistogram.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordToolError counts a failed tool call under its error category
func RecordToolError(ctx context.Context, toolName, errorType string) {
	if !MetricsEnabled() {
		return
	}
	toolErrorsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrMCPToolName, toolName),
		attribute.String(AttrMCPToolErrorType, errorType),
	))
}

// RecordBackendRequest records one SearXNG round trip. status is 0 when no response arrived.
func RecordBackendRequest(ctx context.Context, format string, status int, duration time.Duration) {
	if !MetricsEnabled() {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrSearchFormat, format),
		attribute.Int(AttrHTTPStatusCode, status),
	)
	backendRequestsCounter.Add(ctx, 1, attrs)
	backendDurationHistogram.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func getMetricExportInterval(logger *logrus.Logger) time.Duration {
	raw := os.Getenv("OTEL_METRIC_EXPORT_INTERVAL")
	if raw == "" {
		return defaultMetricExportInterval
	}
	// OTEL_METRIC_EXPORT_INTERVAL is in milliseconds
	var ms int
	if _, err := fmt.Sscanf(raw, "%d", &ms); err != nil || ms <= 0 {
		logger.WithField("value", raw).Warn("OTEL Metrics: Invalid OTEL_METRIC_EXPORT_INTERVAL, using default")
		return defaultMetricExportInterval
	}
	return time.Duration(ms) * time.Millisecond
}

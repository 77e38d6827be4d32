package telemetry

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	instrumentationName = "github.com/sammcj/mcp-searxng"
	defaultServiceName  = "mcp-searxng"

	defaultMaxAttributeSize = 4096
)

var (
	globalMutex sync.RWMutex

	globalTracer         trace.Tracer
	globalTracerProvider *sdktrace.TracerProvider
	tracingEnabled       bool

	// session attributes attached to every tool span
	globalSessionID string
	globalTransport string
)

// otelErrorHandler routes SDK errors to logrus so nothing is written to stderr in stdio mode
type otelErrorHandler struct {
	logger *logrus.Logger
}

func (h *otelErrorHandler) Handle(err error) {
	if err != nil {
		h.logger.WithError(err).Debug("OTEL: SDK error occurred")
	}
}

// InitTracer configures tracing from the standard OTEL_* environment variables.
// Tracing stays a noop unless OTEL_EXPORTER_OTLP_ENDPOINT is set. The returned shutdown
// function flushes pending spans.
func InitTracer(logger *logrus.Logger, version string) (func() error, error) {
	globalMutex.Lock()
	defer globalMutex.Unlock()

	noopShutdown := func() error { return nil }
	globalTracer = noop.NewTracerProvider().Tracer(instrumentationName)
	tracingEnabled = false

	if strings.EqualFold(os.Getenv("OTEL_SDK_DISABLED"), "true") {
		logger.Debug("OTEL: Explicitly disabled via OTEL_SDK_DISABLED")
		return noopShutdown, nil
	}

	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		logger.Debug("OTEL: Not configured (OTEL_EXPORTER_OTLP_ENDPOINT not set), using noop tracer")
		return noopShutdown, nil
	}

	otel.SetErrorHandler(&otelErrorHandler{logger: logger})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	protocol := getOTLPProtocol()
	logger.WithFields(logrus.Fields{"endpoint": endpoint, "protocol": protocol}).Info("OTEL: Initialising tracer")

	var exporter *otlptrace.Exporter
	var err error
	switch protocol {
	case "grpc":
		exporter, err = otlptracegrpc.New(ctx)
	case "http/protobuf", "http":
		exporter, err = otlptracehttp.New(ctx)
	default:
		logger.WithField("protocol", protocol).Warn("OTEL: Unknown protocol, defaulting to http")
		exporter, err = otlptracehttp.New(ctx)
	}
	if err != nil {
		logger.WithError(err).Warn("OTEL: Failed to create exporter, falling back to noop tracer")
		return noopShutdown, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(newResource(ctx, logger, version)),
		sdktrace.WithSampler(createSampler(logger)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	globalTracer = tp.Tracer(instrumentationName)
	globalTracerProvider = tp
	tracingEnabled = true

	return func() error {
		globalMutex.Lock()
		defer globalMutex.Unlock()

		if globalTracerProvider == nil {
			return nil
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := globalTracerProvider.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shutdown tracer provider: %w", err)
		}
		globalTracerProvider = nil
		tracingEnabled = false
		return nil
	}, nil
}

func newResource(ctx context.Context, logger *logrus.Logger, version string) *resource.Resource {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(getServiceName()),
			semconv.ServiceVersionKey.String(version),
		),
		resource.WithFromEnv(),
	)
	if err != nil {
		logger.WithError(err).Warn("OTEL: Failed to create resource, using default")
		return resource.Default()
	}
	return res
}

// GetTracer returns the active tracer, a noop tracer before InitTracer
func GetTracer() trace.Tracer {
	globalMutex.RLock()
	defer globalMutex.RUnlock()

	if globalTracer == nil {
		return noop.NewTracerProvider().Tracer(instrumentationName)
	}
	return globalTracer
}

// IsEnabled returns true if tracing is enabled
func IsEnabled() bool {
	globalMutex.RLock()
	defer globalMutex.RUnlock()
	return tracingEnabled
}

// GenerateSessionID returns a new random session identifier
func GenerateSessionID() string {
	return uuid.NewString()
}

// SetSession records the process-wide session used to tag tool spans
func SetSession(sessionID, transport string) {
	globalMutex.Lock()
	defer globalMutex.Unlock()
	globalSessionID = sessionID
	globalTransport = transport
}

// StartToolSpan starts a span for one tool call. The caller must end it with EndToolSpan.
func StartToolSpan(ctx context.Context, toolName string, args map[string]any) (context.Context, trace.Span) {
	if !IsEnabled() {
		return ctx, trace.SpanFromContext(ctx)
	}

	globalMutex.RLock()
	sessionID, transport := globalSessionID, globalTransport
	globalMutex.RUnlock()

	ctx, span := GetTracer().Start(ctx, SpanNameToolExecute, trace.WithSpanKind(trace.SpanKindInternal))
	span.SetAttributes(attribute.String(AttrMCPToolName, toolName))
	if sessionID != "" {
		span.SetAttributes(attribute.String(AttrMCPSessionID, sessionID))
	}
	if transport != "" {
		span.SetAttributes(attribute.String(AttrMCPTransport, transport))
	}

	sanitised := SanitiseArguments(args)
	if limit := getMaxAttributeSize(); len(sanitised) > limit {
		span.SetAttributes(
			attribute.String(AttrMCPToolArguments, TruncateString(sanitised, limit)),
			attribute.Bool(AttrMCPToolArguments+".truncated", true),
		)
	} else {
		span.SetAttributes(attribute.String(AttrMCPToolArguments, sanitised))
	}

	return ctx, span
}

// EndToolSpan records the outcome and ends the span
func EndToolSpan(span trace.Span, err error, errorType string) {
	if span == nil {
		return
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(
			attribute.Bool(AttrMCPToolSuccess, false),
			attribute.String(AttrMCPToolError, TruncateString(err.Error(), getMaxAttributeSize())),
			attribute.String(AttrMCPToolErrorType, errorType),
		)
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Bool(AttrMCPToolSuccess, true))
	}
	span.End()
}

// AnnotateSearch adds search request details to the span in ctx
func AnnotateSearch(ctx context.Context, format string, page int, backendHost string) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.String(AttrSearchFormat, format),
		attribute.Int(AttrSearchPage, page),
		attribute.String(AttrSearchBackendHost, backendHost),
	)
}

func getOTLPProtocol() string {
	if protocol := os.Getenv("OTEL_EXPORTER_OTLP_PROTOCOL"); protocol != "" {
		return protocol
	}
	if strings.Contains(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"), ":4317") {
		return "grpc"
	}
	return "http/protobuf"
}

func getServiceName() string {
	if name := os.Getenv("OTEL_SERVICE_NAME"); name != "" {
		return name
	}
	return defaultServiceName
}

func createSampler(logger *logrus.Logger) sdktrace.Sampler {
	samplerType := os.Getenv("OTEL_TRACES_SAMPLER")
	ratio := parseRatio(os.Getenv("OTEL_TRACES_SAMPLER_ARG"), 1.0)

	switch samplerType {
	case "", "always_on":
		return sdktrace.AlwaysSample()
	case "always_off":
		return sdktrace.NeverSample()
	case "traceidratio":
		return sdktrace.TraceIDRatioBased(ratio)
	case "parentbased_always_on":
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	case "parentbased_always_off":
		return sdktrace.ParentBased(sdktrace.NeverSample())
	case "parentbased_traceidratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	default:
		logger.WithField("sampler", samplerType).Warn("OTEL: Unknown sampler type, using always_on")
		return sdktrace.AlwaysSample()
	}
}

func parseRatio(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return min(max(f, 0), 1)
}

func getMaxAttributeSize() int {
	size, err := strconv.Atoi(os.Getenv("MCP_TRACING_MAX_ATTRIBUTE_SIZE"))
	if err != nil || size <= 0 {
		return defaultMaxAttributeSize
	}
	return min(max(size, 1024), 65536)
}

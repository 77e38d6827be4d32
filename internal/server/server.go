// Package server assembles the MCP server from the tool registry and serves it over stdio, streamable HTTP or SSE.
package server

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/mcp-searxng/internal/params"
	"github.com/sammcj/mcp-searxng/internal/registry"
	"github.com/sammcj/mcp-searxng/internal/searxng"
	"github.com/sammcj/mcp-searxng/internal/telemetry"
	"github.com/sammcj/mcp-searxng/internal/tools"
	"github.com/sammcj/mcp-searxng/internal/tools/search"
	"github.com/sirupsen/logrus"
)

// Name is the server name reported during initialisation
const Name = "mcp-searxng"

// Options configures New
type Options struct {
	Version string
	// Transport labels spans, metrics and error log entries: stdio, http or sse
	Transport   string
	ErrorLogger *tools.ErrorLogger
}

// New creates an MCP server exposing every enabled tool in the registry.
// Tools must be registered before calling New.
func New(logger *logrus.Logger, opts Options) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(Name, opts.Version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	for _, name := range registry.GetEnabledToolNames() {
		tool, ok := registry.GetTool(name)
		if !ok {
			continue
		}
		srv.AddTool(tool.Definition(), toolHandler(name, logger, opts))
		logger.WithField("tool", name).Debug("Tool added to MCP server")
	}

	return srv
}

// toolHandler adapts a registry tool to mcp-go. Tool errors become failed tool calls
// (IsError) so the caller sees the message instead of a protocol error.
func toolHandler(name string, logger *logrus.Logger, opts Options) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tool, ok := registry.GetTool(name)
		if !ok {
			return nil, errors.New("tool not found: " + name)
		}
		args := request.GetArguments()

		ctx, span := telemetry.StartToolSpan(ctx, name, args)
		start := time.Now()

		result, err := tool.Execute(ctx, logger, args)
		if err == nil && result == nil {
			err = errors.New("tool returned no result")
		}

		errorType := ClassifyError(err)
		telemetry.EndToolSpan(span, err, errorType)
		telemetry.RecordToolCall(ctx, name, opts.Transport, err == nil, time.Since(start))

		if err != nil {
			telemetry.RecordToolError(ctx, name, errorType)
			opts.ErrorLogger.Record(name, args, err, opts.Transport)
			logger.WithFields(logrus.Fields{
				"tool":       name,
				"error_type": errorType,
			}).WithError(err).Warn("Tool execution failed")
			return mcp.NewToolResultError(err.Error()), nil
		}
		return result, nil
	}
}

// ClassifyError maps an error to one of the telemetry error categories. Nil maps to "".
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}

	var (
		argErr       *search.ArgumentError
		validErr     *params.ValidationError
		transportErr *searxng.TransportError
		upstreamErr  *searxng.UpstreamError
		decodeErr    *searxng.DecodeError
	)
	switch {
	case errors.As(err, &argErr):
		return telemetry.ErrorTypeArgument
	case errors.As(err, &validErr):
		return telemetry.ErrorTypeValidation
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return telemetry.ErrorTypeCancelled
	case errors.As(err, &transportErr):
		return telemetry.ErrorTypeTransport
	case errors.As(err, &upstreamErr):
		return telemetry.ErrorTypeUpstream
	case errors.As(err, &decodeErr):
		return telemetry.ErrorTypeDecode
	default:
		return telemetry.ErrorTypeInternal
	}
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sammcj/mcp-searxng/internal/config"
	"github.com/sammcj/mcp-searxng/internal/params"
	"github.com/sammcj/mcp-searxng/internal/registry"
	"github.com/sammcj/mcp-searxng/internal/searxng"
	"github.com/sammcj/mcp-searxng/internal/telemetry"
	"github.com/sammcj/mcp-searxng/internal/testutils"
	"github.com/sammcj/mcp-searxng/internal/tools"
	"github.com/sammcj/mcp-searxng/internal/tools/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T, opts Options, disabled ...string) *mcpserver.MCPServer {
	t.Helper()
	testutils.ClearProxyEnv(t)

	backend := testutils.NewSearXNGBackend(t)
	logger := testutils.CreateTestLogger()
	registry.Init(logger, disabled)
	t.Cleanup(func() { registry.Init(nil, nil) })

	cfg := &config.Config{SearXNGURL: backend.URL, UserAgent: "mcp-searxng/test"}
	require.NoError(t, RegisterTools(cfg, logger))

	if opts.Version == "" {
		opts.Version = "test"
	}
	return New(logger, opts)
}

func startClient(t *testing.T, srv *mcpserver.MCPServer) *client.Client {
	t.Helper()
	ctx := context.Background()

	c, err := client.NewInProcessClient(srv)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	require.NoError(t, c.Start(ctx))

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "server-test", Version: "1.0.0"}
	res, err := c.Initialize(ctx, initReq)
	require.NoError(t, err)
	assert.Equal(t, Name, res.ServerInfo.Name)
	return c
}

func callSearch(t *testing.T, c *client.Client, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = search.ToolName
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	return res
}

func textContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestListToolsAndPing(t *testing.T) {
	c := startClient(t, setupServer(t, Options{}))
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)

	byName := map[string]mcp.Tool{}
	for _, tool := range list.Tools {
		byName[tool.Name] = tool
	}
	require.Contains(t, byName, "search")
	require.Contains(t, byName, "get_tool_help")
	assert.Equal(t, []string{"q"}, byName["search"].InputSchema.Required)
	assert.Contains(t, byName["search"].InputSchema.Properties, "disabled_engines")
}

func TestDisabledToolIsNotListed(t *testing.T) {
	c := startClient(t, setupServer(t, Options{}, "get_tool_help"))

	list, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Tools, 1)
	assert.Equal(t, "search", list.Tools[0].Name)
}

func TestCallSearch_EachFormat(t *testing.T) {
	c := startClient(t, setupServer(t, Options{}))

	t.Run("json", func(t *testing.T) {
		res := callSearch(t, c, map[string]any{"q": "golang"})
		assert.False(t, res.IsError)
		assert.JSONEq(t, testutils.JSONBody, textContent(t, res))
	})

	t.Run("csv", func(t *testing.T) {
		res := callSearch(t, c, map[string]any{"q": "golang", "format": "csv"})
		assert.False(t, res.IsError)

		var payload struct {
			Output [][]string `json:"output"`
		}
		require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &payload))
		require.Len(t, payload.Output, 2)
		assert.Equal(t, []string{"title", "url", "content"}, payload.Output[0])
		assert.Equal(t, "The Go programming language, fast", payload.Output[1][2])
	})

	t.Run("html", func(t *testing.T) {
		res := callSearch(t, c, map[string]any{"q": "golang", "format": "html"})
		assert.False(t, res.IsError)
		assert.Equal(t, testutils.HTMLBody, textContent(t, res))
	})

	t.Run("rss", func(t *testing.T) {
		res := callSearch(t, c, map[string]any{"q": "golang", "format": "rss"})
		assert.False(t, res.IsError)
		assert.Equal(t, testutils.RSSBody, textContent(t, res))
	})
}

func TestCallSearch_FailuresAreToolErrors(t *testing.T) {
	c := startClient(t, setupServer(t, Options{}))

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{name: "missing query", args: map[string]any{}, want: "'q' is required and cannot be empty"},
		{name: "empty query", args: map[string]any{"q": ""}, want: "'q' is required and cannot be empty"},
		{name: "upstream failure", args: map[string]any{"q": testutils.FailQuery}, want: "SearXNG API error (HTTP 500)"},
		{name: "unknown engine", args: map[string]any{"q": "x", "engines": []any{"duckduckgoo"}}, want: "invalid value for 'engines'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callSearch(t, c, tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, textContent(t, res), tt.want)
		})
	}
}

func TestCallUnknownTool(t *testing.T) {
	c := startClient(t, setupServer(t, Options{}))

	req := mcp.CallToolRequest{}
	req.Params.Name = "does_not_exist"
	_, err := c.CallTool(context.Background(), req)
	assert.Error(t, err)
}

func TestCallToolHelp(t *testing.T) {
	c := startClient(t, setupServer(t, Options{}))

	req := mcp.CallToolRequest{}
	req.Params.Name = "get_tool_help"
	req.Params.Arguments = map[string]any{"tool_name": "search"}
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, textContent(t, res), `"tool_name": "search"`)
}

func TestToolHandler_StructuredContent(t *testing.T) {
	setupServer(t, Options{})
	handler := toolHandler(search.ToolName, testutils.CreateTestLogger(), Options{Transport: "stdio"})

	req := mcp.CallToolRequest{}
	req.Params.Name = search.ToolName
	req.Params.Arguments = map[string]any{"q": "golang"}
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.False(t, res.IsError)

	structured, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "expected structured content, got %T", res.StructuredContent)
	assert.Equal(t, "golang", structured["query"])
	assert.Len(t, structured["results"], 1)
}

func TestToolHandler_RecordsErrors(t *testing.T) {
	dir := t.TempDir()
	errorLogger, err := tools.NewErrorLogger(dir, true, testutils.CreateTestLogger())
	require.NoError(t, err)

	opts := Options{Transport: "http", ErrorLogger: errorLogger}
	setupServer(t, opts)
	handler := toolHandler(search.ToolName, testutils.CreateTestLogger(), opts)

	req := mcp.CallToolRequest{}
	req.Params.Name = search.ToolName
	req.Params.Arguments = map[string]any{"q": testutils.FailQuery, "format": "csv"}
	res, err := handler(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	require.NoError(t, errorLogger.Close())

	data, err := os.ReadFile(filepath.Join(dir, tools.ErrorLogFileName))
	require.NoError(t, err)

	var entry tools.ErrorLogEntry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, search.ToolName, entry.ToolName)
	assert.Equal(t, "http", entry.Transport)
	assert.Equal(t, testutils.FailQuery, entry.Arguments["q"])
	assert.Equal(t, "*searxng.UpstreamError", entry.ErrorType)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{&search.ArgumentError{Param: "pageno", Reason: "must be 1 or greater"}, telemetry.ErrorTypeArgument},
		{&params.ValidationError{Param: "q"}, telemetry.ErrorTypeValidation},
		{&searxng.TransportError{Err: errors.New("connection refused")}, telemetry.ErrorTypeTransport},
		{&searxng.TransportError{Err: context.Canceled}, telemetry.ErrorTypeCancelled},
		{&searxng.TransportError{Err: fmt.Errorf("wrapped: %w", context.DeadlineExceeded)}, telemetry.ErrorTypeCancelled},
		{&searxng.UpstreamError{StatusCode: 502}, telemetry.ErrorTypeUpstream},
		{&searxng.DecodeError{Format: searxng.FormatJSON, Err: errors.New("bad")}, telemetry.ErrorTypeDecode},
		{fmt.Errorf("outer: %w", &searxng.UpstreamError{StatusCode: 403}), telemetry.ErrorTypeUpstream},
		{errors.New("something else"), telemetry.ErrorTypeInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), "%v", tt.err)
	}
}

// Package testutils holds helpers shared by package tests.
package testutils

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

// CreateTestLogger creates a logger that discards output
func CreateTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

// ClearProxyEnv unsets the proxy variables so test clients reach httptest servers directly
func ClearProxyEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		t.Setenv(name, "")
	}
}

// Canned backend bodies served by NewSearXNGBackend
const (
	JSONBody = `{"query":"golang","number_of_results":1,"results":[{"title":"Go","url":"https://go.dev","engine":"duckduckgo"}]}`
	CSVBody  = "title,url,content\nGo,https://go.dev,\"The Go programming language, fast\"\n"
	HTMLBody = "<!DOCTYPE html><html><body><article>Go</article></body></html>"
	RSSBody  = `<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>golang</title></channel></rss>`
)

// FailQuery makes NewSearXNGBackend answer with HTTP 500
const FailQuery = "fail"

// SearXNGBackend is a fake instance answering /search in the requested format
type SearXNGBackend struct {
	*httptest.Server
	hits atomic.Int32
}

// Hits returns the number of /search requests served
func (b *SearXNGBackend) Hits() int {
	return int(b.hits.Load())
}

// NewSearXNGBackend starts a fake instance that is closed when the test ends
func NewSearXNGBackend(t *testing.T) *SearXNGBackend {
	t.Helper()
	b := &SearXNGBackend{}
	b.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		b.hits.Add(1)

		q := r.URL.Query()
		if q.Get("q") == FailQuery {
			http.Error(w, "engine exploded", http.StatusInternalServerError)
			return
		}
		switch q.Get("format") {
		case "json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, JSONBody)
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
			_, _ = io.WriteString(w, CSVBody)
		case "rss":
			w.Header().Set("Content-Type", "application/rss+xml")
			_, _ = io.WriteString(w, RSSBody)
		default:
			w.Header().Set("Content-Type", "text/html")
			_, _ = io.WriteString(w, HTMLBody)
		}
	}))
	t.Cleanup(b.Close)
	return b
}

// MockTool implements tools.Tool and records the arguments of each call
type MockTool struct {
	definition mcp.Tool
	result     *mcp.CallToolResult
	executeErr error

	mu   sync.Mutex
	args []map[string]any
}

// NewMockTool creates a mock with a single required "input" parameter
func NewMockTool(name string) *MockTool {
	return &MockTool{
		definition: mcp.NewTool(name,
			mcp.WithDescription("Mock tool for testing"),
			mcp.WithString("input",
				mcp.Required(),
				mcp.Description("Test input parameter"),
			),
		),
		result: mcp.NewToolResultText("mock result"),
	}
}

// WithDefinition replaces the advertised definition
func (m *MockTool) WithDefinition(def mcp.Tool) *MockTool {
	m.definition = def
	return m
}

// WithError configures the mock to return an error
func (m *MockTool) WithError(err error) *MockTool {
	m.executeErr = err
	return m
}

// WithResult configures the mock to return a specific result
func (m *MockTool) WithResult(result *mcp.CallToolResult) *MockTool {
	m.result = result
	return m
}

// Definition returns the tool's definition for MCP registration
func (m *MockTool) Definition() mcp.Tool {
	return m.definition
}

// Execute records args and returns the configured result or error
func (m *MockTool) Execute(_ context.Context, _ *logrus.Logger, args map[string]any) (*mcp.CallToolResult, error) {
	m.mu.Lock()
	m.args = append(m.args, args)
	m.mu.Unlock()

	if m.executeErr != nil {
		return nil, m.executeErr
	}
	return m.result, nil
}

// Calls returns the arguments of every call so far
func (m *MockTool) Calls() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]map[string]any(nil), m.args...)
}

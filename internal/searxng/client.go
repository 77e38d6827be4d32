// Package searxng talks to a SearXNG instance's /search endpoint.
package searxng

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sammcj/mcp-searxng/internal/telemetry"
	"github.com/sirupsen/logrus"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "mcp-searxng"

// HTTPDoer is the subset of *http.Client the client needs
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ResultKind identifies which field of a Result is populated
type ResultKind int

const (
	// ResultStructured holds a decoded JSON object in Structured
	ResultStructured ResultKind = iota
	// ResultRows holds parsed CSV rows in Rows
	ResultRows
	// ResultText holds the raw body in Body
	ResultText
)

// Result is the normalised backend response for one search
type Result struct {
	Kind       ResultKind
	Format     Format
	Structured map[string]any
	Rows       [][]string
	Body       []byte
}

// Client issues searches against a single SearXNG base URL
type Client struct {
	baseURL   *url.URL
	http      HTTPDoer
	userAgent string
	logger    *logrus.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client
func WithHTTPClient(doer HTTPDoer) Option {
	return func(c *Client) {
		if doer != nil {
			c.http = doer
		}
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger *logrus.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the instance at baseURL
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL:   parsed,
		http:      http.DefaultClient,
		userAgent: DefaultUserAgent,
		logger:    discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ParseBaseURL validates an instance URL and strips any trailing slash
func ParseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("SearXNG base URL is empty")
	}
	parsed, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid SearXNG base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid SearXNG base URL %q: scheme must be http or https", raw)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid SearXNG base URL %q: missing host", raw)
	}
	return parsed, nil
}

// BaseURL returns the instance URL without credentials
func (c *Client) BaseURL() string {
	u := *c.baseURL
	u.User = nil
	return u.String()
}

// Search runs one query. The returned error is a *params.ValidationError, *TransportError,
// *UpstreamError or *DecodeError.
func (c *Client) Search(ctx context.Context, req *SearchRequest) (*Result, error) {
	values, err := req.Params()
	if err != nil {
		return nil, err
	}
	format := req.EffectiveFormat()

	endpoint := *c.baseURL
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + "/search"
	endpoint.RawPath = ""
	endpoint.RawQuery = values.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", acceptHeader(format))
	httpReq.Header.Set("User-Agent", c.userAgent)

	logger := c.logger.WithFields(logrus.Fields{
		"host":   c.baseURL.Host,
		"format": format,
	})
	logger.WithField("params", values.Names()).Debug("Sending SearXNG search request")
	telemetry.AnnotateSearch(ctx, string(format), req.pageNo(), c.baseURL.Host)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		logger.WithError(err).Debug("SearXNG request failed")
		telemetry.RecordBackendRequest(ctx, string(format), 0, time.Since(start))
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	telemetry.RecordBackendRequest(ctx, string(format), resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"bytes":    len(body),
		"duration": time.Since(start),
	}).Debug("Received SearXNG response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return decode(format, body)
}

// decode dispatches on the requested format, never on Content-Type
func decode(format Format, body []byte) (*Result, error) {
	switch format {
	case FormatJSON:
		var obj map[string]any
		if err := json.Unmarshal(body, &obj); err != nil {
			return nil, &DecodeError{Format: format, Err: err}
		}
		if obj == nil {
			return nil, &DecodeError{Format: format, Err: errors.New("response is not a JSON object")}
		}
		return &Result{Kind: ResultStructured, Format: format, Structured: obj, Body: body}, nil

	case FormatCSV:
		rows, err := parseCSV(body)
		if err != nil {
			return nil, &DecodeError{Format: format, Err: err}
		}
		return &Result{Kind: ResultRows, Format: format, Rows: rows, Body: body}, nil

	default:
		return &Result{Kind: ResultText, Format: format, Body: body}, nil
	}
}

func parseCSV(body []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = [][]string{}
	}
	return rows, nil
}

func acceptHeader(format Format) string {
	switch format {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatRSS:
		return "application/rss+xml"
	case FormatHTML:
		return "text/html"
	default:
		return "*/*"
	}
}

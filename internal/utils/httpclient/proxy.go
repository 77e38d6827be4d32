// Package httpclient builds the outbound HTTP client used to reach the SearXNG instance.
package httpclient

import (
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/sammcj/mcp-searxng/internal/telemetry"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ProxyEnvironmentVariables defines the order of preference for proxy environment variables
// Following standard conventions used by curl, wget, and other tools
var ProxyEnvironmentVariables = []string{
	"HTTPS_PROXY",
	"https_proxy",
	"HTTP_PROXY",
	"http_proxy",
}

// Options configures New
type Options struct {
	// Timeout bounds a whole request including the body read. Zero means no timeout.
	Timeout time.Duration
	// RateLimit caps outbound requests per second. Zero disables limiting.
	RateLimit float64
	Logger    *logrus.Logger
}

// New creates an HTTP client with proxy support from the environment, optional rate limiting
// and OTEL instrumentation when tracing is enabled
func New(opts Options) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL := getProxyURL(); proxyURL != "" {
		if parsedProxy, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsedProxy)
			if opts.Logger != nil {
				opts.Logger.WithField("proxy_url", redactProxyCredentials(proxyURL)).Debug("HTTP client configured with proxy")
			}
		} else if opts.Logger != nil {
			opts.Logger.WithError(err).WithField("proxy_url", redactProxyCredentials(proxyURL)).Warn("Failed to parse proxy URL, using direct connection")
		}
	}

	var rt http.RoundTripper = transport
	if opts.RateLimit > 0 {
		rt = NewRateLimitedTransport(rt, opts.RateLimit)
		if opts.Logger != nil {
			opts.Logger.WithField("requests_per_second", opts.RateLimit).Debug("HTTP client rate limited")
		}
	}

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: telemetry.WrapHTTPTransport(rt),
	}
}

// RateLimitedTransport delays requests so no more than the configured rate leave the process
type RateLimitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

// NewRateLimitedTransport wraps next with a limiter allowing rps requests per second and a burst of 1
func NewRateLimitedTransport(next http.RoundTripper, rps float64) *RateLimitedTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RateLimitedTransport{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// RoundTrip waits for the limiter, giving up when the request context ends
func (t *RateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

// getProxyURL returns the first valid proxy URL from environment variables
// Returns empty string if no proxy is configured
func getProxyURL() string {
	for _, envVar := range ProxyEnvironmentVariables {
		if proxyURL := os.Getenv(envVar); proxyURL != "" {
			// placeholder values some launchers pass through unexpanded
			if proxyURL != "$HTTPS_PROXY" && proxyURL != "$HTTP_PROXY" {
				return proxyURL
			}
		}
	}
	return ""
}

// redactProxyCredentials removes credentials from proxy URL for safe logging
func redactProxyCredentials(proxyURL string) string {
	if parsed, err := url.Parse(proxyURL); err == nil {
		if parsed.User != nil {
			parsed.User = url.UserPassword("***", "***")
		}
		return parsed.String()
	}
	return "[invalid-url]"
}

// IsProxyConfigured returns true if any proxy environment variable is set
func IsProxyConfigured() bool {
	return getProxyURL() != ""
}

package server

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// Transport names accepted by the http command
const (
	TransportHTTP           = "http"
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
)

// HTTPOptions configures ServeHTTP
type HTTPOptions struct {
	Transport string
	Host      string
	Port      int
	// Path is the endpoint prefix, e.g. "/mcp"
	Path string
	// Stateless disables session tracking for streamable HTTP
	Stateless      bool
	SessionTimeout time.Duration
	// AuthToken, when set, is required as a Bearer token on every request
	AuthToken string
}

// Addr returns host:port
func (o HTTPOptions) Addr() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

// Handler builds the HTTP handler for the selected transport
func Handler(mcpSrv *mcpserver.MCPServer, logger *logrus.Logger, opts HTTPOptions) (http.Handler, error) {
	var handler http.Handler

	switch opts.Transport {
	case TransportHTTP, TransportStreamableHTTP, "":
		heartbeat := 30 * time.Second
		if opts.SessionTimeout > 0 {
			heartbeat = opts.SessionTimeout / 4
		}
		streamOpts := []mcpserver.StreamableHTTPOption{
			mcpserver.WithEndpointPath(opts.Path),
			mcpserver.WithHeartbeatInterval(heartbeat),
			mcpserver.WithLogger(&logrusAdapter{logger: logger}),
		}
		if opts.Stateless {
			streamOpts = append(streamOpts, mcpserver.WithStateLess(true))
		} else {
			streamOpts = append(streamOpts, mcpserver.WithSessionIdManager(newSessionManager(opts.SessionTimeout, logger)))
		}

		mux := http.NewServeMux()
		mux.Handle(opts.Path, mcpserver.NewStreamableHTTPServer(mcpSrv, streamOpts...))
		handler = mux

	case TransportSSE:
		basePath := strings.TrimSuffix(opts.Path, "/")
		if basePath == "/" {
			basePath = ""
		}
		handler = mcpserver.NewSSEServer(mcpSrv, mcpserver.WithStaticBasePath(basePath))

	default:
		return nil, fmt.Errorf("unsupported transport: %s", opts.Transport)
	}

	if opts.AuthToken != "" {
		handler = authMiddleware(opts.AuthToken, logger, handler)
		logger.Info("Bearer token authentication enabled")
	}
	return handler, nil
}

// ServeHTTP serves the MCP server until ctx is cancelled, then shuts down gracefully
func ServeHTTP(ctx context.Context, mcpSrv *mcpserver.MCPServer, logger *logrus.Logger, opts HTTPOptions) error {
	handler, err := Handler(mcpSrv, logger, opts)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              opts.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	logger.WithFields(logrus.Fields{
		"transport": opts.Transport,
		"addr":      server.Addr,
		"path":      opts.Path,
		"stateless": opts.Stateless,
	}).Info("Starting HTTP server")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server shutdown failed")
		return err
	}
	logger.Info("HTTP server stopped gracefully")
	return nil
}

// authMiddleware rejects requests without the expected Bearer token
func authMiddleware(expectedToken string, logger *logrus.Logger, next http.Handler) http.Handler {
	const bearerPrefix = "Bearer "

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && !isLocalOrigin(origin) {
			logger.WithField("origin", origin).Debug("Request from non-local origin")
		}

		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, bearerPrefix)
		if !found || subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) != 1 {
			logger.WithField("remote", r.RemoteAddr).Warn("Rejected request with missing or invalid bearer token")
			w.Header().Set("WWW-Authenticate", `Bearer realm="mcp-searxng"`)
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLocalOrigin(origin string) bool {
	for _, allowed := range []string{"http://localhost", "https://localhost", "http://127.0.0.1", "https://127.0.0.1"} {
		if strings.HasPrefix(origin, allowed) {
			return true
		}
	}
	return false
}

// sessionManager issues UUID session IDs and expires them after a period of inactivity
type sessionManager struct {
	mu       sync.Mutex
	sessions map[string]time.Time
	timeout  time.Duration
	logger   *logrus.Logger
	now      func() time.Time
}

func newSessionManager(timeout time.Duration, logger *logrus.Logger) *sessionManager {
	return &sessionManager{
		sessions: make(map[string]time.Time),
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

func (m *sessionManager) Generate() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = m.now()
	m.mu.Unlock()
	m.logger.WithField("session_id", id).Debug("Session created")
	return id
}

// Validate reports isTerminated for expired sessions and an error for unknown ones
func (m *sessionManager) Validate(sessionID string) (bool, error) {
	if sessionID == "" {
		return false, errors.New("empty session ID")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lastSeen, ok := m.sessions[sessionID]
	if !ok {
		return false, fmt.Errorf("unknown session ID: %s", sessionID)
	}
	if m.timeout > 0 && m.now().Sub(lastSeen) > m.timeout {
		delete(m.sessions, sessionID)
		return true, nil
	}
	m.sessions[sessionID] = m.now()
	return false, nil
}

func (m *sessionManager) Terminate(sessionID string) (bool, error) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	m.logger.WithField("session_id", sessionID).Debug("Session terminated")
	return false, nil
}

// logrusAdapter adapts logrus.Logger to the mcp-go util.Logger interface
type logrusAdapter struct {
	logger *logrus.Logger
}

func (l *logrusAdapter) Infof(format string, args ...any) {
	l.logger.Infof(format, args...)
}

func (l *logrusAdapter) Errorf(format string, args ...any) {
	l.logger.Errorf(format, args...)
}

func (l *logrusAdapter) Debugf(format string, args ...any) {
	l.logger.Debugf(format, args...)
}

func (l *logrusAdapter) Warnf(format string, args ...any) {
	l.logger.Warnf(format, args...)
}

package searxng

import (
	"fmt"
)

// maxErrorBody caps how much of an upstream body ends up in an error message
const maxErrorBody = 4096

// TransportError means no response was received from the backend
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("SearXNG request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// UpstreamError carries a non-2xx backend response
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *UpstreamError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "...(truncated)"
	}
	return fmt.Sprintf("SearXNG API error (HTTP %d): %s", e.StatusCode, body)
}

// DecodeError means the body did not match the requested format
type DecodeError struct {
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode SearXNG %s response: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

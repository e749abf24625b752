// Package transport executes vendor API requests for the integration
// adapters.
//
// The transport layer separates protocol concerns (auth headers, OAuth2
// tokens, AWS SigV4 signing, TLS and proxy settings) from the adapters,
// which only build URLs and read JSON. Every transport performs exactly one
// HTTP round trip per Execute call; there is no retry loop.
package transport

import (
	"context"
)

// Transport executes requests with protocol-specific handling.
type Transport interface {
	// Execute sends a request and returns a response.
	// Any status outside 2xx is returned as a *TransportError.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Name returns the transport identifier (e.g., "http", "aws_sigv4", "oauth2").
	Name() string

	// SetRateLimiter configures rate limiting for this transport.
	// Rate limiting occurs before request execution, respecting configured limits.
	SetRateLimiter(limiter RateLimiter)
}

// Request represents a transport-agnostic request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS)
	Method string

	// URL is the full request URL, or a path relative to the transport's
	// base URL.
	URL string

	// Headers are request headers
	Headers map[string]string

	// Body is the request body
	Body []byte

	// Metadata contains transport-specific data
	Metadata map[string]interface{}
}

// Response represents a transport-agnostic response.
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Headers contains response headers
	Headers map[string][]string

	// Body is the response body
	Body []byte

	// Metadata contains transport-specific data (e.g., AWS RequestID)
	Metadata map[string]interface{}
}

// Standard metadata keys used across transports
const (
	// MetadataRequestID is the service request ID
	MetadataRequestID = "request_id"

	// MetadataAWSRequestID is the AWS x-amzn-RequestId header value
	MetadataAWSRequestID = "aws_request_id"
)

// RateLimiter provides rate limiting for transport requests.
// Implementations should block until a request is allowed.
type RateLimiter interface {
	// Wait blocks until a request is allowed under the rate limit.
	// Returns an error if the context is cancelled before the request can proceed.
	Wait(ctx context.Context) error
}

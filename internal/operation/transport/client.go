package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single request when the config leaves it unset.
const DefaultTimeout = 60 * time.Second

// maxMessageBody is the largest body echoed into TransportError.Message.
const maxMessageBody = 500

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "DELETE": true,
	"PATCH": true, "HEAD": true, "OPTIONS": true,
}

// ClientOptions are the connection settings shared by every transport.
type ClientOptions struct {
	// Timeout is the request timeout (default: 60s)
	Timeout time.Duration

	// TLSInsecure disables TLS certificate validation.
	TLSInsecure bool

	// Proxy honours HTTP_PROXY/HTTPS_PROXY/NO_PROXY when true. When false
	// the client always connects directly.
	Proxy bool
}

// NewHTTPClient builds the *http.Client used by the transports.
func NewHTTPClient(opts ClientOptions) *http.Client {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	var proxy func(*http.Request) (*url.URL, error)
	if opts.Proxy {
		proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               proxy,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,

			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: timeout,
			ExpectContinueTimeout: 1 * time.Second,

			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: opts.TLSInsecure,
			},
		},
	}
}

// validateRequest checks the method and URL of a request.
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}
	if !validMethods[req.Method] {
		return fmt.Errorf("invalid HTTP method: %q", req.Method)
	}
	if req.URL == "" {
		return fmt.Errorf("URL is required")
	}
	if _, err := url.Parse(req.URL); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	return nil
}

func invalidRequest(err error) *TransportError {
	return &TransportError{
		Type:    ErrorTypeInvalidReq,
		Message: fmt.Sprintf("invalid request: %s", err.Error()),
		Cause:   err,
	}
}

// resolveURL joins a relative request path onto baseURL.
func resolveURL(baseURL, reqURL string) string {
	if strings.HasPrefix(reqURL, "http://") || strings.HasPrefix(reqURL, "https://") {
		return reqURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(reqURL, "/")
}

// newHTTPRequest builds an *http.Request with defaults then request
// headers applied, and a JSON content type when a body is present.
func newHTTPRequest(ctx context.Context, req *Request, fullURL string, defaults map[string]string) (*http.Request, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, err
	}

	for key, value := range defaults {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

// waitRateLimit blocks on limiter when one is configured.
func waitRateLimit(ctx context.Context, limiter RateLimiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return &TransportError{
			Type:    ErrorTypeCancelled,
			Message: "rate limit wait cancelled",
			Cause:   err,
		}
	}
	return nil
}

// do performs one round trip and converts the outcome into a Response or a
// *TransportError. requestIDHeaders are consulted in order.
// httpDoer is satisfied by *http.Client and the AWS SDK's buildable client.
type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

func do(client httpDoer, httpReq *http.Request, requestIDHeaders ...string) (*Response, error) {
	httpResp, err := client.Do(httpReq)
	if err != nil {
		return nil, classifyHTTPError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeConnection,
			Message: fmt.Sprintf("failed to read response body: %s", err.Error()),
			Cause:   err,
		}
	}

	var requestID string
	for _, h := range append(requestIDHeaders, "X-Request-ID") {
		if requestID = httpResp.Header.Get(h); requestID != "" {
			break
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Metadata:   make(map[string]interface{}),
	}
	if requestID != "" {
		resp.Metadata[MetadataRequestID] = requestID
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		if retryAfter := httpResp.Header.Get("Retry-After"); retryAfter != "" {
			resp.Metadata["retry_after"] = retryAfter
		}
		return nil, classifyHTTPStatusError(httpResp.StatusCode, body, requestID, resp.Metadata)
	}

	return resp, nil
}

// classifyHTTPError classifies HTTP client errors into TransportError types.
func classifyHTTPError(err error) *TransportError {
	if errors.Is(err, context.Canceled) {
		return &TransportError{Type: ErrorTypeCancelled, Message: "request cancelled", Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeoutError(err) {
		return &TransportError{Type: ErrorTypeTimeout, Message: "request timeout", Cause: err}
	}
	if isConnectionError(err) {
		return &TransportError{Type: ErrorTypeConnection, Message: "connection error", Cause: err}
	}
	return &TransportError{
		Type:    ErrorTypeConnection,
		Message: fmt.Sprintf("HTTP error: %s", err.Error()),
		Cause:   err,
	}
}

// ErrorTypeForStatus maps an HTTP status code to an ErrorType.
func ErrorTypeForStatus(statusCode int) ErrorType {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return ErrorTypeAuth
	case statusCode == http.StatusNotFound:
		return ErrorTypeNotFound
	case statusCode == http.StatusTooManyRequests:
		return ErrorTypeRateLimit
	case statusCode == http.StatusRequestTimeout:
		return ErrorTypeTimeout
	case statusCode >= 500:
		return ErrorTypeServer
	default:
		return ErrorTypeClient
	}
}

// classifyHTTPStatusError builds the error for a non-2xx response.
func classifyHTTPStatusError(statusCode int, body []byte, requestID string, metadata map[string]interface{}) *TransportError {
	message := fmt.Sprintf("HTTP %d", statusCode)
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" && len(trimmed) < maxMessageBody {
		message = fmt.Sprintf("HTTP %d: %s", statusCode, trimmed)
	}

	return &TransportError{
		Type:       ErrorTypeForStatus(statusCode),
		StatusCode: statusCode,
		Message:    message,
		Body:       body,
		RequestID:  requestID,
		Metadata:   metadata,
	}
}

// isTimeoutError checks if an error is a timeout error.
func isTimeoutError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isConnectionError checks if an error is a connection error.
func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network unreachable",
		"eof",
	} {
		if strings.Contains(errMsg, keyword) {
			return true
		}
	}
	return false
}

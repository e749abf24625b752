package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Auth types supported by HTTPTransport.
const (
	AuthNone   = "none"
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthAPIKey = "api_key"
)

// HTTPTransport implements the Transport interface for HTTP/HTTPS requests.
// Supports bearer, basic, and API key authentication with configurable
// timeouts, TLS verification, proxy use and default headers.
type HTTPTransport struct {
	config      *HTTPTransportConfig
	client      *http.Client
	rateLimiter RateLimiter
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	// BaseURL is the base URL for relative request paths (required)
	BaseURL string

	// Headers are default headers applied to all requests
	Headers map[string]string

	// Auth configures authentication (nil means none)
	Auth *AuthConfig

	ClientOptions
}

// AuthConfig configures HTTP authentication. Secret values are already
// resolved when they reach the transport.
type AuthConfig struct {
	// Type is the authentication type ("none", "bearer", "basic", "api_key")
	Type string

	// Token is the bearer token (for type: bearer)
	Token string

	// Username for basic auth (type: basic)
	Username string

	// Password for basic auth (type: basic)
	Password string

	// HeaderName is the header name for API key auth (type: api_key)
	// Example: "x-api-key"
	HeaderName string

	// HeaderValue is the API key value (type: api_key)
	HeaderValue string
}

// TransportType returns "http".
func (c *HTTPTransportConfig) TransportType() string {
	return "http"
}

// Validate checks if the configuration is valid.
func (c *HTTPTransportConfig) Validate() error {
	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}

	if c.Auth != nil {
		if err := c.Auth.Validate(); err != nil {
			return fmt.Errorf("invalid auth configuration: %w", err)
		}
	}

	return nil
}

func validateBaseURL(baseURL string) error {
	if baseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return fmt.Errorf("base_url must include scheme (http:// or https://)")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base_url must include host")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	return nil
}

// Validate checks if the auth configuration is valid.
func (a *AuthConfig) Validate() error {
	switch a.Type {
	case "", AuthNone:
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("token is required for bearer auth")
		}

	case AuthBasic:
		if a.Username == "" {
			return fmt.Errorf("username is required for basic auth")
		}
		if a.Password == "" {
			return fmt.Errorf("password is required for basic auth")
		}

	case AuthAPIKey:
		if a.HeaderName == "" {
			return fmt.Errorf("header_name is required for api_key auth")
		}
		if a.HeaderValue == "" {
			return fmt.Errorf("header_value is required for api_key auth")
		}

	default:
		return fmt.Errorf("invalid auth type: %q (must be none, bearer, basic, or api_key)", a.Type)
	}

	return nil
}

// NewHTTPTransport creates a new HTTP transport with the given configuration.
func NewHTTPTransport(config *HTTPTransportConfig) (*HTTPTransport, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &HTTPTransport{
		config: config,
		client: NewHTTPClient(config.ClientOptions),
	}, nil
}

// Name returns "http".
func (t *HTTPTransport) Name() string {
	return "http"
}

// SetRateLimiter configures rate limiting for this transport.
func (t *HTTPTransport) SetRateLimiter(limiter RateLimiter) {
	t.rateLimiter = limiter
}

// Execute sends one HTTP request and returns the response.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, invalidRequest(err)
	}

	if err := waitRateLimit(ctx, t.rateLimiter); err != nil {
		return nil, err
	}

	httpReq, err := newHTTPRequest(ctx, req, resolveURL(t.config.BaseURL, req.URL), t.config.Headers)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("failed to build HTTP request: %s", err.Error()),
			Cause:   err,
		}
	}

	if t.config.Auth != nil {
		t.applyAuth(httpReq)
	}

	return do(t.client, httpReq)
}

// applyAuth applies authentication to the HTTP request.
func (t *HTTPTransport) applyAuth(req *http.Request) {
	auth := t.config.Auth

	switch auth.Type {
	case AuthBearer:
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", auth.Token))

	case AuthBasic:
		req.SetBasicAuth(auth.Username, auth.Password)

	case AuthAPIKey:
		req.Header.Set(auth.HeaderName, auth.HeaderValue)
	}
}

package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2TransportConfig configures the OAuth2 client-credentials transport.
type OAuth2TransportConfig struct {
	// BaseURL is the API base URL (required)
	BaseURL string

	// ClientID is the OAuth2 client ID (required)
	ClientID string

	// ClientSecret is the resolved OAuth2 client secret (required)
	ClientSecret string

	// TokenURL is the OAuth2 token endpoint (required)
	TokenURL string

	// Scopes are the OAuth2 scopes (optional)
	Scopes []string

	// Headers are default headers applied to all API requests
	Headers map[string]string

	ClientOptions
}

// TransportType returns the transport type identifier.
func (c *OAuth2TransportConfig) TransportType() string {
	return "oauth2"
}

// Validate checks the configuration is valid.
func (c *OAuth2TransportConfig) Validate() error {
	if err := validateBaseURL(c.BaseURL); err != nil {
		return err
	}
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required for oauth2 transport")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("client_secret is required for oauth2 transport")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("token_url is required for oauth2 transport")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}
	return nil
}

// OAuth2Transport implements Transport for OAuth2-protected APIs.
// The access token is fetched on first use and reused until it expires.
type OAuth2Transport struct {
	config      *OAuth2TransportConfig
	client      *http.Client
	rateLimiter RateLimiter

	once        sync.Once
	tokenSource oauth2.TokenSource
}

// NewOAuth2Transport creates a new OAuth2 transport. No network call is made
// until the first Execute.
func NewOAuth2Transport(cfg *OAuth2TransportConfig) (*OAuth2Transport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &OAuth2Transport{
		config: cfg,
		client: NewHTTPClient(cfg.ClientOptions),
	}, nil
}

// source lazily builds the token source so that token requests share the
// transport's TLS and proxy settings.
func (t *OAuth2Transport) source() oauth2.TokenSource {
	t.once.Do(func() {
		ccConfig := &clientcredentials.Config{
			ClientID:     t.config.ClientID,
			ClientSecret: t.config.ClientSecret,
			TokenURL:     t.config.TokenURL,
			Scopes:       t.config.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, t.client)
		t.tokenSource = ccConfig.TokenSource(ctx)
	})
	return t.tokenSource
}

// Token returns a valid access token, fetching one if needed.
func (t *OAuth2Transport) Token() (*oauth2.Token, error) {
	token, err := t.source().Token()
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) && rErr.Response != nil {
			return nil, classifyOAuth2Error(rErr.Response.StatusCode, rErr.ErrorCode, rErr.ErrorDescription, err)
		}
		return nil, &TransportError{
			Type:    ErrorTypeAuth,
			Message: fmt.Sprintf("failed to acquire OAuth2 token: %v", err),
			Cause:   err,
		}
	}
	return token, nil
}

// Execute sends a request with OAuth2 authentication.
func (t *OAuth2Transport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, invalidRequest(err)
	}

	if err := waitRateLimit(ctx, t.rateLimiter); err != nil {
		return nil, err
	}

	token, err := t.Token()
	if err != nil {
		return nil, err
	}

	httpReq, err := newHTTPRequest(ctx, req, resolveURL(t.config.BaseURL, req.URL), t.config.Headers)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   err,
		}
	}
	token.SetAuthHeader(httpReq)

	return do(t.client, httpReq)
}

// Name returns the transport identifier.
func (t *OAuth2Transport) Name() string {
	return "oauth2"
}

// SetRateLimiter configures rate limiting for this transport.
func (t *OAuth2Transport) SetRateLimiter(limiter RateLimiter) {
	t.rateLimiter = limiter
}

// classifyOAuth2Error categorizes token endpoint errors by error code.
func classifyOAuth2Error(statusCode int, errorCode, description string, cause error) *TransportError {
	var errorType ErrorType

	switch errorCode {
	case "invalid_client", "invalid_grant", "unauthorized_client", "access_denied":
		errorType = ErrorTypeAuth
	case "temporarily_unavailable", "server_error":
		errorType = ErrorTypeServer
	default:
		errorType = ErrorTypeForStatus(statusCode)
	}

	message := "OAuth2 token request failed"
	if errorCode != "" {
		message = fmt.Sprintf("OAuth2 error %s", errorCode)
	}
	if description != "" {
		message = fmt.Sprintf("%s: %s", message, description)
	}

	return &TransportError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
		Metadata: map[string]interface{}{
			"oauth2_error": errorCode,
		},
	}
}
